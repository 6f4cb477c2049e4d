// Package inventory owns the YAML-backed cryo-sample inventory: the on-disk
// file format, baseline snapshots, preflight validation of staged plan items,
// and applying accepted plans back to disk.
package inventory

// Box describes one storage box as a rows x cols grid of slots.
// Positions are numbered 1..rows*cols, row-major.
type Box struct {
	ID    int    `yaml:"id" json:"id"`                           // Unique box number
	Label string `yaml:"label,omitempty" json:"label,omitempty"` // Human label, e.g. "LN2 Dewar A / Rack 1"
	Rows  int    `yaml:"rows" json:"rows"`                       // Grid rows
	Cols  int    `yaml:"cols" json:"cols"`                       // Grid columns
}

// Capacity returns the number of slots in the box.
func (b Box) Capacity() int {
	return b.Rows * b.Cols
}

// Record is one stored sample vial.
type Record struct {
	ID       string            `yaml:"id" json:"id"`                                   // Unique record id, e.g. "S-0001"
	CellLine string            `yaml:"cell_line" json:"cell_line"`                     // Cell line name, e.g. "K562"
	Box      int               `yaml:"box" json:"box"`                                 // Box the vial sits in
	Position int               `yaml:"position" json:"position"`                       // Slot within the box (1-based)
	FrozenAt string            `yaml:"frozen_at,omitempty" json:"frozen_at,omitempty"` // ISO date the vial was frozen
	Passage  int               `yaml:"passage,omitempty" json:"passage,omitempty"`     // Passage number at freeze time
	Operator string            `yaml:"operator,omitempty" json:"operator,omitempty"`   // Who froze it
	Note     string            `yaml:"note,omitempty" json:"note,omitempty"`           // Free-form note
	Extra    map[string]string `yaml:"extra,omitempty" json:"extra,omitempty"`         // Site-specific fields
}

// Takeout is one journal entry recording a vial removal. The full record
// is kept so a rollback can restore the vial losslessly; rollback
// operations are validated against this journal.
type Takeout struct {
	Record   Record `yaml:"record" json:"record"`
	TakenAt  string `yaml:"taken_at" json:"taken_at"` // ISO timestamp
	Operator string `yaml:"operator,omitempty" json:"operator,omitempty"`
}

// File is the full on-disk inventory document.
type File struct {
	Boxes    []Box     `yaml:"boxes" json:"boxes"`
	Records  []Record  `yaml:"records" json:"records"`
	Takeouts []Takeout `yaml:"takeouts,omitempty" json:"takeouts,omitempty"`
}

// FindBox returns the box with the given id, or nil.
func (f *File) FindBox(id int) *Box {
	for i := range f.Boxes {
		if f.Boxes[i].ID == id {
			return &f.Boxes[i]
		}
	}
	return nil
}

// FindRecord returns the record with the given id, or nil.
func (f *File) FindRecord(id string) *Record {
	for i := range f.Records {
		if f.Records[i].ID == id {
			return &f.Records[i]
		}
	}
	return nil
}

// LastTakeout returns the most recent takeout journal entry for a record,
// or nil if the record was never taken out.
func (f *File) LastTakeout(recordID string) *Takeout {
	for i := len(f.Takeouts) - 1; i >= 0; i-- {
		if f.Takeouts[i].Record.ID == recordID {
			return &f.Takeouts[i]
		}
	}
	return nil
}
