package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DebugLog appends one JSON line per agent event to a file. A nil receiver
// is a no-op, so callers can hold one unconditionally and only open it when
// debug mode is on.
type DebugLog struct {
	mu sync.Mutex
	f  *os.File
}

// OpenDebugLog opens (or creates) the append-only debug log.
func OpenDebugLog() (*DebugLog, error) {
	path := filepath.Join(FrostFolderName, "frost.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open debug log: %w", err)
	}
	return &DebugLog{f: f}, nil
}

type debugLine struct {
	Time    string `json:"time"`
	Type    string `json:"type"`
	TraceID string `json:"trace_id,omitempty"`
	Step    int    `json:"step,omitempty"`
	Channel string `json:"channel,omitempty"`
	Tool    string `json:"tool,omitempty"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error_code,omitempty"`
}

// Record writes a summary of one event. Chunk text is elided to keep the
// log one line per event.
func (d *DebugLog) Record(ev AgentEvent) {
	if d == nil {
		return
	}

	line := debugLine{
		Time:    time.Now().Format(time.RFC3339),
		Type:    ev.Type,
		TraceID: ev.TraceID,
		Step:    ev.Step,
		Channel: ev.Channel,
		Tool:    ev.ToolName,
	}
	switch ev.Type {
	case EventChunk:
		line.Content = fmt.Sprintf("%d chars", len(ev.Content))
	case EventToolEnd:
		if ev.Observation != nil {
			line.Error = ev.Observation.ErrorCode
			line.Content = ev.Observation.Message
		}
	default:
		line.Content = ev.Content
	}

	data, err := json.Marshal(line)
	if err != nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.f.Write(append(data, '\n'))
}

// Close closes the underlying file.
func (d *DebugLog) Close() error {
	if d == nil {
		return nil
	}
	return d.f.Close()
}
