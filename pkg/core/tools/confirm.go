package tools

import (
	"sync"
	"time"
)

// CommitPrompt describes a pending plan commit awaiting approval.
type CommitPrompt struct {
	Items        int
	Descriptions []string
}

// Confirmer mediates between the commit tool, which blocks inside a
// worker goroutine, and the UI thread that collects the user's yes/no.
type Confirmer struct {
	mu           sync.Mutex
	responseChan chan bool
	pending      *CommitPrompt
	notify       func(CommitPrompt)
	timeout      time.Duration
}

// NewConfirmer creates a Confirmer. The timeout prevents a deadlocked
// commit if the UI never answers.
func NewConfirmer() *Confirmer {
	return &Confirmer{
		responseChan: make(chan bool, 1),
		timeout:      5 * time.Minute,
	}
}

// SetNotifier registers the function called when a commit wants approval.
// The UI uses it to enter its confirmation mode.
func (c *Confirmer) SetNotifier(fn func(CommitPrompt)) {
	c.mu.Lock()
	c.notify = fn
	c.mu.Unlock()
}

// Request blocks until the user responds or the timeout passes. Returns
// true only on explicit approval.
func (c *Confirmer) Request(prompt CommitPrompt) bool {
	c.mu.Lock()
	c.pending = &prompt
	notify := c.notify
	// Drop any stale response from an earlier, timed-out request.
	select {
	case <-c.responseChan:
	default:
	}
	c.mu.Unlock()

	if notify != nil {
		notify(prompt)
	}

	select {
	case approved := <-c.responseChan:
		c.clearPending()
		return approved
	case <-time.After(c.timeout):
		c.clearPending()
		return false
	}
}

// Respond delivers the user's decision to the waiting commit.
func (c *Confirmer) Respond(approved bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		select {
		case c.responseChan <- approved:
		default:
		}
	}
}

// Pending returns the prompt currently awaiting a response, or nil.
func (c *Confirmer) Pending() *CommitPrompt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Cancel rejects any pending request, for use when the UI shuts down.
func (c *Confirmer) Cancel() {
	c.Respond(false)
}

func (c *Confirmer) clearPending() {
	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()
}
