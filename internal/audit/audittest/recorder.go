// Package audittest provides an in-memory audit sink for service tests.
package audittest

import (
	"sync"

	"propertytrack/internal/audit"
	"propertytrack/internal/models"
)

// Recorder keeps every entry it receives.
type Recorder struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *Recorder) Record(e audit.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *Recorder) Entries() []audit.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]audit.Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Actions returns the recorded entries with the given action.
func (r *Recorder) Actions(action models.AuditAction) []audit.Entry {
	var out []audit.Entry
	for _, e := range r.Entries() {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}
