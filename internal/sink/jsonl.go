package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// JSONLines writes each application as one JSON object per line.
type JSONLines struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLines creates a sink writing to w.
func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{enc: json.NewEncoder(w)}
}

// Name implements Sink.
func (j *JSONLines) Name() string { return "jsonl" }

// Apply implements Sink.
func (j *JSONLines) Apply(a Application) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.enc.Encode(a); err != nil {
		return fmt.Errorf("failed to write application: %w", err)
	}
	return nil
}

// Recorder keeps every application in memory.
type Recorder struct {
	mu   sync.Mutex
	apps []Application
	last map[string]Application
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{last: make(map[string]Application)}
}

// Name implements Sink.
func (r *Recorder) Name() string { return "recorder" }

// Apply implements Sink.
func (r *Recorder) Apply(a Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.apps = append(r.apps, a)
	r.last[a.Target] = a
	return nil
}

// Applications returns a copy of everything applied so far.
func (r *Recorder) Applications() []Application {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Application, len(r.apps))
	copy(out, r.apps)
	return out
}

// Last returns the most recent application for a target.
func (r *Recorder) Last(target string) (Application, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.last[target]
	return a, ok
}

// Reset implements Resetter.
func (r *Recorder) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.apps = nil
	r.last = make(map[string]Application)
	return nil
}
