package session

import (
	"fmt"
	"slices"
	"sync"
)

// Variable is a variable read from the target.
type Variable struct {
	Name string

	// Value is the debugger's rendering of the variable.
	Value string

	// Raw is the numeric value. HasRaw is false for variables that have
	// no scalar value, e.g. structures.
	Raw    uint64
	HasRaw bool

	// Err is set when a watch could not be read.
	Err error
}

// VariableInspector reads variables and keeps a watch list.
type VariableInspector struct {
	session *Session
	mu      sync.RWMutex

	watches      []string
	watchResults []*Variable
}

// NewVariableInspector creates a variable inspector for session.
func NewVariableInspector(session *Session) *VariableInspector {
	return &VariableInspector{session: session}
}

// Read reads the variable called name.
func (v *VariableInspector) Read(name string) (*Variable, error) {
	t := v.session.target
	text, err := t.ReadVariableString(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	out := &Variable{Name: name, Value: text}
	if raw, err := t.ReadVariableValue(name); err == nil {
		out.Raw, out.HasRaw = raw, true
	}
	return out, nil
}

// Set writes value to the variable called name.
func (v *VariableInspector) Set(name string, value uint64) error {
	if err := v.session.target.WriteVariableValue(name, value); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// AddWatch adds name to the watch list. Names already watched are ignored.
func (v *VariableInspector) AddWatch(name string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !slices.Contains(v.watches, name) {
		v.watches = append(v.watches, name)
	}
}

// RemoveWatch removes a watch by index.
func (v *VariableInspector) RemoveWatch(index int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if index < 0 || index >= len(v.watches) {
		return fmt.Errorf("watch index %d out of range", index)
	}
	v.watches = slices.Delete(v.watches, index, index+1)
	if index < len(v.watchResults) {
		v.watchResults = slices.Delete(v.watchResults, index, index+1)
	}
	return nil
}

// ClearWatches removes all watches.
func (v *VariableInspector) ClearWatches() {
	v.mu.Lock()
	v.watches = nil
	v.watchResults = nil
	v.mu.Unlock()
}

// Watches returns the watched names.
func (v *VariableInspector) Watches() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.watches)
}

// WatchResults returns the results of the last EvaluateWatches.
func (v *VariableInspector) WatchResults() []*Variable {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.watchResults)
}

// EvaluateWatches reads every watched variable. A variable that cannot be
// read gets its error recorded; the others are still read.
func (v *VariableInspector) EvaluateWatches() []*Variable {
	watches := v.Watches()

	results := make([]*Variable, len(watches))
	for i, name := range watches {
		res, err := v.Read(name)
		if err != nil {
			res = &Variable{Name: name, Err: err}
		}
		results[i] = res
	}

	v.mu.Lock()
	v.watchResults = results
	v.mu.Unlock()
	return results
}
