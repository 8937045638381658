package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrSymbolNotFound is returned when a breakpoint names an unknown symbol.
var ErrSymbolNotFound = errors.New("symbol not found")

// BreakpointType is the access that triggers a breakpoint.
type BreakpointType int

const (
	// BreakpointProgram stops before executing the location.
	BreakpointProgram BreakpointType = iota
	// BreakpointRead stops on a data read.
	BreakpointRead
	// BreakpointWrite stops on a data write.
	BreakpointWrite
)

func (t BreakpointType) String() string {
	switch t {
	case BreakpointProgram:
		return "program"
	case BreakpointRead:
		return "read"
	case BreakpointWrite:
		return "write"
	default:
		return "unknown"
	}
}

// ParseBreakpointType maps "program", "read" or "write" to its type.
func ParseBreakpointType(s string) (BreakpointType, error) {
	switch strings.ToLower(s) {
	case "program", "":
		return BreakpointProgram, nil
	case "read":
		return BreakpointRead, nil
	case "write":
		return BreakpointWrite, nil
	}
	return 0, fmt.Errorf("unknown breakpoint type %q", s)
}

func (t BreakpointType) option() string {
	switch t {
	case BreakpointRead:
		return "/Read"
	case BreakpointWrite:
		return "/Write"
	default:
		return "/Program"
	}
}

// Breakpoint is a breakpoint set through the manager.
type Breakpoint struct {
	ID int `json:"id"`

	Type BreakpointType `json:"type"`

	// Location is the address expression or symbol given to Break.Set.
	Location string `json:"location"`

	// Address is the resolved address, if known.
	Address uint32 `json:"address,omitempty"`

	// Condition is passed as /CONDition.
	Condition string `json:"condition,omitempty"`

	Enabled bool `json:"enabled"`

	// Verified is set once the debugger accepted the breakpoint.
	Verified bool `json:"verified"`
}

// BreakpointManager sets breakpoints with Break.* commands and keeps track
// of them.
type BreakpointManager struct {
	session *Session
	mu      sync.RWMutex

	breakpoints map[int]*Breakpoint
	byLocation  map[string]*Breakpoint
	nextID      int

	persistPath string
}

// NewBreakpointManager creates a breakpoint manager for session.
func NewBreakpointManager(session *Session) *BreakpointManager {
	return &BreakpointManager{
		session:     session,
		breakpoints: make(map[int]*Breakpoint),
		byLocation:  make(map[string]*Breakpoint),
		nextID:      1,
	}
}

// SetPersistPath sets the file used by Save and Load.
func (m *BreakpointManager) SetPersistPath(path string) {
	m.mu.Lock()
	m.persistPath = path
	m.mu.Unlock()
}

// AddAddress sets a breakpoint at addr.
func (m *BreakpointManager) AddAddress(addr uint32, typ BreakpointType, condition string) (*Breakpoint, error) {
	return m.add(&Breakpoint{
		Type:      typ,
		Location:  fmt.Sprintf("0x%X", addr),
		Address:   addr,
		Condition: condition,
		Enabled:   true,
	})
}

// AddSymbol sets a breakpoint at the address of the symbol called name.
func (m *BreakpointManager) AddSymbol(name string, typ BreakpointType, condition string) (*Breakpoint, error) {
	sym, err := m.session.target.Symbol(name)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", name, err)
	}
	if !sym.Found() {
		return nil, fmt.Errorf("%s: %w", name, ErrSymbolNotFound)
	}
	return m.add(&Breakpoint{
		Type:      typ,
		Location:  name,
		Address:   sym.Address,
		Condition: condition,
		Enabled:   true,
	})
}

// add sets bp on the target. A breakpoint already set at the same location
// is returned as is.
func (m *BreakpointManager) add(bp *Breakpoint) (*Breakpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.byLocation[bp.Location]; ok {
		return existing, nil
	}
	if err := m.set(bp); err != nil {
		return nil, err
	}

	bp.ID = m.nextID
	m.nextID++
	m.breakpoints[bp.ID] = bp
	m.byLocation[bp.Location] = bp
	return bp, nil
}

func (m *BreakpointManager) set(bp *Breakpoint) error {
	cmd := fmt.Sprintf("Break.Set %s %s", bp.Location, bp.Type.option())
	if bp.Condition != "" {
		cmd += fmt.Sprintf(" /CONDition %s", bp.Condition)
	}
	if err := m.session.target.Cmd(cmd); err != nil {
		return fmt.Errorf("set breakpoint at %s: %w", bp.Location, err)
	}
	bp.Verified = true
	if !bp.Enabled {
		return m.session.target.Cmd("Break.Disable " + bp.Location)
	}
	return nil
}

// Remove deletes the breakpoint with id.
func (m *BreakpointManager) Remove(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	bp, ok := m.breakpoints[id]
	if !ok {
		return fmt.Errorf("breakpoint %d not found", id)
	}
	if err := m.session.target.Cmd("Break.Delete " + bp.Location); err != nil {
		return fmt.Errorf("delete breakpoint %d: %w", id, err)
	}
	delete(m.breakpoints, id)
	delete(m.byLocation, bp.Location)
	return nil
}

// SetEnabled enables or disables the breakpoint with id.
func (m *BreakpointManager) SetEnabled(id int, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	bp, ok := m.breakpoints[id]
	if !ok {
		return fmt.Errorf("breakpoint %d not found", id)
	}
	verb := "Break.Disable "
	if enabled {
		verb = "Break.Enable "
	}
	if err := m.session.target.Cmd(verb + bp.Location); err != nil {
		return err
	}
	bp.Enabled = enabled
	return nil
}

// Get returns the breakpoint with id.
func (m *BreakpointManager) Get(id int) (*Breakpoint, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bp, ok := m.breakpoints[id]
	return bp, ok
}

// All returns the breakpoints ordered by ID.
func (m *BreakpointManager) All() []*Breakpoint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Breakpoint, 0, len(m.breakpoints))
	for _, bp := range m.breakpoints {
		out = append(out, bp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ClearAll deletes every breakpoint on the target, including ones the
// manager did not set.
func (m *BreakpointManager) ClearAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.session.target.Cmd("Break.Delete /ALL"); err != nil {
		return err
	}
	m.breakpoints = make(map[int]*Breakpoint)
	m.byLocation = make(map[string]*Breakpoint)
	return nil
}

type persistedBreakpoints struct {
	Version     int           `json:"version"`
	Breakpoints []*Breakpoint `json:"breakpoints"`
}

// Save writes the breakpoints to the persist path.
func (m *BreakpointManager) Save() error {
	m.mu.RLock()
	path := m.persistPath
	m.mu.RUnlock()
	if path == "" {
		return fmt.Errorf("persist path not set")
	}

	content, err := json.MarshalIndent(persistedBreakpoints{Version: 1, Breakpoints: m.All()}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal breakpoints: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// Load replaces the tracked breakpoints with the persisted ones and sets
// them on the target. A missing file loads nothing.
func (m *BreakpointManager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.persistPath == "" {
		return fmt.Errorf("persist path not set")
	}
	content, err := os.ReadFile(m.persistPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read file: %w", err)
	}

	var data persistedBreakpoints
	if err := json.Unmarshal(content, &data); err != nil {
		return fmt.Errorf("unmarshal breakpoints: %w", err)
	}

	m.breakpoints = make(map[int]*Breakpoint)
	m.byLocation = make(map[string]*Breakpoint)
	maxID := 0
	var failed []string
	for _, bp := range data.Breakpoints {
		bp.Verified = false
		if err := m.set(bp); err != nil {
			failed = append(failed, bp.Location)
			m.session.log.WithError(err).WithField("location", bp.Location).Warn("restoring breakpoint failed")
		}
		m.breakpoints[bp.ID] = bp
		m.byLocation[bp.Location] = bp
		maxID = max(maxID, bp.ID)
	}
	m.nextID = maxID + 1

	if len(failed) > 0 {
		return fmt.Errorf("restore breakpoints at %s", strings.Join(failed, ", "))
	}
	return nil
}
