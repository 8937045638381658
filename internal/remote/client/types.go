package client

import (
	"errors"
	"fmt"
	"strings"
)

// RemoteConfig holds the connection settings applied by Configure. Zero
// values are left at the API default.
type RemoteConfig struct {
	// Node is the host running TRACE32.
	Node string
	// Port is the API port of the TRACE32 instance.
	Port int
	// PackLen is the maximum UDP packet length (at most 1024).
	PackLen int
	// Timeout is the UDP communication timeout in seconds.
	Timeout int
	// HostPort is the local UDP receive port.
	HostPort int
}

// TargetState is the state reported by State.
type TargetState int32

const (
	TargetDown    TargetState = 0
	TargetHalted  TargetState = 1
	TargetStopped TargetState = 2
	TargetRunning TargetState = 3
)

func (s TargetState) String() string {
	switch s {
	case TargetDown:
		return "down"
	case TargetHalted:
		return "halted"
	case TargetStopped:
		return "stopped"
	case TargetRunning:
		return "running"
	default:
		return "unknown"
	}
}

// PracticeState reports whether a PRACTICE script is running.
type PracticeState int32

const (
	PracticeIdle    PracticeState = 0
	PracticeRunning PracticeState = 1
	PracticeDialog  PracticeState = 2
)

func (s PracticeState) String() string {
	switch s {
	case PracticeIdle:
		return "idle"
	case PracticeRunning:
		return "running"
	case PracticeDialog:
		return "dialog"
	default:
		return "unknown"
	}
}

// MessageMode is the bit set describing a message line.
type MessageMode uint16

const (
	MessageInfo        MessageMode = 1
	MessageError       MessageMode = 2
	MessageStatus      MessageMode = 8
	MessageErrorInfo   MessageMode = 16
	MessageTempDisplay MessageMode = 32
	MessageTempInfo    MessageMode = 64
)

var messageModeNames = []struct {
	bit  MessageMode
	name string
}{
	{MessageInfo, "info"},
	{MessageError, "error"},
	{MessageStatus, "status"},
	{MessageErrorInfo, "error-info"},
	{MessageTempDisplay, "temp-display"},
	{MessageTempInfo, "temp-info"},
}

// Has reports whether all bits of flag are set.
func (m MessageMode) Has(flag MessageMode) bool { return m&flag == flag }

func (m MessageMode) String() string {
	if m == 0 {
		return "none"
	}
	var names []string
	for _, n := range messageModeNames {
		if m.Has(n.bit) {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return fmt.Sprintf("MessageMode(%#x)", uint16(m))
	}
	return strings.Join(names, "|")
}

// Message is the content of the message line.
type Message struct {
	Text string
	Mode MessageMode
}

// SourceMode selects assembler, high level or mixed display and stepping.
type SourceMode int32

const (
	ModeASM   SourceMode = 0
	ModeHLL   SourceMode = 1
	ModeMixed SourceMode = 2
)

// stepOverCalls is the step mode bit that steps over function calls.
const stepOverCalls = 1 << 7

// ErrUnknownMode is returned by ParseSourceMode.
var ErrUnknownMode = errors.New("unknown source mode")

var sourceModes = map[string]SourceMode{
	"asm": ModeASM, "0": ModeASM, "汇编": ModeASM,
	"hll": ModeHLL, "1": ModeHLL, "高级": ModeHLL,
	"mix": ModeMixed, "mixed": ModeMixed, "2": ModeMixed, "混合": ModeMixed,
}

// ParseSourceMode accepts "asm", "hll", "mix" in any case, their numeric
// values and the localized labels.
func ParseSourceMode(s string) (SourceMode, error) {
	m, ok := sourceModes[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return m, nil
}

func (m SourceMode) String() string {
	switch m {
	case ModeASM:
		return "asm"
	case ModeHLL:
		return "hll"
	case ModeMixed:
		return "mix"
	default:
		return fmt.Sprintf("SourceMode(%d)", int32(m))
	}
}

// CPUInfo describes the target CPU.
type CPUInfo struct {
	CPU          string
	FPU          bool
	LittleEndian bool
}

// Endian returns "little" or "big".
func (i CPUInfo) Endian() string {
	if i.LittleEndian {
		return "little"
	}
	return "big"
}

// Range is an inclusive address range.
type Range struct {
	Start uint32
	End   uint32
}

// SourceLine is a source file position.
type SourceLine struct {
	File string
	Line uint32
}

// Symbol is the result of a symbol lookup.
type Symbol struct {
	Name     string
	Address  uint32
	Size     uint32
	Reserved uint32
}

// Found reports whether the debugger knows the symbol.
func (s Symbol) Found() bool { return s.Address != 0xFFFFFFFF }

// DAPRequest is a single access to a debug access port.
type DAPRequest struct {
	AP      uint8
	Write   bool
	Address uint32
	Value   uint32
}
