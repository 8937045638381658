// Package sim is an in-memory TRACE32 remote side.
//
// Remote implements native.Native without any debugger attached: it keeps
// memory, symbols, variables, registers, window content and the advisory
// lock in maps, counts every entry point call and lets callers inject status
// codes. Tests use it as the remote fake; the CLI uses it under --sim.
package sim

import (
	"bytes"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/dshills/t32remote/internal/remote/native"
)

// Status codes produced by the simulator itself.
const (
	statusOK             int32 = 0
	statusReceiveFail    int32 = -1
	statusParameterFail  int32 = -3
	statusTargetRunning  int32 = 2
	statusNoMemoryMapped int32 = 22
	statusBus            int32 = 16
	statusFailed         int32 = 113
	statusAttachMissing  int32 = 254
	statusRegReadMissing int32 = 0x1010
	statusRegWriteMiss   int32 = 0x1020
	statusVarAccessFail  int32 = 0x1081
)

// Target states reported by GetState.
const (
	StateDown    int32 = 0
	StateHalted  int32 = 1
	StateStopped int32 = 2
	StateRunning int32 = 3
)

// Practice states reported by GetPracticeState.
const (
	PracticeIdle    int32 = 0
	PracticeRunning int32 = 1
	PracticeDialog  int32 = 2
)

// Symbol is a simulated debug symbol.
type Symbol struct {
	Address uint32
	Size    uint32
}

// SourceLine is a simulated source location.
type SourceLine struct {
	File string
	Line uint32
}

// RAMRange is a simulated mapped memory range.
type RAMRange struct {
	Start, End uint32
}

// Options configures a Remote.
type Options struct {
	// CPU is reported by GetCpuInfo.
	CPU string

	// FPU and LittleEndian are reported by GetCpuInfo.
	FPU          bool
	LittleEndian bool

	// RunPolls is the number of GetState polls a started target keeps
	// running before it stops on its own. Zero runs until Break.
	RunPolls int

	// ScriptPolls is the number of GetPracticeState polls a DO script keeps
	// running.
	ScriptPolls int
}

// Remote is the simulated remote side. It is safe for concurrent use.
type Remote struct {
	mu   sync.Mutex
	opts Options

	calls    map[string]int
	failures map[string][]int32
	commands []string
	printed  []string

	initialized bool
	attached    bool
	device      int32
	terminated  bool
	exitCode    int32

	state      int32
	runPolls   int
	stepMode   int32
	displayMod int32
	pp         uint32

	practice     int32
	scriptPolls  int
	eval         uint32
	evalString   string
	message      string
	messageMode  uint16
	lastError    string
	lastErrorNum uint32
	lastHalves   [2]uint32

	lockHeld      bool
	otherHolds    bool
	otherReleaseM int32

	channel []byte

	memory      map[uint32]byte
	ram         []RAMRange
	symbols     map[string]Symbol
	sources     map[uint32]SourceLine
	selected    SourceLine
	variables   map[string]uint64
	varStrings  map[string]string
	registers   map[string]uint64
	windows     map[string]string
	breakpoints map[string]bool

	dap      map[uint64]uint32
	i2c      map[uint8][]byte
	tapShift int
}

// New creates a simulated remote with the given options.
func New(opts Options) *Remote {
	if opts.CPU == "" {
		opts.CPU = "CortexM4"
	}
	channel := make([]byte, descriptorSize())
	if err := defaultDescriptor().pack(channel); err != nil {
		panic(err)
	}
	return &Remote{
		opts:        opts,
		calls:       make(map[string]int),
		failures:    make(map[string][]int32),
		state:       StateStopped,
		channel:     channel,
		memory:      make(map[uint32]byte),
		symbols:     make(map[string]Symbol),
		sources:     make(map[uint32]SourceLine),
		variables:   make(map[string]uint64),
		varStrings:  make(map[string]string),
		registers:   make(map[string]uint64),
		windows:     make(map[string]string),
		breakpoints: make(map[string]bool),
		dap:         make(map[uint64]uint32),
		i2c:         make(map[uint8][]byte),
	}
}

var _ native.Native = (*Remote)(nil)

// FailNext makes the next call of op return code. Multiple injections for
// the same op are consumed in order.
func (r *Remote) FailNext(op string, code int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[op] = append(r.failures[op], code)
}

// Calls returns how many times op was invoked.
func (r *Remote) Calls(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

// TotalCalls returns the number of entry point calls of any kind.
func (r *Remote) TotalCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

// Commands returns the commands received through Cmd and CmdWin.
func (r *Remote) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.commands...)
}

// Printed returns the text received through Printf and Lua print.
func (r *Remote) Printed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.printed...)
}

// Attached reports whether Attach succeeded and Exit was not called since.
func (r *Remote) Attached() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attached
}

// Terminated reports whether Terminate was called and with which code.
func (r *Remote) Terminated() (bool, int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.terminated, r.exitCode
}

// Channel decodes the currently selected channel descriptor.
func (r *Remote) Channel() ChannelInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, err := unpackDescriptor(r.channel)
	if err != nil {
		return ChannelInfo{}
	}
	return d.info()
}

// SetState forces the target state.
func (r *Remote) SetState(state int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state
}

// SetLockHolder simulates another client holding the API lock. A positive
// releaseAfterMs lets a waiting APILock with at least that timeout succeed.
func (r *Remote) SetLockHolder(held bool, releaseAfterMs int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.otherHolds = held
	r.otherReleaseM = releaseAfterMs
}

// LockHeld reports whether this client holds the API lock.
func (r *Remote) LockHeld() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lockHeld
}

// SetPC sets the program pointer.
func (r *Remote) SetPC(pc uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pp = pc
}

// AddSymbol defines a symbol.
func (r *Remote) AddSymbol(name string, addr, size uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.symbols[name] = Symbol{Address: addr, Size: size}
}

// AddSource maps an address to a source line.
func (r *Remote) AddSource(addr uint32, file string, line uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[addr] = SourceLine{File: file, Line: line}
}

// SelectSource sets the source line selected in the GUI.
func (r *Remote) SelectSource(file string, line uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected = SourceLine{File: file, Line: line}
}

// SetVariable defines a variable value.
func (r *Remote) SetVariable(name string, value uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variables[name] = value
}

// SetVariableString overrides the string rendering of a variable.
func (r *Remote) SetVariableString(name, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.varStrings[name] = text
}

// Variable returns a variable value.
func (r *Remote) Variable(name string) (uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.variables[name]
	return v, ok
}

// LastVariableWrite returns the low and high words passed to the latest
// successful WriteVariableValue.
func (r *Remote) LastVariableWrite() (lo, hi uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastHalves[0], r.lastHalves[1]
}

// SetRegister defines a register value.
func (r *Remote) SetRegister(name string, value uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registers[strings.ToUpper(name)] = value
}

// Register returns a register value.
func (r *Remote) Register(name string) (uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.registers[strings.ToUpper(name)]
	return v, ok
}

// SetWindow defines the content returned for a window command.
func (r *Remote) SetWindow(cmd, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows[cmd] = content
}

// MapRAM declares a mapped memory range. Once any range exists, accesses
// outside all ranges fail.
func (r *Remote) MapRAM(start, end uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ram = append(r.ram, RAMRange{Start: start, End: end})
	sort.Slice(r.ram, func(i, j int) bool { return r.ram[i].Start < r.ram[j].Start })
}

// Memory returns size bytes of simulated memory at addr.
func (r *Remote) Memory(addr uint32, size int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]byte, size)
	for i := range out {
		out[i] = r.memory[addr+uint32(i)]
	}
	return out
}

// AddI2CDevice attaches a device with the given register content.
func (r *Remote) AddI2CDevice(addr uint8, content []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.i2c[addr] = append([]byte(nil), content...)
}

// I2CDevice returns the content of an I2C device.
func (r *Remote) I2CDevice(addr uint8) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]byte(nil), r.i2c[addr]...)
}

// Breakpoints returns the locations with an enabled breakpoint.
func (r *Remote) Breakpoints() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for loc, enabled := range r.breakpoints {
		if enabled {
			out = append(out, loc)
		}
	}
	sort.Strings(out)
	return out
}

// enter records a call of op and returns an injected status, if any.
// Callers hold r.mu.
func (r *Remote) enter(op string) (int32, bool) {
	r.calls[op]++
	if q := r.failures[op]; len(q) > 0 {
		r.failures[op] = q[1:]
		return q[0], true
	}
	return 0, false
}

func (r *Remote) Config(key, value []byte) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpConfig); ok {
		return code
	}

	d, err := unpackDescriptor(r.channel)
	if err != nil {
		return statusParameterFail
	}
	v := cstr(value)
	switch strings.ToUpper(cstr(key)) {
	case "NODE=":
		d.Node = [64]byte{}
		copy(d.Node[:len(d.Node)-1], v)
	case "PORT=":
		n, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return statusParameterFail
		}
		d.Port = uint16(n)
	case "PACKLEN=":
		n, err := strconv.ParseUint(v, 10, 16)
		if err != nil || n > 1024 {
			return statusParameterFail
		}
		d.PackLen = uint16(n)
	case "TIMEOUT=":
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return statusParameterFail
		}
		d.Timeout = uint32(n)
	case "HOSTPORT=":
		n, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return statusParameterFail
		}
		d.HostPort = uint16(n)
	default:
		return statusParameterFail
	}
	if err := d.pack(r.channel); err != nil {
		return statusParameterFail
	}
	return statusOK
}

func (r *Remote) Init() int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpInit); ok {
		return code
	}
	r.initialized = true
	return statusOK
}

func (r *Remote) Attach(device int32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpAttach); ok {
		return code
	}
	if !r.initialized {
		return statusReceiveFail
	}
	if device != int32(native.DeviceOS) && device != int32(native.DeviceICD) {
		return statusParameterFail
	}
	r.attached = true
	r.device = device
	return statusOK
}

func (r *Remote) Exit() int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpExit); ok {
		return code
	}
	r.initialized = false
	r.attached = false
	r.lockHeld = false
	return statusOK
}

func (r *Remote) Terminate(exitCode int32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpTerminate); ok {
		return code
	}
	r.terminated = true
	r.exitCode = exitCode
	r.initialized = false
	r.attached = false
	return statusOK
}

func (r *Remote) Ping() int32 { return r.simple(native.OpPing, false) }

func (r *Remote) Nop() int32 { return r.simple(native.OpNop, false) }

func (r *Remote) NopEx(length, options int32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpNopEx); ok {
		return code
	}
	if length < 0 || length > 0x4000 {
		return statusParameterFail
	}
	return statusOK
}

func (r *Remote) NopFail() int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpNopFail); ok {
		return code
	}
	return statusFailed
}

// simple handles entry points without arguments or outputs.
func (r *Remote) simple(op string, needAttach bool) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(op); ok {
		return code
	}
	if needAttach && !r.attached {
		return statusAttachMissing
	}
	return statusOK
}

func (r *Remote) Cmd(cmd []byte) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpCmd); ok {
		return code
	}
	return r.command(cstr(cmd))
}

func (r *Remote) CmdWin(window uint32, cmd []byte) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpCmdWin); ok {
		return code
	}
	return r.command(cstr(cmd))
}

// command interprets the handful of PRACTICE commands the simulator
// understands. Everything else is recorded and accepted.
func (r *Remote) command(cmd string) int32 {
	r.commands = append(r.commands, cmd)

	verb, arg, _ := strings.Cut(strings.TrimSpace(cmd), " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToUpper(verb) {
	case "DO":
		if arg == "" {
			return statusParameterFail
		}
		r.practice = PracticeRunning
		r.scriptPolls = r.opts.ScriptPolls
		if r.scriptPolls == 0 {
			r.practice = PracticeIdle
		}
	case "EVAL":
		n, err := strconv.ParseUint(arg, 0, 32)
		if err != nil {
			return statusParameterFail
		}
		r.eval = uint32(n)
		r.evalString = arg
	case "PRINT":
		r.message = arg
		r.messageMode = 1
	case "BREAK.SET":
		loc, _, _ := strings.Cut(arg, " ")
		if loc == "" {
			return statusParameterFail
		}
		r.breakpoints[loc] = true
	case "BREAK.DELETE":
		if arg == "" || arg == "/ALL" {
			r.breakpoints = make(map[string]bool)
			break
		}
		delete(r.breakpoints, arg)
	case "BREAK.ENABLE":
		if _, ok := r.breakpoints[arg]; ok {
			r.breakpoints[arg] = true
		}
	case "BREAK.DISABLE":
		if _, ok := r.breakpoints[arg]; ok {
			r.breakpoints[arg] = false
		}
	case "GO":
		r.startTarget()
	case "BREAK":
		r.state = StateStopped
	}
	return statusOK
}

func (r *Remote) Printf(text []byte) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpPrintf); ok {
		return code
	}
	r.printed = append(r.printed, cstr(text))
	return statusOK
}

func (r *Remote) Stop() int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpStop); ok {
		return code
	}
	r.practice = PracticeIdle
	r.scriptPolls = 0
	return statusOK
}

func (r *Remote) GetPracticeState(state *int32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpGetPracticeState); ok {
		return code
	}
	*state = r.practice
	if r.practice == PracticeRunning && r.scriptPolls > 0 {
		r.scriptPolls--
		if r.scriptPolls == 0 {
			r.practice = PracticeIdle
		}
	}
	return statusOK
}

// SetPracticeState forces the PRACTICE state, e.g. PracticeDialog.
func (r *Remote) SetPracticeState(state int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.practice = state
	r.scriptPolls = 0
}

func (r *Remote) EvalGet(value *uint32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpEvalGet); ok {
		return code
	}
	if !r.attached {
		return statusAttachMissing
	}
	*value = r.eval
	return statusOK
}

func (r *Remote) EvalGetString(buf []byte) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpEvalGetString); ok {
		return code
	}
	if !r.attached {
		return statusAttachMissing
	}
	putStr(buf, r.evalString)
	return statusOK
}

func (r *Remote) GetMessage(buf []byte, mode *uint16) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpGetMessage); ok {
		return code
	}
	putStr(buf, r.message)
	*mode = r.messageMode
	return statusOK
}

// SetMessage sets the message line and its mode bits.
func (r *Remote) SetMessage(text string, mode uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.message = text
	r.messageMode = mode
}

func (r *Remote) GetLastErrorMessage(buf []byte, status *uint32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpGetLastErrorMessage); ok {
		return code
	}
	putStr(buf, r.lastError)
	*status = r.lastErrorNum
	return statusOK
}

func (r *Remote) GetChannelSize() int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpGetChannelSize); ok {
		return code
	}
	return int32(descriptorSize())
}

func (r *Remote) GetChannelDefaults(desc []byte) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpGetChannelDefaults); ok {
		return code
	}
	if len(desc) < descriptorSize() {
		return statusParameterFail
	}
	if err := defaultDescriptor().pack(desc); err != nil {
		return statusParameterFail
	}
	return statusOK
}

func (r *Remote) SetChannel(desc []byte) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpSetChannel); ok {
		return code
	}
	d, err := unpackDescriptor(desc)
	if err != nil || d.Magic != descriptorMagic {
		return statusParameterFail
	}
	// The descriptor stays owned by the caller; later Config calls write
	// into it.
	r.channel = desc
	return statusOK
}

func (r *Remote) APILock(timeoutMs int32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpAPILock); ok {
		return code
	}
	if r.otherHolds {
		if r.otherReleaseM <= 0 || timeoutMs < r.otherReleaseM {
			return native.AccessLocked
		}
		r.otherHolds = false
	}
	r.lockHeld = true
	return statusOK
}

func (r *Remote) APIUnlock() int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpAPIUnlock); ok {
		return code
	}
	r.lockHeld = false
	return statusOK
}

// APIRevision is the revision reported by GetApiRevision.
const APIRevision = 0x20230201

func (r *Remote) GetApiRevision(revision *uint32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpGetApiRevision); ok {
		return code
	}
	*revision = APIRevision
	return statusOK
}

func (r *Remote) GetSocketHandle(handle *int32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpGetSocketHandle); ok {
		return code
	}
	if !r.initialized {
		*handle = -1
		return statusOK
	}
	*handle = 3
	return statusOK
}

func (r *Remote) Go() int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpGo); ok {
		return code
	}
	if !r.attached {
		return statusAttachMissing
	}
	if r.state == StateRunning {
		return statusTargetRunning
	}
	r.startTarget()
	return statusOK
}

func (r *Remote) startTarget() {
	r.state = StateRunning
	r.runPolls = r.opts.RunPolls
}

func (r *Remote) Break() int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpBreak); ok {
		return code
	}
	if !r.attached {
		return statusAttachMissing
	}
	r.state = StateStopped
	return statusOK
}

func (r *Remote) Step() int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpStep); ok {
		return code
	}
	if !r.attached {
		return statusAttachMissing
	}
	if r.state == StateRunning {
		return statusTargetRunning
	}
	r.pp += 2
	return statusOK
}

func (r *Remote) StepMode(mode int32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpStepMode); ok {
		return code
	}
	if mode&0x7f > 2 {
		return statusParameterFail
	}
	r.stepMode = mode
	return statusOK
}

// StepModeValue returns the last value passed to StepMode.
func (r *Remote) StepModeValue() int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stepMode
}

func (r *Remote) ResetCPU() int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpResetCPU); ok {
		return code
	}
	if !r.attached {
		return statusAttachMissing
	}
	r.state = StateStopped
	r.pp = 0
	return statusOK
}

func (r *Remote) SetMode(mode int32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpSetMode); ok {
		return code
	}
	if mode < 0 || mode > 2 {
		return statusParameterFail
	}
	r.displayMod = mode
	return statusOK
}

func (r *Remote) GetCpuInfo(cpu []byte, fpu, endian, reserved *uint16) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpGetCpuInfo); ok {
		return code
	}
	if !r.attached {
		return statusAttachMissing
	}
	putStr(cpu, r.opts.CPU)
	*fpu = boolWord(r.opts.FPU)
	*endian = boolWord(r.opts.LittleEndian)
	*reserved = 0
	return statusOK
}

func (r *Remote) GetState(state *int32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpGetState); ok {
		return code
	}
	if !r.attached {
		*state = StateDown
		return statusOK
	}
	*state = r.state
	if r.state == StateRunning && r.runPolls > 0 {
		r.runPolls--
		if r.runPolls == 0 {
			r.state = StateStopped
		}
	}
	return statusOK
}

func (r *Remote) ReadPP(pp *uint32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpReadPP); ok {
		return code
	}
	if !r.attached {
		return statusAttachMissing
	}
	if r.state == StateRunning {
		return statusTargetRunning
	}
	*pp = r.pp
	return statusOK
}

func (r *Remote) mapped(addr uint32, size int) bool {
	if len(r.ram) == 0 {
		return true
	}
	if size == 0 {
		size = 1
	}
	last := uint64(addr) + uint64(size) - 1
	for _, rg := range r.ram {
		if uint64(addr) >= uint64(rg.Start) && last <= uint64(rg.End) {
			return true
		}
	}
	return false
}

func (r *Remote) ReadMemory(addr uint32, access int32, buf []byte) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpReadMemory); ok {
		return code
	}
	if !r.attached {
		return statusAttachMissing
	}
	if !r.mapped(addr, len(buf)) {
		return statusNoMemoryMapped
	}
	for i := range buf {
		buf[i] = r.memory[addr+uint32(i)]
	}
	return statusOK
}

func (r *Remote) WriteMemory(addr uint32, access int32, data []byte) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpWriteMemory); ok {
		return code
	}
	if !r.attached {
		return statusAttachMissing
	}
	if !r.mapped(addr, len(data)) {
		return statusNoMemoryMapped
	}
	for i, b := range data {
		r.memory[addr+uint32(i)] = b
	}
	return statusOK
}

func (r *Remote) GetRam(start, end *uint32, access *uint16) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpGetRam); ok {
		return code
	}
	if !r.attached {
		return statusAttachMissing
	}
	for _, rg := range r.ram {
		if rg.Start >= *start {
			*start, *end = rg.Start, rg.End
			*access = 1
			return statusOK
		}
	}
	*access = 0
	return statusOK
}

func (r *Remote) GetSource(addr uint32, file []byte, line *uint32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpGetSource); ok {
		return code
	}
	src := r.sources[addr]
	putStr(file, src.File)
	*line = src.Line
	return statusOK
}

func (r *Remote) GetSelectedSource(file []byte, line *uint32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpGetSelectedSource); ok {
		return code
	}
	putStr(file, r.selected.File)
	*line = r.selected.Line
	return statusOK
}

func (r *Remote) GetSymbol(name []byte, addr, size, reserved *uint32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpGetSymbol); ok {
		return code
	}
	sym, ok := r.symbols[cstr(name)]
	if !ok {
		*addr, *size, *reserved = 0xFFFFFFFF, 0, 0
		return statusOK
	}
	*addr, *size, *reserved = sym.Address, sym.Size, 0
	return statusOK
}

func (r *Remote) GetSymbolFromAddress(buf []byte, addr uint32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpGetSymbolFromAddress); ok {
		return code
	}
	names := make([]string, 0, len(r.symbols))
	for name := range r.symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sym := r.symbols[name]
		if addr >= sym.Address && uint64(addr) < uint64(sym.Address)+uint64(max(sym.Size, 1)) {
			putStr(buf, name)
			return statusOK
		}
	}
	putStr(buf, "")
	return statusOK
}

func (r *Remote) ReadVariableString(name, buf []byte) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpReadVariableString); ok {
		return code
	}
	key := cstr(name)
	if s, ok := r.varStrings[key]; ok {
		putStr(buf, s)
		return statusOK
	}
	v, ok := r.variables[key]
	if !ok {
		return statusVarAccessFail
	}
	putStr(buf, strconv.FormatUint(v, 10))
	return statusOK
}

func (r *Remote) ReadVariableValue(name []byte, lo, hi *uint32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpReadVariableValue); ok {
		return code
	}
	v, ok := r.variables[cstr(name)]
	if !ok {
		return statusVarAccessFail
	}
	*lo, *hi = uint32(v), uint32(v>>32)
	return statusOK
}

func (r *Remote) WriteVariableValue(name []byte, lo, hi uint32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpWriteVariableValue); ok {
		return code
	}
	key := cstr(name)
	if key == "" {
		return statusParameterFail
	}
	r.variables[key] = uint64(hi)<<32 | uint64(lo)
	r.lastHalves = [2]uint32{lo, hi}
	delete(r.varStrings, key)
	return statusOK
}

func (r *Remote) ReadRegisterByName(name []byte, lo, hi *uint32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpReadRegisterByName); ok {
		return code
	}
	v, ok := r.registers[strings.ToUpper(cstr(name))]
	if !ok {
		return statusRegReadMissing
	}
	*lo, *hi = uint32(v), uint32(v>>32)
	return statusOK
}

func (r *Remote) WriteRegisterByName(name []byte, lo, hi uint32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpWriteRegisterByName); ok {
		return code
	}
	key := strings.ToUpper(cstr(name))
	if _, ok := r.registers[key]; !ok {
		return statusRegWriteMiss
	}
	r.registers[key] = uint64(hi)<<32 | uint64(lo)
	return statusOK
}

func (r *Remote) GetWindowContent(cmd, buf []byte, offset, format uint32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpGetWindowContent); ok {
		return code
	}
	if format > uint32(native.FormatXML) {
		return statusParameterFail
	}
	content, ok := r.windows[cstr(cmd)]
	if !ok {
		return statusParameterFail
	}
	if int(offset) >= len(content) {
		return native.WindowSentinel
	}
	return int32(copy(buf, content[offset:]))
}

func (r *Remote) TAPAccessShiftIR(bits int32, out, in []byte) int32 {
	return r.shift(native.OpTAPShiftIR, bits, out, in)
}

func (r *Remote) TAPAccessShiftDR(bits int32, out, in []byte) int32 {
	return r.shift(native.OpTAPShiftDR, bits, out, in)
}

func (r *Remote) TAPAccessShiftRaw(bits int32, tms, tdi, tdo []byte) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpTAPShiftRaw); ok {
		return code
	}
	n := int(bits+7) / 8
	if bits <= 0 || len(tms) < n || len(tdi) < n || len(tdo) < n {
		return statusParameterFail
	}
	r.tapShift += int(bits)
	// A single bypass register between TDI and TDO.
	shiftLeft(tdo[:n], tdi[:n])
	return statusOK
}

// shift simulates a scan chain that echoes the shifted-in bits.
func (r *Remote) shift(op string, bits int32, out, in []byte) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(op); ok {
		return code
	}
	n := int(bits+7) / 8
	if bits <= 0 || len(out) < n || (in != nil && len(in) < n) {
		return statusParameterFail
	}
	r.tapShift += int(bits)
	if in != nil {
		copy(in[:n], out[:n])
	}
	return statusOK
}

// ShiftedBits returns the number of bits shifted through the TAP.
func (r *Remote) ShiftedBits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tapShift
}

func shiftLeft(dst, src []byte) {
	var carry byte
	for i := range src {
		dst[i] = src[i]<<1 | carry
		carry = src[i] >> 7
	}
}

func (r *Remote) TAPAccessJTAGResetWithTMS() int32 {
	return r.simple(native.OpTAPResetTMS, false)
}

func (r *Remote) TAPAccessJTAGResetWithTRST() int32 {
	return r.simple(native.OpTAPResetTRST, false)
}

func (r *Remote) DAPAPAccessReadWrite(ap uint8, write bool, addr uint32, data *uint32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpDAPAccess); ok {
		return code
	}
	if addr%4 != 0 {
		return statusParameterFail
	}
	key := uint64(ap)<<32 | uint64(addr)
	if write {
		r.dap[key] = *data
		return statusOK
	}
	*data = r.dap[key]
	return statusOK
}

func (r *Remote) I2CAccess(addr uint8, write, read []byte) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code, ok := r.enter(native.OpI2CAccess); ok {
		return code
	}
	dev, ok := r.i2c[addr]
	if !ok {
		return statusBus
	}
	// The first written byte selects the register, the rest is stored from
	// there on. Reads continue from the selected register.
	var reg int
	if len(write) > 0 {
		reg = int(write[0])
		for i, b := range write[1:] {
			if reg+i >= len(dev) {
				dev = append(dev, make([]byte, reg+i-len(dev)+1)...)
			}
			dev[reg+i] = b
		}
		r.i2c[addr] = dev
	}
	for i := range read {
		if reg+i < len(dev) {
			read[i] = dev[reg+i]
		} else {
			read[i] = 0xff
		}
	}
	return statusOK
}

func (r *Remote) DirectAccessRelease() int32 {
	return r.simple(native.OpDirectAccessRelease, false)
}

func (r *Remote) DirectAccessResetAll() int32 {
	return r.simple(native.OpDirectAccessResetAll, false)
}

func cstr(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// putStr copies s into buf as a NUL-terminated string, truncating if needed.
func putStr(buf []byte, s string) {
	if len(buf) == 0 {
		return
	}
	clear(buf)
	copy(buf[:len(buf)-1], s)
}

func boolWord(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}

// DAPRegister returns a simulated DAP register value.
func (r *Remote) DAPRegister(ap uint8, addr uint32) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dap[uint64(ap)<<32|uint64(addr)]
}

