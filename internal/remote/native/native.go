// Package native defines the TRACE32 Remote API entry points as seen from Go.
//
// Every method mirrors one T32_* function of the vendor library: it returns
// the raw int32 status, takes fixed-width integers, writes results through
// out-parameters and uses caller-owned byte buffers for text and data. Text
// arguments are already encoded and NUL terminated.
//
// Implementations:
//
//   - sim: an in-memory remote used by tests and the --sim CLI flag.
//   - t32api: the cgo binding to the vendor library (build tag t32api).
package native

// Native is the set of Remote API entry points used by the client.
type Native interface {
	// Connection
	Config(key, value []byte) int32
	Init() int32
	Attach(device int32) int32
	Exit() int32
	Terminate(exitCode int32) int32
	Ping() int32
	Nop() int32
	NopEx(length, options int32) int32
	NopFail() int32

	// Commands
	Cmd(cmd []byte) int32
	CmdWin(window uint32, cmd []byte) int32
	Printf(text []byte) int32
	Stop() int32
	GetPracticeState(state *int32) int32
	EvalGet(value *uint32) int32
	EvalGetString(buf []byte) int32
	GetMessage(buf []byte, mode *uint16) int32
	GetLastErrorMessage(buf []byte, status *uint32) int32

	// Channels and locking
	GetChannelSize() int32
	GetChannelDefaults(desc []byte) int32
	SetChannel(desc []byte) int32
	APILock(timeoutMs int32) int32
	APIUnlock() int32
	GetApiRevision(revision *uint32) int32
	GetSocketHandle(handle *int32) int32

	// Execution
	Go() int32
	Break() int32
	Step() int32
	StepMode(mode int32) int32
	ResetCPU() int32
	SetMode(mode int32) int32
	GetCpuInfo(cpu []byte, fpu, endian, reserved *uint16) int32
	GetState(state *int32) int32
	ReadPP(pp *uint32) int32

	// Memory and symbols
	ReadMemory(addr uint32, access int32, buf []byte) int32
	WriteMemory(addr uint32, access int32, data []byte) int32
	GetRam(start, end *uint32, access *uint16) int32
	GetSource(addr uint32, file []byte, line *uint32) int32
	GetSelectedSource(file []byte, line *uint32) int32
	GetSymbol(name []byte, addr, size, reserved *uint32) int32
	GetSymbolFromAddress(buf []byte, addr uint32) int32
	ReadVariableString(name, buf []byte) int32
	ReadVariableValue(name []byte, lo, hi *uint32) int32
	WriteVariableValue(name []byte, lo, hi uint32) int32
	ReadRegisterByName(name []byte, lo, hi *uint32) int32
	WriteRegisterByName(name []byte, lo, hi uint32) int32

	// GetWindowContent returns the number of bytes written to buf, a
	// negative status, or WindowSentinel once the content is exhausted.
	GetWindowContent(cmd, buf []byte, offset, format uint32) int32

	// Embedded scripts
	ExecuteLua(script []byte) int32

	// Direct access
	TAPAccessShiftIR(bits int32, out, in []byte) int32
	TAPAccessShiftDR(bits int32, out, in []byte) int32
	TAPAccessShiftRaw(bits int32, tms, tdi, tdo []byte) int32
	TAPAccessJTAGResetWithTMS() int32
	TAPAccessJTAGResetWithTRST() int32
	DAPAPAccessReadWrite(ap uint8, write bool, addr uint32, data *uint32) int32
	I2CAccess(addr uint8, write, read []byte) int32
	DirectAccessRelease() int32
	DirectAccessResetAll() int32
}
