package status

// Root and category bases.
var (
	Generic  = &Kind{name: "Generic", code: 514, hasCode: true, message: "TRACE32 API error"}
	Client   = newCategory("Client", -114, "client error", CategoryClient)
	Standard = newCategory("Standard", 515, "standard error", CategoryStandard)
	Function = newCategory("Function", -116, "function call error", CategoryFunction)
)

func newCategory(name string, code int32, message string, c Category) *Kind {
	k := newKind(Generic, name, code, message)
	k.category = c
	return k
}

// Client side errors.
var (
	ClientReceiveFail            = newKind(Client, "ClientReceiveFail", -1, "receiving API response failed")
	ClientTransmitFail           = newKind(Client, "ClientTransmitFail", -2, "sending API message failed")
	ClientParameterFail          = newKind(Client, "ClientParameterFail", -3, "function parameter error")
	ClientSequenceFail           = newKind(Client, "ClientSequenceFail", -4, "message sequence mismatch")
	ClientNotifyMaxEventExceeded = newKind(Client, "ClientNotifyMaxEventExceeded", -5, "maximum number of notification events exceeded")
	ClientMallocFail             = newKind(Client, "ClientMallocFail", -6, "memory allocation failed")
)

// Standard error codes.
var (
	TargetRunning        = newKind(Standard, "TargetRunning", 2, "target is running")
	TargetNotRunning     = newKind(Standard, "TargetNotRunning", 3, "target is not running")
	TargetInReset        = newKind(Standard, "TargetInReset", 4, "target is in reset")
	AccessTimeout        = newKind(Standard, "AccessTimeout", 6, "access timeout, target running")
	NotImplemented       = newKind(Standard, "NotImplemented", 10, "function not implemented")
	RegisterSetUndefined = newKind(Standard, "RegisterSetUndefined", 14, "register set undefined")
	Verify               = newKind(Standard, "Verify", 15, "verify error")
	Bus                  = newKind(Standard, "Bus", 16, "bus error")
	NoMemoryMapped       = newKind(Standard, "NoMemoryMapped", 22, "no memory mapped")
	TargetResetDetected  = newKind(Standard, "TargetResetDetected", 48, "target reset detected")
	FdxBuffer            = newKind(Standard, "FdxBuffer", 49, "FDX buffer error")
	RtckTimeout          = newKind(Standard, "RtckTimeout", 57, "no RTCK detected")
	InvalidLicense       = newKind(Standard, "InvalidLicense", 60, "no valid license detected")
	CoreNotActive        = newKind(Standard, "CoreNotActive", 64, "core has no clock/power/reset in SMP")
	UserSignal           = newKind(Standard, "UserSignal", 67, "user signal")
	NoRapi               = newKind(Standard, "NoRapi", 83, "tried to connect to emulator without RAPI support")
	Failed               = newKind(Standard, "Failed", 113, "operation failed")
	AccessLocked         = newKind(Standard, "AccessLocked", 123, "access locked")
	PowerFail            = newKind(Standard, "PowerFail", 128, "power fail")
	DebugPortFail        = newKind(Standard, "DebugPortFail", 140, "debug port fail")
	DebugPortTimeout     = newKind(Standard, "DebugPortTimeout", 144, "debug port timeout")
	NoDevice             = newKind(Standard, "NoDevice", 147, "no debug device found")
	TargetResetFail      = newKind(Standard, "TargetResetFail", 161, "target reset failed")
	EmulatorTimeout      = newKind(Standard, "EmulatorTimeout", 162, "emulator communication timeout")
	NoRtck               = newKind(Standard, "NoRtck", 164, "no RTCK on emulator")
	AttachMissing        = newKind(Standard, "AttachMissing", 254, "T32_Attach() is missing")
	Fatal                = newKind(Standard, "Fatal", 255, "fatal error")
)

// Function specific errors attached directly to the Function base.
var (
	GetRamInternal      = newKind(Function, "GetRamInternal", 0x1000, "T32_GetRam internal failure")
	SetBreakpointFailed = newKind(Function, "SetBreakpointFailed", 0x1050, "setting breakpoint failed")
)

// Function area groups. They carry no code of their own.
var (
	FunctionGeneral = newGroup(Function, "FunctionGeneral", "function error")
	Register        = newGroup(Function, "Register", "register access error")
	Memory          = newGroup(Function, "Memory", "memory access error")
	Variable        = newGroup(Function, "Variable", "variable access error")
	Breakpoint      = newGroup(Function, "Breakpoint", "breakpoint error")
	MmuTranslation  = newGroup(Function, "MmuTranslation", "MMU translation error")
)

// Generic function errors.
var (
	FunctionFn1 = newKind(FunctionGeneral, "FunctionFn1", 90, "function error FN1")
	FunctionFn2 = newKind(FunctionGeneral, "FunctionFn2", 91, "function error FN2")
	FunctionFn3 = newKind(FunctionGeneral, "FunctionFn3", 92, "function error FN3")
	FunctionFn4 = newKind(FunctionGeneral, "FunctionFn4", 93, "function error FN4")
)

// Register errors.
var (
	ReadRegisterByNameNotFound          = newKind(Register, "ReadRegisterByNameNotFound", 0x1010, "register not found (read)")
	ReadRegisterByNameFailed            = newKind(Register, "ReadRegisterByNameFailed", 0x1011, "reading register failed")
	WriteRegisterByNameNotFound         = newKind(Register, "WriteRegisterByNameNotFound", 0x1020, "register not found (write)")
	WriteRegisterByNameFailed           = newKind(Register, "WriteRegisterByNameFailed", 0x1021, "writing register failed")
	ReadRegisterObjParameterFail        = newKind(Register, "ReadRegisterObjParameterFail", 0x1030, "T32_ReadRegisterObj parameter error")
	ReadRegisterObjMaxCoreExceeded      = newKind(Register, "ReadRegisterObjMaxCoreExceeded", 0x1031, "core number exceeds maximum (read register)")
	ReadRegisterObjNotFound             = newKind(Register, "ReadRegisterObjNotFound", 0x1032, "register not found (read object)")
	ReadRegisterSetObjParameterFail     = newKind(Register, "ReadRegisterSetObjParameterFail", 0x1033, "T32_ReadRegisterSetObj parameter error")
	ReadRegisterSetObjNumRegistersWrong = newKind(Register, "ReadRegisterSetObjNumRegistersWrong", 0x1034, "wrong number of registers read")
	WriteRegisterObjParameterFail       = newKind(Register, "WriteRegisterObjParameterFail", 0x1040, "T32_WriteRegisterObj parameter error")
	WriteRegisterObjMaxCoreExceeded     = newKind(Register, "WriteRegisterObjMaxCoreExceeded", 0x1041, "core number exceeds maximum (write register)")
	WriteRegisterObjNotFound            = newKind(Register, "WriteRegisterObjNotFound", 0x1042, "register not found (write object)")
	WriteRegisterObjWriteFailed         = newKind(Register, "WriteRegisterObjWriteFailed", 0x1043, "writing register object failed")
)

// Memory errors.
var (
	ReadMemoryObjParameterFail            = newKind(Memory, "ReadMemoryObjParameterFail", 0x1060, "T32_ReadMemoryObj parameter error")
	WriteMemoryObjParameterFail           = newKind(Memory, "WriteMemoryObjParameterFail", 0x1070, "T32_WriteMemoryObj parameter error")
	TransferMemoryBundleObjParameterFail  = newKind(Memory, "TransferMemoryBundleObjParameterFail", 0x1071, "T32_TransferMemoryBundleObj parameter error")
	TransferMemoryBundleObjTransferFailed = newKind(Memory, "TransferMemoryBundleObjTransferFailed", 0x1072, "memory bundle transfer failed")
)

// Variable errors.
var (
	ReadVariableAllocFailed  = newKind(Variable, "ReadVariableAllocFailed", 0x1080, "allocation failed (read variable)")
	ReadVariableAccessFailed = newKind(Variable, "ReadVariableAccessFailed", 0x1081, "symbol access failed (read variable)")
)

// Breakpoint errors.
var (
	ReadBreakpointObjParameterFail = newKind(Breakpoint, "ReadBreakpointObjParameterFail", 0x1091, "T32_ReadBreakpointObj parameter error")
	ReadBreakpointObjNotFound      = newKind(Breakpoint, "ReadBreakpointObjNotFound", 0x1092, "breakpoint not found (read)")
	WriteBreakpointObjFailed       = newKind(Breakpoint, "WriteBreakpointObjFailed", 0x10a1, "writing breakpoint object failed")
)

// MMU translation errors.
var (
	QueryAddressObjMmuTranslationFailed = newKind(MmuTranslation, "QueryAddressObjMmuTranslationFailed", 0x10b0, "MMU address translation failed")
)

// Base is a category base together with its direct leaves, in declaration
// order.
type Base struct {
	Kind   *Kind
	Leaves []*Kind
}

// Taxonomy is an ordered list of category bases.
type Taxonomy struct {
	bases []Base
}

// NewTaxonomy builds a taxonomy from bases. The order of bases and of the
// leaves within each base fixes resolution precedence.
func NewTaxonomy(bases ...Base) *Taxonomy {
	t := &Taxonomy{bases: make([]Base, len(bases))}
	for i, b := range bases {
		t.bases[i] = Base{Kind: b.Kind, Leaves: append([]*Kind(nil), b.Leaves...)}
	}
	return t
}

// Bases returns a copy of the bases.
func (t *Taxonomy) Bases() []Base {
	out := make([]Base, len(t.bases))
	copy(out, t.bases)
	return out
}

// Kinds returns every kind of the taxonomy: each base followed by its leaves.
func (t *Taxonomy) Kinds() []*Kind {
	var out []*Kind
	for _, b := range t.bases {
		out = append(out, b.Kind)
		out = append(out, b.Leaves...)
	}
	return out
}

var defaultTaxonomy = NewTaxonomy(
	Base{Kind: Client, Leaves: []*Kind{
		ClientReceiveFail, ClientTransmitFail, ClientParameterFail,
		ClientSequenceFail, ClientNotifyMaxEventExceeded, ClientMallocFail,
	}},
	Base{Kind: Standard, Leaves: []*Kind{
		TargetRunning, TargetNotRunning, TargetInReset, AccessTimeout,
		NotImplemented, RegisterSetUndefined, Verify, Bus, NoMemoryMapped,
		TargetResetDetected, FdxBuffer, RtckTimeout, InvalidLicense,
		CoreNotActive, UserSignal, NoRapi, Failed, AccessLocked, PowerFail,
		DebugPortFail, DebugPortTimeout, NoDevice, TargetResetFail,
		EmulatorTimeout, NoRtck, AttachMissing, Fatal,
	}},
	Base{Kind: Function, Leaves: []*Kind{GetRamInternal, SetBreakpointFailed}},
	Base{Kind: FunctionGeneral, Leaves: []*Kind{FunctionFn1, FunctionFn2, FunctionFn3, FunctionFn4}},
	Base{Kind: Register, Leaves: []*Kind{
		ReadRegisterByNameNotFound, ReadRegisterByNameFailed,
		WriteRegisterByNameNotFound, WriteRegisterByNameFailed,
		ReadRegisterObjParameterFail, ReadRegisterObjMaxCoreExceeded,
		ReadRegisterObjNotFound, ReadRegisterSetObjParameterFail,
		ReadRegisterSetObjNumRegistersWrong, WriteRegisterObjParameterFail,
		WriteRegisterObjMaxCoreExceeded, WriteRegisterObjNotFound,
		WriteRegisterObjWriteFailed,
	}},
	Base{Kind: Memory, Leaves: []*Kind{
		ReadMemoryObjParameterFail, WriteMemoryObjParameterFail,
		TransferMemoryBundleObjParameterFail, TransferMemoryBundleObjTransferFailed,
	}},
	Base{Kind: Variable, Leaves: []*Kind{ReadVariableAllocFailed, ReadVariableAccessFailed}},
	Base{Kind: Breakpoint, Leaves: []*Kind{
		ReadBreakpointObjParameterFail, ReadBreakpointObjNotFound, WriteBreakpointObjFailed,
	}},
	Base{Kind: MmuTranslation, Leaves: []*Kind{QueryAddressObjMmuTranslationFailed}},
)

// Default returns the built-in TRACE32 taxonomy.
func Default() *Taxonomy { return defaultTaxonomy }
