package native

import (
	"errors"
	"fmt"
	"strings"
)

// Entry point names, used for logging, metrics and error reporting.
const (
	OpConfig               = "T32_Config"
	OpInit                 = "T32_Init"
	OpAttach               = "T32_Attach"
	OpExit                 = "T32_Exit"
	OpTerminate            = "T32_Terminate"
	OpPing                 = "T32_Ping"
	OpNop                  = "T32_Nop"
	OpNopEx                = "T32_NopEx"
	OpNopFail              = "T32_NopFail"
	OpCmd                  = "T32_Cmd"
	OpCmdWin               = "T32_CmdWin"
	OpPrintf               = "T32_Printf"
	OpStop                 = "T32_Stop"
	OpGetPracticeState     = "T32_GetPracticeState"
	OpEvalGet              = "T32_EvalGet"
	OpEvalGetString        = "T32_EvalGetString"
	OpGetMessage           = "T32_GetMessage"
	OpGetLastErrorMessage  = "T32_GetLastErrorMessage"
	OpGetChannelSize       = "T32_GetChannelSize"
	OpGetChannelDefaults   = "T32_GetChannelDefaults"
	OpSetChannel           = "T32_SetChannel"
	OpAPILock              = "T32_APILock"
	OpAPIUnlock            = "T32_APIUnlock"
	OpGetApiRevision       = "T32_GetApiRevision"
	OpGetSocketHandle      = "T32_GetSocketHandle"
	OpGo                   = "T32_Go"
	OpBreak                = "T32_Break"
	OpStep                 = "T32_Step"
	OpStepMode             = "T32_StepMode"
	OpResetCPU             = "T32_ResetCPU"
	OpSetMode              = "T32_SetMode"
	OpGetCpuInfo           = "T32_GetCpuInfo"
	OpGetState             = "T32_GetState"
	OpReadPP               = "T32_ReadPP"
	OpReadMemory           = "T32_ReadMemory"
	OpWriteMemory          = "T32_WriteMemory"
	OpGetRam               = "T32_GetRam"
	OpGetSource            = "T32_GetSource"
	OpGetSelectedSource    = "T32_GetSelectedSource"
	OpGetSymbol            = "T32_GetSymbol"
	OpGetSymbolFromAddress = "T32_GetSymbolFromAddress"
	OpReadVariableString   = "T32_ReadVariableString"
	OpReadVariableValue    = "T32_ReadVariableValue"
	OpWriteVariableValue   = "T32_WriteVariableValue"
	OpReadRegisterByName   = "T32_ReadRegisterByName"
	OpWriteRegisterByName  = "T32_WriteRegisterByName"
	OpGetWindowContent     = "T32_GetWindowContent"
	OpExecuteLua           = "T32_ExecuteLua"
	OpTAPShiftIR           = "T32_TAPAccessShiftIR"
	OpTAPShiftDR           = "T32_TAPAccessShiftDR"
	OpTAPShiftRaw          = "T32_TAPAccessShiftRaw"
	OpTAPResetTMS          = "T32_TAPAccessJTAGResetWithTMS"
	OpTAPResetTRST         = "T32_TAPAccessJTAGResetWithTRST"
	OpDAPAccess            = "T32_DAPAPAccessReadWrite"
	OpI2CAccess            = "T32_I2CAccess"
	OpDirectAccessRelease  = "T32_DirectAccessRelease"
	OpDirectAccessResetAll = "T32_DirectAccessResetAll"
)

// Buffer sizes for fixed-size outputs.
const (
	MessageSize    = 256
	EvalStringSize = 1024
	NameSize       = 256
	CPUInfoSize    = 256
)

// WindowSentinel is returned by GetWindowContent once all content has been
// delivered.
const WindowSentinel int32 = -1

// AccessLocked is the APILock status meaning another client holds the lock.
const AccessLocked int32 = 123

// DeviceType selects the TRACE32 device an Attach connects to.
type DeviceType int32

// Device wire values. The in-circuit emulator and debugger share a value.
const (
	DeviceOS  DeviceType = 0
	DeviceICE DeviceType = 1
	DeviceICD DeviceType = 1
)

// ErrUnknownDevice is returned by ParseDevice for unknown labels.
var ErrUnknownDevice = errors.New("unknown device type")

var deviceLabels = map[string]DeviceType{
	"os":                  DeviceOS,
	"operating system":    DeviceOS,
	"ice":                 DeviceICE,
	"in-circuit emulator": DeviceICE,
	"icd":                 DeviceICD,
	"in-circuit debugger": DeviceICD,
}

// ParseDevice maps a label such as "icd" or "In-Circuit Emulator" to its
// wire value.
func ParseDevice(label string) (DeviceType, error) {
	d, ok := deviceLabels[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDevice, label)
	}
	return d, nil
}

// String returns the name of the device. ICE and ICD are indistinguishable
// on the wire; the debugger name is reported.
func (d DeviceType) String() string {
	switch d {
	case DeviceOS:
		return "Operating System"
	case DeviceICD:
		return "In-Circuit Debugger"
	default:
		return fmt.Sprintf("DeviceType(%d)", int32(d))
	}
}

// WindowFormat is the print format of GetWindowContent.
type WindowFormat uint32

const (
	FormatASC  WindowFormat = 0
	FormatASCE WindowFormat = 1
	FormatASCP WindowFormat = 2
	FormatCSV  WindowFormat = 3
	FormatXML  WindowFormat = 4
)

// ErrUnknownFormat is returned by ParseWindowFormat for unknown names.
var ErrUnknownFormat = errors.New("unknown window format")

var formatNames = []string{"asc", "asce", "ascp", "csv", "xml"}

// ParseWindowFormat maps "asc", "asce", "ascp", "csv" or "xml" to its value.
func ParseWindowFormat(name string) (WindowFormat, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for i, n := range formatNames {
		if n == key {
			return WindowFormat(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

func (f WindowFormat) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("WindowFormat(%d)", uint32(f))
}
