//go:build t32api && cgo

// Package t32api binds native.Native to the vendor TRACE32 API library.
//
// Build with -tags t32api and point CGO_LDFLAGS at the directory holding
// libt32api (or t32api64.dll). The library keeps one global connection per
// process; channels switch between them.
package t32api

/*
#cgo LDFLAGS: -lt32api
#cgo CFLAGS: -DT32HOST_LE

#include <stdint.h>
#include <string.h>

extern int T32_Config(const char *, const char *);
extern int T32_Init(void);
extern int T32_Attach(int);
extern int T32_Exit(void);
extern int T32_Terminate(int);
extern int T32_Ping(void);
extern int T32_Nop(void);
extern int T32_NopEx(int, int);
extern int T32_NopFail(void);
extern int T32_Cmd(const char *);
extern int T32_CmdWin(uint32_t, const char *);
extern int T32_Printf(const char *, ...);
extern int T32_Stop(void);
extern int T32_GetPracticeState(int *);
extern int T32_EvalGet(uint32_t *);
extern int T32_EvalGetString(char *);
extern int T32_GetMessage(char *, uint16_t *);
extern int T32_GetLastErrorMessage(char *, uint32_t *, uint32_t);
extern int T32_GetChannelSize(void);
extern void T32_GetChannelDefaults(void *);
extern void T32_SetChannel(void *);
extern int T32_APILock(int);
extern int T32_APIUnlock(void);
extern int T32_GetApiRevision(uint32_t *);
extern int T32_GetSocketHandle(int *);
extern int T32_Go(void);
extern int T32_Break(void);
extern int T32_Step(void);
extern int T32_StepMode(int);
extern int T32_ResetCPU(void);
extern int T32_SetMode(int);
extern int T32_GetCpuInfo(char **, uint16_t *, uint16_t *, uint16_t *);
extern int T32_GetState(int *);
extern int T32_ReadPP(uint32_t *);
extern int T32_ReadMemory(uint32_t, int, uint8_t *, int);
extern int T32_WriteMemory(uint32_t, int, const uint8_t *, int);
extern int T32_GetRam(uint32_t *, uint32_t *, uint16_t *);
extern int T32_GetSource(uint32_t, char *, uint32_t *);
extern int T32_GetSelectedSource(char *, uint32_t *);
extern int T32_GetSymbol(const char *, uint32_t *, uint32_t *, uint32_t *);
extern int T32_GetSymbolFromAddress(char *, uint32_t, int);
extern int T32_ReadVariableString(const char *, char *, int);
extern int T32_ReadVariableValue(const char *, uint32_t *, uint32_t *);
extern int T32_WriteVariableValue(const char *, uint32_t, uint32_t);
extern int T32_ReadRegisterByName(const char *, uint32_t *, uint32_t *);
extern int T32_WriteRegisterByName(const char *, uint32_t, uint32_t);
extern int T32_GetWindowContent(const char *, char *, uint32_t, uint32_t, uint32_t);
extern int T32_ExecuteLua(const char *);
extern int T32_TAPAccessShiftIR(void *, int, const uint8_t *, uint8_t *);
extern int T32_TAPAccessShiftDR(void *, int, const uint8_t *, uint8_t *);
extern int T32_TAPAccessShiftRaw(void *, int, const uint8_t *, const uint8_t *, uint8_t *, int);
extern int T32_TAPAccessJTAGResetWithTMS(void *);
extern int T32_TAPAccessJTAGResetWithTRST(void *, int, int, int);
extern int T32_DAPAPAccessReadWrite(void *, uint8_t, int, uint32_t, uint32_t *, int);
extern int T32_I2CAccess(void *, uint8_t, const uint8_t *, int, uint8_t *, int);
extern int T32_DirectAccessRelease(void);
extern int T32_DirectAccessResetAll(void);

// Variadic and void entry points cannot be called from Go directly.

static int t32_print(const char *s) { return T32_Printf("%s", s); }

static int t32_get_channel_defaults(void *desc) {
	T32_GetChannelDefaults(desc);
	return 0;
}

static int t32_set_channel(void *desc) {
	T32_SetChannel(desc);
	return 0;
}

static int t32_get_cpu_info(char *buf, int size, uint16_t *fpu, uint16_t *endian, uint16_t *reserved) {
	char *s = NULL;
	int rc = T32_GetCpuInfo(&s, fpu, endian, reserved);
	if (rc == 0 && s != NULL && size > 0) {
		strncpy(buf, s, size - 1);
		buf[size - 1] = 0;
	}
	return rc;
}
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/dshills/t32remote/internal/remote/native"
)

// API calls the vendor library.
type API struct{}

var _ native.Native = API{}

// New returns the library binding.
func New() API { return API{} }

func ptr(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Pointer(unsafe.SliceData(b))
}

func cstr(b []byte) *C.char    { return (*C.char)(ptr(b)) }
func ubuf(b []byte) *C.uint8_t { return (*C.uint8_t)(ptr(b)) }

func (API) Config(key, value []byte) int32 { return int32(C.T32_Config(cstr(key), cstr(value))) }
func (API) Init() int32                    { return int32(C.T32_Init()) }
func (API) Attach(device int32) int32      { return int32(C.T32_Attach(C.int(device))) }
func (API) Exit() int32                    { return int32(C.T32_Exit()) }
func (API) Terminate(code int32) int32     { return int32(C.T32_Terminate(C.int(code))) }
func (API) Ping() int32                    { return int32(C.T32_Ping()) }
func (API) Nop() int32                     { return int32(C.T32_Nop()) }
func (API) NopFail() int32                 { return int32(C.T32_NopFail()) }

func (API) NopEx(length, options int32) int32 {
	return int32(C.T32_NopEx(C.int(length), C.int(options)))
}

func (API) Cmd(cmd []byte) int32 { return int32(C.T32_Cmd(cstr(cmd))) }

func (API) CmdWin(window uint32, cmd []byte) int32 {
	return int32(C.T32_CmdWin(C.uint32_t(window), cstr(cmd)))
}

func (API) Printf(text []byte) int32 { return int32(C.t32_print(cstr(text))) }
func (API) Stop() int32              { return int32(C.T32_Stop()) }

func (API) GetPracticeState(state *int32) int32 {
	var s C.int
	rc := C.T32_GetPracticeState(&s)
	*state = int32(s)
	return int32(rc)
}

func (API) EvalGet(value *uint32) int32 {
	return int32(C.T32_EvalGet((*C.uint32_t)(unsafe.Pointer(value))))
}

func (API) EvalGetString(buf []byte) int32 { return int32(C.T32_EvalGetString(cstr(buf))) }

func (API) GetMessage(buf []byte, mode *uint16) int32 {
	return int32(C.T32_GetMessage(cstr(buf), (*C.uint16_t)(unsafe.Pointer(mode))))
}

func (API) GetLastErrorMessage(buf []byte, status *uint32) int32 {
	return int32(C.T32_GetLastErrorMessage(cstr(buf), (*C.uint32_t)(unsafe.Pointer(status)), C.uint32_t(len(buf))))
}

func (API) GetChannelSize() int32 { return int32(C.T32_GetChannelSize()) }

func (API) GetChannelDefaults(desc []byte) int32 {
	return int32(C.t32_get_channel_defaults(ptr(desc)))
}

// The library keeps the descriptor passed to SetChannel, so each channel
// gets a C copy on first activation that lives as long as the process.
var (
	channelMu  sync.Mutex
	channelMem = make(map[*byte]unsafe.Pointer)
)

func (API) SetChannel(desc []byte) int32 {
	if len(desc) == 0 {
		return int32(C.t32_set_channel(nil))
	}
	channelMu.Lock()
	defer channelMu.Unlock()

	key := unsafe.SliceData(desc)
	mem, ok := channelMem[key]
	if !ok {
		mem = C.CBytes(desc)
		channelMem[key] = mem
	}
	return int32(C.t32_set_channel(mem))
}

func (API) APILock(timeoutMs int32) int32 { return int32(C.T32_APILock(C.int(timeoutMs))) }
func (API) APIUnlock() int32              { return int32(C.T32_APIUnlock()) }

func (API) GetApiRevision(revision *uint32) int32 {
	return int32(C.T32_GetApiRevision((*C.uint32_t)(unsafe.Pointer(revision))))
}

func (API) GetSocketHandle(handle *int32) int32 {
	var h C.int
	rc := C.T32_GetSocketHandle(&h)
	*handle = int32(h)
	return int32(rc)
}

func (API) Go() int32                 { return int32(C.T32_Go()) }
func (API) Break() int32              { return int32(C.T32_Break()) }
func (API) Step() int32               { return int32(C.T32_Step()) }
func (API) StepMode(mode int32) int32 { return int32(C.T32_StepMode(C.int(mode))) }
func (API) ResetCPU() int32           { return int32(C.T32_ResetCPU()) }
func (API) SetMode(mode int32) int32  { return int32(C.T32_SetMode(C.int(mode))) }

func (API) GetCpuInfo(cpu []byte, fpu, endian, reserved *uint16) int32 {
	return int32(C.t32_get_cpu_info(cstr(cpu), C.int(len(cpu)),
		(*C.uint16_t)(unsafe.Pointer(fpu)),
		(*C.uint16_t)(unsafe.Pointer(endian)),
		(*C.uint16_t)(unsafe.Pointer(reserved))))
}

func (API) GetState(state *int32) int32 {
	var s C.int
	rc := C.T32_GetState(&s)
	*state = int32(s)
	return int32(rc)
}

func (API) ReadPP(pp *uint32) int32 {
	return int32(C.T32_ReadPP((*C.uint32_t)(unsafe.Pointer(pp))))
}

func (API) ReadMemory(addr uint32, access int32, buf []byte) int32 {
	return int32(C.T32_ReadMemory(C.uint32_t(addr), C.int(access), ubuf(buf), C.int(len(buf))))
}

func (API) WriteMemory(addr uint32, access int32, data []byte) int32 {
	return int32(C.T32_WriteMemory(C.uint32_t(addr), C.int(access), ubuf(data), C.int(len(data))))
}

func (API) GetRam(start, end *uint32, access *uint16) int32 {
	return int32(C.T32_GetRam(
		(*C.uint32_t)(unsafe.Pointer(start)),
		(*C.uint32_t)(unsafe.Pointer(end)),
		(*C.uint16_t)(unsafe.Pointer(access))))
}

func (API) GetSource(addr uint32, file []byte, line *uint32) int32 {
	return int32(C.T32_GetSource(C.uint32_t(addr), cstr(file), (*C.uint32_t)(unsafe.Pointer(line))))
}

func (API) GetSelectedSource(file []byte, line *uint32) int32 {
	return int32(C.T32_GetSelectedSource(cstr(file), (*C.uint32_t)(unsafe.Pointer(line))))
}

func (API) GetSymbol(name []byte, addr, size, reserved *uint32) int32 {
	return int32(C.T32_GetSymbol(cstr(name),
		(*C.uint32_t)(unsafe.Pointer(addr)),
		(*C.uint32_t)(unsafe.Pointer(size)),
		(*C.uint32_t)(unsafe.Pointer(reserved))))
}

func (API) GetSymbolFromAddress(buf []byte, addr uint32) int32 {
	return int32(C.T32_GetSymbolFromAddress(cstr(buf), C.uint32_t(addr), C.int(len(buf))))
}

func (API) ReadVariableString(name, buf []byte) int32 {
	return int32(C.T32_ReadVariableString(cstr(name), cstr(buf), C.int(len(buf))))
}

func (API) ReadVariableValue(name []byte, lo, hi *uint32) int32 {
	return int32(C.T32_ReadVariableValue(cstr(name),
		(*C.uint32_t)(unsafe.Pointer(lo)),
		(*C.uint32_t)(unsafe.Pointer(hi))))
}

func (API) WriteVariableValue(name []byte, lo, hi uint32) int32 {
	return int32(C.T32_WriteVariableValue(cstr(name), C.uint32_t(lo), C.uint32_t(hi)))
}

func (API) ReadRegisterByName(name []byte, lo, hi *uint32) int32 {
	return int32(C.T32_ReadRegisterByName(cstr(name),
		(*C.uint32_t)(unsafe.Pointer(lo)),
		(*C.uint32_t)(unsafe.Pointer(hi))))
}

func (API) WriteRegisterByName(name []byte, lo, hi uint32) int32 {
	return int32(C.T32_WriteRegisterByName(cstr(name), C.uint32_t(lo), C.uint32_t(hi)))
}

func (API) GetWindowContent(cmd, buf []byte, offset, format uint32) int32 {
	return int32(C.T32_GetWindowContent(cstr(cmd), cstr(buf),
		C.uint32_t(len(buf)), C.uint32_t(offset), C.uint32_t(format)))
}

func (API) ExecuteLua(script []byte) int32 { return int32(C.T32_ExecuteLua(cstr(script))) }

func (API) TAPAccessShiftIR(bits int32, out, in []byte) int32 {
	return int32(C.T32_TAPAccessShiftIR(nil, C.int(bits), ubuf(out), ubuf(in)))
}

func (API) TAPAccessShiftDR(bits int32, out, in []byte) int32 {
	return int32(C.T32_TAPAccessShiftDR(nil, C.int(bits), ubuf(out), ubuf(in)))
}

func (API) TAPAccessShiftRaw(bits int32, tms, tdi, tdo []byte) int32 {
	return int32(C.T32_TAPAccessShiftRaw(nil, C.int(bits), ubuf(tms), ubuf(tdi), ubuf(tdo), 0))
}

func (API) TAPAccessJTAGResetWithTMS() int32 {
	return int32(C.T32_TAPAccessJTAGResetWithTMS(nil))
}

func (API) TAPAccessJTAGResetWithTRST() int32 {
	return int32(C.T32_TAPAccessJTAGResetWithTRST(nil, 0, 0, 0))
}

func (API) DAPAPAccessReadWrite(ap uint8, write bool, addr uint32, data *uint32) int32 {
	rw := C.int(0)
	if write {
		rw = 1
	}
	return int32(C.T32_DAPAPAccessReadWrite(nil, C.uint8_t(ap), rw, C.uint32_t(addr),
		(*C.uint32_t)(unsafe.Pointer(data)), 1))
}

func (API) I2CAccess(addr uint8, write, read []byte) int32 {
	return int32(C.T32_I2CAccess(nil, C.uint8_t(addr), ubuf(write), C.int(len(write)), ubuf(read), C.int(len(read))))
}

func (API) DirectAccessRelease() int32  { return int32(C.T32_DirectAccessRelease()) }
func (API) DirectAccessResetAll() int32 { return int32(C.T32_DirectAccessResetAll()) }
