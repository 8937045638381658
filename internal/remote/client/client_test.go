package client

import (
	"context"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/t32remote/internal/logging"
	"github.com/dshills/t32remote/internal/remote/guard"
	"github.com/dshills/t32remote/internal/remote/native"
	"github.com/dshills/t32remote/internal/remote/native/sim"
	"github.com/dshills/t32remote/internal/remote/status"
)

func fastRetry() guard.RetryConfig {
	return guard.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffMultiplier: 2}
}

func connected(t *testing.T, opts Options) (*Client, *sim.Remote) {
	t.Helper()
	remote := sim.New(sim.Options{LittleEndian: true})
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = fastRetry()
	}
	c := New(remote, opts)
	require.NoError(t, c.Connect(context.Background(), RemoteConfig{Node: "localhost", Port: 20000}, native.DeviceICD))
	return c, remote
}

func TestConnect(t *testing.T) {
	c, remote := connected(t, Options{})

	assert.True(t, c.Connected())
	assert.True(t, remote.Attached())
	ch := remote.Channel()
	assert.Equal(t, "localhost", ch.Node)
	assert.Equal(t, uint16(20000), ch.Port)
	assert.NotEmpty(t, c.ID())
}

func TestConnectRetriesCommunicationFailures(t *testing.T) {
	remote := sim.New(sim.Options{})
	remote.FailNext(native.OpInit, -1)
	remote.FailNext(native.OpInit, -1)

	c := New(remote, Options{Logger: logging.Discard(), Retry: fastRetry()})
	require.NoError(t, c.Connect(context.Background(), RemoteConfig{}, native.DeviceICD))
	assert.Equal(t, 3, remote.Calls(native.OpInit))
}

func TestConnectDoesNotRetryOtherFailures(t *testing.T) {
	remote := sim.New(sim.Options{})
	remote.FailNext(native.OpInit, 113)

	c := New(remote, Options{Logger: logging.Discard(), Retry: fastRetry()})
	err := c.Connect(context.Background(), RemoteConfig{}, native.DeviceICD)
	require.Error(t, err)
	assert.ErrorIs(t, err, status.Failed)
	assert.Equal(t, 1, remote.Calls(native.OpInit))
	assert.False(t, c.Connected())
}

func TestConnectExitsWhenAttachFails(t *testing.T) {
	remote := sim.New(sim.Options{})
	remote.FailNext(native.OpAttach, 113)

	c := New(remote, Options{Logger: logging.Discard(), Retry: fastRetry()})
	err := c.Connect(context.Background(), RemoteConfig{}, native.DeviceICD)
	require.Error(t, err)
	assert.ErrorIs(t, err, status.Failed)
	assert.Equal(t, 1, remote.Calls(native.OpInit))
	assert.Equal(t, 1, remote.Calls(native.OpExit))
	assert.False(t, c.Connected())
	assert.False(t, remote.Attached())
}

func TestConnectJoinsExitFailure(t *testing.T) {
	remote := sim.New(sim.Options{})
	remote.FailNext(native.OpAttach, 113)
	remote.FailNext(native.OpExit, -2)

	c := New(remote, Options{Logger: logging.Discard(), Retry: fastRetry()})
	err := c.Connect(context.Background(), RemoteConfig{}, native.DeviceICD)
	require.Error(t, err)
	assert.ErrorIs(t, err, status.Failed)
	assert.ErrorIs(t, err, status.ClientTransmitFail)
}

func TestCloseExitsOnce(t *testing.T) {
	c, remote := connected(t, Options{})

	require.NoError(t, c.Close())
	assert.False(t, c.Connected())
	assert.False(t, remote.Attached())

	require.NoError(t, c.Close())
	assert.Equal(t, 1, remote.Calls(native.OpExit))
}

func TestAttachLabel(t *testing.T) {
	c, remote := connected(t, Options{})

	require.NoError(t, c.AttachLabel("os"))
	before := remote.TotalCalls()
	err := c.AttachLabel("jtag")
	assert.ErrorIs(t, err, status.ClientParameterFail)
	assert.Equal(t, before, remote.TotalCalls())
}

func TestSetChannelSetsUpOnce(t *testing.T) {
	c, remote := connected(t, Options{})

	require.NoError(t, c.SetChannel("core1", 20002))
	require.NoError(t, c.SetChannel("core1", 20002))

	assert.Equal(t, 1, remote.Calls(native.OpGetChannelSize))
	assert.Equal(t, 1, remote.Calls(native.OpGetChannelDefaults))
	assert.Equal(t, 2, remote.Calls(native.OpSetChannel))
	assert.Equal(t, 1, c.Channels())

	ch := remote.Channel()
	assert.Equal(t, "core1", ch.Node)
	assert.Equal(t, uint16(20002), ch.Port)
}

func TestSetChannelSizeFailure(t *testing.T) {
	c, remote := connected(t, Options{})
	remote.FailNext(native.OpGetChannelSize, -6)

	err := c.SetChannel("core1", 20002)
	assert.ErrorIs(t, err, status.ClientMallocFail)
	assert.Equal(t, 0, c.Channels())
}

func TestSetChannelConfigFailure(t *testing.T) {
	c, remote := connected(t, Options{})
	remote.FailNext(native.OpConfig, -3)

	err := c.SetChannel("core1", 20002)
	assert.ErrorIs(t, err, status.ClientParameterFail)
	assert.Equal(t, 0, c.Channels())

	require.NoError(t, c.SetChannel("core1", 20002))
	assert.Equal(t, 2, remote.Calls(native.OpGetChannelSize))
	assert.Equal(t, 1, c.Channels())

	ch := remote.Channel()
	assert.Equal(t, "core1", ch.Node)
	assert.Equal(t, uint16(20002), ch.Port)
}

func TestWriteVariableBigRange(t *testing.T) {
	c, remote := connected(t, Options{})

	tooBig := new(big.Int).Lsh(big.NewInt(1), 64)
	before := remote.TotalCalls()

	for _, v := range []*big.Int{tooBig, big.NewInt(-1), nil} {
		err := c.WriteVariableBig("x", v)
		require.Error(t, err)
		assert.ErrorIs(t, err, status.ClientParameterFail)

		var se *status.Error
		require.ErrorAs(t, err, &se)
		assert.True(t, se.Local)
	}
	assert.Equal(t, before, remote.TotalCalls())

	maxVal := new(big.Int).Sub(tooBig, big.NewInt(1))
	require.NoError(t, c.WriteVariableBig("x", maxVal))
	got, ok := remote.Variable("x")
	require.True(t, ok)
	assert.Equal(t, ^uint64(0), got)
	lo, hi := remote.LastVariableWrite()
	assert.Equal(t, uint32(0xFFFFFFFF), lo)
	assert.Equal(t, uint32(0xFFFFFFFF), hi)

	require.NoError(t, c.WriteVariableBig("x", new(big.Int).SetUint64(0x1_0000_0002)))
	lo, hi = remote.LastVariableWrite()
	assert.Equal(t, uint32(2), lo)
	assert.Equal(t, uint32(1), hi)
}

func TestReadVariableValueJoinsHalves(t *testing.T) {
	c, remote := connected(t, Options{})
	remote.SetVariable("counter", 0x200000001)

	v, err := c.ReadVariableValue("counter")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x200000001), v)

	_, err = c.ReadVariableValue("missing")
	assert.ErrorIs(t, err, status.ReadVariableAccessFailed)
	assert.ErrorIs(t, err, status.Variable)
	assert.ErrorIs(t, err, status.Function)
}

func TestRegisters(t *testing.T) {
	c, remote := connected(t, Options{})
	remote.SetRegister("R0", 0)

	require.NoError(t, c.WriteRegister("R0", 0xDEADBEEF00000001))
	v, err := c.ReadRegister("r0")
	require.NoError(t, err)
	assert.Equal(t, uint64(0xDEADBEEF00000001), v)

	_, err = c.ReadRegister("R99")
	assert.ErrorIs(t, err, status.ReadRegisterByNameNotFound)
	err = c.WriteRegister("R99", 1)
	assert.ErrorIs(t, err, status.WriteRegisterByNameNotFound)
}

func TestAPILock(t *testing.T) {
	c, remote := connected(t, Options{})

	remote.SetLockHolder(true, 0)
	ok, err := c.APILock(0)
	require.NoError(t, err)
	assert.False(t, ok)

	remote.SetLockHolder(false, 0)
	ok, err = c.APILock(100)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, remote.LockHeld())

	require.NoError(t, c.APIUnlock())
	assert.False(t, remote.LockHeld())

	remote.FailNext(native.OpAPILock, -2)
	ok, err = c.APILock(0)
	assert.False(t, ok)
	assert.ErrorIs(t, err, status.ClientTransmitFail)
}

func TestAPILockWaitsForRelease(t *testing.T) {
	c, remote := connected(t, Options{})
	remote.SetLockHolder(true, 50)

	ok, err := c.APILock(10)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.APILock(100)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUnknownCodeIgnoredByDefault(t *testing.T) {
	c, remote := connected(t, Options{})
	remote.FailNext(native.OpNop, 7777)

	assert.NoError(t, c.Nop())
}

func TestUnknownCodeStrict(t *testing.T) {
	c, remote := connected(t, Options{StrictStatus: true})
	remote.FailNext(native.OpNop, 7777)

	err := c.Nop()
	require.Error(t, err)
	assert.ErrorIs(t, err, status.Generic)
	code, ok := status.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, int32(7777), code)
}

func TestResolvedError(t *testing.T) {
	c, remote := connected(t, Options{})
	remote.FailNext(native.OpCmd, 2)

	err := c.Cmd("Go")
	require.Error(t, err)
	assert.ErrorIs(t, err, status.TargetRunning)
	assert.ErrorIs(t, err, status.Standard)
	assert.NotErrorIs(t, err, status.Client)
	assert.Contains(t, err.Error(), native.OpCmd)
}

func TestNopFail(t *testing.T) {
	c, _ := connected(t, Options{})
	assert.ErrorIs(t, c.NopFail(), status.Failed)
}

func TestCommandsAndEval(t *testing.T) {
	c, remote := connected(t, Options{})

	require.NoError(t, c.Cmdf("EVAL %d", 42))
	v, err := c.EvalGet()
	require.NoError(t, err)
	assert.Equal(t, uint32(42), v)

	s, err := c.EvalGetString()
	require.NoError(t, err)
	assert.Equal(t, "42", s)

	require.NoError(t, c.Printf("pc=%#x", 0x100))
	assert.Equal(t, []string{"pc=0x100"}, remote.Printed())
	assert.Equal(t, []string{"EVAL 42"}, remote.Commands())
}

func TestMessage(t *testing.T) {
	c, remote := connected(t, Options{})

	_, ok, err := c.Message()
	require.NoError(t, err)
	assert.False(t, ok)

	remote.SetMessage("breakpoint hit", uint16(MessageInfo|MessageStatus))
	msg, ok, err := c.Message()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "breakpoint hit", msg.Text)
	assert.True(t, msg.Mode.Has(MessageStatus))
	assert.Equal(t, "info|status", msg.Mode.String())
}

func TestExecutionControl(t *testing.T) {
	c, remote := connected(t, Options{})
	remote.SetPC(0x100)

	require.NoError(t, c.Step())
	pc, err := c.ReadPP()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x102), pc)

	require.NoError(t, c.Go())
	st, err := c.State()
	require.NoError(t, err)
	assert.Equal(t, TargetRunning, st)

	assert.ErrorIs(t, c.Go(), status.TargetRunning)

	require.NoError(t, c.Break())
	st, err = c.State()
	require.NoError(t, err)
	assert.Equal(t, TargetStopped, st)

	require.NoError(t, c.SetStepMode(ModeHLL, true))
	assert.Equal(t, int32(0x81), remote.StepModeValue())
	require.NoError(t, c.SetMode(ModeMixed))
}

func TestCPUInfo(t *testing.T) {
	c, _ := connected(t, Options{})

	info, err := c.CPUInfo()
	require.NoError(t, err)
	assert.Equal(t, "CortexM4", info.CPU)
	assert.Equal(t, "little", info.Endian())
	assert.False(t, info.FPU)
}

func TestMemory(t *testing.T) {
	c, remote := connected(t, Options{})
	remote.MapRAM(0x1000, 0x1FFF)

	require.NoError(t, c.WriteMemoryValue(0x1000, 0, 0x1234))
	assert.Equal(t, []byte{0x12, 0x34}, remote.Memory(0x1000, 2))

	require.NoError(t, c.WriteMemoryValue(0x1010, 0, 0))
	assert.Equal(t, []byte{0}, remote.Memory(0x1010, 1))

	got, err := c.ReadMemory(0x1000, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x12, 0x34}, got)

	_, err = c.ReadMemory(0x3000, 0, 4)
	assert.ErrorIs(t, err, status.NoMemoryMapped)

	r, ok, err := c.RAMRange(0, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Range{Start: 0x1000, End: 0x1FFF}, r)

	_, ok, err = c.RAMRange(0x2000, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMinimalBytes(t *testing.T) {
	assert.Equal(t, []byte{0}, minimalBytes(0))
	assert.Equal(t, []byte{0xFF}, minimalBytes(0xFF))
	assert.Equal(t, []byte{0x01, 0x00}, minimalBytes(0x100))
	assert.Len(t, minimalBytes(^uint64(0)), 8)
}

func TestSymbols(t *testing.T) {
	c, remote := connected(t, Options{})
	remote.AddSymbol("main", 0x1000, 0x40)
	remote.AddSource(0x1000, "main.c", 12)

	sym, err := c.Symbol("main")
	require.NoError(t, err)
	assert.True(t, sym.Found())
	assert.Equal(t, uint32(0x40), sym.Size)

	sym, err = c.Symbol("nope")
	require.NoError(t, err)
	assert.False(t, sym.Found())

	name, err := c.SymbolAt(0x1010)
	require.NoError(t, err)
	assert.Equal(t, "main", name)

	src, err := c.Source(0x1000)
	require.NoError(t, err)
	assert.Equal(t, SourceLine{File: "main.c", Line: 12}, src)
}

func TestGBKText(t *testing.T) {
	c, remote := connected(t, Options{})
	// "你好" in GBK.
	remote.SetVariableString("greeting", string([]byte{0xC4, 0xE3, 0xBA, 0xC3}))

	s, err := c.ReadVariableString("greeting")
	require.NoError(t, err)
	assert.Equal(t, "你好", s)
}

func TestWindowContent(t *testing.T) {
	c, remote := connected(t, Options{ChunkSize: 16})
	content := strings.Repeat("R0 00000001\n", 10)
	remote.SetWindow("Register.view", content)

	got, err := c.WindowContent("Register.view", native.FormatASC, 0)
	require.NoError(t, err)
	assert.Equal(t, content, got)
	assert.Equal(t, 9, remote.Calls(native.OpGetWindowContent))

	remote.SetWindow("List", "short")
	got, err = c.WindowContent("List", native.FormatASC, 1024)
	require.NoError(t, err)
	assert.Equal(t, "short", got)

	_, err = c.WindowContent("Nope", native.FormatASC, 0)
	assert.ErrorIs(t, err, status.ClientParameterFail)
}

func TestWindowContentRoundLimit(t *testing.T) {
	c, remote := connected(t, Options{MaxRounds: 2})
	remote.SetWindow("Data.dump", strings.Repeat("x", 100))

	_, err := c.WindowContent("Data.dump", native.FormatASC, 10)
	assert.Error(t, err)
}

func TestExecuteLua(t *testing.T) {
	c, remote := connected(t, Options{})
	remote.SetVariable("count", 1)

	out, err := c.ExecuteLua(`t32.write_var("count", t32.read_var("count") + 4) return "done"`)
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	v, _ := remote.Variable("count")
	assert.Equal(t, uint64(5), v)
}

func TestExecuteLuaSyntaxCheckedLocally(t *testing.T) {
	c, remote := connected(t, Options{})

	_, err := c.ExecuteLua("return (")
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ClientParameterFail)
	assert.Equal(t, 0, remote.Calls(native.OpExecuteLua))
}

func TestExecuteLuaRuntimeFailure(t *testing.T) {
	c, _ := connected(t, Options{})

	_, err := c.ExecuteLua(`error("boom")`)
	assert.ErrorIs(t, err, status.Failed)

	text, num, err := c.LastErrorMessage()
	require.NoError(t, err)
	assert.Contains(t, text, "boom")
	assert.Equal(t, uint32(113), num)
}

func TestLowLevelAccess(t *testing.T) {
	c, remote := connected(t, Options{})

	in, err := c.TAPShiftIR(8, []byte{0xA5})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xA5}, in)

	before := remote.TotalCalls()
	_, err = c.TAPShiftDR(9, []byte{0x01})
	assert.ErrorIs(t, err, status.ClientParameterFail)
	assert.Equal(t, before, remote.TotalCalls())

	tdo, err := c.TAPShiftRaw(8, []byte{0}, []byte{0x01})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02}, tdo)

	require.NoError(t, c.TAPResetTMS())
	require.NoError(t, c.TAPResetTRST())

	_, err = c.DAPAccess(DAPRequest{AP: 1, Write: true, Address: 0x04, Value: 0xCAFE})
	require.NoError(t, err)
	v, err := c.DAPAccess(DAPRequest{AP: 1, Address: 0x04})
	require.NoError(t, err)
	assert.Equal(t, uint32(0xCAFE), v)

	remote.AddI2CDevice(0x50, []byte{1, 2, 3, 4})
	data, err := c.I2CAccess(0x50, []byte{1}, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 3}, data)

	_, err = c.I2CAccess(0x51, nil, 1)
	assert.ErrorIs(t, err, status.Bus)

	require.NoError(t, c.DirectAccessRelease())
	require.NoError(t, c.DirectAccessResetAll())
}

func TestUnsupportedAreNoOps(t *testing.T) {
	c, remote := connected(t, Options{})
	before := remote.TotalCalls()

	assert.NoError(t, c.WriteMemoryPipe(0, 0, []byte{1}))
	data, err := c.ReadMemoryEx(0, 0, 4)
	assert.NoError(t, err)
	assert.Nil(t, data)
	assert.NoError(t, c.WriteMemoryEx(0, 0, []byte{1}))
	assert.NoError(t, c.SetMemoryAccessClass("D"))
	assert.NoError(t, c.TriggerMessage("hi"))

	assert.Equal(t, before, remote.TotalCalls())
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c, remote := connected(t, Options{Metrics: m})

	require.NoError(t, c.Nop())
	remote.FailNext(native.OpCmd, 2)
	require.Error(t, c.Cmd("Go"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues(native.OpNop)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues(native.OpCmd, "TargetRunning")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.failures.WithLabelValues(native.OpNop, "TargetRunning")))
}

func TestParseSourceMode(t *testing.T) {
	for in, want := range map[string]SourceMode{"ASM": ModeASM, "hll": ModeHLL, " mix ": ModeMixed, "2": ModeMixed} {
		got, err := ParseSourceMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseSourceMode("auto")
	assert.ErrorIs(t, err, ErrUnknownMode)
}
