package client

import (
	"github.com/dshills/t32remote/internal/remote/native"
)

// Go starts the target.
func (c *Client) Go() error { return c.call(native.OpGo, c.api.Go) }

// Break stops the target.
func (c *Client) Break() error { return c.call(native.OpBreak, c.api.Break) }

// Step executes one step in the current step mode.
func (c *Client) Step() error { return c.call(native.OpStep, c.api.Step) }

// SetStepMode selects how Step advances. overCalls steps over function
// calls.
func (c *Client) SetStepMode(mode SourceMode, overCalls bool) error {
	v := int32(mode)
	if overCalls {
		v |= stepOverCalls
	}
	return c.call(native.OpStepMode, func() int32 { return c.api.StepMode(v) })
}

// ResetCPU resets the target CPU.
func (c *Client) ResetCPU() error { return c.call(native.OpResetCPU, c.api.ResetCPU) }

// SetMode selects the debugger display mode.
func (c *Client) SetMode(mode SourceMode) error {
	return c.call(native.OpSetMode, func() int32 { return c.api.SetMode(int32(mode)) })
}

// State returns the target state.
func (c *Client) State() (TargetState, error) {
	var s int32
	if err := c.call(native.OpGetState, func() int32 { return c.api.GetState(&s) }); err != nil {
		return TargetDown, err
	}
	return TargetState(s), nil
}

// CPUInfo describes the target CPU.
func (c *Client) CPUInfo() (CPUInfo, error) {
	buf := make([]byte, native.CPUInfoSize)
	var fpu, endian, reserved uint16
	err := c.call(native.OpGetCpuInfo, func() int32 {
		return c.api.GetCpuInfo(buf, &fpu, &endian, &reserved)
	})
	if err != nil {
		return CPUInfo{}, err
	}
	return CPUInfo{CPU: c.codec.Decode(buf), FPU: fpu != 0, LittleEndian: endian != 0}, nil
}

// ReadPP returns the program counter.
func (c *Client) ReadPP() (uint32, error) {
	var pp uint32
	if err := c.call(native.OpReadPP, func() int32 { return c.api.ReadPP(&pp) }); err != nil {
		return 0, err
	}
	return pp, nil
}
