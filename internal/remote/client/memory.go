package client

import (
	"math/big"

	"github.com/dshills/t32remote/internal/remote/native"
	"github.com/dshills/t32remote/internal/remote/status"
)

func split(v uint64) (lo, hi uint32) { return uint32(v), uint32(v >> 32) }

func join(lo, hi uint32) uint64 { return uint64(hi)<<32 | uint64(lo) }

// ReadMemory reads size bytes at addr using the access class.
func (c *Client) ReadMemory(addr uint32, access int32, size int) ([]byte, error) {
	if size < 0 {
		return nil, status.Invalid(native.OpReadMemory, "negative size %d", size)
	}
	buf := make([]byte, size)
	err := c.call(native.OpReadMemory, func() int32 { return c.api.ReadMemory(addr, access, buf) })
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteMemory writes data at addr using the access class.
func (c *Client) WriteMemory(addr uint32, access int32, data []byte) error {
	return c.call(native.OpWriteMemory, func() int32 { return c.api.WriteMemory(addr, access, data) })
}

// WriteMemoryValue writes v at addr as big-endian bytes, using as few bytes
// as hold the value and at least one.
func (c *Client) WriteMemoryValue(addr uint32, access int32, v uint64) error {
	return c.WriteMemory(addr, access, minimalBytes(v))
}

func minimalBytes(v uint64) []byte {
	n := 1
	for x := v >> 8; x != 0; x >>= 8 {
		n++
	}
	b := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

// RAMRange returns the first mapped RAM range at or after start. The bool
// is false when there is none.
func (c *Client) RAMRange(start uint32, access uint16) (Range, bool, error) {
	s, e, a := start, uint32(0), access
	if err := c.call(native.OpGetRam, func() int32 { return c.api.GetRam(&s, &e, &a) }); err != nil {
		return Range{}, false, err
	}
	if a == 0 {
		return Range{}, false, nil
	}
	return Range{Start: s, End: e}, true, nil
}

// Source returns the source position of addr.
func (c *Client) Source(addr uint32) (SourceLine, error) {
	buf := make([]byte, native.NameSize)
	var line uint32
	if err := c.call(native.OpGetSource, func() int32 { return c.api.GetSource(addr, buf, &line) }); err != nil {
		return SourceLine{}, err
	}
	return SourceLine{File: c.codec.Decode(buf), Line: line}, nil
}

// SelectedSource returns the source position selected in the debugger.
func (c *Client) SelectedSource() (SourceLine, error) {
	buf := make([]byte, native.NameSize)
	var line uint32
	if err := c.call(native.OpGetSelectedSource, func() int32 { return c.api.GetSelectedSource(buf, &line) }); err != nil {
		return SourceLine{}, err
	}
	return SourceLine{File: c.codec.Decode(buf), Line: line}, nil
}

// Symbol looks up name. Check Found on the result.
func (c *Client) Symbol(name string) (Symbol, error) {
	b := c.cstr(name)
	sym := Symbol{Name: name}
	err := c.call(native.OpGetSymbol, func() int32 {
		return c.api.GetSymbol(b, &sym.Address, &sym.Size, &sym.Reserved)
	})
	if err != nil {
		return Symbol{}, err
	}
	return sym, nil
}

// SymbolAt returns the name of the symbol covering addr, or "".
func (c *Client) SymbolAt(addr uint32) (string, error) {
	buf := make([]byte, native.NameSize)
	if err := c.call(native.OpGetSymbolFromAddress, func() int32 { return c.api.GetSymbolFromAddress(buf, addr) }); err != nil {
		return "", err
	}
	return c.codec.Decode(buf), nil
}

// ReadVariableString returns the formatted value of a HLL variable.
func (c *Client) ReadVariableString(name string) (string, error) {
	b := c.cstr(name)
	buf := make([]byte, native.EvalStringSize)
	if err := c.call(native.OpReadVariableString, func() int32 { return c.api.ReadVariableString(b, buf) }); err != nil {
		return "", err
	}
	return c.codec.Decode(buf), nil
}

// ReadVariableValue returns the 64-bit value of a HLL variable.
func (c *Client) ReadVariableValue(name string) (uint64, error) {
	b := c.cstr(name)
	var lo, hi uint32
	if err := c.call(native.OpReadVariableValue, func() int32 { return c.api.ReadVariableValue(b, &lo, &hi) }); err != nil {
		return 0, err
	}
	return join(lo, hi), nil
}

// WriteVariableValue writes v to a HLL variable.
func (c *Client) WriteVariableValue(name string, v uint64) error {
	b := c.cstr(name)
	lo, hi := split(v)
	return c.call(native.OpWriteVariableValue, func() int32 { return c.api.WriteVariableValue(b, lo, hi) })
}

var maxUint64 = new(big.Int).SetUint64(^uint64(0))

// WriteVariableBig writes an arbitrary precision value. Values outside
// [0, 2^64) fail before any remote call.
func (c *Client) WriteVariableBig(name string, v *big.Int) error {
	if v == nil || v.Sign() < 0 || v.Cmp(maxUint64) > 0 {
		return status.Invalid(native.OpWriteVariableValue, "value %v outside [0, 2^64)", v)
	}
	return c.WriteVariableValue(name, v.Uint64())
}

// ReadRegister returns the value of the register called name.
func (c *Client) ReadRegister(name string) (uint64, error) {
	b := c.cstr(name)
	var lo, hi uint32
	if err := c.call(native.OpReadRegisterByName, func() int32 { return c.api.ReadRegisterByName(b, &lo, &hi) }); err != nil {
		return 0, err
	}
	return join(lo, hi), nil
}

// WriteRegister sets the register called name.
func (c *Client) WriteRegister(name string, v uint64) error {
	b := c.cstr(name)
	lo, hi := split(v)
	return c.call(native.OpWriteRegisterByName, func() int32 { return c.api.WriteRegisterByName(b, lo, hi) })
}
