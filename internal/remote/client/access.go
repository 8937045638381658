package client

import (
	"github.com/dshills/t32remote/internal/remote/native"
	"github.com/dshills/t32remote/internal/remote/status"
)

func tapBytes(op string, bits int, have int) (int, error) {
	if bits <= 0 {
		return 0, status.Invalid(op, "bit count %d must be positive", bits)
	}
	n := (bits + 7) / 8
	if have < n {
		return 0, status.Invalid(op, "%d bits need %d bytes, got %d", bits, n, have)
	}
	return n, nil
}

// TAPShiftIR shifts bits through the instruction register and returns the
// bits shifted out.
func (c *Client) TAPShiftIR(bits int, out []byte) ([]byte, error) {
	return c.tapShift(native.OpTAPShiftIR, c.api.TAPAccessShiftIR, bits, out)
}

// TAPShiftDR shifts bits through the data register and returns the bits
// shifted out.
func (c *Client) TAPShiftDR(bits int, out []byte) ([]byte, error) {
	return c.tapShift(native.OpTAPShiftDR, c.api.TAPAccessShiftDR, bits, out)
}

func (c *Client) tapShift(op string, fn func(int32, []byte, []byte) int32, bits int, out []byte) ([]byte, error) {
	n, err := tapBytes(op, bits, len(out))
	if err != nil {
		return nil, err
	}
	in := make([]byte, n)
	if err := c.call(op, func() int32 { return fn(int32(bits), out[:n], in) }); err != nil {
		return nil, err
	}
	return in, nil
}

// TAPShiftRaw drives TMS and TDI for bits clock cycles and returns TDO.
func (c *Client) TAPShiftRaw(bits int, tms, tdi []byte) ([]byte, error) {
	n, err := tapBytes(native.OpTAPShiftRaw, bits, min(len(tms), len(tdi)))
	if err != nil {
		return nil, err
	}
	tdo := make([]byte, n)
	err = c.call(native.OpTAPShiftRaw, func() int32 {
		return c.api.TAPAccessShiftRaw(int32(bits), tms[:n], tdi[:n], tdo)
	})
	if err != nil {
		return nil, err
	}
	return tdo, nil
}

// TAPResetTMS resets the JTAG state machine through TMS.
func (c *Client) TAPResetTMS() error {
	return c.call(native.OpTAPResetTMS, c.api.TAPAccessJTAGResetWithTMS)
}

// TAPResetTRST resets the JTAG state machine through TRST.
func (c *Client) TAPResetTRST() error {
	return c.call(native.OpTAPResetTRST, c.api.TAPAccessJTAGResetWithTRST)
}

// DAPAccess reads or writes one access port register. Reads return the
// register value, writes return req.Value.
func (c *Client) DAPAccess(req DAPRequest) (uint32, error) {
	v := req.Value
	err := c.call(native.OpDAPAccess, func() int32 {
		return c.api.DAPAPAccessReadWrite(req.AP, req.Write, req.Address, &v)
	})
	if err != nil {
		return 0, err
	}
	return v, nil
}

// I2CAccess writes data to the device at addr and then reads readLen
// bytes back.
func (c *Client) I2CAccess(addr uint8, data []byte, readLen int) ([]byte, error) {
	if readLen < 0 {
		return nil, status.Invalid(native.OpI2CAccess, "negative read length %d", readLen)
	}
	read := make([]byte, readLen)
	if err := c.call(native.OpI2CAccess, func() int32 { return c.api.I2CAccess(addr, data, read) }); err != nil {
		return nil, err
	}
	return read, nil
}

// DirectAccessRelease ends direct access mode.
func (c *Client) DirectAccessRelease() error {
	return c.call(native.OpDirectAccessRelease, c.api.DirectAccessRelease)
}

// DirectAccessResetAll resets all direct access settings.
func (c *Client) DirectAccessResetAll() error {
	return c.call(native.OpDirectAccessResetAll, c.api.DirectAccessResetAll)
}
