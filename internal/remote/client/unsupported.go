package client

// The entry points below were removed from the Remote API. The methods stay
// so existing callers keep working; they do nothing and never fail.

func (c *Client) unsupported(op string) error {
	c.log.WithField("op", op).Debug("entry point not supported, ignoring")
	return nil
}

// WriteMemoryPipe does nothing.
func (c *Client) WriteMemoryPipe(addr uint32, access int32, data []byte) error {
	return c.unsupported("T32_WriteMemoryPipe")
}

// ReadMemoryEx does nothing and returns no data.
func (c *Client) ReadMemoryEx(addr uint32, access int32, size int) ([]byte, error) {
	return nil, c.unsupported("T32_ReadMemoryEx")
}

// WriteMemoryEx does nothing.
func (c *Client) WriteMemoryEx(addr uint32, access int32, data []byte) error {
	return c.unsupported("T32_WriteMemoryEx")
}

// SetMemoryAccessClass does nothing.
func (c *Client) SetMemoryAccessClass(class string) error {
	return c.unsupported("T32_SetMemoryAccessClass")
}

// TriggerMessage does nothing.
func (c *Client) TriggerMessage(text string) error {
	return c.unsupported("T32_TriggerMessage")
}
