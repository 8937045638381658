package client

import (
	"github.com/dshills/t32remote/internal/luascript"
	"github.com/dshills/t32remote/internal/remote/native"
	"github.com/dshills/t32remote/internal/remote/status"
)

// ExecuteLua runs script in the debugger's Lua interpreter and returns its
// result. Scripts that do not parse are rejected before any remote call.
func (c *Client) ExecuteLua(script string) (string, error) {
	if err := luascript.Check("script", script); err != nil {
		return "", status.Invalid(native.OpExecuteLua, "%v", err)
	}
	b := c.cstr(script)
	if err := c.call(native.OpExecuteLua, func() int32 { return c.api.ExecuteLua(b) }); err != nil {
		return "", err
	}
	return c.EvalGetString()
}
