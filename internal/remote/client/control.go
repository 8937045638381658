package client

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/t32remote/internal/remote/channel"
	"github.com/dshills/t32remote/internal/remote/native"
	"github.com/dshills/t32remote/internal/remote/status"
)

// Config sets one connection parameter such as "NODE" or "PORT". The key
// gets its trailing "=" appended when missing.
func (c *Client) Config(key, value string) error {
	if !strings.HasSuffix(key, "=") {
		key += "="
	}
	k, v := c.cstr(key), c.cstr(value)
	return c.call(native.OpConfig, func() int32 { return c.api.Config(k, v) })
}

// Configure applies cfg in NODE, PORT, PACKLEN, TIMEOUT, HOSTPORT order,
// skipping zero values.
func (c *Client) Configure(cfg RemoteConfig) error {
	params := []struct {
		key   string
		value string
	}{
		{"NODE", cfg.Node},
		{"PORT", itoa(cfg.Port)},
		{"PACKLEN", itoa(cfg.PackLen)},
		{"TIMEOUT", itoa(cfg.Timeout)},
		{"HOSTPORT", itoa(cfg.HostPort)},
	}
	for _, p := range params {
		if p.value == "" {
			continue
		}
		if err := c.Config(p.key, p.value); err != nil {
			return err
		}
	}
	return nil
}

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// Init opens the connection on the current channel.
func (c *Client) Init() error {
	if err := c.call(native.OpInit, c.api.Init); err != nil {
		return err
	}
	c.connected.Store(true)
	return nil
}

// Attach attaches to device.
func (c *Client) Attach(device native.DeviceType) error {
	return c.call(native.OpAttach, func() int32 { return c.api.Attach(int32(device)) })
}

// AttachLabel attaches to the device named by label, e.g. "icd" or "os".
func (c *Client) AttachLabel(label string) error {
	device, err := native.ParseDevice(label)
	if err != nil {
		return status.Invalid(native.OpAttach, "%v", err)
	}
	return c.Attach(device)
}

// Exit closes the connection.
func (c *Client) Exit() error {
	err := c.call(native.OpExit, c.api.Exit)
	if err == nil {
		c.connected.Store(false)
	}
	return err
}

// Terminate shuts TRACE32 down with exitCode.
func (c *Client) Terminate(exitCode int32) error {
	err := c.call(native.OpTerminate, func() int32 { return c.api.Terminate(exitCode) })
	if err == nil {
		c.connected.Store(false)
	}
	return err
}

// Ping checks that the debugger answers.
func (c *Client) Ping() error { return c.call(native.OpPing, c.api.Ping) }

// Nop sends an empty message.
func (c *Client) Nop() error { return c.call(native.OpNop, c.api.Nop) }

// NopEx sends a message of length bytes.
func (c *Client) NopEx(length, options int32) error {
	return c.call(native.OpNopEx, func() int32 { return c.api.NopEx(length, options) })
}

// NopFail sends a message the debugger always rejects. It exists to test
// error handling.
func (c *Client) NopFail() error { return c.call(native.OpNopFail, c.api.NopFail) }

// Cmd executes a TRACE32 command line.
func (c *Client) Cmd(cmd string) error {
	b := c.cstr(cmd)
	return c.call(native.OpCmd, func() int32 { return c.api.Cmd(b) })
}

// Cmdf formats a command line and executes it.
func (c *Client) Cmdf(format string, args ...any) error {
	return c.Cmd(fmt.Sprintf(format, args...))
}

// CmdWin executes cmd in the context of window.
func (c *Client) CmdWin(window uint32, cmd string) error {
	b := c.cstr(cmd)
	return c.call(native.OpCmdWin, func() int32 { return c.api.CmdWin(window, b) })
}

// Printf writes a formatted line to the AREA window.
func (c *Client) Printf(format string, args ...any) error {
	b := c.cstr(fmt.Sprintf(format, args...))
	return c.call(native.OpPrintf, func() int32 { return c.api.Printf(b) })
}

// Stop stops the running PRACTICE script.
func (c *Client) Stop() error { return c.call(native.OpStop, c.api.Stop) }

// PracticeState reports whether a PRACTICE script is running.
func (c *Client) PracticeState() (PracticeState, error) {
	var state int32
	err := c.call(native.OpGetPracticeState, func() int32 { return c.api.GetPracticeState(&state) })
	if err != nil {
		return 0, err
	}
	return PracticeState(state), nil
}

// EvalGet returns the numeric result of the last EVAL command.
func (c *Client) EvalGet() (uint32, error) {
	var v uint32
	if err := c.call(native.OpEvalGet, func() int32 { return c.api.EvalGet(&v) }); err != nil {
		return 0, err
	}
	return v, nil
}

// EvalGetString returns the string result of the last EVAL command.
func (c *Client) EvalGetString() (string, error) {
	buf := make([]byte, native.EvalStringSize)
	if err := c.call(native.OpEvalGetString, func() int32 { return c.api.EvalGetString(buf) }); err != nil {
		return "", err
	}
	return c.codec.Decode(buf), nil
}

// Message returns the message line. The bool is false when the line is
// empty.
func (c *Client) Message() (Message, bool, error) {
	buf := make([]byte, native.MessageSize)
	var mode uint16
	if err := c.call(native.OpGetMessage, func() int32 { return c.api.GetMessage(buf, &mode) }); err != nil {
		return Message{}, false, err
	}
	m := Message{Text: c.codec.Decode(buf), Mode: MessageMode(mode)}
	return m, m.Mode != 0 || m.Text != "", nil
}

// LastErrorMessage returns the text and number of the last error reported
// by the debugger.
func (c *Client) LastErrorMessage() (string, uint32, error) {
	buf := make([]byte, native.MessageSize)
	var num uint32
	err := c.call(native.OpGetLastErrorMessage, func() int32 { return c.api.GetLastErrorMessage(buf, &num) })
	if err != nil {
		return "", 0, err
	}
	return c.codec.Decode(buf), num, nil
}

// SetChannel switches to the connection for host:port, creating it on first
// use. A fresh channel is configured for host and port and is not kept when
// that fails.
func (c *Client) SetChannel(host string, port int) error {
	c.chanMu.Lock()
	defer c.chanMu.Unlock()

	ep := channel.Endpoint{Host: host, Port: port}
	_, created, err := c.channels.GetOrCreate(ep)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}
	if err := c.Configure(RemoteConfig{Node: host, Port: port}); err != nil {
		c.channels.Forget(ep)
		return err
	}
	return nil
}

// Channels returns the number of channels created so far.
func (c *Client) Channels() int {
	c.chanMu.Lock()
	defer c.chanMu.Unlock()
	return c.channels.Len()
}

// APILock requests the advisory API lock, waiting up to waitMs
// milliseconds. It returns false without error when another client keeps
// the lock.
func (c *Client) APILock(waitMs int32) (bool, error) {
	code := c.api.APILock(waitMs)
	switch code {
	case 0:
		c.metrics.record(native.OpAPILock, nil)
		return true, nil
	case native.AccessLocked:
		c.metrics.record(native.OpAPILock, nil)
		c.log.WithField("wait_ms", waitMs).Debug("API lock held elsewhere")
		return false, nil
	}
	if err := c.check(native.OpAPILock, code); err != nil {
		return false, err
	}
	return false, status.Unknown(native.OpAPILock, code)
}

// APIUnlock releases the API lock.
func (c *Client) APIUnlock() error { return c.call(native.OpAPIUnlock, c.api.APIUnlock) }

// APIRevision returns the revision of the remote API.
func (c *Client) APIRevision() (uint32, error) {
	var rev uint32
	if err := c.call(native.OpGetApiRevision, func() int32 { return c.api.GetApiRevision(&rev) }); err != nil {
		return 0, err
	}
	return rev, nil
}

// SocketHandle returns the socket of the current channel, or -1.
func (c *Client) SocketHandle() (int32, error) {
	var h int32
	if err := c.call(native.OpGetSocketHandle, func() int32 { return c.api.GetSocketHandle(&h) }); err != nil {
		return -1, err
	}
	return h, nil
}
