package client

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dshills/t32remote/internal/remote/chunk"
	"github.com/dshills/t32remote/internal/remote/native"
)

// WindowContent returns the content of the window that cmd would open,
// rendered in format. The content arrives in rounds of chunkSize bytes; a
// non-positive chunkSize uses the client default.
func (c *Client) WindowContent(cmd string, format native.WindowFormat, chunkSize int) (string, error) {
	if chunkSize <= 0 {
		chunkSize = c.chunkSize
	}
	b := c.cstr(cmd)
	r := &chunk.Reader{
		Op: native.OpGetWindowContent,
		Read: func(buf []byte, offset uint32) int32 {
			return c.api.GetWindowContent(b, buf, offset, uint32(format))
		},
		Check:     c.check,
		MaxRounds: c.maxRounds,
	}

	start := time.Now()
	data, err := r.ReadAll(chunkSize)
	c.metrics.observe(native.OpGetWindowContent, time.Since(start))
	stats := r.Stats()
	c.metrics.window(stats.Rounds)
	if err != nil {
		return "", err
	}

	c.log.WithFields(logrus.Fields{
		"cmd":    cmd,
		"format": format.String(),
		"rounds": stats.Rounds,
		"bytes":  stats.Bytes,
	}).Debug("window content read")
	return c.codec.DecodeAll(data), nil
}
