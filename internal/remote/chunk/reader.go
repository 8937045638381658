// Package chunk reads content that the remote side delivers in rounds.
//
// Each round asks for one fixed-size buffer at a growing offset. A round
// returns the number of bytes written, a negative status, or the sentinel
// once there is nothing left.
package chunk

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/dshills/t32remote/internal/remote/native"
	"github.com/dshills/t32remote/internal/remote/status"
)

// DefaultChunkSize is used when ReadAll gets a non-positive size.
const DefaultChunkSize = 1024

// ErrTooManyRounds is returned when MaxRounds is reached without the
// sentinel.
var ErrTooManyRounds = errors.New("chunked read exceeded round limit")

// ReadFunc fills buf with content starting at offset.
type ReadFunc func(buf []byte, offset uint32) int32

// Stats describes a completed ReadAll.
type Stats struct {
	Rounds int
	Bytes  int
}

// Reader drives a chunked read.
type Reader struct {
	// Op names the entry point in errors.
	Op string

	// Read performs one round.
	Read ReadFunc

	// Check converts negative results into errors.
	Check status.CheckFunc

	// Sentinel marks the end of content. Zero selects native.WindowSentinel.
	Sentinel int32

	// MaxRounds bounds the number of rounds. Zero means unbounded.
	MaxRounds int

	stats Stats
}

// ReadAll accumulates content until the sentinel arrives.
//
// On the sentinel the NUL-terminated content of the buffer is the final
// piece, so a single-round read yields exactly the first buffer. A negative
// result other than the sentinel stops the read with its error.
func (r *Reader) ReadAll(chunkSize int) ([]byte, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	sentinel := r.Sentinel
	if sentinel == 0 {
		sentinel = native.WindowSentinel
	}
	op := r.Op
	if op == "" {
		op = native.OpGetWindowContent
	}

	r.stats = Stats{}
	var (
		out    bytes.Buffer
		offset uint32
		buf    = make([]byte, chunkSize)
	)
	for {
		if r.MaxRounds > 0 && r.stats.Rounds >= r.MaxRounds {
			return nil, fmt.Errorf("%s: %w (%d rounds)", op, ErrTooManyRounds, r.stats.Rounds)
		}

		clear(buf)
		n := r.Read(buf, offset)
		r.stats.Rounds++

		switch {
		case n == sentinel:
			if i := bytes.IndexByte(buf, 0); i >= 0 {
				out.Write(buf[:i])
			} else {
				out.Write(buf)
			}
			r.stats.Bytes = out.Len()
			return out.Bytes(), nil

		case n < 0:
			if err := r.check(op, n); err != nil {
				return nil, err
			}
			return nil, status.Unknown(op, n)

		case int(n) > chunkSize:
			return nil, status.ClientSequenceFail.Local(op,
				"round returned %d bytes for a %d byte buffer", n, chunkSize)

		default:
			out.Write(buf[:n])
			offset += uint32(chunkSize)
		}
	}
}

func (r *Reader) check(op string, code int32) error {
	if r.Check == nil {
		return status.DefaultResolver().Check(op, code, false)
	}
	return r.Check(op, code)
}

// Stats returns the statistics of the last ReadAll.
func (r *Reader) Stats() Stats { return r.stats }
