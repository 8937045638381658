package chunk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/t32remote/internal/remote/status"
)

// round is one scripted reply: data copied into the buffer and the
// returned count.
type round struct {
	data string
	n    int32
}

type script struct {
	rounds  []round
	offsets []uint32
}

func (s *script) read(buf []byte, offset uint32) int32 {
	s.offsets = append(s.offsets, offset)
	i := len(s.offsets) - 1
	if i >= len(s.rounds) {
		return -1
	}
	copy(buf, s.rounds[i].data)
	return s.rounds[i].n
}

func TestSentinelOnFirstRound(t *testing.T) {
	s := &script{rounds: []round{{data: "hello", n: -1}}}
	r := &Reader{Read: s.read}

	got, err := r.ReadAll(16)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
	assert.Len(t, s.offsets, 1)
	assert.Equal(t, Stats{Rounds: 1, Bytes: 5}, r.Stats())
}

func TestFullRoundsThenSentinel(t *testing.T) {
	s := &script{rounds: []round{
		{data: "abcd", n: 4},
		{data: "efgh", n: 4},
		{n: -1},
	}}
	r := &Reader{Read: s.read}

	got, err := r.ReadAll(4)
	require.NoError(t, err)
	assert.Equal(t, "abcdefgh", string(got))
	assert.Equal(t, []uint32{0, 4, 8}, s.offsets)
	assert.Equal(t, 3, r.Stats().Rounds)
}

func TestPartialRound(t *testing.T) {
	s := &script{rounds: []round{
		{data: "abcd", n: 4},
		{data: "ef", n: 2},
		{n: -1},
	}}
	r := &Reader{Read: s.read}

	got, err := r.ReadAll(4)
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(got))
}

func TestBufferIsClearedEachRound(t *testing.T) {
	// The sentinel round writes nothing; leftovers of the previous round
	// must not leak into the result.
	s := &script{rounds: []round{
		{data: "abcd", n: 4},
		{n: -1},
	}}
	r := &Reader{Read: s.read}

	got, err := r.ReadAll(4)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(got))
}

func TestNegativeKnownCodeStops(t *testing.T) {
	s := &script{rounds: []round{
		{data: "abcd", n: 4},
		{n: -2},
		{data: "never", n: 5},
	}}
	r := &Reader{Read: s.read}

	got, err := r.ReadAll(4)
	assert.Nil(t, got)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ClientTransmitFail))
	assert.Len(t, s.offsets, 2, "no further rounds after a failure")
}

func TestNegativeUnknownCode(t *testing.T) {
	s := &script{rounds: []round{{n: -77}}}
	r := &Reader{Read: s.read, Op: "T32_GetWindowContent"}

	_, err := r.ReadAll(4)
	require.Error(t, err)
	assert.Same(t, status.Generic, status.KindOf(err))
	code, _ := status.CodeOf(err)
	assert.Equal(t, int32(-77), code)
}

func TestOverlongRound(t *testing.T) {
	s := &script{rounds: []round{{n: 9}}}
	r := &Reader{Read: s.read}

	_, err := r.ReadAll(4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ClientSequenceFail))

	var se *status.Error
	require.True(t, errors.As(err, &se))
	assert.True(t, se.Local)
}

func TestMaxRounds(t *testing.T) {
	endless := func(buf []byte, offset uint32) int32 {
		return int32(copy(buf, "xxxx"))
	}
	r := &Reader{Read: endless, MaxRounds: 3}

	_, err := r.ReadAll(4)
	assert.True(t, errors.Is(err, ErrTooManyRounds))
	assert.Equal(t, 3, r.Stats().Rounds)
}

func TestCustomSentinelAndCheck(t *testing.T) {
	s := &script{rounds: []round{{data: "ab", n: 2}, {n: -9}}}
	var checked []int32
	r := &Reader{
		Read:     s.read,
		Sentinel: -9,
		Check: func(op string, code int32) error {
			checked = append(checked, code)
			return nil
		},
	}

	got, err := r.ReadAll(2)
	require.NoError(t, err)
	assert.Equal(t, "ab", string(got))
	assert.Empty(t, checked)
}

func TestDefaultChunkSize(t *testing.T) {
	var sizes []int
	r := &Reader{Read: func(buf []byte, offset uint32) int32 {
		sizes = append(sizes, len(buf))
		return -1
	}}

	_, err := r.ReadAll(0)
	require.NoError(t, err)
	assert.Equal(t, []int{DefaultChunkSize}, sizes)
}
