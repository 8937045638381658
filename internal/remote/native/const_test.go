package native

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDevice(t *testing.T) {
	tests := []struct {
		label string
		want  DeviceType
	}{
		{"os", 0},
		{"Operating System", 0},
		{"ICE", 1},
		{"icd", 1},
		{"In-Circuit Emulator", 1},
		{" in-circuit debugger ", 1},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := ParseDevice(tt.label)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseDevice("jtag")
	assert.True(t, errors.Is(err, ErrUnknownDevice))
}

func TestDeviceAliases(t *testing.T) {
	assert.Equal(t, DeviceICE, DeviceICD)
	assert.Equal(t, int32(1), int32(DeviceICE))
	assert.Equal(t, "In-Circuit Debugger", DeviceICE.String())
	assert.Equal(t, "Operating System", DeviceOS.String())
}

func TestParseWindowFormat(t *testing.T) {
	for i, name := range []string{"asc", "asce", "ascp", "csv", "XML"} {
		f, err := ParseWindowFormat(name)
		require.NoError(t, err)
		assert.Equal(t, WindowFormat(i), f)
	}

	assert.Equal(t, "csv", FormatCSV.String())

	_, err := ParseWindowFormat("html")
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}
