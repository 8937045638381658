package sim

import (
	"bytes"

	"github.com/lunixbochs/struc"
)

const descriptorMagic = 0x54333243 // "T32C"

// descriptor is the simulated channel structure handed out by
// GetChannelDefaults. Callers treat it as opaque bytes.
type descriptor struct {
	Magic    uint32   `struc:"uint32,little"`
	Node     [64]byte `struc:"[64]byte"`
	Port     uint16   `struc:"uint16,little"`
	PackLen  uint16   `struc:"uint16,little"`
	Timeout  uint32   `struc:"uint32,little"`
	HostPort uint16   `struc:"uint16,little"`
	Reserved [26]byte `struc:"[26]byte"`
}

// ChannelInfo is the decoded state of a channel descriptor.
type ChannelInfo struct {
	Node     string
	Port     uint16
	PackLen  uint16
	Timeout  uint32
	HostPort uint16
}

func defaultDescriptor() *descriptor {
	d := &descriptor{Magic: descriptorMagic, Port: 20000, PackLen: 1024, Timeout: 5}
	copy(d.Node[:], "localhost")
	return d
}

func descriptorSize() int {
	n, err := struc.Sizeof(&descriptor{})
	if err != nil {
		panic(err)
	}
	return n
}

func (d *descriptor) pack(dst []byte) error {
	var buf bytes.Buffer
	if err := struc.Pack(&buf, d); err != nil {
		return err
	}
	copy(dst, buf.Bytes())
	return nil
}

func unpackDescriptor(src []byte) (*descriptor, error) {
	d := &descriptor{}
	if err := struc.Unpack(bytes.NewReader(src), d); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *descriptor) info() ChannelInfo {
	return ChannelInfo{
		Node:     cstr(d.Node[:]),
		Port:     d.Port,
		PackLen:  d.PackLen,
		Timeout:  d.Timeout,
		HostPort: d.HostPort,
	}
}
