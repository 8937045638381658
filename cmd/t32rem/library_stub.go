//go:build !(t32api && cgo)

package main

import (
	"errors"

	"github.com/dshills/t32remote/internal/remote/native"
)

var errNoLibrary = errors.New("built without the TRACE32 API library (rebuild with -tags t32api, or use --sim)")

func openLibrary() (native.Native, error) {
	return nil, errNoLibrary
}
