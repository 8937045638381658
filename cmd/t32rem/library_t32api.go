//go:build t32api && cgo

package main

import (
	"github.com/dshills/t32remote/internal/remote/native"
	"github.com/dshills/t32remote/internal/remote/native/t32api"
)

func openLibrary() (native.Native, error) {
	return t32api.New(), nil
}
