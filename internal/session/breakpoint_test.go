package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/dshills/t32remote/internal/remote/native"
	"github.com/dshills/t32remote/internal/remote/native/sim"
)

func TestBreakpointManager_AddAddress(t *testing.T) {
	s, remote := newTestSession(t, sim.Options{})
	mgr := NewBreakpointManager(s)

	bp, err := mgr.AddAddress(0x1000, BreakpointProgram, "")
	if err != nil {
		t.Fatalf("AddAddress failed: %v", err)
	}
	if bp.ID != 1 {
		t.Errorf("expected ID 1, got %d", bp.ID)
	}
	if bp.Location != "0x1000" {
		t.Errorf("expected location 0x1000, got %s", bp.Location)
	}
	if !bp.Enabled || !bp.Verified {
		t.Error("expected breakpoint to be enabled and verified")
	}
	if got := remote.Breakpoints(); !slices.Equal(got, []string{"0x1000"}) {
		t.Errorf("expected target breakpoints [0x1000], got %v", got)
	}

	again, err := mgr.AddAddress(0x1000, BreakpointProgram, "")
	if err != nil {
		t.Fatalf("second AddAddress failed: %v", err)
	}
	if again != bp {
		t.Error("expected the existing breakpoint for the same location")
	}
}

func TestBreakpointManager_AddSymbol(t *testing.T) {
	s, remote := newTestSession(t, sim.Options{})
	remote.AddSymbol("main", 0x2000, 0x20)
	mgr := NewBreakpointManager(s)

	bp, err := mgr.AddSymbol("main", BreakpointWrite, "i==3")
	if err != nil {
		t.Fatalf("AddSymbol failed: %v", err)
	}
	if bp.Address != 0x2000 {
		t.Errorf("expected address 0x2000, got %#x", bp.Address)
	}
	cmds := remote.Commands()
	if last := cmds[len(cmds)-1]; last != "Break.Set main /Write /CONDition i==3" {
		t.Errorf("unexpected command %q", last)
	}

	_, err = mgr.AddSymbol("missing", BreakpointProgram, "")
	if !errors.Is(err, ErrSymbolNotFound) {
		t.Errorf("expected ErrSymbolNotFound, got %v", err)
	}
}

func TestBreakpointManager_SetFailure(t *testing.T) {
	s, remote := newTestSession(t, sim.Options{})
	mgr := NewBreakpointManager(s)
	remote.FailNext(native.OpCmd, 0x1050)

	if _, err := mgr.AddAddress(0x10, BreakpointProgram, ""); err == nil {
		t.Fatal("expected error")
	}
	if n := len(mgr.All()); n != 0 {
		t.Errorf("expected no tracked breakpoints, got %d", n)
	}
}

func TestBreakpointManager_EnableRemoveClear(t *testing.T) {
	s, remote := newTestSession(t, sim.Options{})
	mgr := NewBreakpointManager(s)

	a, _ := mgr.AddAddress(0x100, BreakpointProgram, "")
	b, _ := mgr.AddAddress(0x200, BreakpointRead, "")

	if err := mgr.SetEnabled(a.ID, false); err != nil {
		t.Fatalf("SetEnabled failed: %v", err)
	}
	if got := remote.Breakpoints(); !slices.Equal(got, []string{"0x200"}) {
		t.Errorf("expected only 0x200 enabled, got %v", got)
	}
	if err := mgr.SetEnabled(a.ID, true); err != nil {
		t.Fatalf("SetEnabled failed: %v", err)
	}

	if err := mgr.Remove(b.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, ok := mgr.Get(b.ID); ok {
		t.Error("expected breakpoint to be removed")
	}
	if err := mgr.Remove(b.ID); err == nil {
		t.Error("expected error removing unknown breakpoint")
	}

	if err := mgr.ClearAll(); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	if len(mgr.All()) != 0 || len(remote.Breakpoints()) != 0 {
		t.Error("expected no breakpoints after ClearAll")
	}
}

func TestBreakpointManager_SaveLoad(t *testing.T) {
	s, _ := newTestSession(t, sim.Options{})
	path := filepath.Join(t.TempDir(), "state", "breakpoints.json")

	mgr := NewBreakpointManager(s)
	mgr.SetPersistPath(path)
	mgr.AddAddress(0x100, BreakpointProgram, "")
	b, _ := mgr.AddAddress(0x200, BreakpointWrite, "x>1")
	mgr.SetEnabled(b.ID, false)

	if err := mgr.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	var data persistedBreakpoints
	if err := json.Unmarshal(content, &data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if data.Version != 1 || len(data.Breakpoints) != 2 {
		t.Errorf("unexpected persisted data: %+v", data)
	}

	// Restore into a fresh target.
	s2, remote2 := newTestSession(t, sim.Options{})
	mgr2 := NewBreakpointManager(s2)
	mgr2.SetPersistPath(path)
	if err := mgr2.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	all := mgr2.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 breakpoints, got %d", len(all))
	}
	if all[1].Enabled || all[1].Condition != "x>1" {
		t.Errorf("unexpected restored breakpoint: %+v", all[1])
	}
	if got := remote2.Breakpoints(); !slices.Equal(got, []string{"0x100"}) {
		t.Errorf("expected only 0x100 enabled on target, got %v", got)
	}

	c, _ := mgr2.AddAddress(0x300, BreakpointProgram, "")
	if c.ID != 3 {
		t.Errorf("expected next ID 3, got %d", c.ID)
	}
}

func TestBreakpointManager_LoadMissingFile(t *testing.T) {
	s, _ := newTestSession(t, sim.Options{})
	mgr := NewBreakpointManager(s)

	if err := mgr.Load(); err == nil {
		t.Error("expected error without persist path")
	}
	mgr.SetPersistPath(filepath.Join(t.TempDir(), "none.json"))
	if err := mgr.Load(); err != nil {
		t.Errorf("expected missing file to load nothing, got %v", err)
	}
}

func TestParseBreakpointType(t *testing.T) {
	tests := []struct {
		in      string
		want    BreakpointType
		wantErr bool
	}{
		{"", BreakpointProgram, false},
		{"Program", BreakpointProgram, false},
		{"read", BreakpointRead, false},
		{"WRITE", BreakpointWrite, false},
		{"exec", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseBreakpointType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseBreakpointType(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseBreakpointType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
