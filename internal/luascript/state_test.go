package luascript

import (
	"context"
	"errors"
	"testing"
	"time"

	lua "github.com/yuin/gopher-lua"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantErr bool
	}{
		{"empty", "", false},
		{"return", "return 1 + 2", false},
		{"call", "t32.cmd('Go')", false},
		{"unterminated", "if x then", true},
		{"bad token", "return @", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.name, tt.source)
			if tt.wantErr {
				if !errors.Is(err, ErrSyntax) {
					t.Fatalf("Check() = %v, want ErrSyntax", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Check() unexpected error: %v", err)
			}
		})
	}
}

func TestDoStringResult(t *testing.T) {
	s := NewState()
	defer s.Close()

	got, err := s.DoString(context.Background(), "return 6 * 7")
	if err != nil {
		t.Fatalf("DoString() error: %v", err)
	}
	if got != "42" {
		t.Errorf("DoString() = %q, want %q", got, "42")
	}

	got, err = s.DoString(context.Background(), "local x = 1")
	if err != nil {
		t.Fatalf("DoString() error: %v", err)
	}
	if got != "" {
		t.Errorf("DoString() = %q, want empty", got)
	}
}

func TestModule(t *testing.T) {
	s := NewState()
	defer s.Close()

	var seen string
	s.Module("t32", map[string]lua.LGFunction{
		"cmd": func(L *lua.LState) int {
			seen = L.CheckString(1)
			return 0
		},
	})

	if _, err := s.DoString(context.Background(), "t32.cmd('Break')"); err != nil {
		t.Fatalf("DoString() error: %v", err)
	}
	if seen != "Break" {
		t.Errorf("cmd received %q, want %q", seen, "Break")
	}
}

func TestSandboxRemovesLoaders(t *testing.T) {
	s := NewState()
	defer s.Close()

	for _, code := range []string{"dofile('x.lua')", "load('return 1')", "os.exit(1)", "io.open('x')"} {
		if _, err := s.DoString(context.Background(), code); err == nil {
			t.Errorf("DoString(%q) succeeded, want error", code)
		}
	}
}

func TestDoStringTimeout(t *testing.T) {
	s := NewState(WithTimeout(50 * time.Millisecond))
	defer s.Close()

	_, err := s.DoString(context.Background(), "while true do end")
	if err == nil {
		t.Fatal("DoString() expected timeout error")
	}
}

func TestClosedState(t *testing.T) {
	s := NewState()
	s.Close()
	s.Close()

	if _, err := s.DoString(context.Background(), "return 1"); !errors.Is(err, ErrStateClosed) {
		t.Errorf("DoString() after Close = %v, want ErrStateClosed", err)
	}
}
