package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jypelle/navlink/internal/srv/checkpoint"
)

func TestParseServerParam_Defaults(t *testing.T) {
	sp, err := ParseServerParam(nil)
	if err != nil {
		t.Fatalf("ParseServerParam: %v", err)
	}
	if sp.Display.Type != "auto" {
		t.Errorf("display.type = %q, want auto", sp.Display.Type)
	}
	if got := sp.Display.GridAddresses; len(got) != 2 || got[0] != 0x27 || got[1] != 0x3f {
		t.Errorf("grid addresses = %#v", got)
	}
	if got := sp.Display.PixelAddresses; len(got) != 2 || got[0] != 0x3c || got[1] != 0x3d {
		t.Errorf("pixel addresses = %#v", got)
	}
	if sp.Button.ShortPress != time.Second || sp.Button.LongPress != 3*time.Second {
		t.Errorf("button thresholds = %s/%s", sp.Button.ShortPress, sp.Button.LongPress)
	}
	if sp.Presenter.NavHold != 10*time.Second || sp.Presenter.ScrollStep != 300*time.Millisecond || sp.Presenter.ScrollWindow != 8*time.Second {
		t.Errorf("presenter = %+v", sp.Presenter)
	}
	if sp.Link.StatusInterval != 5*time.Second {
		t.Errorf("status interval = %s", sp.Link.StatusInterval)
	}
	if sp.Console.EchoPrefix != "-> " || sp.Console.PeerPrefix != "PHONE: " {
		t.Errorf("console prefixes = %q %q", sp.Console.EchoPrefix, sp.Console.PeerPrefix)
	}
	if sp.Loop.Tick != 10*time.Millisecond {
		t.Errorf("loop tick = %s", sp.Loop.Tick)
	}
}

func TestParseServerParam_Overlay(t *testing.T) {
	sp, err := ParseServerParam([]byte("display:\n  type: grid\n  grid_cols: 20\nbridge:\n  overflow: drop\n  max_line_length: 128\n"))
	if err != nil {
		t.Fatalf("ParseServerParam: %v", err)
	}
	if sp.Display.Type != "grid" || sp.Display.GridCols != 20 {
		t.Errorf("display = %+v", sp.Display)
	}
	if sp.Display.GridRows != 2 {
		t.Errorf("untouched key lost its default: grid_rows = %d", sp.Display.GridRows)
	}
	if sp.Bridge.Overflow != "drop" || sp.Bridge.MaxLineLength != 128 {
		t.Errorf("bridge = %+v", sp.Bridge)
	}
}

func TestParseServerParam_Invalid(t *testing.T) {
	for _, raw := range []string{
		"display:\n  type: crt\n",
		"button:\n  short_press: 3s\n  long_press: 1s\n",
		"bridge:\n  overflow: wrap\n",
		"bridge:\n  max_line_length: -1\n",
		"checkpoint:\n  backend: cloud\n",
		"loop:\n  tick: 0s\n",
		"display: [\n",
	} {
		if _, err := ParseServerParam([]byte(raw)); err == nil {
			t.Errorf("ParseServerParam(%q): expected error", raw)
		}
	}
}

func TestNewServerConfig_CreatesDefaultParamFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "navlink")
	sc := NewServerConfig(dir, false, true)
	if _, err := os.Stat(sc.GetCompleteParamFilename()); err != nil {
		t.Fatalf("param file not written: %v", err)
	}
	reloaded := NewServerConfig(dir, false, true)
	if reloaded.Display.RefreshInterval != sc.Display.RefreshInterval {
		t.Errorf("reloaded refresh interval = %s, want %s", reloaded.Display.RefreshInterval, sc.Display.RefreshInterval)
	}
	if got := sc.GetCompleteWakeMarkerFilename(); got != filepath.Join(dir, "wake.marker") {
		t.Errorf("wake marker = %q", got)
	}
}

func TestServerState_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	ss, err := NewServerState(path)
	if err != nil {
		t.Fatalf("NewServerState: %v", err)
	}
	if _, err := ss.Get(checkpoint.Key); !errors.Is(err, checkpoint.ErrNotFound) {
		t.Fatalf("Get on empty state: err = %v, want ErrNotFound", err)
	}
	if err := ss.Put(checkpoint.Key, []byte("1700000000")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	reopened, err := NewServerState(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.Get(checkpoint.Key)
	if err != nil || string(got) != "1700000000" {
		t.Fatalf("Get after reopen = %q, %v", got, err)
	}

	store := checkpoint.New(reopened)
	if epoch, ok := store.Restore(); !ok || epoch != 1700000000 {
		t.Errorf("Restore = %d, %v", epoch, ok)
	}
}

func TestServerState_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	if err := os.WriteFile(path, []byte("- not\n- a map\n"), 0660); err != nil {
		t.Fatal(err)
	}
	if _, err := NewServerState(path); err == nil {
		t.Fatal("expected error for corrupt state file")
	}
}

func TestServerState_PutFailureKeepsPreviousValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing", "state.yaml")
	ss, err := NewServerState(path)
	if err != nil {
		t.Fatalf("NewServerState: %v", err)
	}
	if err := ss.Put("k", []byte("v")); err == nil {
		t.Fatal("expected Put to fail in a missing folder")
	}
	if _, err := ss.Get("k"); !errors.Is(err, checkpoint.ErrNotFound) {
		t.Errorf("failed Put left a value behind: %v", err)
	}
}
