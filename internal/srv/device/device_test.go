package device

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jypelle/navlink/internal/srv/config"
	"github.com/jypelle/navlink/internal/srv/display"
	"github.com/jypelle/navlink/internal/srv/power"
)

func TestPower_WakeMarkerConsumedOnce(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "wake.marker")
	p := NewPower(marker, nil, true)

	if got := p.WakeCause(); got != power.WakeNone {
		t.Fatalf("WakeCause without marker = %s", got)
	}
	if err := p.EnterLowPower(power.WakeSource{Pin: "GPIO17", FallingEdge: true}); err != nil {
		t.Fatalf("EnterLowPower: %v", err)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("marker not written: %v", err)
	}
	if got := p.WakeCause(); got != power.WakeButton {
		t.Errorf("WakeCause after sleep = %s, want button", got)
	}
	if got := p.WakeCause(); got != power.WakeNone {
		t.Errorf("marker should be consumed, got %s", got)
	}
}

func TestPower_SleepCommandFailure(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "wake.marker")
	p := NewPower(marker, []string{filepath.Join(t.TempDir(), "no-such-command")}, false)
	if err := p.EnterLowPower(power.WakeSource{Pin: "GPIO17"}); err == nil {
		t.Fatal("expected an error from a missing sleep command")
	}
}

func TestClock_Restore(t *testing.T) {
	now := time.Unix(1000, 0)
	var applied uint64
	c := NewClock(true, false)
	c.set = func(epoch uint64) error {
		applied = epoch
		return nil
	}

	if c.Restore(now, 0, false) {
		t.Error("nothing to restore")
	}
	if c.Restore(time.Unix(1800000000, 0), 1700000000, true) {
		t.Error("clock already ahead must be kept")
	}
	if !c.Restore(now, 1700000000, true) || applied != 1700000000 {
		t.Errorf("checkpoint not applied, got %d", applied)
	}

	c.set = func(epoch uint64) error { return errors.New("EPERM") }
	if c.Restore(now, 1700000000, true) {
		t.Error("failed set reported as applied")
	}

	disabled := NewClock(false, false)
	disabled.set = func(epoch uint64) error {
		t.Error("disabled clock must not be set")
		return nil
	}
	disabled.Restore(now, 1700000000, true)
}

func TestNetwork_CachesLookup(t *testing.T) {
	n := NewNetwork("wlan0", false)
	calls := 0
	up := true
	n.lookup = func(name string) (bool, error) {
		calls++
		return up, nil
	}
	t0 := time.Unix(1700000000, 0)
	if !n.Connected(t0) {
		t.Fatal("interface should be up")
	}
	up = false
	if !n.Connected(t0.Add(500 * time.Millisecond)) {
		t.Error("cached value should be used within the refresh interval")
	}
	if n.Connected(t0.Add(time.Second)) {
		t.Error("refreshed value should be down")
	}
	if calls != 2 {
		t.Errorf("lookup calls = %d, want 2", calls)
	}

	if NewNetwork("", false).Connected(t0) {
		t.Error("no interface configured means not connected")
	}
}

func TestDisplay_SimulatedGrid(t *testing.T) {
	param := config.DisplayParam{Type: "grid", GridCols: 16, GridRows: 2, PixelWidth: 128, PixelHeight: 64}
	d := NewDisplay(param, true)
	variant := d.Detect()
	if variant.Kind != display.KindCharacterGrid || variant.Cols != 16 || variant.Rows != 2 {
		t.Fatalf("Detect = %s", variant)
	}

	grid := d.Grid()
	grid.WriteText(0, 0, "12:34")
	grid.WriteText(1, 14, "abcdef")
	grid.WriteText(5, 0, "ignored")
	if err := grid.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	rows := d.Rows()
	if rows[0] != "12:34           " || rows[1] != "              ab" {
		t.Errorf("rows = %q", rows)
	}
}

func TestDisplay_SimulatedVariants(t *testing.T) {
	base := config.DisplayParam{GridCols: 16, GridRows: 2, PixelWidth: 128, PixelHeight: 64}
	for typ, want := range map[string]display.Kind{
		"none":  display.KindNone,
		"auto":  display.KindPixelPanel,
		"pixel": display.KindPixelPanel,
	} {
		param := base
		param.Type = typ
		if got := NewDisplay(param, true).Detect(); got.Kind != want {
			t.Errorf("type %s: Detect = %s", typ, got)
		}
	}
}
