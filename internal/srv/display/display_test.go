package display

import (
	"bytes"
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/jypelle/navlink/internal/srv/status"
)

type fakeGrid struct {
	cells   map[int]string
	flushes []string
	err     error
}

func newFakeGrid() *fakeGrid {
	return &fakeGrid{cells: make(map[int]string)}
}

func (f *fakeGrid) WriteText(row int, col int, text string) {
	f.cells[row] = strings.Repeat(" ", col) + text
}

func (f *fakeGrid) Flush() error {
	f.flushes = append(f.flushes, f.cells[0]+"|"+f.cells[1])
	return f.err
}

type fakePixel struct {
	frames [][]byte
}

func (f *fakePixel) Flush(img image.Image) error {
	rgba := img.(*image.RGBA)
	f.frames = append(f.frames, append([]byte(nil), rgba.Pix...))
	return nil
}

var gridVariant = Variant{Kind: KindCharacterGrid, Rows: 2, Cols: 16}
var pixelVariant = Variant{Kind: KindPixelPanel, Width: 128, Height: 64}

func navFrame() status.StatusFrame {
	return status.StatusFrame{
		ClockText:     "10:30",
		LinkConnected: true,
		Navigation: &status.NavigationSnapshot{
			Active:     true,
			Title:      "250m",
			Eta:        "10:45 AM",
			Duration:   "5 min",
			Distance:   "2.3 km",
			Directions: "Turn left onto Main S...",
			IconId:     2,
		},
		DirectionLines: []string{"Turn left onto Mai..."},
	}
}

func TestNew_DegradesToNone(t *testing.T) {
	tests := []struct {
		variant Variant
		grid    GridDriver
		pixel   PixelDriver
	}{
		{Variant{Kind: KindNone}, newFakeGrid(), &fakePixel{}},
		{gridVariant, nil, &fakePixel{}},
		{pixelVariant, newFakeGrid(), nil},
		{Variant{Kind: KindPixelPanel}, nil, &fakePixel{}},
	}
	for i, tt := range tests {
		backend := New(tt.variant, tt.grid, tt.pixel, Options{})
		if backend.Variant().Kind != KindNone {
			t.Errorf("case %d: expected None backend, got %v", i, backend.Variant())
		}
		backend.Render(navFrame())
	}
}

func TestCharacterGrid_IdleRows(t *testing.T) {
	g := newFakeGrid()
	backend := New(gridVariant, g, nil, Options{})

	backend.Render(status.StatusFrame{LinkConnected: true})

	if g.cells[0] != "--:--         B-" {
		t.Errorf("unexpected row 0 %q", g.cells[0])
	}
	if g.cells[1] != "Ready           " {
		t.Errorf("unexpected row 1 %q", g.cells[1])
	}
}

func TestCharacterGrid_Rows(t *testing.T) {
	grid := newCharacterGrid(gridVariant, newFakeGrid())

	tests := []struct {
		frame status.StatusFrame
		row0  string
		row1  string
	}{
		{
			status.StatusFrame{ClockText: "08:05", SecondaryConnected: true, FreeText: "hello"},
			"08:05         -W",
			"hello           ",
		},
		{
			navFrame(),
			"10:30         B-",
			"Turn left onto M",
		},
		{
			status.StatusFrame{FreeText: strings.Repeat("x", 40)},
			"--:--         --",
			strings.Repeat("x", 16),
		},
		{
			status.StatusFrame{Banner: "Sleeping"},
			"    Sleeping    ",
			"                ",
		},
	}
	for i, tt := range tests {
		rows := grid.Rows(tt.frame)
		if rows[0] != tt.row0 {
			t.Errorf("case %d: row 0 expected %q, got %q", i, tt.row0, rows[0])
		}
		if rows[1] != tt.row1 {
			t.Errorf("case %d: row 1 expected %q, got %q", i, tt.row1, rows[1])
		}
	}
}

func TestCharacterGrid_RenderIdempotent(t *testing.T) {
	g := newFakeGrid()
	backend := New(gridVariant, g, nil, Options{})

	backend.Render(navFrame())
	backend.Render(navFrame())

	if len(g.flushes) != 2 || g.flushes[0] != g.flushes[1] {
		t.Fatalf("expected identical output, got %q", g.flushes)
	}
}

func TestCharacterGrid_FlushErrorIsSwallowed(t *testing.T) {
	g := newFakeGrid()
	g.err = errors.New("i2c nack")
	backend := New(gridVariant, g, nil, Options{})
	backend.Render(navFrame())
	if len(g.flushes) != 1 {
		t.Fatalf("expected one flush attempt")
	}
}

func TestCharacterGrid_Budget(t *testing.T) {
	budget := New(gridVariant, newFakeGrid(), nil, Options{}).Budget()
	if budget.TextWidth != 16 || budget.Directions != 16 || !budget.SummaryWithDistance {
		t.Errorf("unexpected budget %+v", budget)
	}
}

func TestPixelPanel_Budget(t *testing.T) {
	budget := New(pixelVariant, nil, &fakePixel{}, Options{}).Budget()
	if budget.Directions != 21 || budget.DirectionLines != 1 || budget.Title != 7 {
		t.Errorf("unexpected budget %+v", budget)
	}
	wide := New(Variant{Kind: KindPixelPanel, Width: 256, Height: 64}, nil, &fakePixel{}, Options{WrapDirections: true}).Budget()
	if wide.Directions != 42 || wide.DirectionLines != 2 || wide.Title != 14 {
		t.Errorf("unexpected wide budget %+v", wide)
	}
}

func TestPixelPanel_RenderIdempotent(t *testing.T) {
	frames := []status.StatusFrame{
		navFrame(),
		{ClockText: "23:59", LinkConnected: true, SecondaryConnected: true, FreeText: "hi"},
		{Banner: "Sleeping"},
	}
	for i, frame := range frames {
		p := &fakePixel{}
		backend := New(pixelVariant, nil, p, Options{})
		backend.Render(frame)
		backend.Render(frame)
		if len(p.frames) != 2 {
			t.Fatalf("case %d: expected 2 flushes, got %d", i, len(p.frames))
		}
		if !bytes.Equal(p.frames[0], p.frames[1]) {
			t.Errorf("case %d: output differs between identical renders", i)
		}
	}
}

func TestPixelPanel_ViewsDiffer(t *testing.T) {
	p := &fakePixel{}
	backend := New(pixelVariant, nil, p, Options{})

	backend.Render(navFrame())
	backend.Render(status.StatusFrame{ClockText: "10:30", LinkConnected: true})

	if bytes.Equal(p.frames[0], p.frames[1]) {
		t.Fatalf("navigation and idle views should not paint the same image")
	}
}

func TestPixelPanel_EmptyAndOversizedText(t *testing.T) {
	p := &fakePixel{}
	backend := New(pixelVariant, nil, p, Options{WrapDirections: true})
	long := strings.Repeat("very long text ", 40)

	backend.Render(status.StatusFrame{Navigation: &status.NavigationSnapshot{}})
	backend.Render(status.StatusFrame{
		ClockText:      long,
		FreeText:       long,
		Navigation:     &status.NavigationSnapshot{Title: long, Eta: long, Duration: long, Distance: long, IconId: 99},
		DirectionLines: []string{long, long, long},
	})
	backend.Render(status.StatusFrame{Banner: long})
	if len(p.frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(p.frames))
	}
}
