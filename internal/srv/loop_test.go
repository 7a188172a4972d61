package srv

import (
	"strings"
	"testing"
	"time"

	"github.com/jypelle/navlink/internal/srv/checkpoint"
	"github.com/jypelle/navlink/internal/srv/device"
	"github.com/jypelle/navlink/internal/srv/display"
	"github.com/jypelle/navlink/internal/srv/power"
	"github.com/jypelle/navlink/internal/srv/status"
)

type fakeButton struct {
	pressed bool
}

func (b *fakeButton) Pressed() bool { return b.pressed }

type fakeEndpoint struct {
	in    []byte
	lines []string
}

func (e *fakeEndpoint) Drain(fn func(byte)) {
	in := e.in
	e.in = nil
	for _, c := range in {
		fn(c)
	}
}

func (e *fakeEndpoint) WriteLine(line string) error {
	e.lines = append(e.lines, line)
	return nil
}

type fakeLink struct {
	fakeEndpoint
	connected  bool
	navigation *status.NavigationSnapshot
	serviced   int
}

func (l *fakeLink) Connected(now time.Time) bool           { return l.connected }
func (l *fakeLink) Navigation() *status.NavigationSnapshot { return l.navigation }
func (l *fakeLink) Service(now time.Time)                  { l.serviced++ }
func (l *fakeLink) ObserveLine(line string) bool {
	nav, ok := device.ParseNavigationLine(line)
	if ok {
		l.navigation = nav
	}
	return ok
}

type fakeNetwork struct{}

func (fakeNetwork) Connected(now time.Time) bool { return true }

type fakePower struct {
	cause   power.WakeCause
	entered int
}

func (p *fakePower) WakeCause() power.WakeCause { return p.cause }

func (p *fakePower) EnterLowPower(wake power.WakeSource) error {
	p.entered++
	return nil
}

type fakeBackend struct {
	frames []status.StatusFrame
}

func (b *fakeBackend) Variant() display.Variant {
	return display.Variant{Kind: display.KindCharacterGrid, Rows: 2, Cols: 16}
}

func (b *fakeBackend) Budget() status.Budget {
	return status.Budget{TextWidth: 16, Title: 16, Eta: 5, Duration: 8, Distance: 8, Directions: 16, DirectionLines: 1, SummaryWithDistance: true}
}

func (b *fakeBackend) Render(frame status.StatusFrame) {
	b.frames = append(b.frames, frame)
}

type loopFixture struct {
	loop    *Loop
	button  *fakeButton
	console *fakeEndpoint
	link    *fakeLink
	power   *fakePower
	backend *fakeBackend
	storage *checkpoint.MemoryStorage
}

var t0 = time.Unix(1700000000, 0)

func newLoopFixture(bootGuard bool) *loopFixture {
	f := &loopFixture{
		button:  &fakeButton{},
		console: &fakeEndpoint{},
		link:    &fakeLink{connected: true},
		power:   &fakePower{cause: power.WakeButton},
		backend: &fakeBackend{},
		storage: checkpoint.NewMemoryStorage(),
	}
	f.loop = NewLoop(
		LoopConfig{
			Classifier:         power.NewClassifier(time.Second, 3*time.Second),
			Wake:               power.WakeSource{Pin: "GPIO17", FallingEdge: true},
			BootGuard:          bootGuard,
			RefreshInterval:    250 * time.Millisecond,
			CheckpointInterval: 60 * time.Second,
			EchoPrefix:         "-> ",
			PeerPrefix:         "PHONE: ",
			SleepMessage:       "Sleeping...",
		},
		LoopDevices{
			Button:  f.button,
			Console: f.console,
			Link:    f.link,
			Network: fakeNetwork{},
			Power:   f.power,
			Backend: f.backend,
			Storage: f.storage,
		})
	return f
}

func TestLoop_BootGuard(t *testing.T) {
	f := newLoopFixture(true)
	f.power.cause = power.WakeNone
	if got := f.loop.Boot(t0); got != power.Asleep {
		t.Fatalf("Boot = %s, want asleep", got)
	}
	if f.power.entered != 1 {
		t.Errorf("low power entered %d times", f.power.entered)
	}
	if got := f.loop.Tick(t0.Add(time.Second)); got != power.Asleep || f.link.serviced != 0 {
		t.Error("an asleep loop must not run")
	}
}

func TestLoop_ButtonHeldAtBootIsNotAPress(t *testing.T) {
	f := newLoopFixture(true)
	f.power.cause = power.WakeNone
	f.button.pressed = true
	if got := f.loop.Boot(t0); got != power.Active {
		t.Fatalf("Boot = %s, want active", got)
	}
	for ms := 10; ms <= 5000; ms += 10 {
		if f.loop.Tick(t0.Add(time.Duration(ms)*time.Millisecond)) != power.Active {
			t.Fatalf("held boot button slept the device at %d ms", ms)
		}
	}
}

func TestLoop_ShortPressSleeps(t *testing.T) {
	f := newLoopFixture(false)
	f.loop.Boot(t0)
	f.loop.Tick(t0.Add(10 * time.Millisecond))

	f.button.pressed = true
	f.loop.Tick(t0.Add(100 * time.Millisecond))
	f.button.pressed = false
	serviced := f.link.serviced
	if got := f.loop.Tick(t0.Add(900 * time.Millisecond)); got != power.Asleep {
		t.Fatalf("Tick = %s, want asleep", got)
	}
	if f.link.serviced != serviced {
		t.Error("link serviced after the sleep action")
	}

	last := f.backend.frames[len(f.backend.frames)-1]
	if last.Banner != "Sleeping..." {
		t.Errorf("last frame = %+v, want sleep banner", last)
	}
	if epoch, ok := checkpoint.New(f.storage).Restore(); !ok || epoch != uint64(t0.Add(900*time.Millisecond).Unix()) {
		t.Errorf("checkpoint = %d, %v", epoch, ok)
	}
	if f.power.entered != 1 {
		t.Errorf("low power entered %d times", f.power.entered)
	}
}

func TestLoop_BridgeConsoleToLink(t *testing.T) {
	f := newLoopFixture(false)
	f.loop.Boot(t0)
	f.console.in = []byte("hello\r\n\npartial")
	f.loop.Tick(t0.Add(10 * time.Millisecond))

	if len(f.link.lines) != 1 || f.link.lines[0] != "hello" {
		t.Errorf("link lines = %q", f.link.lines)
	}
	if len(f.console.lines) != 1 || f.console.lines[0] != "-> hello" {
		t.Errorf("console lines = %q", f.console.lines)
	}

	f.console.in = []byte(" line\n")
	f.loop.Tick(t0.Add(20 * time.Millisecond))
	if f.link.lines[len(f.link.lines)-1] != "partial line" {
		t.Errorf("link lines = %q", f.link.lines)
	}
}

func TestLoop_BridgeLinkToConsole(t *testing.T) {
	f := newLoopFixture(false)
	f.loop.Boot(t0)
	f.link.in = []byte("Incoming message from phone\n")
	f.loop.Tick(t0.Add(10 * time.Millisecond))

	if len(f.console.lines) != 1 || f.console.lines[0] != "PHONE: Incoming message from phone" {
		t.Fatalf("console lines = %q", f.console.lines)
	}
	if f.loop.Presentation.Message != "Incoming message from phone" {
		t.Errorf("message = %q", f.loop.Presentation.Message)
	}

	f.loop.Tick(t0.Add(300 * time.Millisecond))
	frame := f.backend.frames[len(f.backend.frames)-1]
	if frame.FreeText == "" || len([]rune(frame.FreeText)) > 16 {
		t.Errorf("free text = %q", frame.FreeText)
	}
}

func TestLoop_NavigationLine(t *testing.T) {
	f := newLoopFixture(false)
	f.loop.Boot(t0)
	f.link.in = []byte(`{"title":"Main St","distance":"2.3 km","directions":"Turn left"}` + "\n")
	f.loop.Tick(t0.Add(10 * time.Millisecond))

	if f.loop.Presentation.Message != "" {
		t.Errorf("navigation line shown as message: %q", f.loop.Presentation.Message)
	}
	f.loop.Tick(t0.Add(300 * time.Millisecond))
	frame := f.backend.frames[len(f.backend.frames)-1]
	if !frame.Navigating() {
		t.Fatal("navigation view expected")
	}
	if len(frame.DirectionLines) != 1 || !strings.HasPrefix(frame.DirectionLines[0], "2.3 km Turn") {
		t.Errorf("direction lines = %q", frame.DirectionLines)
	}
}

func TestLoop_RenderCadence(t *testing.T) {
	f := newLoopFixture(false)
	f.loop.Boot(t0)
	for ms := 10; ms <= 1000; ms += 10 {
		f.loop.Tick(t0.Add(time.Duration(ms) * time.Millisecond))
	}
	// 10, 260, 510, 760
	if len(f.backend.frames) != 4 {
		t.Errorf("rendered %d frames, want 4", len(f.backend.frames))
	}
	if f.link.serviced != 100 {
		t.Errorf("link serviced %d times, want 100", f.link.serviced)
	}
}

func TestLoop_CheckpointCadence(t *testing.T) {
	f := newLoopFixture(false)
	f.loop.Boot(t0)
	f.loop.Tick(t0.Add(59 * time.Second))
	if _, ok := checkpoint.New(f.storage).Restore(); ok {
		t.Fatal("checkpoint saved before its interval")
	}
	f.loop.Tick(t0.Add(60 * time.Second))
	if epoch, ok := checkpoint.New(f.storage).Restore(); !ok || epoch != uint64(t0.Unix()+60) {
		t.Errorf("checkpoint = %d, %v", epoch, ok)
	}
}
