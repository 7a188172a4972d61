package device

import (
	"errors"
	"testing"
	"time"

	"github.com/jypelle/navlink/internal/srv/config"
)

func TestParseNavigationLine(t *testing.T) {
	tests := []struct {
		line  string
		ok    bool
		title string
		icon  int
	}{
		{`{"title":"Main St","distance":"200 m","icon":2}`, true, "Main St", 2},
		{`  {"active":false}  `, true, "", 0},
		{`{"foo":"bar"}`, false, "", 0},
		{`{"title":`, false, "", 0},
		{`hello phone`, false, "", 0},
		{``, false, "", 0},
	}
	for _, tt := range tests {
		nav, ok := ParseNavigationLine(tt.line)
		if ok != tt.ok {
			t.Errorf("ParseNavigationLine(%q) ok = %v, want %v", tt.line, ok, tt.ok)
			continue
		}
		if ok && (nav.Title != tt.title || nav.IconId != tt.icon) {
			t.Errorf("ParseNavigationLine(%q) = %+v", tt.line, *nav)
		}
	}
}

func newApiLink() *Link {
	return NewLink(config.LinkParam{
		Timeout:        15 * time.Second,
		StatusInterval: 5 * time.Second,
		StatusMessage:  "READY",
	})
}

func TestLink_ConnectedFollowsApiActivity(t *testing.T) {
	link := newApiLink()
	t0 := time.Unix(1700000000, 0)
	if link.Connected(t0) {
		t.Fatal("link connected before any activity")
	}
	link.Touch(t0)
	if !link.Connected(t0.Add(14 * time.Second)) {
		t.Error("link should still be connected within the timeout")
	}
	if link.Connected(t0.Add(15 * time.Second)) {
		t.Error("link should time out")
	}
}

func TestLink_StatusAnnouncement(t *testing.T) {
	link := newApiLink()
	t0 := time.Unix(1700000000, 0)
	link.Touch(t0)

	link.Service(t0)
	link.Service(t0.Add(time.Second))
	link.Service(t0.Add(5 * time.Second))

	got := link.TakeOutbox()
	if len(got) != 2 || got[0] != "READY" || got[1] != "READY" {
		t.Fatalf("outbox = %q, want two announcements", got)
	}
	if len(link.TakeOutbox()) != 0 {
		t.Error("TakeOutbox should clear the outbox")
	}
}

func TestLink_WriteLineWithoutPeer(t *testing.T) {
	link := newApiLink()
	if err := link.WriteLine("x"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("WriteLine err = %v, want ErrNotConnected", err)
	}
}

func TestLink_OutboxKeepsNewest(t *testing.T) {
	link := newApiLink()
	link.Touch(time.Unix(1700000000, 0))
	for i := 0; i < outboxSize+5; i++ {
		link.WriteLine(string(rune('a' + i%26)))
	}
	got := link.TakeOutbox()
	if len(got) != outboxSize {
		t.Fatalf("outbox len = %d, want %d", len(got), outboxSize)
	}
	if got[0] != string(rune('a'+5)) {
		t.Errorf("oldest kept line = %q", got[0])
	}
}

func TestLink_InjectAndObserve(t *testing.T) {
	link := newApiLink()
	if err := link.Inject(`{"title":"Exit 4"}`); err != nil {
		t.Fatalf("Inject: %v", err)
	}
	var got []byte
	link.Drain(func(c byte) { got = append(got, c) })
	if string(got) != "{\"title\":\"Exit 4\"}\n" {
		t.Fatalf("drained %q", got)
	}

	link.ObserveLine(string(got[:len(got)-1]))
	nav := link.Navigation()
	if nav == nil || nav.Title != "Exit 4" {
		t.Fatalf("Navigation = %+v", nav)
	}
	nav.Title = "changed"
	if link.Navigation().Title != "Exit 4" {
		t.Error("Navigation should return a copy")
	}

	link.ObserveLine("not json")
	if link.Navigation() == nil {
		t.Error("a plain line must not clear the navigation")
	}
}
