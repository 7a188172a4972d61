// Package bridge relays line framed traffic between the local console and the remote link.
package bridge

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

type Endpoint int

const (
	Local Endpoint = iota
	Remote
)

func (e Endpoint) Peer() Endpoint {
	if e == Local {
		return Remote
	}
	return Local
}

func (e Endpoint) String() string {
	switch e {
	case Local:
		return "local"
	case Remote:
		return "remote"
	default:
		return fmt.Sprintf("endpoint(%d)", int(e))
	}
}

// Overflow selects what happens once a line buffer reaches MaxLineLength.
type Overflow int

const (
	Unbounded Overflow = iota
	TruncateOldest
	Drop
)

// ParseOverflow accepts the names used in param.yaml.
func ParseOverflow(name string) (Overflow, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "unbounded":
		return Unbounded, nil
	case "truncate-oldest":
		return TruncateOldest, nil
	case "drop":
		return Drop, nil
	default:
		return Unbounded, fmt.Errorf("unknown overflow policy %q", name)
	}
}

type Config struct {
	MaxLineLength int
	Overflow      Overflow
}

// LineSink receives completed lines destined to one endpoint.
type LineSink interface {
	WriteLine(line string) error
}

// Observer is notified once per relayed line, after the peer write.
type Observer interface {
	ObserveLine(from Endpoint, line string)
}

type Bridge struct {
	config   Config
	buffers  [2][]byte
	sinks    [2]LineSink
	observer Observer
}

func New(config Config, local LineSink, remote LineSink, observer Observer) *Bridge {
	return &Bridge{
		config:   config,
		sinks:    [2]LineSink{local, remote},
		observer: observer,
	}
}

// Feed consumes one byte coming from the given endpoint.
func (b *Bridge) Feed(from Endpoint, c byte) {
	switch c {
	case '\r':
		return
	case '\n':
		b.flush(from)
	default:
		b.append(from, c)
	}
}

// Pending returns the number of buffered bytes not yet terminated for an endpoint.
func (b *Bridge) Pending(from Endpoint) int {
	return len(b.buffers[from])
}

func (b *Bridge) append(from Endpoint, c byte) {
	buf := b.buffers[from]
	if b.config.Overflow != Unbounded && b.config.MaxLineLength > 0 && len(buf) >= b.config.MaxLineLength {
		if b.config.Overflow == Drop {
			return
		}
		copy(buf, buf[1:])
		buf = buf[:len(buf)-1]
	}
	b.buffers[from] = append(buf, c)
}

func (b *Bridge) flush(from Endpoint) {
	if len(b.buffers[from]) == 0 {
		return
	}
	line := string(b.buffers[from])
	b.buffers[from] = b.buffers[from][:0]

	peer := from.Peer()
	if sink := b.sinks[peer]; sink != nil {
		if err := sink.WriteLine(line); err != nil {
			logrus.Warnf("Unable to relay %s line to %s: %v", from, peer, err)
		}
	}
	if b.observer != nil {
		b.observer.ObserveLine(from, line)
	}
}
