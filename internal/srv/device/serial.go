package device

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goburrow/serial"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotConnected = errors.New("endpoint not connected")
	ErrTimedOut     = errors.New("endpoint open timed out")
	ErrLinkBusy     = errors.New("link input queue full")
)

const serialReadTimeout = 100 * time.Millisecond

// SerialEndpoint is one side of the bridge. A reader goroutine owns the port and pushes
// received bytes into a buffered channel that the main loop drains without blocking.
type SerialEndpoint struct {
	name     string
	address  string
	baudRate int
	// attempts bounds the open retries, 0 retries forever
	attempts      int
	retryInterval time.Duration

	writeLock sync.Mutex
	port      io.ReadWriteCloser
	stdio     bool

	connected    atomic.Bool
	lastActivity atomic.Int64
	received     chan byte

	askDone chan bool
	done    chan bool
}

// NewSerialEndpoint opens address at baudRate. An empty address uses stdin and stdout.
func NewSerialEndpoint(name string, address string, baudRate int, attempts int, retryInterval time.Duration) *SerialEndpoint {
	if retryInterval <= 0 {
		retryInterval = time.Second
	}
	return &SerialEndpoint{
		name:          name,
		address:       address,
		baudRate:      baudRate,
		attempts:      attempts,
		retryInterval: retryInterval,
		received:      make(chan byte, 4096),
		askDone:       make(chan bool, 1),
		done:          make(chan bool, 1),
	}
}

func (e *SerialEndpoint) Start() {
	logrus.Infof("Start %s device", e.name)
	go e.readLoop()
}

func (e *SerialEndpoint) Stop() {
	logrus.Infof("Stop %s device", e.name)
	e.askDone <- true
	stdio := e.isStdio()
	e.closePort()
	if !stdio {
		// a stdin read cannot be interrupted
		<-e.done
	}
}

func (e *SerialEndpoint) isStdio() bool {
	e.writeLock.Lock()
	defer e.writeLock.Unlock()
	return e.stdio
}

func (e *SerialEndpoint) stopRequested() bool {
	select {
	case <-e.askDone:
		return true
	default:
		return false
	}
}

func (e *SerialEndpoint) readLoop() {
	defer func() { e.done <- true }()

	for {
		err := e.open()
		if err != nil {
			if !errors.Is(err, errStopped) {
				logrus.Warnf("Unable to open %s: %v", e.name, err)
			}
			return
		}

		buf := make([]byte, 256)
		for {
			n, err := e.read(buf)
			for _, c := range buf[:n] {
				e.received <- c
			}
			if n > 0 {
				e.lastActivity.Store(time.Now().UnixNano())
			}
			if err != nil {
				if isTimeout(err) {
					if e.stopRequested() {
						e.closePort()
						return
					}
					continue
				}
				if err != io.EOF || !e.stdio {
					logrus.Warnf("%s read failed: %v", e.name, err)
				}
				break
			}
		}
		e.closePort()
		if e.stdio || e.stopRequested() {
			return
		}
	}
}

var errStopped = errors.New("stopped")

// open retries until the port opens, the attempts are exhausted or Stop is called.
func (e *SerialEndpoint) open() error {
	if e.address == "" {
		e.writeLock.Lock()
		e.port = stdio{}
		e.stdio = true
		e.writeLock.Unlock()
		e.connected.Store(true)
		return nil
	}

	for attempt := 1; e.attempts == 0 || attempt <= e.attempts; attempt++ {
		port, err := serial.Open(&serial.Config{
			Address:  e.address,
			BaudRate: e.baudRate,
			DataBits: 8,
			StopBits: 1,
			Parity:   "N",
			Timeout:  serialReadTimeout,
		})
		if err == nil {
			logrus.Infof("%s connected on %s", e.name, e.address)
			e.writeLock.Lock()
			e.port = port
			e.writeLock.Unlock()
			e.connected.Store(true)
			return nil
		}
		logrus.Debugf("Open %s attempt %d failed: %v", e.address, attempt, err)

		select {
		case <-e.askDone:
			return errStopped
		case <-time.After(e.retryInterval):
		}
	}
	return fmt.Errorf("%s after %d attempts: %w", e.address, e.attempts, ErrTimedOut)
}

func (e *SerialEndpoint) read(buf []byte) (int, error) {
	e.writeLock.Lock()
	port := e.port
	e.writeLock.Unlock()
	if port == nil {
		return 0, io.EOF
	}
	return port.Read(buf)
}

func (e *SerialEndpoint) closePort() {
	e.writeLock.Lock()
	defer e.writeLock.Unlock()
	if e.port != nil {
		if !e.stdio {
			e.port.Close()
		}
		e.port = nil
		if e.connected.Load() {
			logrus.Infof("%s disconnected", e.name)
		}
	}
	e.connected.Store(false)
}

func isTimeout(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}

// Drain hands every byte already received to fn and returns as soon as none is left.
func (e *SerialEndpoint) Drain(fn func(byte)) {
	for {
		select {
		case c := <-e.received:
			fn(c)
		default:
			return
		}
	}
}

// WriteLine sends line followed by a newline.
func (e *SerialEndpoint) WriteLine(line string) error {
	e.writeLock.Lock()
	defer e.writeLock.Unlock()
	if e.port == nil {
		return fmt.Errorf("%s: %w", e.name, ErrNotConnected)
	}
	_, err := io.WriteString(e.port, line+"\n")
	return err
}

func (e *SerialEndpoint) Connected() bool {
	return e.connected.Load()
}

// LastActivity is the time of the last received byte, zero if none.
func (e *SerialEndpoint) LastActivity() time.Time {
	nano := e.lastActivity.Load()
	if nano == 0 {
		return time.Time{}
	}
	return time.Unix(0, nano)
}

type stdio struct{}

func (stdio) Read(p []byte) (int, error) {
	return os.Stdin.Read(p)
}

func (stdio) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (stdio) Close() error {
	return nil
}
