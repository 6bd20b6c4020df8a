// Package port manages the OS serial handle the wire framer talks through:
// opening and reopening it with the fixed 8N1-no-parity configuration the
// vendor protocol requires, and scanning candidate device paths and baud
// rates until one answers the ENQ/NAK handshake. The config literal shape
// mirrors the teacher's usock.New (pkg/usock/usock.go).
package port

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/tarm/serial"

	"github.com/loremcross/cashcontrol/pkg/catalog"
	"github.com/loremcross/cashcontrol/pkg/ferrors"
	"github.com/loremcross/cashcontrol/pkg/transport"
)

// Opener abstracts serial.OpenPort so tests can substitute a fake without a
// real device present.
type Opener func(cfg *serial.Config) (transport.Port, error)

func defaultOpener(cfg *serial.Config) (transport.Port, error) {
	p, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Handle owns one open serial connection and can close and reopen it
// against a different name/baud without the caller tearing down the
// session above it.
type Handle struct {
	mu   sync.Mutex
	open Opener

	name        string
	baud        int
	readTimeout time.Duration

	conn transport.Port
}

// New returns a Handle with no connection open yet. opener is usually nil,
// which selects the real github.com/tarm/serial backend; tests pass a fake.
func New(opener Opener) *Handle {
	if opener == nil {
		opener = defaultOpener
	}
	return &Handle{open: opener, readTimeout: catalog.DefTimeout}
}

// SetReadTimeout changes the per-byte read deadline used on the next Open.
func (h *Handle) SetReadTimeout(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readTimeout = d
}

// Open closes any existing connection and opens name at baud, 8 data bits,
// no parity, one stop bit — the fixed framing the vendor protocol requires.
func (h *Handle) Open(name string, baud int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.openLocked(name, baud)
}

func (h *Handle) openLocked(name string, baud int) error {
	if h.conn != nil {
		closeQuietly(h.conn)
		h.conn = nil
	}

	cfg := &serial.Config{
		Name:        name,
		Baud:        baud,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: h.readTimeout,
	}
	conn, err := h.open(cfg)
	if err != nil {
		return ferrors.NewConnectionError(ferrors.ErrOpeningPort)
	}
	h.conn = conn
	h.name = name
	h.baud = baud
	return nil
}

// Close releases the underlying handle, if any.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conn == nil {
		return nil
	}
	err := closeQuietly(h.conn)
	h.conn = nil
	return err
}

func closeQuietly(c transport.Port) error {
	if closer, ok := c.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// Read implements transport.Port by delegating to the open connection.
func (h *Handle) Read(b []byte) (int, error) {
	h.mu.Lock()
	conn := h.conn
	h.mu.Unlock()
	if conn == nil {
		return 0, ferrors.NewConnectionError(ferrors.ErrLostDevice)
	}
	return conn.Read(b)
}

// Write implements transport.Port by delegating to the open connection.
func (h *Handle) Write(b []byte) (int, error) {
	h.mu.Lock()
	conn := h.conn
	h.mu.Unlock()
	if conn == nil {
		return 0, ferrors.NewConnectionError(ferrors.ErrLostDevice)
	}
	return conn.Write(b)
}

// Name and Baud report the currently open path and rate.
func (h *Handle) Name() string { h.mu.Lock(); defer h.mu.Unlock(); return h.name }
func (h *Handle) Baud() int    { h.mu.Lock(); defer h.mu.Unlock(); return h.baud }

// candidatePaths enumerates device paths to try, optionally filtered by a
// family substring (e.g. "ttyUSB" to skip ttyS* dumb UARTs).
func candidatePaths(family string) []string {
	if runtime.GOOS == "windows" {
		paths := make([]string, 0, 256)
		for i := 1; i <= 256; i++ {
			paths = append(paths, fmt.Sprintf("COM%d", i))
		}
		return paths
	}

	bases := []string{"ttyUSB", "ttyACM", "ttyS"}
	paths := make([]string, 0, 256)
	for _, base := range bases {
		if family != "" && !strings.Contains(base, family) {
			continue
		}
		for i := 0; i < 32; i++ {
			paths = append(paths, fmt.Sprintf("/dev/%s%d", base, i))
		}
	}
	return paths
}

// FindDevice scans candidatePaths(family) crossed with rates (catalog.RATES
// if rates is empty) and returns the first name/baud pair whose ENQ probe
// answers NAK (ready) or ACK (reply pending, both mean "a device is there").
// It leaves the handle open on the winning pair; callers that only want to
// discover without committing should Close it themselves.
func (h *Handle) FindDevice(family string, rates []int) (string, int, error) {
	if len(rates) == 0 {
		rates = catalog.RATES
	}

	for _, name := range candidatePaths(family) {
		for _, baud := range rates {
			h.mu.Lock()
			err := h.openLocked(name, baud)
			h.mu.Unlock()
			if err != nil {
				continue
			}

			f := transport.New(h, nil)
			state := f.CheckState()
			if state == transport.Ready || state == transport.ReplyPending {
				if state == transport.ReplyPending {
					f.Drain()
				}
				return name, baud, nil
			}
		}
	}

	h.Close()
	return "", 0, ferrors.NewConnectionError(ferrors.ErrLostDevice)
}
