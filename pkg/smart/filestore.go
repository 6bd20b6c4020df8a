package smart

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// fileSnapshot is the on-disk shape: device params plus per-command
// [timeoutSeconds, needsCalibration] pairs, matching spec.md §6's
// "{device:{...}, commands:{<name>:[timeout,needs_calibration]}}" format.
type fileSnapshot struct {
	Device   fileDevice             `json:"device"`
	Commands map[string][2]float64 `json:"commands"`
}

type fileDevice struct {
	Port       string `json:"port"`
	Rate       int    `json:"rate"`
	Type       string `json:"type"`
	CheckWidth int    `json:"check_width"`
}

// FileStore is a JSON-file-backed Store. Reads hit an in-memory cache
// without locking; writes take mu and flush the whole file, matching the
// "writes are serialized by a mutex; reads are lock-free against the
// in-memory cache" invariant.
type FileStore struct {
	mu   sync.Mutex
	path string

	device   DeviceParams
	commands map[string]CommandMetric
}

// OpenFileStore loads path if it exists and parses cleanly; a missing or
// corrupt file yields an empty store rather than failing.
func OpenFileStore(path string) *FileStore {
	fs := &FileStore{path: path, commands: map[string]CommandMetric{}}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fs
	}

	var snap fileSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fs
	}

	fs.device = DeviceParams{
		Port:       snap.Device.Port,
		Rate:       snap.Device.Rate,
		Type:       snap.Device.Type,
		CheckWidth: snap.Device.CheckWidth,
	}
	fs.commands = make(map[string]CommandMetric, len(snap.Commands))
	for name, pair := range snap.Commands {
		fs.commands[name] = CommandMetric{
			Timeout:          time.Duration(pair[0] * float64(time.Second)),
			NeedsCalibration: pair[1] != 0,
		}
	}
	return fs
}

// Device returns the cached device params.
func (fs *FileStore) Device() DeviceParams { return fs.device }

// Commands returns the cached per-command metrics.
func (fs *FileStore) Commands() map[string]CommandMetric { return fs.commands }

// Save replaces the cache and flushes it to disk under the write mutex.
func (fs *FileStore) Save(device DeviceParams, commands map[string]CommandMetric) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.device = device
	fs.commands = commands

	snap := fileSnapshot{
		Device: fileDevice{
			Port:       device.Port,
			Rate:       device.Rate,
			Type:       device.Type,
			CheckWidth: device.CheckWidth,
		},
		Commands: make(map[string][2]float64, len(commands)),
	}
	for name, m := range commands {
		calibration := 0.0
		if m.NeedsCalibration {
			calibration = 1
		}
		snap.Commands[name] = [2]float64{m.Timeout.Seconds(), calibration}
	}

	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(fs.path, raw, 0o644)
}

// Close flushes nothing extra — Save already writes through — and exists
// to satisfy Store's lifecycle contract.
func (fs *FileStore) Close() error { return nil }
