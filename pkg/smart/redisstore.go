package smart

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/loremcross/cashcontrol/pkg/redisclient"
)

// Redis key/field layout for the two top-level SMART store mappings.
const (
	deviceKey   = "smart:device"
	commandsKey = "smart:commands"
)

// RedisStore is a Store backed by two Redis hashes, built on pkg/redisclient
// (itself adapted from the teacher's pkg/redis/client.go). Each command's
// metric is packed as "<timeoutSeconds>:<needsCalibration>" in one hash
// field, mirroring the teacher's "field:value" string convention rather
// than one Redis key per command.
type RedisStore struct {
	mu     sync.Mutex
	client *redisclient.Client

	device   DeviceParams
	commands map[string]CommandMetric
}

// OpenRedisStore connects via client and loads any existing snapshot; a
// connection that has no prior data yields an empty store.
func OpenRedisStore(client *redisclient.Client) *RedisStore {
	rs := &RedisStore{client: client, commands: map[string]CommandMetric{}}

	if fields, err := client.HGetAll(deviceKey); err == nil {
		rs.device = DeviceParams{
			Port: fields["port"],
			Type: fields["type"],
		}
		if rate, err := strconv.Atoi(fields["rate"]); err == nil {
			rs.device.Rate = rate
		}
		if width, err := strconv.Atoi(fields["check_width"]); err == nil {
			rs.device.CheckWidth = width
		}
	}

	if fields, err := client.HGetAll(commandsKey); err == nil {
		for name, packed := range fields {
			if m, ok := parseCommandMetric(packed); ok {
				rs.commands[name] = m
			}
		}
	}

	return rs
}

func parseCommandMetric(packed string) (CommandMetric, bool) {
	parts := strings.SplitN(packed, ":", 2)
	if len(parts) != 2 {
		return CommandMetric{}, false
	}
	seconds, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return CommandMetric{}, false
	}
	return CommandMetric{
		Timeout:          time.Duration(seconds * float64(time.Second)),
		NeedsCalibration: parts[1] == "1",
	}, true
}

func formatCommandMetric(m CommandMetric) string {
	calibration := "0"
	if m.NeedsCalibration {
		calibration = "1"
	}
	return strconv.FormatFloat(m.Timeout.Seconds(), 'f', -1, 64) + ":" + calibration
}

// Device returns the cached device params.
func (rs *RedisStore) Device() DeviceParams { return rs.device }

// Commands returns the cached per-command metrics.
func (rs *RedisStore) Commands() map[string]CommandMetric { return rs.commands }

// Save writes both hashes under the write mutex (see redisclient.HSetAll:
// fields not in the new maps are not removed).
func (rs *RedisStore) Save(device DeviceParams, commands map[string]CommandMetric) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.device = device
	rs.commands = commands

	if err := rs.client.HSetAll(deviceKey, map[string]string{
		"port":        device.Port,
		"rate":        strconv.Itoa(device.Rate),
		"type":        device.Type,
		"check_width": strconv.Itoa(device.CheckWidth),
	}); err != nil {
		return err
	}

	packed := make(map[string]string, len(commands))
	for name, m := range commands {
		packed[name] = formatCommandMetric(m)
	}
	return rs.client.HSetAll(commandsKey, packed)
}

// Close releases the underlying Redis connection.
func (rs *RedisStore) Close() error { return rs.client.Close() }
