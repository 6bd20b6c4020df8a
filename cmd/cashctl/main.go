// Command cashctl wires the driver stack to a real or emulated fiscal
// register and runs one demonstration transaction: find the device, open a
// session, register a sale, close the check. It exists to exercise the
// wiring end to end, not as a full point-of-sale front end — modeled on
// cmd/bluetooth-service/main.go's flag-and-log shape.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/loremcross/cashcontrol/pkg/catalog"
	"github.com/loremcross/cashcontrol/pkg/codec"
	"github.com/loremcross/cashcontrol/pkg/engine"
	"github.com/loremcross/cashcontrol/pkg/executor"
	"github.com/loremcross/cashcontrol/pkg/logging"
	"github.com/loremcross/cashcontrol/pkg/port"
	"github.com/loremcross/cashcontrol/pkg/redisclient"
	"github.com/loremcross/cashcontrol/pkg/session"
	"github.com/loremcross/cashcontrol/pkg/smart"
	"github.com/loremcross/cashcontrol/pkg/transport"
)

var (
	deviceFamily  = flag.String("family", "", "Serial device family filter (e.g. ttyUSB, ttyACM); empty scans all")
	forcePort     = flag.String("port", "", "Skip device discovery and open this serial path directly")
	forceBaud     = flag.Int("baud", 0, "Baud rate to use with -port; ignored during discovery")
	profileName   = flag.String("profile", "shtrih", "Device profile: shtrih or rr")
	password      = flag.String("password", "00000000", "8-digit administrator password")
	smartPath     = flag.String("smart-file", "cashctl-smart.json", "Path to the SMART timeout store; ignored if -redis-addr is set")
	redisAddr     = flag.String("redis-addr", "", "Redis server address; when set, SMART metrics persist there instead of -smart-file")
	redisPass     = flag.String("redis-pass", "", "Redis password")
	redisDB       = flag.Int("redis-db", 0, "Redis database number")
	notifyChannel = flag.String("notify-channel", "cashcontrol:events", "Redis channel for command-completion notifications; ignored if -redis-addr is not set")
	saleAmount    = flag.Float64("sale-amount", 1.0, "Amount to register in the demonstration sale")
	department    = flag.Int("department", 1, "Department code for the demonstration sale")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	logger := logging.Default()

	profile := codec.Shtrih
	if *profileName == "rr" {
		profile = codec.RR
	}

	pw, err := parsePassword(*password)
	if err != nil {
		log.Fatalf("Invalid password: %v", err)
	}

	store, redisClient, err := openStore()
	if err != nil {
		log.Fatalf("Failed to open SMART store: %v", err)
	}
	defer store.Close()

	handle := port.New(nil)

	eng := setUpEngine(handle, pw, logger)

	notify := newNotifier(redisClient)
	x := executor.New(eng, store, notify)

	findResp := eng.FindDevice(func() (string, int, error) { return connect(handle) })
	if findResp.Exception != nil {
		log.Fatalf("Failed to reach the fiscal register: %v", findResp.Exception)
	}
	log.Printf("Connected to %s at %d baud", handle.Name(), handle.Baud())

	initResp := eng.InitCashRegister(func() error { return nil })
	if initResp.Exception != nil {
		log.Fatalf("Session init failed: %v", initResp.Exception)
	}

	runDialog(x, "get_autocut_param", time.Duration(0), func() []byte {
		return codec.EncodeGetAutocutParam(profile)
	}, codec.DecodeGetAutocutParam)

	runDialog(x, "sale", time.Duration(0), func() []byte {
		return codec.EncodeSale(codec.Sale{
			Price:      *saleAmount,
			Count:      1,
			Department: byte(*department),
			Text:       "demonstration sale",
		})
	}, codec.DecodeSale)

	runDialog(x, "close_check", time.Duration(0), func() []byte {
		return codec.EncodeCloseCheck(codec.CloseCheck{Sum1: *saleAmount, Text: "thank you"})
	}, nil)

	log.Printf("Transaction complete")
}

func setUpEngine(handle *port.Handle, pw session.Password, logger *logging.Logger) *engine.Engine {
	framer := transport.New(handle, logger)
	sess := session.New(framer, pw, logger)
	return engine.New(sess)
}

func connect(handle *port.Handle) (string, int, error) {
	if *forcePort != "" {
		baud := *forceBaud
		if baud == 0 {
			baud = catalog.RATES[0]
		}
		if err := handle.Open(*forcePort, baud); err != nil {
			return "", 0, err
		}
		return *forcePort, baud, nil
	}

	name, baud, err := handle.FindDevice(*deviceFamily, catalog.RATES)
	if err != nil {
		return "", 0, err
	}
	if err := handle.Open(name, baud); err != nil {
		return "", 0, err
	}
	return name, baud, nil
}

// runDialog drives one command to completion using a fixed automatic
// policy: retry for the first four reaction requests, then give up —
// skip where the request offers it, otherwise break. A real front end would instead surface executor.ReactionRequest
// to an operator, per spec.md §4.6 — this is the unattended default.
func runDialog(x *executor.Executor, name string, timeout time.Duration, encode engine.Encoder, decode engine.Decoder) {
	d := x.Run(name, timeout, encode, decode)
	attempts := 0
	for {
		req, pending := d.Reaction()
		if !pending {
			break
		}
		attempts++
		choice := executor.ReactionBreak
		for _, c := range req.Cases {
			if c == executor.ReactionRetry && attempts < 5 {
				choice = executor.ReactionRetry
				break
			}
			if c == executor.ReactionSkip {
				choice = executor.ReactionSkip
			}
		}
		d.Resume(choice)
	}

	result := d.Result()
	if result.Exception != nil {
		log.Printf("[cashctl] %s finished with error: %v", name, result.Exception)
		return
	}
	log.Printf("[cashctl] %s finished: %v", name, result.Data)
}

// openStore returns the configured SMART store and, when Redis is in use,
// the underlying client so newNotifier can reuse its connection for
// command-completion notifications instead of opening a second one.
func openStore() (smart.Store, *redisclient.Client, error) {
	if *redisAddr != "" {
		client, err := redisclient.New(*redisAddr, *redisPass, *redisDB)
		if err != nil {
			return nil, nil, err
		}
		return smart.OpenRedisStore(client), client, nil
	}
	return smart.OpenFileStore(*smartPath), nil, nil
}

// newNotifier builds the executor's post-command hook. With a Redis client
// configured it publishes "<command>:<action>" on -notify-channel and
// records it in a last-event hash field, the WriteAndPublishString pattern
// DESIGN.md grounds this in; without Redis it just logs.
func newNotifier(client *redisclient.Client) func(command string, action engine.Action) {
	return func(command string, action engine.Action) {
		message := command + ":" + actionName(action)
		log.Printf("[cashctl] %s", message)

		if client == nil {
			return
		}
		if err := client.WriteAndPublish("cashcontrol:last_event", "message", message, *notifyChannel, message); err != nil {
			log.Printf("[cashctl] notify publish failed: %v", err)
		}
	}
}

func parsePassword(s string) (session.Password, error) {
	var pw session.Password
	if len(s) != 4 && len(s) != 8 {
		return pw, os.ErrInvalid
	}
	var digits [4]byte
	if len(s) == 8 {
		for i := 0; i < 4; i++ {
			digits[i] = (s[2*i]-'0')*10 + (s[2*i+1] - '0')
		}
	} else {
		for i := 0; i < 4; i++ {
			digits[i] = s[i] - '0'
		}
	}
	return session.Password(digits), nil
}

func actionName(a engine.Action) string {
	switch a {
	case engine.Continue:
		return "continue"
	case engine.Retry:
		return "retry"
	case engine.Break:
		return "break"
	case engine.Wait:
		return "wait"
	default:
		return "unknown"
	}
}
