package sensors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"time"
)

// linkSender and linkReceiver mirror miners/avalon.go's Sender/Receiver[T]
// generic transport: a JSON command goes out, a JSON (or plain string)
// response comes back, all within one dial/command/read round trip.
type linkSender func(conn net.Conn) error
type linkReceiver[T any] func(conn net.Conn) (T, error)

// CarLinkStatus is the EV charger link's status report — the fields the
// charger task needs each tick: is a car plugged in, is it actively
// drawing, and its present state of charge.
type CarLinkStatus struct {
	Connected     bool    `json:"connected"`
	Charging      bool    `json:"charging"`
	StateOfCharge float64 `json:"state_of_charge"`
	DrawKW        float64 `json:"draw_kw"`
}

// CarLink is the EV charger's network link: a small JSON-over-TCP protocol,
// grounded on miners/avalon.go's AvalonQHost — same dial-per-command shape,
// same one-line JSON command envelope, generalised from mining commands
// (ascset, litestats) to charger commands (status, start, stop, setcurrent).
type CarLink struct {
	Address string
	Port    int
}

func NewCarLink(address string, port int) *CarLink {
	return &CarLink{Address: address, Port: port}
}

func (l *CarLink) Read(ctx context.Context) (Reading, error) {
	status, err := l.Status(ctx)
	if err != nil {
		return Reading{}, err
	}
	return Reading{Timestamp: time.Now(), Value: status.DrawKW}, nil
}

func (l *CarLink) Units() string { return "kW" }

// Status fetches the charger's current status report.
func (l *CarLink) Status(ctx context.Context) (*CarLinkStatus, error) {
	return send(ctx, l.Address, l.Port,
		func(conn net.Conn) error {
			return writeLinkCommand("status", conn)
		},
		func(conn net.Conn) (*CarLinkStatus, error) {
			status := &CarLinkStatus{}
			if err := readJSONResponse(conn, status); err != nil {
				return nil, err
			}
			return status, nil
		})
}

// Start is idempotent: issuing it to an already-charging link is a no-op on
// the far end, same as AvalonQHost.WakeUp on an already-awake miner.
func (l *CarLink) Start(ctx context.Context) (string, error) {
	return send(ctx, l.Address, l.Port,
		func(conn net.Conn) error {
			_, err := fmt.Fprintf(conn, "chargerset|0,start,1: %d", time.Now().Unix())
			return err
		},
		readLinkStringResponse,
	)
}

// Stop is idempotent for the same reason Start is.
func (l *CarLink) Stop(ctx context.Context) (string, error) {
	return send(ctx, l.Address, l.Port,
		func(conn net.Conn) error {
			_, err := fmt.Fprintf(conn, "chargerset|0,stop,1: %d", time.Now().Unix())
			return err
		},
		readLinkStringResponse,
	)
}

// SetCurrentLimit throttles the charger's output current, the EV-charger
// analogue of AvalonQHost.SetWorkMode.
func (l *CarLink) SetCurrentLimit(ctx context.Context, amps float64) (string, error) {
	return send(ctx, l.Address, l.Port,
		func(conn net.Conn) error {
			_, err := fmt.Fprintf(conn, "chargerset|0,current,set,%.1f", amps)
			return err
		},
		readLinkStringResponse,
	)
}

func send[T any](ctx context.Context, address string, port int, sender linkSender, receiver linkReceiver[T]) (T, error) {
	var d net.Dialer
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	conn, err := d.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", address, port))
	if err != nil {
		var zero T
		return zero, err
	}
	defer conn.Close()

	if err := sender(conn); err != nil {
		var zero T
		return zero, err
	}

	r, err := receiver(conn)
	if err != nil {
		var zero T
		return zero, err
	}
	return r, nil
}

func writeLinkCommand(cmd string, conn net.Conn) error {
	enc := json.NewEncoder(conn)
	return enc.Encode(struct {
		Command string `json:"command"`
	}{Command: cmd})
}

func readLinkStringResponse(conn net.Conn) (string, error) {
	r, err := io.ReadAll(conn)
	if err != nil {
		return "", err
	}
	return string(r), nil
}

func readJSONResponse(conn net.Conn, response any) error {
	dec := json.NewDecoder(conn)
	return dec.Decode(response)
}
