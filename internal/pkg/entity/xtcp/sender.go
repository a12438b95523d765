// Package xtcp provides the built-in TCP transport client used by the
// dispatcher for TCP destinations, with optional start/end byte framing.
package xtcp

import (
	"context"
	"net"
	"strconv"
)

// Framing byte convention for destinations with UseFraming set: the payload
// is wrapped in a start byte and a two-byte trailer (MLLP-style).
const (
	FrameStartByte = 0x0B
	FrameEndByte1  = 0x1C
	FrameEndByte2  = 0x0D
)

type Sender struct {
	dialer net.Dialer
}

func NewSender() *Sender {
	return &Sender{}
}

// Send writes one payload to host:port and returns the number of payload
// bytes written (framing bytes excluded). The connection attempt and the
// write are both bounded by the caller's context deadline.
func (s *Sender) Send(ctx context.Context, host string, port int, payload []byte, useFraming bool) (int, error) {

	conn, err := s.dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err = conn.SetDeadline(deadline); err != nil {
			return 0, err
		}
	}

	frame := payload
	if useFraming {
		frame = make([]byte, 0, len(payload)+3)
		frame = append(frame, FrameStartByte)
		frame = append(frame, payload...)
		frame = append(frame, FrameEndByte1, FrameEndByte2)
	}

	n, err := conn.Write(frame)
	if err != nil {
		return 0, err
	}

	if useFraming {
		// Report payload bytes only, not the wrapper
		n -= 1
		if n > len(payload) {
			n = len(payload)
		}
		if n < 0 {
			n = 0
		}
	}
	return n, nil
}
