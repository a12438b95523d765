package xtcp

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// acceptOne accepts a single connection and sends everything read on it to
// the returned channel once the peer closes.
func acceptOne(t *testing.T, listener net.Listener) chan []byte {
	received := make(chan []byte, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			close(received)
			return
		}
		defer conn.Close()

		var data []byte
		buf := make([]byte, 1024)
		for {
			n, err := conn.Read(buf)
			data = append(data, buf[:n]...)
			if err != nil {
				break
			}
		}
		received <- data
	}()
	return received
}

func hostPort(t *testing.T, listener net.Listener) (string, int) {
	host, portStr, err := net.SplitHostPort(listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func TestSendUnframed(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()
	received := acceptOne(t, listener)
	host, port := hostPort(t, listener)

	payload := []byte(`{"event": "order"}`)
	n, err := NewSender().Send(context.Background(), host, port, payload, false)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, payload, <-received)
}

func TestSendFramed(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()
	received := acceptOne(t, listener)
	host, port := hostPort(t, listener)

	payload := []byte(`{"event": "order"}`)
	n, err := NewSender().Send(context.Background(), host, port, payload, true)
	require.NoError(t, err)

	// Reported count covers the payload only, not the frame wrapper
	assert.Equal(t, len(payload), n)

	frame := <-received
	require.Len(t, frame, len(payload)+3)
	assert.EqualValues(t, FrameStartByte, frame[0])
	assert.Equal(t, payload, frame[1:len(frame)-2])
	assert.EqualValues(t, FrameEndByte1, frame[len(frame)-2])
	assert.EqualValues(t, FrameEndByte2, frame[len(frame)-1])
}

func TestSendConnectFailure(t *testing.T) {
	// Grab a free port and close it again so nothing listens there
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, port := hostPort(t, listener)
	listener.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	n, err := NewSender().Send(ctx, host, port, []byte("x"), false)
	assert.Error(t, err)
	assert.Zero(t, n)
}
