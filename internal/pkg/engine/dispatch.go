package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/canal-io/canal/entity"
)

// Dispatcher sends a message to one destination config. It never mutates
// shared state and never returns errors or panics to its caller; all failures
// (network, protocol, timeout) are captured as failed DispatchResults.
type Dispatcher struct {
	http    entity.HTTPSender
	tcp     entity.TCPSender
	timeout time.Duration
}

func NewDispatcher(config Config) *Dispatcher {
	return &Dispatcher{
		http:    config.HTTPSender,
		tcp:     config.TCPSender,
		timeout: config.dispatchTimeout(),
	}
}

// Dispatch performs exactly one send attempt to one destination. No retries
// at this layer. The attempt is bounded by the configured per-destination
// timeout.
func (d *Dispatcher) Dispatch(ctx context.Context, index int, config entity.DestinationConfig, message []byte) (result entity.DispatchResult) {

	result.Destination = index

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.Error = fmt.Sprintf("panic during dispatch: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	switch config := config.(type) {
	case entity.HTTPDestination:
		return d.dispatchHTTP(ctx, index, config, message)
	case entity.TCPDestination:
		return d.dispatchTCP(ctx, index, config, message)
	default:
		result.Error = fmt.Sprintf("%v: destination type %T", entity.ErrUnsupportedVariant, config)
		return result
	}
}

func (d *Dispatcher) dispatchHTTP(ctx context.Context, index int, config entity.HTTPDestination, message []byte) entity.DispatchResult {

	result := entity.DispatchResult{Destination: index}

	if d.http == nil {
		result.Error = "no HTTP sender registered"
		return result
	}

	response, err := d.http.Send(ctx, config.Method, config.Url, config.Headers, message)
	if err != nil {
		result.Error = fmt.Sprintf("http send to '%s' failed: %v", config.Url, err)
		return result
	}

	result.ResponseCode = response.StatusCode
	if response.StatusCode >= 400 {
		result.Error = fmt.Sprintf("http destination '%s' returned status %d", config.Url, response.StatusCode)
		return result
	}

	result.Success = true
	return result
}

func (d *Dispatcher) dispatchTCP(ctx context.Context, index int, config entity.TCPDestination, message []byte) entity.DispatchResult {

	result := entity.DispatchResult{Destination: index}

	if d.tcp == nil {
		result.Error = "no TCP sender registered"
		return result
	}

	bytesSent, err := d.tcp.Send(ctx, config.Host, config.Port, message, config.UseFraming)
	if err != nil {
		result.Error = fmt.Sprintf("tcp send to %s:%d failed: %v", config.Host, config.Port, err)
		return result
	}

	result.BytesSent = bytesSent
	result.Success = true
	return result
}

// DispatchAll fans the message out to every destination concurrently and
// waits for all of them to resolve. The returned slice always contains
// exactly one result per destination, in destination order. One destination's
// failure never cancels or affects sibling dispatches.
func (d *Dispatcher) DispatchAll(ctx context.Context, destinations []entity.DestinationConfig, message []byte) []entity.DispatchResult {

	results := make([]entity.DispatchResult, len(destinations))

	g := new(errgroup.Group)
	for i, destination := range destinations {
		i, destination := i, destination
		g.Go(func() error {
			// Dispatch always resolves to a result value, never an error,
			// so the group never short-circuits siblings.
			results[i] = d.Dispatch(ctx, i, destination, message)
			return nil
		})
	}
	_ = g.Wait()

	return results
}
