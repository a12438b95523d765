package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teltech/logger"

	"github.com/canal-io/canal/entity"
	"github.com/canal-io/canal/pkg/notify"
)

// Processor orchestrates one validated channel's pipeline for a single
// message: the filter chain, the transformer chain and the concurrent
// dispatch to all destinations.
//
// The run is a state machine:
//
//	RECEIVED -> FILTERING -> FILTERED (terminal)
//	                      -> TRANSFORMING -> TRANSFORM_ERROR (terminal)
//	                                      -> DISPATCHING -> SUCCESS (terminal)
//	ERROR (terminal) on unexpected faults anywhere in the run.
//
// Filter and transformer chains run strictly sequentially in configured
// order; dispatch is the only concurrency point. Distinct messages process
// fully concurrently; a Processor holds no per-run state.
type Processor struct {
	filters      *FilterEngine
	transformers *TransformEngine
	dispatcher   *Dispatcher
	notifier     *notify.Notifier
}

func NewProcessor(config Config) *Processor {

	p := &Processor{
		filters:      NewFilterEngine(config),
		transformers: NewTransformEngine(config),
		dispatcher:   NewDispatcher(config),
	}

	var log *logger.Log
	if config.Log {
		log = logger.New()
	}
	p.notifier = notify.New(config.NotifyChan, log, 2, "processor", uuid.New().String(), "")

	return p
}

// Process runs one message through the channel's pipeline and returns its
// definite terminal result. The channel must be a snapshot captured at
// admission time; the processor never re-reads configuration mid-run.
//
// A disabled channel fails immediately with ErrChannelDisabled before any
// engine is invoked. Once admitted, the run always completes with a terminal
// ProcessResult; pipeline faults are embedded in the result, never returned
// as errors and never affecting other in-flight runs.
func (p *Processor) Process(ctx context.Context, channel *entity.Channel, message []byte) (result *entity.ProcessResult, err error) {

	if !channel.Enabled {
		return nil, fmt.Errorf("%w: channel '%s'", entity.ErrChannelDisabled, channel.Id)
	}

	result = &entity.ProcessResult{
		ProcessId: uuid.New().String(),
		ChannelId: channel.Id,
		Status:    entity.StatusReceived,
		Original:  message,
		StartedAt: time.Now().UTC(),
	}

	defer func() {
		result.CompletedAt = time.Now().UTC()
		// Protection against badly written capability implementations
		if r := recover(); r != nil {
			result.Status = entity.StatusError
			result.Error = fmt.Sprintf("panic during processing: %v", r)
			p.notifier.Notify(entity.NotifyLevelError, "Panic (%v) processing message on channel %s, process %s", r, channel.Id, result.ProcessId)
		}
	}()

	msg := p.runFilters(ctx, channel, message, result)
	if result.Status == entity.StatusFiltered {
		return result, nil
	}

	msg = p.runTransformers(ctx, channel, msg, result)
	if result.Status == entity.StatusTransformError {
		return result, nil
	}

	result.Status = entity.StatusDispatching
	result.Processed = msg
	result.DispatchResults = p.dispatcher.DispatchAll(ctx, channel.Destinations, msg)

	// Partial destination failure is reported per destination, not escalated
	// to pipeline failure.
	result.Status = entity.StatusSuccess
	p.notifyDispatchOutcome(channel, result)

	return result, nil
}

// runFilters applies the filter chain strictly in configured order, each
// filter receiving the output of the previous one. On first rejection the run
// transitions to FILTERED; transformers and dispatch never execute.
func (p *Processor) runFilters(ctx context.Context, channel *entity.Channel, msg []byte, result *entity.ProcessResult) []byte {

	result.Status = entity.StatusFiltering

	for i, filter := range channel.Filters {
		outcome := p.filters.ApplyFilter(ctx, filter, msg)
		if outcome.Rejected {
			result.Status = entity.StatusFiltered
			result.FilterReason = fmt.Sprintf("filter %d (%s): %s", i, filter.Type(), outcome.Reason)
			p.notifier.Notify(entity.NotifyLevelDebug, "Message filtered on channel %s, process %s: %s", channel.Id, result.ProcessId, result.FilterReason)
			return nil
		}
		msg = outcome.Message
	}
	return msg
}

// runTransformers applies the transformer chain strictly in configured order.
// The first error transitions the run to TRANSFORM_ERROR; dispatch never
// executes.
func (p *Processor) runTransformers(ctx context.Context, channel *entity.Channel, msg []byte, result *entity.ProcessResult) []byte {

	result.Status = entity.StatusTransforming

	for i, transformer := range channel.Transformers {
		out, warning, err := p.transformers.ApplyTransformer(ctx, transformer, msg)
		if warning != "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("transformer %d (%s): %s", i, transformer.Type(), warning))
		}
		if err != nil {
			result.Status = entity.StatusTransformError
			result.TransformError = fmt.Sprintf("transformer %d (%s): %v", i, transformer.Type(), err)
			p.notifier.Notify(entity.NotifyLevelWarn, "Transform error on channel %s, process %s: %s", channel.Id, result.ProcessId, result.TransformError)
			return nil
		}
		msg = out
	}
	return msg
}

func (p *Processor) notifyDispatchOutcome(channel *entity.Channel, result *entity.ProcessResult) {

	failed := 0
	for _, dr := range result.DispatchResults {
		if !dr.Success {
			failed++
		}
	}
	if failed > 0 {
		p.notifier.Notify(entity.NotifyLevelWarn, "Dispatch on channel %s, process %s: %d of %d destinations failed",
			channel.Id, result.ProcessId, failed, len(result.DispatchResults))
	} else {
		p.notifier.Notify(entity.NotifyLevelDebug, "Dispatch on channel %s, process %s: all %d destinations succeeded",
			channel.Id, result.ProcessId, len(result.DispatchResults))
	}
}
