// Package canal is a configurable message-routing engine. Operators define
// channels that ingest a message from a source, run it through an ordered
// filter chain, run the surviving message through an ordered transformer
// chain, and fan it out concurrently to one or more destinations.
//
// Transport listeners, persistence technology, authentication and concrete
// data-format parsing are external collaborators, injected through Config.
package canal

import (
	"context"
	"errors"

	"github.com/tidwall/sjson"

	"github.com/canal-io/canal/entity"
	"github.com/canal-io/canal/internal/service"
)

// ErrConfigNotInitialized is returned by New when the provided config was not
// created with NewConfig(). All other errors surface from the entity.Err*
// taxonomy (ErrValidation, ErrChannelNotFound, ErrChannelDisabled, ...) with
// additional detail attached; match with errors.Is().
var ErrConfigNotInitialized = errors.New("canal.Config needs to be created with NewConfig()")

type Canal struct {
	service    *service.Service
	notifyChan entity.NotifyChan
}

// New creates and configures canal's internal services based on the provided
// config, which needs to be initially created with NewConfig().
func New(config *Config) (*Canal, error) {
	if config == nil || !config.initialized {
		return nil, ErrConfigNotInitialized
	}

	notifyChanSize := config.Ops.NotifyChanSize
	if notifyChanSize <= 0 {
		notifyChanSize = defaultNotifyChanSize
	}

	c := &Canal{notifyChan: make(entity.NotifyChan, notifyChanSize)}
	c.service = service.New(preProcessConfig(config, c.notifyChan))
	return c, nil
}

// CreateChannel validates and stores a new channel from its JSON definition,
// returning the channel id (generated if the definition carries none).
func (c *Canal) CreateChannel(ctx context.Context, channelData []byte) (id string, err error) {

	channel, err := c.service.Registry().Create(ctx, channelData)
	if err != nil {
		return id, err
	}
	return channel.Id, nil
}

// UpdateChannel validates and atomically replaces an existing channel. The id
// is immutable; runs already admitted keep using their captured snapshot.
func (c *Canal) UpdateChannel(ctx context.Context, id string, channelData []byte) error {
	_, err := c.service.Registry().Update(ctx, id, channelData)
	return err
}

// DeleteChannel removes the channel. Runs already admitted finish against
// their captured snapshot.
func (c *Canal) DeleteChannel(ctx context.Context, id string) error {
	return c.service.Registry().Delete(ctx, id)
}

// EnableChannel sets the channel's enabled flag. Idempotent.
func (c *Canal) EnableChannel(ctx context.Context, id string) error {
	_, err := c.service.Registry().Enable(ctx, id)
	return err
}

// DisableChannel clears the channel's enabled flag. Idempotent.
func (c *Canal) DisableChannel(ctx context.Context, id string) error {
	_, err := c.service.Registry().Disable(ctx, id)
	return err
}

// GetChannel returns the wire form of the channel with the given id.
func (c *Canal) GetChannel(ctx context.Context, id string) (channelData []byte, err error) {
	channel, err := c.service.Registry().Get(ctx, id)
	if err == nil {
		channelData = channel.JSON()
	}
	return
}

// GetChannels returns the wire form of every stored channel, keyed by id.
func (c *Canal) GetChannels(ctx context.Context) (channels map[string][]byte, err error) {

	stored, err := c.service.Registry().GetAll(ctx)
	if err != nil {
		return nil, err
	}
	channels = make(map[string][]byte)
	for _, channel := range stored {
		channels[channel.Id] = channel.JSON()
	}
	return
}

// ValidateChannel returns an error if the provided channel definition is
// structurally invalid. Nothing is stored; uniqueness against the store is
// only checked by the mutating operations.
func (c *Canal) ValidateChannel(channelData []byte) (id string, err error) {

	channel, err := c.service.Registry().Validate(channelData)
	if err != nil {
		return id, err
	}
	return channel.Id, nil
}

// Process runs one message through the identified channel's pipeline and
// returns its definite terminal result.
//
// A disabled channel fails immediately with entity.ErrChannelDisabled and an
// unknown id with entity.ErrChannelNotFound. Once admitted, the run always
// completes with a terminal ProcessResult; per-destination dispatch failures
// are embedded in the result, never returned as errors.
func (c *Canal) Process(ctx context.Context, channelId string, message []byte) (*entity.ProcessResult, error) {
	return c.service.Process(ctx, channelId, message)
}

// NotificationChannel returns the channel carrying operational events from
// canal's internal entities.
func (c *Canal) NotificationChannel() entity.NotifyChan {
	return c.notifyChan
}

// EnrichMessage is a convenience function for message enrichment purposes,
// e.g. inside a custom script runner. It's a wrapper on the sjson package.
// See doc at https://github.com/tidwall/sjson.
func EnrichMessage(message []byte, path string, value any) ([]byte, error) {
	return sjson.SetBytes(message, path, value)
}
