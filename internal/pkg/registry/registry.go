package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teltech/logger"

	"github.com/canal-io/canal/entity"
	"github.com/canal-io/canal/pkg/notify"
)

type Config struct {
	NotifyChan entity.NotifyChan `json:"-"`
	Log        bool
}

// ChannelRegistry owns the channel configuration lifecycle: create, update,
// delete and the enable/disable toggles. Every mutation goes through the
// Validator before it reaches the store, so an invalid channel is never
// observably stored. Configuration-time errors surface synchronously to the
// caller of the mutating operation.
type ChannelRegistry struct {
	config    Config
	store     entity.ChannelStore
	validator *Validator
	notifier  *notify.Notifier
}

func NewChannelRegistry(config Config, store entity.ChannelStore) *ChannelRegistry {

	if store == nil {
		store = NewInMemStore()
	}

	r := &ChannelRegistry{
		config:    config,
		store:     store,
		validator: NewValidator(store),
	}

	var log *logger.Log
	if config.Log {
		log = logger.New()
	}
	r.notifier = notify.New(config.NotifyChan, log, 2, "registry", uuid.New().String(), "")

	return r
}

func (r *ChannelRegistry) Store() entity.ChannelStore {
	return r.store
}

// Create validates and stores a new channel from its wire form. An id is
// generated when the definition does not carry one.
func (r *ChannelRegistry) Create(ctx context.Context, channelData []byte) (*entity.Channel, error) {

	channel, err := entity.NewChannel(channelData)
	if err != nil {
		return nil, definitionErr(err)
	}

	if channel.Id == "" {
		channel.Id = uuid.New().String()
	}
	now := time.Now().UTC()
	channel.CreatedAt = now
	channel.UpdatedAt = now

	if err = r.validator.ValidateCreate(ctx, channel); err != nil {
		return nil, err
	}
	if err = r.store.Add(ctx, channel); err != nil {
		return nil, err
	}

	r.notifier.Notify(entity.NotifyLevelInfo, "Channel created: '%s' (%s)", channel.Name, channel.Id)
	return channel, nil
}

// Update validates and atomically replaces an existing channel. The id is
// immutable: whatever the wire form carries, the stored channel keeps the id
// given here. CreatedAt is preserved from the stored channel.
func (r *ChannelRegistry) Update(ctx context.Context, id string, channelData []byte) (*entity.Channel, error) {

	existing, err := r.store.GetById(ctx, id)
	if err != nil {
		return nil, err
	}

	channel, err := entity.NewChannel(channelData)
	if err != nil {
		return nil, definitionErr(err)
	}
	channel.Id = id
	channel.CreatedAt = existing.CreatedAt
	channel.UpdatedAt = time.Now().UTC()

	if err = r.validator.ValidateUpdate(ctx, channel); err != nil {
		return nil, err
	}
	if err = r.store.Replace(ctx, channel); err != nil {
		return nil, err
	}

	r.notifier.Notify(entity.NotifyLevelInfo, "Channel updated: '%s' (%s)", channel.Name, channel.Id)
	return channel, nil
}

func (r *ChannelRegistry) Delete(ctx context.Context, id string) error {

	if err := r.store.Delete(ctx, id); err != nil {
		return err
	}
	r.notifier.Notify(entity.NotifyLevelInfo, "Channel deleted: %s", id)
	return nil
}

func (r *ChannelRegistry) Get(ctx context.Context, id string) (*entity.Channel, error) {
	return r.store.GetById(ctx, id)
}

func (r *ChannelRegistry) GetAll(ctx context.Context) ([]*entity.Channel, error) {
	return r.store.ListAll(ctx)
}

// Enable sets the enabled flag. Idempotent: enabling an enabled channel is a
// no-op returning the current state.
func (r *ChannelRegistry) Enable(ctx context.Context, id string) (*entity.Channel, error) {
	return r.setEnabled(ctx, id, true)
}

// Disable clears the enabled flag. Idempotent like Enable. Runs already
// admitted keep processing against their captured snapshot.
func (r *ChannelRegistry) Disable(ctx context.Context, id string) (*entity.Channel, error) {
	return r.setEnabled(ctx, id, false)
}

func (r *ChannelRegistry) setEnabled(ctx context.Context, id string, enabled bool) (*entity.Channel, error) {

	channel, err := r.store.GetById(ctx, id)
	if err != nil {
		return nil, err
	}
	if channel.Enabled == enabled {
		return channel, nil
	}

	channel.Enabled = enabled
	channel.UpdatedAt = time.Now().UTC()

	if err = r.validator.ValidateUpdate(ctx, channel); err != nil {
		return nil, err
	}
	if err = r.store.Replace(ctx, channel); err != nil {
		return nil, err
	}

	r.notifier.Notify(entity.NotifyLevelInfo, "Channel %s: enabled=%v", id, enabled)
	return channel, nil
}

// Validate parses a channel definition and runs the store-independent checks,
// without persisting anything.
func (r *ChannelRegistry) Validate(channelData []byte) (*entity.Channel, error) {

	channel, err := entity.NewChannel(channelData)
	if err != nil {
		return nil, definitionErr(err)
	}
	if err = r.validator.ValidateStructure(channel); err != nil {
		return nil, err
	}
	return channel, nil
}

// definitionErr tags schema/decode failures as validation errors, while an
// unknown discriminator stays matchable as ErrUnsupportedVariant.
func definitionErr(err error) error {
	if errors.Is(err, entity.ErrUnsupportedVariant) {
		return err
	}
	return fmt.Errorf("%w: %v", entity.ErrValidation, err)
}
