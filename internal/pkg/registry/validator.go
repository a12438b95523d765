package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/canal-io/canal/entity"
)

// Validator enforces the structural and business invariants on a channel
// before it may be stored or process anything. Checks short-circuit on the
// first failure, in a fixed order: name, destinations, per-variant config
// validity, id/name uniqueness against the store.
//
// Validation mutates nothing; validating an already-valid channel any number
// of times keeps succeeding.
type Validator struct {
	store entity.ChannelStore
}

func NewValidator(store entity.ChannelStore) *Validator {
	return &Validator{store: store}
}

// ValidateCreate runs all checks for a channel about to be added.
func (v *Validator) ValidateCreate(ctx context.Context, channel *entity.Channel) error {

	if err := v.ValidateStructure(channel); err != nil {
		return err
	}

	if channel.Id != "" {
		if _, err := v.store.GetById(ctx, channel.Id); err == nil {
			return fmt.Errorf("%w: id '%s'", entity.ErrChannelAlreadyExists, channel.Id)
		} else if !errors.Is(err, entity.ErrChannelNotFound) {
			return err
		}
	}
	return v.checkNameUnique(ctx, channel)
}

// ValidateUpdate runs all checks for a channel about to replace an existing
// one. The target channel must already exist.
func (v *Validator) ValidateUpdate(ctx context.Context, channel *entity.Channel) error {

	if err := v.ValidateStructure(channel); err != nil {
		return err
	}

	if _, err := v.store.GetById(ctx, channel.Id); err != nil {
		return err
	}
	return v.checkNameUnique(ctx, channel)
}

// ValidateStructure runs the store-independent checks only. Used directly for
// dry-run validation of channel definitions.
func (v *Validator) ValidateStructure(channel *entity.Channel) error {

	name := strings.TrimSpace(channel.Name)
	if name == "" {
		return entity.NewValidationError("name", "name must not be empty")
	}
	if len(name) > entity.MaxChannelNameLength {
		return entity.NewValidationError("name", fmt.Sprintf("name exceeds %d characters", entity.MaxChannelNameLength))
	}

	if len(channel.Destinations) == 0 {
		return entity.NewValidationError("destinations", "at least one destination is required")
	}

	if channel.Source == nil {
		return entity.NewValidationError("source", "source config is required")
	}
	if err := channel.Source.Validate(); err != nil {
		return err
	}
	for i, filter := range channel.Filters {
		if filter == nil {
			return entity.NewValidationError(fmt.Sprintf("filter %d", i), "config must not be nil")
		}
		if err := filter.Validate(); err != nil {
			return fmt.Errorf("filter %d: %w", i, err)
		}
	}
	for i, transformer := range channel.Transformers {
		if transformer == nil {
			return entity.NewValidationError(fmt.Sprintf("transformer %d", i), "config must not be nil")
		}
		if err := transformer.Validate(); err != nil {
			return fmt.Errorf("transformer %d: %w", i, err)
		}
	}
	for i, destination := range channel.Destinations {
		if destination == nil {
			return entity.NewValidationError(fmt.Sprintf("destination %d", i), "config must not be nil")
		}
		if err := destination.Validate(); err != nil {
			return fmt.Errorf("destination %d: %w", i, err)
		}
	}
	return nil
}

func (v *Validator) checkNameUnique(ctx context.Context, channel *entity.Channel) error {

	existing, err := v.store.GetByName(ctx, channel.Name)
	if err != nil {
		if errors.Is(err, entity.ErrChannelNotFound) {
			return nil
		}
		return err
	}
	if existing.Id != channel.Id {
		return entity.NewValidationError("name", fmt.Sprintf("name '%s' already in use by channel '%s'", channel.Name, existing.Id))
	}
	return nil
}
