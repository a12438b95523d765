package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/canal-io/canal/entity"
)

// InMemStore is the default ChannelStore implementation, keeping channels in
// memory only. It is safe for concurrent use and hands out deep copies, so a
// caller always holds an immutable snapshot regardless of later updates.
type InMemStore struct {
	mu       sync.RWMutex
	channels map[string]*entity.Channel
}

func NewInMemStore() *InMemStore {
	return &InMemStore{channels: make(map[string]*entity.Channel)}
}

func (s *InMemStore) GetById(ctx context.Context, id string) (*entity.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	channel, ok := s.channels[id]
	if !ok {
		return nil, fmt.Errorf("%w: id '%s'", entity.ErrChannelNotFound, id)
	}
	return channel.Copy(), nil
}

func (s *InMemStore) GetByName(ctx context.Context, name string) (*entity.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, channel := range s.channels {
		if channel.Name == name {
			return channel.Copy(), nil
		}
	}
	return nil, fmt.Errorf("%w: name '%s'", entity.ErrChannelNotFound, name)
}

func (s *InMemStore) Add(ctx context.Context, channel *entity.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.channels[channel.Id]; ok {
		return fmt.Errorf("%w: id '%s'", entity.ErrChannelAlreadyExists, channel.Id)
	}
	s.channels[channel.Id] = channel.Copy()
	return nil
}

func (s *InMemStore) Replace(ctx context.Context, channel *entity.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.channels[channel.Id]; !ok {
		return fmt.Errorf("%w: id '%s'", entity.ErrChannelNotFound, channel.Id)
	}
	// Whole-value swap keeps updates atomic; snapshots handed out earlier are
	// unaffected.
	s.channels[channel.Id] = channel.Copy()
	return nil
}

func (s *InMemStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.channels[id]; !ok {
		return fmt.Errorf("%w: id '%s'", entity.ErrChannelNotFound, id)
	}
	delete(s.channels, id)
	return nil
}

func (s *InMemStore) ListEnabled(ctx context.Context) ([]*entity.Channel, error) {
	return s.list(func(c *entity.Channel) bool { return c.Enabled })
}

func (s *InMemStore) ListAll(ctx context.Context) ([]*entity.Channel, error) {
	return s.list(func(c *entity.Channel) bool { return true })
}

func (s *InMemStore) list(include func(*entity.Channel) bool) ([]*entity.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var channels []*entity.Channel
	for _, channel := range s.channels {
		if include(channel) {
			channels = append(channels, channel.Copy())
		}
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i].Name < channels[j].Name })
	return channels, nil
}
