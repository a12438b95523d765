package service

import (
	"context"
	"encoding/json"

	"github.com/canal-io/canal/entity"
	"github.com/canal-io/canal/internal/pkg/engine"
	"github.com/canal-io/canal/internal/pkg/registry"
)

// Service is responsible for creating and injecting the concrete parts
// required by canal to function: the channel registry (validator + store) and
// the message processor with its engines.
type Service struct {
	config    Config
	registry  *registry.ChannelRegistry
	processor *engine.Processor
}

type Config struct {
	Registry registry.Config
	Engine   engine.Config

	// Store is the channel persistence collaborator. Nil selects the built-in
	// in-memory store.
	Store entity.ChannelStore
}

func New(cfg Config) *Service {
	return &Service{
		config:    cfg,
		registry:  registry.NewChannelRegistry(cfg.Registry, cfg.Store),
		processor: engine.NewProcessor(cfg.Engine),
	}
}

func (s *Service) Registry() *registry.ChannelRegistry {
	return s.registry
}

// Process is the ingestion boundary: it looks up the channel, captures its
// snapshot and runs the message through the pipeline.
func (s *Service) Process(ctx context.Context, channelId string, message []byte) (*entity.ProcessResult, error) {

	channel, err := s.registry.Get(ctx, channelId)
	if err != nil {
		return nil, err
	}
	return s.processor.Process(ctx, channel, message)
}

func (s *Service) String() string {
	b, _ := json.Marshal(&s.config.Registry)
	return string(b)
}
