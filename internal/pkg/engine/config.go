package engine

import (
	"time"

	"github.com/canal-io/canal/entity"
)

const defaultDispatchTimeout = 30 * time.Second

// Config holds the capabilities and options the engines operate with.
// ScriptRunner, TemplateRenderer and the transport senders are external
// collaborators injected at setup; the engines never inline that logic.
type Config struct {
	ScriptRunner     entity.ScriptRunner
	TemplateRenderer entity.TemplateRenderer
	HTTPSender       entity.HTTPSender
	TCPSender        entity.TCPSender

	NotifyChan entity.NotifyChan
	Log        bool

	// DispatchTimeout bounds each single destination dispatch. A timeout
	// becomes a failed DispatchResult, never an unhandled fault.
	// If zero, defaultDispatchTimeout is used.
	DispatchTimeout time.Duration
}

func (c Config) dispatchTimeout() time.Duration {
	if c.DispatchTimeout <= 0 {
		return defaultDispatchTimeout
	}
	return c.DispatchTimeout
}
