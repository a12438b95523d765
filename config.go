package canal

import (
	"time"

	"github.com/canal-io/canal/entity"
	"github.com/canal-io/canal/internal/pkg/engine"
	"github.com/canal-io/canal/internal/pkg/entity/template"
	"github.com/canal-io/canal/internal/pkg/entity/xhttp"
	"github.com/canal-io/canal/internal/pkg/entity/xtcp"
	"github.com/canal-io/canal/internal/pkg/registry"
	"github.com/canal-io/canal/internal/service"
)

const (
	defaultNotifyChanSize     = 100
	defaultDispatchTimeoutSec = 30
)

// Config needs to be created with NewConfig() and filled in with config as
// applicable for the intended setup, and provided in the call to canal.New().
// All fields are optional; external capabilities are added with the
// Config.Register*() functions.
type Config struct {
	Ops OpsConfig

	scriptRunner     entity.ScriptRunner
	templateRenderer entity.TemplateRenderer
	httpSender       entity.HTTPSender
	tcpSender        entity.TCPSender
	store            entity.ChannelStore

	initialized bool
}

func NewConfig() *Config {
	return &Config{initialized: true}
}

// OpsConfig provides options for observability and resource bounds.
type OpsConfig struct {

	// Log enables logging via the built-in log framework. If false,
	// notification events are still emitted on the notify channel.
	Log bool

	// NotifyChanSize is the notification channel buffer size.
	NotifyChanSize int

	// DispatchTimeoutSec bounds each single destination dispatch. A timeout
	// becomes a failed DispatchResult for that destination only.
	DispatchTimeoutSec int
}

// RegisterScriptRunner sets the external script execution capability used by
// script filters and script transformers. Without a registered runner, script
// filters reject all messages (fail-closed) and script transformers error.
func (c *Config) RegisterScriptRunner(runner entity.ScriptRunner) {
	c.scriptRunner = runner
}

// RegisterTemplateRenderer replaces the built-in template renderer
// (engines "go" and "mustache").
func (c *Config) RegisterTemplateRenderer(renderer entity.TemplateRenderer) {
	c.templateRenderer = renderer
}

// RegisterHTTPSender replaces the built-in HTTP transport client.
func (c *Config) RegisterHTTPSender(sender entity.HTTPSender) {
	c.httpSender = sender
}

// RegisterTCPSender replaces the built-in TCP transport client.
func (c *Config) RegisterTCPSender(sender entity.TCPSender) {
	c.tcpSender = sender
}

// RegisterChannelStore replaces the built-in in-memory channel store with any
// persistence technology implementing entity.ChannelStore.
func (c *Config) RegisterChannelStore(store entity.ChannelStore) {
	c.store = store
}

func preProcessConfig(config *Config, notifyChan entity.NotifyChan) service.Config {

	if config.templateRenderer == nil {
		config.templateRenderer = template.NewRenderer()
	}
	if config.httpSender == nil {
		config.httpSender = xhttp.NewSender()
	}
	if config.tcpSender == nil {
		config.tcpSender = xtcp.NewSender()
	}

	dispatchTimeoutSec := config.Ops.DispatchTimeoutSec
	if dispatchTimeoutSec <= 0 {
		dispatchTimeoutSec = defaultDispatchTimeoutSec
	}

	return service.Config{
		Registry: registry.Config{
			NotifyChan: notifyChan,
			Log:        config.Ops.Log,
		},
		Engine: engine.Config{
			ScriptRunner:     config.scriptRunner,
			TemplateRenderer: config.templateRenderer,
			HTTPSender:       config.httpSender,
			TCPSender:        config.tcpSender,
			NotifyChan:       notifyChan,
			Log:              config.Ops.Log,
			DispatchTimeout:  time.Duration(dispatchTimeoutSec) * time.Second,
		},
		Store: config.store,
	}
}
