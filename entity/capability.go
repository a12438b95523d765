package entity

import "context"

// ChannelStore is the persistence collaborator for channel configs. The core
// ships an in-memory implementation; any persistence technology can be
// injected through canal.Config. Implementations must be safe for concurrent
// use and must hand out copies, so callers always hold an immutable snapshot.
type ChannelStore interface {
	// GetById returns the channel with the given id, or ErrChannelNotFound.
	GetById(ctx context.Context, id string) (*Channel, error)

	// GetByName returns the channel with the given name, or ErrChannelNotFound.
	GetByName(ctx context.Context, name string) (*Channel, error)

	// Add stores a new channel. Returns ErrChannelAlreadyExists on id collision.
	Add(ctx context.Context, channel *Channel) error

	// Replace atomically swaps the stored channel with the same id.
	// Returns ErrChannelNotFound if absent.
	Replace(ctx context.Context, channel *Channel) error

	// Delete removes the channel. Returns ErrChannelNotFound if absent.
	Delete(ctx context.Context, id string) error

	// ListEnabled returns all channels with Enabled set.
	ListEnabled(ctx context.Context) ([]*Channel, error)

	// ListAll returns every stored channel.
	ListAll(ctx context.Context) ([]*Channel, error)
}

// ScriptResult is the structured outcome of one script execution.
type ScriptResult struct {
	// Passed is the pass/fail flag for filter scripts. A nil Passed from a
	// filter run is treated as a fault and rejects the message (fail-closed).
	Passed *bool

	// Message is an optional replacement message. Nil means the script
	// produced no output.
	Message []byte
}

// ScriptRunner is the external script execution capability. The core never
// inlines untrusted code; sandboxing is the runner's concern. Internal faults
// must come back as errors, never as panics.
type ScriptRunner interface {
	Run(ctx context.Context, script string, message []byte) (ScriptResult, error)
}

// TemplateRenderer renders a template of the named engine against the message.
// An unknown engine name must return ErrUnsupportedTemplateEngine.
type TemplateRenderer interface {
	Render(ctx context.Context, template, engine string, message []byte) ([]byte, error)
}

// HTTPResponse is the transport-level outcome of one HTTP send.
type HTTPResponse struct {
	StatusCode int
	Body       []byte
}

// HTTPSender performs exactly one HTTP request/response attempt. No retries.
type HTTPSender interface {
	Send(ctx context.Context, method, url string, headers map[string]string, body []byte) (*HTTPResponse, error)
}

// TCPSender writes one payload to host:port, optionally wrapped in the
// configured start/end byte framing, and reports the number of payload bytes
// written.
type TCPSender interface {
	Send(ctx context.Context, host string, port int, payload []byte, useFraming bool) (int, error)
}
