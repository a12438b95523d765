package entity

import (
	"encoding/json"
	"fmt"
)

// Discriminator tags for the persisted/wire form of channel configs. Each
// config variant serializes with an explicit "type" field holding one of these
// strings. The tags are the stable contract across versions.
const (
	VariantHTTP      = "http"
	VariantTCP       = "tcp"
	VariantScript    = "script"
	VariantPathQuery = "path_query"
	VariantTemplate  = "template"
)

// HTTP methods accepted in source and destination configs.
var AllowedHTTPMethods = map[string]bool{
	"GET":    true,
	"POST":   true,
	"PUT":    true,
	"DELETE": true,
}

// Available options for ScriptTransformer.OnNoOutput, governing what to do
// when the script runner completes without producing a replacement message.
const (
	// OnNoOutputPassthrough passes the original message through unchanged and
	// records a warning on the process result. Default when omitted.
	OnNoOutputPassthrough = "passthrough"

	// OnNoOutputError fails the transformer chain for that message.
	OnNoOutputError = "error"
)

//
// SourceConfig
//

// SourceConfig describes how messages enter a channel. Ingestion itself is
// performed by external listeners; the core only validates and stores the config.
// The set of variants is closed: every consuming switch has a default arm
// returning ErrUnsupportedVariant.
type SourceConfig interface {
	Type() string
	Validate() error
	sourceConfig()
}

type HTTPSource struct {
	Path   string `json:"path"`
	Method string `json:"method"`
}

func (HTTPSource) Type() string  { return VariantHTTP }
func (HTTPSource) sourceConfig() {}

func (s HTTPSource) Validate() error {
	if s.Path == "" {
		return NewValidationError("source.path", "path must not be empty")
	}
	if !AllowedHTTPMethods[s.Method] {
		return NewValidationError("source.method", fmt.Sprintf("invalid HTTP method '%s'", s.Method))
	}
	return nil
}

type TCPSource struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	UseFraming bool   `json:"useFraming"`
}

func (TCPSource) Type() string  { return VariantTCP }
func (TCPSource) sourceConfig() {}

func (s TCPSource) Validate() error {
	if s.Host == "" {
		return NewValidationError("source.host", "host must not be empty")
	}
	return validatePort("source.port", s.Port)
}

//
// FilterConfig
//

// FilterConfig is a decision step in the channel's filter chain. A filter may
// reject a message or pass it on, possibly modified.
type FilterConfig interface {
	Type() string
	Validate() error
	filterConfig()
}

// ScriptFilter delegates the pass/reject decision to the external script
// execution capability. Any fault from that capability rejects the message
// (fail-closed).
type ScriptFilter struct {
	Script string `json:"script"`
}

func (ScriptFilter) Type() string  { return VariantScript }
func (ScriptFilter) filterConfig() {}

func (f ScriptFilter) Validate() error {
	if f.Script == "" {
		return NewValidationError("filter.script", "script body must not be empty")
	}
	return nil
}

// PathQueryFilter resolves Path in the message JSON (gjson syntax) and
// evaluates Condition against the resolved value. An unresolved path rejects
// the message.
//
// Condition is either the single word "exists", or an operator followed by an
// operand, e.g. "== active", "!= 0", "> 100", "contains err".
// Supported operators: == != > >= < <= contains prefix suffix.
type PathQueryFilter struct {
	Path      string `json:"path"`
	Condition string `json:"condition"`
}

func (PathQueryFilter) Type() string  { return VariantPathQuery }
func (PathQueryFilter) filterConfig() {}

func (f PathQueryFilter) Validate() error {
	if f.Path == "" {
		return NewValidationError("filter.path", "path must not be empty")
	}
	if f.Condition == "" {
		return NewValidationError("filter.condition", "condition must not be empty")
	}
	return nil
}

//
// TransformerConfig
//

// TransformerConfig is a step in the channel's transformer chain, reshaping
// the message content.
type TransformerConfig interface {
	Type() string
	Validate() error
	transformerConfig()
}

// ScriptTransformer delegates message transformation to the external script
// execution capability. OnNoOutput selects the policy for scripts completing
// without a replacement message (see OnNoOutputPassthrough / OnNoOutputError).
type ScriptTransformer struct {
	Script     string `json:"script"`
	OnNoOutput string `json:"onNoOutput,omitempty"`
}

func (ScriptTransformer) Type() string       { return VariantScript }
func (ScriptTransformer) transformerConfig() {}

func (t ScriptTransformer) Validate() error {
	if t.Script == "" {
		return NewValidationError("transformer.script", "script body must not be empty")
	}
	switch t.OnNoOutput {
	case "", OnNoOutputPassthrough, OnNoOutputError:
		return nil
	default:
		return NewValidationError("transformer.onNoOutput", fmt.Sprintf("invalid policy '%s'", t.OnNoOutput))
	}
}

// TemplateTransformer renders the message through a named template engine.
// Engine names supported by the built-in renderer are "go" and "mustache".
type TemplateTransformer struct {
	Template string `json:"template"`
	Engine   string `json:"engine"`
}

func (TemplateTransformer) Type() string       { return VariantTemplate }
func (TemplateTransformer) transformerConfig() {}

func (t TemplateTransformer) Validate() error {
	if t.Template == "" {
		return NewValidationError("transformer.template", "template must not be empty")
	}
	if t.Engine == "" {
		return NewValidationError("transformer.engine", "engine name must not be empty")
	}
	return nil
}

//
// DestinationConfig
//

// DestinationConfig is a target the final message is dispatched to.
type DestinationConfig interface {
	Type() string
	Validate() error
	destinationConfig()
}

type HTTPDestination struct {
	Url     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers,omitempty"`
}

func (HTTPDestination) Type() string       { return VariantHTTP }
func (HTTPDestination) destinationConfig() {}

func (d HTTPDestination) Validate() error {
	if d.Url == "" {
		return NewValidationError("destination.url", "url must not be empty")
	}
	if !AllowedHTTPMethods[d.Method] {
		return NewValidationError("destination.method", fmt.Sprintf("invalid HTTP method '%s'", d.Method))
	}
	return nil
}

type TCPDestination struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	UseFraming bool   `json:"useFraming"`
}

func (TCPDestination) Type() string       { return VariantTCP }
func (TCPDestination) destinationConfig() {}

func (d TCPDestination) Validate() error {
	if d.Host == "" {
		return NewValidationError("destination.host", "host must not be empty")
	}
	return validatePort("destination.port", d.Port)
}

func validatePort(field string, port int) error {
	if port < 1 || port > 65535 {
		return NewValidationError(field, fmt.Sprintf("port %d outside valid range [1, 65535]", port))
	}
	return nil
}

//
// Wire codecs. Each union decodes from JSON carrying a "type" discriminator.
// An unknown discriminator is always a hard ErrUnsupportedVariant.
//

type variantProbe struct {
	Type string `json:"type"`
}

func UnmarshalSourceConfig(data []byte) (SourceConfig, error) {
	var probe variantProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	switch probe.Type {
	case VariantHTTP:
		var c HTTPSource
		err := json.Unmarshal(data, &c)
		return c, err
	case VariantTCP:
		var c TCPSource
		err := json.Unmarshal(data, &c)
		return c, err
	default:
		return nil, fmt.Errorf("%w: source type '%s'", ErrUnsupportedVariant, probe.Type)
	}
}

func UnmarshalFilterConfig(data []byte) (FilterConfig, error) {
	var probe variantProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	switch probe.Type {
	case VariantScript:
		var c ScriptFilter
		err := json.Unmarshal(data, &c)
		return c, err
	case VariantPathQuery:
		var c PathQueryFilter
		err := json.Unmarshal(data, &c)
		return c, err
	default:
		return nil, fmt.Errorf("%w: filter type '%s'", ErrUnsupportedVariant, probe.Type)
	}
}

func UnmarshalTransformerConfig(data []byte) (TransformerConfig, error) {
	var probe variantProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	switch probe.Type {
	case VariantScript:
		var c ScriptTransformer
		err := json.Unmarshal(data, &c)
		return c, err
	case VariantTemplate:
		var c TemplateTransformer
		err := json.Unmarshal(data, &c)
		return c, err
	default:
		return nil, fmt.Errorf("%w: transformer type '%s'", ErrUnsupportedVariant, probe.Type)
	}
}

func UnmarshalDestinationConfig(data []byte) (DestinationConfig, error) {
	var probe variantProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	switch probe.Type {
	case VariantHTTP:
		var c HTTPDestination
		err := json.Unmarshal(data, &c)
		return c, err
	case VariantTCP:
		var c TCPDestination
		err := json.Unmarshal(data, &c)
		return c, err
	default:
		return nil, fmt.Errorf("%w: destination type '%s'", ErrUnsupportedVariant, probe.Type)
	}
}

func marshalVariant(typeTag string, config any) ([]byte, error) {
	fields, err := json.Marshal(config)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err = json.Unmarshal(fields, &m); err != nil {
		return nil, err
	}
	m["type"] = json.RawMessage(`"` + typeTag + `"`)
	return json.Marshal(m)
}

func MarshalSourceConfig(c SourceConfig) ([]byte, error) {
	switch c.(type) {
	case HTTPSource, TCPSource:
		return marshalVariant(c.Type(), c)
	default:
		return nil, fmt.Errorf("%w: source type %T", ErrUnsupportedVariant, c)
	}
}

func MarshalFilterConfig(c FilterConfig) ([]byte, error) {
	switch c.(type) {
	case ScriptFilter, PathQueryFilter:
		return marshalVariant(c.Type(), c)
	default:
		return nil, fmt.Errorf("%w: filter type %T", ErrUnsupportedVariant, c)
	}
}

func MarshalTransformerConfig(c TransformerConfig) ([]byte, error) {
	switch c.(type) {
	case ScriptTransformer, TemplateTransformer:
		return marshalVariant(c.Type(), c)
	default:
		return nil, fmt.Errorf("%w: transformer type %T", ErrUnsupportedVariant, c)
	}
}

func MarshalDestinationConfig(c DestinationConfig) ([]byte, error) {
	switch c.(type) {
	case HTTPDestination, TCPDestination:
		return marshalVariant(c.Type(), c)
	default:
		return nil, fmt.Errorf("%w: destination type %T", ErrUnsupportedVariant, c)
	}
}
