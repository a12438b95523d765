// Package template provides the built-in TemplateRenderer capability,
// rendering messages through a named template engine.
package template

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	texttemplate "text/template"

	"github.com/cbroglie/mustache"

	"github.com/canal-io/canal/entity"
)

// Engine names supported by the built-in renderer.
const (
	EngineGo       = "go"
	EngineMustache = "mustache"
)

// Renderer renders templates against the message JSON. The message is decoded
// into a generic value and exposed as the template data root, so a field
// "patient.name" is addressed as {{.patient.name}} (go) or {{patient.name}}
// (mustache).
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) Render(ctx context.Context, tmpl, engine string, message []byte) ([]byte, error) {

	var data any
	if err := json.Unmarshal(message, &data); err != nil {
		return nil, fmt.Errorf("message is not valid JSON: %v", err)
	}

	switch engine {
	case EngineGo:
		return renderGo(tmpl, data)
	case EngineMustache:
		return renderMustache(tmpl, data)
	default:
		return nil, fmt.Errorf("%w: '%s'", entity.ErrUnsupportedTemplateEngine, engine)
	}
}

func renderGo(tmpl string, data any) ([]byte, error) {

	t, err := texttemplate.New("transformer").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("invalid template: %v", err)
	}

	var out bytes.Buffer
	if err = t.Execute(&out, data); err != nil {
		return nil, fmt.Errorf("template rendering failed: %v", err)
	}
	return out.Bytes(), nil
}

func renderMustache(tmpl string, data any) ([]byte, error) {

	out, err := mustache.Render(tmpl, data)
	if err != nil {
		return nil, fmt.Errorf("template rendering failed: %v", err)
	}
	return []byte(out), nil
}
