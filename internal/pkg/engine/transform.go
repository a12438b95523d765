package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/canal-io/canal/entity"
)

// TransformEngine executes one transformer config against a message.
// An error from ApplyTransformer halts the transformer chain for that message.
type TransformEngine struct {
	scripts   entity.ScriptRunner
	templates entity.TemplateRenderer
}

func NewTransformEngine(config Config) *TransformEngine {
	return &TransformEngine{
		scripts:   config.ScriptRunner,
		templates: config.TemplateRenderer,
	}
}

// ApplyTransformer returns the transformed message, an optional non-fatal
// warning, or an error terminating the chain.
func (e *TransformEngine) ApplyTransformer(ctx context.Context, config entity.TransformerConfig, message []byte) (out []byte, warning string, err error) {

	defer func() {
		if r := recover(); r != nil {
			out, warning = nil, ""
			err = fmt.Errorf("panic during transformer execution: %v", r)
		}
	}()

	switch config := config.(type) {
	case entity.ScriptTransformer:
		return e.applyScriptTransformer(ctx, config, message)
	case entity.TemplateTransformer:
		return e.applyTemplateTransformer(ctx, config, message)
	default:
		return nil, "", fmt.Errorf("%w: transformer type %T", entity.ErrUnsupportedVariant, config)
	}
}

func (e *TransformEngine) applyScriptTransformer(ctx context.Context, config entity.ScriptTransformer, message []byte) ([]byte, string, error) {

	if e.scripts == nil {
		return nil, "", errors.New("no script runner registered")
	}

	result, err := e.scripts.Run(ctx, config.Script, message)
	if err != nil {
		return nil, "", fmt.Errorf("script execution failed: %v", err)
	}

	if result.Message == nil {
		if config.OnNoOutput == entity.OnNoOutputError {
			return nil, "", errors.New("script produced no output")
		}
		return message, "script produced no output, passing original message through", nil
	}
	return result.Message, "", nil
}

func (e *TransformEngine) applyTemplateTransformer(ctx context.Context, config entity.TemplateTransformer, message []byte) ([]byte, string, error) {

	if e.templates == nil {
		return nil, "", fmt.Errorf("%w: '%s' (no renderer registered)", entity.ErrUnsupportedTemplateEngine, config.Engine)
	}

	rendered, err := e.templates.Render(ctx, config.Template, config.Engine, message)
	if err != nil {
		return nil, "", err
	}
	return rendered, "", nil
}
