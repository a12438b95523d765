package template

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canal-io/canal/entity"
)

var message = []byte(`{"patient": {"name": "Ada", "id": "p-77"}, "priority": 2}`)

func TestRenderGo(t *testing.T) {
	r := NewRenderer()
	ctx := context.Background()

	out, err := r.Render(ctx, `{"who": "{{.patient.name}}", "ref": "{{.patient.id}}"}`, EngineGo, message)
	require.NoError(t, err)
	assert.Equal(t, `{"who": "Ada", "ref": "p-77"}`, string(out))

	// Unparsable template
	_, err = r.Render(ctx, `{{.patient.name`, EngineGo, message)
	assert.Error(t, err)

	// Unresolvable field fails rendering rather than printing a zero value
	_, err = r.Render(ctx, `{{.patient.missing.deeper}}`, EngineGo, message)
	assert.Error(t, err)
}

func TestRenderMustache(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render(context.Background(), `who={{patient.name}} prio={{priority}}`, EngineMustache, message)
	require.NoError(t, err)
	assert.Equal(t, "who=Ada prio=2", string(out))
}

func TestRenderUnsupportedEngine(t *testing.T) {
	r := NewRenderer()

	_, err := r.Render(context.Background(), "x", "jinja2", message)
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrUnsupportedTemplateEngine))
}

func TestRenderNonJsonMessage(t *testing.T) {
	r := NewRenderer()

	_, err := r.Render(context.Background(), "{{.x}}", EngineGo, []byte("not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}
