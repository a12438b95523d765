package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canal-io/canal/entity"
	"github.com/canal-io/canal/internal/pkg/canaltest"
)

func testChannel() *entity.Channel {
	return &entity.Channel{
		Id:      "ch-orders",
		Name:    "orders",
		Enabled: true,
		Source:  entity.HTTPSource{Path: "/ingest/orders", Method: "POST"},
		Destinations: []entity.DestinationConfig{
			entity.HTTPDestination{Url: "https://a.example.com", Method: "POST"},
			entity.TCPDestination{Host: "10.0.0.7", Port: 6661},
		},
	}
}

func TestProcessSuccess(t *testing.T) {
	ctx := context.Background()

	httpSender := &canaltest.MockHTTPSender{}
	tcpSender := &canaltest.MockTCPSender{}
	p := NewProcessor(Config{
		ScriptRunner: canaltest.PassAllRunner(),
		HTTPSender:   httpSender,
		TCPSender:    tcpSender,
	})

	channel := testChannel()
	channel.Filters = []entity.FilterConfig{
		entity.PathQueryFilter{Path: "event.kind", Condition: "== order"},
	}
	channel.Transformers = []entity.TransformerConfig{
		entity.ScriptTransformer{Script: "return msg"},
	}

	result, err := p.Process(ctx, channel, testMessage)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSuccess, result.Status)
	assert.Equal(t, channel.Id, result.ChannelId)
	assert.NotEmpty(t, result.ProcessId)
	assert.Equal(t, testMessage, result.Original)
	assert.NotNil(t, result.Processed)
	assert.False(t, result.CompletedAt.Before(result.StartedAt))

	require.Len(t, result.DispatchResults, 2)
	for i, dr := range result.DispatchResults {
		assert.Equal(t, i, dr.Destination)
		assert.True(t, dr.Success)
	}
	assert.Len(t, httpSender.Calls(), 1)
	assert.Len(t, tcpSender.Calls(), 1)
}

func TestProcessDisabledChannel(t *testing.T) {
	httpSender := &canaltest.MockHTTPSender{}
	runner := canaltest.PassAllRunner()
	p := NewProcessor(Config{ScriptRunner: runner, HTTPSender: httpSender})

	channel := testChannel()
	channel.Enabled = false
	channel.Filters = []entity.FilterConfig{entity.ScriptFilter{Script: "return true"}}

	result, err := p.Process(context.Background(), channel, testMessage)
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrChannelDisabled))

	// Nothing downstream was touched
	assert.Zero(t, runner.Calls())
	assert.Empty(t, httpSender.Calls())
}

func TestProcessFilterRejection(t *testing.T) {
	httpSender := &canaltest.MockHTTPSender{}
	tcpSender := &canaltest.MockTCPSender{}
	transformRunner := canaltest.TransformRunner(func(message []byte) []byte { return message })
	p := NewProcessor(Config{
		ScriptRunner: transformRunner,
		HTTPSender:   httpSender,
		TCPSender:    tcpSender,
	})

	channel := testChannel()
	channel.Filters = []entity.FilterConfig{
		entity.PathQueryFilter{Path: "event.kind", Condition: "exists"},
		entity.PathQueryFilter{Path: "event.kind", Condition: "== refund"},
		entity.PathQueryFilter{Path: "event.kind", Condition: "exists"},
	}
	channel.Transformers = []entity.TransformerConfig{
		entity.ScriptTransformer{Script: "return msg"},
	}

	result, err := p.Process(context.Background(), channel, testMessage)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFiltered, result.Status)
	assert.Contains(t, result.FilterReason, "filter 1")
	assert.Nil(t, result.Processed)
	assert.Empty(t, result.DispatchResults)

	// Rejection short-circuits: no transformer ran, no dispatch happened
	assert.Zero(t, transformRunner.Calls())
	assert.Empty(t, httpSender.Calls())
	assert.Empty(t, tcpSender.Calls())
}

func TestProcessTransformError(t *testing.T) {
	httpSender := &canaltest.MockHTTPSender{}
	tcpSender := &canaltest.MockTCPSender{}
	p := NewProcessor(Config{
		ScriptRunner: canaltest.FaultyRunner(),
		HTTPSender:   httpSender,
		TCPSender:    tcpSender,
	})

	channel := testChannel()
	channel.Transformers = []entity.TransformerConfig{
		entity.ScriptTransformer{Script: "boom()"},
	}

	result, err := p.Process(context.Background(), channel, testMessage)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusTransformError, result.Status)
	assert.Contains(t, result.TransformError, "transformer 0")
	assert.Empty(t, result.DispatchResults)
	assert.Empty(t, httpSender.Calls())
	assert.Empty(t, tcpSender.Calls())
}

func TestProcessPartialDispatchFailure(t *testing.T) {
	p := NewProcessor(Config{
		HTTPSender: &canaltest.MockHTTPSender{
			SendFunc: func(ctx context.Context, method, url string, headers map[string]string, body []byte) (*entity.HTTPResponse, error) {
				return &entity.HTTPResponse{StatusCode: 500}, nil
			},
		},
		TCPSender: &canaltest.MockTCPSender{},
	})

	result, err := p.Process(context.Background(), testChannel(), testMessage)
	require.NoError(t, err)

	// Partial destination failure is still a completed run
	assert.Equal(t, entity.StatusSuccess, result.Status)
	require.Len(t, result.DispatchResults, 2)
	assert.False(t, result.DispatchResults[0].Success)
	assert.Equal(t, 500, result.DispatchResults[0].ResponseCode)
	assert.True(t, result.DispatchResults[1].Success)
}

func TestProcessChainOrder(t *testing.T) {
	// Each transformer appends its script name, proving strict configured order
	// with each step feeding the next.
	var order []string
	runner := &canaltest.MockScriptRunner{
		RunFunc: func(ctx context.Context, script string, message []byte) (entity.ScriptResult, error) {
			order = append(order, script)
			return entity.ScriptResult{Message: append(append([]byte{}, message...), []byte(script)...)}, nil
		},
	}
	p := NewProcessor(Config{ScriptRunner: runner, HTTPSender: &canaltest.MockHTTPSender{}})

	channel := testChannel()
	channel.Destinations = channel.Destinations[:1]
	channel.Transformers = []entity.TransformerConfig{
		entity.ScriptTransformer{Script: "-t1"},
		entity.ScriptTransformer{Script: "-t2"},
	}

	result, err := p.Process(context.Background(), channel, []byte("m"))
	require.NoError(t, err)
	assert.Equal(t, []string{"-t1", "-t2"}, order)
	assert.Equal(t, []byte("m-t1-t2"), result.Processed)
	assert.Equal(t, []byte("m"), result.Original)
}

func TestProcessNoFiltersNoTransformers(t *testing.T) {
	httpSender := &canaltest.MockHTTPSender{}
	p := NewProcessor(Config{HTTPSender: httpSender, TCPSender: &canaltest.MockTCPSender{}})

	result, err := p.Process(context.Background(), testChannel(), testMessage)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSuccess, result.Status)
	assert.Equal(t, testMessage, result.Processed)
}

func TestProcessRecoversFromPanics(t *testing.T) {
	p := NewProcessor(Config{
		HTTPSender: &canaltest.MockHTTPSender{},
		TCPSender: &canaltest.MockTCPSender{
			SendFunc: func(ctx context.Context, host string, port int, payload []byte, useFraming bool) (int, error) {
				panic("sender bug")
			},
		},
	})

	result, err := p.Process(context.Background(), testChannel(), testMessage)
	require.NoError(t, err)

	// The panic is contained in that destination's result; the run completes.
	assert.Equal(t, entity.StatusSuccess, result.Status)
	require.Len(t, result.DispatchResults, 2)
	assert.True(t, result.DispatchResults[0].Success)
	assert.False(t, result.DispatchResults[1].Success)
	assert.Contains(t, result.DispatchResults[1].Error, "panic")
}

func TestProcessAlwaysYieldsResult(t *testing.T) {
	p := NewProcessor(Config{
		HTTPSender: &canaltest.MockHTTPSender{},
		TCPSender:  &canaltest.MockTCPSender{},
	})

	// A nil chain entry panics outside the engines' own recovers. The run
	// must still end in a terminal result, never in (nil, nil).
	channel := testChannel()
	channel.Filters = []entity.FilterConfig{nil}

	result, err := p.Process(context.Background(), channel, testMessage)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, entity.StatusError, result.Status)
	assert.Contains(t, result.Error, "panic")
	assert.False(t, result.CompletedAt.IsZero())
}

func TestProcessConcurrentMessages(t *testing.T) {
	p := NewProcessor(Config{
		ScriptRunner: canaltest.PassAllRunner(),
		HTTPSender:   &canaltest.MockHTTPSender{},
		TCPSender:    &canaltest.MockTCPSender{},
	})
	channel := testChannel()
	channel.Filters = []entity.FilterConfig{entity.ScriptFilter{Script: "return true"}}

	done := make(chan *entity.ProcessResult, 8)
	for i := 0; i < 8; i++ {
		go func() {
			result, err := p.Process(context.Background(), channel, testMessage)
			assert.NoError(t, err)
			done <- result
		}()
	}

	seen := map[string]bool{}
	for i := 0; i < 8; i++ {
		result := <-done
		assert.Equal(t, entity.StatusSuccess, result.Status)
		assert.False(t, seen[result.ProcessId])
		seen[result.ProcessId] = true
	}
}
