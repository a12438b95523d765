// Package canaltest provides test doubles for the external capabilities the
// pipeline consumes. There are no dependencies on the real transport or
// template entities.
package canaltest

import (
	"context"
	"errors"
	"sync"

	"github.com/canal-io/canal/entity"
)

//
// Script runner doubles
//

// MockScriptRunner delegates to RunFunc and counts invocations. With no
// RunFunc set every script passes and produces no replacement message.
type MockScriptRunner struct {
	RunFunc func(ctx context.Context, script string, message []byte) (entity.ScriptResult, error)

	mu    sync.Mutex
	calls int
}

func (m *MockScriptRunner) Run(ctx context.Context, script string, message []byte) (entity.ScriptResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.RunFunc == nil {
		return PassResult(nil), nil
	}
	return m.RunFunc(ctx, script, message)
}

func (m *MockScriptRunner) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// PassResult returns a passing script result, optionally replacing the message.
func PassResult(message []byte) entity.ScriptResult {
	passed := true
	return entity.ScriptResult{Passed: &passed, Message: message}
}

// RejectResult returns a failing script result.
func RejectResult() entity.ScriptResult {
	passed := false
	return entity.ScriptResult{Passed: &passed}
}

// PassAllRunner passes every message through unchanged.
func PassAllRunner() *MockScriptRunner {
	return &MockScriptRunner{}
}

// RejectAllRunner rejects every message.
func RejectAllRunner() *MockScriptRunner {
	return &MockScriptRunner{
		RunFunc: func(ctx context.Context, script string, message []byte) (entity.ScriptResult, error) {
			return RejectResult(), nil
		},
	}
}

// FaultyRunner fails every execution with an internal error.
func FaultyRunner() *MockScriptRunner {
	return &MockScriptRunner{
		RunFunc: func(ctx context.Context, script string, message []byte) (entity.ScriptResult, error) {
			return entity.ScriptResult{}, errors.New("simulated script runtime fault")
		},
	}
}

// TransformRunner applies fn to every message, passing the result through.
func TransformRunner(fn func(message []byte) []byte) *MockScriptRunner {
	return &MockScriptRunner{
		RunFunc: func(ctx context.Context, script string, message []byte) (entity.ScriptResult, error) {
			return entity.ScriptResult{Message: fn(message)}, nil
		},
	}
}

// NoOutputRunner completes successfully without producing any output.
func NoOutputRunner() *MockScriptRunner {
	return &MockScriptRunner{
		RunFunc: func(ctx context.Context, script string, message []byte) (entity.ScriptResult, error) {
			return entity.ScriptResult{}, nil
		},
	}
}

//
// Template renderer double
//

type MockTemplateRenderer struct {
	RenderFunc func(ctx context.Context, template, engine string, message []byte) ([]byte, error)
}

func (m *MockTemplateRenderer) Render(ctx context.Context, template, engine string, message []byte) ([]byte, error) {
	if m.RenderFunc == nil {
		return []byte(template), nil
	}
	return m.RenderFunc(ctx, template, engine, message)
}

//
// Transport doubles. Dispatch fans out concurrently, so call recording is
// mutex protected.
//

type HTTPCall struct {
	Method  string
	Url     string
	Headers map[string]string
	Body    []byte
}

type MockHTTPSender struct {
	SendFunc func(ctx context.Context, method, url string, headers map[string]string, body []byte) (*entity.HTTPResponse, error)

	mu    sync.Mutex
	calls []HTTPCall
}

func (m *MockHTTPSender) Send(ctx context.Context, method, url string, headers map[string]string, body []byte) (*entity.HTTPResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, HTTPCall{Method: method, Url: url, Headers: headers, Body: body})
	m.mu.Unlock()

	if m.SendFunc == nil {
		return &entity.HTTPResponse{StatusCode: 200}, nil
	}
	return m.SendFunc(ctx, method, url, headers, body)
}

func (m *MockHTTPSender) Calls() []HTTPCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]HTTPCall(nil), m.calls...)
}

type TCPCall struct {
	Host       string
	Port       int
	Payload    []byte
	UseFraming bool
}

type MockTCPSender struct {
	SendFunc func(ctx context.Context, host string, port int, payload []byte, useFraming bool) (int, error)

	mu    sync.Mutex
	calls []TCPCall
}

func (m *MockTCPSender) Send(ctx context.Context, host string, port int, payload []byte, useFraming bool) (int, error) {
	m.mu.Lock()
	m.calls = append(m.calls, TCPCall{Host: host, Port: port, Payload: payload, UseFraming: useFraming})
	m.mu.Unlock()

	if m.SendFunc == nil {
		return len(payload), nil
	}
	return m.SendFunc(ctx, host, port, payload, useFraming)
}

func (m *MockTCPSender) Calls() []TCPCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TCPCall(nil), m.calls...)
}
