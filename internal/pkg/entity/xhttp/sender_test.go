package xhttp

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend(t *testing.T) {
	var gotMethod, gotContentType, gotOrigin string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotOrigin = r.Header.Get("X-Origin")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"accepted": true}`))
	}))
	defer server.Close()

	s := NewSender()
	payload := []byte(`{"event": "order"}`)
	response, err := s.Send(context.Background(), "POST", server.URL, map[string]string{"X-Origin": "canal"}, payload)
	require.NoError(t, err)

	assert.Equal(t, 201, response.StatusCode)
	assert.Equal(t, []byte(`{"accepted": true}`), response.Body)
	assert.Equal(t, "POST", gotMethod)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "canal", gotOrigin)
	assert.Equal(t, payload, gotBody)
}

func TestSendHeaderOverride(t *testing.T) {
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
	}))
	defer server.Close()

	s := NewSender()
	_, err := s.Send(context.Background(), "PUT", server.URL, map[string]string{"Content-Type": "text/plain"}, []byte("hi"))
	require.NoError(t, err)
	assert.Equal(t, "text/plain", gotContentType)
}

func TestSendErrorStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	s := NewSender()
	response, err := s.Send(context.Background(), "POST", server.URL, nil, []byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, 503, response.StatusCode)
}

func TestSendContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	s := NewSender()
	_, err := s.Send(ctx, "POST", server.URL, nil, []byte("{}"))
	assert.Error(t, err)
}
