// Package xhttp provides the built-in HTTP transport client used by the
// dispatcher for HTTP destinations.
package xhttp

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/canal-io/canal/entity"
)

// Sender performs exactly one HTTP request/response attempt per Send call.
// Retries, if any, belong to layers above this core. Timeouts are governed by
// the caller's context.
type Sender struct {
	client *http.Client
}

func NewSender() *Sender {
	return &Sender{client: &http.Client{}}
}

func (s *Sender) Send(ctx context.Context, method, url string, headers map[string]string, body []byte) (*entity.HTTPResponse, error) {

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &entity.HTTPResponse{StatusCode: resp.StatusCode, Body: respBody}, nil
}
