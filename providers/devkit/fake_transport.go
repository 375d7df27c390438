package devkit

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-messaging-providers/core"
)

// TransportScript is one scripted transport outcome.
type TransportScript struct {
	Response core.HTTPResponse
	Err      error
}

// FakeTransport replays scripted responses in order, repeating the last one
// once the script runs out, and records every request it receives.
type FakeTransport struct {
	mu       sync.Mutex
	scripts  []TransportScript
	requests []core.HTTPRequest
}

func NewFakeTransport(scripts ...TransportScript) *FakeTransport {
	return &FakeTransport{scripts: append([]TransportScript(nil), scripts...)}
}

// RespondJSON is a convenience script returning status with a JSON body.
func RespondJSON(status int, body string) TransportScript {
	return TransportScript{Response: core.HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       []byte(body),
	}}
}

// Fail is a script that returns a transport level error.
func Fail(code string, message string) TransportScript {
	return TransportScript{Err: &core.TransportError{Code: code, Message: message}}
}

func (f *FakeTransport) Send(_ context.Context, req core.HTTPRequest) (core.HTTPResponse, error) {
	if f == nil {
		return core.HTTPResponse{}, fmt.Errorf("devkit: fake transport is nil")
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, cloneRequest(req))
	index := len(f.requests) - 1
	if index < len(f.scripts) {
		script := f.scripts[index]
		return cloneResponse(script.Response), script.Err
	}
	if len(f.scripts) > 0 {
		last := f.scripts[len(f.scripts)-1]
		return cloneResponse(last.Response), last.Err
	}
	return core.HTTPResponse{StatusCode: 200, Headers: map[string]string{}}, nil
}

func (f *FakeTransport) Requests() []core.HTTPRequest {
	if f == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]core.HTTPRequest, 0, len(f.requests))
	for _, item := range f.requests {
		out = append(out, cloneRequest(item))
	}
	return out
}

func (f *FakeTransport) Calls() int {
	if f == nil {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func cloneRequest(in core.HTTPRequest) core.HTTPRequest {
	out := core.HTTPRequest{
		Method:  in.Method,
		URL:     in.URL,
		Headers: map[string]string{},
		Body:    append([]byte(nil), in.Body...),
	}
	for key, value := range in.Headers {
		out.Headers[key] = value
	}
	return out
}

func cloneResponse(in core.HTTPResponse) core.HTTPResponse {
	out := core.HTTPResponse{
		StatusCode: in.StatusCode,
		Headers:    map[string]string{},
		Body:       append([]byte(nil), in.Body...),
	}
	for key, value := range in.Headers {
		out.Headers[key] = value
	}
	return out
}

var _ core.Transport = (*FakeTransport)(nil)
