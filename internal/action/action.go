// Package action provides the shared wrapper that issues one HTTP call,
// toggles a named loading flag in the shared store, optionally mirrors
// server state into the store on success, and returns a uniform result
// envelope. Exactly one attempt per execution: no retry, no timeout beyond
// the caller's context, no cancellation.
package action

import (
	"context"
	"fmt"

	httpclient "loanbridge/internal/common/http"
	"loanbridge/internal/common/metrics"
	"loanbridge/internal/store"
)

// Result is the uniform envelope every execution returns.
type Result struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Message string                 `json:"message,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// Dispatcher is the store handle success callbacks receive.
type Dispatcher interface {
	Dispatch(cmd store.Command)
}

// Options configures one action.
type Options struct {
	Method    string
	URL       string
	// URLFunc, when set, derives the URL from the request payload and
	// takes precedence over URL.
	URLFunc   func(data interface{}) string
	LoaderKey string
	// AuthToken, when non-empty, is sent as a bearer token.
	AuthToken func() string
	OnSuccess func(resp *httpclient.JSONResponse, dispatch Dispatcher)
	OnError   func(err error)
}

// Factory builds executable actions bound to a shared store and HTTP client.
type Factory struct {
	client *httpclient.Client
	store  *store.Store
}

func NewFactory(client *httpclient.Client, st *store.Store) *Factory {
	return &Factory{client: client, store: st}
}

// Execute runs one action: flag up, one request, flag down.
func (f *Factory) Execute(ctx context.Context, opts Options, data interface{}) Result {
	if opts.LoaderKey != "" {
		f.store.Dispatch(store.SetLoader{Key: opts.LoaderKey, Value: true})
		defer f.store.Dispatch(store.SetLoader{Key: opts.LoaderKey, Value: false})
	}

	url := opts.URL
	if opts.URLFunc != nil {
		url = opts.URLFunc(data)
	}

	headers := map[string]string{}
	if opts.AuthToken != nil {
		if token := opts.AuthToken(); token != "" {
			headers["Authorization"] = "Bearer " + token
		}
	}

	resp, err := f.client.DoJSON(ctx, opts.Method, url, data, headers)
	if err != nil {
		metrics.ActionsExecuted.WithLabelValues(opts.LoaderKey, "error").Inc()
		if opts.OnError != nil {
			opts.OnError(err)
		}
		return Result{Success: false, Error: err.Error()}
	}

	if !resp.IsSuccess() {
		metrics.ActionsExecuted.WithLabelValues(opts.LoaderKey, "http_error").Inc()
		msg := resp.Message()
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		if opts.OnError != nil {
			opts.OnError(fmt.Errorf("%s", msg))
		}
		return Result{Success: false, Error: msg}
	}

	if opts.OnSuccess != nil {
		opts.OnSuccess(resp, f.store)
	}

	metrics.ActionsExecuted.WithLabelValues(opts.LoaderKey, "success").Inc()
	return Result{
		Success: true,
		Data:    resp.Body,
		Message: resp.Message(),
	}
}
