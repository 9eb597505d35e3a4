// internal/action/action_test.go
package action

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpclient "loanbridge/internal/common/http"
	"loanbridge/internal/store"
)

func newTestFactory(t *testing.T, handler http.HandlerFunc) (*Factory, *store.Store, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	st := store.New()
	return NewFactory(httpclient.NewClient(5*time.Second), st), st, srv.URL
}

func TestExecuteSuccess(t *testing.T) {
	var gotMethod, gotAuth string
	f, st, url := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"message": "created",
			"data":    map[string]interface{}{"id": "42"},
		})
	})

	var successCalled bool
	res := f.Execute(context.Background(), Options{
		Method:    "POST",
		URL:       url,
		LoaderKey: "createThing",
		AuthToken: func() string { return "tok" },
		OnSuccess: func(resp *httpclient.JSONResponse, dispatch Dispatcher) {
			successCalled = true
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		},
	}, map[string]interface{}{"name": "x"})

	require.True(t, res.Success)
	assert.Equal(t, "created", res.Message)
	assert.Equal(t, "POST", gotMethod)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.True(t, successCalled)
	assert.False(t, st.IsLoading("createThing"))
}

func TestExecuteHTTPError(t *testing.T) {
	f, st, url := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "amount out of range",
		})
	})

	var gotErr error
	res := f.Execute(context.Background(), Options{
		Method:    "POST",
		URL:       url,
		LoaderKey: "createThing",
		OnError:   func(err error) { gotErr = err },
	}, nil)

	assert.False(t, res.Success)
	assert.Equal(t, "amount out of range", res.Error)
	require.Error(t, gotErr)
	assert.False(t, st.IsLoading("createThing"))
}

func TestExecuteTransportError(t *testing.T) {
	st := store.New()
	f := NewFactory(httpclient.NewClient(time.Second), st)

	res := f.Execute(context.Background(), Options{
		Method: "GET",
		URL:    "http://127.0.0.1:1/nowhere",
	}, nil)

	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestExecuteURLFunc(t *testing.T) {
	var gotPath string
	f, _, url := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	})

	res := f.Execute(context.Background(), Options{
		Method: "GET",
		URLFunc: func(data interface{}) string {
			return url + "/loans/" + data.(string)
		},
	}, "abc-123")

	require.True(t, res.Success)
	assert.Equal(t, "/loans/abc-123", gotPath)
}

func TestExecuteLoaderFlagDuringCall(t *testing.T) {
	st := store.New()
	var duringCall bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		duringCall = st.IsLoading("fetch")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))
	t.Cleanup(srv.Close)

	f := NewFactory(httpclient.NewClient(5*time.Second), st)
	res := f.Execute(context.Background(), Options{Method: "GET", URL: srv.URL, LoaderKey: "fetch"}, nil)

	require.True(t, res.Success)
	assert.True(t, duringCall)
	assert.False(t, st.IsLoading("fetch"))
}
