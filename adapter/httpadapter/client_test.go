package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c0deZ3R0/journal-sync/payload"
)

func TestGetEntity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/entities/manuscript/ms-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"title": "A study"})
	}))
	defer srv.Close()

	a := New(srv.URL)
	p, err := a.GetEntity(context.Background(), "manuscript", "ms-1")
	require.NoError(t, err)
	assert.Equal(t, payload.Payload{"title": "A study"}, p)
}

func TestGetEntityNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	a := New(srv.URL)
	p, err := a.GetEntity(context.Background(), "manuscript", "missing")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestGetEntityServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := New(srv.URL)
	_, err := a.GetEntity(context.Background(), "manuscript", "ms-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 500")
}

func TestGetEntityEscapesPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	a := New(srv.URL)
	_, err := a.GetEntity(context.Background(), "editorial decision", "d/1")
	require.NoError(t, err)
	assert.Equal(t, "/entities/editorial%20decision/d%2F1", gotPath)
}

func TestPushEntity(t *testing.T) {
	var gotBody payload.Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/entities/reviewer/r-1", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	a := New(srv.URL)
	err := a.PushEntity(context.Background(), "reviewer", "r-1", payload.Payload{"name": "Dr. Smith"})
	require.NoError(t, err)
	assert.Equal(t, payload.Payload{"name": "Dr. Smith"}, gotBody)
}

func TestPushEntityRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	a := New(srv.URL)
	err := a.PushEntity(context.Background(), "reviewer", "r-1", payload.Payload{"name": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 409")
}

func TestGetSystemStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/status", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok"})
	}))
	defer srv.Close()

	a := New(srv.URL)
	p, err := a.GetSystemStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", p["status"])
}

func TestAuthTokenHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	a := New(srv.URL, WithAuthToken("secret-token"))
	_, err := a.GetSystemStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", gotAuth)
}

func TestContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := New(srv.URL)
	_, err := a.GetEntity(ctx, "manuscript", "ms-1")
	require.Error(t, err)
}
