package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestCompositeHealthChecker(t *testing.T) {
	c := NewCompositeHealthChecker("v1")

	status := c.Check(context.Background())
	assert.True(t, status.Healthy)
	assert.Equal(t, "no stores to check", status.Message)

	c.AddCheck("postgres", NewDatabaseCheck(pingFunc(func(context.Context) error { return nil })))
	c.AddCheck("redis", NewCacheCheck(pingFunc(func(context.Context) error { return errors.New("connection refused") })))

	status = c.Check(context.Background())
	assert.False(t, status.Healthy)
	assert.True(t, status.Checks["postgres"].Healthy)
	assert.Equal(t, "connection refused", status.Checks["redis"].Message)
	assert.Equal(t, "unavailable: redis", status.Message)

	c.RemoveCheck("redis")
	assert.True(t, c.Check(context.Background()).Healthy)
}

func TestNewCacheCheck_NilCache(t *testing.T) {
	assert.NoError(t, NewCacheCheck(nil)(context.Background()))
}

func TestLimitBody(t *testing.T) {
	tooLarge := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusRequestEntityTooLarge) }
	h := LimitBody(8, tooLarge)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"0123456789"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSecureHeadersAndNoStore(t *testing.T) {
	h := SecureHeaders(NoStore(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}
