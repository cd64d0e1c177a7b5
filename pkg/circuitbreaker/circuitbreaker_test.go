package circuitbreaker

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_TripsAfterThreshold(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cb := New[int](Settings{Name: "test", FailureThreshold: 2, Timeout: time.Minute}, zap.New(core))

	boom := errors.New("boom")
	for i := 0; i < 2; i++ {
		_, err := cb.Execute(func() (int, error) { return 0, boom })
		assert.ErrorIs(t, err, boom)
	}

	_, err := cb.Execute(func() (int, error) { return 1, nil })
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.True(t, IsOpen(err))
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "closed", logs.All()[0].ContextMap()["from"])
	assert.Equal(t, "open", logs.All()[0].ContextMap()["to"])
}

func TestTransport_PassesThroughSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	tr := NewTransport(nil, Settings{Name: "backend", FailureThreshold: 1}, nil)
	client := &http.Client{Transport: tr}

	for i := 0; i < 3; i++ {
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, "4xx does not count as a failure")
	}
	assert.Equal(t, gobreaker.StateClosed, tr.State())
}

func TestTransport_OpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tr := NewTransport(nil, Settings{Name: "backend", FailureThreshold: 2, Timeout: time.Minute}, nil)
	client := &http.Client{Transport: tr}

	for i := 0; i < 2; i++ {
		resp, err := client.Get(srv.URL)
		require.NoError(t, err, "5xx is returned as a response")
		resp.Body.Close()
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	}

	_, err := client.Get(srv.URL)
	require.Error(t, err)
	assert.True(t, IsOpen(err))
	assert.Equal(t, int32(2), hits.Load(), "open breaker must not reach the server")
}
