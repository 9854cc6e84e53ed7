package http_test

import (
	"context"
	"encoding/json"
	gohttp "net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	souqhttp "github.com/shashiranjanraj/souq/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostJSONWithBearer(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hi", body["subject"])
		w.Write([]byte(`{"id":"m_1"}`))
	}))
	defer srv.Close()

	resp, err := souqhttp.New(nil).Post(srv.URL).Bearer("key").Body(map[string]string{"subject": "hi"}).Send(context.Background())
	require.NoError(t, err)
	require.NoError(t, resp.Throw())

	var out struct{ ID string }
	require.NoError(t, resp.JSON(&out))
	assert.Equal(t, "m_1", out.ID)
}

func TestRetriesOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(gohttp.StatusBadGateway)
			return
		}
		w.WriteHeader(gohttp.StatusOK)
	}))
	defer srv.Close()

	resp, err := souqhttp.New(nil).Get(srv.URL).Retry(3, time.Millisecond).Send(context.Background())
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(gohttp.StatusUnprocessableEntity)
		w.Write([]byte(`bad address`))
	}))
	defer srv.Close()

	resp, err := souqhttp.New(nil).Post(srv.URL).Retry(3, time.Millisecond).Send(context.Background())
	require.NoError(t, err)
	assert.ErrorContains(t, resp.Throw(), "422")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
