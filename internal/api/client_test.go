package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Alexander-D-Karpov/sleeves/internal/config"
	"github.com/Alexander-D-Karpov/sleeves/internal/devserver"
	"github.com/Alexander-D-Karpov/sleeves/internal/metrics"
	"github.com/Alexander-D-Karpov/sleeves/internal/reward"
	"github.com/Alexander-D-Karpov/sleeves/pkg/types"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	cfg := config.Default()
	cfg.API.BaseURL = baseURL
	cfg.API.RateLimit.RequestsPerSecond = 1000
	cfg.API.RateLimit.BurstSize = 100

	client, err := NewClient(cfg, zap.NewNop(), metrics.New())
	require.NoError(t, err)
	return client
}

func newDevClient(t *testing.T) *Client {
	t.Helper()
	srv := devserver.NewServer(devserver.ServerConfig{
		Engine:         reward.NewEngine(reward.NewSeededSource(3)),
		StartingWallet: 100,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return newTestClient(t, ts.URL)
}

func serve(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return newTestClient(t, ts.URL)
}

func TestCall_Success(t *testing.T) {
	client := newDevClient(t)

	res := client.Call(context.Background(), Request{Op: OpSleeves})
	require.True(t, res.OK())
	assert.Equal(t, http.StatusOK, res.Status)

	sleeves, gerr := Decode[[]types.Sleeve](res)
	require.Nil(t, gerr)
	assert.Len(t, sleeves, 3)
}

func TestCall_StatusErrorDetail(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{"detail field", http.StatusBadRequest, `{"detail":"Sleeve is empty"}`, "Sleeve is empty"},
		{"message field", http.StatusConflict, `{"message":"busy"}`, "busy"},
		{"error field", http.StatusInternalServerError, `{"error":"boom"}`, "boom"},
		{"raw text", http.StatusBadGateway, "upstream down\n", "upstream down"},
		{"empty body", http.StatusServiceUnavailable, "", "503 Service Unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := serve(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			res := client.Call(context.Background(), Request{Op: OpInventory})
			require.False(t, res.OK())
			assert.Equal(t, KindStatus, res.Err.Kind)
			assert.Equal(t, tt.status, res.Err.Status)
			assert.Equal(t, tt.wantDetail, res.Err.Detail)
			assert.True(t, res.Err.Reached())
		})
	}
}

func TestCall_ServerErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := serve(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	res := client.Call(context.Background(), Request{Op: OpOpenSleeve, SleeveID: "sleeve_pop_01"})
	require.False(t, res.OK())
	assert.Equal(t, int32(1), calls.Load())
}

func TestCall_MalformedBody(t *testing.T) {
	client := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("<html>oops</html>"))
	})

	res := client.Call(context.Background(), Request{Op: OpOpenSleeve, SleeveID: "x"})
	require.False(t, res.OK())
	assert.Equal(t, KindMalformed, res.Err.Kind)
	assert.Equal(t, http.StatusCreated, res.Err.Status)
	assert.True(t, res.Err.Reached())
}

func TestCall_EmptyBodyIsOK(t *testing.T) {
	client := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	res := client.Call(context.Background(), Request{Op: OpLogout})
	require.True(t, res.OK())
	assert.Nil(t, res.Body)

	_, gerr := Decode[types.SessionResponse](res)
	require.NotNil(t, gerr)
	assert.Equal(t, KindMalformed, gerr.Kind)
}

func TestCall_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	client := newTestClient(t, url)
	res := client.Call(context.Background(), Request{Op: OpSession})
	require.False(t, res.OK())
	assert.Equal(t, KindTransport, res.Err.Kind)
	assert.False(t, res.Err.Reached())
	assert.Zero(t, res.Err.Status)

	var gerr *GatewayError
	require.True(t, errors.As(error(res.Err), &gerr))

	stats := client.Stats()
	assert.Equal(t, int64(1), stats["total_errors"])
}

func TestCall_CancelledContext(t *testing.T) {
	client := newDevClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := client.Call(ctx, Request{Op: OpSleeves})
	require.False(t, res.OK())
	assert.Equal(t, KindTransport, res.Err.Kind)
}

func TestCall_UnknownOperation(t *testing.T) {
	client := newDevClient(t)
	res := client.Call(context.Background(), Request{Op: Operation("bogus")})
	require.False(t, res.OK())
	assert.Equal(t, KindTransport, res.Err.Kind)
}

func TestCall_EscapesSleeveID(t *testing.T) {
	paths := make(chan string, 1)
	client := serve(t, func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.EscapedPath()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"a","title":"t","artist":"x","coverUrl":"","genre":"Pop","rarity":"Rare","obtainedAt":"2026-01-01T00:00:00Z"}`))
	})

	_, err := client.OpenSleeve(context.Background(), "a b/c")
	require.NoError(t, err)
	assert.Equal(t, "/api/sleeves/a%20b%2Fc/open", <-paths)
}

func TestCall_Headers(t *testing.T) {
	headers := make(chan http.Header, 1)
	client := serve(t, func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Clone()
		_, _ = w.Write([]byte(`{"user":null}`))
	})

	_, err := client.Login(context.Background(), types.Credentials{Username: "a", Password: "b"})
	require.Error(t, err)

	got := <-headers
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.NotEmpty(t, got.Get("X-Request-ID"))
	assert.Equal(t, "sleeves/1.0.0", got.Get("User-Agent"))
}

func TestClient_SessionCookieRoundTrip(t *testing.T) {
	client := newDevClient(t)
	ctx := context.Background()

	user, err := client.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)

	registered, err := client.Register(ctx, types.Credentials{Username: "ana", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "ana", registered.Username)

	user, err = client.GetSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, registered.ID, user.ID)

	owned, err := client.OpenSleeve(ctx, "sleeve_indie_01")
	require.NoError(t, err)
	require.NotNil(t, owned.Owner)
	assert.Equal(t, "ana", *owned.Owner)

	items, err := client.GetInventory(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, client.Logout(ctx))
	user, err = client.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)

	_, err = client.Login(ctx, types.Credentials{Username: "ana", Password: "nope"})
	var gerr *GatewayError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, http.StatusUnauthorized, gerr.Status)
	assert.Equal(t, "Invalid credentials", gerr.Detail)
}

func TestDecode(t *testing.T) {
	_, gerr := Decode[types.OwnedSong](Result{Op: OpOpenSleeve, Status: 201, Body: []byte(`[1,2]`)})
	require.NotNil(t, gerr)
	assert.Equal(t, KindMalformed, gerr.Kind)

	failed := Result{Op: OpInventory, Err: &GatewayError{Op: OpInventory, Kind: KindTransport}}
	_, gerr = Decode[[]types.OwnedSong](failed)
	assert.Same(t, failed.Err, gerr)
}
