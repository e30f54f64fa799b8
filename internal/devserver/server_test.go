package devserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alexander-D-Karpov/sleeves/internal/catalog"
	"github.com/Alexander-D-Karpov/sleeves/internal/reward"
	"github.com/Alexander-D-Karpov/sleeves/pkg/types"
)

type testBackend struct {
	srv    *Server
	ts     *httptest.Server
	client *http.Client
}

func newBackend(t *testing.T, sleeves []types.Sleeve) *testBackend {
	t.Helper()

	srv := NewServer(ServerConfig{
		Sleeves:        sleeves,
		Engine:         reward.NewEngine(reward.NewSeededSource(1)),
		StartingWallet: 100,
		Clock:          func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testBackend{srv: srv, ts: ts, client: &http.Client{Jar: jar}}
}

func (b *testBackend) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, b.ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestSleeves_ListsCatalog(t *testing.T) {
	b := newBackend(t, nil)

	resp := b.do(t, http.MethodGet, "/api/sleeves/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	sleeves := decodeBody[[]types.Sleeve](t, resp)
	require.Len(t, sleeves, 3)
	assert.Equal(t, "sleeve_pop_01", sleeves[0].ID)
	assert.Len(t, sleeves[0].Contents, 8)
}

func TestSleeves_EmptyCatalogIsList(t *testing.T) {
	b := newBackend(t, nil)
	b.srv.State().SetSleeves(nil)

	resp := b.do(t, http.MethodGet, "/api/sleeves/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.JSONEq(t, "[]", string(raw))
}

func TestSongs_Distinct(t *testing.T) {
	b := newBackend(t, nil)

	songs := decodeBody[[]types.Song](t, b.do(t, http.MethodGet, "/api/songs/", nil))
	assert.Len(t, songs, 17)
}

func TestOpenSleeve_GrantsAndPrepends(t *testing.T) {
	b := newBackend(t, nil)

	resp := b.do(t, http.MethodPost, "/api/sleeves/sleeve_indie_01/open", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	first := decodeBody[types.OwnedSong](t, resp)
	assert.Equal(t, "song_indie_see_you_40", first.ID)
	assert.Equal(t, types.RarityEpic, first.Rarity)
	assert.Nil(t, first.Owner)
	assert.True(t, first.ObtainedAt.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))

	resp = b.do(t, http.MethodPost, "/api/sleeves/sleeve_pop_01/open", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	second := decodeBody[types.OwnedSong](t, resp)

	items := decodeBody[[]types.OwnedSong](t, b.do(t, http.MethodGet, "/api/inventory/", nil))
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
	assert.Equal(t, first.ID, items[1].ID)
}

func TestOpenSleeve_Errors(t *testing.T) {
	sleeves := append(catalog.Sleeves(), types.Sleeve{ID: "empty", Name: "Empty", Genre: types.GenreRap, Contents: []types.SleeveSong{}})
	b := newBackend(t, sleeves)

	resp := b.do(t, http.MethodPost, "/api/sleeves/empty/open", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Sleeve is empty", decodeBody[detail](t, resp).Detail)

	resp = b.do(t, http.MethodPost, "/api/sleeves/nope/open", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = b.do(t, http.MethodGet, "/api/sleeves/sleeve_pop_01/open", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestAuth_RegisterLoginSessionLogout(t *testing.T) {
	b := newBackend(t, nil)
	creds := types.Credentials{Username: "ana", Password: "secret"}

	session := decodeBody[types.SessionResponse](t, b.do(t, http.MethodGet, "/api/auth/session/", nil))
	assert.Nil(t, session.User)

	resp := b.do(t, http.MethodPost, "/api/auth/register/", creds)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	registered := decodeBody[types.SessionResponse](t, resp)
	require.NotNil(t, registered.User)
	assert.Equal(t, "ana", registered.User.Username)
	assert.Equal(t, 100, registered.User.Wallet)

	session = decodeBody[types.SessionResponse](t, b.do(t, http.MethodGet, "/api/auth/session/", nil))
	require.NotNil(t, session.User)
	assert.Equal(t, registered.User.ID, session.User.ID)

	resp = b.do(t, http.MethodPost, "/api/sleeves/sleeve_indie_01/open", nil)
	owned := decodeBody[types.OwnedSong](t, resp)
	require.NotNil(t, owned.Owner)
	assert.Equal(t, "ana", *owned.Owner)

	resp = b.do(t, http.MethodPost, "/api/auth/logout/", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	session = decodeBody[types.SessionResponse](t, b.do(t, http.MethodGet, "/api/auth/session/", nil))
	assert.Nil(t, session.User)

	resp = b.do(t, http.MethodPost, "/api/auth/login/", types.Credentials{Username: "ana", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = b.do(t, http.MethodPost, "/api/auth/login/", creds)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	items := decodeBody[[]types.OwnedSong](t, b.do(t, http.MethodGet, "/api/inventory/", nil))
	require.Len(t, items, 1)
	assert.Equal(t, "song_indie_see_you_40", items[0].ID)
}

func TestAuth_Validation(t *testing.T) {
	b := newBackend(t, nil)

	resp := b.do(t, http.MethodPost, "/api/auth/login/", types.Credentials{Username: "  ", Password: "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = b.do(t, http.MethodPost, "/api/auth/register/", types.Credentials{Username: "bob", Password: "pw"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = b.do(t, http.MethodPost, "/api/auth/register/", types.Credentials{Username: "bob", Password: "pw"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Username already taken", decodeBody[detail](t, resp).Detail)
}

func TestInventory_OwnerQuery(t *testing.T) {
	b := newBackend(t, nil)

	resp := b.do(t, http.MethodGet, "/api/inventory/?owner=ghost", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = b.do(t, http.MethodGet, "/api/inventory/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeBody[[]types.OwnedSong](t, resp))
}
