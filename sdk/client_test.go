package sdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/indiarose/sync-server/internal/common"
	"github.com/indiarose/sync-server/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelopeOK(t *testing.T, w http.ResponseWriter, content any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
		"HasError": false, "ErrorCode": 0, "ErrorMessage": "", "Content": content,
	}))
}

func TestClient_SendsCredentialHeaders(t *testing.T) {
	var gotLogin, gotPassword, gotDevice string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/devices/list", r.URL.Path)
		gotLogin = r.Header.Get("x-indiarose-login")
		gotPassword = r.Header.Get("x-indiarose-password")
		gotDevice = r.Header.Get("x-indiarose-device")
		envelopeOK(t, w, []Device{{Name: "tablet"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "india", "rose", WithDevice("tablet"))
	devices, err := c.ListDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "tablet", devices[0].Name)

	assert.Equal(t, "india", gotLogin)
	assert.Equal(t, cryptox.PasswordHash("rose"), gotPassword)
	assert.Equal(t, "tablet", gotDevice)
}

func TestClient_LoginSwitchesToBearer(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/users/login":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "india", body["Login"])
			envelopeOK(t, w, map[string]string{"Token": "jwt-token"})
		case "/api/v1/versions/create":
			gotAuth = r.Header.Get("Authorization")
			envelopeOK(t, w, Version{Version: 1})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "india", "rose", WithDevice("tablet"))
	require.NoError(t, c.Login(context.Background()))

	v, err := c.CreateVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Version)
	assert.Equal(t, "Bearer jwt-token", gotAuth)
}

func TestClient_Register_LegacyCodes(t *testing.T) {
	tests := []struct {
		code int
		want error
	}{
		{100, common.ErrorLoginExists},
		{101, common.ErrorEmailExists},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"HasError": true, "ErrorCode": tt.code, "ErrorMessage": "exists",
			})
		}))

		c := NewClient(srv.URL, "india", "rose")
		err := c.Register(context.Background(), "india@example.com")
		assert.ErrorIs(t, err, tt.want)
		srv.Close()
	}
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, common.ErrorNotFound},
		{http.StatusForbidden, common.ErrorForbidden},
		{http.StatusConflict, common.ErrorConflict},
		{http.StatusBadRequest, common.ErrorBadRequest},
		{http.StatusUnauthorized, common.ErrorUnauthorized},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tt.status)
			json.NewEncoder(w).Encode(map[string]any{
				"HasError": true, "ErrorCode": tt.status, "ErrorMessage": "nope",
			})
		}))

		c := NewClient(srv.URL, "india", "rose")
		_, err := c.LastSettings(context.Background())
		assert.ErrorIs(t, err, tt.want, "status %d", tt.status)
		srv.Close()
	}
}

func TestClient_UploadImage_BodyShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/indiagrams/images/5/2", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "dog.png", body["Filename"])
		assert.Equal(t, "cG5n", body["Content"])
		envelopeOK(t, w, nil)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "india", "rose", WithDevice("tablet"))
	require.NoError(t, c.UploadImage(context.Background(), 5, 2, "dog.png", []byte("png")))
}

func TestClient_CollectionTree(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/indiagrams/all/3", r.URL.Path)
		envelopeOK(t, w, []*Indiagram{
			{DatabaseID: 1, Text: "animals", IsCategory: true, Children: []*Indiagram{
				{DatabaseID: 2, ParentID: 1, Text: "dog", Children: []*Indiagram{}},
			}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "india", "rose", WithDevice("tablet"))
	tree, err := c.CollectionAt(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "dog", tree[0].Children[0].Text)
}

func TestClient_UpdateIndiagrams_MapsIds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqs []*IndiagramUpdate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqs))
		require.Len(t, reqs, 2)
		envelopeOK(t, w, []MappedIndiagram{
			{SentID: -2, DatabaseID: 10, ParentID: -1},
			{SentID: -3, DatabaseID: 11, ParentID: 10},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "india", "rose", WithDevice("tablet"))
	mapped, err := c.UpdateIndiagrams(context.Background(), []*IndiagramUpdate{
		{ID: -2, Version: 1, Text: "a", ParentID: -1},
		{ID: -3, Version: 1, Text: "b", ParentID: -2},
	})
	require.NoError(t, err)
	require.Len(t, mapped, 2)
	assert.Equal(t, int64(10), mapped[1].ParentID)
}
