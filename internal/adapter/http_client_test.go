// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MKhiriev/go-vault-local/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRemoteStoreServer(t *testing.T, handler http.HandlerFunc) RemoteStore {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewHTTPRemoteStore(HTTPClientConfig{BaseURL: server.URL, Timeout: 2 * time.Second})
}

func newBlobTransportServer(t *testing.T, handler http.HandlerFunc) BlobTransport {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewHTTPBlobTransport(HTTPClientConfig{BaseURL: server.URL, Timeout: 2 * time.Second})
}

// ── RemoteStore ──────────────────────────────────────────────────────────────

func TestHTTPRemoteStore_Fetch(t *testing.T) {
	remote := newRemoteStoreServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/entries/entry-1", r.URL.Path)
		_ = json.NewEncoder(w).Encode(models.CredentialEntry{ID: "entry-1", Title: "GitHub"})
	})

	entry, err := remote.Fetch(context.Background(), "entry-1")
	require.NoError(t, err)
	assert.Equal(t, "entry-1", entry.ID)
	assert.Equal(t, "GitHub", entry.Title)
}

func TestHTTPRemoteStore_Fetch_NotFound(t *testing.T) {
	remote := newRemoteStoreServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := remote.Fetch(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPRemoteStore_Fetch_ServerError(t *testing.T) {
	remote := newRemoteStoreServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := remote.Fetch(context.Background(), "entry-1")
	require.ErrorIs(t, err, ErrInternalServerError)
}

func TestHTTPRemoteStore_Put(t *testing.T) {
	var received models.CredentialEntry
	remote := newRemoteStoreServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/entries/entry-1", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	})

	err := remote.Put(context.Background(), models.CredentialEntry{ID: "entry-1", Title: "GitHub"})
	require.NoError(t, err)
	assert.Equal(t, "GitHub", received.Title)
}

func TestHTTPRemoteStore_Put_Unauthorized(t *testing.T) {
	remote := newRemoteStoreServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	err := remote.Put(context.Background(), models.CredentialEntry{ID: "entry-1"})
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestHTTPRemoteStore_Delete(t *testing.T) {
	remote := newRemoteStoreServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/entries/entry-1", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, remote.Delete(context.Background(), "entry-1"))
}

func TestHTTPRemoteStore_Delete_MissingRecordIsNotAnError(t *testing.T) {
	remote := newRemoteStoreServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	// отсутствующая запись считается уже удалённой
	require.NoError(t, remote.Delete(context.Background(), "missing"))
}

// ── BlobTransport ────────────────────────────────────────────────────────────

func TestHTTPBlobTransport_Upload(t *testing.T) {
	local := filepath.Join(t.TempDir(), "vault.vbk")
	require.NoError(t, os.WriteFile(local, []byte("bundle-bytes"), 0o600))

	transport := newBlobTransportServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/blobs/", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "remote.vbk", r.FormValue("name"))

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		_ = json.NewEncoder(w).Encode(BlobInfo{ID: "blob-1", Name: "remote.vbk", Size: 12})
	})

	id, err := transport.Upload(context.Background(), local, "remote.vbk")
	require.NoError(t, err)
	assert.Equal(t, "blob-1", id)
}

func TestHTTPBlobTransport_Download(t *testing.T) {
	transport := newBlobTransportServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/blobs/blob-1", r.URL.Path)
		_, _ = w.Write([]byte("bundle-bytes"))
	})

	local := filepath.Join(t.TempDir(), "downloaded.vbk")
	require.NoError(t, transport.Download(context.Background(), "blob-1", local))

	content, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "bundle-bytes", string(content))
}

func TestHTTPBlobTransport_List(t *testing.T) {
	transport := newBlobTransportServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/blobs/", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]BlobInfo{
			{ID: "blob-1", Name: "a.vbk"},
			{ID: "blob-2", Name: "b.vbk"},
		})
	})

	items, err := transport.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "blob-2", items[1].ID)
}

func TestHTTPBlobTransport_Delete_Forbidden(t *testing.T) {
	transport := newBlobTransportServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	err := transport.Delete(context.Background(), "blob-1")
	require.ErrorIs(t, err, ErrForbidden)
}
