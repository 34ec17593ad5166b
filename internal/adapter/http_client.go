// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/MKhiriev/go-vault-local/models"
	"github.com/go-resty/resty/v2"
)

type HTTPClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

type httpRemoteStore struct {
	client *resty.Client
}

// NewHTTPRemoteStore returns a RemoteStore backed by the vault server's
// REST API.
func NewHTTPRemoteStore(cfg HTTPClientConfig) RemoteStore {
	return &httpRemoteStore{client: newRestyClient(cfg)}
}

func newRestyClient(cfg HTTPClientConfig) *resty.Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	return resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout)
}

func (h *httpRemoteStore) Fetch(ctx context.Context, entryID string) (*models.CredentialEntry, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		Get("/api/entries/" + url.PathEscape(entryID))
	if err != nil {
		return nil, fmt.Errorf("fetch request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var entry models.CredentialEntry
	if err = json.Unmarshal(resp.Body(), &entry); err != nil {
		return nil, fmt.Errorf("decode fetch response: %w", err)
	}

	return &entry, nil
}

func (h *httpRemoteStore) Put(ctx context.Context, entry models.CredentialEntry) error {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(entry).
		Put("/api/entries/" + url.PathEscape(entry.ID))
	if err != nil {
		return fmt.Errorf("put request: %w", err)
	}

	return mapHTTPError(resp)
}

func (h *httpRemoteStore) Delete(ctx context.Context, entryID string) error {
	resp, err := h.client.R().
		SetContext(ctx).
		Delete("/api/entries/" + url.PathEscape(entryID))
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	// a missing remote record counts as already deleted
	if err = mapHTTPError(resp); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	return nil
}

type httpBlobTransport struct {
	client *resty.Client
}

// NewHTTPBlobTransport returns a BlobTransport that stores backup bundles
// on the vault server's blob endpoint.
func NewHTTPBlobTransport(cfg HTTPClientConfig) BlobTransport {
	return &httpBlobTransport{client: newRestyClient(cfg)}
}

func (h *httpBlobTransport) Upload(ctx context.Context, localPath, remoteName string) (string, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetFile("file", localPath).
		SetFormData(map[string]string{"name": remoteName}).
		Post("/api/blobs/")
	if err != nil {
		return "", fmt.Errorf("upload request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return "", err
	}

	var created BlobInfo
	if err = json.Unmarshal(resp.Body(), &created); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}

	return created.ID, nil
}

func (h *httpBlobTransport) Download(ctx context.Context, id, localPath string) error {
	resp, err := h.client.R().
		SetContext(ctx).
		Get("/api/blobs/" + url.PathEscape(id))
	if err != nil {
		return fmt.Errorf("download request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return err
	}

	if err = os.WriteFile(localPath, resp.Body(), 0o600); err != nil {
		return fmt.Errorf("write downloaded blob: %w", err)
	}

	return nil
}

func (h *httpBlobTransport) List(ctx context.Context) ([]BlobInfo, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		Get("/api/blobs/")
	if err != nil {
		return nil, fmt.Errorf("list request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var items []BlobInfo
	if err = json.Unmarshal(resp.Body(), &items); err != nil {
		return nil, fmt.Errorf("decode list response: %w", err)
	}

	return items, nil
}

func (h *httpBlobTransport) Delete(ctx context.Context, id string) error {
	resp, err := h.client.R().
		SetContext(ctx).
		Delete("/api/blobs/" + url.PathEscape(id))
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}

	return mapHTTPError(resp)
}
