// Package syncengine replicates the local store against a remote
// snapshot endpoint using last-write-wins on a single watermark. The
// remote is a dumb document store: whichever side carries the newer
// watermark wins wholesale, there is no per-record merging.
package syncengine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/talipakcelik/calisalim/internal/store"
)

// ErrNotFound reports that the remote has no snapshot for this owner yet.
var ErrNotFound = errors.New("remote snapshot not found")

// Remote fetches and stores owner snapshots with their watermarks.
type Remote interface {
	Fetch(ctx context.Context) (*store.Snapshot, int64, error)
	Push(ctx context.Context, snap *store.Snapshot, updatedAt int64) error
}

// HTTPRemote implements Remote against the snapshot HTTP API:
// GET/PUT /v1/snapshots/{owner} with bearer auth.
type HTTPRemote struct {
	baseURL string
	token   string
	owner   string
	http    *http.Client
}

func NewHTTPRemote(baseURL, token, owner string) *HTTPRemote {
	return &HTTPRemote{
		baseURL: baseURL,
		token:   token,
		owner:   owner,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// payload is the wire document. The watermark travels as updatedAt next
// to the data, never inside it.
type payload struct {
	UpdatedAt int64          `json:"updatedAt"`
	Data      store.Snapshot `json:"data"`
}

func (r *HTTPRemote) endpoint() (string, error) {
	u, err := url.Parse(r.baseURL)
	if err != nil {
		return "", err
	}
	u.Path = "/v1/snapshots/" + url.PathEscape(r.owner)
	return u.String(), nil
}

func (r *HTTPRemote) Fetch(ctx context.Context) (*store.Snapshot, int64, error) {
	endpoint, err := r.endpoint()
	if err != nil {
		return nil, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+r.token)
	req.Header.Set("Accept", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, 0, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, 0, fmt.Errorf("fetch snapshot: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var p payload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, 0, fmt.Errorf("decode snapshot: %w", err)
	}
	return &p.Data, p.UpdatedAt, nil
}

func (r *HTTPRemote) Push(ctx context.Context, snap *store.Snapshot, updatedAt int64) error {
	endpoint, err := r.endpoint()
	if err != nil {
		return err
	}
	body, err := json.Marshal(payload{UpdatedAt: updatedAt, Data: *snap})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+r.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("push snapshot: unexpected status %d: %s", resp.StatusCode, string(b))
	}
	return nil
}
