package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// RefreshClient implements Refresher against the upstream auth refresh
// endpoint. Concurrent 401s for the same token coalesce into one refresh
// call; late arrivals reuse the fresh credential.
type RefreshClient struct {
	baseURL string
	http    *http.Client

	mu    sync.Mutex
	last  string // old token most recently exchanged
	fresh string
}

// NewRefreshClient creates a RefreshClient.
func NewRefreshClient(baseURL string, timeout time.Duration) *RefreshClient {
	return &RefreshClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Refresh exchanges oldToken for a fresh credential.
func (r *RefreshClient) Refresh(ctx context.Context, oldToken string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.last == oldToken && r.fresh != "" {
		return r.fresh, nil
	}

	raw, err := json.Marshal(map[string]string{"token": oldToken})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/auth/refresh", bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := r.http.Do(req)
	if err != nil {
		return "", networkError(err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", networkError(err)
	}

	if res.StatusCode != http.StatusOK {
		return "", statusError(res.StatusCode, "refresh rejected", nil)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", fmt.Errorf("decode refresh response: %w", err)
	}

	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		return "", fmt.Errorf("refresh response missing token")
	}

	r.last = oldToken
	r.fresh = data.Token
	return data.Token, nil
}
