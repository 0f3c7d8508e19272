package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"wealthwise/internal/core"
)

// Resolve implements remote.SessionProvider by asking GoTrue who the bearer
// token belongs to. An empty token resolves to the anonymous identity
// without a network call.
func (c *Client) Resolve(ctx context.Context, accessToken string) (core.Identity, error) {
	if accessToken == "" {
		return core.Anonymous(), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return core.Anonymous(), fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return core.Anonymous(), fmt.Errorf("resolve session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.Anonymous(), fmt.Errorf("resolve session: status %d", resp.StatusCode)
	}

	var user struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return core.Anonymous(), fmt.Errorf("resolve session: %w: %v", ErrBadPayload, err)
	}
	if user.ID == "" {
		return core.Anonymous(), fmt.Errorf("resolve session: %w: missing user id", ErrBadPayload)
	}

	return core.Authenticated(user.ID), nil
}
