package feed

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strings"
	"time"

	"github.com/oddslab/scratch-analyzer/pkg/common/config"
	"github.com/oddslab/scratch-analyzer/pkg/common/logger"
	"github.com/oddslab/scratch-analyzer/pkg/ratelimiter"
)

const (
	authBearer = "bearer"
	authCustom = "custom"
)

type authConfig struct {
	typ     string
	token   string
	headers map[string]string
}

// authFromMirror derives how a mirror authenticates. Explicit headers win;
// otherwise a bare API key rides as a bearer token. Expects the config to be
// finalized so keys and env placeholders are already resolved.
func authFromMirror(m config.Mirror) *authConfig {
	if len(m.Headers) > 0 {
		headers := make(map[string]string, len(m.Headers))
		maps.Copy(headers, m.Headers)
		return &authConfig{typ: authCustom, headers: headers}
	}

	if m.ApiKey != "" {
		token := m.ApiKey
		if strings.HasPrefix(strings.ToLower(token), "bearer ") {
			token = token[len("bearer "):]
		}
		return &authConfig{typ: authBearer, token: token}
	}

	return nil
}

type client struct {
	httpClient *http.Client
	auth       map[string]*authConfig // keyed by mirror URL
	limiter    *ratelimiter.PerHost
}

func newClient(mirrors []config.Mirror, cfg config.ClientCfg) *client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	auth := make(map[string]*authConfig, len(mirrors))
	for _, m := range mirrors {
		if a := authFromMirror(m); a != nil {
			auth[m.URL] = a
		}
	}

	var limiter *ratelimiter.PerHost
	if cfg.Throttle.RPS > 0 {
		limiter = ratelimiter.NewPerHost(cfg.Throttle.RPS, cfg.Throttle.Burst)
	}

	return &client{
		httpClient: &http.Client{Timeout: timeout},
		auth:       auth,
		limiter:    limiter,
	}
}

// get fetches url and returns the body. Non-2xx responses come back as an
// error carrying the status and payload.
func (c *client) get(ctx context.Context, url string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, url); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	c.setAuthHeaders(req, url)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	logger.Debug("HTTP request completed", "url", url, "elapsed", time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return data, fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, url, string(data))
	}
	return data, nil
}

func (c *client) setAuthHeaders(req *http.Request, url string) {
	auth := c.auth[url]
	if auth == nil {
		return
	}
	switch auth.typ {
	case authBearer:
		req.Header.Set("Authorization", "Bearer "+auth.token)
	case authCustom:
		for k, v := range auth.headers {
			req.Header.Set(k, v)
		}
	}
}
