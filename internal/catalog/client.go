package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Antorou/Togesong/internal/config"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// tokenRefreshMargin is how close to expiry a cached token is still trusted.
const tokenRefreshMargin = 60 * time.Second

const tokenCacheKey = "catalog:access_token"

// Client talks to the external music catalog: a client-credentials token
// endpoint plus a track search endpoint. The access token is cached
// in-process and in redis; concurrent refreshes near expiry collapse into
// a single upstream call.
type Client struct {
	httpClient   *http.Client
	redis        *redis.Client
	clientID     string
	clientSecret string
	tokenURL     string
	apiURL       string

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	group singleflight.Group
}

func NewClient(cfg config.Config, redisClient *redis.Client) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		redis:        redisClient,
		clientID:     cfg.CatalogClientID,
		clientSecret: cfg.CatalogClientSecret,
		tokenURL:     cfg.CatalogTokenURL,
		apiURL:       strings.TrimSuffix(cfg.CatalogAPIURL, "/"),
	}
}

// AccessToken returns a valid catalog token, refreshing it when less than
// tokenRefreshMargin remains.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && time.Until(c.expiresAt) > tokenRefreshMargin {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	if token, ok := c.cachedToken(ctx); ok {
		return token, nil
	}

	result, err, _ := c.group.Do("token", func() (interface{}, error) {
		return c.fetchToken(ctx)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (c *Client) cachedToken(ctx context.Context) (string, bool) {
	if c.redis == nil {
		return "", false
	}
	token, err := c.redis.Get(ctx, tokenCacheKey).Result()
	if err != nil || token == "" {
		return "", false
	}
	ttl, err := c.redis.TTL(ctx, tokenCacheKey).Result()
	if err != nil || ttl <= tokenRefreshMargin {
		return "", false
	}

	c.mu.Lock()
	c.token = token
	c.expiresAt = time.Now().Add(ttl)
	c.mu.Unlock()
	return token, true
}

func (c *Client) fetchToken(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.clientID, c.clientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK || body.AccessToken == "" {
		return "", fmt.Errorf("catalog token request failed: status %d", resp.StatusCode)
	}

	ttl := time.Duration(body.ExpiresIn) * time.Second
	c.mu.Lock()
	c.token = body.AccessToken
	c.expiresAt = time.Now().Add(ttl)
	c.mu.Unlock()

	if c.redis != nil {
		_ = c.redis.Set(ctx, tokenCacheKey, body.AccessToken, ttl).Err()
	}
	return body.AccessToken, nil
}

// Search resolves a free-text query to at most 10 tracks.
func (c *Client) Search(ctx context.Context, query string) ([]Track, error) {
	if query == "" {
		return nil, errors.New("search query is required")
	}

	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := c.apiURL + "/search?q=" + url.QueryEscape(query) + "&type=track&limit=10"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog search failed: status %d", resp.StatusCode)
	}

	var body struct {
		Tracks struct {
			Items []Track `json:"items"`
		} `json:"tracks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Tracks.Items, nil
}
