package pim

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/wonny/shelforder/internal/catalog"
	"github.com/wonny/shelforder/pkg/httputil"
	"github.com/wonny/shelforder/pkg/logger"
	"github.com/wonny/shelforder/pkg/redis"
)

// BatchSize caps the ids sent in one request
const BatchSize = 100

// Client resolves brands through the product information service
// ⭐ SSOT: PIM API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	cache      *redis.Cache
}

// brandsResponse is the body of GET /brands
type brandsResponse struct {
	Brands map[string]string `json:"brands"`
}

// NewClient creates a PIM client.
// httpClient should already carry auth headers and the PIM rate limit.
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// WithCache caches resolved brands per item
func (c *Client) WithCache(cache *redis.Cache) *Client {
	c.cache = cache
	return c
}

// LookupBrands implements contracts.BrandLookup.
// Ids the service does not know map to contracts.NoBrand.
func (c *Client) LookupBrands(ctx context.Context, itemIDs []string) (map[string]string, error) {
	brands := make(map[string]string, len(itemIDs))
	missing := c.fromCache(ctx, itemIDs, brands)

	for start := 0; start < len(missing); start += BatchSize {
		end := min(start+BatchSize, len(missing))
		batch := missing[start:end]

		resolved, err := c.fetchBrands(ctx, batch)
		if err != nil {
			return nil, err
		}

		for _, id := range batch {
			brand := strings.TrimSpace(resolved[id])
			if brand == "" {
				continue
			}
			brands[id] = brand
			c.toCache(ctx, id, brand)
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"requested": len(itemIDs),
		"fetched":   len(missing),
	}).Debug("PIM brands resolved")

	return catalog.FillMissing(brands, itemIDs), nil
}

func (c *Client) fetchBrands(ctx context.Context, ids []string) (map[string]string, error) {
	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	fullURL := fmt.Sprintf("%s/brands?%s", c.baseURL, params.Encode())

	var resp brandsResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &resp); err != nil {
		return nil, fmt.Errorf("pim brands request failed: %w", err)
	}
	return resp.Brands, nil
}

// fromCache fills brands from cache and returns the ids still unresolved
func (c *Client) fromCache(ctx context.Context, ids []string, brands map[string]string) []string {
	if c.cache == nil {
		return ids
	}

	var missing []string
	for _, id := range ids {
		var brand string
		found, err := c.cache.Get(ctx, redis.BrandKey(id), &brand)
		if err != nil || !found || brand == "" {
			missing = append(missing, id)
			continue
		}
		brands[id] = brand
	}
	return missing
}

func (c *Client) toCache(ctx context.Context, id, brand string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, redis.BrandKey(id), brand, redis.TTLMedium); err != nil {
		c.logger.WithError(err).Warn("Failed to cache brand")
	}
}
