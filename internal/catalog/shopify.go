package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const shopifyAPIVersion = "2024-07"

// ShopifyConfig configures the read-only Shopify Admin API client.
type ShopifyConfig struct {
	ShopDomain  string // e.g. my-store.myshopify.com
	AccessToken string
	BaseURL     string // overridable for tests
	Timeout     time.Duration
}

// ShopifyClient answers existence checks for products referenced by
// shopify_* perk metadata.
type ShopifyClient struct {
	client  *http.Client
	baseURL string
	token   string
}

// NewShopifyClient builds the client; shop domain and token are required.
func NewShopifyClient(cfg ShopifyConfig) (*ShopifyClient, error) {
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, errors.New("shopify client: access token is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		domain := strings.TrimSpace(cfg.ShopDomain)
		if domain == "" {
			return nil, errors.New("shopify client: shop domain is required")
		}
		baseURL = "https://" + domain
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ShopifyClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		token:   cfg.AccessToken,
	}, nil
}

// ProductExists reports whether the product id resolves on the shop.
func (c *ShopifyClient) ProductExists(ctx context.Context, productID string) (bool, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return false, errors.New("shopify client: product id is required")
	}

	url := fmt.Sprintf("%s/admin/api/%s/products/%s.json", c.baseURL, shopifyAPIVersion, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("shopify client: build request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("shopify client: request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("shopify client: unexpected status %d", resp.StatusCode)
	}
}
