package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/repricer/internal/reprice"
	"github.com/angelmondragon/repricer/pkg/config"
	pkgerrors "github.com/angelmondragon/repricer/pkg/errors"
)

const (
	defaultTimeout             = 20 * time.Second
	requestBodyReadLimit int64 = 1024
)

var errBaseURLRequired = errors.New("marketplace base url is required")

// Client talks to the marketplace listing and price APIs.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the marketplace client from config.
func NewClient(cfg config.MarketplaceConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type priceBreakPayload struct {
	MinQty         int        `json:"minQty"`
	Price          float64    `json:"price"`
	Active         *bool      `json:"active,omitempty"`
	PromoExpiresAt *time.Time `json:"promoExpiresAt,omitempty"`
}

type listingPayload struct {
	VendorID         int64               `json:"vendorId"`
	VendorName       string              `json:"vendorName"`
	InStock          bool                `json:"inStock"`
	Inventory        int                 `json:"inventory"`
	ShippingTime     int                 `json:"shippingTime"`
	StandardShipping float64             `json:"standardShipping"`
	FreeShippingGap  float64             `json:"freeShippingThreshold"`
	Badge            *badgePayload       `json:"badge,omitempty"`
	PriceBreaks      []priceBreakPayload `json:"priceBreaks"`
}

type badgePayload struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (p listingPayload) toListing() reprice.Listing {
	l := reprice.Listing{
		VendorID:         p.VendorID,
		VendorName:       p.VendorName,
		InStock:          p.InStock,
		Inventory:        p.Inventory,
		ShippingTime:     p.ShippingTime,
		StandardShipping: p.StandardShipping,
		FreeShippingGap:  p.FreeShippingGap,
		PriceBreaks:      make([]reprice.PriceBreak, 0, len(p.PriceBreaks)),
	}
	if p.Badge != nil {
		l.BadgeID = p.Badge.ID
		l.BadgeName = p.Badge.Name
	}
	for _, b := range p.PriceBreaks {
		active := true
		if b.Active != nil {
			active = *b.Active
		}
		l.PriceBreaks = append(l.PriceBreaks, reprice.PriceBreak{
			MinQty:         b.MinQty,
			UnitPrice:      b.Price,
			Active:         active,
			PromoExpiresAt: b.PromoExpiresAt,
		})
	}
	return l
}

// FetchListings returns every vendor listing of a product. An unknown product
// yields an empty result.
func (c *Client) FetchListings(ctx context.Context, productID string) ([]reprice.Listing, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "marketplace client not configured")
	}
	trimmed := strings.TrimSpace(productID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product ID is required")
	}

	endpoint := c.buildURL(fmt.Sprintf("products/%s/listings", url.PathEscape(trimmed)))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build listings request")
	}
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute listings request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return []reprice.Listing{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp, "listings request failed")
	}

	var apiResp struct {
		Listings []listingPayload `json:"listings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode listings response")
	}

	listings := make([]reprice.Listing, 0, len(apiResp.Listings))
	for _, l := range apiResp.Listings {
		listings = append(listings, l.toListing())
	}
	return listings, nil
}

// PriceUpdate is one break price change for a vendor listing.
type PriceUpdate struct {
	ProductID string  `json:"productId"`
	VendorID  int64   `json:"vendorId"`
	MinQty    int     `json:"minQty"`
	Price     float64 `json:"price"`
	Active    bool    `json:"active"`
	RunID     string  `json:"runId,omitempty"`
	Reason    string  `json:"reason,omitempty"`
}

// PushPrice applies a break price on the marketplace.
func (c *Client) PushPrice(ctx context.Context, update PriceUpdate) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "marketplace client not configured")
	}
	if update.VendorID <= 0 || strings.TrimSpace(update.ProductID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "vendor and product are required")
	}

	active := update.Active
	payload, err := json.Marshal(priceBreakPayload{MinQty: update.MinQty, Price: update.Price, Active: &active})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal price update")
	}

	endpoint := c.buildURL(fmt.Sprintf("vendors/%d/products/%s/price-breaks/%d",
		update.VendorID, url.PathEscape(update.ProductID), update.MinQty))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build price update request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute price update request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp, "price update request failed")
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
}

func statusError(resp *http.Response, message string) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
	code := pkgerrors.CodeDependency
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity {
		code = pkgerrors.CodeValidation
	}
	return pkgerrors.Wrap(code, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), message)
}

func (c *Client) buildURL(path string) string {
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", c.baseURL, path)
}
