package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/repricer/pkg/config"
	pkgerrors "github.com/angelmondragon/repricer/pkg/errors"
)

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(config.MarketplaceConfig{BaseURL: "  "}); err == nil {
		t.Fatal("expected base url error")
	}
}

func TestFetchListingsMapsPayload(t *testing.T) {
	body := `{"listings":[
		{"vendorId":7,"vendorName":"own","inStock":true,"inventory":40,"shippingTime":2,"standardShipping":4.99,"freeShippingThreshold":35,
		 "badge":{"id":3,"name":"gold"},
		 "priceBreaks":[{"minQty":1,"price":12.5},{"minQty":5,"price":11,"active":false,"promoExpiresAt":"2026-05-04T10:00:00Z"}]},
		{"vendorId":9,"vendorName":"rival","inStock":false,"priceBreaks":[]}
	]}`

	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Api-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	defer srv.Close()

	client, err := NewClient(config.MarketplaceConfig{BaseURL: srv.URL + "/", APIKey: "secret"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	listings, err := client.FetchListings(context.Background(), "sku 1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotPath != "/products/sku 1/listings" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotKey != "secret" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(listings))
	}
	own := listings[0]
	if !own.HasBadge() || own.FreeShippingGap != 35 || own.StandardShipping != 4.99 {
		t.Fatalf("unexpected own listing %+v", own)
	}
	if len(own.PriceBreaks) != 2 || !own.PriceBreaks[0].Active || own.PriceBreaks[1].Active {
		t.Fatalf("unexpected breaks %+v", own.PriceBreaks)
	}
	if own.PriceBreaks[1].PromoExpiresAt == nil {
		t.Fatal("expected promo expiry to be mapped")
	}
	if listings[1].InStock || listings[1].HasBadge() {
		t.Fatalf("unexpected rival listing %+v", listings[1])
	}
}

func TestFetchListingsNotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	client, _ := NewClient(config.MarketplaceConfig{BaseURL: srv.URL})
	listings, err := client.FetchListings(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listings) != 0 {
		t.Fatalf("expected no listings, got %d", len(listings))
	}
}

func TestFetchListingsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "broken") {
			_, _ = io.WriteString(w, "{not json")
			return
		}
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, _ := NewClient(config.MarketplaceConfig{BaseURL: srv.URL})
	ctx := context.Background()

	if _, err := client.FetchListings(ctx, "p-1"); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error on 502, got %v", err)
	}
	if _, err := client.FetchListings(ctx, "broken"); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error on bad json, got %v", err)
	}
	if _, err := client.FetchListings(ctx, " "); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error on empty id, got %v", err)
	}

	var nilClient *Client
	if _, err := nilClient.FetchListings(ctx, "p-1"); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error on nil client, got %v", err)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestPushPriceRequest(t *testing.T) {
	var gotMethod, gotURL string
	var payload map[string]any
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		gotMethod = req.Method
		gotURL = req.URL.String()
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return &http.Response{StatusCode: http.StatusNoContent, Body: io.NopCloser(strings.NewReader("")), Header: http.Header{}}, nil
	})

	client, _ := NewClient(config.MarketplaceConfig{BaseURL: "http://market.test/v2"}, WithHTTPClient(&http.Client{Transport: rt}))
	err := client.PushPrice(context.Background(), PriceUpdate{ProductID: "p-1", VendorID: 7, MinQty: 5, Price: 10.99, Active: true})
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Fatalf("unexpected method %s", gotMethod)
	}
	if gotURL != "http://market.test/v2/vendors/7/products/p-1/price-breaks/5" {
		t.Fatalf("unexpected url %s", gotURL)
	}
	if payload["price"] != 10.99 || payload["active"] != true || payload["minQty"] != float64(5) {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestPushPriceErrors(t *testing.T) {
	status := http.StatusUnprocessableEntity
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if status == 0 {
			return nil, errors.New("dial tcp: refused")
		}
		return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader("price below floor")), Header: http.Header{}}, nil
	})
	client, _ := NewClient(config.MarketplaceConfig{BaseURL: "http://market.test"}, WithHTTPClient(&http.Client{Transport: rt}))
	ctx := context.Background()
	update := PriceUpdate{ProductID: "p-1", VendorID: 7, MinQty: 1, Price: 1}

	if err := client.PushPrice(ctx, update); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error on 422, got %v", err)
	}
	status = 0
	if err := client.PushPrice(ctx, update); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error on transport failure, got %v", err)
	}
	if err := client.PushPrice(ctx, PriceUpdate{ProductID: "p-1"}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error without vendor, got %v", err)
	}
}
