package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/repricer/api/responses"
	"github.com/angelmondragon/repricer/api/validators"
	"github.com/angelmondragon/repricer/internal/reprice"
	"github.com/angelmondragon/repricer/internal/repricing"
	pkgerrors "github.com/angelmondragon/repricer/pkg/errors"
	"github.com/angelmondragon/repricer/pkg/logger"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// Previewer computes decisions without applying them.
type Previewer interface {
	Preview(ctx context.Context, productID string) (repricing.Result, error)
}

// HistoryReader lists stored decision envelopes of a product.
type HistoryReader interface {
	History(ctx context.Context, productID string, limit int) ([]reprice.Envelope, error)
}

func ProductPreview(svc Previewer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := productIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := logg.WithProductID(r.Context(), productID)
		result, err := svc.Preview(ctx, productID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ProductDecisions(history HistoryReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := productIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", defaultHistoryLimit, 1, maxHistoryLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		envelopes, err := history.History(r.Context(), productID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load decision history"))
			return
		}
		responses.WriteSuccess(w, envelopes)
	}
}

func productIDParam(r *http.Request) (string, error) {
	productID := strings.TrimSpace(chi.URLParam(r, "productId"))
	if productID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "productId is required")
	}
	return productID, nil
}
