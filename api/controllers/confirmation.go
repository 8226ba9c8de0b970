package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vendorhall/checkout/api/responses"
	"github.com/vendorhall/checkout/internal/confirmation"
	"github.com/vendorhall/checkout/pkg/logger"
)

// Confirmation consumes the transfer envelope for an order. The read is
// destructive: a second request for the same order returns not found.
func Confirmation(svc confirmation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := chi.URLParam(r, "orderID")

		envelope, err := svc.Consume(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithOrderID(r.Context(), orderID)
		logg.Info(ctx, "confirmation consumed")
		responses.WriteSuccess(w, envelope)
	}
}
