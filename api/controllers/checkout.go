package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/vendorhall/checkout/api/responses"
	"github.com/vendorhall/checkout/api/validators"
	"github.com/vendorhall/checkout/internal/cart"
	checkoutsvc "github.com/vendorhall/checkout/internal/checkout"
	"github.com/vendorhall/checkout/internal/submission"
	pkgerrors "github.com/vendorhall/checkout/pkg/errors"
	"github.com/vendorhall/checkout/pkg/logger"
)

type createSessionRequest struct {
	VendorID string              `json:"vendor_id" validate:"required"`
	Items    []cart.ItemSnapshot `json:"items"`
}

// SessionCreate starts a guest checkout session from a cart snapshot.
func SessionCreate(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload createSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Start(r.Context(), payload.VendorID, payload.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// SessionFetch returns the current session view with a fresh quote.
func SessionFetch(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.Get(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

type setPriceRequest struct {
	Price any `json:"price" validate:"required"`
}

// ItemPriceUpdate applies a negotiated price edit to one cart item.
func ItemPriceUpdate(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload setPriceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.SetItemPrice(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "itemID"), payload.Price)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// ItemRemove drops one item from the cart. Removing the last item leaves a
// valid empty session.
func ItemRemove(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.RemoveItem(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "itemID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

type discountRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason,omitempty"`
}

// DiscountUpdate sets an absolute bundle discount.
func DiscountUpdate(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload discountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reason := validators.SanitizeString(payload.Reason, 200)
		view, err := svc.SetDiscount(r.Context(), chi.URLParam(r, "sessionID"), payload.Amount, reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

type quickDiscountRequest struct {
	Percent int64 `json:"percent" validate:"required,min=1,max=100"`
}

// QuickDiscount snapshots a percentage of the current negotiated total as the
// bundle discount.
func QuickDiscount(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload quickDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.QuickDiscount(r.Context(), chi.URLParam(r, "sessionID"), payload.Percent)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// PaymentMethods lists the vendor's configured payment methods for this
// session. An empty list is a valid response.
func PaymentMethods(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := svc.Methods(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settings)
	}
}

type selectMethodRequest struct {
	Type string `json:"type" validate:"required"`
}

// PaymentMethodSelect records the buyer's single payment method choice.
func PaymentMethodSelect(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload selectMethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.SelectPaymentMethod(r.Context(), chi.URLParam(r, "sessionID"), payload.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

type contactRequest struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty"`
}

// ContactUpdate stores optional buyer contact info on the session.
func ContactUpdate(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload contactRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.SetContact(r.Context(), chi.URLParam(r, "sessionID"), cart.Contact{
			Name:  validators.SanitizeString(payload.Name, 120),
			Email: validators.SanitizeString(payload.Email, 254),
			Phone: validators.SanitizeString(payload.Phone, 32),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// SessionClear abandons the session.
func SessionClear(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Clear(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}

// Submit runs the order submission protocol for the session.
func Submit(svc submission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "submission service unavailable"))
			return
		}

		result, err := svc.Submit(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
