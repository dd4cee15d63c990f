package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mallkit/storefront/internal/payment"
)

// PaymentHandler terminates the payment processor's browser-redirect
// callbacks. The processor is opaque: it only ever reaches us through these
// two GET redirects carrying query parameters.
type PaymentHandler struct {
	svc payment.Service
}

func NewPaymentHandler(svc payment.Service) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

const failPath = "/payment/fail"

// Success handles the processor's success redirect:
// GET /api/payment/success?paymentKey=...&orderId=...&amount=...
func (h *PaymentHandler) Success(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	paymentKey := q.Get("paymentKey")
	orderIDParam := q.Get("orderId")
	amountParam := q.Get("amount")

	if paymentKey == "" || orderIDParam == "" || amountParam == "" {
		redirectFail(w, r, url.Values{"error": {"missing_params"}, "orderId": {orderIDParam}})
		return
	}

	amount, err := strconv.ParseInt(amountParam, 10, 64)
	if err != nil {
		redirectFail(w, r, url.Values{"error": {"invalid_amount"}, "orderId": {orderIDParam}})
		return
	}

	orderID, err := uuid.FromString(orderIDParam)
	if err != nil {
		redirectFail(w, r, url.Values{"error": {"order not found"}, "orderId": {orderIDParam}})
		return
	}

	if err := h.svc.Confirm(r.Context(), customerID(r), orderID, paymentKey, amount); err != nil {
		redirectFail(w, r, url.Values{"error": {err.Error()}, "orderId": {orderIDParam}})
		return
	}

	http.Redirect(w, r, "/orders/"+orderIDParam, http.StatusSeeOther)
}

// Fail handles the processor's failure redirect:
// GET /api/payment/fail?orderId=...&code=...&message=...
func (h *PaymentHandler) Fail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orderIDParam := q.Get("orderId")
	if orderIDParam == "" {
		redirectFail(w, r, url.Values{"error": {"missing_order_id"}})
		return
	}

	// Marking the failure is best-effort; the customer still lands on the
	// failure page either way.
	if orderID, err := uuid.FromString(orderIDParam); err == nil {
		if err := h.svc.MarkFailed(r.Context(), customerID(r), orderID); err != nil {
			log.Warn().Err(err).Str("order_id", orderIDParam).Msg("handler: failed to mark payment failed")
		}
	}

	params := url.Values{"orderId": {orderIDParam}}
	if code := q.Get("code"); code != "" {
		params.Set("code", code)
	}
	if message := q.Get("message"); message != "" {
		params.Set("message", message)
	}
	redirectFail(w, r, params)
}

func redirectFail(w http.ResponseWriter, r *http.Request, params url.Values) {
	http.Redirect(w, r, failPath+"?"+params.Encode(), http.StatusSeeOther)
}
