package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mallkit/storefront/internal/apperr"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("handler: failed to encode response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeError maps the closed error kinds onto HTTP statuses. The message is
// what the UI shows; the code is for machines.
func writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)

	message := "internal server error"
	var tagged *apperr.Error
	if errors.As(err, &tagged) && kind != apperr.KindInternal {
		message = tagged.Message
	}

	writeJSON(w, statusFor(kind), errorResponse{Error: message, Code: string(kind)})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidQuantity, apperr.KindEmptyCart:
		return http.StatusBadRequest
	case apperr.KindNotFound, apperr.KindProductNotFound:
		return http.StatusNotFound
	case apperr.KindProductInactive, apperr.KindInsufficientStock,
		apperr.KindAlreadyPaid, apperr.KindAmountMismatch, apperr.KindInvalidStatusTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
