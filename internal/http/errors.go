package http

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/checkout"
)

// statusFor maps domain failures to HTTP status and a client-safe message.
func statusFor(err error) (int, string) {
	var ce *checkout.Error
	if errors.As(err, &ce) {
		if errors.Is(ce, checkout.ErrAlreadyPaid) {
			return http.StatusBadRequest, ce.Msg
		}
		switch ce.Kind {
		case checkout.KindValidation, checkout.KindIntegrity:
			return http.StatusBadRequest, ce.Msg
		case checkout.KindNotFound:
			return http.StatusNotFound, ce.Msg
		case checkout.KindAuthorization:
			return http.StatusUnauthorized, ce.Msg
		case checkout.KindConflict:
			return http.StatusConflict, ce.Msg
		case checkout.KindUpstream:
			return http.StatusBadGateway, ce.Msg
		}
	}

	switch {
	case errors.Is(err, cart.ErrInvalidItem):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, cart.ErrProductNotFound),
		errors.Is(err, cart.ErrCartNotFound),
		errors.Is(err, cart.ErrItemNotFound):
		return http.StatusNotFound, err.Error()
	}

	return http.StatusInternalServerError, "internal server error"
}

func writeDomainError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeError(w, r, status, msg)
}
