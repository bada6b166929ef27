package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/modelado-pao/internal/domain/auth"
	"github.com/xenking/modelado-pao/internal/domain/coupon"
	"github.com/xenking/modelado-pao/internal/domain/order"
	"github.com/xenking/modelado-pao/internal/domain/product"
)

// Error kinds written to the "error" field of every failure body.
const (
	kindInvalidArgument    = "invalid_argument"
	kindUnauthenticated    = "unauthenticated"
	kindPermissionDenied   = "permission_denied"
	kindNotFound           = "not_found"
	kindAlreadyExists      = "already_exists"
	kindFailedPrecondition = "failed_precondition"
	kindAborted            = "aborted"
	kindInternal           = "internal"
)

// errBadRequest marks malformed request bodies and parameters.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return errors.Wrapf(errBadRequest, format, args...)
}

type apiError struct {
	status  int
	kind    string
	message string
}

// classify maps an error to its HTTP status and kind. Client errors carry
// the domain message; anything unrecognised is Internal.
func classify(err error) apiError {
	var (
		pnf   *order.ProductNotFoundError
		qty   *order.InvalidQuantityError
		item  *order.InvalidItemError
		field *order.InvalidFieldError
	)
	switch {
	case errors.As(err, &pnf):
		return apiError{http.StatusNotFound, kindNotFound, pnf.Error()}
	case errors.As(err, &qty):
		return apiError{http.StatusBadRequest, kindInvalidArgument, qty.Error()}
	case errors.As(err, &item):
		return apiError{http.StatusBadRequest, kindInvalidArgument, item.Error()}
	case errors.As(err, &field):
		return apiError{http.StatusBadRequest, kindInvalidArgument, field.Error()}

	case errors.Is(err, errBadRequest),
		errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, order.ErrUnknownStatus),
		errors.Is(err, coupon.ErrInvalidRule),
		errors.Is(err, coupon.ErrCodeRequired),
		errors.Is(err, product.ErrInvalidProduct):
		return apiError{http.StatusBadRequest, kindInvalidArgument, err.Error()}

	case errors.Is(err, auth.ErrUnauthenticated):
		return apiError{http.StatusUnauthorized, kindUnauthenticated, "valid API key required"}
	case errors.Is(err, auth.ErrForbidden):
		return apiError{http.StatusForbidden, kindPermissionDenied, err.Error()}

	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, coupon.ErrNotFound):
		return apiError{http.StatusNotFound, kindNotFound, err.Error()}

	case errors.Is(err, coupon.ErrAlreadyExists),
		errors.Is(err, product.ErrAlreadyExists):
		return apiError{http.StatusConflict, kindAlreadyExists, err.Error()}

	case errors.Is(err, order.ErrInvalidTransition):
		return apiError{http.StatusConflict, kindFailedPrecondition, err.Error()}
	case errors.Is(err, order.ErrStatusConflict):
		return apiError{http.StatusConflict, kindAborted, err.Error()}

	default:
		return apiError{http.StatusInternalServerError, kindInternal, "internal server error"}
	}
}

// fail writes the error body for err and logs server-side failures.
func fail(ctx context.Context, w http.ResponseWriter, err error) {
	e := classify(err)
	if e.status >= http.StatusInternalServerError {
		zctx.From(ctx).Error("Request failed", zap.Error(err))
	}
	writeError(w, e.status, e.kind, e.message)
}

// writeError writes {"error": kind, "message": msg}.
func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("error")
		e.Str(kind)
		e.FieldStart("message")
		e.Str(msg)
		e.ObjEnd()
	})
}
