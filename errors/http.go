package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
)

const statusClientClosedRequest = 499

func HTTPStatus(code codes.Code) int {
	switch code {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.Canceled:
		return statusClientClosedRequest
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists:
		return http.StatusConflict
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.FailedPrecondition:
		return http.StatusPreconditionFailed
	case codes.Aborted:
		return http.StatusConflict
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.Internal:
		return http.StatusInternalServerError
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Status returns the HTTP status written by ToHTTP.
func (e ErrorResponse) Status() int {
	if e.status != 0 {
		return e.status
	}
	return HTTPStatus(e.Code)
}

func (e ErrorResponse) ToHTTP(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(e.Status())
	_ = json.NewEncoder(w).Encode(e.body())
}

// ToErrorResponse converts any error into an ErrorResponse.
// Internal causes are never copied into the body.
func ToErrorResponse(err error) ErrorResponse {
	if err == nil {
		return Internal().WithReason("unexpected_error")
	}
	if errors.Is(err, context.Canceled) {
		return New("Request canceled", codes.Canceled, nil).WithReason("canceled")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return DeadlineExceeded()
	}

	var resp ErrorResponse
	if errors.As(err, &resp) {
		return resp
	}

	kind, ok := KindOf(err)
	if !ok {
		return Internal().WithReason("unexpected_error")
	}
	switch kind {
	case KindConnectivity:
		return Unavailable().WithReason("database_unavailable")
	case KindSession:
		return Internal().WithReason("session_failed")
	default:
		return Internal().WithReason(string(kind) + "_failed")
	}
}
