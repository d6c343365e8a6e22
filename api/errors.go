package api

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"

	"github.com/vortex-fintech/supvx2/db/postgres"
	apperr "github.com/vortex-fintech/supvx2/errors"
)

var errPanic = errors.New("handler panicked")

// errorResponse maps err onto the transport error body. Constraint
// violations surface as client errors; everything else goes through
// apperr.ToErrorResponse.
func errorResponse(err error) apperr.ErrorResponse {
	if info, ok := postgres.Constraint(err); ok {
		switch {
		case postgres.IsUniqueViolation(err):
			return apperr.New("Resource already exists", codes.AlreadyExists, nil).
				WithReason("unique_violation").
				WithDetail("constraint", info.Name)
		case postgres.IsForeignKeyViolation(err):
			return apperr.New("Referenced resource does not exist", codes.FailedPrecondition, nil).
				WithReason("foreign_key_violation").
				WithDetail("constraint", info.Name)
		}
	}
	return apperr.ToErrorResponse(err)
}

func writeError(w http.ResponseWriter, err error) {
	errorResponse(err).ToHTTP(w)
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	apperr.NotFound().ToHTTP(w)
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	apperr.MethodNotAllowed().ToHTTP(w)
}
