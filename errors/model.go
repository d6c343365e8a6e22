package errors

import (
	"encoding/json"

	"google.golang.org/grpc/codes"
)

// Reason is a stable machine-readable code.
type Reason string

// ErrorResponse is the JSON error body returned by the HTTP API.
type ErrorResponse struct {
	Code    codes.Code        `json:"code"`
	Reason  Reason            `json:"reason,omitempty"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`

	// status overrides the code-derived HTTP status when non-zero.
	status int
}

func New(message string, code codes.Code, details map[string]string) ErrorResponse {
	return ErrorResponse{Code: code, Message: message, Details: cloneDetails(details)}
}

func (e ErrorResponse) WithReason(r string) ErrorResponse { e.Reason = Reason(r); return e }

// WithStatus pins the HTTP status for statuses that have no gRPC equivalent (405).
func (e ErrorResponse) WithStatus(status int) ErrorResponse { e.status = status; return e }

func (e ErrorResponse) WithDetail(k, v string) ErrorResponse {
	// Copy-on-write to keep builder-style methods immutable.
	details := cloneDetails(e.Details)
	if details == nil {
		details = map[string]string{}
	}
	details[k] = v
	e.Details = details
	return e
}

func (e ErrorResponse) ToString() string {
	b, _ := json.Marshal(e.body())
	return string(b)
}

func (e ErrorResponse) Error() string { return e.ToString() }

type responseBody struct {
	Code    string            `json:"code"`
	Reason  Reason            `json:"reason,omitempty"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func (e ErrorResponse) body() responseBody {
	return responseBody{
		Code:    e.Code.String(),
		Reason:  e.Reason,
		Message: e.Message,
		Details: e.Details,
	}
}

func cloneDetails(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
