package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

func NotFound() ErrorResponse {
	return New("Not Found", codes.NotFound, nil).WithReason("not_found")
}
func MethodNotAllowed() ErrorResponse {
	return New("Method Not Allowed", codes.Unimplemented, nil).
		WithReason("method_not_allowed").
		WithStatus(http.StatusMethodNotAllowed)
}
func DeadlineExceeded() ErrorResponse {
	return New("Deadline exceeded", codes.DeadlineExceeded, nil).WithReason("deadline_exceeded")
}
func Internal() ErrorResponse {
	return New("Internal error", codes.Internal, nil).WithReason("internal")
}
func Unavailable() ErrorResponse {
	return New("Service unavailable", codes.Unavailable, nil).WithReason("unavailable")
}
