package errors

import (
	"errors"
	"fmt"
)

// Kind classifies bootstrap failures by the lifecycle phase that produced them.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindConnectivity  Kind = "connectivity"
	KindSession       Kind = "session"
	KindShutdown      Kind = "shutdown"
)

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrConnectivity  = errors.New("connectivity error")
	ErrSession       = errors.New("session error")
	ErrShutdown      = errors.New("shutdown error")
)

var sentinels = map[Kind]error{
	KindConfiguration: ErrConfiguration,
	KindConnectivity:  ErrConnectivity,
	KindSession:       ErrSession,
	KindShutdown:      ErrShutdown,
}

// Error is a classified failure. Op names the operation that failed
// ("config.load", "postgres.verify", ...).
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op == "" && e.Err == nil:
		return string(e.Kind) + " error"
	case e.Op == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

func Configuration(op string, err error) error {
	return &Error{Kind: KindConfiguration, Op: op, Err: err}
}

func Connectivity(op string, err error) error {
	return &Error{Kind: KindConnectivity, Op: op, Err: err}
}

// Session wraps err as a unit-of-work failure. Already classified errors pass through.
func Session(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) && e.Kind == KindSession {
		return err
	}
	return &Error{Kind: KindSession, Op: op, Err: err}
}

func Shutdown(op string, err error) error {
	return &Error{Kind: KindShutdown, Op: op, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
