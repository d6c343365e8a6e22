package app

// State is the lifecycle position of an Application.
// Transitions only move forward:
//
//	Uninitialized -> PoolReady -> ConnectivityVerified -> Serving -> Disposed
//
// Any state may jump to Disposed when startup fails or shutdown runs.
type State int32

const (
	StateUninitialized State = iota
	StatePoolReady
	StateConnectivityVerified
	StateServing
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StatePoolReady:
		return "POOL_READY"
	case StateConnectivityVerified:
		return "CONNECTIVITY_VERIFIED"
	case StateServing:
		return "SERVING"
	case StateDisposed:
		return "DISPOSED"
	default:
		return "UNKNOWN"
	}
}
