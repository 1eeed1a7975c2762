package cart

type State string

const (
	StateIdle       State = "IDLE"
	StateMutating   State = "MUTATING"
	StateRefreshing State = "REFRESHING"
)

// IsBusy reports whether a remote call is in flight.
func (s State) IsBusy() bool {
	return s == StateMutating || s == StateRefreshing
}

// String representation (for logging)
func (s State) String() string {
	return string(s)
}
