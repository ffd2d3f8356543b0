package engine

// State tracks a collection's lifecycle. It is engine-local: two engines in
// one process never share it.
type State int

const (
	// Uninitialized means no identity is bound and the snapshot is empty.
	Uninitialized State = iota
	// Loading means a full reload from the store is in flight.
	Loading
	// Ready means the snapshot is serving reads and optimistic writes.
	Ready
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "uninitialized"
	}
}
