package playback

// Update is published on every change of the unified state.
type Update struct {
	Previous      Status // Status before the change
	State         State  // Snapshot after the change
	StatusChanged bool   // False for metadata-only changes (e.g. artwork)
}

// StatusObserver receives every status change, exactly once and in order.
// It is invoked while the orchestrator holds its lock, so it must not block
// and must not call back into the orchestrator.
type StatusObserver interface {
	Observe(previous, current Status)
}

// StatusObserverFunc adapts a function to StatusObserver.
type StatusObserverFunc func(previous, current Status)

// Observe calls f(previous, current).
func (f StatusObserverFunc) Observe(previous, current Status) {
	f(previous, current)
}
