package utils

// Ptr returns a pointer to a copy of v. Used to hand out profile
// snapshots that never alias internal state.
func Ptr[T any](v T) *T {
	return &v
}
