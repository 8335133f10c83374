package ptr

// Ref returns a pointer to a copy of v, for optional fields such as a workout rating or the last feedback given.
func Ref[T any](v T) *T {
	return &v
}
