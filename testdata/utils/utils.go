package utils

// Ptr returns a pointer to v. Test fixtures use it to fill optional fields.
func Ptr[T any](v T) *T {
	return &v
}
