package utils

import "time"

// Value dereferences v, returning the zero value for nil.
func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

func Ptr[T any](v T) *T {
	return &v
}

// Elapsed reports whether t is set and not after now.
func Elapsed(t *time.Time, now time.Time) bool {
	return t != nil && !now.Before(*t)
}
