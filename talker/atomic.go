package talker

import (
	"sync/atomic"
)

// AtomicValue is a typed cell whose loads and stores are single atomic pointer swaps.
type AtomicValue[T any] struct {
	value atomic.Pointer[T]
}

func NewAtomicValue[T any](value T) *AtomicValue[T] {
	v := new(AtomicValue[T])
	v.Set(value)

	return v
}

//nolint:ireturn
func (v *AtomicValue[T]) Get() (T, bool) {
	var zero T

	value := v.value.Load()
	if value == nil {
		return zero, false
	}

	return *value, true
}

func (v *AtomicValue[T]) Set(value T) {
	v.value.Store(&value)
}
