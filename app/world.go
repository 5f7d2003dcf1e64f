package app

import (
	"reflect"

	"github.com/cockroachdb/errors"
)

// World holds singleton resources keyed by their Go type.
type World struct {
	resources map[reflect.Type]any
}

func NewWorld() *World {
	return &World{resources: make(map[reflect.Type]any)}
}

func resourceKey[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

// InsertResource stores value, replacing any resource of the same type, and
// returns a pointer to the stored copy.
func InsertResource[T any](w *World, value T) *T {
	ptr := new(T)
	*ptr = value
	w.resources[resourceKey[T]()] = ptr
	return ptr
}

// InitResource inserts the zero value of T unless a T is already present.
func InitResource[T any](w *World) *T {
	if existing, ok := Resource[T](w); ok {
		return existing
	}
	var zero T
	return InsertResource(w, zero)
}

func Resource[T any](w *World) (*T, bool) {
	value, ok := w.resources[resourceKey[T]()]
	if !ok {
		return nil, false
	}
	return value.(*T), true
}

// MustResource is Resource for resources a plugin guarantees to exist.
func MustResource[T any](w *World) *T {
	value, ok := Resource[T](w)
	if !ok {
		panic(errors.Newf("resource %s does not exist", resourceKey[T]()))
	}
	return value
}

func HasResource[T any](w *World) bool {
	_, ok := w.resources[resourceKey[T]()]
	return ok
}

func RemoveResource[T any](w *World) (T, bool) {
	key := resourceKey[T]()
	value, ok := w.resources[key]
	if !ok {
		var zero T
		return zero, false
	}
	delete(w.resources, key)
	return *value.(*T), true
}
