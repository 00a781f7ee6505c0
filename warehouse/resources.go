package warehouse

import "reflect"

// Resources holds storage-wide singletons, at most one value per type.
type Resources struct {
	items map[reflect.Type]any
}

func newResources() *Resources {
	return &Resources{items: make(map[reflect.Type]any)}
}

func typeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// SetResource stores value as the singleton of type T, replacing any previous one.
func SetResource[T any](r *Resources, value T) *T {
	ptr := new(T)
	*ptr = value
	r.items[typeKey[T]()] = ptr
	return ptr
}

// GetResource returns the singleton of type T.
func GetResource[T any](r *Resources) (*T, bool) {
	item, ok := r.items[typeKey[T]()]
	if !ok {
		return nil, false
	}
	return item.(*T), true
}

func RemoveResource[T any](r *Resources) {
	delete(r.items, typeKey[T]())
}

func (r *Resources) Len() int {
	return len(r.items)
}
