package search

// Index is an order-preserving id -> entity map scoped to one assembly call.
type Index[T any] struct {
	order []*T
	byID  map[string]*T
}

func NewIndex[T any]() *Index[T] {
	return &Index[T]{byID: make(map[string]*T)}
}

// Get returns the entity registered under id.
func (x *Index[T]) Get(id string) (*T, bool) {
	v, ok := x.byID[id]
	return v, ok
}

// GetOrAdd returns the entity for id, calling build and recording the result
// the first time id is seen. The boolean reports whether build was called.
func (x *Index[T]) GetOrAdd(id string, build func() *T) (*T, bool) {
	if v, ok := x.byID[id]; ok {
		return v, false
	}
	v := build()
	x.byID[id] = v
	x.order = append(x.order, v)
	return v, true
}

// Values returns entities in first-seen order.
func (x *Index[T]) Values() []*T {
	return x.order
}

func (x *Index[T]) Len() int {
	return len(x.order)
}
