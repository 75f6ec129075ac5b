package ecs

import "slices"

// Removable is implemented by all component stores so the Registry can
// bulk-remove an entity's data from every store on destroy.
type Removable interface {
	Remove(id EntityID)
}

// PtrComponentStore is a generic typed map store for components.
// Iteration is in ascending EntityID order so every tick visits entities in
// the same sequence for the same world.
type PtrComponentStore[T any] struct {
	data map[EntityID]*T
	ids  []EntityID // sorted
}

func NewPtrComponentStore[T any]() *PtrComponentStore[T] {
	return &PtrComponentStore[T]{
		data: make(map[EntityID]*T, 256),
		ids:  make([]EntityID, 0, 256),
	}
}

func (s *PtrComponentStore[T]) Set(id EntityID, c *T) {
	if _, ok := s.data[id]; !ok {
		i, _ := slices.BinarySearch(s.ids, id)
		s.ids = slices.Insert(s.ids, i, id)
	}
	s.data[id] = c
}

func (s *PtrComponentStore[T]) Get(id EntityID) (*T, bool) {
	c, ok := s.data[id]
	return c, ok
}

func (s *PtrComponentStore[T]) Remove(id EntityID) {
	if _, ok := s.data[id]; !ok {
		return
	}
	delete(s.data, id)
	if i, found := slices.BinarySearch(s.ids, id); found {
		s.ids = slices.Delete(s.ids, i, i+1)
	}
}

func (s *PtrComponentStore[T]) Has(id EntityID) bool {
	_, ok := s.data[id]
	return ok
}

func (s *PtrComponentStore[T]) Len() int {
	return len(s.data)
}

// IDs returns a snapshot of the stored entity IDs in ascending order.
func (s *PtrComponentStore[T]) IDs() []EntityID {
	return slices.Clone(s.ids)
}

// Each calls fn for every stored component in ascending EntityID order.
// fn may Set or Remove entries; it iterates over a snapshot of the keys and
// skips entries removed mid-iteration.
func (s *PtrComponentStore[T]) Each(fn func(EntityID, *T)) {
	for _, id := range slices.Clone(s.ids) {
		if c, ok := s.data[id]; ok {
			fn(id, c)
		}
	}
}
