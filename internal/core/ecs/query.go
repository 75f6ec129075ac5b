package ecs

import "slices"

// Each2 iterates over entities that have both component A and B, in
// ascending EntityID order. It walks the smaller store and probes the other.
func Each2[A, B any](sa *PtrComponentStore[A], sb *PtrComponentStore[B], fn func(EntityID, *A, *B)) {
	if sa.Len() <= sb.Len() {
		for _, id := range slices.Clone(sa.ids) {
			a, ok := sa.data[id]
			if !ok {
				continue
			}
			if b, ok := sb.data[id]; ok {
				fn(id, a, b)
			}
		}
		return
	}
	for _, id := range slices.Clone(sb.ids) {
		b, ok := sb.data[id]
		if !ok {
			continue
		}
		if a, ok := sa.data[id]; ok {
			fn(id, a, b)
		}
	}
}
