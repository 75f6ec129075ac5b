package ecs

// World is the top-level entity container. It owns the entity pool, the
// component registry, and a deferred destruction queue flushed by the
// cleanup phase each tick.
type World struct {
	pool         *EntityPool
	registry     *Registry
	destroyQueue []EntityID
	doomed       map[EntityID]struct{}
}

func NewWorld() *World {
	return &World{
		pool:         NewEntityPool(),
		registry:     NewRegistry(),
		destroyQueue: make([]EntityID, 0, 64),
		doomed:       make(map[EntityID]struct{}, 64),
	}
}

func (w *World) Pool() *EntityPool   { return w.pool }
func (w *World) Registry() *Registry { return w.registry }

func (w *World) CreateEntity() EntityID {
	return w.pool.Create()
}

// Alive reports whether id is allocated and not queued for destruction.
func (w *World) Alive(id EntityID) bool {
	if !w.pool.Alive(id) {
		return false
	}
	_, d := w.doomed[id]
	return !d
}

// MarkForDestruction queues an entity for end-of-tick cleanup. Marking the
// same entity twice is a no-op.
func (w *World) MarkForDestruction(id EntityID) {
	if _, ok := w.doomed[id]; ok {
		return
	}
	w.doomed[id] = struct{}{}
	w.destroyQueue = append(w.destroyQueue, id)
}

// Doomed reports whether id is queued for destruction this tick.
func (w *World) Doomed(id EntityID) bool {
	_, ok := w.doomed[id]
	return ok
}

// FlushDestroyQueue destroys all queued entities and clears their
// components. It returns the number of entities destroyed.
func (w *World) FlushDestroyQueue() int {
	n := len(w.destroyQueue)
	for _, id := range w.destroyQueue {
		w.registry.RemoveAll(id)
		w.pool.Destroy(id)
		delete(w.doomed, id)
	}
	w.destroyQueue = w.destroyQueue[:0]
	return n
}
