// Package entity is the partitioned behavior store the selection and rule
// machinery runs against. Entities are plain indices into pre-sized arrays:
// the global partition occupies [0, GlobalCapacity) and survives scene
// resets, the scene partition occupies [GlobalCapacity, Capacity) and is
// cleared wholesale on reset. Behaviors are plain value records stored in
// fixed blocks per type; interested subsystems self-maintain through typed
// lifecycle observers rather than polling.
package entity

import "reflect"

// Index identifies one entity slot. Indices are never reused while an
// entity is active and carry no generation bits; the partition an index
// belongs to is determined by its range.
type Index int32

// Invalid is the null entity index.
const Invalid Index = -1

// Partition selects one of the two storage regions.
type Partition uint8

const (
	// Global entities persist across scene resets.
	Global Partition = iota
	// Scene entities are cleared in bulk on reset.
	Scene
)

// Config fixes the store's capacities. All per-entity arrays are sized once
// from these values; nothing grows afterwards.
type Config struct {
	GlobalCapacity int
	SceneCapacity  int
}

// Store owns entity liveness and all registered behavior storages.
type Store struct {
	globalCap int
	capacity  int

	active     []bool
	freeGlobal []Index
	freeScene  []Index

	stores map[reflect.Type]iBehaviorStore

	deactivating []func(Index)
	sceneReset   []func()
	shutdown     []func()
}

// NewStore creates a store with fixed partition capacities.
func NewStore(cfg Config) *Store {
	if cfg.GlobalCapacity < 0 || cfg.SceneCapacity <= 0 {
		panic("entity: store capacities must be positive")
	}
	capacity := cfg.GlobalCapacity + cfg.SceneCapacity
	s := &Store{
		globalCap:  cfg.GlobalCapacity,
		capacity:   capacity,
		active:     make([]bool, capacity),
		freeGlobal: make([]Index, 0, cfg.GlobalCapacity),
		freeScene:  make([]Index, 0, cfg.SceneCapacity),
		stores:     make(map[reflect.Type]iBehaviorStore),
	}
	s.fillFreeLists()
	return s
}

// fillFreeLists pushes indices in descending order so Spawn hands out the
// lowest free index first.
func (s *Store) fillFreeLists() {
	s.freeGlobal = s.freeGlobal[:0]
	for e := Index(s.globalCap) - 1; e >= 0; e-- {
		s.freeGlobal = append(s.freeGlobal, e)
	}
	s.fillSceneFreeList()
}

func (s *Store) fillSceneFreeList() {
	s.freeScene = s.freeScene[:0]
	for e := Index(s.capacity) - 1; e >= Index(s.globalCap); e-- {
		s.freeScene = append(s.freeScene, e)
	}
}

// Capacity returns the total number of entity slots.
func (s *Store) Capacity() int { return s.capacity }

// GlobalCapacity returns the size of the global partition. Scene indices
// start here.
func (s *Store) GlobalCapacity() int { return s.globalCap }

// PartitionOf reports which partition an index belongs to.
func (s *Store) PartitionOf(e Index) Partition {
	if int(e) < s.globalCap {
		return Global
	}
	return Scene
}

// Spawn activates a fresh entity slot in the given partition. Returns
// (Invalid, false) when the partition is exhausted.
func (s *Store) Spawn(p Partition) (Index, bool) {
	free := &s.freeScene
	if p == Global {
		free = &s.freeGlobal
	}
	if len(*free) == 0 {
		return Invalid, false
	}
	e := (*free)[len(*free)-1]
	*free = (*free)[:len(*free)-1]
	s.active[e] = true
	return e, true
}

// Despawn deactivates an entity: deactivation observers run first (with all
// behaviors still readable), then every behavior slot is cleared and the
// index returns to its partition's free list.
func (s *Store) Despawn(e Index) {
	if !s.IsActive(e) {
		return
	}
	for _, fn := range s.deactivating {
		fn(e)
	}
	for _, bs := range s.stores {
		bs.removeRaw(e)
	}
	s.active[e] = false
	if s.PartitionOf(e) == Global {
		s.freeGlobal = append(s.freeGlobal, e)
	} else {
		s.freeScene = append(s.freeScene, e)
	}
}

// IsActive reports whether the index names a live entity.
func (s *Store) IsActive(e Index) bool {
	return e >= 0 && int(e) < s.capacity && s.active[e]
}

// OnDeactivating subscribes to the about-to-deactivate event.
func (s *Store) OnDeactivating(fn func(Index)) {
	s.deactivating = append(s.deactivating, fn)
}

// OnSceneReset subscribes to the bulk scene-partition clear.
func (s *Store) OnSceneReset(fn func()) {
	s.sceneReset = append(s.sceneReset, fn)
}

// OnShutdown subscribes to full teardown.
func (s *Store) OnShutdown(fn func()) {
	s.shutdown = append(s.shutdown, fn)
}

// ResetScene clears the scene partition in bulk: behavior ranges are wiped
// directly, the free list is rebuilt, and scene-reset observers fan out.
// Global entities are untouched.
func (s *Store) ResetScene() {
	lo, hi := Index(s.globalCap), Index(s.capacity)
	for _, bs := range s.stores {
		bs.clearRange(lo, hi)
	}
	for e := lo; e < hi; e++ {
		s.active[e] = false
	}
	s.fillSceneFreeList()
	for _, fn := range s.sceneReset {
		fn()
	}
}

// Shutdown clears both partitions and notifies shutdown observers.
func (s *Store) Shutdown() {
	for _, bs := range s.stores {
		bs.clearRange(0, Index(s.capacity))
	}
	for e := range s.active {
		s.active[e] = false
	}
	s.fillFreeLists()
	for _, fn := range s.shutdown {
		fn()
	}
}

func storeFor[T any](s *Store) *behaviorStore[T] {
	bs, ok := s.stores[reflect.TypeFor[T]()]
	if !ok {
		panic("entity: behavior type " + reflect.TypeFor[T]().String() + " not registered")
	}
	return bs.(*behaviorStore[T])
}

// RegisterBehavior pre-allocates storage for a behavior type. Must be called
// once per type before the store is used; registering after entities exist
// is programmer misuse.
func RegisterBehavior[T any](s *Store) {
	t := reflect.TypeFor[T]()
	if _, ok := s.stores[t]; ok {
		panic("entity: behavior type " + t.String() + " already registered")
	}
	s.stores[t] = newBehaviorStore[T](s.capacity)
}

// Get returns the entity's behavior record, or nil if absent.
func Get[T any](s *Store, e Index) *T {
	if !s.IsActive(e) {
		return nil
	}
	return storeFor[T](s).get(e)
}

// Has reports whether the entity carries the behavior.
func Has[T any](s *Store, e Index) bool {
	return s.IsActive(e) && storeFor[T](s).has(e)
}

// Add attaches a behavior value, firing added observers. Adding over an
// existing record replaces it via the update path instead.
func Add[T any](s *Store, e Index, value T) {
	if !s.IsActive(e) {
		return
	}
	bs := storeFor[T](s)
	if bs.has(e) {
		bs.update(e, func(ptr *T) { *ptr = value })
		return
	}
	bs.add(e, value)
}

// Set is the store's normal update path: the behavior is created as a zero
// record if absent, then mutated in place with about-to-update and updated
// observers around the mutation. Downstream indices see every change made
// through here.
func Set[T any](s *Store, e Index, fn func(*T)) {
	if !s.IsActive(e) {
		return
	}
	bs := storeFor[T](s)
	if !bs.has(e) {
		var zero T
		bs.add(e, zero)
	}
	bs.update(e, fn)
}

// Remove detaches a behavior, firing removing observers first.
func Remove[T any](s *Store, e Index) {
	if !s.IsActive(e) {
		return
	}
	storeFor[T](s).remove(e)
}

// OnAdded subscribes to behavior attachment for one type.
func OnAdded[T any](s *Store, fn func(Index, *T)) {
	bs := storeFor[T](s)
	bs.added = append(bs.added, fn)
}

// OnUpdating subscribes to the about-to-update event for one type.
func OnUpdating[T any](s *Store, fn func(Index, *T)) {
	bs := storeFor[T](s)
	bs.updating = append(bs.updating, fn)
}

// OnUpdated subscribes to the post-update event for one type.
func OnUpdated[T any](s *Store, fn func(Index, *T)) {
	bs := storeFor[T](s)
	bs.updated = append(bs.updated, fn)
}

// OnRemoving subscribes to behavior detachment for one type.
func OnRemoving[T any](s *Store, fn func(Index, *T)) {
	bs := storeFor[T](s)
	bs.removing = append(bs.removing, fn)
}
