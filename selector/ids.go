package selector

import (
	"github.com/kamstrup/intmap"

	"github.com/plus3/sigil/diag"
	"github.com/plus3/sigil/entity"
)

// IdIndex maps unique entity ids to entity indices. First registration
// wins: a second entity claiming a taken id is rejected with a diagnostic
// and keeps no registration. Forward maps are partitioned so a scene reset
// is a direct map clear, never a per-entity loop.
type IdIndex struct {
	store    *entity.Store
	reporter *diag.Reporter

	globalIds map[string]entity.Index
	sceneIds  map[string]entity.Index

	globalByEntity *intmap.Map[entity.Index, string]
	sceneByEntity  *intmap.Map[entity.Index, string]

	onChange []func(id string)

	prevId string // rename scratch, valid between updating/updated
}

// NewIdIndex builds the index and subscribes it to Identity lifecycle,
// deactivation, scene-reset, and shutdown events.
func NewIdIndex(store *entity.Store, reporter *diag.Reporter) *IdIndex {
	ii := &IdIndex{
		store:          store,
		reporter:       reporter,
		globalIds:      make(map[string]entity.Index),
		sceneIds:       make(map[string]entity.Index),
		globalByEntity: intmap.New[entity.Index, string](64),
		sceneByEntity:  intmap.New[entity.Index, string](256),
	}

	entity.OnAdded(store, func(e entity.Index, rec *entity.Identity) {
		// A zero record passing through the store's create-then-update path
		// has no id yet; registration happens on the update that follows.
		if rec.Id != "" {
			ii.Register(e, rec.Id)
		}
	})
	entity.OnUpdating(store, func(e entity.Index, rec *entity.Identity) {
		ii.prevId = rec.Id
	})
	entity.OnUpdated(store, func(e entity.Index, rec *entity.Identity) {
		if rec.Id == ii.prevId {
			return
		}
		if rec.Id == "" {
			ii.Unregister(e)
			return
		}
		ii.Register(e, rec.Id)
	})
	entity.OnRemoving(store, func(e entity.Index, rec *entity.Identity) {
		ii.Unregister(e)
	})
	store.OnDeactivating(func(e entity.Index) {
		ii.Unregister(e)
	})
	store.OnSceneReset(func() {
		clear(ii.sceneIds)
		ii.sceneByEntity.Clear()
	})
	store.OnShutdown(func() {
		clear(ii.globalIds)
		clear(ii.sceneIds)
		ii.globalByEntity.Clear()
		ii.sceneByEntity.Clear()
	})

	return ii
}

// OnChange subscribes to id membership changes.
func (ii *IdIndex) OnChange(fn func(id string)) {
	ii.onChange = append(ii.onChange, fn)
}

func (ii *IdIndex) maps(e entity.Index) (map[string]entity.Index, *intmap.Map[entity.Index, string]) {
	if ii.store.PartitionOf(e) == entity.Global {
		return ii.globalIds, ii.globalByEntity
	}
	return ii.sceneIds, ii.sceneByEntity
}

// Register claims an id for an entity, releasing any id the entity held
// before. Returns false with a diagnostic when the id is empty or already
// taken by another entity.
func (ii *IdIndex) Register(e entity.Index, id string) bool {
	if id == "" {
		ii.reporter.Report("empty id rejected", "entity", int(e))
		return false
	}
	if holder, taken := ii.Resolve(id); taken {
		if holder == e {
			return true
		}
		ii.reporter.Report("id already registered", "id", id, "entity", int(e), "holder", int(holder))
		return false
	}

	ii.Unregister(e)
	forward, reverse := ii.maps(e)
	forward[id] = e
	reverse.Put(e, id)
	ii.changed(id)
	return true
}

// Unregister releases the entity's id, if it holds one.
func (ii *IdIndex) Unregister(e entity.Index) {
	forward, reverse := ii.maps(e)
	id, ok := reverse.Get(e)
	if !ok {
		return
	}
	delete(forward, id)
	reverse.Del(e)
	ii.changed(id)
}

// Resolve returns the entity holding an id.
func (ii *IdIndex) Resolve(id string) (entity.Index, bool) {
	if e, ok := ii.globalIds[id]; ok {
		return e, true
	}
	if e, ok := ii.sceneIds[id]; ok {
		return e, true
	}
	return entity.Invalid, false
}

// IdOf returns the id registered for an entity.
func (ii *IdIndex) IdOf(e entity.Index) (string, bool) {
	_, reverse := ii.maps(e)
	return reverse.Get(e)
}

func (ii *IdIndex) changed(id string) {
	for _, fn := range ii.onChange {
		fn(id)
	}
}
