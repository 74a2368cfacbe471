// Package present is an in-memory presentation service. It keeps the asset
// tables and visual entities that front ends render from.
package present

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/san-kum/pulleysim/internal/scene"
)

// Visual is a resolved view of one entity for renderers.
type Visual struct {
	Handle    scene.EntityHandle
	Mesh      scene.MeshDesc
	Material  scene.MaterialDesc
	Transform scene.Transform
	Tags      []scene.Tag
}

func (v Visual) Has(tag scene.Tag) bool {
	return slices.Contains(v.Tags, tag)
}

type entity struct {
	mesh, material scene.AssetHandle
	transform      scene.Transform
	tags           []scene.Tag
}

// World is safe for concurrent use so renderers can snapshot it from their
// own goroutine.
type World struct {
	mu        sync.RWMutex
	meshes    []scene.MeshDesc
	materials []scene.MaterialDesc
	entities  map[scene.EntityHandle]*entity
	next      scene.EntityHandle
}

func NewWorld() *World {
	return &World{entities: make(map[scene.EntityHandle]*entity)}
}

func (w *World) LoadMesh(desc scene.MeshDesc) scene.AssetHandle {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.meshes = append(w.meshes, desc)
	return scene.AssetHandle(len(w.meshes))
}

func (w *World) LoadMaterial(desc scene.MaterialDesc) scene.AssetHandle {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.materials = append(w.materials, desc)
	return scene.AssetHandle(len(w.materials))
}

// Assets returns the number of loaded meshes and materials.
func (w *World) Assets() (meshes, materials int) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.meshes), len(w.materials)
}

func (w *World) SpawnVisual(mesh, material scene.AssetHandle, t scene.Transform, tags ...scene.Tag) scene.EntityHandle {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.next++
	w.entities[w.next] = &entity{
		mesh:      mesh,
		material:  material,
		transform: t,
		tags:      slices.Clone(tags),
	}
	return w.next
}

func (w *World) Despawn(h scene.EntityHandle) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.entities[h]; !ok {
		return false
	}
	delete(w.entities, h)
	return true
}

func (w *World) QueryTransform(h scene.EntityHandle) (scene.Transform, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.entities[h]
	if !ok {
		return scene.Transform{}, false
	}
	return e.transform, true
}

func (w *World) SetTransform(h scene.EntityHandle, t scene.Transform) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entities[h]
	if !ok {
		return false
	}
	e.transform = t
	return true
}

func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.entities)
}

// Count returns the number of entities carrying tag.
func (w *World) Count(tag scene.Tag) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	n := 0
	for _, e := range w.entities {
		if slices.Contains(e.tags, tag) {
			n++
		}
	}
	return n
}

// Lookup resolves one entity.
func (w *World) Lookup(h scene.EntityHandle) (Visual, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.entities[h]
	if !ok {
		return Visual{}, fmt.Errorf("entity %d: %w", h, scene.ErrStaleHandle)
	}
	return w.resolve(h, e), nil
}

// Snapshot returns every entity sorted by handle.
func (w *World) Snapshot() []Visual {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]Visual, 0, len(w.entities))
	for h, e := range w.entities {
		out = append(out, w.resolve(h, e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out
}

func (w *World) resolve(h scene.EntityHandle, e *entity) Visual {
	v := Visual{
		Handle:    h,
		Transform: e.transform,
		Tags:      slices.Clone(e.tags),
	}
	if i := int(e.mesh) - 1; i >= 0 && i < len(w.meshes) {
		v.Mesh = w.meshes[i]
	}
	if i := int(e.material) - 1; i >= 0 && i < len(w.materials) {
		v.Material = w.materials[i]
	}
	return v
}
