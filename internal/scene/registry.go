package scene

import "github.com/go-gl/mathgl/mgl64"

type Role int

const (
	RoleRigidBody Role = iota
	RoleConstraint
	RoleTraceMarker
	RoleStaticDecoration
)

func (r Role) String() string {
	switch r {
	case RoleRigidBody:
		return "rigid_body"
	case RoleConstraint:
		return "constraint"
	case RoleTraceMarker:
		return "trace_marker"
	case RoleStaticDecoration:
		return "static_decoration"
	default:
		return "unknown"
	}
}

// Cable links a constraint entity to the visuals of the bodies it joins.
type Cable struct {
	A, B   EntityHandle
	Anchor mgl64.Vec3
}

// Entity is one spawned scene object. Only the handles relevant to its role
// are set.
type Entity struct {
	Role       Role
	Visual     EntityHandle
	Body       BodyHandle
	Constraint ConstraintHandle
	Cable      *Cable
	Traceable  bool
	Generation uint64
}

// Registry records every live scene entity in spawn order. It is owned by the
// tick loop and shared by the lifecycle controller and the tracer.
type Registry struct {
	entities   []Entity
	generation uint64
}

func NewRegistry() *Registry {
	return &Registry{entities: make([]Entity, 0, 16)}
}

func (r *Registry) Add(e Entity) {
	r.entities = append(r.entities, e)
}

func (r *Registry) Len() int { return len(r.entities) }

// Generation is the number of the scene generation currently alive. It is
// zero before the first restart.
func (r *Registry) Generation() uint64 { return r.generation }

func (r *Registry) advance() uint64 {
	r.generation++
	return r.generation
}

func (r *Registry) Count(role Role) int {
	n := 0
	for _, e := range r.entities {
		if e.Role == role {
			n++
		}
	}
	return n
}

// All returns a copy of every entity.
func (r *Registry) All() []Entity {
	out := make([]Entity, len(r.entities))
	copy(out, r.entities)
	return out
}

func (r *Registry) ByRole(role Role) []Entity {
	out := make([]Entity, 0)
	for _, e := range r.entities {
		if e.Role == role {
			out = append(out, e)
		}
	}
	return out
}

func (r *Registry) Traceable() []Entity {
	out := make([]Entity, 0, 1)
	for _, e := range r.entities {
		if e.Traceable {
			out = append(out, e)
		}
	}
	return out
}

// RemoveAll empties the registry and returns what it held.
func (r *Registry) RemoveAll() []Entity {
	out := r.entities
	r.entities = make([]Entity, 0, cap(out))
	return out
}

// RemoveRole drops every entity with the given role and returns them.
func (r *Registry) RemoveRole(role Role) []Entity {
	removed := make([]Entity, 0)
	kept := r.entities[:0]
	for _, e := range r.entities {
		if e.Role == role {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	r.entities = kept
	return removed
}
