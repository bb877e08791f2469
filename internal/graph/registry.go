package graph

import "fmt"

// Collision records a semantic key whose sanitized id was already taken.
type Collision struct {
	Key      string `json:"key" msgpack:"key"`
	Base     string `json:"base" msgpack:"base"`
	Assigned string `json:"assigned" msgpack:"assigned"`
	Holder   string `json:"holder" msgpack:"holder"`
}

// Registry binds semantic keys to unique identifiers. The first key to
// claim a sanitized id keeps it; later keys get "_2", "_3", ... appended and
// the collision is recorded. Ids depend only on the order of calls.
type Registry struct {
	byKey      map[string]string
	owner      map[string]string
	collisions []Collision
}

func NewRegistry() *Registry {
	return &Registry{byKey: map[string]string{}, owner: map[string]string{}}
}

// ID returns the id bound to key, binding one derived from text on first
// use. created reports whether this call made the binding.
func (r *Registry) ID(key, text string) (id string, created bool) {
	if id, ok := r.byKey[key]; ok {
		return id, false
	}
	base := Sanitize(text)
	id = base
	for n := 2; ; n++ {
		if _, taken := r.owner[id]; !taken {
			break
		}
		id = fmt.Sprintf("%s_%d", base, n)
	}
	if id != base {
		r.collisions = append(r.collisions, Collision{Key: key, Base: base, Assigned: id, Holder: r.owner[base]})
	}
	r.byKey[key] = id
	r.owner[id] = key
	return id, true
}

// Lookup returns the id bound to key without binding.
func (r *Registry) Lookup(key string) (string, bool) {
	id, ok := r.byKey[key]
	return id, ok
}

func (r *Registry) Collisions() []Collision {
	return append([]Collision(nil), r.collisions...)
}
