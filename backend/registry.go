package backend

// Registry maps adapter-minted ids to the facades that own them, for one kind of handle. Ids may
// be reused after the owner is closed.
type Registry struct {
	kind  string
	items map[string]interface{}
}

func newRegistry(kind string) *Registry {
	return &Registry{kind: kind, items: make(map[string]interface{})}
}

func (r *Registry) Kind() string {
	return r.kind
}

func (r *Registry) Register(id string, owner interface{}) {
	r.items[id] = owner
}

func (r *Registry) Unregister(id string) {
	delete(r.items, id)
}

func (r *Registry) Lookup(id string) (interface{}, error) {
	owner, ok := r.items[id]
	if !ok {
		return nil, &UnknownHandleError{Kind: r.kind, ID: id}
	}
	return owner, nil
}

func (r *Registry) Len() int {
	return len(r.items)
}
