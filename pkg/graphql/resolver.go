package graphql

import (
	"fmt"

	"github.com/graphql-go/graphql"
	"github.com/mnohosten/atomic32/pkg/registry"
)

// Resolver handles GraphQL query and mutation resolution
type Resolver struct {
	registry *registry.Registry
}

// NewResolver creates a new Resolver instance
func NewResolver(reg *registry.Registry) *Resolver {
	return &Resolver{registry: reg}
}

// counterResult shapes a counter for GraphQL output
func counterResult(name string, value int32) map[string]interface{} {
	return map[string]interface{}{
		"name":  name,
		"value": int(value),
	}
}

// Counter resolves the counter query. Unknown names resolve to null.
func (r *Resolver) Counter(p graphql.ResolveParams) (interface{}, error) {
	name, ok := p.Args["name"].(string)
	if !ok {
		return nil, fmt.Errorf("counter name is required")
	}

	cell, ok := r.registry.Lookup(name)
	if !ok {
		return nil, nil
	}

	return counterResult(name, cell.Load()), nil
}

// Counters resolves the counters query
func (r *Resolver) Counters(p graphql.ResolveParams) (interface{}, error) {
	names := r.registry.Names()

	results := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		cell, ok := r.registry.Lookup(name)
		if !ok {
			// Removed between Names and Lookup
			continue
		}
		results = append(results, counterResult(name, cell.Load()))
	}

	return results, nil
}

// Add resolves the add mutation
func (r *Resolver) Add(p graphql.ResolveParams) (interface{}, error) {
	name, ok := p.Args["name"].(string)
	if !ok {
		return nil, fmt.Errorf("counter name is required")
	}

	delta := 1
	if deltaArg, ok := p.Args["delta"]; ok && deltaArg != nil {
		delta, ok = deltaArg.(int)
		if !ok {
			return nil, fmt.Errorf("invalid delta value")
		}
	}

	value := r.registry.Get(name).Add(int32(delta))
	return counterResult(name, value), nil
}

// Store resolves the store mutation
func (r *Resolver) Store(p graphql.ResolveParams) (interface{}, error) {
	name, ok := p.Args["name"].(string)
	if !ok {
		return nil, fmt.Errorf("counter name is required")
	}
	value, ok := p.Args["value"].(int)
	if !ok {
		return nil, fmt.Errorf("value is required")
	}

	r.registry.Get(name).Store(int32(value))
	return counterResult(name, int32(value)), nil
}

// Swap resolves the swap mutation
func (r *Resolver) Swap(p graphql.ResolveParams) (interface{}, error) {
	name, ok := p.Args["name"].(string)
	if !ok {
		return nil, fmt.Errorf("counter name is required")
	}
	value, ok := p.Args["value"].(int)
	if !ok {
		return nil, fmt.Errorf("value is required")
	}

	previous := r.registry.Get(name).Swap(int32(value))

	return map[string]interface{}{
		"name":     name,
		"previous": int(previous),
		"value":    value,
	}, nil
}

// Cas resolves the cas mutation
func (r *Resolver) Cas(p graphql.ResolveParams) (interface{}, error) {
	name, ok := p.Args["name"].(string)
	if !ok {
		return nil, fmt.Errorf("counter name is required")
	}
	oldValue, ok := p.Args["old"].(int)
	if !ok {
		return nil, fmt.Errorf("old value is required")
	}
	newValue, ok := p.Args["new"].(int)
	if !ok {
		return nil, fmt.Errorf("new value is required")
	}

	observed := r.registry.Get(name).CompareAndExchange(int32(oldValue), int32(newValue))

	return map[string]interface{}{
		"name":    name,
		"swapped": observed == int32(oldValue),
		"value":   int(observed),
	}, nil
}

// WatchCounter resolves the watchCounter subscription. Executed over plain
// HTTP it resolves the current value once; live updates stream over the
// /_ws/watch WebSocket endpoint instead.
func (r *Resolver) WatchCounter(p graphql.ResolveParams) (interface{}, error) {
	name, ok := p.Args["name"].(string)
	if !ok {
		return nil, fmt.Errorf("counter name is required")
	}

	cell, ok := r.registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("counter not found: %s", name)
	}

	return counterResult(name, cell.Load()), nil
}
