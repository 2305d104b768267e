package graphql

import (
	"fmt"

	"github.com/graphql-go/graphql"
	"github.com/mnohosten/atomic32/pkg/registry"
)

// Schema creates and returns the GraphQL schema for the counter service
func Schema(reg *registry.Registry) (graphql.Schema, error) {
	// Define the Counter type
	counterType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "Counter",
		Description: "A named atomic 32-bit counter",
		Fields: graphql.Fields{
			"name": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.String),
				Description: "Counter name",
			},
			"value": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.Int),
				Description: "Current counter value",
			},
		},
	})

	// Define the SwapResult type
	swapResultType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "SwapResult",
		Description: "Result of a swap operation",
		Fields: graphql.Fields{
			"name": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.String),
				Description: "Counter name",
			},
			"previous": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.Int),
				Description: "Value the counter held before the swap",
			},
			"value": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.Int),
				Description: "Value stored by the swap",
			},
		},
	})

	// Define the CasResult type
	casResultType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "CasResult",
		Description: "Result of a compare-and-swap operation",
		Fields: graphql.Fields{
			"name": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.String),
				Description: "Counter name",
			},
			"swapped": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.Boolean),
				Description: "Whether the swap took effect",
			},
			"value": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.Int),
				Description: "Value observed at the attempt",
			},
		},
	})

	// Create resolver instance
	resolver := NewResolver(reg)

	// Define the Query type
	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "Query",
		Description: "Root query type for the counter service",
		Fields: graphql.Fields{
			"counter": &graphql.Field{
				Type:        counterType,
				Description: "Fetch a single counter by name",
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{
						Type:        graphql.NewNonNull(graphql.String),
						Description: "Counter name",
					},
				},
				Resolve: resolver.Counter,
			},
			"counters": &graphql.Field{
				Type:        graphql.NewList(graphql.NewNonNull(counterType)),
				Description: "List all counters, sorted by name",
				Resolve:     resolver.Counters,
			},
		},
	})

	// Define the Mutation type
	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "Mutation",
		Description: "Root mutation type for the counter service",
		Fields: graphql.Fields{
			"add": &graphql.Field{
				Type:        graphql.NewNonNull(counterType),
				Description: "Add a delta to a counter and return the new value",
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{
						Type:        graphql.NewNonNull(graphql.String),
						Description: "Counter name, created on first use",
					},
					"delta": &graphql.ArgumentConfig{
						Type:         graphql.Int,
						DefaultValue: 1,
						Description:  "Amount to add (defaults to 1)",
					},
				},
				Resolve: resolver.Add,
			},
			"store": &graphql.Field{
				Type:        graphql.NewNonNull(counterType),
				Description: "Store a value into a counter",
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{
						Type:        graphql.NewNonNull(graphql.String),
						Description: "Counter name, created on first use",
					},
					"value": &graphql.ArgumentConfig{
						Type:        graphql.NewNonNull(graphql.Int),
						Description: "Value to store",
					},
				},
				Resolve: resolver.Store,
			},
			"swap": &graphql.Field{
				Type:        graphql.NewNonNull(swapResultType),
				Description: "Store a value and return the previous one",
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{
						Type:        graphql.NewNonNull(graphql.String),
						Description: "Counter name, created on first use",
					},
					"value": &graphql.ArgumentConfig{
						Type:        graphql.NewNonNull(graphql.Int),
						Description: "Value to store",
					},
				},
				Resolve: resolver.Swap,
			},
			"cas": &graphql.Field{
				Type:        graphql.NewNonNull(casResultType),
				Description: "Compare-and-swap a counter value",
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{
						Type:        graphql.NewNonNull(graphql.String),
						Description: "Counter name, created on first use",
					},
					"old": &graphql.ArgumentConfig{
						Type:        graphql.NewNonNull(graphql.Int),
						Description: "Expected current value",
					},
					"new": &graphql.ArgumentConfig{
						Type:        graphql.NewNonNull(graphql.Int),
						Description: "Replacement value",
					},
				},
				Resolve: resolver.Cas,
			},
		},
	})

	// Define the Subscription type
	subscriptionType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "Subscription",
		Description: "Root subscription type for the counter service",
		Fields: graphql.Fields{
			"watchCounter": &graphql.Field{
				Type:        counterType,
				Description: "Watch a counter (live streaming rides the /_ws/watch WebSocket; over HTTP this resolves once)",
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{
						Type:        graphql.NewNonNull(graphql.String),
						Description: "Counter name to watch",
					},
				},
				Resolve: resolver.WatchCounter,
			},
		},
	})

	// Create the schema
	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:        queryType,
		Mutation:     mutationType,
		Subscription: subscriptionType,
	})

	if err != nil {
		return graphql.Schema{}, fmt.Errorf("failed to create GraphQL schema: %w", err)
	}

	return schema, nil
}
