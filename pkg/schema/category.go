package schema

// Category is the classifier's routing decision for a submitted question.
type Category string

const (
	// CategoryGreeting covers salutations, thanks, farewells, identity and
	// help questions. Answered locally, no backend exchange.
	CategoryGreeting Category = "greeting"
	// CategoryKeyword covers list/show/count style lookups answered from
	// the data store.
	CategoryKeyword Category = "keyword"
	// CategoryCRUD covers write operations on incidents (create, update,
	// delete, mark resolved).
	CategoryCRUD Category = "crud"
	// CategoryReasoning covers analytical questions routed through the
	// retrieval engine and language model. It is also the fixed default
	// when no pattern family matches.
	CategoryReasoning Category = "reasoning"
)

// Categories lists all routing categories in classifier priority order.
var Categories = []Category{CategoryGreeting, CategoryCRUD, CategoryKeyword, CategoryReasoning}

// Valid reports whether c is one of the four routing categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryGreeting, CategoryKeyword, CategoryCRUD, CategoryReasoning:
		return true
	}
	return false
}

// Mode returns the backend routing mode label reported to clients:
// "search" for keyword/crud lookups, "reasoning" otherwise.
func (c Category) Mode() string {
	switch c {
	case CategoryKeyword, CategoryCRUD:
		return "search"
	default:
		return "reasoning"
	}
}
