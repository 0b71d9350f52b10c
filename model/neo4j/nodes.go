// model/neo4j/nodes.go
package relay_neo4j

// Node Labels
const (
	// LabelRedirect represents a stored redirect rule
	LabelRedirect = "Redirect"

	// LabelUser represents the account owning redirect rules
	LabelUser = "User"
)

// Constraint names
const (
	ConstraintRedirectID          = "unique_redirect_id"
	ConstraintRedirectOwnerSource = "unique_redirect_owner_source"
)
