// model/neo4j/relationships.go
package relay_neo4j

// Relationship Types
const (
	// RelOwns represents the relationship between a user and the redirects they manage
	RelOwns = "OWNS"
)
