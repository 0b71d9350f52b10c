// audit/model.go
package audit

import (
	"encoding/json"
	"time"
)

const (
	ActionCreateRedirect     = "CREATE_REDIRECT"
	ActionUpdateRedirect     = "UPDATE_REDIRECT"
	ActionDeleteRedirect     = "DELETE_REDIRECT"
	ActionRevalidateRedirect = "REVALIDATE_REDIRECTS"
)

type AuditLog struct {
	ID            string          `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	UserID        string          `json:"user_id"`
	Action        string          `json:"action"`
	ResourceID    string          `json:"resource_id,omitempty"`
	Source        string          `json:"source,omitempty"`
	Destination   string          `json:"destination,omitempty"`
	ChangeDetails json.RawMessage `json:"change_details,omitempty"`
}

// LogQuery filters audit entries. Empty fields are not filtered on.
type LogQuery struct {
	From       time.Time
	To         time.Time
	UserID     string
	ResourceID string
	Limit      int
	Offset     int
}
