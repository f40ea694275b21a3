// internal/handlers/prompt-query/models.go
package promptquery

import "shop-assistant/internal/models"

type Input struct {
	Prompt string `json:"prompt"`
}

// Output is the store query result. Which members are set depends on the
// operation.
type Output struct {
	Operation models.OperationKind
	Count     int64
	Users     []models.Record
	User      models.Record
	Data      []models.Record
}

// Body renders the response: FIND carries count and users, FIND_ONE carries
// user (null when nothing matched), COUNT carries count and AGGREGATE carries
// count and data.
func (o *Output) Body() map[string]interface{} {
	body := map[string]interface{}{
		"success":   true,
		"operation": o.Operation,
	}
	switch o.Operation {
	case models.OperationFind:
		body["count"] = o.Count
		body["users"] = nonNil(o.Users)
	case models.OperationFindOne:
		body["user"] = o.User
	case models.OperationCount:
		body["count"] = o.Count
	case models.OperationAggregate:
		body["count"] = o.Count
		body["data"] = nonNil(o.Data)
	}
	return body
}

func nonNil(records []models.Record) []models.Record {
	if records == nil {
		return []models.Record{}
	}
	return records
}
