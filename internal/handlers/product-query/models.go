// internal/handlers/product-query/models.go
package productquery

type Input struct {
	Prompt         string `json:"prompt"`
	ConversationID string `json:"conversationId"`
}
