// internal/handlers/chat/models.go
package chat

import (
	"strings"

	"shop-assistant/internal/models"
)

// Input accepts "prompt" as an alias for "message". The text is passed on
// verbatim since compiled queries are cached by exact prompt.
type Input struct {
	Message string `json:"message"`
	Prompt  string `json:"prompt"`
	UserID  string `json:"userId"`
}

func (i *Input) toRequest() models.PromptRequest {
	text := i.Message
	if strings.TrimSpace(text) == "" {
		text = i.Prompt
	}
	return models.PromptRequest{Text: text, UserID: strings.TrimSpace(i.UserID)}
}
