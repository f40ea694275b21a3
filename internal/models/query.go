package models

// Intent is the classified purpose of a prompt.
type Intent string

const (
	IntentCasual             Intent = "casual"
	IntentFollowUpIndexed    Intent = "follow_up_indexed"
	IntentStructuredQuery    Intent = "structured_query"
	IntentFollowUpContextual Intent = "follow_up_contextual"
	IntentGeneralChat        Intent = "general_chat"
)

// TemplateKind identifies the instruction template a query was compiled with.
type TemplateKind string

const (
	TemplateCommerceQuery  TemplateKind = "commerce_query"
	TemplateStoreQuery     TemplateKind = "store_query"
	TemplateContextual     TemplateKind = "contextual"
	TemplateGeneralChat    TemplateKind = "general_chat"
	TemplateCouponCampaign TemplateKind = "coupon_campaign"
)

// Structured reports whether the template produces an executable query.
func (k TemplateKind) Structured() bool {
	return k == TemplateCommerceQuery || k == TemplateStoreQuery
}

// CompiledQuery is generated text plus the outcome of structural validation.
// Validated implies Text is brace-delimited for commerce queries, or that
// Operation holds the parsed store operation.
type CompiledQuery struct {
	TemplateKind TemplateKind         `json:"templateKind"`
	Text         string               `json:"text"`
	Validated    bool                 `json:"validated"`
	Operation    *StructuredOperation `json:"operation,omitempty"`
}

// PromptRequest is a received prompt. UserID defaults to AnonymousUser.
type PromptRequest struct {
	Text           string `json:"text"`
	ConversationID string `json:"conversationId,omitempty"`
	UserID         string `json:"userId,omitempty"`
}

const AnonymousUser = "anonymous"

// CachedQuery is the compiled query remembered for an exact prompt.
type CachedQuery struct {
	Prompt string        `json:"prompt"`
	Query  CompiledQuery `json:"query"`
}

// ConversationContext is the last successful execution for a user or conversation.
type ConversationContext struct {
	Prompt string        `json:"prompt"`
	Query  CompiledQuery `json:"query"`
	Result RawResult     `json:"result"`
}
