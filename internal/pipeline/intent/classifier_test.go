package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"shop-assistant/internal/models"
)

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name       string
		text       string
		hasContext bool
		want       models.Intent
		validate   func(t *testing.T, out Classification)
	}{
		{
			name: "greeting",
			text: "Hello there!",
			want: models.IntentCasual,
			validate: func(t *testing.T, out Classification) {
				assert.Equal(t, FamilyGreeting, out.Family)
			},
		},
		{
			name: "wellbeing wins over greeting",
			text: "hey, how are you?",
			want: models.IntentCasual,
			validate: func(t *testing.T, out Classification) {
				assert.Equal(t, FamilyWellbeing, out.Family)
			},
		},
		{
			name:       "casual beats context",
			text:       "thanks",
			hasContext: true,
			want:       models.IntentCasual,
		},
		{
			name: "no substring false positive",
			text: "what is this shipping policy",
			want: models.IntentGeneralChat,
		},
		{
			name: "indexed numeric ordinal",
			text: "show full data for the 2nd product",
			want: models.IntentFollowUpIndexed,
			validate: func(t *testing.T, out Classification) {
				assert.Equal(t, 1, out.Index)
			},
		},
		{
			name: "indexed word ordinal",
			text: "Give me details of the fifth item",
			want: models.IntentFollowUpIndexed,
			validate: func(t *testing.T, out Classification) {
				assert.Equal(t, 4, out.Index)
			},
		},
		{
			name: "structured query",
			text: "Show me 5 products under $50",
			want: models.IntentStructuredQuery,
		},
		{
			name:       "structured beats context",
			text:       "list items in stock",
			hasContext: true,
			want:       models.IntentStructuredQuery,
		},
		{
			name: "verb without noun",
			text: "show me something nice",
			want: models.IntentGeneralChat,
		},
		{
			name:       "contextual follow-up",
			text:       "which of those is cheapest?",
			hasContext: true,
			want:       models.IntentFollowUpContextual,
		},
		{
			name: "general chat",
			text: "tell me a joke",
			want: models.IntentGeneralChat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := c.Classify(tt.text, tt.hasContext)
			assert.Equal(t, tt.want, out.Intent)
			if tt.validate != nil {
				tt.validate(t, out)
			}
		})
	}
}

func TestClassifier_RulePriority(t *testing.T) {
	rules := NewClassifier().Rules()
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"casual", "follow_up_indexed", "structured_query", "follow_up_contextual", "general_chat"}, names)
}

func TestClassifier_CustomRules(t *testing.T) {
	c := NewClassifier(Rule{
		Name:   "always_structured",
		Intent: models.IntentStructuredQuery,
		Match:  func(string, bool) (Classification, bool) { return Classification{}, true },
	})
	out := c.Classify("hi", false)
	assert.Equal(t, models.IntentStructuredQuery, out.Intent)
	assert.Equal(t, "always_structured", out.Rule)
}

func TestParseOrdinal(t *testing.T) {
	assert.Equal(t, 2, ParseOrdinal("2nd"))
	assert.Equal(t, 11, ParseOrdinal("11th"))
	assert.Equal(t, 3, ParseOrdinal("third"))
	assert.Equal(t, 0, ParseOrdinal("many"))
}
