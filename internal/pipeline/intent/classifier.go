// Package intent decides which pipeline branch handles a prompt.
package intent

import (
	"regexp"
	"strconv"
	"strings"

	"shop-assistant/internal/common/metrics"
	"shop-assistant/internal/models"
)

// Classification is the outcome of a classifier run.
type Classification struct {
	Intent models.Intent
	Rule   string
	// Family is the casual phrase family, set only for Casual.
	Family string
	// Index is the 0-based record position, set only for FollowUpIndexed.
	Index int
}

// Rule maps a pattern to an intent. Rules are evaluated in order and the
// first match wins.
type Rule struct {
	Name   string
	Intent models.Intent
	Match  func(text string, hasContext bool) (Classification, bool)
}

// Classifier is a pure, ordered rule table.
type Classifier struct {
	rules []Rule
}

func NewClassifier(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// Rules returns the rule table in priority order.
func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Classify returns the first matching rule's intent, falling back to GeneralChat.
func (c *Classifier) Classify(text string, hasContext bool) Classification {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, rule := range c.rules {
		if out, ok := rule.Match(lower, hasContext); ok {
			out.Intent = rule.Intent
			out.Rule = rule.Name
			metrics.IntentsClassified.WithLabelValues(string(out.Intent)).Inc()
			return out
		}
	}
	metrics.IntentsClassified.WithLabelValues(string(models.IntentGeneralChat)).Inc()
	return Classification{Intent: models.IntentGeneralChat, Rule: "fallback"}
}

// DefaultRules is Casual, FollowUpIndexed, StructuredQuery, FollowUpContextual, GeneralChat.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "casual", Intent: models.IntentCasual, Match: matchCasual},
		{Name: "follow_up_indexed", Intent: models.IntentFollowUpIndexed, Match: matchIndexed},
		{Name: "structured_query", Intent: models.IntentStructuredQuery, Match: matchStructured},
		{Name: "follow_up_contextual", Intent: models.IntentFollowUpContextual, Match: matchContextual},
		{Name: "general_chat", Intent: models.IntentGeneralChat, Match: matchAny},
	}
}

// Casual phrase families, matched on word boundaries.
const (
	FamilyGreeting  = "greeting"
	FamilyThanks    = "thanks"
	FamilyFarewell  = "farewell"
	FamilyWellbeing = "wellbeing"
	FamilyIdentity  = "identity"
)

type phraseFamily struct {
	name    string
	pattern *regexp.Regexp
}

func phrases(words ...string) *regexp.Regexp {
	return regexp.MustCompile(`\b(?:` + strings.Join(words, "|") + `)\b`)
}

var casualLexicon = []phraseFamily{
	{FamilyWellbeing, phrases(`how are you`, `how's it going`, `how is it going`, `what's up`, `whats up`, `how are things`)},
	{FamilyIdentity, phrases(`who are you`, `what's your name`, `what is your name`, `are you a bot`)},
	{FamilyThanks, phrases(`thanks`, `thank you`, `thx`, `ty`, `much appreciated`)},
	{FamilyFarewell, phrases(`bye`, `goodbye`, `see you`, `see ya`, `good night`, `take care`)},
	{FamilyGreeting, phrases(`hi`, `hello`, `hey`, `hiya`, `namaste`, `good morning`, `good afternoon`, `good evening`, `yo`)},
}

func matchCasual(text string, _ bool) (Classification, bool) {
	for _, family := range casualLexicon {
		if family.pattern.MatchString(text) {
			return Classification{Family: family.name}, true
		}
	}
	return Classification{}, false
}

var (
	ordinalWords = map[string]int{
		"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
		"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
	}

	indexedPattern = regexp.MustCompile(
		`\b(?:show|give|get|display|tell)\b(?:\s+me)?\s+(?:the\s+)?(?:full|complete|all|more)?\s*` +
			`(?:data|details?|info(?:rmation)?)\s+(?:for|of|on|about)\s+(?:the\s+)?` +
			`(\d+(?:st|nd|rd|th)?|first|second|third|fourth|fifth|sixth|seventh|eighth|ninth|tenth)\s+` +
			`(?:product|item|one|result|record|user)\b`,
	)
	ordinalSuffix = regexp.MustCompile(`(st|nd|rd|th)$`)
)

func matchIndexed(text string, _ bool) (Classification, bool) {
	m := indexedPattern.FindStringSubmatch(text)
	if m == nil {
		return Classification{}, false
	}
	return Classification{Index: ParseOrdinal(m[1]) - 1}, true
}

// ParseOrdinal converts "2nd", "2" or "second" to 2. Unknown input yields 0.
func ParseOrdinal(s string) int {
	if n, ok := ordinalWords[s]; ok {
		return n
	}
	n, err := strconv.Atoi(ordinalSuffix.ReplaceAllString(s, ""))
	if err != nil {
		return 0
	}
	return n
}

var (
	actionVerbs = phrases(`give`, `get`, `show`, `list`, `find`, `fetch`, `display`, `search`, `compare`)
	domainNouns = phrases(`products?`, `items?`, `catalog(?:ue)?`, `inventory`, `stock`, `variants?`, `collections?`)
)

func matchStructured(text string, _ bool) (Classification, bool) {
	return Classification{}, actionVerbs.MatchString(text) && domainNouns.MatchString(text)
}

func matchContextual(_ string, hasContext bool) (Classification, bool) {
	return Classification{}, hasContext
}

func matchAny(string, bool) (Classification, bool) {
	return Classification{}, true
}
