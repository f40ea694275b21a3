// Package formatter turns raw results into the response envelope. Every
// function here is pure and total over the result kinds.
package formatter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	apperrors "shop-assistant/internal/common/errors"
	"shop-assistant/internal/models"
	"shop-assistant/internal/pipeline/intent"
)

// InlineLimit is the number of entries listed before the "...and N more" suffix.
const InlineLimit = 5

const closing = "😎 Need more details or something else?"

// Branch names the formatting branch chosen for a commerce result.
type Branch string

const (
	BranchAnalytics Branch = "analytics"
	BranchCompare   Branch = "compare"
	BranchVariants  Branch = "variants"
	BranchInventory Branch = "inventory"
	BranchDate      Branch = "date"
	BranchPrice     Branch = "price"
	BranchListing   Branch = "listing"
)

var (
	analyticsWords = regexp.MustCompile(`\b(analytics|analysis|insights?|trends?|stats|statistics|summary|average)\b`)
	compareWords   = regexp.MustCompile(`\b(compare|comparison|vs\.?|versus|difference)\b`)
	variantWords   = regexp.MustCompile(`\b(colou?rs?|sizes?|styles?|variants?)\b`)
	colorWords     = regexp.MustCompile(`\bcolou?rs?\b`)
	sizeWords      = regexp.MustCompile(`\bsizes?\b`)
	inventoryWords = regexp.MustCompile(`\b(stock|inventory|available|availability)\b`)
	dateWords      = regexp.MustCompile(`\b(date|added|new|newest|recent|latest|month|year)\b`)
	priceWords     = regexp.MustCompile(`\b(price|prices|cost|costs|expensive|cheap|cheaper|cheapest)\b`)
)

var casualReplies = map[string]string{
	intent.FamilyGreeting:  "Hey there! 😊 How can I help you today?",
	intent.FamilyThanks:    "You're welcome! 😊 Anything else I can find for you?",
	intent.FamilyFarewell:  "Bye for now! 👋 Come back anytime you need something.",
	intent.FamilyWellbeing: "I'm doing great, thanks for asking! 😄 Ready to help you shop.",
	intent.FamilyIdentity:  "I'm Nova, your shopping assistant. 🛍️ Ask me about products, prices or stock.",
}

type Formatter struct {
	now func() time.Time
}

func New() *Formatter {
	return &Formatter{now: time.Now}
}

// NewWithClock fixes the reference time used for recency listings.
func NewWithClock(now func() time.Time) *Formatter {
	return &Formatter{now: now}
}

// Casual returns the canned reply for a phrase family.
func Casual(family string) models.ResponseEnvelope {
	reply, ok := casualReplies[family]
	if !ok {
		reply = casualReplies[intent.FamilyGreeting]
		family = intent.FamilyGreeting
	}
	return models.ResponseEnvelope{
		Success:     true,
		Message:     reply,
		Suggestions: casualSuggestions[family],
		Intent:      models.IntentCasual,
	}
}

// Reply wraps generated conversational text.
func Reply(text string, in models.Intent) models.ResponseEnvelope {
	return models.ResponseEnvelope{
		Success:     true,
		Message:     text,
		Suggestions: chatSuggestions,
		Intent:      in,
	}
}

// Detail returns the item at a 0-based index of a stored result. A missing
// result or an out-of-range index is a not-found error.
func Detail(prior *models.RawResult, index int) (models.ResponseEnvelope, error) {
	if prior == nil || prior.IsEmpty() {
		return models.ResponseEnvelope{}, apperrors.NewNotFoundError("No previous results to pick from. Try searching for products first.").
			WithSuggestions("Show me some products")
	}
	item, ok := prior.At(index)
	if !ok {
		return models.ResponseEnvelope{}, apperrors.NewNotFoundError(
			fmt.Sprintf("There's no item #%d in the last result (it had %d).", index+1, prior.Len())).
			WithSuggestions("Show full data for the 1st product")
	}

	return models.ResponseEnvelope{
		Success:     true,
		Message:     fmt.Sprintf("Here's the full data for %s #%d 🎉", itemNoun(prior.Kind), index+1),
		Data:        []interface{}{item},
		Suggestions: detailSuggestions,
		Index:       index + 1,
		Intent:      models.IntentFollowUpIndexed,
	}, nil
}

// Format renders a result for the prompt that produced it.
func (f *Formatter) Format(res *models.RawResult, prompt string, in models.Intent) models.ResponseEnvelope {
	if res.IsEmpty() {
		return models.ResponseEnvelope{
			Success:     true,
			Message:     fmt.Sprintf("Oops, no %ss found for %q! Try another question? 😎", itemNoun(resultKind(res)), prompt),
			Data:        []interface{}{},
			Suggestions: []string{},
			Intent:      in,
		}
	}

	var env models.ResponseEnvelope
	switch res.Kind {
	case models.ResultCommerceProducts:
		env = f.formatProducts(res, prompt)
	case models.ResultStoreCount:
		env = formatCount(res)
	default:
		env = formatRecords(res, prompt)
	}
	env.Success = true
	env.Intent = in
	return env
}

// SelectBranch picks the commerce branch for a prompt. The analytics branch
// only applies when stats are available.
func SelectBranch(prompt string, hasStats bool) Branch {
	lower := strings.ToLower(prompt)
	switch {
	case hasStats && analyticsWords.MatchString(lower):
		return BranchAnalytics
	case compareWords.MatchString(lower):
		return BranchCompare
	case variantWords.MatchString(lower):
		return BranchVariants
	case inventoryWords.MatchString(lower):
		return BranchInventory
	case dateWords.MatchString(lower):
		return BranchDate
	case priceWords.MatchString(lower):
		return BranchPrice
	}
	return BranchListing
}

func (f *Formatter) formatProducts(res *models.RawResult, prompt string) models.ResponseEnvelope {
	products := res.Products
	data := make([]interface{}, len(products))
	for i, p := range products {
		data[i] = p
	}
	analytics := &models.Analytics{TotalProducts: len(products), PriceStats: res.Stats}

	var b strings.Builder
	fmt.Fprintf(&b, "Hey! Here's what I found for %q:\n", prompt)

	var suggestions []string
	switch SelectBranch(prompt, res.Stats != nil) {
	case BranchAnalytics:
		s := res.Stats
		fmt.Fprintf(&b, "📊 Price insights across %d products:\n", s.Count)
		fmt.Fprintf(&b, "  Lowest: %s\n  Highest: %s\n  Average: %s\n",
			money(s.Min, s.Currency), money(s.Max, s.Currency), money(s.Avg, s.Currency))
		in, out, units := stockTally(products)
		fmt.Fprintf(&b, "  In stock: %d, out of stock: %d\n", in, out)
		analytics.InStock, analytics.OutOfStock, analytics.TotalInventory = &in, &out, &units
		suggestions = analyticsSuggestions

	case BranchCompare:
		b.WriteString("Comparing products:\n")
		writeList(&b, len(products), func(i int) string {
			p := products[i]
			line := fmt.Sprintf("🎉 %s: %s %s", p.Title, p.Price, p.CurrencyCode)
			if p.CompareAtPrice != models.NotAvailable && p.CompareAtPrice != "" {
				line += fmt.Sprintf(" (was %s)", p.CompareAtPrice)
			}
			return line
		})
		b.WriteString("Which one catches your eye? 😎")
		return models.ResponseEnvelope{Message: b.String(), Data: data, Analytics: analytics, Suggestions: compareSuggestions}

	case BranchVariants:
		lower := strings.ToLower(prompt)
		b.WriteString("🎨 Options:\n")
		writeList(&b, len(products), func(i int) string {
			return fmt.Sprintf("  %d. %s: %s", i+1, products[i].Title, variantOptions(products[i], lower))
		})
		suggestions = variantSuggestions

	case BranchInventory:
		in, out, units := stockTally(products)
		fmt.Fprintf(&b, "📦 %d in stock, %d out of stock (%d units total):\n", in, out, units)
		writeList(&b, len(products), func(i int) string {
			p := products[i]
			if inStock(p) {
				return fmt.Sprintf("  %d. %s: %d units ✅", i+1, p.Title, p.TotalInventory)
			}
			return fmt.Sprintf("  %d. %s: out of stock ❌", i+1, p.Title)
		})
		analytics.InStock, analytics.OutOfStock, analytics.TotalInventory = &in, &out, &units
		suggestions = inventorySuggestions

	case BranchDate:
		now := f.now()
		b.WriteString("🆕 Most recent additions:\n")
		writeList(&b, len(products), func(i int) string {
			p := products[i]
			created, err := time.Parse(time.RFC3339, p.CreatedAt)
			if err != nil {
				return fmt.Sprintf("  %d. %s: added date unknown", i+1, p.Title)
			}
			return fmt.Sprintf("  %d. %s: added %s (%s)", i+1, p.Title, daysAgo(now, created), created.Format("2006-01-02"))
		})
		suggestions = dateSuggestions

	case BranchPrice:
		b.WriteString("💰 Prices:\n")
		writeList(&b, len(products), func(i int) string {
			p := products[i]
			line := fmt.Sprintf("  %d. %s: %s %s", i+1, p.Title, p.Price, p.CurrencyCode)
			if p.CompareAtPrice != models.NotAvailable && p.CompareAtPrice != "" {
				line += fmt.Sprintf(" (was %s)", p.CompareAtPrice)
			}
			return line
		})
		suggestions = priceSuggestions

	default:
		writeList(&b, len(products), func(i int) string {
			p := products[i]
			stock := "out of stock"
			if inStock(p) {
				stock = fmt.Sprintf("in stock (%d)", p.TotalInventory)
			}
			return fmt.Sprintf("  %d. %s: %s %s, %s, %s", i+1, p.Title, p.Price, p.CurrencyCode, stock, plural(len(p.Variants), "variant"))
		})
		suggestions = listingSuggestions
	}

	b.WriteString(closing)
	return models.ResponseEnvelope{Message: b.String(), Data: data, Analytics: analytics, Suggestions: suggestions}
}

func formatRecords(res *models.RawResult, prompt string) models.ResponseEnvelope {
	items := res.Items()
	var b strings.Builder
	fmt.Fprintf(&b, "Here's what I found for %q:\n", prompt)
	writeList(&b, len(items), func(i int) string {
		rec, _ := items[i].(models.Record)
		return fmt.Sprintf("  %d. %s", i+1, recordLabel(rec))
	})
	b.WriteString(closing)
	return models.ResponseEnvelope{Message: b.String(), Data: items, Suggestions: recordSuggestions}
}

func formatCount(res *models.RawResult) models.ResponseEnvelope {
	return models.ResponseEnvelope{
		Message:     fmt.Sprintf("I counted %s. 🔢", plural(int(res.Count), "matching record")),
		Data:        []interface{}{map[string]interface{}{"count": res.Count}},
		Suggestions: countSuggestions,
	}
}

// writeList writes at most InlineLimit lines and a suffix for the rest.
func writeList(b *strings.Builder, n int, line func(i int) string) {
	for i := 0; i < min(n, InlineLimit); i++ {
		b.WriteString(line(i))
		b.WriteByte('\n')
	}
	if n > InlineLimit {
		fmt.Fprintf(b, "...and %d more\n", n-InlineLimit)
	}
}

func inStock(p models.Product) bool {
	return p.AvailableForSale && p.TotalInventory > 0
}

func stockTally(products []models.Product) (in, out, units int) {
	for _, p := range products {
		if inStock(p) {
			in++
			units += p.TotalInventory
		} else {
			out++
		}
	}
	return in, out, units
}

// variantOptions lists the colors, sizes or variants a prompt asks about.
func variantOptions(p models.Product, lowerPrompt string) string {
	switch {
	case colorWords.MatchString(lowerPrompt):
		if colors := distinctOptions(p.Variants, func(v models.Variant) string { return v.Color }); len(colors) > 0 {
			return "Colors: " + strings.Join(colors, ", ")
		}
		return "No other colors available."
	case sizeWords.MatchString(lowerPrompt):
		if sizes := distinctOptions(p.Variants, func(v models.Variant) string { return v.Size }); len(sizes) > 0 {
			return "Sizes: " + strings.Join(sizes, ", ")
		}
		return "No size options available."
	}

	variants := make([]string, 0, len(p.Variants))
	for _, v := range p.Variants {
		variants = append(variants, fmt.Sprintf("%s (%s %s)", v.Title, v.Price, p.CurrencyCode))
	}
	if len(variants) == 0 {
		return "No other variants available."
	}
	return "Variants: " + strings.Join(variants, ", ")
}

// distinctOptions keeps first-seen order and skips blank or N/A values.
func distinctOptions(variants []models.Variant, value func(models.Variant) string) []string {
	seen := make(map[string]bool, len(variants))
	var out []string
	for _, v := range variants {
		val := value(v)
		if val == "" || val == models.NotAvailable || seen[val] {
			continue
		}
		seen[val] = true
		out = append(out, val)
	}
	return out
}

func daysAgo(now, created time.Time) string {
	days := int(now.Sub(created).Hours() / 24)
	switch {
	case days <= 0:
		return "today"
	case days == 1:
		return "yesterday"
	}
	return fmt.Sprintf("%d days ago", days)
}

func money(v float64, currency string) string {
	if currency == "" {
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%.2f %s", v, currency)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func recordLabel(rec models.Record) string {
	for _, key := range []string{"email", "title", "firstName", "_id", "id"} {
		if v, ok := rec[key]; ok && v != nil {
			return fmt.Sprint(v)
		}
	}
	return fmt.Sprint(map[string]interface{}(rec))
}

func resultKind(res *models.RawResult) models.ResultKind {
	if res == nil {
		return models.ResultCommerceProducts
	}
	return res.Kind
}

func itemNoun(kind models.ResultKind) string {
	if kind == models.ResultCommerceProducts {
		return "product"
	}
	return "record"
}
