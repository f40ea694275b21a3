package formatter

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "shop-assistant/internal/common/errors"
	"shop-assistant/internal/models"
	"shop-assistant/internal/pipeline/intent"
)

var fixedNow = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

func makeProducts(n int) []models.Product {
	out := make([]models.Product, n)
	for i := range out {
		out[i] = models.Product{
			Title:            fmt.Sprintf("Luna Tea Plate %d", i+1),
			Price:            fmt.Sprintf("%d.00", 10*(i+1)),
			CurrencyCode:     "USD",
			CompareAtPrice:   models.NotAvailable,
			AvailableForSale: i%2 == 0,
			CreatedAt:        fixedNow.AddDate(0, 0, -(i + 1)).Format(time.RFC3339),
			Variants:         []models.Variant{{Title: "Default"}},
		}
		if i%2 == 0 {
			out[i].TotalInventory = 3
		}
	}
	return out
}

func productResult(n int, withStats bool) *models.RawResult {
	res := &models.RawResult{Kind: models.ResultCommerceProducts, Products: makeProducts(n)}
	if withStats {
		res.Stats = &models.PriceStats{Min: 10, Max: float64(10 * n), Avg: 5 * float64(n+1), Count: n, Currency: "USD"}
	}
	return res
}

func variantResult() *models.RawResult {
	return &models.RawResult{Kind: models.ResultCommerceProducts, Products: []models.Product{
		{
			Title:            "Luna Tea Plate - Sagittarius",
			Price:            "25.00",
			CurrencyCode:     "USD",
			AvailableForSale: true,
			TotalInventory:   4,
			Variants: []models.Variant{
				{Title: "Blue / M", Price: "25.00", Color: "Blue", Size: "M", Available: true},
				{Title: "Red / L", Price: "27.00", Color: "Red", Size: "L", Available: true},
				{Title: "Blue / M gift", Price: "25.00", Color: "Blue", Size: models.NotAvailable},
			},
		},
		{Title: "Luna Tea Plate - Aquarius", Price: "22.00", CurrencyCode: "USD"},
	}}
}

func TestSelectBranch(t *testing.T) {
	tests := []struct {
		prompt   string
		hasStats bool
		want     Branch
	}{
		{"show me price insights for plates", true, BranchAnalytics},
		{"show me price insights for plates", false, BranchPrice},
		{"compare the sagittarius and aquarius plates", true, BranchCompare},
		{"what plates are in stock", false, BranchInventory},
		{"What colors are available for Luna Tea Plate - Sagittarius", false, BranchVariants},
		{"what colour options do you have", false, BranchVariants},
		{"What sizes do you have for the tea plate", true, BranchVariants},
		{"show me the styles available", false, BranchVariants},
		{"compare the variants of both plates", false, BranchCompare},
		{"show the newest products", false, BranchDate},
		{"show cheap plates", false, BranchPrice},
		{"show me plates", true, BranchListing},
		{"show me stockings", false, BranchListing},
	}
	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectBranch(tt.prompt, tt.hasStats))
		})
	}
}

func TestFormat_EmptyResultGuard(t *testing.T) {
	f := NewWithClock(func() time.Time { return fixedNow })

	tests := []struct {
		name string
		res  *models.RawResult
	}{
		{name: "nil result", res: nil},
		{name: "no products", res: &models.RawResult{Kind: models.ResultCommerceProducts}},
		{name: "no products despite analytics keyword", res: &models.RawResult{Kind: models.ResultCommerceProducts, Stats: &models.PriceStats{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := f.Format(tt.res, "show price insights for unicorns", models.IntentStructuredQuery)
			assert.True(t, env.Success)
			assert.Equal(t, `Oops, no products found for "show price insights for unicorns"! Try another question? 😎`, env.Message)
			assert.Empty(t, env.Data)
			assert.NotNil(t, env.Data)
			assert.Empty(t, env.Suggestions)
			assert.Nil(t, env.Analytics)
		})
	}
}

func TestFormat_Truncation(t *testing.T) {
	f := NewWithClock(func() time.Time { return fixedNow })
	prompts := map[Branch]string{
		BranchCompare:   "compare these plates",
		BranchVariants:  "which colors do these plates come in",
		BranchInventory: "which plates are in stock",
		BranchDate:      "show recent plates",
		BranchPrice:     "show plate prices",
		BranchListing:   "show me plates",
	}

	for branch, prompt := range prompts {
		t.Run(string(branch)+" six entries", func(t *testing.T) {
			env := f.Format(productResult(6, false), prompt, models.IntentStructuredQuery)
			assert.Contains(t, env.Message, "...and 1 more")
			assert.Contains(t, env.Message, "Luna Tea Plate 5")
			assert.NotContains(t, env.Message, "Luna Tea Plate 6")
			assert.Len(t, env.Data, 6)
		})
		t.Run(string(branch)+" five entries", func(t *testing.T) {
			env := f.Format(productResult(5, false), prompt, models.IntentStructuredQuery)
			assert.NotContains(t, env.Message, "more\n")
			for i := 1; i <= 5; i++ {
				assert.Contains(t, env.Message, fmt.Sprintf("Luna Tea Plate %d", i))
			}
		})
	}
}

func TestFormat_CommerceBranches(t *testing.T) {
	f := NewWithClock(func() time.Time { return fixedNow })

	tests := []struct {
		name     string
		res      *models.RawResult
		prompt   string
		validate func(t *testing.T, env models.ResponseEnvelope)
	}{
		{
			name:   "analytics summary",
			res:    productResult(3, true),
			prompt: "give me price insights",
			validate: func(t *testing.T, env models.ResponseEnvelope) {
				assert.Contains(t, env.Message, "📊 Price insights across 3 products")
				assert.Contains(t, env.Message, "Lowest: 10.00 USD")
				assert.Contains(t, env.Message, "Highest: 30.00 USD")
				assert.Contains(t, env.Message, "Average: 20.00 USD")
				require.NotNil(t, env.Analytics)
				require.NotNil(t, env.Analytics.InStock)
				assert.Equal(t, 2, *env.Analytics.InStock)
				assert.Equal(t, 1, *env.Analytics.OutOfStock)
				assert.Equal(t, analyticsSuggestions, env.Suggestions)
			},
		},
		{
			name: "compare shows was price",
			res: &models.RawResult{Kind: models.ResultCommerceProducts, Products: []models.Product{
				{Title: "Luna Tea Plate - Sagittarius", Price: "25.00", CurrencyCode: "USD", CompareAtPrice: "30.00"},
				{Title: "Luna Tea Plate - Aquarius", Price: "22.00", CurrencyCode: "USD", CompareAtPrice: models.NotAvailable},
			}},
			prompt: "Compare prices between Luna Tea Plate - Sagittarius and Luna Tea Plate - Aquarius",
			validate: func(t *testing.T, env models.ResponseEnvelope) {
				assert.Contains(t, env.Message, "🎉 Luna Tea Plate - Sagittarius: 25.00 USD (was 30.00)\n")
				assert.Contains(t, env.Message, "🎉 Luna Tea Plate - Aquarius: 22.00 USD\n")
				assert.True(t, strings.HasSuffix(env.Message, "Which one catches your eye? 😎"))
			},
		},
		{
			name:   "colors listed without duplicates or placeholders",
			res:    variantResult(),
			prompt: "What colors are available for Luna Tea Plate - Sagittarius",
			validate: func(t *testing.T, env models.ResponseEnvelope) {
				assert.Contains(t, env.Message, "🎨 Options:\n")
				assert.Contains(t, env.Message, "1. Luna Tea Plate - Sagittarius: Colors: Blue, Red\n")
				assert.Contains(t, env.Message, "2. Luna Tea Plate - Aquarius: No other colors available.\n")
				assert.NotContains(t, env.Message, "in stock")
				assert.Equal(t, variantSuggestions, env.Suggestions)
			},
		},
		{
			name:   "sizes listed",
			res:    variantResult(),
			prompt: "What sizes do you have?",
			validate: func(t *testing.T, env models.ResponseEnvelope) {
				assert.Contains(t, env.Message, "1. Luna Tea Plate - Sagittarius: Sizes: M, L\n")
				assert.Contains(t, env.Message, "2. Luna Tea Plate - Aquarius: No size options available.\n")
			},
		},
		{
			name:   "variants listed with prices",
			res:    variantResult(),
			prompt: "which styles can I pick from",
			validate: func(t *testing.T, env models.ResponseEnvelope) {
				assert.Contains(t, env.Message, "1. Luna Tea Plate - Sagittarius: Variants: Blue / M (25.00 USD), Red / L (27.00 USD), Blue / M gift (25.00 USD)\n")
				assert.Contains(t, env.Message, "2. Luna Tea Plate - Aquarius: No other variants available.\n")
			},
		},
		{
			name:   "inventory tally",
			res:    productResult(4, false),
			prompt: "what's in stock?",
			validate: func(t *testing.T, env models.ResponseEnvelope) {
				assert.Contains(t, env.Message, "📦 2 in stock, 2 out of stock (6 units total)")
				assert.Contains(t, env.Message, "1. Luna Tea Plate 1: 3 units ✅")
				assert.Contains(t, env.Message, "2. Luna Tea Plate 2: out of stock ❌")
				require.NotNil(t, env.Analytics.TotalInventory)
				assert.Equal(t, 6, *env.Analytics.TotalInventory)
			},
		},
		{
			name:   "recency listing",
			res:    productResult(2, false),
			prompt: "what was added recently",
			validate: func(t *testing.T, env models.ResponseEnvelope) {
				assert.Contains(t, env.Message, "1. Luna Tea Plate 1: added yesterday (2025-06-29)")
				assert.Contains(t, env.Message, "2. Luna Tea Plate 2: added 2 days ago (2025-06-28)")
			},
		},
		{
			name:   "default listing",
			res:    productResult(1, true),
			prompt: "show me plates",
			validate: func(t *testing.T, env models.ResponseEnvelope) {
				assert.True(t, strings.HasPrefix(env.Message, `Hey! Here's what I found for "show me plates":`))
				assert.Contains(t, env.Message, "1. Luna Tea Plate 1: 10.00 USD, in stock (3), 1 variant")
				assert.True(t, strings.HasSuffix(env.Message, closing))
				require.NotNil(t, env.Analytics)
				assert.Equal(t, 1, env.Analytics.TotalProducts)
				assert.NotNil(t, env.Analytics.PriceStats)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := f.Format(tt.res, tt.prompt, models.IntentStructuredQuery)
			assert.True(t, env.Success)
			assert.Equal(t, models.IntentStructuredQuery, env.Intent)
			assert.GreaterOrEqual(t, len(env.Suggestions), 2)
			assert.LessOrEqual(t, len(env.Suggestions), 4)
			tt.validate(t, env)
		})
	}
}

func TestFormat_StoreResults(t *testing.T) {
	f := New()

	records := &models.RawResult{Kind: models.ResultStoreRecords, Records: []models.Record{
		{"id": "u1", "email": "asha@example.com"},
		{"id": "u2", "email": "ravi@example.com"},
	}}
	env := f.Format(records, "list users", models.IntentStructuredQuery)
	assert.Contains(t, env.Message, "1. asha@example.com")
	assert.Len(t, env.Data, 2)

	count := &models.RawResult{Kind: models.ResultStoreCount, Count: 0}
	env = f.Format(count, "how many admins", models.IntentStructuredQuery)
	assert.Equal(t, "I counted 0 matching records. 🔢", env.Message)
	assert.Equal(t, []interface{}{map[string]interface{}{"count": int64(0)}}, env.Data)
}

func TestDetail(t *testing.T) {
	prior := productResult(3, false)

	env, err := Detail(prior, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, env.Index)
	require.Len(t, env.Data, 1)
	assert.Equal(t, prior.Products[1], env.Data[0])
	assert.Equal(t, models.IntentFollowUpIndexed, env.Intent)

	_, err = Detail(prior, 4)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(err))

	_, err = Detail(nil, 0)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(err))
}

func TestCasual(t *testing.T) {
	for _, family := range []string{intent.FamilyGreeting, intent.FamilyThanks, intent.FamilyFarewell, intent.FamilyWellbeing, intent.FamilyIdentity} {
		t.Run(family, func(t *testing.T) {
			env := Casual(family)
			assert.True(t, env.Success)
			assert.NotEmpty(t, env.Message)
			assert.GreaterOrEqual(t, len(env.Suggestions), 2)
			assert.Equal(t, models.IntentCasual, env.Intent)
		})
	}
	assert.Equal(t, Casual(intent.FamilyGreeting).Message, Casual("unknown").Message)
}
