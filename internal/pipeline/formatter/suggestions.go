package formatter

import "shop-assistant/internal/pipeline/intent"

// Follow-up prompts per branch. Each list has two to four entries.
var (
	analyticsSuggestions = []string{
		"Show the cheapest products",
		"Which products are out of stock?",
		"Show the newest arrivals",
	}
	compareSuggestions = []string{
		"Show full data for the 1st product",
		"Which one is in stock?",
		"Show similar products",
	}
	variantSuggestions = []string{
		"Which of these are in stock?",
		"Show full data for the 1st product",
		"Show the prices",
	}
	inventorySuggestions = []string{
		"Which products are out of stock?",
		"Show full data for the 1st product",
		"Show products under 50",
	}
	dateSuggestions = []string{
		"Show products added this month",
		"Show full data for the 1st product",
		"Compare the first two products",
	}
	priceSuggestions = []string{
		"Show the most expensive products",
		"Show products on sale",
		"Compare the first two products",
	}
	listingSuggestions = []string{
		"Show full data for the 1st product",
		"Which of these are in stock?",
		"Show price insights for these",
	}
	detailSuggestions = []string{
		"Show full data for the next product",
		"What colors does it come in?",
		"Is it in stock?",
	}
	recordSuggestions = []string{
		"Show full data for the 1st record",
		"How many users are there?",
		"Show the newest users",
	}
	countSuggestions = []string{
		"List them",
		"Show the newest users",
	}
	chatSuggestions = []string{
		"Show me some products",
		"What's in stock right now?",
	}
	casualSuggestions = map[string][]string{
		intent.FamilyGreeting:  {"Show me some products", "What's new this month?", "Show products under 50"},
		intent.FamilyThanks:    {"Show me more products", "What's on sale?"},
		intent.FamilyFarewell:  {"Show me some products", "What's new this month?"},
		intent.FamilyWellbeing: {"Show me some products", "What can you do?"},
		intent.FamilyIdentity:  {"Show me some products", "Show price insights", "Which products are in stock?"},
	}
)
