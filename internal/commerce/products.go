package commerce

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"shop-assistant/internal/models"
)

var htmlTag = regexp.MustCompile(`<[^>]+>`)

const noDescription = "No description available"

type money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type priceRange struct {
	MinVariantPrice *money `json:"minVariantPrice"`
	MaxVariantPrice *money `json:"maxVariantPrice"`
}

type selectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type variantNode struct {
	Title             string           `json:"title"`
	Price             json.RawMessage  `json:"price"`
	AvailableForSale  *bool            `json:"availableForSale"`
	QuantityAvailable *int             `json:"quantityAvailable"`
	InventoryQuantity *int             `json:"inventoryQuantity"`
	SelectedOptions   []selectedOption `json:"selectedOptions"`
}

type productNode struct {
	ID                  string      `json:"id"`
	Title               string      `json:"title"`
	Handle              string      `json:"handle"`
	ProductType         string      `json:"productType"`
	Vendor              string      `json:"vendor"`
	Tags                []string    `json:"tags"`
	DescriptionHTML     string      `json:"descriptionHtml"`
	Description         string      `json:"description"`
	PriceRange          *priceRange `json:"priceRange"`
	PriceRangeV2        *priceRange `json:"priceRangeV2"`
	CompareAtPriceRange *priceRange `json:"compareAtPriceRange"`
	AvailableForSale    *bool       `json:"availableForSale"`
	Status              string      `json:"status"`
	TotalInventory      *int        `json:"totalInventory"`
	CreatedAt           string      `json:"createdAt"`
	Variants            *struct {
		Edges []struct {
			Node variantNode `json:"node"`
		} `json:"edges"`
		Nodes []variantNode `json:"nodes"`
	} `json:"variants"`
}

type connection struct {
	Edges []struct {
		Node productNode `json:"node"`
	} `json:"edges"`
	Nodes []productNode `json:"nodes"`
}

// DecodeProducts normalizes the products found in a GraphQL data member. It
// accepts a products connection, any other top-level connection, or a single
// product object.
func DecodeProducts(data json.RawMessage) ([]models.Product, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode data: %w", err)
	}

	keys := []string{"products"}
	for k := range root {
		if k != "products" {
			keys = append(keys, k)
		}
	}

	for _, key := range keys {
		raw, ok := root[key]
		if !ok || string(raw) == "null" {
			continue
		}
		var conn connection
		if err := json.Unmarshal(raw, &conn); err == nil && (len(conn.Edges) > 0 || len(conn.Nodes) > 0) {
			var out []models.Product
			for _, e := range conn.Edges {
				out = append(out, normalize(e.Node))
			}
			for _, n := range conn.Nodes {
				out = append(out, normalize(n))
			}
			return out, nil
		}
		var single productNode
		if err := json.Unmarshal(raw, &single); err == nil && single.Title != "" {
			return []models.Product{normalize(single)}, nil
		}
	}
	return nil, nil
}

func normalize(node productNode) models.Product {
	p := models.Product{
		ID:             node.ID,
		Title:          orDefault(node.Title, "Unnamed Product"),
		Handle:         node.Handle,
		ProductType:    orDefault(node.ProductType, models.NotAvailable),
		Vendor:         node.Vendor,
		Tags:           node.Tags,
		Price:          models.NotAvailable,
		CurrencyCode:   models.NotAvailable,
		CompareAtPrice: models.NotAvailable,
		Description:    stripHTML(node.DescriptionHTML, node.Description),
		Variants:       []models.Variant{},
		CreatedAt:      node.CreatedAt,
	}

	pr := node.PriceRange
	if pr == nil {
		pr = node.PriceRangeV2
	}
	if pr != nil && pr.MinVariantPrice != nil {
		p.Price = orDefault(pr.MinVariantPrice.Amount, models.NotAvailable)
		p.CurrencyCode = orDefault(pr.MinVariantPrice.CurrencyCode, models.NotAvailable)
	}
	if cr := node.CompareAtPriceRange; cr != nil && cr.MinVariantPrice != nil {
		p.CompareAtPrice = orDefault(cr.MinVariantPrice.Amount, models.NotAvailable)
	}

	if node.Variants != nil {
		variants := node.Variants.Nodes
		for _, e := range node.Variants.Edges {
			variants = append(variants, e.Node)
		}
		for _, v := range variants {
			p.Variants = append(p.Variants, normalizeVariant(v))
		}
	}

	if node.TotalInventory != nil {
		p.TotalInventory = *node.TotalInventory
	}
	switch {
	case node.AvailableForSale != nil:
		p.AvailableForSale = *node.AvailableForSale
	case node.Status != "":
		p.AvailableForSale = strings.EqualFold(node.Status, "ACTIVE") && p.TotalInventory > 0
	}
	return p
}

func normalizeVariant(v variantNode) models.Variant {
	out := models.Variant{
		Title: v.Title,
		Price: decodePrice(v.Price),
		Color: optionValue(v.SelectedOptions, "color"),
		Size:  optionValue(v.SelectedOptions, "size"),
	}
	qty := v.QuantityAvailable
	if qty == nil {
		qty = v.InventoryQuantity
	}
	out.QuantityAvailable = qty
	switch {
	case v.AvailableForSale != nil:
		out.Available = *v.AvailableForSale
	case qty != nil:
		out.Available = *qty > 0
	}
	return out
}

// decodePrice accepts both the Money scalar and the MoneyV2 object.
func decodePrice(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return models.NotAvailable
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return orDefault(s, models.NotAvailable)
	}
	var m money
	if err := json.Unmarshal(raw, &m); err == nil {
		return orDefault(m.Amount, models.NotAvailable)
	}
	return models.NotAvailable
}

func optionValue(options []selectedOption, name string) string {
	for _, o := range options {
		if strings.EqualFold(o.Name, name) {
			return o.Value
		}
	}
	return models.NotAvailable
}

func stripHTML(html, plain string) string {
	if html == "" {
		html = plain
	}
	text := strings.TrimSpace(htmlTag.ReplaceAllString(html, ""))
	if text == "" {
		return noDescription
	}
	return text
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// ParsePrice returns the numeric value of a price string.
func ParsePrice(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

// ComputeStats summarizes product prices, or returns nil when none parse.
func ComputeStats(products []models.Product) *models.PriceStats {
	var stats models.PriceStats
	var sum float64
	for _, p := range products {
		price, ok := ParsePrice(p.Price)
		if !ok {
			continue
		}
		if stats.Count == 0 || price < stats.Min {
			stats.Min = price
		}
		if stats.Count == 0 || price > stats.Max {
			stats.Max = price
		}
		if stats.Currency == "" && p.CurrencyCode != models.NotAvailable {
			stats.Currency = p.CurrencyCode
		}
		sum += price
		stats.Count++
	}
	if stats.Count == 0 {
		return nil
	}
	stats.Avg = sum / float64(stats.Count)
	return &stats
}
