package models

// Product is a normalized commerce product.
type Product struct {
	ID               string    `json:"id,omitempty"`
	Title            string    `json:"title"`
	Handle           string    `json:"handle,omitempty"`
	ProductType      string    `json:"productType"`
	Vendor           string    `json:"vendor,omitempty"`
	Price            string    `json:"price"`
	CurrencyCode     string    `json:"currencyCode"`
	CompareAtPrice   string    `json:"compareAtPrice"`
	Description      string    `json:"description"`
	Tags             []string  `json:"tags,omitempty"`
	Variants         []Variant `json:"variants"`
	AvailableForSale bool      `json:"availableForSale"`
	TotalInventory   int       `json:"totalInventory"`
	CreatedAt        string    `json:"createdAt,omitempty"`
}

// Variant is one purchasable option of a product.
type Variant struct {
	Title             string `json:"title"`
	Price             string `json:"price"`
	Color             string `json:"color"`
	Size              string `json:"size"`
	Available         bool   `json:"available"`
	QuantityAvailable *int   `json:"quantityAvailable,omitempty"`
}

// NotAvailable is the placeholder for missing product attributes.
const NotAvailable = "N/A"
