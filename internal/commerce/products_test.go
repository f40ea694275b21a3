package commerce

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-assistant/internal/models"
)

const productsFixture = `{
  "products": {
    "edges": [
      {
        "node": {
          "id": "gid://shopify/Product/1",
          "title": "Luna Tea Plate - Sagittarius",
          "productType": "Plates",
          "descriptionHtml": "<p>Hand <b>painted</b></p>",
          "totalInventory": 12,
          "createdAt": "2025-06-01T10:00:00Z",
          "status": "ACTIVE",
          "priceRange": {"minVariantPrice": {"amount": "24.00", "currencyCode": "USD"}},
          "compareAtPriceRange": {"minVariantPrice": {"amount": "30.00", "currencyCode": "USD"}},
          "variants": {
            "edges": [
              {"node": {"title": "Blue / Small", "price": "24.00", "inventoryQuantity": 5,
                "selectedOptions": [{"name": "Color", "value": "Blue"}, {"name": "Size", "value": "Small"}]}},
              {"node": {"title": "Red", "price": {"amount": "26.00", "currencyCode": "USD"}, "availableForSale": false,
                "selectedOptions": [{"name": "color", "value": "Red"}]}}
            ]
          }
        }
      },
      {
        "node": {
          "title": "Luna Tea Plate - Aquarius",
          "priceRange": {"minVariantPrice": {"amount": "18.50", "currencyCode": "USD"}},
          "totalInventory": 0,
          "status": "ACTIVE"
        }
      }
    ]
  }
}`

func TestDecodeProducts(t *testing.T) {
	products, err := DecodeProducts(json.RawMessage(productsFixture))
	require.NoError(t, err)
	require.Len(t, products, 2)

	first := products[0]
	assert.Equal(t, "Luna Tea Plate - Sagittarius", first.Title)
	assert.Equal(t, "24.00", first.Price)
	assert.Equal(t, "USD", first.CurrencyCode)
	assert.Equal(t, "30.00", first.CompareAtPrice)
	assert.Equal(t, "Hand painted", first.Description)
	assert.True(t, first.AvailableForSale)
	assert.Equal(t, 12, first.TotalInventory)
	require.Len(t, first.Variants, 2)
	assert.Equal(t, "Blue", first.Variants[0].Color)
	assert.Equal(t, "Small", first.Variants[0].Size)
	assert.True(t, first.Variants[0].Available)
	assert.Equal(t, "26.00", first.Variants[1].Price)
	assert.Equal(t, models.NotAvailable, first.Variants[1].Size)
	assert.False(t, first.Variants[1].Available)

	second := products[1]
	assert.Equal(t, models.NotAvailable, second.ProductType)
	assert.Equal(t, models.NotAvailable, second.CompareAtPrice)
	assert.Equal(t, "No description available", second.Description)
	assert.False(t, second.AvailableForSale)
	assert.Empty(t, second.Variants)
}

func TestDecodeProducts_EmptyAndSingle(t *testing.T) {
	products, err := DecodeProducts(json.RawMessage(`{"products":{"edges":[]}}`))
	require.NoError(t, err)
	assert.Empty(t, products)

	products, err = DecodeProducts(json.RawMessage(`{"productByHandle":{"title":"Mug","priceRangeV2":{"minVariantPrice":{"amount":"9.99","currencyCode":"INR"}}}}`))
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "9.99", products[0].Price)
	assert.Equal(t, "INR", products[0].CurrencyCode)

	products, err = DecodeProducts(nil)
	require.NoError(t, err)
	assert.Nil(t, products)
}

func TestComputeStats(t *testing.T) {
	stats := ComputeStats([]models.Product{
		{Price: "10.00", CurrencyCode: "USD"},
		{Price: "30.00", CurrencyCode: "USD"},
		{Price: models.NotAvailable},
		{Price: "20"},
	})
	require.NotNil(t, stats)
	assert.Equal(t, 10.0, stats.Min)
	assert.Equal(t, 30.0, stats.Max)
	assert.Equal(t, 20.0, stats.Avg)
	assert.Equal(t, 3, stats.Count)
	assert.Equal(t, "USD", stats.Currency)

	assert.Nil(t, ComputeStats([]models.Product{{Price: models.NotAvailable}}))
}
