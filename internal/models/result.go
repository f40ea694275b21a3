package models

// ResultKind tags which backend and operation produced a RawResult.
type ResultKind string

const (
	ResultCommerceProducts ResultKind = "commerce_products"
	ResultStoreRecords     ResultKind = "store_records"
	ResultStoreRecord      ResultKind = "store_record"
	ResultStoreCount       ResultKind = "store_count"
	ResultStoreAggregate   ResultKind = "store_aggregate"
)

// Record is one structured-store document.
type Record map[string]interface{}

// RawResult is the executor's output. Only the fields matching Kind are set.
type RawResult struct {
	Kind      ResultKind    `json:"kind"`
	Operation OperationKind `json:"operation,omitempty"`
	Products  []Product     `json:"products,omitempty"`
	Stats     *PriceStats   `json:"stats,omitempty"`
	Records   []Record      `json:"records,omitempty"`
	Record    Record        `json:"record,omitempty"`
	Count     int64         `json:"count"`
}

// Len returns the number of addressable items.
func (r *RawResult) Len() int {
	if r == nil {
		return 0
	}
	switch r.Kind {
	case ResultCommerceProducts:
		return len(r.Products)
	case ResultStoreRecords, ResultStoreAggregate:
		return len(r.Records)
	case ResultStoreRecord:
		if r.Record == nil {
			return 0
		}
		return 1
	case ResultStoreCount:
		return 1
	}
	return 0
}

// IsEmpty reports whether the result carries no matching records.
func (r *RawResult) IsEmpty() bool {
	return r.Len() == 0
}

// At returns the item at a 0-based index.
func (r *RawResult) At(index int) (interface{}, bool) {
	if r == nil || index < 0 || index >= r.Len() {
		return nil, false
	}
	switch r.Kind {
	case ResultCommerceProducts:
		return r.Products[index], true
	case ResultStoreRecords, ResultStoreAggregate:
		return r.Records[index], true
	case ResultStoreRecord:
		return r.Record, true
	}
	return nil, false
}

// Items returns every addressable item in order.
func (r *RawResult) Items() []interface{} {
	n := r.Len()
	if r == nil || r.Kind == ResultStoreCount {
		return nil
	}
	items := make([]interface{}, 0, n)
	for i := 0; i < n; i++ {
		item, _ := r.At(i)
		items = append(items, item)
	}
	return items
}

// PriceStats summarizes minimum variant prices across a product set.
type PriceStats struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Avg      float64 `json:"avg"`
	Count    int     `json:"count"`
	Currency string  `json:"currency,omitempty"`
}

// Analytics is the optional summary attached to an envelope.
type Analytics struct {
	TotalProducts  int         `json:"totalProducts"`
	PriceStats     *PriceStats `json:"priceStats,omitempty"`
	InStock        *int        `json:"inStock,omitempty"`
	OutOfStock     *int        `json:"outOfStock,omitempty"`
	TotalInventory *int        `json:"totalInventory,omitempty"`
}

// ResponseEnvelope is the uniform reply for every pipeline branch.
type ResponseEnvelope struct {
	Success     bool          `json:"success"`
	Message     string        `json:"message"`
	Data        []interface{} `json:"data"`
	Analytics   *Analytics    `json:"analytics"`
	Suggestions []string      `json:"suggestions"`
	DebugQuery  string        `json:"debugQuery,omitempty"`
	Index       int           `json:"index,omitempty"`
	Intent      Intent        `json:"intent,omitempty"`
}
