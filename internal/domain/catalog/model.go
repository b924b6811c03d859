package catalog

import "time"

type Group string

const (
	GroupMedicine Group = "medicine"
	GroupSupply   Group = "supply"
)

type Item struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Group       Group     `json:"group"`
	SmallUnit   string    `json:"small_unit"`
	BigUnit     string    `json:"big_unit"`
	UnitFactor  int64     `json:"unit_factor"` // small units per big unit
	CostPrice   float64   `json:"cost_price"`
	RetailPrice float64   `json:"retail_price"`
	MaxQuantity int64     `json:"max_quantity"` // required baseline, denominator for status percentages
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

type Department struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Central   bool      `json:"central"` // central store; non-central departments hold transferred stock
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
