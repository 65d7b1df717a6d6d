package model

// RawRecord is a single loosely typed observation as delivered by an upstream
// market feed or an API caller. Field names and value types vary by source.
type RawRecord map[string]any

// PriceRecord is one normalised market observation for a commodity.
// Prices and quantity are always finite and non-negative.
type PriceRecord struct {
	Date       string  `json:"date"`
	ModalPrice float64 `json:"modalPrice"`
	MinPrice   float64 `json:"minPrice"`
	MaxPrice   float64 `json:"maxPrice"`
	Quantity   float64 `json:"quantity"`
	Market     string  `json:"market"`
	District   string  `json:"district"`
	State      string  `json:"state"`
	Commodity  string  `json:"commodity,omitempty"`
	Variety    string  `json:"variety,omitempty"`
}

// MarketQuery selects a commodity series from the upstream feed.
type MarketQuery struct {
	State     string `json:"state" validate:"required,max=64"`
	Commodity string `json:"commodity" validate:"required,max=64"`
	Market    string `json:"market,omitempty" validate:"max=64"`
	District  string `json:"district,omitempty" validate:"max=64"`
	Limit     int    `json:"limit,omitempty" validate:"gte=0,lte=500"`
}

// String renders the query as "state/commodity[/market]" for logs and messages.
func (q MarketQuery) String() string {
	s := q.State + "/" + q.Commodity
	if q.Market != "" {
		s += "/" + q.Market
	}
	return s
}
