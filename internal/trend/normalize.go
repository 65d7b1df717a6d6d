package trend

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"AgriGenie/internal/model"
)

// DateLayout is the ISO calendar date layout used for all emitted dates.
const DateLayout = "2006-01-02"

// dateLayouts are the accepted input layouts, ISO first. Upstream mandi
// feeds use day-first slashes.
var dateLayouts = []string{
	DateLayout,
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
}

// Field aliases keyed by folded name (lower case, underscores removed), so
// modal_price, modalPrice and Modal_Price all resolve to "modalprice".
var (
	dateKeys      = []string{"date", "arrivaldate"}
	modalKeys     = []string{"modalprice"}
	minKeys       = []string{"minprice"}
	maxKeys       = []string{"maxprice"}
	quantityKeys  = []string{"quantity", "arrivals", "arrivalquantity"}
	marketKeys    = []string{"market"}
	districtKeys  = []string{"district"}
	stateKeys     = []string{"state"}
	commodityKeys = []string{"commodity"}
	varietyKeys   = []string{"variety"}
)

// Normalize converts raw records into PriceRecords, preserving order.
// Both snake_case and camelCase field names are accepted. Numeric fields
// may be numbers or numeric strings; anything missing, unparseable,
// non-finite or negative becomes 0.
func Normalize(raw []model.RawRecord) []model.PriceRecord {
	records := make([]model.PriceRecord, 0, len(raw))
	for _, r := range raw {
		records = append(records, NormalizeRecord(r))
	}
	return records
}

// NormalizeRecord converts a single raw record.
func NormalizeRecord(raw model.RawRecord) model.PriceRecord {
	fields := make(map[string]any, len(raw))
	for k, v := range raw {
		fields[foldKey(k)] = v
	}
	return model.PriceRecord{
		Date:       NormalizeDate(toString(lookup(fields, dateKeys))),
		ModalPrice: toFloat(lookup(fields, modalKeys)),
		MinPrice:   toFloat(lookup(fields, minKeys)),
		MaxPrice:   toFloat(lookup(fields, maxKeys)),
		Quantity:   toFloat(lookup(fields, quantityKeys)),
		Market:     toString(lookup(fields, marketKeys)),
		District:   toString(lookup(fields, districtKeys)),
		State:      toString(lookup(fields, stateKeys)),
		Commodity:  toString(lookup(fields, commodityKeys)),
		Variety:    toString(lookup(fields, varietyKeys)),
	}
}

// NormalizeDate rewrites recognised date layouts to ISO. Unrecognised input
// is returned trimmed but otherwise as given.
func NormalizeDate(s string) string {
	if t, ok := ParseDate(s); ok {
		return t.Format(DateLayout)
	}
	return strings.TrimSpace(s)
}

// ParseDate parses s with any accepted layout.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func foldKey(k string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(k), "_", ""))
}

func lookup(fields map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := fields[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func toFloat(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	default:
		return fmt.Sprint(s)
	}
}
