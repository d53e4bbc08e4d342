package balances

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Form field names of the item grid. Each is repeated once per row.
const (
	fieldItemOid  = "ItemOid"
	fieldAccount  = "AccountOid"
	fieldActive   = "ActiveAmount"
	fieldPassive  = "PassiveAmount"
	fieldBusiness = "BusinessCustomerOid"
)

// blankRows is how many empty rows a new form starts with.
const blankRows = 3

// ParseAmount reads a money input. Empty or malformed input is nil.
func ParseAmount(raw string) *float64 {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func at(values []string, i int) string {
	if i < len(values) {
		return strings.TrimSpace(values[i])
	}
	return ""
}

// ItemsFromValues reads the repeated row fields. Rows without an account and
// without amounts are dropped so unused blank rows never reach the backend.
func ItemsFromValues(v url.Values) []Item {
	accounts := v[fieldAccount]
	items := make([]Item, 0, len(accounts))
	for i := range accounts {
		item := Item{
			Oid:           at(v[fieldItemOid], i),
			AccountOid:    at(accounts, i),
			ActiveAmount:  ParseAmount(at(v[fieldActive], i)),
			PassiveAmount: ParseAmount(at(v[fieldPassive], i)),
		}
		if biz := at(v[fieldBusiness], i); biz != "" {
			item.BusinessCustomerOid = &biz
		}
		if item.Oid == "" && item.AccountOid == "" && item.ActiveAmount == nil && item.PassiveAmount == nil {
			continue
		}
		items = append(items, item)
	}
	return items
}

// CreateRequestFromValues reads the creation form.
func CreateRequestFromValues(v url.Values) CreateRequest {
	year, _ := strconv.Atoi(strings.TrimSpace(v.Get("YearType")))
	return CreateRequest{
		YearType:    year,
		CustomerOid: strings.TrimSpace(v.Get("CustomerOid")),
		Items:       ItemsFromValues(v),
	}
}

// Years lists the selectable balance years, newest first.
func Years(now time.Time) []int {
	current := now.Year()
	years := make([]int, 0, 7)
	for y := current + 1; y >= current-5; y-- {
		years = append(years, y)
	}
	return years
}

// withBlankRows pads items so the form always offers at least n empty rows.
func withBlankRows(items []Item, n int) []Item {
	out := make([]Item, len(items), len(items)+n)
	copy(out, items)
	for i := 0; i < n; i++ {
		out = append(out, Item{})
	}
	return out
}
