package balances

import (
	"html/template"
	"net/url"
	"strconv"

	"github.com/novaq/novaq-dashboard/internal/datatable"
	"github.com/novaq/novaq-dashboard/internal/view"
)

// EditPath links the items form of a balance.
func EditPath(oid string) string {
	return "/dashboard/finance-and-report/" + url.PathEscape(oid) + "/edit"
}

func amountText(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

// ListColumns describes the balance list grid.
func ListColumns() []datatable.Column[AccountBalance] {
	return []datatable.Column[AccountBalance]{
		{ID: "no", Header: "№", RowNumber: true, Pinned: datatable.PinLeft, MaxWidth: 50, Align: "center"},
		{ID: "year", Header: "Он", Width: 90, Value: func(b AccountBalance) string {
			if b.YearType == 0 {
				return ""
			}
			return strconv.Itoa(b.YearType)
		}},
		{ID: "pin", Header: "Регистр", Value: func(b AccountBalance) string { return b.CustomerPin }},
		{ID: "customer", Header: "Харилцагч", MinWidth: 200, Value: func(b AccountBalance) string { return b.CustomerName }},
		{ID: "active", Header: "Актив", Align: "right", Value: func(b AccountBalance) string { return amountText(b.ActiveAmount) },
			Render: func(b AccountBalance, _ int) template.HTML {
				return template.HTML(template.HTMLEscapeString(view.FormatAmount(b.ActiveAmount)))
			}},
		{ID: "passive", Header: "Пассив", Align: "right", Value: func(b AccountBalance) string { return amountText(b.PassiveAmount) },
			Render: func(b AccountBalance, _ int) template.HTML {
				return template.HTML(template.HTMLEscapeString(view.FormatAmount(b.PassiveAmount)))
			}},
		{ID: "actions", Pinned: datatable.PinRight, Width: 90, Align: "right", DisableSort: true, DisableFilter: true, DisableExport: true,
			Render: func(b AccountBalance, _ int) template.HTML {
				if b.Oid == "" {
					return ""
				}
				return template.HTML(`<a class="btn btn-sm" href="` + template.HTMLEscapeString(EditPath(b.Oid)) + `">Засах</a>`)
			}},
	}
}

// TotalsRow sums the amounts of rows into the pinned footer.
func TotalsRow(rows []AccountBalance) AccountBalance {
	var active, passive float64
	for _, b := range rows {
		if b.ActiveAmount != nil {
			active += *b.ActiveAmount
		}
		if b.PassiveAmount != nil {
			passive += *b.PassiveAmount
		}
	}
	return AccountBalance{CustomerName: "Нийт", ActiveAmount: &active, PassiveAmount: &passive}
}
