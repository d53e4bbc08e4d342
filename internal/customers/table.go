package customers

import (
	"html/template"
	"net/url"

	"github.com/novaq/novaq-dashboard/internal/datatable"
	"github.com/novaq/novaq-dashboard/internal/reference"
)

func yesNo(b Flag, yes, no string) string {
	if b {
		return yes
	}
	return no
}

func badge(b Flag, yes, no string) template.HTML {
	class := "badge"
	if b {
		class += " badge-success"
	}
	return template.HTML(`<span class="` + class + `">` + template.HTMLEscapeString(yesNo(b, yes, no)) + `</span>`)
}

// DetailPath links a customer detail page by register.
func DetailPath(customerID string) string {
	return "/dashboard/customers/detail/" + url.PathEscape(customerID)
}

// ListColumns describes the customer list grid. ref resolves business class names.
func ListColumns(ref reference.Data) []datatable.Column[Customer] {
	return []datatable.Column[Customer]{
		{ID: "no", Header: "№", RowNumber: true, Pinned: datatable.PinLeft, MaxWidth: 50, Align: "center"},
		{ID: "code", Header: "Код", Pinned: datatable.PinLeft, MinWidth: 100, Value: func(c Customer) string { return c.CustomerID }},
		{ID: "name", Header: "Нэр", MinWidth: 200, Value: func(c Customer) string { return c.CustomerName }},
		{ID: "tin", Header: "Тин дугаар", Value: func(c Customer) string { return c.Tin() }},
		{ID: "business_class", Header: "Бизнес ангилал", Value: func(c Customer) string { return ref.BusinessClassName(c.BusinessClassOid) }},
		{ID: "phone", Header: "Утас", Value: func(c Customer) string { return c.Phone }},
		{ID: "email", Header: "И-мэйл", Hide: true, Value: func(c Customer) string { return c.EmailAddress() }},
		{ID: "ebarimt", Header: "И-баримт", Hide: true, DisableFilter: true,
			Value:  func(c Customer) string { return yesNo(c.EBarimtRegistered, "Тийм", "Үгүй") },
			Render: func(c Customer, _ int) template.HTML { return badge(c.EBarimtRegistered, "Тийм", "Үгүй") }},
		{ID: "nd", Header: "НД", Hide: true, DisableFilter: true,
			Value:  func(c Customer) string { return yesNo(c.NDRegistered, "Тийм", "Үгүй") },
			Render: func(c Customer, _ int) template.HTML { return badge(c.NDRegistered, "Тийм", "Үгүй") }},
		{ID: "tax", Header: "Татвар", Hide: true, DisableFilter: true,
			Value:  func(c Customer) string { return yesNo(c.TaxRegistered, "Тийм", "Үгүй") },
			Render: func(c Customer, _ int) template.HTML { return badge(c.TaxRegistered, "Тийм", "Үгүй") }},
		{ID: "created", Header: "Бүртгэсэн огноо", Value: func(c Customer) string { return c.Created() }},
		{ID: "active", Header: "Идэвхтэй эсэх", DisableFilter: true,
			Value:  func(c Customer) string { return yesNo(c.Active, "Идэвхтэй", "Идэвхгүй") },
			Render: func(c Customer, _ int) template.HTML { return badge(c.Active, "Идэвхтэй", "Идэвхгүй") }},
		{ID: "actions", Pinned: datatable.PinRight, Width: 80, Align: "right", DisableSort: true, DisableFilter: true, DisableExport: true,
			Render: func(c Customer, _ int) template.HTML {
				return template.HTML(`<a class="btn btn-sm" href="` + template.HTMLEscapeString(DetailPath(c.CustomerID)) + `">Харах</a>`)
			}},
	}
}

// EmployeeColumns describes the employee grid on the detail page.
func EmployeeColumns() []datatable.Column[Employee] {
	return []datatable.Column[Employee]{
		{ID: "no", Header: "№", RowNumber: true, MaxWidth: 50, Align: "center"},
		{ID: "code", Header: "Код", Value: func(e Employee) string { return e.Code }},
		{ID: "last_name", Header: "Овог", Value: func(e Employee) string { return e.LastName }},
		{ID: "name", Header: "Нэр", Value: func(e Employee) string { return e.Name }},
		{ID: "tin", Header: "ТИН", Value: func(e Employee) string { return string(e.TIN) }},
		{ID: "insure_type", Header: "Даатгуулагчийн төрөл", Value: func(e Employee) string { return e.InsureTypeCode }},
		{ID: "occupation", Header: "Ажил мэргэжлийн код", Value: func(e Employee) string { return e.OccupationCode }},
	}
}
