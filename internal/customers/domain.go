// Package customers serves the accountant's customer list, detail pages,
// the creation form with register lookups and credential linking.
package customers

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Flag decodes booleans the backend sends as true/false, 0/1 or "1"/"0".
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(raw []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(raw)), `"`)
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		*f = true
	default:
		*f = false
	}
	return nil
}

// Text decodes a JSON string or number into a string.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		*t = ""
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return err
	}
	*t = Text(n.String())
	return nil
}

// Customer is one row of the accountant's customer list.
type Customer struct {
	Oid               string `json:"Oid"`
	CustomerID        string `json:"CustomerID"`
	CustomerName      string `json:"CustomerName"`
	TinCode           Text   `json:"TinCode"`
	TIN               Text   `json:"TIN"`
	BusinessClassOid  string `json:"BusinessClassOid"`
	Phone             string `json:"Phone"`
	Email             string `json:"Email"`
	Mail              string `json:"Mail"`
	EBarimtRegistered Flag   `json:"EBarimtRegistered"`
	NDRegistered      Flag   `json:"NDRegistered"`
	TaxRegistered     Flag   `json:"TaxRegistered"`
	Active            Flag   `json:"Active"`
	CreatedDate       string `json:"CreatedDate"`
}

// Tin prefers TinCode and falls back to TIN.
func (c Customer) Tin() string {
	if c.TinCode != "" {
		return string(c.TinCode)
	}
	return string(c.TIN)
}

// EmailAddress prefers Email and falls back to Mail.
func (c Customer) EmailAddress() string {
	if c.Email != "" {
		return c.Email
	}
	return c.Mail
}

// Created renders the registration date as yyyy-MM-dd.
func (c Customer) Created() string {
	if len(c.CreatedDate) >= 10 {
		return c.CreatedDate[:10]
	}
	return c.CreatedDate
}

// Label renders "register - name" for selects.
func (c Customer) Label() string {
	return c.CustomerID + " - " + c.CustomerName
}

// Taxpayer is the e-barimt registry record for a register number.
type Taxpayer struct {
	Name             string `json:"name"`
	VatPayer         bool   `json:"vatPayer"`
	CityPayer        bool   `json:"cityPayer"`
	DirectorLastName string `json:"directorLastName"`
	DirectorName     string `json:"directorName"`
}

// LookupResult is the tagged reply of a register lookup: Exists selects
// between the system record and the registry record.
type LookupResult struct {
	Exists       bool            `json:"exists"`
	CustomerOid  string          `json:"customerOid,omitempty"`
	IsActive     *bool           `json:"isActive,omitempty"`
	CustomerData json.RawMessage `json:"customerData,omitempty"`

	Tin     Text      `json:"tin,omitempty"`
	Data    *Taxpayer `json:"data,omitempty" validate:"required_if=Exists false"`
	Success *bool     `json:"success,omitempty"`
}

// LookupKind selects the register format and form fields a lookup fills.
type LookupKind string

const (
	LookupOrganization LookupKind = "organization"
	LookupDirector     LookupKind = "director"
)

// LookupState tracks one lookup field in the creation form.
type LookupState string

const (
	LookupIdle   LookupState = "idle"
	LookupFilled LookupState = "filled"
	LookupExists LookupState = "exists"
	LookupError  LookupState = "error"
)

// Employee is a worker registered under a customer.
type Employee struct {
	Oid            string `json:"Oid"`
	Code           string `json:"Code"`
	LastName       string `json:"LastName"`
	Name           string `json:"Name"`
	TIN            Text   `json:"TIN"`
	InsureTypeCode string `json:"InsureTypeCode"`
	OccupationCode string `json:"OccupationCode"`
}

// Detail is a customer with its general information and employees.
type Detail struct {
	Oid               string     `json:"Oid"`
	CustomerID        string     `json:"CustomerID"`
	CustomerName      string     `json:"CustomerName"`
	ShortName         string     `json:"ShortName"`
	TinCode           Text       `json:"TinCode"`
	Phone             string     `json:"Phone"`
	Mail              string     `json:"Mail"`
	Address           string     `json:"Address"`
	DrFirstname       string     `json:"DrFirstname"`
	DrLastname        string     `json:"DrLastname"`
	DirectorRegister  string     `json:"DirectorRegister"`
	IsVatPayer        Flag       `json:"IsVatPayer"`
	IsCityPayer       Flag       `json:"IsCityPayer"`
	Active            Flag       `json:"Active"`
	BusinessClassOid  string     `json:"BusinessClassOid"`
	RegionID          string     `json:"RegionId"`
	TaxLoginOid       string     `json:"TaxLoginOid"`
	InsuranceLoginID  string     `json:"InsuranceLoginId"`
	EBarimtRegistered Text       `json:"EBarimtRegistered"`
	ContractAmount    *float64   `json:"ContractAmount"`
	ContractEndDate   string     `json:"ContractEndDate"`
	Employees         []Employee `json:"Employees"`
}

// TaxLinked reports whether tax system credentials are stored.
func (d Detail) TaxLinked() bool { return d.TaxLoginOid != "" }

// InsuranceLinked reports whether social insurance credentials are stored.
func (d Detail) InsuranceLinked() bool { return d.InsuranceLoginID != "" }

// ContractPeriod is a billing frequency option.
type ContractPeriod struct {
	Value string
	Label string
}

// ContractPeriods lists the accepted billing frequencies.
var ContractPeriods = []ContractPeriod{
	{Value: "сар", Label: "Сар"},
	{Value: "улирал", Label: "Улирал"},
	{Value: "жил", Label: "Жил"},
}

// ParseBool reads the literal form strings "true"/"false" (and checkbox "on").
func ParseBool(raw string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err == nil {
		return b
	}
	return strings.EqualFold(strings.TrimSpace(raw), "on")
}
