package customers

import (
	"net/url"
	"strconv"
	"strings"
)

// Form is the customer creation form. Field names follow the backend's
// save-all payload.
type Form struct {
	CustomerID               string  `json:"CustomerID" validate:"required,min=7,orgregno"`
	CustomerName             string  `json:"CustomerName" validate:"required"`
	ShortName                string  `json:"ShortName"`
	TinCode                  string  `json:"TinCode" validate:"required"`
	Phone                    string  `json:"Phone" validate:"required"`
	Mail                     string  `json:"Mail"`
	Address                  string  `json:"Address"`
	ContractAmount           float64 `json:"ContractAmount" validate:"gt=0"`
	ContractEndDate          string  `json:"ContractEndDate" validate:"required"`
	DigitalSignaturePassword string  `json:"DigitalSignaturePassword"`
	DigitalCertFilePath      string  `json:"DigitalCertFilePath"`
	EBarimtRegistered        string  `json:"EBarimtRegistered"`
	TaxLoginOid              string  `json:"TaxLoginOid"`
	InsuranceLoginID         string  `json:"InsuranceLoginId"`
	BusinessClassOid         string  `json:"BusinessClassOid" validate:"required"`
	RegionID                 string  `json:"RegionId" validate:"required"`
	RegionSubID              string  `json:"RegionSubId"`
	DrFirstname              string  `json:"DrFirstname" validate:"required"`
	DrLastname               string  `json:"DrLastname" validate:"required"`
	DirectorRegister         string  `json:"DirectorRegister" validate:"required,min=10,citizenregno"`
	TaxAccessRight           string  `json:"taxAccessRight"`
	TaxName                  string  `json:"TaxName"`
	IsVatPayer               bool    `json:"IsVatPayer"`
	IsCityPayer              bool    `json:"IsCityPayer"`
	Active                   bool    `json:"Active"`
	UserName                 string  `json:"UserName" validate:"required"`
	ContractPeriodType       string  `json:"ContractPeriodType" validate:"required,oneof=сар улирал жил"`

	AccountantFirstname string `json:"AccountantFirstname"`
	AccountantLastname  string `json:"AccountantLastname"`
	AccountantUserName  string `json:"AccountantUserName"`
	AccountantEmail     string `json:"AccountantEmail"`
	AccountantPhone     string `json:"AccountantPhone"`
	IsCertified         bool   `json:"IsCertified"`
	CertifiedFrom       string `json:"CertifiedFrom"`
	IsAccountantActive  *bool  `json:"IsAccountantActive,omitempty"`

	// Registers the organization and director data were fetched for.
	OrgLookupRegister      string `json:"-"`
	DirectorLookupRegister string `json:"-"`
}

// NewForm returns the form defaults.
func NewForm() Form {
	return Form{Active: true, ContractPeriodType: ContractPeriods[0].Value}
}

// FormFromValues reads a submitted form. Booleans arrive as the literal
// strings "true" or "false".
func FormFromValues(v url.Values) Form {
	get := func(key string) string { return strings.TrimSpace(v.Get(key)) }
	f := Form{
		CustomerID:               get("CustomerID"),
		CustomerName:             get("CustomerName"),
		ShortName:                get("ShortName"),
		TinCode:                  get("TinCode"),
		Phone:                    get("Phone"),
		Mail:                     get("Mail"),
		Address:                  get("Address"),
		ContractEndDate:          get("ContractEndDate"),
		DigitalSignaturePassword: get("DigitalSignaturePassword"),
		DigitalCertFilePath:      get("DigitalCertFilePath"),
		EBarimtRegistered:        get("EBarimtRegistered"),
		TaxLoginOid:              get("TaxLoginOid"),
		InsuranceLoginID:         get("InsuranceLoginId"),
		BusinessClassOid:         get("BusinessClassOid"),
		RegionID:                 get("RegionId"),
		RegionSubID:              get("RegionSubId"),
		DrFirstname:              get("DrFirstname"),
		DrLastname:               get("DrLastname"),
		DirectorRegister:         get("DirectorRegister"),
		TaxAccessRight:           get("taxAccessRight"),
		TaxName:                  get("TaxName"),
		IsVatPayer:               ParseBool(get("IsVatPayer")),
		IsCityPayer:              ParseBool(get("IsCityPayer")),
		Active:                   ParseBool(get("Active")),
		UserName:                 get("UserName"),
		ContractPeriodType:       get("ContractPeriodType"),
		AccountantFirstname:      get("AccountantFirstname"),
		AccountantLastname:       get("AccountantLastname"),
		AccountantUserName:       get("AccountantUserName"),
		AccountantEmail:          get("AccountantEmail"),
		AccountantPhone:          get("AccountantPhone"),
		IsCertified:              ParseBool(get("IsCertified")),
		CertifiedFrom:            get("CertifiedFrom"),
		OrgLookupRegister:        get("OrgLookupRegister"),
		DirectorLookupRegister:   get("DirectorLookupRegister"),
	}
	if amount, err := strconv.ParseFloat(strings.ReplaceAll(get("ContractAmount"), ",", ""), 64); err == nil {
		f.ContractAmount = amount
	}
	if raw := get("IsAccountantActive"); raw != "" {
		active := ParseBool(raw)
		f.IsAccountantActive = &active
	}
	return f
}

// Fixed values of every customer created from the dashboard.
const (
	DefaultPasswordHash = "*)("
	CustomerRoleOid     = "BFDFD04E-DFBD-4E1A-A341-B17661347FC5"
	CustomerRoleType    = "Customer"
)

// createPayload is the save-all request body.
type createPayload struct {
	Form

	CustomerOid    string `json:"CustomerOid"`
	UserOid        string `json:"UserOid"`
	PasswordHash   string `json:"PasswordHash"`
	FirstName      string `json:"FirstName"`
	LastName       string `json:"LastName"`
	RoleOid        string `json:"RoleOid"`
	IsCitizen      bool   `json:"IsCitizen"`
	BankAccountnum string `json:"BankAccountnum"`
	RoleType       string `json:"RoleType"`
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// buildPayload applies the fixed defaults. newID supplies the customer and user oids.
func buildPayload(f Form, newID func() string) createPayload {
	f.UserName = orDefault(f.UserName, f.CustomerID)
	f.AccountantFirstname = orDefault(f.AccountantFirstname, "System")
	f.AccountantLastname = orDefault(f.AccountantLastname, "Accountant")
	f.AccountantUserName = orDefault(f.AccountantUserName, "SYS001")
	f.AccountantEmail = orDefault(f.AccountantEmail, "system@novaq.com")
	f.AccountantPhone = orDefault(f.AccountantPhone, "99999999")
	f.IsCertified = true
	active := f.IsAccountantActive == nil || *f.IsAccountantActive
	f.IsAccountantActive = &active

	return createPayload{
		Form:           f,
		CustomerOid:    newID(),
		UserOid:        newID(),
		PasswordHash:   DefaultPasswordHash,
		FirstName:      f.DrFirstname,
		LastName:       f.DrLastname,
		RoleOid:        CustomerRoleOid,
		IsCitizen:      false,
		BankAccountnum: "",
		RoleType:       CustomerRoleType,
	}
}

// TaxAccess links the customer's tax system credentials.
type TaxAccess struct {
	CustomerOid string `json:"CustomerOid" validate:"required"`
	TaxUsername string `json:"TaxUsername" validate:"required"`
	Password    string `json:"Password" validate:"required"`
}

// InsuranceAccess links the customer's social insurance credentials.
type InsuranceAccess struct {
	CustomerOid      string `json:"CustomerOid" validate:"required"`
	InsuranceLoginID string `json:"InsuranceLoginId" validate:"required"`
	Password         string `json:"Password" validate:"required"`
}
