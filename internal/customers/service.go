package customers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/novaq/novaq-dashboard/internal/backend"
	"github.com/novaq/novaq-dashboard/internal/shared"
)

// Backend paths.
const (
	AccountantCustomersPath = "/api/customerslist/accountant/customers"
	CustomersByAccountant   = "/api/customerslist/accountant/"
	CheckRegisterPath       = "/api/customerslist/check-register/"
	CheckEbarimtPath        = "/api/check-ebarimt"
	CustomerByRegisterPath  = "/api/customer/by-register/"
	SaveAllPath             = "/api/customer/save-all"
	TaxAccessPath           = "/api/customer/tax-access"
	InsuranceAccessPath     = "/api/customer/insurance-access"
)

// Backend is the subset of the backend client the service needs.
type Backend interface {
	Get(ctx context.Context, path, token string, query url.Values) (*backend.Response, error)
	Post(ctx context.Context, path, token string, body any) (*backend.Response, error)
}

// Service implements customer queries and actions against the backend.
type Service struct {
	backend  Backend
	logger   *slog.Logger
	validate *validator.Validate
	newID    func() string
}

// NewService constructs the service.
func NewService(b Backend, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: b, logger: logger, validate: newValidator(), newID: uuid.NewString}
}

// AccountantCustomers returns the raw backend reply for the signed-in
// accountant's customers.
func (s *Service) AccountantCustomers(ctx context.Context, token string) (*backend.Response, error) {
	return s.backend.Get(ctx, AccountantCustomersPath, token, nil)
}

// List decodes the signed-in accountant's customers.
func (s *Service) List(ctx context.Context, token string) ([]Customer, error) {
	resp, err := s.AccountantCustomers(ctx, token)
	if err != nil {
		return []Customer{}, err
	}
	return backend.DecodeList[Customer](resp)
}

// ListForAccountant lists the customers of one accountant.
func (s *Service) ListForAccountant(ctx context.Context, token, accountantOid string) ([]Customer, error) {
	resp, err := s.backend.Get(ctx, CustomersByAccountant+url.PathEscape(accountantOid), token, nil)
	if err != nil {
		return []Customer{}, err
	}
	return backend.DecodeList[Customer](resp)
}

type systemCheck struct {
	Exists       bool            `json:"exists"`
	CustomerOid  string          `json:"customerOid"`
	IsActive     *bool           `json:"isActive"`
	CustomerData json.RawMessage `json:"customerData"`
}

type registryReply struct {
	Tin     Text      `json:"tin"`
	Data    *Taxpayer `json:"data"`
	Success *bool     `json:"success"`
}

// Lookup resolves a register number: a system record when the register is
// already a customer, the e-barimt registry record otherwise. An empty
// register is ErrValidation.
func (s *Service) Lookup(ctx context.Context, token, regno string) (*LookupResult, error) {
	regno = strings.TrimSpace(regno)
	if regno == "" {
		return nil, fmt.Errorf("%w: register required", shared.ErrValidation)
	}

	resp, err := s.backend.Get(ctx, CheckRegisterPath+url.PathEscape(regno), token, nil)
	if err == nil {
		var sys systemCheck
		if decodeErr := resp.Decode(&sys); decodeErr == nil && sys.Exists {
			return &LookupResult{Exists: true, CustomerOid: sys.CustomerOid, IsActive: sys.IsActive, CustomerData: sys.CustomerData}, nil
		}
	} else if errors.Is(err, context.Canceled) {
		return nil, err
	}

	resp, err = s.backend.Get(ctx, CheckEbarimtPath, token, url.Values{"regno": {regno}})
	if err != nil {
		return nil, err
	}
	var reg registryReply
	if err := resp.Decode(&reg); err != nil {
		return nil, err
	}
	result := &LookupResult{Exists: false, Tin: reg.Tin, Data: reg.Data, Success: reg.Success}
	if err := s.validate.Struct(result); err != nil {
		return nil, fmt.Errorf("%w: %v", backend.ErrInvalidPayload, err)
	}
	return result, nil
}

// ApplyLookup fills the form from a lookup result and returns the field state.
// Organization lookups that hit an existing customer set a field error.
func ApplyLookup(f *Form, kind LookupKind, regno string, res *LookupResult) (LookupState, string) {
	switch kind {
	case LookupDirector:
		f.DrFirstname, f.DrLastname = "", ""
		if res.Exists || res.Data == nil {
			f.DirectorLookupRegister = regno
			return LookupExists, ""
		}
		f.DrFirstname = res.Data.DirectorLastName
		f.DrLastname = res.Data.DirectorName
		f.DirectorLookupRegister = regno
		return LookupFilled, ""
	default:
		f.CustomerName, f.TinCode, f.UserName = "", "", ""
		f.IsVatPayer, f.IsCityPayer = false, false
		f.OrgLookupRegister = ""
		if res.Exists {
			return LookupExists, MsgRegisterExists
		}
		name := ""
		if res.Data != nil {
			name = res.Data.Name
			f.IsVatPayer = res.Data.VatPayer
			f.IsCityPayer = res.Data.CityPayer
		}
		f.CustomerName = name
		f.TinCode = string(res.Tin)
		f.UserName = name
		f.OrgLookupRegister = regno
		return LookupFilled, ""
	}
}

// ValidateForm checks the creation form, including that the looked-up
// registers still match the submitted ones.
func (s *Service) ValidateForm(f Form) map[string]string {
	fields := map[string]string{}
	if err := s.validate.Struct(f); err != nil {
		fields = shared.FieldErrors(err, formMessages)
	}
	if _, bad := fields["CustomerID"]; !bad && f.OrgLookupRegister != "" && f.OrgLookupRegister != f.CustomerID {
		fields["CustomerID"] = MsgLookupStale
	}
	if _, bad := fields["DirectorRegister"]; !bad && f.DirectorLookupRegister != "" && f.DirectorLookupRegister != f.DirectorRegister {
		fields["DirectorRegister"] = MsgLookupStale
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Create validates the form and posts it to save-all with fresh oids.
func (s *Service) Create(ctx context.Context, token string, f Form) (string, error) {
	if fields := s.ValidateForm(f); fields != nil {
		return "", &shared.ValidationError{Fields: fields}
	}
	payload := buildPayload(f, s.newID)
	if _, err := s.backend.Post(ctx, SaveAllPath, token, payload); err != nil {
		return "", err
	}
	return payload.CustomerOid, nil
}

// Detail loads a customer with its employees by register number.
func (s *Service) Detail(ctx context.Context, token, regno string) (*Detail, error) {
	regno = strings.TrimSpace(regno)
	if regno == "" {
		return nil, shared.ErrNotFound
	}
	resp, err := s.backend.Get(ctx, CustomerByRegisterPath+url.PathEscape(regno), token, nil)
	if err != nil {
		if backend.StatusOf(err) == 404 {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	var detail Detail
	if err := decodeObject(resp.Body, &detail); err != nil {
		return nil, err
	}
	if detail.Oid == "" && detail.CustomerID == "" {
		return nil, shared.ErrNotFound
	}
	if detail.Employees == nil {
		detail.Employees = []Employee{}
	}
	return &detail, nil
}

// decodeObject accepts a bare object or a {"data": {...}} envelope.
func decodeObject(raw []byte, dest any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return backend.ErrEmptyBody
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Data) > 0 && env.Data[0] == '{' {
		raw = env.Data
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("customers: decode: %w", err)
	}
	return nil
}

// SaveTaxAccess stores tax system credentials.
func (s *Service) SaveTaxAccess(ctx context.Context, token string, in TaxAccess) error {
	if err := s.validate.Struct(in); err != nil {
		return &shared.ValidationError{Fields: shared.FieldErrors(err, formMessages)}
	}
	_, err := s.backend.Post(ctx, TaxAccessPath, token, in)
	return err
}

// SaveInsuranceAccess stores social insurance credentials.
func (s *Service) SaveInsuranceAccess(ctx context.Context, token string, in InsuranceAccess) error {
	if err := s.validate.Struct(in); err != nil {
		return &shared.ValidationError{Fields: shared.FieldErrors(err, formMessages)}
	}
	_, err := s.backend.Post(ctx, InsuranceAccessPath, token, in)
	return err
}
