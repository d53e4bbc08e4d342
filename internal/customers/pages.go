package customers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/novaq/novaq-dashboard/internal/backend"
	"github.com/novaq/novaq-dashboard/internal/datatable"
	"github.com/novaq/novaq-dashboard/internal/platform/httpx"
	"github.com/novaq/novaq-dashboard/internal/shared"
)

const (
	listPath    = "/dashboard/customers"
	exportPath  = "/dashboard/customers/export.csv"
	listPerPage = 20
)

// Form intents posted by the creation page.
const (
	IntentLookupOrganization = "lookup_organization"
	IntentLookupDirector     = "lookup_director"
	IntentRegion             = "region"
	IntentSubmit             = "submit"
)

// Detail page tabs.
const (
	TabGeneral   = "general"
	TabEmployees = "employees"
	TabSettings  = "settings"
)

func (h *Handler) listTable(w http.ResponseWriter, r *http.Request) (*datatable.Table[Customer], *shared.FlashMessage, bool) {
	ctx := r.Context()
	rows, err := h.service.List(ctx, shared.TokenFromContext(ctx))
	var flash *shared.FlashMessage
	if err != nil {
		if backend.IsUnauthorized(err) {
			h.sessionExpired(w, r)
			return nil, nil, false
		}
		h.logger.Warn("customer list unavailable", slog.Any("error", err))
		flash = &shared.FlashMessage{Kind: shared.FlashWarning, Message: MsgListUnavailable}
		rows = nil
	}
	table, err := datatable.New(rows, ListColumns(h.reference.Load(ctx)), datatable.Options{
		FileName:   "customers.csv",
		Pagination: true,
		PageSize:   listPerPage,
	})
	if err != nil {
		h.logger.Error("customer table misconfigured", slog.Any("error", err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return nil, nil, false
	}
	table.BindQuery(r.URL.Query())
	return table, flash, true
}

func (h *Handler) showList(w http.ResponseWriter, r *http.Request) {
	table, flash, ok := h.listTable(w, r)
	if !ok {
		return
	}
	h.render(w, r, "pages/customers_list.html", "Харилцагчид", map[string]any{
		"Table": table.View(r.URL, exportPath),
	}, flash, http.StatusOK)
}

func (h *Handler) exportList(w http.ResponseWriter, r *http.Request) {
	table, _, ok := h.listTable(w, r)
	if !ok {
		return
	}
	if err := table.ServeCSV(w); err != nil {
		h.logger.Error("customer export failed", slog.Any("error", err))
	}
}

func (h *Handler) formData(ctx context.Context, f Form, errs map[string]string, orgState, dirState LookupState) map[string]any {
	ref := h.reference.Load(ctx)
	return map[string]any{
		"Form":            f,
		"Errors":          errs,
		"OrgState":        orgState,
		"DirectorState":   dirState,
		"Regions":         ref.Regions,
		"SubRegions":      ref.SubRegionsOf(f.RegionID),
		"BusinessClasses": ref.BusinessClasses,
		"Periods":         ContractPeriods,
	}
}

func (h *Handler) showNew(w http.ResponseWriter, r *http.Request) {
	data := h.formData(r.Context(), NewForm(), map[string]string{}, LookupIdle, LookupIdle)
	h.render(w, r, "pages/customers_new.html", "Харилцагч нэмэх", data, nil, http.StatusOK)
}

// lookupState restores a field state across re-renders from the hidden
// register the data was fetched for.
func lookupState(fetched, current string) LookupState {
	if fetched != "" && fetched == current {
		return LookupFilled
	}
	return LookupIdle
}

func (h *Handler) postNew(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirectWithFlash(w, r, listPath+"/new", shared.FlashError, MsgFormInvalid)
		return
	}
	ctx := r.Context()
	token := shared.TokenFromContext(ctx)
	f := FormFromValues(r.PostForm)
	errs := map[string]string{}
	orgState := lookupState(f.OrgLookupRegister, f.CustomerID)
	dirState := lookupState(f.DirectorLookupRegister, f.DirectorRegister)
	status := http.StatusOK

	var flash *shared.FlashMessage
	var err error
	switch r.PostFormValue("intent") {
	case IntentLookupOrganization:
		orgState, flash, err = h.lookup(ctx, token, &f, LookupOrganization, errs)
	case IntentLookupDirector:
		dirState, flash, err = h.lookup(ctx, token, &f, LookupDirector, errs)
	case IntentRegion:
		f.RegionSubID = ""
	default:
		_, err = h.service.Create(ctx, token, f)
		if err == nil {
			h.redirectWithFlash(w, r, listPath, shared.FlashSuccess, MsgCreated)
			return
		}
		var ve *shared.ValidationError
		if errors.As(err, &ve) {
			errs, err = ve.Fields, nil
			flash = &shared.FlashMessage{Kind: shared.FlashError, Message: MsgFormInvalid}
			status = http.StatusBadRequest
		} else if !backend.IsUnauthorized(err) {
			h.logger.Warn("customer create failed", slog.Any("error", err), slog.String("register", f.CustomerID))
			flash = &shared.FlashMessage{Kind: shared.FlashError, Message: backend.MessageOf(err, MsgCreateFailed)}
			status, err = http.StatusBadGateway, nil
		}
	}
	if err != nil {
		h.sessionExpired(w, r)
		return
	}
	h.render(w, r, "pages/customers_new.html", "Харилцагч нэмэх", h.formData(ctx, f, errs, orgState, dirState), flash, status)
}

// lookup runs one register lookup for the form. The returned error is only
// set when the session has expired.
func (h *Handler) lookup(ctx context.Context, token string, f *Form, kind LookupKind, errs map[string]string) (LookupState, *shared.FlashMessage, error) {
	field, regno, invalid, fetched, failed := "CustomerID", f.CustomerID, MsgOrgRegisterInvalid, MsgOrgFetched, MsgOrgFetchFailed
	if kind == LookupDirector {
		field, regno, invalid, fetched, failed = "DirectorRegister", f.DirectorRegister, MsgRegisterFormat, MsgDirectorFetched, MsgDirectorFetchFail
	}
	if strings.TrimSpace(regno) == "" {
		errs[field] = MsgRegisterRequired
		return LookupError, nil, nil
	}
	if !ValidRegister(kind, regno) {
		errs[field] = invalid
		return LookupError, &shared.FlashMessage{Kind: shared.FlashError, Message: invalid}, nil
	}
	res, err := h.service.Lookup(ctx, token, regno)
	if err != nil {
		if backend.IsUnauthorized(err) {
			return LookupError, nil, err
		}
		h.logger.Warn("register lookup failed", slog.Any("error", err), slog.String("kind", string(kind)), slog.String("regno", regno))
		return LookupError, &shared.FlashMessage{Kind: shared.FlashError, Message: backend.MessageOf(err, failed)}, nil
	}
	state, msg := ApplyLookup(f, kind, regno, res)
	if msg != "" {
		errs[field] = msg
	}
	if state == LookupFilled {
		return state, &shared.FlashMessage{Kind: shared.FlashSuccess, Message: fetched}, nil
	}
	return state, nil, nil
}

func (h *Handler) showDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	regno := chi.URLParam(r, "regno")
	detail, err := h.service.Detail(ctx, shared.TokenFromContext(ctx), regno)
	if err != nil {
		switch {
		case backend.IsUnauthorized(err):
			h.sessionExpired(w, r)
		case errors.Is(err, shared.ErrNotFound):
			h.redirectWithFlash(w, r, listPath, shared.FlashError, MsgCustomerNotFound)
		default:
			h.logger.Warn("customer detail failed", slog.Any("error", err), slog.String("regno", regno))
			h.redirectWithFlash(w, r, listPath, shared.FlashError, backend.MessageOf(err, httpx.GenericMessage))
		}
		return
	}

	empty := MsgEmployeesNotLinked
	if detail.InsuranceLinked() {
		empty = MsgEmployeesEmpty
	}
	employees := datatable.MustNew(detail.Employees, EmployeeColumns(), datatable.Options{FileName: "employees.csv", EmptyText: empty})
	employees.BindQuery(r.URL.Query())

	tab := r.URL.Query().Get("tab")
	if !slices.Contains([]string{TabGeneral, TabEmployees, TabSettings}, tab) {
		tab = TabGeneral
	}
	ref := h.reference.Load(ctx)
	h.render(w, r, "pages/customers_detail.html", detail.CustomerName, map[string]any{
		"Customer":      detail,
		"Tab":           tab,
		"Path":          DetailPath(detail.CustomerID),
		"Employees":     employees.View(r.URL, ""),
		"BusinessClass": ref.BusinessClassName(detail.BusinessClassOid),
		"Region":        ref.RegionName(detail.RegionID),
	}, nil, http.StatusOK)
}

func (h *Handler) postTaxAccess(w http.ResponseWriter, r *http.Request) {
	in := TaxAccess{
		CustomerOid: strings.TrimSpace(r.PostFormValue("CustomerOid")),
		TaxUsername: strings.TrimSpace(r.PostFormValue("TaxUsername")),
		Password:    r.PostFormValue("Password"),
	}
	err := h.service.SaveTaxAccess(r.Context(), shared.TokenFromContext(r.Context()), in)
	h.finishSettings(w, r, err, MsgTaxSaved, MsgTaxFailed)
}

func (h *Handler) postInsuranceAccess(w http.ResponseWriter, r *http.Request) {
	in := InsuranceAccess{
		CustomerOid:      strings.TrimSpace(r.PostFormValue("CustomerOid")),
		InsuranceLoginID: strings.TrimSpace(r.PostFormValue("InsuranceLoginId")),
		Password:         r.PostFormValue("Password"),
	}
	err := h.service.SaveInsuranceAccess(r.Context(), shared.TokenFromContext(r.Context()), in)
	h.finishSettings(w, r, err, MsgInsuranceSaved, MsgInsuranceFailed)
}

// finishSettings redirects back to the settings tab; the password is never
// rendered again.
func (h *Handler) finishSettings(w http.ResponseWriter, r *http.Request, err error, saved, failed string) {
	target := DetailPath(chi.URLParam(r, "regno")) + "?tab=" + TabSettings
	if err == nil {
		h.redirectWithFlash(w, r, target, shared.FlashSuccess, saved)
		return
	}
	if backend.IsUnauthorized(err) {
		h.sessionExpired(w, r)
		return
	}
	var ve *shared.ValidationError
	if errors.As(err, &ve) {
		h.redirectWithFlash(w, r, target, shared.FlashError, firstMessage(ve.Fields, failed))
		return
	}
	h.logger.Warn("credential linking failed", slog.Any("error", err))
	h.redirectWithFlash(w, r, target, shared.FlashError, backend.MessageOf(err, failed))
}

func firstMessage(fields map[string]string, fallback string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if fields[k] != "" {
			return fields[k]
		}
	}
	return fallback
}
