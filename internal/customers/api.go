package customers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/novaq/novaq-dashboard/internal/backend"
	"github.com/novaq/novaq-dashboard/internal/platform/httpx"
	"github.com/novaq/novaq-dashboard/internal/shared"
)

// ActionReply is the success body of customer write actions.
type ActionReply struct {
	Message     string `json:"message"`
	CustomerOid string `json:"customerOid,omitempty"`
}

func (h *Handler) apiAccountantCustomers(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.AccountantCustomers(r.Context(), shared.TokenFromContext(r.Context()))
	if err != nil {
		httpx.Error(w, backend.StatusOf(err), backend.MessageOf(err, httpx.GenericMessage))
		return
	}
	httpx.Raw(w, resp.Status, resp.Body)
}

func (h *Handler) apiCustomersList(w http.ResponseWriter, r *http.Request) {
	accountantOid := strings.TrimSpace(r.URL.Query().Get("accountantOid"))
	if accountantOid == "" {
		httpx.JSON(w, http.StatusOK, []Customer{})
		return
	}
	list, err := h.service.ListForAccountant(r.Context(), shared.TokenFromContext(r.Context()), accountantOid)
	if err != nil {
		h.logger.Warn("customers list failed", slog.Any("error", err), slog.String("accountant", accountantOid))
		list = []Customer{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) apiLookup(w http.ResponseWriter, r *http.Request) {
	regno := strings.TrimSpace(r.URL.Query().Get("regno"))
	if regno == "" {
		httpx.Error(w, http.StatusBadRequest, MsgRegisterRequired)
		return
	}
	res, err := h.service.Lookup(r.Context(), shared.TokenFromContext(r.Context()), regno)
	if err != nil {
		h.logger.Warn("register lookup failed", slog.Any("error", err), slog.String("regno", regno))
		httpx.Error(w, backend.StatusOf(err), backend.MessageOf(err, MsgOrgFetchFailed))
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) apiDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.Detail(r.Context(), shared.TokenFromContext(r.Context()), chi.URLParam(r, "regno"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) apiCreate(w http.ResponseWriter, r *http.Request) {
	f := NewForm()
	if err := httpx.DecodeJSON(r, &f); err != nil {
		httpx.RespondError(w, err)
		return
	}
	oid, err := h.service.Create(r.Context(), shared.TokenFromContext(r.Context()), f)
	if err != nil {
		h.writeActionError(w, err, MsgCreateFailed)
		return
	}
	httpx.JSON(w, http.StatusCreated, ActionReply{Message: MsgCreated, CustomerOid: oid})
}

type credentialBody struct {
	TaxUsername      string `json:"TaxUsername"`
	InsuranceLoginID string `json:"InsuranceLoginId"`
	Password         string `json:"Password"`
}

func (h *Handler) apiTaxAccess(w http.ResponseWriter, r *http.Request) {
	var body credentialBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	in := TaxAccess{CustomerOid: chi.URLParam(r, "oid"), TaxUsername: strings.TrimSpace(body.TaxUsername), Password: body.Password}
	if err := h.service.SaveTaxAccess(r.Context(), shared.TokenFromContext(r.Context()), in); err != nil {
		h.writeActionError(w, err, MsgTaxFailed)
		return
	}
	httpx.JSON(w, http.StatusOK, ActionReply{Message: MsgTaxSaved})
}

func (h *Handler) apiInsuranceAccess(w http.ResponseWriter, r *http.Request) {
	var body credentialBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	in := InsuranceAccess{CustomerOid: chi.URLParam(r, "oid"), InsuranceLoginID: strings.TrimSpace(body.InsuranceLoginID), Password: body.Password}
	if err := h.service.SaveInsuranceAccess(r.Context(), shared.TokenFromContext(r.Context()), in); err != nil {
		h.writeActionError(w, err, MsgInsuranceFailed)
		return
	}
	httpx.JSON(w, http.StatusOK, ActionReply{Message: MsgInsuranceSaved})
}

func (h *Handler) writeActionError(w http.ResponseWriter, err error, fallback string) {
	var ve *shared.ValidationError
	if errors.As(err, &ve) {
		httpx.ValidationFailed(w, ve.Fields)
		return
	}
	h.logger.Warn("customer action failed", slog.Any("error", err))
	httpx.Error(w, backend.StatusOf(err), backend.MessageOf(err, fallback))
}
