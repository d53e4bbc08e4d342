package balances

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/novaq/novaq-dashboard/internal/backend"
	"github.com/novaq/novaq-dashboard/internal/datatable"
	"github.com/novaq/novaq-dashboard/internal/shared"
)

const (
	listPath   = "/dashboard/finance-and-report"
	exportPath = "/dashboard/finance-and-report/export.csv"
	pageTitle  = "Эхний үлдэгдэл"
)

// Form intents.
const (
	IntentAddRow = "add_row"
	IntentSubmit = "submit"
)

func (h *Handler) listTable(w http.ResponseWriter, r *http.Request) (*datatable.Table[AccountBalance], *shared.FlashMessage, bool) {
	ctx := r.Context()
	q := r.URL.Query()
	rows, err := h.service.Balances(ctx, shared.TokenFromContext(ctx), q.Get("year"), q.Get("customerId"))
	var flash *shared.FlashMessage
	if err != nil {
		if backend.IsUnauthorized(err) {
			h.sessionExpired(w, r)
			return nil, nil, false
		}
		h.logger.Warn("balances unavailable", slog.Any("error", err))
		flash = &shared.FlashMessage{Kind: shared.FlashWarning, Message: MsgListFailed}
		rows = nil
	}
	table := datatable.MustNew(rows, ListColumns(), datatable.Options{FileName: "account-period-balances.csv"})
	table.BindQuery(q)
	table.SetPinnedBottom([]AccountBalance{TotalsRow(table.Rows())})
	return table, flash, true
}

func (h *Handler) showList(w http.ResponseWriter, r *http.Request) {
	table, flash, ok := h.listTable(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	h.render(w, r, "pages/balances_list.html", pageTitle, map[string]any{
		"Table":      table.View(r.URL, exportPath),
		"Year":       q.Get("year"),
		"CustomerID": q.Get("customerId"),
		"Years":      Years(h.now()),
		"Customers":  h.customerOptions(r.Context()),
	}, flash, http.StatusOK)
}

func (h *Handler) exportList(w http.ResponseWriter, r *http.Request) {
	table, _, ok := h.listTable(w, r)
	if !ok {
		return
	}
	if err := table.ServeCSV(w); err != nil {
		h.logger.Error("balance export failed", slog.Any("error", err))
	}
}

func (h *Handler) accounts(ctx context.Context) []Account {
	list, err := h.service.Accounts(ctx, shared.TokenFromContext(ctx))
	if err != nil {
		h.logger.Warn("accounts unavailable", slog.Any("error", err))
		return []Account{}
	}
	return list
}

func (h *Handler) formData(ctx context.Context, year int, customerOid string, items []Item, errs map[string]string) map[string]any {
	active, passive := Totals(items)
	return map[string]any{
		"Year":          year,
		"CustomerOid":   customerOid,
		"Items":         items,
		"Errors":        errs,
		"Years":         Years(h.now()),
		"Accounts":      h.accounts(ctx),
		"Customers":     h.customerOptions(ctx),
		"ActiveTotal":   active,
		"PassiveTotal":  passive,
		"Action":        listPath + "/new",
		"EditingParent": "",
	}
}

func (h *Handler) showNew(w http.ResponseWriter, r *http.Request) {
	data := h.formData(r.Context(), h.now().Year(), r.URL.Query().Get("customerId"), withBlankRows(nil, blankRows), map[string]string{})
	h.render(w, r, "pages/balances_form.html", pageTitle, data, nil, http.StatusOK)
}

func (h *Handler) postNew(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirectWithFlash(w, r, listPath+"/new", shared.FlashError, MsgFormInvalid)
		return
	}
	ctx := r.Context()
	req := CreateRequestFromValues(r.PostForm)
	if r.PostFormValue("intent") == IntentAddRow {
		h.render(w, r, "pages/balances_form.html", pageTitle, h.formData(ctx, req.YearType, req.CustomerOid, withBlankRows(req.Items, 1), map[string]string{}), nil, http.StatusOK)
		return
	}

	res, err := h.service.CreateWithItems(ctx, shared.TokenFromContext(ctx), req)
	var ve *shared.ValidationError
	switch {
	case errors.As(err, &ve):
		flash := &shared.FlashMessage{Kind: shared.FlashError, Message: MsgFormInvalid}
		h.render(w, r, "pages/balances_form.html", pageTitle, h.formData(ctx, req.YearType, req.CustomerOid, withBlankRows(req.Items, 1), ve.Fields), flash, http.StatusBadRequest)
	case err != nil:
		h.logger.Error("balance create failed", slog.Any("error", err))
		h.redirectWithFlash(w, r, listPath, shared.FlashError, MsgCreateFailed)
	case res.Success:
		h.redirectWithFlash(w, r, listPath, shared.FlashSuccess, res.Message)
	case res.AccountPeriodBalanceOid != "":
		// The parent exists; the rejected rows are fixed on the edit page.
		h.redirectWithFlash(w, r, EditPath(res.AccountPeriodBalanceOid), shared.FlashError, res.Error)
	default:
		flash := &shared.FlashMessage{Kind: shared.FlashError, Message: res.Error}
		h.render(w, r, "pages/balances_form.html", pageTitle, h.formData(ctx, req.YearType, req.CustomerOid, withBlankRows(req.Items, 1), map[string]string{}), flash, http.StatusOK)
	}
}

func (h *Handler) showEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := shared.TokenFromContext(ctx)
	oid := chi.URLParam(r, "oid")

	balance, err := h.service.Balance(ctx, token, oid)
	if err != nil {
		switch {
		case backend.IsUnauthorized(err):
			h.sessionExpired(w, r)
		case errors.Is(err, shared.ErrNotFound):
			h.redirectWithFlash(w, r, listPath, shared.FlashError, MsgNotFound)
		default:
			h.logger.Warn("balance unavailable", slog.Any("error", err), slog.String("balance", oid))
			h.redirectWithFlash(w, r, listPath, shared.FlashError, MsgListFailed)
		}
		return
	}
	items, err := h.service.Items(ctx, token, oid)
	var flash *shared.FlashMessage
	if err != nil {
		h.logger.Warn("balance items unavailable", slog.Any("error", err), slog.String("balance", oid))
		flash = &shared.FlashMessage{Kind: shared.FlashWarning, Message: MsgListFailed}
	}
	h.renderEdit(w, r, balance, withBlankRows(items, 1), map[string]string{}, flash, http.StatusOK)
}

func (h *Handler) renderEdit(w http.ResponseWriter, r *http.Request, balance *AccountBalance, items []Item, errs map[string]string, flash *shared.FlashMessage, status int) {
	data := h.formData(r.Context(), balance.YearType, balance.CustomerOid, items, errs)
	data["Action"] = EditPath(balance.Oid)
	data["EditingParent"] = balance.Oid
	data["Balance"] = balance
	h.render(w, r, "pages/balances_form.html", pageTitle, data, flash, status)
}

func (h *Handler) postEdit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirectWithFlash(w, r, listPath, shared.FlashError, MsgFormInvalid)
		return
	}
	ctx := r.Context()
	oid := chi.URLParam(r, "oid")
	balance := &AccountBalance{
		Oid:         oid,
		CustomerOid: strings.TrimSpace(r.PostFormValue("CustomerOid")),
	}
	balance.YearType = CreateRequestFromValues(r.PostForm).YearType
	items := ItemsFromValues(r.PostForm)

	if r.PostFormValue("intent") == IntentAddRow {
		h.renderEdit(w, r, balance, withBlankRows(items, 1), map[string]string{}, nil, http.StatusOK)
		return
	}

	res, err := h.service.UpdateItems(ctx, shared.TokenFromContext(ctx), UpdateRequest{AccountPeriodBalanceOid: oid, Items: items})
	var ve *shared.ValidationError
	switch {
	case errors.As(err, &ve):
		flash := &shared.FlashMessage{Kind: shared.FlashError, Message: MsgFormInvalid}
		h.renderEdit(w, r, balance, withBlankRows(items, 1), ve.Fields, flash, http.StatusBadRequest)
	case err != nil:
		h.logger.Error("balance update failed", slog.Any("error", err), slog.String("balance", oid))
		h.redirectWithFlash(w, r, EditPath(oid), shared.FlashError, MsgUpdateFailed)
	case res.Success:
		h.redirectWithFlash(w, r, EditPath(oid), shared.FlashSuccess, res.Message)
	default:
		flash := &shared.FlashMessage{Kind: shared.FlashError, Message: res.Error}
		h.renderEdit(w, r, balance, withBlankRows(items, 1), map[string]string{}, flash, http.StatusOK)
	}
}
