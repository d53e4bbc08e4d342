package balances

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/novaq/novaq-dashboard/internal/platform/httpx"
	"github.com/novaq/novaq-dashboard/internal/shared"
)

func (h *Handler) apiAccounts(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Accounts(r.Context(), shared.TokenFromContext(r.Context()))
	if err != nil {
		h.logger.Warn("accounts unavailable", slog.Any("error", err))
		list = []Account{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) apiBalances(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.service.Balances(r.Context(), shared.TokenFromContext(r.Context()), q.Get("year"), q.Get("customerId"))
	if err != nil {
		h.logger.Warn("balances unavailable", slog.Any("error", err))
		list = []AccountBalance{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) apiItems(w http.ResponseWriter, r *http.Request) {
	oid := r.URL.Query().Get("accountPeriodBalanceOid")
	if oid == "" {
		httpx.JSON(w, http.StatusOK, []Item{})
		return
	}
	list, err := h.service.Items(r.Context(), shared.TokenFromContext(r.Context()), oid)
	if err != nil {
		h.logger.Warn("balance items unavailable", slog.Any("error", err), slog.String("balance", oid))
		list = []Item{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) apiCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.CreateWithItems(r.Context(), shared.TokenFromContext(r.Context()), req)
	h.writeResult(w, res, err)
}

func (h *Handler) apiUpdate(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.UpdateItems(r.Context(), shared.TokenFromContext(r.Context()), req)
	h.writeResult(w, res, err)
}

// writeResult answers batch actions with the Result body. Backend failures
// are reported in the body, not the status.
func (h *Handler) writeResult(w http.ResponseWriter, res Result, err error) {
	var ve *shared.ValidationError
	if errors.As(err, &ve) {
		httpx.ValidationFailed(w, ve.Fields)
		return
	}
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}
