package balances

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/novaq/novaq-dashboard/internal/customers"
	"github.com/novaq/novaq-dashboard/internal/shared"
	"github.com/novaq/novaq-dashboard/internal/view"
)

// CustomerLister provides the customer select options.
type CustomerLister interface {
	ListForAccountant(ctx context.Context, token, accountantOid string) ([]customers.Customer, error)
}

// Handler serves the balance pages and the balance internal API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	customers CustomerLister
	templates *view.Engine
	csrf      *shared.CSRFManager
	now       func() time.Time
}

// NewHandler builds the handler.
func NewHandler(logger *slog.Logger, service *Service, lister CustomerLister, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, customers: lister, templates: templates, csrf: csrf, now: time.Now}
}

// MountAPI registers the JSON routes under /internal.
func (h *Handler) MountAPI(r chi.Router) {
	r.Get("/v1/account", h.apiAccounts)
	r.Get("/v1/account-period-balance", h.apiBalances)
	r.Post("/v1/account-period-balance", h.apiCreate)
	r.Get("/v1/account-period-balance-item", h.apiItems)
	r.Put("/v1/account-period-balance-item", h.apiUpdate)
}

// MountRoutes registers the HTML routes under /dashboard/finance-and-report.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showList)
	r.Get("/export.csv", h.exportList)
	r.Get("/new", h.showNew)
	r.Post("/new", h.postNew)
	r.Get("/{oid}/edit", h.showEdit)
	r.Post("/{oid}/edit", h.postEdit)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, tmpl, title string, data map[string]any, flash *shared.FlashMessage, status int) {
	if flash == nil {
		flash = shared.PopFlash(w, r)
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   h.csrf.EnsureToken(w, r),
		Flash:       flash,
		CurrentPath: r.URL.Path,
		User:        shared.UserFromContext(r.Context()),
		Data:        data,
	}
	if err := h.templates.RenderStatus(w, status, tmpl, viewData); err != nil {
		h.logger.Error("template render failed", slog.Any("error", err), slog.String("template", tmpl))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, target, kind, message string) {
	shared.SetFlash(w, shared.FlashMessage{Kind: kind, Message: message})
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) sessionExpired(w http.ResponseWriter, r *http.Request) {
	target := shared.SessionExpiredPath + "?redirect=" + url.QueryEscape(r.URL.RequestURI())
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// customerOptions lists the signed-in accountant's customers; failures give
// an empty select.
func (h *Handler) customerOptions(ctx context.Context) []customers.Customer {
	user := shared.UserFromContext(ctx)
	if user == nil || h.customers == nil {
		return []customers.Customer{}
	}
	accountant := user.AccountantOid
	if accountant == "" {
		accountant = user.Oid
	}
	list, err := h.customers.ListForAccountant(ctx, shared.TokenFromContext(ctx), accountant)
	if err != nil {
		h.logger.Warn("customer options unavailable", slog.Any("error", err))
		return []customers.Customer{}
	}
	return list
}
