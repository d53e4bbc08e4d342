package customers

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/novaq/novaq-dashboard/internal/reference"
	"github.com/novaq/novaq-dashboard/internal/shared"
	"github.com/novaq/novaq-dashboard/internal/view"
)

// Handler serves the customer pages and the customer internal API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	reference *reference.Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler builds the handler.
func NewHandler(logger *slog.Logger, service *Service, ref *reference.Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, reference: ref, templates: templates, csrf: csrf}
}

// MountAPI registers the JSON routes under /internal.
func (h *Handler) MountAPI(r chi.Router) {
	r.Get("/accountant/customers", h.apiAccountantCustomers)
	r.Get("/v1/customers-list", h.apiCustomersList)
	r.Get("/v1/check-organization-by-regno", h.apiLookup)
	r.Get("/v1/check-director-by-register", h.apiLookup)
	r.Get("/v1/customers/{regno}", h.apiDetail)
	r.Post("/v1/customers", h.apiCreate)
	r.Post("/v1/customers/{oid}/tax-access", h.apiTaxAccess)
	r.Post("/v1/customers/{oid}/insurance-access", h.apiInsuranceAccess)
}

// MountRoutes registers the HTML routes under /dashboard/customers.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showList)
	r.Get("/export.csv", h.exportList)
	r.Get("/new", h.showNew)
	r.Post("/new", h.postNew)
	r.Get("/detail/{regno}", h.showDetail)
	r.Post("/detail/{regno}/tax-access", h.postTaxAccess)
	r.Post("/detail/{regno}/insurance-access", h.postInsuranceAccess)
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
