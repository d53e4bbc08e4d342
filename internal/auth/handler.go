package auth

import (
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/novaq/novaq-dashboard/internal/backend"
	"github.com/novaq/novaq-dashboard/internal/gateway"
	"github.com/novaq/novaq-dashboard/internal/platform/httpx"
	"github.com/novaq/novaq-dashboard/internal/shared"
	"github.com/novaq/novaq-dashboard/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	sessions  shared.SessionStore
	csrf      *shared.CSRFManager
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, sessions shared.SessionStore, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, templates: templates, sessions: sessions, csrf: csrf}
}

// MountAPI registers the JSON routes under /internal/auth. loginLimit wraps
// the login route only.
func (h *Handler) MountAPI(r chi.Router, loginLimit ...func(http.Handler) http.Handler) {
	r.With(loginLimit...).Post("/login", h.apiLogin)
	r.Post("/logout", h.logout)
	r.Get("/get-auth-data", h.authData)
	r.Get("/expired", h.expired)
}

// MountRoutes registers the login page under /auth.
func (h *Handler) MountRoutes(r chi.Router, loginLimit ...func(http.Handler) http.Handler) {
	r.Get("/login", h.showLogin)
	r.With(loginLimit...).Post("/login", h.handleLogin)
}

// RoleOption is a role choice on the login page.
type RoleOption struct {
	Value string
	Label string
}

// Roles lists the roles offered on the login page.
var Roles = []RoleOption{
	{Value: shared.RoleAccountant, Label: "Нягтлан бодогч"},
	{Value: shared.RoleSystemAdmin, Label: "Системийн админ"},
}

type loginPageData struct {
	Form     Credentials
	Errors   map[string]string
	Redirect string
	Roles    []RoleOption
}

func (h *Handler) apiLogin(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := httpx.DecodeJSON(r, &creds); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if fields := h.service.Validate(creds); fields != nil {
		httpx.ValidationFailed(w, fields)
		return
	}
	deviceID := r.Header.Get(backend.DeviceIDHeader)
	res, err := h.service.Login(r.Context(), creds, deviceID)
	if err != nil {
		h.logger.Info("login rejected", slog.Int("status", backend.StatusOf(err)), slog.String("user", strings.TrimSpace(creds.UserID)))
		httpx.Error(w, backend.StatusOf(err), backend.MessageOf(err, MsgLoginFailed))
		return
	}
	if err := h.sessions.Set(r.Context(), w, r, res.Token, res.User); err != nil {
		h.logger.Error("store session", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, MsgLoginFailed)
		return
	}
	h.service.RecordLogin(r.Context(), res, creds.Role, deviceID, r, h.sessions.TTL())
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) authData(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Authenticated(r.Context(), r)
	if err != nil {
		h.logger.Warn("load session", slog.Any("error", err))
		sess = nil
	}
	if sess == nil {
		httpx.JSON(w, http.StatusOK, nil)
		return
	}
	httpx.JSON(w, http.StatusOK, sess)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.clear(w, r)
	if isFormPost(r) {
		http.Redirect(w, r, gateway.LoginPath, http.StatusSeeOther)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// expired clears a session the backend no longer accepts and returns to the login page.
func (h *Handler) expired(w http.ResponseWriter, r *http.Request) {
	h.clear(w, r)
	target := gateway.LoginPath
	if raw := r.URL.Query().Get("redirect"); raw != "" {
		target += "?redirect=" + url.QueryEscape(gateway.SafeRedirect(raw))
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	token, err := h.sessions.AccessToken(r.Context(), r)
	if err != nil {
		h.logger.Warn("read session", slog.Any("error", err))
	}
	if err := h.sessions.Clear(r.Context(), w, r); err != nil {
		h.logger.Warn("clear session", slog.Any("error", err))
	}
	h.service.EndSession(r.Context(), token)
}

func isFormPost(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data"
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, data loginPageData, flash *shared.FlashMessage, status int) {
	if flash == nil {
		flash = shared.PopFlash(w, r)
	}
	data.Roles = Roles
	viewData := view.TemplateData{
		Title:       "Нэвтрэх",
		CSRFToken:   h.csrf.EnsureToken(w, r),
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.RenderStatus(w, status, "pages/login.html", viewData); err != nil {
		h.logger.Error("render login", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	data := loginPageData{
		Form:     Credentials{Role: shared.RoleAccountant},
		Redirect: gateway.SafeRedirect(r.URL.Query().Get("redirect")),
	}
	h.renderLogin(w, r, data, nil, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	creds := Credentials{
		UserID:   strings.TrimSpace(r.PostFormValue("userId")),
		Password: r.PostFormValue("password"),
		Role:     r.PostFormValue("role"),
	}
	if creds.Role == "" {
		creds.Role = shared.RoleAccountant
	}
	data := loginPageData{Form: creds, Redirect: gateway.SafeRedirect(r.PostFormValue("redirect"))}
	data.Form.Password = ""

	if fields := h.service.Validate(creds); fields != nil {
		data.Errors = fields
		h.renderLogin(w, r, data, nil, http.StatusBadRequest)
		return
	}

	deviceID := r.Header.Get(backend.DeviceIDHeader)
	if deviceID == "" {
		deviceID = r.PostFormValue("deviceId")
	}
	res, err := h.service.Login(r.Context(), creds, deviceID)
	if err != nil {
		flash := &shared.FlashMessage{Kind: shared.FlashError, Message: backend.MessageOf(err, MsgLoginFailed)}
		h.renderLogin(w, r, data, flash, http.StatusBadRequest)
		return
	}
	if err := h.sessions.Set(r.Context(), w, r, res.Token, res.User); err != nil {
		h.logger.Error("store session", slog.Any("error", err))
		flash := &shared.FlashMessage{Kind: shared.FlashError, Message: MsgLoginFailed}
		h.renderLogin(w, r, data, flash, http.StatusInternalServerError)
		return
	}
	h.service.RecordLogin(r.Context(), res, creds.Role, deviceID, r, h.sessions.TTL())
	shared.SetFlash(w, shared.FlashMessage{Kind: shared.FlashSuccess, Message: MsgWelcome})
	http.Redirect(w, r, data.Redirect, http.StatusSeeOther)
}
