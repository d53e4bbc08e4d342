package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/novaq/novaq-dashboard/internal/auth"
	"github.com/novaq/novaq-dashboard/internal/balances"
	"github.com/novaq/novaq-dashboard/internal/customers"
	"github.com/novaq/novaq-dashboard/internal/observability"
	"github.com/novaq/novaq-dashboard/internal/reference"
	"github.com/novaq/novaq-dashboard/internal/shared"
	"github.com/novaq/novaq-dashboard/internal/view"
	"github.com/novaq/novaq-dashboard/jobs"
	"github.com/novaq/novaq-dashboard/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Templates        *view.Engine
	Sessions         shared.SessionStore
	CSRFManager      *shared.CSRFManager
	AuthHandler      *auth.Handler
	CustomersHandler *customers.Handler
	BalancesHandler  *balances.Handler
	ReferenceHandler *reference.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// dashboardCard links a section on the dashboard home page.
type dashboardCard struct {
	Title       string
	Description string
	Href        string
}

var dashboardCards = []dashboardCard{
	{Title: "Харилцагч", Description: "Харилцагчийн жагсаалт, шинээр бүртгэх, дэлгэрэнгүй мэдээлэл", Href: "/dashboard/customers"},
	{Title: "Санхүү, тайлан", Description: "Дансны үлдэгдлийг оноор бүртгэх, засах", Href: "/dashboard/finance-and-report"},
}

// NewRouter constructs the chi.Router with dashboard defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:      params.Logger,
		Config:      params.Config,
		Sessions:    params.Sessions,
		CSRFManager: params.CSRFManager,
		Metrics:     params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})

	r.Get("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		data := view.TemplateData{
			Title:       "Хянах самбар",
			CSRFToken:   params.CSRFManager.EnsureToken(w, r),
			Flash:       shared.PopFlash(w, r),
			CurrentPath: r.URL.Path,
			User:        shared.UserFromContext(r.Context()),
			Data:        map[string]any{"Cards": dashboardCards},
		}
		if err := params.Templates.Render(w, "pages/dashboard.html", data); err != nil {
			params.Logger.Error("render dashboard", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})

	loginLimit := LoginLimit(params.Config)
	r.Route("/auth", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r, loginLimit)
	})
	r.Route("/internal", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			params.AuthHandler.MountAPI(r, loginLimit)
		})
		if params.CustomersHandler != nil {
			params.CustomersHandler.MountAPI(r)
		}
		if params.BalancesHandler != nil {
			params.BalancesHandler.MountAPI(r)
		}
		if params.ReferenceHandler != nil {
			r.Route("/v1/reference", params.ReferenceHandler.MountRoutes)
		}
	})
	if params.CustomersHandler != nil {
		r.Route("/dashboard/customers", params.CustomersHandler.MountRoutes)
	}
	if params.BalancesHandler != nil {
		r.Route("/dashboard/finance-and-report", params.BalancesHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
		r.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/static/img/favicon.svg", http.StatusMovedPermanently)
		})
	}

	return r
}

// staticCacheHandler caches embedded assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
