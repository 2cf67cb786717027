package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/lockboxlabs/licenser/internal/licenser/service"
	"github.com/lockboxlabs/licenser/internal/licenser/store"
	"github.com/lockboxlabs/licenser/pkg/httpx"
	"github.com/lockboxlabs/licenser/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	KeyService       *service.KeyService
	LicenseService   *service.LicenseService
	DocumentService  *service.DocumentService
	DirectoryService *service.DirectoryService
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerKeys()
	r.registerLicenses()
	r.registerDocuments()
	r.registerDirectory()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerKeys() {
	h := &KeysHandler{Keys: r.KeyService}

	// Key material mutations get the strict limit.
	r.Mux.Handle("POST /v1/keys",
		httpx.Chain(http.HandlerFunc(h.HandleGenerate),
			httpx.RateLimitMiddleware(httpx.StrictLimit, httpx.IPKeyExtractor)))
	r.Mux.Handle("POST /v1/keys/import",
		httpx.Chain(http.HandlerFunc(h.HandleImport),
			httpx.RateLimitMiddleware(httpx.StrictLimit, httpx.IPKeyExtractor)))
	r.Mux.Handle("POST /v1/keys/rotate",
		httpx.Chain(http.HandlerFunc(h.HandleRotate),
			httpx.RateLimitMiddleware(httpx.StrictLimit, httpx.IPKeyExtractor)))
	r.Mux.Handle("POST /v1/keys/{id}/deactivate",
		httpx.Chain(http.HandlerFunc(h.HandleDeactivate),
			httpx.RateLimitMiddleware(httpx.StrictLimit, httpx.IPKeyExtractor)))
	r.Mux.Handle("DELETE /v1/keys/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			httpx.RateLimitMiddleware(httpx.StrictLimit, httpx.IPKeyExtractor)))

	r.Mux.Handle("GET /v1/keys",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			httpx.RateLimitMiddleware(httpx.LenientLimit, httpx.IPKeyExtractor)))
	r.Mux.Handle("GET /v1/keys/{id}/public",
		httpx.Chain(http.HandlerFunc(h.HandlePublicKey),
			httpx.RateLimitMiddleware(httpx.LenientLimit, httpx.IPKeyExtractor)))
}

func (r *Router) registerLicenses() {
	h := &LicensesHandler{Licenses: r.LicenseService}

	r.Mux.Handle("POST /v1/licenses",
		httpx.Chain(http.HandlerFunc(h.HandleGenerate),
			httpx.RateLimitMiddleware(httpx.ModerateLimit, httpx.IPKeyExtractor)))
	r.Mux.Handle("POST /v1/licenses/{id}/revoke",
		httpx.Chain(http.HandlerFunc(h.HandleRevoke),
			httpx.RateLimitMiddleware(httpx.ModerateLimit, httpx.IPKeyExtractor)))
	r.Mux.Handle("POST /v1/licenses/{id}/suspend",
		httpx.Chain(http.HandlerFunc(h.HandleSuspend),
			httpx.RateLimitMiddleware(httpx.ModerateLimit, httpx.IPKeyExtractor)))
	r.Mux.Handle("POST /v1/licenses/{id}/resume",
		httpx.Chain(http.HandlerFunc(h.HandleResume),
			httpx.RateLimitMiddleware(httpx.ModerateLimit, httpx.IPKeyExtractor)))

	// Validation and reads happen constantly from deployed installations.
	r.Mux.Handle("POST /v1/licenses/{id}/validate",
		httpx.Chain(http.HandlerFunc(h.HandleValidate),
			httpx.RateLimitMiddleware(httpx.LenientLimit, httpx.IPKeyExtractor)))
	r.Mux.Handle("GET /v1/licenses",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			httpx.RateLimitMiddleware(httpx.LenientLimit, httpx.IPKeyExtractor)))
	r.Mux.Handle("GET /v1/licenses/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitMiddleware(httpx.LenientLimit, httpx.IPKeyExtractor)))
	r.Mux.Handle("GET /v1/licenses/{id}/export",
		httpx.Chain(http.HandlerFunc(h.HandleExport),
			httpx.RateLimitMiddleware(httpx.LenientLimit, httpx.IPKeyExtractor)))
	r.Mux.Handle("GET /v1/licenses/{id}/token",
		httpx.Chain(http.HandlerFunc(h.HandleExportToken),
			httpx.RateLimitMiddleware(httpx.LenientLimit, httpx.IPKeyExtractor)))
}

func (r *Router) registerDocuments() {
	h := &DocumentsHandler{Documents: r.DocumentService}

	r.Mux.Handle("POST /v1/documents",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			httpx.RateLimitMiddleware(httpx.ModerateLimit, httpx.IPKeyExtractor)))
	r.Mux.Handle("POST /v1/documents/{no}/lines",
		httpx.Chain(http.HandlerFunc(h.HandleAddLine),
			httpx.RateLimitMiddleware(httpx.ModerateLimit, httpx.IPKeyExtractor)))
	r.Mux.Handle("PUT /v1/documents/{no}/lines/{lineNo}",
		httpx.Chain(http.HandlerFunc(h.HandleUpdateLine),
			httpx.RateLimitMiddleware(httpx.ModerateLimit, httpx.IPKeyExtractor)))
	r.Mux.Handle("DELETE /v1/documents/{no}/lines/{lineNo}",
		httpx.Chain(http.HandlerFunc(h.HandleDeleteLine),
			httpx.RateLimitMiddleware(httpx.ModerateLimit, httpx.IPKeyExtractor)))
	r.Mux.Handle("POST /v1/documents/{no}/release",
		httpx.Chain(http.HandlerFunc(h.HandleRelease),
			httpx.RateLimitMiddleware(httpx.ModerateLimit, httpx.IPKeyExtractor)))
	r.Mux.Handle("POST /v1/documents/{no}/reopen",
		httpx.Chain(http.HandlerFunc(h.HandleReopen),
			httpx.RateLimitMiddleware(httpx.ModerateLimit, httpx.IPKeyExtractor)))
	r.Mux.Handle("POST /v1/documents/{no}/archive",
		httpx.Chain(http.HandlerFunc(h.HandleArchive),
			httpx.RateLimitMiddleware(httpx.ModerateLimit, httpx.IPKeyExtractor)))

	r.Mux.Handle("GET /v1/documents",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			httpx.RateLimitMiddleware(httpx.LenientLimit, httpx.IPKeyExtractor)))
	r.Mux.Handle("GET /v1/documents/{no}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitMiddleware(httpx.LenientLimit, httpx.IPKeyExtractor)))
}

func (r *Router) registerDirectory() {
	h := &DirectoryHandler{Directory: r.DirectoryService}

	r.Mux.Handle("POST /v1/applications",
		httpx.Chain(http.HandlerFunc(h.HandleRegisterApplication),
			httpx.RateLimitMiddleware(httpx.ModerateLimit, httpx.IPKeyExtractor)))
	r.Mux.Handle("GET /v1/applications",
		httpx.Chain(http.HandlerFunc(h.HandleListApplications),
			httpx.RateLimitMiddleware(httpx.LenientLimit, httpx.IPKeyExtractor)))
	r.Mux.Handle("POST /v1/customers",
		httpx.Chain(http.HandlerFunc(h.HandleRegisterCustomer),
			httpx.RateLimitMiddleware(httpx.ModerateLimit, httpx.IPKeyExtractor)))
	r.Mux.Handle("GET /v1/customers",
		httpx.Chain(http.HandlerFunc(h.HandleListCustomers),
			httpx.RateLimitMiddleware(httpx.LenientLimit, httpx.IPKeyExtractor)))
}

func (r *Router) registerSystem() {
	r.Mux.HandleFunc("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.HandleFunc("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.KeyService))
	r.Mux.Handle("GET /metrics", promhttp.Handler())
}
