package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/haulscale/weighbridge/docs"
	"github.com/haulscale/weighbridge/internal/api/handler"
	"github.com/haulscale/weighbridge/internal/api/middleware"
	"github.com/haulscale/weighbridge/internal/core/domain"
	"github.com/haulscale/weighbridge/internal/core/policy"
	"github.com/haulscale/weighbridge/internal/core/ports"
)

// Services are the core services the routes are served by.
type Services struct {
	Authn     ports.Authenticator
	KeyAuthn  ports.APIKeyAuthenticator
	Companies ports.ResourceService[domain.Company]
	Drivers   ports.ResourceService[domain.Driver]
	Vehicles  ports.ResourceService[domain.Vehicle]
	Scales    ports.ResourceService[domain.Scale]
	Loads     ports.LoadService
	Weights   ports.WeightService
	APIKeys   ports.APIKeyService
	Webhooks  ports.WebhookService
	Permits   ports.ResourceService[domain.Permit]
	Users     ports.UserService
	Cities    ports.CityService
	Dashboard ports.DashboardService
}

// Options carry the router's ambient configuration.
type Options struct {
	Log zerolog.Logger
	// Health maps dependency names to readiness probes.
	Health map[string]func(context.Context) error
	// Registerer receives the HTTP metrics; nil means the default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	IngestRate  float64
	IngestBurst int

	LegalGrossLimitLbs float64
	DirectoryDriver    string
	WebhookWorkers     int
}

// routes registers guarded routes. The policy of each route is resolved
// from the table when the route is added. Routes under a company-admin
// deny-list prefix are registered on that prefix's group.
type routes struct {
	e      *echo.Echo
	table  policy.Table
	authn  ports.Authenticator
	log    zerolog.Logger
	groups map[string]*echo.Group
}

func newRoutes(e *echo.Echo, authn ports.Authenticator, log zerolog.Logger) routes {
	r := routes{e: e, table: policy.DefaultTable(), authn: authn, log: log, groups: make(map[string]*echo.Group)}

	// Group middleware also wraps echo's not-found routes for the prefix, so
	// unknown methods and subpaths are authenticated and guarded as well.
	denied := make(map[string]echo.HandlerFunc)
	for _, prefix := range policy.DenyList() {
		chain := r.chain(prefixFamily(prefix), prefix)
		r.groups[prefix] = e.Group(prefix, chain...)
		denied[prefix] = applyMiddleware(echo.NotFoundHandler, chain)
	}
	// Paths that only share a string prefix with a deny-list entry.
	e.RouteNotFound("/api/*", func(c echo.Context) error {
		if h, ok := denied[r.table.For(c.Request().URL.Path).Prefix()]; ok {
			return h(c)
		}
		return echo.ErrNotFound
	})
	return r
}

func (r routes) chain(family domain.TenantKind, path string) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.Authenticate(r.authn, family),
		middleware.Guard(r.table.For(path), r.log),
	}
}

func (r routes) add(family domain.TenantKind, method, path string, h echo.HandlerFunc, extra ...echo.MiddlewareFunc) {
	prefix := r.table.For(path).Prefix()
	if g, ok := r.groups[prefix]; ok {
		g.Add(method, strings.TrimPrefix(path, prefix), h, extra...)
		return
	}
	r.e.Add(method, path, h, append(r.chain(family, path), extra...)...)
}

// prefixFamily reports which account table authenticates a deny-list prefix.
func prefixFamily(prefix string) domain.TenantKind {
	if strings.HasPrefix(prefix, "/api/city-") {
		return domain.TenantCity
	}
	return domain.TenantCompany
}

func applyMiddleware(h echo.HandlerFunc, mw []echo.MiddlewareFunc) echo.HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

// crud registers the list/read/create/update/delete routes of a resource.
// writeMW guards the mutating routes only.
func (r routes) crud(family domain.TenantKind, base string, list, get, create, update, del echo.HandlerFunc, writeMW ...echo.MiddlewareFunc) {
	r.add(family, http.MethodGet, base, list)
	r.add(family, http.MethodGet, base+"/:id", get)
	if create != nil {
		r.add(family, http.MethodPost, base, create, writeMW...)
	}
	if update != nil {
		r.add(family, http.MethodPut, base+"/:id", update, writeMW...)
	}
	r.add(family, http.MethodDelete, base+"/:id", del, writeMW...)
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(svc Services, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(opts.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "weighbridge",
		Registerer: opts.Registerer,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Path(), "/health") || c.Path() == "/metrics"
		},
	}))

	// --- Operational routes (no auth required) ---
	health := handler.NewHealthHandler(opts.Health)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: opts.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	r := newRoutes(e, svc.Authn, opts.Log)
	companyAdmin := middleware.RequireRoles(domain.RoleCompanyAdmin)
	superAdmin := middleware.RequireRoles()
	cityAdmin := middleware.RequireRoles(domain.RoleCityAdmin)

	account := handler.NewAccountHandler(svc.Users, svc.Cities, svc.Dashboard)

	// --- Company portal ---
	co := domain.TenantCompany
	r.add(co, http.MethodGet, "/api/auth/me", account.Me)
	r.add(co, http.MethodGet, "/api/dashboard/stats", account.CompanyStats)

	drivers := handler.NewResource[domain.Driver, handler.DriverRequest](svc.Drivers, handler.Filters{"active": handler.FilterBool})
	r.crud(co, "/api/drivers", drivers.List, drivers.Get, drivers.Create, drivers.Update, drivers.Delete)

	vehicles := handler.NewResource[domain.Vehicle, handler.VehicleRequest](svc.Vehicles, handler.Filters{"active": handler.FilterBool, "plate": handler.FilterString})
	r.crud(co, "/api/vehicles", vehicles.List, vehicles.Get, vehicles.Create, vehicles.Update, vehicles.Delete)

	scales := handler.NewResource[domain.Scale, handler.ScaleRequest](svc.Scales, handler.Filters{"active": handler.FilterBool})
	r.crud(co, "/api/scales", scales.List, scales.Get, scales.Create, scales.Update, scales.Delete)

	loads := handler.NewResource[domain.Load, handler.LoadRequest](svc.Loads, handler.Filters{
		"status":     handler.FilterString,
		"driver_id":  handler.FilterString,
		"vehicle_id": handler.FilterString,
	})
	r.crud(co, "/api/loads", loads.List, loads.Get, loads.Create, loads.Update, loads.Delete)
	r.add(co, http.MethodPost, "/api/loads/:id/status", handler.NewLoadHandler(svc.Loads).Transition)

	weights := handler.NewResource[domain.Weight, handler.WeightRequest](svc.Weights, handler.Filters{
		"overweight": handler.FilterBool,
		"vehicle_id": handler.FilterString,
		"load_id":    handler.FilterString,
		"source":     handler.FilterString,
	})
	r.crud(co, "/api/weights", weights.List, weights.Get, weights.Create, weights.Update, weights.Delete)

	integrations := handler.NewIntegrationHandler(svc.APIKeys, svc.Webhooks)
	apiKeys := handler.NewResource[domain.APIKey, handler.APIKeyRequest](svc.APIKeys, nil)
	r.crud(co, "/api/api-keys", apiKeys.List, apiKeys.Get, integrations.CreateAPIKey, nil, apiKeys.Delete, companyAdmin)

	webhooks := handler.NewResource[domain.Webhook, handler.WebhookRequest](svc.Webhooks, handler.Filters{"active": handler.FilterBool})
	r.crud(co, "/api/webhooks", webhooks.List, webhooks.Get, integrations.CreateWebhook, webhooks.Update, webhooks.Delete, companyAdmin)

	companies := handler.NewResource[domain.Company, handler.CompanyRequest](svc.Companies, handler.Filters{"active": handler.FilterBool})
	r.add(co, http.MethodGet, "/api/companies", companies.List)
	r.add(co, http.MethodGet, "/api/companies/:id", companies.Get)

	r.add(co, http.MethodGet, "/api/users", account.ListCompanyUsers)

	// --- Platform administration ---
	r.add(co, http.MethodGet, "/api/admin/users", account.ListCompanyUsers, superAdmin)
	r.add(co, http.MethodPost, "/api/admin/users", account.CreateCompanyUser, superAdmin)
	r.add(co, http.MethodPatch, "/api/admin/users/:id", account.UpdateCompanyUser, superAdmin)
	r.add(co, http.MethodGet, "/api/admin/companies", companies.List, superAdmin)
	r.add(co, http.MethodGet, "/api/admin/companies/:id", companies.Get, superAdmin)
	r.add(co, http.MethodPost, "/api/admin/companies", companies.Create, superAdmin)
	r.add(co, http.MethodPut, "/api/admin/companies/:id", companies.Update, superAdmin)
	r.add(co, http.MethodDelete, "/api/admin/companies/:id", companies.Delete, superAdmin)
	settings := handler.NewSettingsHandler(opts.LegalGrossLimitLbs, opts.DirectoryDriver, opts.WebhookWorkers)
	r.add(co, http.MethodGet, "/api/admin/settings", settings.Get, superAdmin)

	// --- City portal ---
	city := domain.TenantCity
	r.add(city, http.MethodGet, "/api/city-auth/me", account.Me)
	r.add(city, http.MethodGet, "/api/city-dashboard/stats", account.CityStats)
	r.add(city, http.MethodGet, "/api/city-users", account.ListCityUsers)
	permits := handler.NewResource[domain.Permit, handler.PermitRequest](svc.Permits, handler.Filters{
		"status":        handler.FilterString,
		"vehicle_plate": handler.FilterString,
	})
	r.crud(city, "/api/city-permits", permits.List, permits.Get, permits.Create, permits.Update, permits.Delete, cityAdmin)
	r.add(city, http.MethodGet, "/api/city-settings", account.CitySettings)
	r.add(city, http.MethodPut, "/api/city-settings", account.UpdateCitySettings, cityAdmin)

	// --- Scale integrations ---
	ingest := handler.NewIngestHandler(svc.Weights)
	e.POST("/api/ingest/weights", ingest.Weight,
		ingestLimiter(opts.IngestRate, opts.IngestBurst),
		middleware.APIKey(svc.KeyAuthn),
		middleware.RequireRoles(domain.RoleIntegration),
	)

	return e
}

// requestLogger feeds echo's request log into zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}

// ingestLimiter throttles ingestion per API key. Keys are identified by
// their public prefix; requests without a key share their client IP bucket.
func ingestLimiter(perSecond float64, burst int) echo.MiddlewareFunc {
	if perSecond <= 0 {
		perSecond = 10
	}
	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			if id := keyIdentifier(c.Request().Header.Get(middleware.APIKeyHeader)); id != "" {
				return id, nil
			}
			return "ip:" + c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, policy.InsufficientPrivileges).SetInternal(err)
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests").SetInternal(err)
		},
	})
}

// keyIdentifier returns "wb_<prefix>" of an API key, never the secret part.
func keyIdentifier(key string) string {
	scheme, rest, ok := strings.Cut(key, "_")
	if !ok {
		return ""
	}
	prefix, _, ok := strings.Cut(rest, "_")
	if !ok || prefix == "" {
		return ""
	}
	return scheme + "_" + prefix
}
