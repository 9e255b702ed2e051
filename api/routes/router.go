package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/bazary-backend/api/controllers"
	"github.com/angelmondragon/bazary-backend/api/middleware"
	"github.com/angelmondragon/bazary-backend/api/responses"
	"github.com/angelmondragon/bazary-backend/internal/catalog"
	"github.com/angelmondragon/bazary-backend/internal/drafts"
	"github.com/angelmondragon/bazary-backend/internal/generative"
	"github.com/angelmondragon/bazary-backend/internal/orders"
	"github.com/angelmondragon/bazary-backend/internal/publishing"
	"github.com/angelmondragon/bazary-backend/internal/settings"
	"github.com/angelmondragon/bazary-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/bazary-backend/pkg/errors"
	"github.com/angelmondragon/bazary-backend/pkg/logger"
)

type registrationGate interface {
	IsRegistered() bool
}

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Dependencies are the services the router exposes. Limiter and Gatherer are optional.
type Dependencies struct {
	Gate       registrationGate
	Catalog    catalog.Service
	Orders     orders.Service
	Settings   settings.Service
	Publishing publishing.Service
	Gateway    generative.Gateway
	Drafts     controllers.DraftFlow
	Limiter    rateLimiter
	Pingers    map[string]controllers.Pinger
	Gatherer   prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeMethodNotAllowed, "method not allowed"))
	})

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	uploadLimit := int64(cfg.Media.MaxUploadMB) << 20
	limiter := deps.Limiter
	aiPolicy := middleware.NewRateLimitPolicy("ai", time.Minute, cfg.AI.RateLimitPerMin)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/settings", func(r chi.Router) {
			r.Get("/shop", controllers.SettingsGetShop(deps.Settings))
			r.Put("/shop", controllers.SettingsUpdateShop(deps.Settings, logg))
			r.Get("/user", controllers.SettingsGetUser(deps.Settings))
			r.Put("/user", controllers.SettingsUpdateUser(deps.Settings, logg))
			r.Post("/register", controllers.SettingsRegister(deps.Settings, logg))
			r.Post("/register/telegram", controllers.SettingsRegisterTelegram(deps.Settings, logg))
			r.Get("/language", controllers.SettingsGetLanguage(deps.Settings))
			r.Put("/language", controllers.SettingsSelectLanguage(deps.Settings, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRegistration(deps.Gate, logg))

			r.Get("/dashboard", controllers.DashboardStats(deps.Catalog))
			r.Get("/orders", controllers.OrdersList(deps.Orders, logg))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ProductsList(deps.Catalog, logg))
				r.Get("/{productId}", controllers.ProductsGet(deps.Catalog, logg))
				r.Patch("/{productId}", controllers.ProductsUpdate(deps.Catalog, logg))
				r.Delete("/{productId}", controllers.ProductsDelete(deps.Catalog, logg))
				r.Post("/{productId}/archive", controllers.ProductsArchive(deps.Catalog, logg))
				r.Post("/{productId}/restore", controllers.ProductsRestore(deps.Catalog, logg))
				r.Post("/{productId}/publish", controllers.ProductsBroadcast(deps.Publishing, logg))
			})

			r.Route("/drafts", func(r chi.Router) {
				r.Get("/", controllers.DraftsSnapshot(deps.Drafts))
				r.Get("/events", controllers.DraftsEvents(deps.Drafts, logg))
				r.With(middleware.MaxBody(uploadLimit), middleware.RateLimit(aiPolicy, limiter, logg)).
					Post("/analyze", controllers.DraftsAnalyze(deps.Drafts, cfg.Media.MaxUploadFiles, logg))
				r.Patch("/{draftId}", controllers.DraftsEdit(deps.Drafts, logg))
				r.Group(func(r chi.Router) {
					r.Use(middleware.RateLimit(aiPolicy, limiter, logg))
					r.Post("/{draftId}/enhance", controllers.DraftsAction(deps.Drafts, drafts.ActionEnhance, logg))
					r.Post("/{draftId}/video", controllers.DraftsAction(deps.Drafts, drafts.ActionVideo, logg))
					r.Post("/{draftId}/voice", controllers.DraftsAction(deps.Drafts, drafts.ActionVoice, logg))
				})
				r.Post("/discard", controllers.DraftsDiscard(deps.Drafts))
				r.Post("/commit", controllers.DraftsCommit(deps.Drafts, logg))
			})

			r.Route("/ai", func(r chi.Router) {
				r.Use(middleware.MaxBody(uploadLimit), middleware.RateLimit(aiPolicy, limiter, logg))
				r.Post("/analyze-product-images", controllers.AIAnalyzeImages(deps.Gateway, logg))
				r.Post("/enhance-image", controllers.AIEnhanceImage(deps.Gateway, logg))
				r.Post("/generate-product-video", controllers.AIGenerateVideo(deps.Gateway, logg))
				r.Post("/voice-pitch", controllers.AIVoicePitch(deps.Gateway, logg))
				r.Post("/market-research", controllers.AIMarketResearch(deps.Gateway, logg))
			})
		})
	})

	return r
}
