package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"impacthub/internal/http/handlers"
	"impacthub/internal/middleware"
)

type Options struct {
	JWTSecret         string
	CORSOrigins       []string
	RateLimitPerMin   int
	// TrustProxyHeaders lets chi's RealIP rewrite RemoteAddr from forwarding
	// headers. Enable it only behind a proxy that overwrites them.
	TrustProxyHeaders bool
	CountryLookup     middleware.CountryLookup
	StaticDir         string
	Logger            zerolog.Logger
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if opts.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(
		chimw.Recoverer,
		chimw.StripSlashes,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.CORSOrigins),
		middleware.Geo(opts.CountryLookup),
	)

	requireAuth := middleware.AuthJWT(opts.JWTSecret)
	optionalAuth := middleware.OptionalAuthJWT(opts.JWTSecret)

	// Health & docs
	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/readyz", app.Ready)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)

	// Auth
	r.Post("/register", app.Register)
	r.Post("/login", app.Login)
	r.Post("/token/refresh", app.TokenRefresh)
	r.Post("/token/verify", app.TokenVerify)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/me", app.Me)
		r.Get("/user/stats", app.UserStats)

		r.Post("/donations/create_order", app.DonationsCreateOrder)
		r.Post("/donations/verify_payment", app.DonationsVerifyPayment)
		r.Get("/donations/my", app.DonationsMine)
	})

	r.Route("/projects", func(r chi.Router) {
		r.With(optionalAuth).Get("/", app.ProjectsList)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", app.ProjectsCreate)
			r.Get("/user", app.ProjectsMine)
			r.Get("/supported", app.ProjectsSupported)
			r.Post("/images", app.UploadImage)
		})

		r.Route("/{id}", func(r chi.Router) {
			r.With(optionalAuth).Get("/", app.ProjectsDetail)
			r.Get("/comments", app.CommentsList)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Put("/", app.ProjectsUpdate)
				r.Patch("/", app.ProjectsUpdate)
				r.Delete("/", app.ProjectsDelete)
				r.Post("/support", app.ProjectsSupport)
				r.Post("/comments", app.CommentsCreate)
				r.Post("/comment", app.CommentsCreate)
			})
		})
	})

	// Debug classifier endpoint
	limit := opts.RateLimitPerMin
	if limit <= 0 {
		limit = 30
	}
	r.With(middleware.RateLimit(limit, time.Minute)).Post("/predict_impact", app.PredictImpact)

	if opts.StaticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	return r
}
