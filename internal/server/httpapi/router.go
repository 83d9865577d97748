package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/indiarose/sync-server/internal/logging"
	"github.com/indiarose/sync-server/internal/server/services"
)

// Services groups everything the HTTP surface calls into.
type Services struct {
	Users      *services.UserService
	Devices    *services.DeviceService
	Settings   *services.SettingsService
	Versions   *services.VersionService
	Collection *services.CollectionService
}

// NewRouter builds the /api/v1 route tree.
func NewRouter(svc Services, jwtSecret []byte, logger logging.Logger) http.Handler {
	rs := &responder{logger: logger}

	auth := &authMiddleware{
		users:     svc.Users,
		devices:   svc.Devices,
		jwtSecret: jwtSecret,
		rs:        rs,
	}

	users := &UserHandler{users: svc.Users, rs: rs}
	devices := &DeviceHandler{devices: svc.Devices, rs: rs}
	settings := &SettingsHandler{settings: svc.Settings, rs: rs}
	versions := &VersionHandler{versions: svc.Versions, rs: rs}
	collection := &CollectionHandler{collection: svc.Collection, rs: rs}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/alive", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/register", users.Register)
			r.Post("/login", users.Login)
		})

		r.Route("/devices", func(r chi.Router) {
			r.Use(auth.RequireUser)
			r.Post("/create", devices.Create)
			r.Post("/rename", devices.Rename)
			r.Get("/list", devices.List)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Use(auth.RequireDevice)
			r.Get("/last", settings.Last)
			r.Post("/update", settings.Update)
			r.Get("/get/{versionNumber}", settings.Get)
			r.Get("/all", settings.All)
		})

		r.Route("/versions", func(r chi.Router) {
			r.Use(auth.RequireDevice)
			r.Get("/all", versions.All)
			r.Get("/all/{fromVersionNumber}", versions.AllFrom)
			r.Post("/create", versions.Create)
			r.Post("/close/{versionNumber}", versions.Close)
		})

		r.Route("/indiagrams", func(r chi.Router) {
			r.Use(auth.RequireDevice)
			r.Get("/all", collection.All)
			r.Get("/all/{versionNumber}", collection.AllAt)
			r.Post("/indiagrams/update", collection.Update)
			r.Post("/indiagrams/updates", collection.Updates)
			r.Get("/indiagrams/{id}", collection.Get)
			r.Get("/indiagrams/{id}/{versionNumber}", collection.GetAt)
			r.Get("/images/{id}", collection.GetImage)
			r.Get("/images/{id}/{versionNumber}", collection.GetImage)
			r.Post("/images/{id}/{versionNumber}", collection.PostImage)
			r.Get("/sounds/{id}", collection.GetSound)
			r.Get("/sounds/{id}/{versionNumber}", collection.GetSound)
			r.Post("/sounds/{id}/{versionNumber}", collection.PostSound)
		})
	})

	return r
}

func requestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		})
	}
}
