package http

import (
	"net/http"
	"time"

	httpmw "github.com/cwrk-planet/voice-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)

	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-User-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.AuthMiddleware)
		pr.Use(middlewareChi.Timeout(30 * time.Second))

		pr.Route("/voice", func(v chi.Router) {
			v.Get("/rooms", h.ListRooms)
			v.Post("/clean", h.Clean)

			v.Route("/rooms/{id}", func(rr chi.Router) {
				rr.Get("/owner", h.Owner)
				rr.Post("/rename", h.Rename)
				rr.Post("/limit", h.SetLimit)
				rr.Post("/lock", h.Lock())
				rr.Post("/unlock", h.Unlock())
				rr.Post("/hide", h.Hide())
				rr.Post("/reveal", h.Reveal())
				rr.Post("/kick", h.Kick())
				rr.Post("/ban", h.Ban())
				rr.Post("/unban", h.Unban())
				rr.Post("/transfer", h.Transfer())
				rr.Post("/claim", h.Claim)
			})
		})
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
