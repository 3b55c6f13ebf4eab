package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func NewHandler(eventHandler *EventHandler, pollHandler *PollHandler, voteHandler *VoteHandler, jwtSecret []byte, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Use(Authenticate(jwtSecret))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("welcome"))
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/{id}", eventHandler.GetEvent)

			r.Group(func(r chi.Router) {
				r.Use(RequireUser)
				r.Post("/", eventHandler.CreateEvent)
				r.Patch("/{id}", eventHandler.EditEvent)
				r.Delete("/{id}", eventHandler.DeleteEvent)
				r.Post("/{id}/votes", eventHandler.Vote)
				r.Delete("/{id}/votes/{axis}", eventHandler.Unvote)
				r.Put("/{id}/rsvp", eventHandler.RSVP)
				r.Get("/{id}/my-vote", eventHandler.MyVote)
				r.Get("/{id}/my-rsvp", eventHandler.MyRSVP)
				r.Post("/{id}/voting", eventHandler.StartVoting)
				r.Post("/{id}/finalize", eventHandler.Finalize)
				r.Post("/{id}/cancel", eventHandler.Cancel)
			})
		})

		r.Route("/polls", func(r chi.Router) {
			r.Get("/", pollHandler.ListPolls)
			r.Post("/", pollHandler.CreatePoll)
			r.Get("/{id}", pollHandler.GetPoll)

			r.Group(func(r chi.Router) {
				r.Use(RequireUser)
				r.Delete("/{id}", pollHandler.DeletePoll)
				r.Post("/{id}/close", pollHandler.ClosePoll)
				r.Post("/{id}/votes", voteHandler.VoteOnPoll)
				r.Delete("/{id}/votes", voteHandler.Unvote)
				r.Get("/{id}/my-vote", voteHandler.MyVote)
			})
		})
	})

	return otelhttp.NewHandler(r, "groupdecision")
}
