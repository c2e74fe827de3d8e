package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sfxdeve/padel-fantasy/handlers"
	"github.com/sfxdeve/padel-fantasy/middleware"
	"github.com/sfxdeve/padel-fantasy/models"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Match     *handlers.MatchHandler
	Standings *handlers.StandingsHandler
	Lineup    *handlers.LineupHandler
	Athlete   *handlers.AthleteHandler
	WebSocket *handlers.WebSocketHandler
}

func InitRoutes(h Handlers, jwtSecret string) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)
	adminOnly := middleware.Authorize(models.RoleAdmin)

	router.Post("/auth/register", h.Auth.Register)
	router.Post("/auth/login", h.Auth.Login)

	router.Route("/athletes", func(r chi.Router) {
		r.Get("/{athleteID}", h.Athlete.GetAthlete)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)
			r.Post("/{athleteID}/photo", h.Athlete.UploadPhoto)
		})
	})

	router.Route("/tournaments/{tournamentID}", func(r chi.Router) {
		r.Get("/matches", h.Match.ListByTournament)
	})

	router.Route("/matches/{matchID}", func(r chi.Router) {
		r.Get("/", h.Match.GetMatch)
		r.Get("/points", h.Match.ListMatchPoints)
		r.Get("/corrections", h.Match.ListCorrections)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)
			r.Post("/result", h.Match.SubmitResult)
			r.Post("/corrections", h.Match.CorrectResult)
		})
	})

	router.Route("/leagues/{leagueID}", func(r chi.Router) {
		r.Get("/standings/{tournamentID}", h.Standings.GetLeagueTable)
	})

	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/teams/{teamID}/lineups/{tournamentID}", h.Lineup.GetLineup)
		r.Put("/teams/{teamID}/lineups/{tournamentID}", h.Lineup.SubmitLineup)
	})

	router.Get("/ws/leagues/{leagueID}", h.WebSocket.ServeLeague)

	return router
}
