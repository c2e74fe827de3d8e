package handlers

import (
	"net/http"

	"github.com/sfxdeve/padel-fantasy/middleware"
	"github.com/sfxdeve/padel-fantasy/models"
	"github.com/sfxdeve/padel-fantasy/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

type resultPayload struct {
	Sets       []models.SetScore `json:"sets"`
	Retired    bool              `json:"retired"`
	WinnerSide *string           `json:"winner_side,omitempty"`
}

func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil)
}

func (h *MatchHandler) ListByTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var phase *models.MatchPhase
	if raw := r.URL.Query().Get("phase"); raw != "" {
		p := models.MatchPhase(raw)
		phase = &p
	}

	matches, err := h.matchService.ListByTournament(r.Context(), tournamentID, phase)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil)
}

func (h *MatchHandler) ListCorrections(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	corrections, err := h.matchService.ListCorrections(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"corrections": corrections}, nil)
}

func (h *MatchHandler) ListMatchPoints(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	points, err := h.matchService.ListMatchPoints(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"points": points}, nil)
}

func (h *MatchHandler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	h.recordResult(w, r, false)
}

func (h *MatchHandler) CorrectResult(w http.ResponseWriter, r *http.Request) {
	h.recordResult(w, r, true)
}

func (h *MatchHandler) recordResult(w http.ResponseWriter, r *http.Request, correction bool) {
	matchID, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var payload resultPayload
	if err := readJSON(w, r, &payload); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	input := services.SubmitResultInput{
		Sets:       payload.Sets,
		Retired:    payload.Retired,
		WinnerSide: payload.WinnerSide,
		ActorID:    claims.UserID,
	}

	var match *models.Match
	if correction {
		match, err = h.matchService.CorrectResult(r.Context(), matchID, input)
	} else {
		match, err = h.matchService.SubmitResult(r.Context(), matchID, input)
	}
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil)
}
