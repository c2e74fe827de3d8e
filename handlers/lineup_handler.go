package handlers

import (
	"net/http"

	"github.com/sfxdeve/padel-fantasy/middleware"
	"github.com/sfxdeve/padel-fantasy/models"
	"github.com/sfxdeve/padel-fantasy/services"
)

type LineupHandler struct {
	lineupService services.LineupService
}

func NewLineupHandler(lineupService services.LineupService) *LineupHandler {
	return &LineupHandler{lineupService: lineupService}
}

type lineupSlotPayload struct {
	AthleteID  int             `json:"athlete_id"`
	Role       models.SlotRole `json:"role"`
	BenchOrder *int            `json:"bench_order,omitempty"`
}

func (h *LineupHandler) GetLineup(w http.ResponseWriter, r *http.Request) {
	teamID, err := urlParamInt(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	lineup, err := h.lineupService.GetLineup(r.Context(), teamID, tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"lineup": lineup}, nil)
}

func (h *LineupHandler) SubmitLineup(w http.ResponseWriter, r *http.Request) {
	teamID, err := urlParamInt(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var payload struct {
		Slots []lineupSlotPayload `json:"slots"`
	}
	if err := readJSON(w, r, &payload); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	slots := make([]models.LineupSlot, 0, len(payload.Slots))
	for _, slot := range payload.Slots {
		slots = append(slots, models.LineupSlot{
			AthleteID:  slot.AthleteID,
			Role:       slot.Role,
			BenchOrder: slot.BenchOrder,
		})
	}

	lineup, err := h.lineupService.SubmitLineup(r.Context(), claims.UserID, teamID, tournamentID, slots)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"lineup": lineup}, nil)
}
