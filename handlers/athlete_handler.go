package handlers

import (
	"errors"
	"net/http"

	"github.com/sfxdeve/padel-fantasy/services"
)

const maxPhotoSize = 5 << 20 // 5MB

type AthleteHandler struct {
	athleteService services.AthleteService
}

func NewAthleteHandler(athleteService services.AthleteService) *AthleteHandler {
	return &AthleteHandler{athleteService: athleteService}
}

func (h *AthleteHandler) GetAthlete(w http.ResponseWriter, r *http.Request) {
	athleteID, err := urlParamInt(r, "athleteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	athlete, err := h.athleteService.GetAthlete(r.Context(), athleteID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"athlete": athlete}, nil)
}

func (h *AthleteHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	athleteID, err := urlParamInt(r, "athleteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		badRequestResponse(w, r, errors.New("could not parse multipart form, check the file size"))
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		badRequestResponse(w, r, errors.New("photo file is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	athlete, err := h.athleteService.UploadPhoto(r.Context(), athleteID, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"athlete": athlete}, nil)
}
