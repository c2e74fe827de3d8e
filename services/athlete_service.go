package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/sfxdeve/padel-fantasy/models"
	"github.com/sfxdeve/padel-fantasy/repositories"
	"github.com/sfxdeve/padel-fantasy/storage"
)

type AthleteService interface {
	GetAthlete(ctx context.Context, id int) (*models.Athlete, error)

	// UploadPhoto stores the athlete's photo and replaces the previous one.
	UploadPhoto(ctx context.Context, athleteID int, contentType string, reader io.Reader) (*models.Athlete, error)
}

type athleteService struct {
	athleteRepo repositories.AthleteRepository
	uploader    storage.FileUploader
	logger      *slog.Logger
}

func NewAthleteService(athleteRepo repositories.AthleteRepository, uploader storage.FileUploader, logger *slog.Logger) AthleteService {
	return &athleteService{
		athleteRepo: athleteRepo,
		uploader:    uploader,
		logger:      logger,
	}
}

func (s *athleteService) GetAthlete(ctx context.Context, id int) (*models.Athlete, error) {
	athlete, err := s.athleteRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrAthleteNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.populatePhotoURL(athlete)
	return athlete, nil
}

func (s *athleteService) UploadPhoto(ctx context.Context, athleteID int, contentType string, reader io.Reader) (*models.Athlete, error) {
	if s.uploader == nil {
		return nil, fmt.Errorf("%w: photo storage is not configured", ErrValidationFailed)
	}

	athlete, err := s.athleteRepo.GetByID(ctx, nil, athleteID)
	if err != nil {
		if errors.Is(err, repositories.ErrAthleteNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	ext, err := extensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	key := fmt.Sprintf("athletes/%d/%s%s", athleteID, uuid.NewString(), ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, reader); err != nil {
		return nil, fmt.Errorf("failed to upload athlete photo: %w", err)
	}

	oldKey := athlete.PhotoKey
	if err := s.athleteRepo.UpdatePhotoKey(ctx, athleteID, &key); err != nil {
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to clean up orphaned photo", slog.String("key", key), slog.String("error", delErr.Error()))
		}
		return nil, err
	}

	if oldKey != nil && *oldKey != "" {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.Warn("failed to delete previous athlete photo", slog.String("key", *oldKey), slog.String("error", err.Error()))
		}
	}

	athlete.PhotoKey = &key
	s.populatePhotoURL(athlete)
	return athlete, nil
}

func (s *athleteService) populatePhotoURL(athlete *models.Athlete) {
	if athlete == nil || athlete.PhotoKey == nil || *athlete.PhotoKey == "" || s.uploader == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*athlete.PhotoKey); url != "" {
		athlete.PhotoURL = &url
	}
}

func extensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/webp":
		return ".webp", nil
	default:
		parts := strings.Split(contentType, "/")
		if len(parts) == 2 && parts[0] == "image" && parts[1] != "" {
			return "." + strings.Split(parts[1], "+")[0], nil
		}
		return "", fmt.Errorf("could not determine file extension from content type %q", contentType)
	}
}
