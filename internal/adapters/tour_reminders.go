package adapters

import (
	"context"
	"errors"
	"strings"
	"time"

	franchisedomain "dojoflow_backend/internal/franchises/domain"
	"dojoflow_backend/internal/notification"
	tourrepo "dojoflow_backend/internal/tours/repository"
	"dojoflow_backend/platform/logger"

	"github.com/google/uuid"
)

// ReminderContextReader loads a tour with its franchise and guardian.
type ReminderContextReader interface {
	GetReminderContext(ctx context.Context, tourID uuid.UUID) (tourrepo.ReminderContext, error)
}

// TourReminderReader resolves reminder details for the notification module.
type TourReminderReader struct {
	tours      ReminderContextReader
	checkInURL func(franchiseSlug string, tourID uuid.UUID) string
	fallback   *time.Location
	log        *logger.Logger
}

func NewTourReminderReader(tours ReminderContextReader, checkInURL func(string, uuid.UUID) string, fallback *time.Location, log *logger.Logger) *TourReminderReader {
	if fallback == nil {
		fallback = time.UTC
	}
	return &TourReminderReader{tours: tours, checkInURL: checkInURL, fallback: fallback, log: log}
}

func (a *TourReminderReader) GetTourReminder(ctx context.Context, tourID uuid.UUID) (*notification.TourReminderDetails, error) {
	rc, err := a.tours.GetReminderContext(ctx, tourID)
	if errors.Is(err, tourrepo.ErrNotFound) {
		return nil, notification.ErrReminderNotFound
	}
	if err != nil {
		return nil, err
	}

	settings, err := franchisedomain.ParseSettings(rc.FranchiseSettings)
	if err != nil {
		a.log.Warn("franchise settings unreadable, using defaults", "franchiseId", rc.FranchiseID, "error", err)
	}

	details := &notification.TourReminderDetails{
		TourID:        rc.ID,
		FranchiseID:   rc.FranchiseID,
		Status:        rc.Status,
		ScheduledAt:   rc.ScheduledAt.In(settings.Location(a.fallback)),
		FranchiseName: rc.FranchiseName,
		GuardianName:  strings.TrimSpace(deref(rc.GuardianFirstName)),
		Email:         strings.TrimSpace(deref(rc.GuardianEmail)),
		Phone:         strings.TrimSpace(deref(rc.GuardianPhone)),
	}
	if a.checkInURL != nil {
		details.CheckInURL = a.checkInURL(rc.FranchiseSlug, rc.ID)
	}
	return details, nil
}

// Compile-time check.
var _ notification.ReminderReader = (*TourReminderReader)(nil)
