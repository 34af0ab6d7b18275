package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okabanov/matcha/backend/internal/domain/model"
	"github.com/okabanov/matcha/backend/internal/pkg/validate"
	pgrepo "github.com/okabanov/matcha/backend/internal/repo/postgres"
)

var ErrValidation = errors.New("validation error")

type ReportStore interface {
	Create(ctx context.Context, reporterID, reportedID int64, reason string, now time.Time) (model.Report, error)
}

type ProfileStore interface {
	GetByID(ctx context.Context, profileID int64) (model.Profile, error)
}

type Service struct {
	reports  ReportStore
	profiles ProfileStore
	now      func() time.Time
}

type Dependencies struct {
	Reports  ReportStore
	Profiles ProfileStore
}

func NewService(deps Dependencies) *Service {
	return &Service{
		reports:  deps.Reports,
		profiles: deps.Profiles,
		now:      time.Now,
	}
}

// Create files a report. The reported profile drops out of the reporter's
// candidate pages and chat listings permanently.
func (s *Service) Create(ctx context.Context, reporterID, reportedID int64, reason string) (model.Report, error) {
	if reporterID <= 0 || reportedID <= 0 || reporterID == reportedID {
		return model.Report{}, ErrValidation
	}
	if !validate.Required(reason) {
		return model.Report{}, ErrValidation
	}
	if s.reports == nil || s.profiles == nil {
		return model.Report{}, fmt.Errorf("report dependencies are not configured")
	}

	if _, err := s.profiles.GetByID(ctx, reportedID); err != nil {
		if errors.Is(err, pgrepo.ErrProfileNotFound) {
			return model.Report{}, ErrValidation
		}
		return model.Report{}, fmt.Errorf("load reported profile: %w", err)
	}

	return s.reports.Create(ctx, reporterID, reportedID, reason, s.now().UTC())
}
