package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okabanov/matcha/backend/internal/domain/enums"
	"github.com/okabanov/matcha/backend/internal/domain/model"
	pgrepo "github.com/okabanov/matcha/backend/internal/repo/postgres"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrUnsupportedState = errors.New("unsupported review decision")
)

type ReviewStore interface {
	DiscardPending(ctx context.Context, tx pgx.Tx, profileID int64, attribute string, now time.Time) ([]model.ProfileReview, error)
	InsertPending(ctx context.Context, tx pgx.Tx, profileID int64, attribute, currentValue, proposedValue string, now time.Time) (model.ProfileReview, error)
	Decide(ctx context.Context, tx pgx.Tx, reviewID int64, status enums.ReviewStatus, reason *string, now time.Time) (model.ProfileReview, bool, error)
	GetByID(ctx context.Context, reviewID int64) (model.ProfileReview, error)
	InsertHistory(ctx context.Context, tx pgx.Tx, h model.ReviewHistory, now time.Time) error
	ListHistory(ctx context.Context, profileID int64, limit int) ([]model.ReviewHistory, error)
}

type ProfileStore interface {
	GetAttributeValue(ctx context.Context, tx pgx.Tx, profileID int64, attribute string) (string, error)
	ApplyReviewedAttribute(ctx context.Context, tx pgx.Tx, profileID int64, attribute, value string) error
}

// Notifier pushes a moderation card for a freshly submitted review. It runs
// after commit and is strictly best effort.
type Notifier interface {
	NotifyPendingReview(ctx context.Context, review model.ProfileReview) error
}

type DecideResult struct {
	Review model.ProfileReview
	// Affected is false when the review was already terminal; the caller
	// must treat that as already-resolved, not as success.
	Affected bool
}

type Service struct {
	withTx   func(context.Context, func(context.Context, pgx.Tx) error) error
	reviews  ReviewStore
	profiles ProfileStore
	notifier Notifier
	now      func() time.Time
}

type Dependencies struct {
	Pool     *pgxpool.Pool
	Reviews  ReviewStore
	Profiles ProfileStore
	Notifier Notifier
}

func NewService(deps Dependencies) *Service {
	s := &Service{
		reviews:  deps.Reviews,
		profiles: deps.Profiles,
		notifier: deps.Notifier,
		now:      time.Now,
	}
	if deps.Pool != nil {
		pool := deps.Pool
		s.withTx = func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
			return pgrepo.WithTx(ctx, pool, fn)
		}
	}
	return s
}

// Submit proposes a new value for a moderated attribute. Any pending review
// of the same (profile, attribute) is discarded with its own history row in
// the same transaction, so exactly one pending review survives concurrent
// submissions.
func (s *Service) Submit(ctx context.Context, profileID int64, attribute, proposedValue string) (model.ProfileReview, error) {
	if profileID <= 0 {
		return model.ProfileReview{}, ErrValidation
	}
	attribute = strings.ToLower(strings.TrimSpace(attribute))
	proposedValue = strings.TrimSpace(proposedValue)
	if attribute == "" || proposedValue == "" {
		return model.ProfileReview{}, ErrValidation
	}
	if s.withTx == nil || s.reviews == nil || s.profiles == nil {
		return model.ProfileReview{}, fmt.Errorf("review dependencies are not configured")
	}

	now := s.now().UTC()

	var created model.ProfileReview
	if err := s.withTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		currentValue, err := s.profiles.GetAttributeValue(txCtx, tx, profileID, attribute)
		if err != nil {
			if errors.Is(err, pgrepo.ErrProfileNotFound) || errors.Is(err, pgrepo.ErrUnknownAttribute) {
				return ErrValidation
			}
			return err
		}

		discarded, err := s.reviews.DiscardPending(txCtx, tx, profileID, attribute, now)
		if err != nil {
			return err
		}
		for _, d := range discarded {
			if err := s.reviews.InsertHistory(txCtx, tx, model.ReviewHistory{
				ReviewID:  d.ID,
				ProfileID: d.ProfileID,
				Attribute: d.Attribute,
				OldValue:  d.CurrentValue,
				NewValue:  d.ProposedValue,
				Status:    enums.ReviewStatusDiscarded,
			}, now); err != nil {
				return err
			}
		}

		created, err = s.reviews.InsertPending(txCtx, tx, profileID, attribute, currentValue, proposedValue, now)
		return err
	}); err != nil {
		return model.ProfileReview{}, err
	}

	if s.notifier != nil {
		// Best effort: a dropped moderation card never fails the submit.
		_ = s.notifier.NotifyPendingReview(ctx, created)
	}

	return created, nil
}

// Decide moves a pending review to approved or rejected. A review that is
// already terminal yields Affected=false with no writes. Approval applies
// the proposed value onto the live profile in the same transaction.
func (s *Service) Decide(ctx context.Context, reviewID int64, status string, rejectionReason *string) (DecideResult, error) {
	if reviewID <= 0 {
		return DecideResult{}, ErrValidation
	}

	target := enums.ReviewStatus(strings.ToLower(strings.TrimSpace(status)))
	if target != enums.ReviewStatusApproved && target != enums.ReviewStatusRejected {
		return DecideResult{}, ErrUnsupportedState
	}
	if rejectionReason != nil {
		trimmed := strings.TrimSpace(*rejectionReason)
		if trimmed == "" {
			rejectionReason = nil
		} else {
			rejectionReason = &trimmed
		}
	}
	if s.withTx == nil || s.reviews == nil || s.profiles == nil {
		return DecideResult{}, fmt.Errorf("review dependencies are not configured")
	}

	now := s.now().UTC()

	var result DecideResult
	if err := s.withTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		decided, affected, err := s.reviews.Decide(txCtx, tx, reviewID, target, rejectionReason, now)
		if err != nil {
			return err
		}
		if !affected {
			result = DecideResult{Affected: false}
			return nil
		}

		if err := s.reviews.InsertHistory(txCtx, tx, model.ReviewHistory{
			ReviewID:  decided.ID,
			ProfileID: decided.ProfileID,
			Attribute: decided.Attribute,
			OldValue:  decided.CurrentValue,
			NewValue:  decided.ProposedValue,
			Status:    target,
			Reason:    rejectionReason,
		}, now); err != nil {
			return err
		}

		if target == enums.ReviewStatusApproved {
			if err := s.profiles.ApplyReviewedAttribute(txCtx, tx, decided.ProfileID, decided.Attribute, decided.ProposedValue); err != nil {
				return err
			}
		}

		result = DecideResult{Review: decided, Affected: true}
		return nil
	}); err != nil {
		return DecideResult{}, err
	}

	if !result.Affected {
		// Distinguish "already terminal" from "no such review".
		if _, err := s.reviews.GetByID(ctx, reviewID); err != nil {
			return DecideResult{}, err
		}
	}

	return result, nil
}

func (s *Service) Get(ctx context.Context, reviewID int64) (model.ProfileReview, error) {
	if reviewID <= 0 {
		return model.ProfileReview{}, ErrValidation
	}
	if s.reviews == nil {
		return model.ProfileReview{}, fmt.Errorf("review dependencies are not configured")
	}
	return s.reviews.GetByID(ctx, reviewID)
}

func (s *Service) History(ctx context.Context, profileID int64, limit int) ([]model.ReviewHistory, error) {
	if profileID <= 0 || limit < 0 {
		return nil, ErrValidation
	}
	if s.reviews == nil {
		return nil, fmt.Errorf("review dependencies are not configured")
	}
	return s.reviews.ListHistory(ctx, profileID, limit)
}
