package candidates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okabanov/matcha/backend/internal/domain/enums"
	pgrepo "github.com/okabanov/matcha/backend/internal/repo/postgres"
)

const (
	ModeBrowse  = "browse"
	ModeMatched = "matched"
	ModeQueue   = "queue"
	ModeChat    = "chat"
)

const recentPairSwipes = 5

var (
	ErrValidation      = errors.New("validation error")
	ErrUnsupportedMode = errors.New("unsupported candidate mode")
)

type ProfileStore interface {
	GetPreferenceContext(ctx context.Context, profileID int64) (pgrepo.PreferenceContext, error)
}

type CandidateStore interface {
	ListCandidates(ctx context.Context, q pgrepo.CandidateQuery) ([]pgrepo.CandidateRecord, error)
	GetPairCounts(ctx context.Context, requesterID int64, candidateIDs []int64) (map[int64]pgrepo.PairCounts, error)
	ListRecentPairSwipes(ctx context.Context, requesterID, candidateID int64, limit int) ([]pgrepo.PairSwipe, error)
}

type Config struct {
	DefaultPageSize int
	MaxPageSize     int
}

type PairSwipe struct {
	SwipeID         int64           `json:"swipe_id"`
	ActorProfileID  int64           `json:"actor_profile_id"`
	TargetProfileID int64           `json:"target_profile_id"`
	Type            enums.SwipeType `json:"swipe_type"`
	IsRefunded      bool            `json:"is_refunded"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Candidate is one page entry: the profile plus the pair's derived swipe
// totals and its most recent swipes, newest first.
type Candidate struct {
	ProfileID        int64       `json:"profile_id"`
	DisplayName      string      `json:"display_name"`
	Bio              string      `json:"bio"`
	Gender           string      `json:"gender"`
	GenderPreference []string    `json:"gender_preference"`
	Photos           []string    `json:"photos"`
	MatchingPrompt   string      `json:"matching_prompt"`
	KissesSent       int         `json:"kisses_sent"`
	KissesReceived   int         `json:"kisses_received"`
	RugsSent         int         `json:"rugs_sent"`
	RugsReceived     int         `json:"rugs_received"`
	RecentSwipes     []PairSwipe `json:"recent_swipes"`
}

type Service struct {
	profiles   ProfileStore
	candidates CandidateStore
	cfg        Config
}

type Dependencies struct {
	Profiles   ProfileStore
	Candidates CandidateStore
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 20
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 50
	}

	return &Service{
		profiles:   deps.Profiles,
		candidates: deps.Candidates,
		cfg:        cfg,
	}
}

// GetCandidates returns one randomly ordered candidate page for the mode.
// Ordering is independent across requests and is not suitable for
// exhaustive traversal. An unknown requester gets an empty page.
func (s *Service) GetCandidates(ctx context.Context, requesterID int64, limit, offset int, mode string, skipProfileID int64) ([]Candidate, error) {
	if requesterID <= 0 {
		return nil, ErrValidation
	}
	if limit < 0 || offset < 0 {
		return nil, ErrValidation
	}
	if s.profiles == nil || s.candidates == nil {
		return nil, fmt.Errorf("candidate dependencies are not configured")
	}

	if limit == 0 {
		limit = s.cfg.DefaultPageSize
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}

	query, err := queryForMode(mode)
	if err != nil {
		return nil, err
	}

	pref, err := s.profiles.GetPreferenceContext(ctx, requesterID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrProfileNotFound) {
			return []Candidate{}, nil
		}
		return nil, fmt.Errorf("load requester preferences: %w", err)
	}
	if !pref.IsActive || pref.Gender == "" || len(pref.GenderPreference) == 0 {
		return []Candidate{}, nil
	}

	query.RequesterID = requesterID
	query.RequesterGender = pref.Gender
	query.GenderPreference = pref.GenderPreference
	query.SkipProfileID = skipProfileID
	query.Limit = limit
	query.Offset = offset

	records, err := s.candidates.ListCandidates(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	if len(records) == 0 {
		return []Candidate{}, nil
	}

	ids := make([]int64, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ProfileID)
	}

	counts, err := s.candidates.GetPairCounts(ctx, requesterID, ids)
	if err != nil {
		return nil, fmt.Errorf("load pair counts: %w", err)
	}

	page := make([]Candidate, 0, len(records))
	for _, rec := range records {
		recent, err := s.candidates.ListRecentPairSwipes(ctx, requesterID, rec.ProfileID, recentPairSwipes)
		if err != nil {
			return nil, fmt.Errorf("load recent pair swipes: %w", err)
		}

		candidate := Candidate{
			ProfileID:        rec.ProfileID,
			DisplayName:      rec.DisplayName,
			Bio:              rec.Bio,
			Gender:           rec.Gender,
			GenderPreference: rec.GenderPreference,
			Photos:           rec.Photos,
			MatchingPrompt:   rec.MatchingPrompt,
			RecentSwipes:     make([]PairSwipe, 0, len(recent)),
		}
		if c, ok := counts[rec.ProfileID]; ok {
			candidate.KissesSent = c.KissesSent
			candidate.KissesReceived = c.KissesReceived
			candidate.RugsSent = c.RugsSent
			candidate.RugsReceived = c.RugsReceived
		}
		for _, sw := range recent {
			candidate.RecentSwipes = append(candidate.RecentSwipes, PairSwipe{
				SwipeID:         sw.ID,
				ActorProfileID:  sw.ActorProfileID,
				TargetProfileID: sw.TargetProfileID,
				Type:            enums.SwipeType(sw.Type),
				IsRefunded:      sw.IsRefunded,
				CreatedAt:       sw.CreatedAt,
			})
		}

		page = append(page, candidate)
	}

	return page, nil
}

func queryForMode(mode string) (pgrepo.CandidateQuery, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeBrowse:
		// Fresh discovery: nobody the requester decided on, nobody
		// waiting in the queue, nobody already in a conversation.
		return pgrepo.CandidateQuery{
			ExcludeSwiped:  true,
			ExcludeInbound: true,
			ExcludeThread:  true,
		}, nil
	case ModeMatched:
		// Mutual kisses that have not turned into a conversation yet.
		return pgrepo.CandidateQuery{
			RequireMutualKiss: true,
			ExcludeThread:     true,
		}, nil
	case ModeQueue:
		// They kissed the requester, the requester has not answered.
		return pgrepo.CandidateQuery{
			RequireInboundKiss: true,
			ExcludeSwiped:      true,
		}, nil
	case ModeChat:
		return pgrepo.CandidateQuery{
			RequireThread: true,
		}, nil
	default:
		return pgrepo.CandidateQuery{}, ErrUnsupportedMode
	}
}
