package candidates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okabanov/matcha/backend/internal/domain/enums"
	pgrepo "github.com/okabanov/matcha/backend/internal/repo/postgres"
)

type profileStoreStub struct {
	pref pgrepo.PreferenceContext
	err  error
}

func (s profileStoreStub) GetPreferenceContext(context.Context, int64) (pgrepo.PreferenceContext, error) {
	return s.pref, s.err
}

type candidateStoreStub struct {
	lastQuery pgrepo.CandidateQuery
	records   []pgrepo.CandidateRecord
	counts    map[int64]pgrepo.PairCounts
	recent    map[int64][]pgrepo.PairSwipe
}

func (s *candidateStoreStub) ListCandidates(_ context.Context, q pgrepo.CandidateQuery) ([]pgrepo.CandidateRecord, error) {
	s.lastQuery = q
	return s.records, nil
}

func (s *candidateStoreStub) GetPairCounts(_ context.Context, _ int64, _ []int64) (map[int64]pgrepo.PairCounts, error) {
	return s.counts, nil
}

func (s *candidateStoreStub) ListRecentPairSwipes(_ context.Context, _, candidateID int64, _ int) ([]pgrepo.PairSwipe, error) {
	return s.recent[candidateID], nil
}

func activePref(profileID int64) pgrepo.PreferenceContext {
	return pgrepo.PreferenceContext{
		ProfileID:        profileID,
		Gender:           "female",
		GenderPreference: []string{"male"},
		IsActive:         true,
	}
}

func TestGetCandidatesBuildsPageWithCountsAndRecentSwipes(t *testing.T) {
	now := time.Date(2026, time.January, 20, 10, 0, 0, 0, time.UTC)

	store := &candidateStoreStub{
		records: []pgrepo.CandidateRecord{
			{ProfileID: 2, DisplayName: "Bob", Gender: "male", GenderPreference: []string{"female"}},
		},
		counts: map[int64]pgrepo.PairCounts{
			2: {CandidateID: 2, KissesSent: 3, KissesReceived: 1, RugsReceived: 2},
		},
		recent: map[int64][]pgrepo.PairSwipe{
			2: {
				{ID: 11, ActorProfileID: 1, TargetProfileID: 2, Type: "kiss", CreatedAt: now},
			},
		},
	}
	svc := NewService(Dependencies{
		Profiles:   profileStoreStub{pref: activePref(1)},
		Candidates: store,
	}, Config{})

	page, err := svc.GetCandidates(context.Background(), 1, 0, 0, "", 0)
	if err != nil {
		t.Fatalf("get candidates: %v", err)
	}
	if len(page) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(page))
	}

	candidate := page[0]
	if candidate.KissesSent != 3 || candidate.KissesReceived != 1 || candidate.RugsReceived != 2 {
		t.Fatalf("unexpected pair counts: %+v", candidate)
	}
	if len(candidate.RecentSwipes) != 1 || candidate.RecentSwipes[0].Type != enums.SwipeTypeKiss {
		t.Fatalf("unexpected recent swipes: %+v", candidate.RecentSwipes)
	}
	if store.lastQuery.Limit != 20 {
		t.Fatalf("expected default page size 20, got %d", store.lastQuery.Limit)
	}
}

func TestGetCandidatesModeFlags(t *testing.T) {
	cases := []struct {
		mode string
		want pgrepo.CandidateQuery
	}{
		{mode: "", want: pgrepo.CandidateQuery{ExcludeSwiped: true, ExcludeInbound: true, ExcludeThread: true}},
		{mode: "browse", want: pgrepo.CandidateQuery{ExcludeSwiped: true, ExcludeInbound: true, ExcludeThread: true}},
		{mode: "matched", want: pgrepo.CandidateQuery{RequireMutualKiss: true, ExcludeThread: true}},
		{mode: "queue", want: pgrepo.CandidateQuery{RequireInboundKiss: true, ExcludeSwiped: true}},
		{mode: "chat", want: pgrepo.CandidateQuery{RequireThread: true}},
	}

	for _, tc := range cases {
		store := &candidateStoreStub{}
		svc := NewService(Dependencies{
			Profiles:   profileStoreStub{pref: activePref(1)},
			Candidates: store,
		}, Config{})

		if _, err := svc.GetCandidates(context.Background(), 1, 5, 0, tc.mode, 0); err != nil {
			t.Fatalf("mode %q: %v", tc.mode, err)
		}

		got := store.lastQuery
		if got.ExcludeSwiped != tc.want.ExcludeSwiped ||
			got.ExcludeInbound != tc.want.ExcludeInbound ||
			got.ExcludeThread != tc.want.ExcludeThread ||
			got.RequireInboundKiss != tc.want.RequireInboundKiss ||
			got.RequireMutualKiss != tc.want.RequireMutualKiss ||
			got.RequireThread != tc.want.RequireThread {
			t.Fatalf("mode %q: unexpected query flags %+v", tc.mode, got)
		}
	}
}

func TestGetCandidatesUnknownModeRejected(t *testing.T) {
	svc := NewService(Dependencies{
		Profiles:   profileStoreStub{pref: activePref(1)},
		Candidates: &candidateStoreStub{},
	}, Config{})

	_, err := svc.GetCandidates(context.Background(), 1, 0, 0, "friends", 0)
	if !errors.Is(err, ErrUnsupportedMode) {
		t.Fatalf("expected ErrUnsupportedMode, got %v", err)
	}
}

func TestGetCandidatesUnknownRequesterGetsEmptyPage(t *testing.T) {
	svc := NewService(Dependencies{
		Profiles:   profileStoreStub{err: pgrepo.ErrProfileNotFound},
		Candidates: &candidateStoreStub{},
	}, Config{})

	page, err := svc.GetCandidates(context.Background(), 99, 0, 0, "", 0)
	if err != nil {
		t.Fatalf("get candidates: %v", err)
	}
	if len(page) != 0 {
		t.Fatalf("expected empty page, got %d entries", len(page))
	}
}

func TestGetCandidatesInactiveRequesterGetsEmptyPage(t *testing.T) {
	pref := activePref(1)
	pref.IsActive = false

	store := &candidateStoreStub{
		records: []pgrepo.CandidateRecord{{ProfileID: 2}},
	}
	svc := NewService(Dependencies{
		Profiles:   profileStoreStub{pref: pref},
		Candidates: store,
	}, Config{})

	page, err := svc.GetCandidates(context.Background(), 1, 0, 0, "", 0)
	if err != nil {
		t.Fatalf("get candidates: %v", err)
	}
	if len(page) != 0 {
		t.Fatalf("expected empty page for inactive requester, got %d", len(page))
	}
}

func TestGetCandidatesClampsPageSize(t *testing.T) {
	store := &candidateStoreStub{}
	svc := NewService(Dependencies{
		Profiles:   profileStoreStub{pref: activePref(1)},
		Candidates: store,
	}, Config{DefaultPageSize: 20, MaxPageSize: 50})

	if _, err := svc.GetCandidates(context.Background(), 1, 500, 0, "", 0); err != nil {
		t.Fatalf("get candidates: %v", err)
	}
	if store.lastQuery.Limit != 50 {
		t.Fatalf("expected limit clamped to 50, got %d", store.lastQuery.Limit)
	}

	if _, err := svc.GetCandidates(context.Background(), 1, -1, 0, "", 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for negative limit, got %v", err)
	}
}
