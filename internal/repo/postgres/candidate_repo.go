package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CandidateRepo struct {
	pool *pgxpool.Pool
}

func NewCandidateRepo(pool *pgxpool.Pool) *CandidateRepo {
	return &CandidateRepo{pool: pool}
}

// CandidateQuery drives one page of the candidate feed. The mode flags are
// resolved by the service layer; the repo only combines exclusion
// subqueries.
type CandidateQuery struct {
	RequesterID      int64
	RequesterGender  string
	GenderPreference []string
	SkipProfileID    int64

	// ExcludeSwiped removes profiles the requester already swiped on.
	ExcludeSwiped bool
	// ExcludeInbound removes profiles that swiped on the requester.
	ExcludeInbound bool
	// RequireInboundKiss keeps only profiles that kissed the requester
	// without an answer yet (the "my turn" queue).
	RequireInboundKiss bool
	// RequireMutualKiss keeps only mutually kissed pairs.
	RequireMutualKiss bool
	// RequireThread keeps only profiles with an existing message thread;
	// ExcludeThread removes them instead.
	RequireThread bool
	ExcludeThread bool

	Limit  int
	Offset int
}

type CandidateRecord struct {
	ProfileID        int64
	DisplayName      string
	Bio              string
	Gender           string
	GenderPreference []string
	Photos           []string
	MatchingPrompt   string
	CreatedAt        time.Time
}

// PairCounts are the derived swipe totals between the requester and one
// candidate. Refunded swipes are never counted.
type PairCounts struct {
	CandidateID    int64
	KissesSent     int
	KissesReceived int
	RugsSent       int
	RugsReceived   int
}

type PairSwipe struct {
	ID              int64
	ActorProfileID  int64
	TargetProfileID int64
	Type            string
	IsRefunded      bool
	CreatedAt       time.Time
}

// ListCandidates returns one randomly ordered page. Ordering is independent
// across requests, so pages are not stable under concurrent writes; callers
// must not rely on it for exhaustive traversal.
func (r *CandidateRepo) ListCandidates(ctx context.Context, q CandidateQuery) ([]CandidateRecord, error) {
	if q.RequesterID <= 0 {
		return nil, fmt.Errorf("invalid requester id")
	}
	if q.Limit < 0 || q.Offset < 0 {
		return nil, fmt.Errorf("invalid candidate page bounds")
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
	if r.pool == nil {
		return []CandidateRecord{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT
	p.id,
	COALESCE(p.display_name, ''),
	COALESCE(p.bio, ''),
	COALESCE(p.gender, ''),
	COALESCE(p.gender_preference, '{}'),
	COALESCE(p.photos, '{}'),
	COALESCE(p.matching_prompt, ''),
	p.created_at
FROM profiles p
WHERE
	p.id <> $1
	AND ($2::bigint = 0 OR p.id <> $2)
	AND p.is_active = TRUE
	AND COALESCE(array_length(p.photos, 1), 0) > 0
	AND p.gender IS NOT NULL AND p.gender <> ''
	AND COALESCE(array_length(p.gender_preference, 1), 0) > 0
	AND p.gender = ANY($3::text[])
	AND $4 = ANY(p.gender_preference)
	AND NOT EXISTS (
		SELECT 1
		FROM reports rep
		WHERE rep.profile_id = $1
			AND rep.reported_profile_id = p.id
	)
	AND (
		$5::boolean = FALSE
		OR NOT EXISTS (
			SELECT 1
			FROM swipes s
			WHERE s.actor_profile_id = $1
				AND s.target_profile_id = p.id
		)
	)
	AND (
		$6::boolean = FALSE
		OR NOT EXISTS (
			SELECT 1
			FROM swipes s
			WHERE s.actor_profile_id = p.id
				AND s.target_profile_id = $1
		)
	)
	AND (
		$7::boolean = FALSE
		OR EXISTS (
			SELECT 1
			FROM swipes s
			WHERE s.actor_profile_id = p.id
				AND s.target_profile_id = $1
				AND s.swipe_type = 'kiss'
		)
	)
	AND (
		$8::boolean = FALSE
		OR (
			EXISTS (
				SELECT 1
				FROM swipes s
				WHERE s.actor_profile_id = $1
					AND s.target_profile_id = p.id
					AND s.swipe_type = 'kiss'
			)
			AND EXISTS (
				SELECT 1
				FROM swipes s
				WHERE s.actor_profile_id = p.id
					AND s.target_profile_id = $1
					AND s.swipe_type = 'kiss'
			)
		)
	)
	AND (
		$9::boolean = FALSE
		OR EXISTS (
			SELECT 1
			FROM direct_messages dm
			WHERE (dm.sender_id = $1 AND dm.recipient_id = p.id)
				OR (dm.sender_id = p.id AND dm.recipient_id = $1)
		)
	)
	AND (
		$10::boolean = FALSE
		OR NOT EXISTS (
			SELECT 1
			FROM direct_messages dm
			WHERE (dm.sender_id = $1 AND dm.recipient_id = p.id)
				OR (dm.sender_id = p.id AND dm.recipient_id = $1)
		)
	)
ORDER BY RANDOM()
LIMIT $11 OFFSET $12
`,
		q.RequesterID,                          // $1
		q.SkipProfileID,                        // $2
		normalizeGenderSet(q.GenderPreference), // $3
		normalizeGender(q.RequesterGender),     // $4
		q.ExcludeSwiped,                        // $5
		q.ExcludeInbound,                       // $6
		q.RequireInboundKiss,                   // $7
		q.RequireMutualKiss,                    // $8
		q.RequireThread,                        // $9
		q.ExcludeThread,                        // $10
		q.Limit,                                // $11
		q.Offset,                               // $12
	)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	items := make([]CandidateRecord, 0, q.Limit)
	for rows.Next() {
		var item CandidateRecord
		if err := rows.Scan(
			&item.ProfileID,
			&item.DisplayName,
			&item.Bio,
			&item.Gender,
			&item.GenderPreference,
			&item.Photos,
			&item.MatchingPrompt,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		items = append(items, item)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate candidates: %w", rows.Err())
	}

	return items, nil
}

// GetPairCounts computes kiss/rug totals between the requester and each
// candidate id in one pass. Refunded swipes used their turn but never count.
func (r *CandidateRepo) GetPairCounts(ctx context.Context, requesterID int64, candidateIDs []int64) (map[int64]PairCounts, error) {
	if requesterID <= 0 {
		return nil, fmt.Errorf("invalid requester id")
	}
	if len(candidateIDs) == 0 {
		return map[int64]PairCounts{}, nil
	}
	if r.pool == nil {
		return map[int64]PairCounts{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT
	CASE WHEN s.actor_profile_id = $1 THEN s.target_profile_id ELSE s.actor_profile_id END AS candidate_id,
	COUNT(*) FILTER (WHERE s.actor_profile_id = $1 AND s.swipe_type = 'kiss')::int,
	COUNT(*) FILTER (WHERE s.target_profile_id = $1 AND s.swipe_type = 'kiss')::int,
	COUNT(*) FILTER (WHERE s.actor_profile_id = $1 AND s.swipe_type = 'rug')::int,
	COUNT(*) FILTER (WHERE s.target_profile_id = $1 AND s.swipe_type = 'rug')::int
FROM swipes s
WHERE
	s.is_refunded IS NOT TRUE
	AND (
		(s.actor_profile_id = $1 AND s.target_profile_id = ANY($2::bigint[]))
		OR (s.target_profile_id = $1 AND s.actor_profile_id = ANY($2::bigint[]))
	)
GROUP BY candidate_id
`, requesterID, candidateIDs)
	if err != nil {
		return nil, fmt.Errorf("get pair counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]PairCounts, len(candidateIDs))
	for rows.Next() {
		var c PairCounts
		if err := rows.Scan(
			&c.CandidateID,
			&c.KissesSent,
			&c.KissesReceived,
			&c.RugsSent,
			&c.RugsReceived,
		); err != nil {
			return nil, fmt.Errorf("scan pair counts: %w", err)
		}
		counts[c.CandidateID] = c
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate pair counts: %w", rows.Err())
	}

	return counts, nil
}

// ListRecentPairSwipes returns the newest swipe events between two
// profiles, newest first. Refunded swipes are included; they still happened.
func (r *CandidateRepo) ListRecentPairSwipes(ctx context.Context, requesterID, candidateID int64, limit int) ([]PairSwipe, error) {
	if requesterID <= 0 || candidateID <= 0 {
		return nil, fmt.Errorf("invalid pair swipe payload")
	}
	if limit <= 0 {
		limit = 5
	}
	if r.pool == nil {
		return []PairSwipe{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, actor_profile_id, target_profile_id, swipe_type, is_refunded, created_at
FROM swipes
WHERE
	(actor_profile_id = $1 AND target_profile_id = $2)
	OR (actor_profile_id = $2 AND target_profile_id = $1)
ORDER BY created_at DESC, id DESC
LIMIT $3
`, requesterID, candidateID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent pair swipes: %w", err)
	}
	defer rows.Close()

	items := make([]PairSwipe, 0, limit)
	for rows.Next() {
		var item PairSwipe
		if err := rows.Scan(
			&item.ID,
			&item.ActorProfileID,
			&item.TargetProfileID,
			&item.Type,
			&item.IsRefunded,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan pair swipe: %w", err)
		}
		items = append(items, item)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate pair swipes: %w", rows.Err())
	}

	return items, nil
}
