package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okabanov/matcha/backend/internal/domain/model"
)

type ReportRepo struct {
	pool *pgxpool.Pool
}

func NewReportRepo(pool *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

// Create records a report. A repeated report of the same profile is a
// no-op upsert; the exclusion it causes is permanent either way.
func (r *ReportRepo) Create(ctx context.Context, reporterID, reportedID int64, reason string, now time.Time) (model.Report, error) {
	if reporterID <= 0 || reportedID <= 0 || reporterID == reportedID {
		return model.Report{}, fmt.Errorf("invalid report payload")
	}
	if strings.TrimSpace(reason) == "" {
		return model.Report{}, fmt.Errorf("report reason is required")
	}
	if r.pool == nil {
		return model.Report{}, fmt.Errorf("postgres pool is nil")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var rep model.Report
	err := r.pool.QueryRow(ctx, `
INSERT INTO reports (
	profile_id,
	reported_profile_id,
	reason,
	created_at
) VALUES ($1, $2, $3, $4)
ON CONFLICT (profile_id, reported_profile_id) DO UPDATE SET
	reason = reports.reason
RETURNING id, profile_id, reported_profile_id, reason, created_at
`, reporterID, reportedID, strings.ToLower(strings.TrimSpace(reason)), now.UTC()).Scan(
		&rep.ID,
		&rep.ProfileID,
		&rep.ReportedProfileID,
		&rep.Reason,
		&rep.CreatedAt,
	)
	if err != nil {
		return model.Report{}, fmt.Errorf("create report: %w", err)
	}

	return rep, nil
}

func (r *ReportRepo) Exists(ctx context.Context, reporterID, reportedID int64) (bool, error) {
	if reporterID <= 0 || reportedID <= 0 {
		return false, fmt.Errorf("invalid report lookup payload")
	}
	if r.pool == nil {
		return false, nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1
	FROM reports
	WHERE profile_id = $1 AND reported_profile_id = $2
)
`, reporterID, reportedID).Scan(&exists); err != nil {
		return false, fmt.Errorf("lookup report: %w", err)
	}

	return exists, nil
}
