package postgres

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
)

var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrUnknownAttribute = errors.New("attribute is not moderated")
)

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

// PreferenceContext is the slice of a profile the candidate selector needs.
type PreferenceContext struct {
	ProfileID        int64
	Gender           string
	GenderPreference []string
	IsActive         bool
}

func (r *ProfileRepo) GetByID(ctx context.Context, profileID int64) (model.Profile, error) {
	if profileID <= 0 {
		return model.Profile{}, fmt.Errorf("invalid profile id")
	}
	if r.pool == nil {
		return model.Profile{}, ErrProfileNotFound
	}

	var p model.Profile
	var status string
	err := r.pool.QueryRow(ctx, `
SELECT
	id,
	COALESCE(display_name, ''),
	COALESCE(bio, ''),
	COALESCE(gender, ''),
	COALESCE(gender_preference, '{}'),
	COALESCE(photos, '{}'),
	COALESCE(matching_prompt, ''),
	COALESCE(wallet_address, ''),
	COALESCE(verification_status, 'unverified'),
	is_active,
	created_at,
	updated_at
FROM profiles
WHERE id = $1
LIMIT 1
`, profileID).Scan(
		&p.ID,
		&p.DisplayName,
		&p.Bio,
		&p.Gender,
		&p.GenderPreference,
		&p.Photos,
		&p.MatchingPrompt,
		&p.WalletAddress,
		&status,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	p.VerificationStatus = enums.VerificationStatus(status)

	return p, nil
}

func (r *ProfileRepo) GetPreferenceContext(ctx context.Context, profileID int64) (PreferenceContext, error) {
	if profileID <= 0 {
		return PreferenceContext{}, fmt.Errorf("invalid profile id")
	}
	if r.pool == nil {
		return PreferenceContext{}, ErrProfileNotFound
	}

	var pc PreferenceContext
	err := r.pool.QueryRow(ctx, `
SELECT
	id,
	COALESCE(gender, ''),
	COALESCE(gender_preference, '{}'),
	is_active
FROM profiles
WHERE id = $1
LIMIT 1
`, profileID).Scan(
		&pc.ProfileID,
		&pc.Gender,
		&pc.GenderPreference,
		&pc.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PreferenceContext{}, ErrProfileNotFound
		}
		return PreferenceContext{}, fmt.Errorf("get preference context: %w", err)
	}

	return pc, nil
}

// Upsert writes a profile row. Gender and preference values are normalized
// to lower case here, which keeps every later comparison exact.
func (r *ProfileRepo) Upsert(ctx context.Context, p model.Profile, now time.Time) error {
	if p.ID <= 0 {
		return fmt.Errorf("invalid profile payload")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO profiles (
	id,
	display_name,
	bio,
	gender,
	gender_preference,
	photos,
	matching_prompt,
	wallet_address,
	verification_status,
	is_active,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
ON CONFLICT (id) DO UPDATE SET
	display_name = EXCLUDED.display_name,
	bio = EXCLUDED.bio,
	gender = EXCLUDED.gender,
	gender_preference = EXCLUDED.gender_preference,
	photos = EXCLUDED.photos,
	matching_prompt = EXCLUDED.matching_prompt,
	wallet_address = EXCLUDED.wallet_address,
	verification_status = EXCLUDED.verification_status,
	is_active = EXCLUDED.is_active,
	updated_at = EXCLUDED.updated_at
`,
		p.ID,
		strings.TrimSpace(p.DisplayName),
		p.Bio,
		normalizeGender(p.Gender),
		normalizeGenderSet(p.GenderPreference),
		p.Photos,
		p.MatchingPrompt,
		strings.TrimSpace(p.WalletAddress),
		string(p.VerificationStatus),
		p.IsActive,
		now.UTC(),
	); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}

	return nil
}

func (r *ProfileRepo) SetActive(ctx context.Context, profileID int64, active bool) error {
	if profileID <= 0 {
		return fmt.Errorf("invalid profile id")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `
UPDATE profiles
SET is_active = $2, updated_at = NOW()
WHERE id = $1
`, profileID, active)
	if err != nil {
		return fmt.Errorf("set profile active: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrProfileNotFound
	}

	return nil
}

// GetAttributeValue reads the live value of a moderated attribute so a new
// review proposal can capture it as current_value.
func (r *ProfileRepo) GetAttributeValue(ctx context.Context, tx pgx.Tx, profileID int64, attribute string) (string, error) {
	if profileID <= 0 {
		return "", fmt.Errorf("invalid profile id")
	}
	if !moderatedAttribute(attribute) {
		return "", ErrUnknownAttribute
	}
	if tx == nil {
		return "", fmt.Errorf("transaction is required")
	}

	var value string
	// attribute is validated against the fixed moderated set above, never
	// interpolated from raw input.
	query := fmt.Sprintf(`SELECT COALESCE(%s::text, '') FROM profiles WHERE id = $1 LIMIT 1`, attribute)
	if err := tx.QueryRow(ctx, query, profileID).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrProfileNotFound
		}
		return "", fmt.Errorf("get attribute value: %w", err)
	}

	return value, nil
}

// ApplyReviewedAttribute writes an approved proposed value onto the live
// profile row inside the decision transaction.
func (r *ProfileRepo) ApplyReviewedAttribute(ctx context.Context, tx pgx.Tx, profileID int64, attribute, value string) error {
	if profileID <= 0 {
		return fmt.Errorf("invalid profile id")
	}
	if !moderatedAttribute(attribute) {
		return ErrUnknownAttribute
	}
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	if attribute == "gender" {
		value = normalizeGender(value)
	}

	query := fmt.Sprintf(`UPDATE profiles SET %s = $2, updated_at = NOW() WHERE id = $1`, attribute)
	result, err := tx.Exec(ctx, query, profileID, value)
	if err != nil {
		return fmt.Errorf("apply reviewed attribute: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrProfileNotFound
	}

	return nil
}

var moderatedAttributes = map[string]struct{}{
	"display_name":    {},
	"bio":             {},
	"matching_prompt": {},
	"gender":          {},
}

func moderatedAttribute(attribute string) bool {
	_, ok := moderatedAttributes[strings.TrimSpace(attribute)]
	return ok
}

func normalizeGender(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func normalizeGenderSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		value := normalizeGender(v)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
