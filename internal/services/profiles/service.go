package profiles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okabanov/matcha/backend/internal/domain/model"
	"github.com/okabanov/matcha/backend/internal/pkg/validate"
	pgrepo "github.com/okabanov/matcha/backend/internal/repo/postgres"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrProfileNotFound = errors.New("profile not found")
)

type ProfileStore interface {
	GetByID(ctx context.Context, profileID int64) (model.Profile, error)
	Upsert(ctx context.Context, p model.Profile, now time.Time) error
	SetActive(ctx context.Context, profileID int64, active bool) error
}

type WalletStore interface {
	Get(ctx context.Context, profileID int64) (model.Wallet, error)
	ListTransactions(ctx context.Context, profileID int64, limit int) ([]model.Transaction, error)
}

type WalletView struct {
	Wallet       model.Wallet        `json:"wallet"`
	Transactions []model.Transaction `json:"transactions"`
}

type Service struct {
	profiles ProfileStore
	wallets  WalletStore
	now      func() time.Time
}

type Dependencies struct {
	Profiles ProfileStore
	Wallets  WalletStore
}

func NewService(deps Dependencies) *Service {
	return &Service{
		profiles: deps.Profiles,
		wallets:  deps.Wallets,
		now:      time.Now,
	}
}

func (s *Service) Get(ctx context.Context, profileID int64) (model.Profile, error) {
	if profileID <= 0 {
		return model.Profile{}, ErrValidation
	}
	if s.profiles == nil {
		return model.Profile{}, fmt.Errorf("profile dependencies are not configured")
	}

	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrProfileNotFound) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, err
	}

	return profile, nil
}

// Upsert is driven by the external signup event. Moderated attributes on an
// existing profile change only through an approved review, which the
// storage layer enforces.
func (s *Service) Upsert(ctx context.Context, p model.Profile) error {
	if p.ID <= 0 {
		return ErrValidation
	}
	if !validate.Required(p.DisplayName) {
		return ErrValidation
	}
	if !validate.Required(p.Gender) || len(p.GenderPreference) == 0 {
		return ErrValidation
	}
	if s.profiles == nil {
		return fmt.Errorf("profile dependencies are not configured")
	}

	return s.profiles.Upsert(ctx, p, s.now().UTC())
}

func (s *Service) SetActive(ctx context.Context, profileID int64, active bool) error {
	if profileID <= 0 {
		return ErrValidation
	}
	if s.profiles == nil {
		return fmt.Errorf("profile dependencies are not configured")
	}

	if err := s.profiles.SetActive(ctx, profileID, active); err != nil {
		if errors.Is(err, pgrepo.ErrProfileNotFound) {
			return ErrProfileNotFound
		}
		return err
	}

	return nil
}

// Wallet returns the balance together with the most recent ledger
// movements.
func (s *Service) Wallet(ctx context.Context, profileID int64, limit int) (WalletView, error) {
	if profileID <= 0 || limit < 0 {
		return WalletView{}, ErrValidation
	}
	if s.wallets == nil {
		return WalletView{}, fmt.Errorf("profile dependencies are not configured")
	}

	wallet, err := s.wallets.Get(ctx, profileID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrWalletNotFound) {
			return WalletView{}, ErrProfileNotFound
		}
		return WalletView{}, err
	}

	transactions, err := s.wallets.ListTransactions(ctx, profileID, limit)
	if err != nil {
		return WalletView{}, err
	}

	return WalletView{
		Wallet:       wallet,
		Transactions: transactions,
	}, nil
}
