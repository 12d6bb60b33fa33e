package service

import (
	"context"
	"fmt"

	"github.com/denizolgu/chancepool/internal/config"
	"github.com/denizolgu/chancepool/internal/domain"
	"github.com/denizolgu/chancepool/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SettlerService manages the capped, sorted roster of accounts authorised to
// report wager outcomes.  The roster is persisted; every check reloads it so
// nodes behind the same database always agree on membership.
type SettlerService struct {
	db          *sqlx.DB
	settlerRepo *repository.SettlerRepository
	cfg         *config.Config
}

// NewSettlerService creates a SettlerService.
func NewSettlerService(db *sqlx.DB, settlerRepo *repository.SettlerRepository, cfg *config.Config) *SettlerService {
	return &SettlerService{db: db, settlerRepo: settlerRepo, cfg: cfg}
}

// Members returns the current roster in sorted order.
func (s *SettlerService) Members(ctx context.Context) ([]uuid.UUID, error) {
	set, err := s.settlerRepo.Load(ctx, s.cfg.Ledger.MaxSettlers)
	if err != nil {
		return nil, fmt.Errorf("settler_service.Members: %w", err)
	}
	return set.Members(), nil
}

// IsSettler reports whether the account is on the roster.
func (s *SettlerService) IsSettler(ctx context.Context, id uuid.UUID) (bool, error) {
	set, err := s.settlerRepo.Load(ctx, s.cfg.Ledger.MaxSettlers)
	if err != nil {
		return false, fmt.Errorf("settler_service.IsSettler: %w", err)
	}
	return set.Contains(id), nil
}

// EnsureSettler returns domain.ErrNotSettler unless the account is on the
// roster.
func (s *SettlerService) EnsureSettler(ctx context.Context, id uuid.UUID) error {
	ok, err := s.IsSettler(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotSettler
	}
	return nil
}

// Add puts an account on the roster.  Fails with domain.ErrSettlerLimit when
// the roster is full (checked before membership, so adding a duplicate to a
// full roster reports the limit) and domain.ErrAlreadySettler on duplicates.
func (s *SettlerService) Add(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("settler_service.Add: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Lock the roster rows so two concurrent mutations cannot both pass the
	// capacity and last-settler guards against the same stale snapshot.
	set, err := s.settlerRepo.LoadTx(ctx, tx, s.cfg.Ledger.MaxSettlers)
	if err != nil {
		return fmt.Errorf("settler_service.Add: load: %w", err)
	}
	if err = set.Add(id); err != nil {
		return err
	}
	if err = s.settlerRepo.Add(ctx, tx, id); err != nil {
		return fmt.Errorf("settler_service.Add: persist: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("settler_service.Add: commit: %w", err)
	}
	return nil
}

// Remove takes an account off the roster.  The last settler cannot be
// removed: an empty roster would leave pending wagers unsettleable forever.
func (s *SettlerService) Remove(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("settler_service.Remove: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	set, err := s.settlerRepo.LoadTx(ctx, tx, s.cfg.Ledger.MaxSettlers)
	if err != nil {
		return fmt.Errorf("settler_service.Remove: load: %w", err)
	}
	if err = set.Remove(id); err != nil {
		return err
	}
	if err = s.settlerRepo.Remove(ctx, tx, id); err != nil {
		return fmt.Errorf("settler_service.Remove: persist: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("settler_service.Remove: commit: %w", err)
	}
	return nil
}
