package repository

import (
	"context"
	"sort"

	"github.com/pkonarski/sklep-orders-service/internal/domain"
	"github.com/pkonarski/sklep-orders-service/internal/logger"
)

// ReplicatingStore composes the mandatory backup file store with the
// optional database store. The backup write decides success; the database
// is best-effort replication whose failures are logged and swallowed.
type ReplicatingStore struct {
	backup OrderStore
	db     OrderStore // nil when no database is configured
}

func NewReplicatingStore(backup OrderStore, db OrderStore) *ReplicatingStore {
	return &ReplicatingStore{backup: backup, db: db}
}

func (s *ReplicatingStore) HasDatabase() bool { return s.db != nil }

func (s *ReplicatingStore) Save(ctx context.Context, o *domain.Order) error {
	if err := s.backup.Save(ctx, o); err != nil {
		return err
	}
	if s.db != nil {
		if err := s.db.Save(ctx, o); err != nil {
			logger.Warn("database save failed, backup copy kept", "payment_intent_id", o.PaymentIntentID, "err", err)
		}
	}
	return nil
}

func (s *ReplicatingStore) UpdateStatus(ctx context.Context, paymentIntentID, status string) error {
	if s.db != nil {
		if err := s.db.UpdateStatus(ctx, paymentIntentID, status); err != nil {
			logger.Warn("database status update failed", "payment_intent_id", paymentIntentID, "err", err)
		}
	}
	return s.backup.UpdateStatus(ctx, paymentIntentID, status)
}

// ReadAll merges both stores by payment intent id. The database copy wins on
// conflict; records present only in the backup file are kept and marked so
// the admin view shows which rows never reached the database. The merged set
// is ordered newest first.
func (s *ReplicatingStore) ReadAll(ctx context.Context) ([]domain.Order, error) {
	var merged []domain.Order
	seen := make(map[string]struct{})

	if s.db != nil {
		dbOrders, err := s.db.ReadAll(ctx)
		if err != nil {
			logger.Warn("database read failed, serving backup only", "err", err)
		} else {
			for _, o := range dbOrders {
				merged = append(merged, o)
				seen[o.PaymentIntentID] = struct{}{}
			}
		}
	}

	backupOrders, err := s.backup.ReadAll(ctx)
	if err != nil {
		if len(merged) == 0 {
			return nil, err
		}
		logger.Warn("backup read failed during merge", "err", err)
		backupOrders = nil
	}
	for _, o := range backupOrders {
		if _, ok := seen[o.PaymentIntentID]; ok {
			continue
		}
		if s.db != nil {
			o.Source = domain.SourceBackup
		}
		merged = append(merged, o)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	return merged, nil
}
