package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pkonarski/sklep-orders-service/internal/domain"
)

// memStore is an in-memory OrderStore with switchable failures.
type memStore struct {
	orders    []domain.Order
	saveErr   error
	readErr   error
	updateErr error
}

func (m *memStore) Save(_ context.Context, o *domain.Order) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	for i := range m.orders {
		if m.orders[i].PaymentIntentID == o.PaymentIntentID {
			m.orders[i].Status = o.Status
			return nil
		}
	}
	m.orders = append(m.orders, *o)
	return nil
}

func (m *memStore) UpdateStatus(_ context.Context, id, status string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	for i := range m.orders {
		if m.orders[i].PaymentIntentID == id {
			m.orders[i].Status = status
		}
	}
	return nil
}

func (m *memStore) ReadAll(_ context.Context) ([]domain.Order, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	out := make([]domain.Order, len(m.orders))
	copy(out, m.orders)
	return out, nil
}

func orderAt(pi string, created time.Time) domain.Order {
	o := testOrder(pi)
	o.CreatedAt = created
	return *o
}

func TestReplicatingStore_SaveWritesBackupFirst(t *testing.T) {
	backup := &memStore{}
	db := &memStore{saveErr: errors.New("db down")}
	s := NewReplicatingStore(backup, db)

	require.NoError(t, s.Save(context.Background(), testOrder("pi_1")),
		"db failure must not fail the save")
	require.Len(t, backup.orders, 1)
	require.Empty(t, db.orders)
}

func TestReplicatingStore_SaveFailsWhenBackupFails(t *testing.T) {
	backup := &memStore{saveErr: errors.New("disk full")}
	s := NewReplicatingStore(backup, &memStore{})

	require.Error(t, s.Save(context.Background(), testOrder("pi_1")))
}

func TestReplicatingStore_MergePrefersDatabase(t *testing.T) {
	now := time.Now().UTC()

	inBoth := orderAt("pi_both", now)
	inBoth.Status = domain.StatusPending
	dbCopy := inBoth
	dbCopy.Status = domain.StatusSucceeded

	backup := &memStore{orders: []domain.Order{inBoth, orderAt("pi_backup_only", now.Add(-time.Hour))}}
	db := &memStore{orders: []domain.Order{dbCopy, orderAt("pi_db_only", now.Add(time.Hour))}}
	s := NewReplicatingStore(backup, db)

	merged, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, merged, 3)

	byID := map[string]domain.Order{}
	for _, o := range merged {
		byID[o.PaymentIntentID] = o
	}
	require.Equal(t, domain.StatusSucceeded, byID["pi_both"].Status, "database copy wins")
	require.Empty(t, byID["pi_both"].Source)
	require.Equal(t, domain.SourceBackup, byID["pi_backup_only"].Source, "backup-only rows are marked")

	// newest first
	require.Equal(t, "pi_db_only", merged[0].PaymentIntentID)
	require.Equal(t, "pi_backup_only", merged[2].PaymentIntentID)
}

func TestReplicatingStore_MergeWithoutDatabase(t *testing.T) {
	backup := &memStore{orders: []domain.Order{orderAt("pi_1", time.Now().UTC())}}
	s := NewReplicatingStore(backup, nil)

	require.False(t, s.HasDatabase())
	merged, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, merged, 1)
	require.Empty(t, merged[0].Source, "no degraded marker when there is no database to degrade from")
}

func TestReplicatingStore_MergeSurvivesDatabaseReadFailure(t *testing.T) {
	backup := &memStore{orders: []domain.Order{orderAt("pi_1", time.Now().UTC())}}
	db := &memStore{readErr: errors.New("timeout")}
	s := NewReplicatingStore(backup, db)

	merged, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, merged, 1)
}

func TestReplicatingStore_UpdateStatusIdempotent(t *testing.T) {
	backup := &memStore{orders: []domain.Order{orderAt("pi_1", time.Now().UTC())}}
	db := &memStore{orders: []domain.Order{orderAt("pi_1", time.Now().UTC())}}
	s := NewReplicatingStore(backup, db)
	ctx := context.Background()

	require.NoError(t, s.UpdateStatus(ctx, "pi_1", domain.StatusSucceeded))
	first, err := s.ReadAll(ctx)
	require.NoError(t, err)

	require.NoError(t, s.UpdateStatus(ctx, "pi_1", domain.StatusSucceeded))
	second, err := s.ReadAll(ctx)
	require.NoError(t, err)

	require.Equal(t, first, second, "repeated update must not change the merged set")
	require.Equal(t, domain.StatusSucceeded, second[0].Status)
}

func TestReplicatingStore_UpdateStatusReachesBothStores(t *testing.T) {
	backup := &memStore{orders: []domain.Order{orderAt("pi_1", time.Now().UTC())}}
	db := &memStore{orders: []domain.Order{orderAt("pi_1", time.Now().UTC())}}
	s := NewReplicatingStore(backup, db)

	require.NoError(t, s.UpdateStatus(context.Background(), "pi_1", domain.StatusFailed))
	require.Equal(t, domain.StatusFailed, backup.orders[0].Status)
	require.Equal(t, domain.StatusFailed, db.orders[0].Status)
}

func TestReplicatingStore_UpdateStatusSwallowsDatabaseFailure(t *testing.T) {
	backup := &memStore{orders: []domain.Order{orderAt("pi_1", time.Now().UTC())}}
	db := &memStore{updateErr: errors.New("db down")}
	s := NewReplicatingStore(backup, db)

	require.NoError(t, s.UpdateStatus(context.Background(), "pi_1", domain.StatusSucceeded))
	require.Equal(t, domain.StatusSucceeded, backup.orders[0].Status)
}
