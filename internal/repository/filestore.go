package repository

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkonarski/sklep-orders-service/internal/domain"
	"github.com/pkonarski/sklep-orders-service/internal/logger"
)

// FileStore keeps the full order set as one JSON array on local disk. It is
// the always-on durability layer: it has no external dependency and must
// keep working when the database is down or not configured at all.
//
// Every write is a whole-file read-modify-write serialized by mu, so
// concurrent requests cannot lose each other's records. The file is written
// to a temp path and renamed into place; a crash mid-write leaves the
// previous state intact.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Save(_ context.Context, o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := s.load()
	now := time.Now().UTC()
	for i := range orders {
		if orders[i].PaymentIntentID == o.PaymentIntentID {
			orders[i].Status = o.Status
			orders[i].UpdatedAt = now
			return s.persist(orders)
		}
	}
	rec := *o
	rec.UpdatedAt = now
	orders = append(orders, rec)
	return s.persist(orders)
}

func (s *FileStore) UpdateStatus(_ context.Context, paymentIntentID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := s.load()
	changed := false
	for i := range orders {
		if orders[i].PaymentIntentID == paymentIntentID {
			orders[i].Status = status
			orders[i].UpdatedAt = time.Now().UTC()
			changed = true
		}
	}
	if !changed {
		// unknown id: nothing to do, not an error
		return nil
	}
	return s.persist(orders)
}

func (s *FileStore) ReadAll(_ context.Context) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(), nil
}

// load reads the current record set. A missing file is an empty set; corrupt
// content is logged and treated as empty rather than failing the request.
func (s *FileStore) load() []domain.Order {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("backup file read failed", "path", s.path, "err", err)
		}
		return nil
	}
	var orders []domain.Order
	if err := json.Unmarshal(raw, &orders); err != nil {
		logger.Warn("backup file corrupt, treating as empty", "path", s.path, "err", err)
		return nil
	}
	return orders
}

func (s *FileStore) persist(orders []domain.Order) error {
	raw, err := json.MarshalIndent(orders, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
