// Package persistence provides GORM-backed storage for cart entries.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/intentcart/intentcart/domain/cart"
	"github.com/intentcart/intentcart/internal/database"
	"github.com/intentcart/intentcart/internal/log"
)

// contentionRetryDelay is the pause before retrying a write that lost a
// lock or serialization conflict.
const contentionRetryDelay = 25 * time.Millisecond

// CartEntryModel is the GORM model for a cart entry. The surrogate ID
// preserves insertion order for List; the unique index carries the real
// (user, product) key.
type CartEntryModel struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID          string    `gorm:"column:user_id;size:255;not null;uniqueIndex:idx_cart_user_product"`
	ProductID       string    `gorm:"column:product_id;size:255;not null;uniqueIndex:idx_cart_user_product"`
	ProductName     string    `gorm:"column:product_name;not null"`
	CombinedDetails string    `gorm:"column:combined_details;not null"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}

// TableName returns the cart table name.
func (CartEntryModel) TableName() string {
	return "user_cart"
}

// CartStore implements cart.Store on top of a relational database.
type CartStore struct {
	db     database.Database
	logger *log.Logger
}

// NewCartStore creates a CartStore and migrates its schema.
func NewCartStore(ctx context.Context, db database.Database, logger *log.Logger) (*CartStore, error) {
	if logger == nil {
		logger = log.Default()
	}

	if err := db.Session(ctx).AutoMigrate(&CartEntryModel{}); err != nil {
		return nil, fmt.Errorf("migrate cart schema: %w", err)
	}

	return &CartStore{db: db, logger: logger}, nil
}

// Add inserts the entry, reporting OutcomeAlreadyPresent when the
// (user, product) key already exists.
func (s *CartStore) Add(ctx context.Context, entry cart.Entry) (cart.Outcome, error) {
	model := CartEntryModel{
		UserID:          entry.UserID(),
		ProductID:       entry.ProductID(),
		ProductName:     entry.ProductName(),
		CombinedDetails: entry.DescriptiveText(),
	}

	err := s.withContentionRetry(ctx, func() error {
		return s.db.Session(ctx).Create(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return cart.OutcomeAlreadyPresent, nil
		}
		return "", fmt.Errorf("add cart entry: %w", err)
	}

	s.logger.DebugContext(ctx, "cart entry added",
		"user_id", entry.UserID(),
		"product_id", entry.ProductID(),
	)
	return cart.OutcomeAdded, nil
}

// List returns the user's entries in insertion order.
func (s *CartStore) List(ctx context.Context, userID string) ([]cart.Entry, error) {
	var models []CartEntryModel
	err := s.db.Session(ctx).
		Where("user_id = ?", userID).
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("list cart entries: %w", err)
	}

	entries := make([]cart.Entry, len(models))
	for i, m := range models {
		entries[i] = cart.NewEntry(m.UserID, m.ProductID, m.ProductName, m.CombinedDetails)
	}
	return entries, nil
}

// Remove deletes the entry for the exact (user, product) key.
func (s *CartStore) Remove(ctx context.Context, userID, productID string) (cart.Outcome, error) {
	var affected int64
	err := s.withContentionRetry(ctx, func() error {
		result := s.db.Session(ctx).
			Where("user_id = ? AND product_id = ?", userID, productID).
			Delete(&CartEntryModel{})
		affected = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return "", fmt.Errorf("remove cart entry: %w", err)
	}

	if affected == 0 {
		return cart.OutcomeNotFound, nil
	}

	s.logger.DebugContext(ctx, "cart entry removed",
		"user_id", userID,
		"product_id", productID,
	)
	return cart.OutcomeRemoved, nil
}

// withContentionRetry retries a write once after a short delay when it
// fails on lock or serialization contention.
func (s *CartStore) withContentionRetry(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || !isContention(err) {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(contentionRetryDelay):
	}
	return fn()
}

// isContention reports whether the error is transient write contention:
// SQLite busy locks or PostgreSQL serialization failures and deadlocks.
func isContention(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "sqlite_busy") ||
		strings.Contains(msg, "40001") ||
		strings.Contains(msg, "deadlock")
}

var _ cart.Store = (*CartStore)(nil)
