package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"

	"github.com/feral-file/ledger-indexer/internal/domain"
	"github.com/feral-file/ledger-indexer/internal/logger"
	"github.com/feral-file/ledger-indexer/internal/store/schema"
)

type pgStore struct {
	db       *gorm.DB
	verifier OwnershipVerifier
}

// Option configures the PostgreSQL store
type Option func(*pgStore)

// WithOwnershipVerifier checks ownership on the ledger before a new item is recorded
func WithOwnershipVerifier(verifier OwnershipVerifier) Option {
	return func(s *pgStore) {
		s.verifier = verifier
	}
}

func hasDBResolver(db *gorm.DB) bool {
	return db != nil && db.Callback().Query().Get("gorm:db_resolver") != nil
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB, opts ...Option) Store {
	s := &pgStore{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// If any of the pool settings are 0, defaults from NormalizeConnectionPoolSettings are used.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// ConfigureReadReplica routes reads to replica through the dbresolver plugin.
// Writes, transactions and the lookups that must see them stay on the primary.
func ConfigureReadReplica(db *gorm.DB, replica gorm.Dialector) error {
	err := db.Use(dbresolver.Register(dbresolver.Config{
		Replicas: []gorm.Dialector{replica},
		Policy:   dbresolver.RandomPolicy{},
	}))
	if err != nil {
		return fmt.Errorf("failed to register read replica: %w", err)
	}
	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

func storageError(msg string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStorage, msg, err)
}

// primary routes reads that must observe this process's own writes to the primary
func (s *pgStore) primary(ctx context.Context) *gorm.DB {
	db := s.db.WithContext(ctx)
	if hasDBResolver(s.db) {
		return db.Clauses(dbresolver.Write)
	}
	return db
}

// SaveMintedItem records a minted item and recomputes the owner's level
func (s *pgStore) SaveMintedItem(ctx context.Context, input CreateMintedItemInput) (*schema.MintedItem, error) {
	if input.Mint == "" || input.Owner == "" || input.TransactionSignature == "" {
		return nil, fmt.Errorf("%w: mint, owner and transaction signature are required", domain.ErrValidation)
	}

	existing, err := s.findMintedItem(s.primary(ctx), input.Mint, input.TransactionSignature)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	// Ledger call happens outside the transaction
	if s.verifier != nil {
		owned, err := s.verifier.IsOwnedBy(ctx, input.Owner, input.Mint)
		switch {
		case err != nil:
			logger.WarnCtx(ctx, "Ownership verification failed, recording item anyway",
				zap.String("mint", input.Mint),
				zap.String("owner", input.Owner),
				zap.Error(err))
		case !owned:
			return nil, fmt.Errorf("%w: %s does not hold %s", domain.ErrOwnershipMismatch, input.Owner, input.Mint)
		}
	}

	var item schema.MintedItem
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		item = schema.MintedItem{
			ID:                   uuid.New(),
			Mint:                 input.Mint,
			Owner:                input.Owner,
			Name:                 input.Name,
			Symbol:               input.Symbol,
			URI:                  input.URI,
			TransactionSignature: input.TransactionSignature,
			Slot:                 input.Slot,
			BlockTime:            input.BlockTime,
			EventTimestamp:       input.EventTimestamp.UTC(),
			Heuristic:            input.Heuristic,
			RawEvent:             rawJSON(input.RawEvent),
			CreatedAt:            now,
			UpdatedAt:            now,
		}

		// Either unique key (mint or signature) resolves to the existing row
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&item)
		if result.Error != nil {
			return storageError("failed to insert minted item", result.Error)
		}

		if result.RowsAffected == 0 {
			existing, err := s.findMintedItem(tx, input.Mint, input.TransactionSignature)
			if err != nil {
				return err
			}
			if existing == nil {
				return storageError("failed to insert minted item", errors.New("conflicting row vanished"))
			}
			item = *existing
			return nil
		}

		_, err := s.recalculateOwnerLevel(tx, input.Owner)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &item, nil
}

// findMintedItem looks an item up by mint, then by signature
func (s *pgStore) findMintedItem(db *gorm.DB, mint string, signature string) (*schema.MintedItem, error) {
	var item schema.MintedItem
	err := db.Where("mint = ? OR transaction_signature = ?", mint, signature).
		Order(clause.OrderBy{Expression: clause.Expr{SQL: "mint = ? DESC", Vars: []interface{}{mint}}}).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageError("failed to get minted item", err)
	}
	return &item, nil
}

// SaveBuybackEvent records a buyback event
func (s *pgStore) SaveBuybackEvent(ctx context.Context, input CreateBuybackEventInput) (*schema.BuybackEvent, error) {
	if input.TransactionSignature == "" {
		return nil, fmt.Errorf("%w: transaction signature is required", domain.ErrValidation)
	}

	event := schema.BuybackEvent{
		ID:                   uuid.New(),
		TransactionSignature: input.TransactionSignature,
		AmountLamports:       input.AmountLamports,
		TokenAmount:          input.TokenAmount,
		EventTimestamp:       input.EventTimestamp.UTC(),
		Slot:                 input.Slot,
		BlockTime:            input.BlockTime,
		Heuristic:            input.Heuristic,
		RawEvent:             rawJSON(input.RawEvent),
		CreatedAt:            time.Now().UTC(),
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "transaction_signature"}},
			DoNothing: true,
		}).
		Create(&event)
	if result.Error != nil {
		return nil, storageError("failed to insert buyback event", result.Error)
	}

	if result.RowsAffected == 0 {
		var existing schema.BuybackEvent
		if err := s.primary(ctx).
			Where("transaction_signature = ?", input.TransactionSignature).
			First(&existing).Error; err != nil {
			return nil, storageError("failed to get existing buyback event", err)
		}
		return &existing, nil
	}

	return &event, nil
}

// IsTransactionProcessed reports whether a signature is recorded in either event table
func (s *pgStore) IsTransactionProcessed(ctx context.Context, signature string) (bool, error) {
	var processed bool
	err := s.primary(ctx).Raw(`
		SELECT EXISTS (SELECT 1 FROM minted_items WHERE transaction_signature = ?)
		    OR EXISTS (SELECT 1 FROM buyback_events WHERE transaction_signature = ?)`,
		signature, signature).
		Scan(&processed).Error
	if err != nil {
		return false, storageError("failed to check processed transaction", err)
	}
	return processed, nil
}

// RecalculateOwnerLevel recomputes an owner's level in its own transaction
func (s *pgStore) RecalculateOwnerLevel(ctx context.Context, owner string) (*schema.OwnerLevel, error) {
	var level *schema.OwnerLevel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		level, err = s.recalculateOwnerLevel(tx, owner)
		return err
	})
	if err != nil {
		return nil, err
	}
	return level, nil
}

// recalculateOwnerLevel recounts owner's items inside tx and upserts or removes the level row.
// An advisory lock serializes recomputes per owner so concurrent inserts cannot leave a stale count.
func (s *pgStore) recalculateOwnerLevel(tx *gorm.DB, owner string) (*schema.OwnerLevel, error) {
	if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", owner).Error; err != nil {
		return nil, storageError("failed to lock owner level", err)
	}

	var count int64
	if err := tx.Model(&schema.MintedItem{}).Where("owner = ?", owner).Count(&count).Error; err != nil {
		return nil, storageError("failed to count owner items", err)
	}

	if count == 0 {
		if err := tx.Where("owner = ?", owner).Delete(&schema.OwnerLevel{}).Error; err != nil {
			return nil, storageError("failed to delete owner level", err)
		}
		return nil, nil
	}

	calculated := domain.CalculateLevel(int(count))
	now := time.Now().UTC()
	level := schema.OwnerLevel{
		Owner:          owner,
		TotalMints:     calculated.TotalMints,
		Level:          calculated.Level,
		Experience:     calculated.Experience,
		NextLevelMints: calculated.NextLevelMints,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_mints":      calculated.TotalMints,
			"level":            calculated.Level,
			"experience":       calculated.Experience,
			"next_level_mints": calculated.NextLevelMints,
			"version":          gorm.Expr("owner_levels.version + 1"),
			"updated_at":       now,
		}),
	}).Create(&level).Error; err != nil {
		return nil, storageError("failed to upsert owner level", err)
	}

	if err := tx.Where("owner = ?", owner).First(&level).Error; err != nil {
		return nil, storageError("failed to reload owner level", err)
	}

	return &level, nil
}

// GetOwnerLevel retrieves an owner's level
func (s *pgStore) GetOwnerLevel(ctx context.Context, owner string) (*schema.OwnerLevel, error) {
	var level schema.OwnerLevel
	err := s.db.WithContext(ctx).Where("owner = ?", owner).First(&level).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageError("failed to get owner level", err)
	}
	return &level, nil
}

// GetMintedItemsForReconciliation returns the stalest items first
func (s *pgStore) GetMintedItemsForReconciliation(ctx context.Context, olderThan time.Duration, limit int) ([]schema.MintedItem, error) {
	if limit <= 0 {
		return []schema.MintedItem{}, nil
	}

	cutoff := time.Now().UTC().Add(-olderThan)

	var items []schema.MintedItem
	err := s.primary(ctx).
		Where("updated_at < ?", cutoff).
		Order("updated_at ASC, id ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, storageError("failed to get items for reconciliation", err)
	}

	return items, nil
}

// DeleteMintedItemsAndRecalculate removes items and recomputes their owners' levels
func (s *pgStore) DeleteMintedItemsAndRecalculate(ctx context.Context, mints []string) ([]string, error) {
	if len(mints) == 0 {
		return []string{}, nil
	}

	var owners []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var deleted []schema.MintedItem
		if err := tx.Clauses(clause.Returning{Columns: []clause.Column{{Name: "owner"}}}).
			Where("mint IN ?", mints).
			Delete(&deleted).Error; err != nil {
			return storageError("failed to delete minted items", err)
		}

		seen := make(map[string]struct{}, len(deleted))
		for _, item := range deleted {
			if _, ok := seen[item.Owner]; ok {
				continue
			}
			seen[item.Owner] = struct{}{}
			owners = append(owners, item.Owner)
		}
		sort.Strings(owners)

		for _, owner := range owners {
			if _, err := s.recalculateOwnerLevel(tx, owner); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if owners == nil {
		owners = []string{}
	}
	return owners, nil
}

// TouchMintedItems bumps updated_at on verified items
func (s *pgStore) TouchMintedItems(ctx context.Context, mints []string) error {
	if len(mints) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).
		Model(&schema.MintedItem{}).
		Where("mint IN ?", mints).
		Update("updated_at", time.Now().UTC()).Error
	if err != nil {
		return storageError("failed to touch minted items", err)
	}
	return nil
}

// GetMintedItemByMint retrieves an item by mint address
func (s *pgStore) GetMintedItemByMint(ctx context.Context, mint string) (*schema.MintedItem, error) {
	var item schema.MintedItem
	err := s.db.WithContext(ctx).Where("mint = ?", mint).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageError("failed to get minted item", err)
	}
	return &item, nil
}

// GetMintedItemsByOwner retrieves an owner's items newest first
func (s *pgStore) GetMintedItemsByOwner(ctx context.Context, owner string, limit int, offset int) ([]schema.MintedItem, int64, error) {
	limit, offset = NormalizePagination(limit, offset)

	var total int64
	if err := s.db.WithContext(ctx).
		Model(&schema.MintedItem{}).
		Where("owner = ?", owner).
		Count(&total).Error; err != nil {
		return nil, 0, storageError("failed to count owner items", err)
	}

	items := []schema.MintedItem{}
	if err := s.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&items).Error; err != nil {
		return nil, 0, storageError("failed to get owner items", err)
	}

	return items, total, nil
}

// GetBuybackEvents retrieves buyback events newest first
func (s *pgStore) GetBuybackEvents(ctx context.Context, limit int, offset int) ([]schema.BuybackEvent, int64, error) {
	limit, offset = NormalizePagination(limit, offset)

	var total int64
	if err := s.db.WithContext(ctx).Model(&schema.BuybackEvent{}).Count(&total).Error; err != nil {
		return nil, 0, storageError("failed to count buyback events", err)
	}

	events := []schema.BuybackEvent{}
	if err := s.db.WithContext(ctx).
		Order("event_timestamp DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error; err != nil {
		return nil, 0, storageError("failed to get buyback events", err)
	}

	return events, total, nil
}

// GetStatistics retrieves aggregate counts
func (s *pgStore) GetStatistics(ctx context.Context) (*Statistics, error) {
	var stats Statistics
	err := s.db.WithContext(ctx).Raw(`
		SELECT
			(SELECT COUNT(*) FROM minted_items) AS total_items,
			(SELECT COUNT(*) FROM owner_levels) AS unique_owners,
			(SELECT COALESCE(SUM(total_mints), 0)::bigint FROM owner_levels) AS total_mints,
			(SELECT COUNT(*) FROM buyback_events) AS total_buybacks,
			(SELECT COALESCE(SUM(amount_lamports), 0)::bigint FROM buyback_events) AS total_lamports_bought,
			(SELECT COALESCE(SUM(token_amount), 0)::bigint FROM buyback_events) AS total_tokens_bought`).
		Scan(&stats).Error
	if err != nil {
		return nil, storageError("failed to get statistics", err)
	}
	return &stats, nil
}

// SetKeyValue sets a key-value pair in the key-value store
func (s *pgStore) SetKeyValue(ctx context.Context, key string, value string) error {
	kv := schema.KeyValueStore{
		Key:   key,
		Value: value,
	}

	err := s.db.WithContext(ctx).Save(&kv).Error
	if err != nil {
		return storageError("failed to set key-value", err)
	}

	return nil
}

// GetKeyValue retrieves a value by key from the key-value store
func (s *pgStore) GetKeyValue(ctx context.Context, key string) (string, error) {
	var kv schema.KeyValueStore
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&kv).Error
	if err == nil {
		return kv.Value, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", storageError("failed to get key-value", err)
	}
	if !hasDBResolver(s.db) {
		return "", nil
	}

	// Replica can lag behind primary; retry on primary before returning empty.
	err = s.primary(ctx).Where("key = ?", key).First(&kv).Error
	if err == nil {
		return kv.Value, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return "", storageError("failed to get key-value", err)
}

func rawJSON(raw []byte) datatypes.JSON {
	if len(raw) == 0 {
		return nil
	}
	return datatypes.JSON(raw)
}
