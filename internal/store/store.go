package store

import (
	"errors"
	"fmt"

	"trade-journal-go/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultChunkSize bounds one atomic write set when committing a batch.
const DefaultChunkSize = 400

// Store is the persistence gateway for the ledger. Batch inserts are chunked;
// each chunk commits atomically but a multi-chunk commit is not atomic as a
// whole, so a failure partway through leaves earlier chunks committed.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
	chunk  int
}

// BatchResult reports the partial-success outcome of a chunked commit.
type BatchResult struct {
	Committed int
	Failed    int
	Errors    []error
}

// New creates a Store. chunkSize <= 0 falls back to DefaultChunkSize.
func New(db *gorm.DB, logger *zap.Logger, chunkSize int) *Store {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Store{db: db, logger: logger, chunk: chunkSize}
}

// CreateTrades commits trades in chunks.
func (s *Store) CreateTrades(trades []models.Trade) BatchResult {
	return chunkedCreate(s, trades)
}

// CreateAccounts commits accounts in chunks.
func (s *Store) CreateAccounts(accounts []models.Account) BatchResult {
	return chunkedCreate(s, accounts)
}

// CreatePayouts commits payouts in chunks.
func (s *Store) CreatePayouts(payouts []models.Payout) BatchResult {
	return chunkedCreate(s, payouts)
}

func chunkedCreate[T any](s *Store, docs []T) BatchResult {
	var res BatchResult
	for start := 0; start < len(docs); start += s.chunk {
		end := start + s.chunk
		if end > len(docs) {
			end = len(docs)
		}
		chunk := docs[start:end]
		if err := s.db.Create(&chunk).Error; err != nil {
			s.logger.Error("Chunk commit failed",
				zap.Int("offset", start),
				zap.Int("size", len(chunk)),
				zap.Error(err),
			)
			res.Failed += len(chunk)
			res.Errors = append(res.Errors, fmt.Errorf("chunk at offset %d: %w", start, err))
			continue
		}
		res.Committed += len(chunk)
	}
	return res
}

// TradesByAccount returns a user's trades, optionally filtered to one account.
// An empty accountID means all accounts.
func (s *Store) TradesByAccount(userID, accountID string) ([]models.Trade, error) {
	var trades []models.Trade
	q := s.db.Where("user_id = ?", userID)
	if accountID != "" {
		q = q.Where("account_id = ?", accountID)
	}
	if err := q.Order("entry_time asc").Find(&trades).Error; err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	return trades, nil
}

// UpdateTrade persists a modified trade after refreshing its derived fields,
// so stored P&L never goes stale.
func (s *Store) UpdateTrade(trade *models.Trade) error {
	if err := trade.Recompute(); err != nil {
		return err
	}
	return s.db.Save(trade).Error
}

// DeleteTrade removes one trade by its public id.
func (s *Store) DeleteTrade(tradeID string) error {
	return s.db.Where("trade_id = ?", tradeID).Delete(&models.Trade{}).Error
}

// Accounts returns all accounts of a user.
func (s *Store) Accounts(userID string) ([]models.Account, error) {
	var accounts []models.Account
	if err := s.db.Where("user_id = ?", userID).Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	return accounts, nil
}

// AccountByNameBroker soft-identifies an account by name and broker, the key
// the scrapers match on. Returns nil when no account matches.
func (s *Store) AccountByNameBroker(userID, name, broker string) (*models.Account, error) {
	var account models.Account
	err := s.db.Where("user_id = ? AND name = ? AND broker = ?", userID, name, broker).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// DeleteAccount removes an account and, because the account exclusively owns
// its trades, everything referencing it. Both deletes commit together.
func (s *Store) DeleteAccount(accountID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", accountID).Delete(&models.Trade{}).Error; err != nil {
			return fmt.Errorf("failed to delete trades of account %s: %w", accountID, err)
		}
		if err := tx.Where("account_id = ?", accountID).Delete(&models.Account{}).Error; err != nil {
			return fmt.Errorf("failed to delete account %s: %w", accountID, err)
		}
		return nil
	})
}

// Payouts returns a user's withdrawal history.
func (s *Store) Payouts(userID string) ([]models.Payout, error) {
	var payouts []models.Payout
	if err := s.db.Where("user_id = ?", userID).Order("date asc").Find(&payouts).Error; err != nil {
		return nil, fmt.Errorf("failed to query payouts: %w", err)
	}
	return payouts, nil
}

// LatestCacheEntry returns the newest cache entry for a key regardless of TTL,
// or nil when none exists.
func (s *Store) LatestCacheEntry(key string) (*models.CacheEntry, error) {
	var entry models.CacheEntry
	err := s.db.Where("key = ?", key).Order("fetched_at desc").First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// SaveCacheEntry persists a fresh snapshot for a key, replacing older ones.
func (s *Store) SaveCacheEntry(entry *models.CacheEntry) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("key = ?", entry.Key).Delete(&models.CacheEntry{}).Error; err != nil {
			return err
		}
		return tx.Create(entry).Error
	})
}

// DeleteCacheEntries drops all snapshots for a key.
func (s *Store) DeleteCacheEntries(key string) error {
	return s.db.Where("key = ?", key).Delete(&models.CacheEntry{}).Error
}

// ClearCache drops every cache snapshot.
func (s *Store) ClearCache() error {
	return s.db.Where("1 = 1").Delete(&models.CacheEntry{}).Error
}
