package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domain "github.com/Rishi-0007/tm-assignment/domain/user"
	"github.com/Rishi-0007/tm-assignment/internal/database"
	"gorm.io/gorm"
)

// TokenStore persists the session's token pair between runs.
// Load returns nil and no error when nothing is stored.
type TokenStore interface {
	Load(ctx context.Context) (*domain.TokenPair, error)
	Save(ctx context.Context, pair domain.TokenPair) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the pair in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	pair *domain.TokenPair
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) (*domain.TokenPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pair == nil {
		return nil, nil
	}
	pair := *m.pair
	return &pair, nil
}

func (m *MemoryStore) Save(_ context.Context, pair domain.TokenPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = &pair
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = nil
	return nil
}

// storedSession is the single row of the client session table.
type storedSession struct {
	ID           int    `gorm:"primaryKey"`
	AccessToken  string `gorm:"not null;type:text"`
	RefreshToken string `gorm:"not null;type:text"`
	UpdatedAt    time.Time
}

func (storedSession) TableName() string {
	return "session"
}

const sessionRowID = 1

// SQLiteStore persists the pair in a local SQLite file.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens (creating if needed) the session database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := database.Open(path, false, &storedSession{})
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*domain.TokenPair, error) {
	var row storedSession
	err := s.db.WithContext(ctx).First(&row, sessionRowID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &domain.TokenPair{
		AccessToken:  row.AccessToken,
		RefreshToken: row.RefreshToken,
	}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, pair domain.TokenPair) error {
	row := storedSession{
		ID:           sessionRowID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Delete(&storedSession{}, sessionRowID).Error; err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (s *SQLiteStore) Close() error {
	return database.Close(s.db)
}
