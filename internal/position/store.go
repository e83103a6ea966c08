// Package position owns the single persisted open-position record.
package position

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"signalrelay/internal/alloc"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Record mirrors the live position. At most one exists; absence means flat.
type Record struct {
	Action        string // "buy" | "sell"
	Direction     string // "long" | "short"
	Source        string // alert channel that opened it; lifecycle events must match
	Ticker        string
	Letter        string
	Score         string
	Interval      int
	Level         float64
	EntryPrice    *float64 // absent when the entry form carried no usable price
	Quantities    alloc.Quantities
	OpenedAt      time.Time
	LastTouchedAt time.Time
}

// Entry returns the entry price and whether one is known.
func (r *Record) Entry() (float64, bool) {
	if r == nil || r.EntryPrice == nil {
		return 0, false
	}
	return *r.EntryPrice, true
}

// Only one open position is supported; every row write targets this slot.
const slotID = 1

type positionModel struct {
	ID            int            `gorm:"column:id;primaryKey"`
	Action        string         `gorm:"column:action"`
	Direction     string         `gorm:"column:direction"`
	Source        string         `gorm:"column:source"`
	Ticker        string         `gorm:"column:ticker"`
	Letter        string         `gorm:"column:letter"`
	Score         string         `gorm:"column:score"`
	Interval      int            `gorm:"column:interval"`
	Level         float64        `gorm:"column:level"`
	EntryPrice    *float64       `gorm:"column:entry_price"`
	Quantities    datatypes.JSON `gorm:"column:quantities;type:TEXT"`
	OpenedAtUnix  int64          `gorm:"column:opened_at"`
	TouchedAtUnix int64          `gorm:"column:last_touched_at"`
}

func (positionModel) TableName() string { return "open_position" }

// Store persists the position record. Writes go through sqlite WAL with a
// single-row upsert so a crash mid-write never leaves a torn record.
type Store struct {
	db *gorm.DB
}

func NewStore(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("position db path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	// The pure-Go modernc driver (registered as "sqlite") backs the dialector
	// so the store works with CGO_ENABLED=0; the DSN pragmas use its syntax.
	db, err := gorm.Open(&sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&positionModel{}); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	return &Store{db: db}, nil
}

// Get returns the open position, or (nil, nil) when flat.
func (s *Store) Get(ctx context.Context) (*Record, error) {
	var m positionModel
	err := s.db.WithContext(ctx).First(&m, slotID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load position: %w", err)
	}
	var q alloc.Quantities
	if len(m.Quantities) > 0 {
		if err := json.Unmarshal(m.Quantities, &q); err != nil {
			return nil, fmt.Errorf("position record unreadable: %w", err)
		}
	}
	return &Record{
		Action:        m.Action,
		Direction:     m.Direction,
		Source:        m.Source,
		Ticker:        m.Ticker,
		Letter:        m.Letter,
		Score:         m.Score,
		Interval:      m.Interval,
		Level:         m.Level,
		EntryPrice:    m.EntryPrice,
		Quantities:    q,
		OpenedAt:      time.Unix(m.OpenedAtUnix, 0),
		LastTouchedAt: time.Unix(m.TouchedAtUnix, 0),
	}, nil
}

// Save upserts the record into the fixed slot.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("cannot save nil position record")
	}
	raw, err := json.Marshal(rec.Quantities)
	if err != nil {
		return fmt.Errorf("encode quantities: %w", err)
	}
	now := time.Now()
	if rec.OpenedAt.IsZero() {
		rec.OpenedAt = now
	}
	rec.LastTouchedAt = now
	m := positionModel{
		ID:            slotID,
		Action:        rec.Action,
		Direction:     rec.Direction,
		Source:        rec.Source,
		Ticker:        rec.Ticker,
		Letter:        rec.Letter,
		Score:         rec.Score,
		Interval:      rec.Interval,
		Level:         rec.Level,
		EntryPrice:    rec.EntryPrice,
		Quantities:    datatypes.JSON(raw),
		OpenedAtUnix:  rec.OpenedAt.Unix(),
		TouchedAtUnix: rec.LastTouchedAt.Unix(),
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Save(&m).Error
	})
}

// Clear removes the record; clearing an empty slot is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Delete(&positionModel{}, slotID).Error
}

// ClearIfOlder removes the record when it was opened before cutoff. Returns
// whether a record was cleared.
func (s *Store) ClearIfOlder(ctx context.Context, cutoff time.Time) (bool, error) {
	rec, err := s.Get(ctx)
	if err != nil || rec == nil {
		return false, err
	}
	if !rec.OpenedAt.Before(cutoff) {
		return false, nil
	}
	if err := s.Clear(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
