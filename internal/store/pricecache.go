package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sentinel/internal/market"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// cachedSeriesModel is the persisted form of one fetched price table. Bars
// are stored as a JSON blob; the cache is a freshness optimization, not a
// query surface, so no per-bar rows.
type cachedSeriesModel struct {
	ID        uint   `gorm:"primaryKey"`
	Ticker    string `gorm:"size:32;uniqueIndex:idx_series_key,priority:1"`
	Period    string `gorm:"size:8;uniqueIndex:idx_series_key,priority:2"`
	Interval  string `gorm:"size:8;uniqueIndex:idx_series_key,priority:3"`
	Sector    string `gorm:"size:64"`
	HasClose  bool
	HasAdj    bool
	Bars      datatypes.JSON
	FetchedAt time.Time `gorm:"index"`
}

func (cachedSeriesModel) TableName() string { return "cached_series" }

// SQLitePriceCache implements PriceCache on Gorm + SQLite.
type SQLitePriceCache struct {
	db  *gorm.DB
	now func() time.Time
}

var _ PriceCache = (*SQLitePriceCache)(nil)

// NewSQLitePriceCache opens (creating if needed) the cache database at path.
func NewSQLitePriceCache(path string) (*SQLitePriceCache, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("price cache: path cannot be empty")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&cachedSeriesModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: keep contention low, reads are rare and bursty.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &SQLitePriceCache{db: db, now: time.Now}, nil
}

func (c *SQLitePriceCache) Get(ctx context.Context, ticker string, period market.Period, interval market.Interval, maxAge time.Duration) (market.RawPriceTable, bool, error) {
	var row cachedSeriesModel
	err := c.db.WithContext(ctx).
		Where("ticker = ? AND period = ? AND interval = ?", ticker, string(period), string(interval)).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return market.RawPriceTable{}, false, nil
	}
	if err != nil {
		return market.RawPriceTable{}, false, err
	}
	if maxAge > 0 && c.now().Sub(row.FetchedAt) > maxAge {
		return market.RawPriceTable{}, false, nil
	}
	var bars []market.Bar
	if err := json.Unmarshal(row.Bars, &bars); err != nil {
		// a corrupt blob behaves like a miss; the next Put overwrites it
		return market.RawPriceTable{}, false, nil
	}
	return market.RawPriceTable{
		Ticker:      row.Ticker,
		Bars:        bars,
		HasClose:    row.HasClose,
		HasAdjClose: row.HasAdj,
		Sector:      row.Sector,
	}, true, nil
}

func (c *SQLitePriceCache) Put(ctx context.Context, table market.RawPriceTable, period market.Period, interval market.Interval) error {
	if table.Ticker == "" {
		return fmt.Errorf("price cache: ticker cannot be empty")
	}
	blob, err := json.Marshal(table.Bars)
	if err != nil {
		return err
	}
	row := cachedSeriesModel{
		Ticker:    table.Ticker,
		Period:    string(period),
		Interval:  string(interval),
		Sector:    table.Sector,
		HasClose:  table.HasClose,
		HasAdj:    table.HasAdjClose,
		Bars:      datatypes.JSON(blob),
		FetchedAt: c.now(),
	}
	return c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ticker"}, {Name: "period"}, {Name: "interval"}},
		UpdateAll: true,
	}).Create(&row).Error
}

func (c *SQLitePriceCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
