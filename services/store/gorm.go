package store

import (
	"context"
	"fmt"
	"time"

	"sjsage522/pricetracker/internal/market"
	"sjsage522/pricetracker/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// ObservationModel is the gorm model of one stored record
type ObservationModel struct {
	ProductKey     string `gorm:"primaryKey;size:255"`
	Seq            int64  `gorm:"primaryKey;autoIncrement:false"`
	ProductName    string `gorm:"not null"`
	Date           string `gorm:"size:10;not null"`
	MarketPrice    string `gorm:"not null"`
	MostRecentSale string `gorm:"not null"`
	ListedMedian   string `gorm:"not null"`
	CurrentQty     string `gorm:"column:current_quantity;not null"`
	CurrentSellers string `gorm:"not null"`
	TotalSold      string `gorm:"not null"`
	PriceChange    string `gorm:"not null"`
	QuantityChange string `gorm:"not null"`
	DailySales     string `gorm:"not null"`
	CreatedAt      time.Time
}

// TableName implements gorm's tabler
func (ObservationModel) TableName() string {
	return "observations"
}

func modelFromRow(key string, seq int64, name string, row Row) ObservationModel {
	return ObservationModel{
		ProductKey:     key,
		Seq:            seq,
		ProductName:    name,
		Date:           row[market.ColumnDate],
		MarketPrice:    row[market.ColumnMarketPrice],
		MostRecentSale: row[market.ColumnMostRecentSale],
		ListedMedian:   row[market.ColumnListedMedian],
		CurrentQty:     row[market.ColumnCurrentQty],
		CurrentSellers: row[market.ColumnCurrentSellers],
		TotalSold:      row[market.ColumnTotalSold],
		PriceChange:    row[market.ColumnPriceChange],
		QuantityChange: row[market.ColumnQuantityChange],
		DailySales:     row[market.ColumnDailySales],
	}
}

// Row returns the model's persisted columns
func (m ObservationModel) Row() Row {
	return Row{
		market.ColumnDate:           m.Date,
		market.ColumnMarketPrice:    m.MarketPrice,
		market.ColumnMostRecentSale: m.MostRecentSale,
		market.ColumnListedMedian:   m.ListedMedian,
		market.ColumnCurrentQty:     m.CurrentQty,
		market.ColumnCurrentSellers: m.CurrentSellers,
		market.ColumnTotalSold:      m.TotalSold,
		market.ColumnPriceChange:    m.PriceChange,
		market.ColumnQuantityChange: m.QuantityChange,
		market.ColumnDailySales:     m.DailySales,
	}
}

// GormStore keeps every series in a Postgres observations table
type GormStore struct {
	db *gorm.DB
}

// NewGormStore connects to Postgres and migrates the observations table
func NewGormStore(dsn string, debug bool) (*GormStore, error) {
	logLevel := gormLogger.Error
	if debug {
		logLevel = gormLogger.Info
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return NewGormStoreFromDB(db)
}

// NewGormStoreFromDB wraps an open gorm connection
func NewGormStoreFromDB(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&ObservationModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate observations table: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	logger.ForStore().Info().Msg("Connected to PostgreSQL")
	return &GormStore{db: db}, nil
}

// Load reads the series stored under key in insertion order
func (s *GormStore) Load(ctx context.Context, key string) (market.Series, error) {
	series := market.Series{Key: key}

	var models []ObservationModel
	if err := s.db.WithContext(ctx).Where("product_key = ?", key).Order("seq").Find(&models).Error; err != nil {
		return series, fmt.Errorf("failed to query %s: %w", key, err)
	}

	for _, m := range models {
		record, err := DecodeRecord(m.Row(), m.ProductName)
		if err != nil {
			return series, fmt.Errorf("%s seq %d: %w", key, m.Seq, err)
		}
		series.Append(record)
	}
	return series, nil
}

// Append inserts record after the last stored record of key
func (s *GormStore) Append(ctx context.Context, key string, record market.Record) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var next int64
		if err := tx.Model(&ObservationModel{}).
			Where("product_key = ?", key).
			Select("COALESCE(MAX(seq) + 1, 0)").
			Scan(&next).Error; err != nil {
			return fmt.Errorf("failed to read sequence of %s: %w", key, err)
		}

		model := modelFromRow(key, next, record.ProductName, EncodeRecord(record))
		if err := tx.Create(&model).Error; err != nil {
			return fmt.Errorf("failed to insert into %s: %w", key, err)
		}
		return nil
	})
}

// Close closes the underlying connection pool
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
