package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tunetrace/tunetrace/pkg/models"
)

const DefaultDBFile = "tunetrace.sqlite3"

var errClientNil = errors.New("db client is nil")

// Client persists scans and their tags in a local sqlite database.
type Client struct {
	DB *gorm.DB
	db *sql.DB
}

type Scan struct {
	ID              string `gorm:"primaryKey;type:varchar(36)"`
	Source          string `gorm:"index:idx_scan_source"`
	DataOffset      int64
	SampleRate      int64
	FingerprintRate int64
	Duration        int64
	TagCount        int64
	CreatedAt       time.Time
}

type Tag struct {
	ID                       uint   `gorm:"primaryKey;autoIncrement"`
	ScanID                   string `gorm:"type:varchar(36);index:idx_tag_scan"`
	DataPosition             int64
	MostSimilarFramePosition int64
	Score                    float64
	Similarity               float64
	Description              string `gorm:"type:text"`
}

// NewClient opens (creating if needed) the sqlite database at dbPath.
// An empty path falls back to TUNETRACE_DB_PATH, then DefaultDBFile.
func NewClient(dbPath string) (*Client, error) {
	if dbPath == "" {
		dbPath = os.Getenv("TUNETRACE_DB_PATH")
	}
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Scan{}, &Tag{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &Client{DB: db, db: sqlDB}, nil
}

func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// SaveScan stores a scan and its tags. Tags are batch-inserted.
func (c *Client) SaveScan(rec *models.ScanRecord) error {
	if c == nil || c.DB == nil {
		return errClientNil
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		row := Scan{
			ID:              rec.ID,
			Source:          rec.Source,
			DataOffset:      rec.DataOffset,
			SampleRate:      rec.SampleRate,
			FingerprintRate: rec.FingerprintRate,
			Duration:        rec.Duration,
			TagCount:        int64(len(rec.Tags)),
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("creating scan: %w", err)
		}
		if len(rec.Tags) == 0 {
			return nil
		}
		tags := make([]Tag, 0, len(rec.Tags))
		for _, t := range rec.Tags {
			tags = append(tags, Tag{
				ScanID:                   rec.ID,
				DataPosition:             t.DataPosition,
				MostSimilarFramePosition: t.MostSimilarFramePosition,
				Score:                    t.Score,
				Similarity:               t.Similarity,
				Description:              t.Description,
			})
		}
		if err := tx.CreateInBatches(tags, 500).Error; err != nil {
			return fmt.Errorf("batch insert tags: %w", err)
		}
		return nil
	})
}

// GetScan loads one scan with its tags, ordered by position.
func (c *Client) GetScan(id string) (*models.ScanRecord, error) {
	if c == nil || c.DB == nil {
		return nil, errClientNil
	}
	var row Scan
	if err := c.DB.Where("id = ?", id).First(&row).Error; err != nil {
		return nil, fmt.Errorf("querying scan: %w", err)
	}
	var tagRows []Tag
	if err := c.DB.Where("scan_id = ?", id).Order("data_position").Find(&tagRows).Error; err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	rec := recordFromRow(row)
	rec.Tags = make([]models.Tag, 0, len(tagRows))
	for _, t := range tagRows {
		rec.Tags = append(rec.Tags, models.Tag{
			DataPosition:             t.DataPosition,
			MostSimilarFramePosition: t.MostSimilarFramePosition,
			Score:                    t.Score,
			Similarity:               t.Similarity,
			Description:              t.Description,
		})
	}
	return rec, nil
}

// ListScans returns all scans, newest first, without tags.
func (c *Client) ListScans() ([]models.ScanRecord, error) {
	if c == nil || c.DB == nil {
		return nil, errClientNil
	}
	var rows []Scan
	if err := c.DB.Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing scans: %w", err)
	}
	out := make([]models.ScanRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, *recordFromRow(row))
	}
	return out, nil
}

// DeleteScan removes a scan and its tags.
func (c *Client) DeleteScan(id string) error {
	if c == nil || c.DB == nil {
		return errClientNil
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("scan_id = ?", id).Delete(&Tag{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&Scan{}).Error
	})
}

func recordFromRow(row Scan) *models.ScanRecord {
	return &models.ScanRecord{
		ID:              row.ID,
		Source:          row.Source,
		DataOffset:      row.DataOffset,
		SampleRate:      row.SampleRate,
		FingerprintRate: row.FingerprintRate,
		Duration:        row.Duration,
		TagCount:        row.TagCount,
		CreatedAt:       row.CreatedAt,
	}
}
