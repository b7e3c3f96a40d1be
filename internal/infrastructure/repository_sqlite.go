package infrastructure

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/stream-master-go/internal/domain"
)

// SQLiteHistoryRepository implements HistoryRepository using SQLite
type SQLiteHistoryRepository struct {
	db *gorm.DB
}

// NewSQLiteHistoryRepository creates a new SQLite history repository
func NewSQLiteHistoryRepository(dbPath string) (*SQLiteHistoryRepository, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.HistoryRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteHistoryRepository{db: db}, nil
}

// Record stores a finished job
func (r *SQLiteHistoryRepository) Record(record *domain.HistoryRecord) error {
	return r.db.Create(record).Error
}

// FindByID finds a record by job id
func (r *SQLiteHistoryRepository) FindByID(id string) (*domain.HistoryRecord, error) {
	var record domain.HistoryRecord
	if err := r.db.First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// FindRecent returns the most recent records, newest first
func (r *SQLiteHistoryRepository) FindRecent(limit int) ([]*domain.HistoryRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []*domain.HistoryRecord
	err := r.db.Order("finished_at DESC").Limit(limit).Find(&records).Error
	return records, err
}

// FindByStatus returns records with the given terminal status
func (r *SQLiteHistoryRepository) FindByStatus(status domain.JobStatus) ([]*domain.HistoryRecord, error) {
	var records []*domain.HistoryRecord
	err := r.db.Where("status = ?", status).Order("finished_at DESC").Find(&records).Error
	return records, err
}

// GetStats returns aggregate download statistics
func (r *SQLiteHistoryRepository) GetStats() (*domain.HistoryStats, error) {
	stats := &domain.HistoryStats{}

	if err := r.db.Model(&domain.HistoryRecord{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&domain.HistoryRecord{}).
		Where("status = ?", domain.StatusCompleted).
		Count(&stats.Completed).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&domain.HistoryRecord{}).
		Where("status = ?", domain.StatusError).
		Count(&stats.Failed).Error; err != nil {
		return nil, err
	}

	var totalBytes *int64
	if err := r.db.Model(&domain.HistoryRecord{}).
		Where("status = ?", domain.StatusCompleted).
		Select("SUM(output_bytes)").
		Scan(&totalBytes).Error; err != nil {
		return nil, err
	}
	if totalBytes != nil {
		stats.TotalBytes = *totalBytes
	}

	return stats, nil
}

// Close closes the underlying database connection
func (r *SQLiteHistoryRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
