package services

import (
	"context"
	"fmt"
	"time"

	"iapkit/internal/models"

	"gorm.io/gorm"
)

// AuditLogger records verification attempts.
type AuditLogger interface {
	LogVerification(ctx context.Context, entry *models.VerificationLog) error
	GetVerificationStats(ctx context.Context, days int) (map[string]interface{}, error)
}

// AuditService stores the verification log with gorm.
type AuditService struct {
	db *gorm.DB
}

// NewAuditService creates a new audit service
func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// LogVerification logs a verification attempt
func (s *AuditService) LogVerification(ctx context.Context, entry *models.VerificationLog) error {
	if entry.RequestTime.IsZero() {
		entry.RequestTime = time.Now()
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to log verification attempt: %w", err)
	}

	return nil
}

// GetVerificationStats gets verification statistics for the last days
func (s *AuditService) GetVerificationStats(ctx context.Context, days int) (map[string]interface{}, error) {
	stats := make(map[string]interface{})
	startDate := time.Now().AddDate(0, 0, -days)
	db := s.db.WithContext(ctx)

	// Total verifications
	var total int64
	if err := db.Model(&models.VerificationLog{}).
		Where("created_at >= ?", startDate).
		Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count verifications: %w", err)
	}
	stats["total_verifications"] = total

	// Successful verifications
	var successful int64
	if err := db.Model(&models.VerificationLog{}).
		Where("success = ? AND created_at >= ?", true, startDate).
		Count(&successful).Error; err != nil {
		return nil, fmt.Errorf("failed to count successful verifications: %w", err)
	}
	stats["successful_verifications"] = successful
	stats["failed_verifications"] = total - successful

	// Success rate
	if total > 0 {
		stats["success_rate"] = float64(successful) / float64(total) * 100
	} else {
		stats["success_rate"] = 0.0
	}

	// Verdict breakdown
	var verdicts []struct {
		Verdict string
		Count   int64
	}
	if err := db.Model(&models.VerificationLog{}).
		Select("verdict, COUNT(*) as count").
		Where("verdict <> '' AND created_at >= ?", startDate).
		Group("verdict").
		Scan(&verdicts).Error; err != nil {
		return nil, fmt.Errorf("failed to group verdicts: %w", err)
	}
	byVerdict := make(map[string]int64, len(verdicts))
	for _, v := range verdicts {
		byVerdict[v.Verdict] = v.Count
	}
	stats["verdicts"] = byVerdict

	// Daily breakdown
	var dailyStats []map[string]interface{}
	if err := db.Raw(`
		SELECT
			DATE(created_at) as date,
			COUNT(*) as verifications,
			SUM(CASE WHEN success = true THEN 1 ELSE 0 END) as successful_verifications
		FROM verification_log
		WHERE created_at >= ? AND deleted_at IS NULL
		GROUP BY DATE(created_at)
		ORDER BY date DESC
	`, startDate).Scan(&dailyStats).Error; err != nil {
		return nil, fmt.Errorf("failed to build daily breakdown: %w", err)
	}
	stats["daily_breakdown"] = dailyStats

	return stats, nil
}
