package models

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel provides common fields for all database models
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

// VerificationLog records one receipt verification request. It is an audit
// trail of requests served, not a purchase history.
type VerificationLog struct {
	BaseModel
	RequestID   string `json:"request_id" gorm:"size:36;uniqueIndex"`
	Endpoint    string `json:"endpoint" gorm:"size:32;index"` // verify, purchase, subscription, products
	ReceiptHash string `json:"receipt_hash" gorm:"size:64;index"`

	// Comma separated product identifiers the request asked about.
	ProductIDs string `json:"product_ids" gorm:"type:text"`

	Status      int        `json:"status"`                       // App Store status code, -1 when none was returned
	Verdict     string     `json:"verdict" gorm:"size:20;index"` // purchased, notPurchased, expired
	ExpiresDate *time.Time `json:"expires_date"`

	Success     bool      `json:"success" gorm:"index"`
	ErrorMsg    string    `json:"error_msg" gorm:"type:text"`
	IPAddress   string    `json:"ip_address" gorm:"size:45"`
	UserAgent   string    `json:"user_agent" gorm:"type:text"`
	RequestTime time.Time `json:"request_time"`
}
