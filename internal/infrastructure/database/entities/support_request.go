package entities

import "time"

// SupportRequest represents a persisted support-request intake.
type SupportRequest struct {
	ID         string `gorm:"type:varchar(40);primaryKey"`
	Name       string `gorm:"type:varchar(100)"`
	Email      string `gorm:"type:varchar(255)"`
	Type       string `gorm:"type:varchar(20);not null"`
	Message    string `gorm:"type:varchar(2000);not null"`
	Status     string `gorm:"type:varchar(20);not null;default:pending"`
	Priority   string `gorm:"type:varchar(10);not null;default:medium"`
	AssignedTo string `gorm:"type:varchar(100)"`
	ResolvedAt *time.Time
	IPAddress  string    `gorm:"type:varchar(64)"`
	UserAgent  string    `gorm:"type:varchar(512)"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (SupportRequest) TableName() string {
	return "support_requests"
}

// SupportNote is one append-only note attached to a support request.
type SupportNote struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	RequestID string    `gorm:"type:varchar(40);not null;index"`
	Content   string    `gorm:"type:varchar(1000);not null"`
	Author    string    `gorm:"type:varchar(100)"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (SupportNote) TableName() string {
	return "support_notes"
}
