package entities

import "time"

// AccessEvent is one append-only entry of an evidence record's access log.
type AccessEvent struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	RecordID  string    `gorm:"type:varchar(40);not null;index:idx_access_events_record"`
	Action    string    `gorm:"type:varchar(16);not null"`
	IPAddress string    `gorm:"type:varchar(64)"`
	UserAgent string    `gorm:"type:varchar(512)"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (AccessEvent) TableName() string {
	return "access_events"
}
