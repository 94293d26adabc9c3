package model

import "time"

// QueueTicket is one row of the waiting queue. The composite primary key
// enforces a single live ticket per participant and tenant.
type QueueTicket struct {
	TenantID      string    `gorm:"primaryKey;size:64;index:idx_queue_tenant_joined,priority:1"`
	ParticipantID string    `gorm:"primaryKey;size:64"`
	OriginChannel string    `gorm:"size:64"`
	JoinedAt      time.Time `gorm:"not null;index:idx_queue_tenant_joined,priority:2"`
}

func (QueueTicket) TableName() string {
	return "match_queue"
}

// Pairing is the history record written after a successful match.
type Pairing struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	TenantID     string    `gorm:"size:64;not null;index:idx_pairing_tenant_matched,priority:1" json:"tenantId"`
	RequesterID  string    `gorm:"size:64;not null" json:"requesterId"`
	PartnerID    string    `gorm:"size:64;not null" json:"partnerId"`
	PartnerWaitS int64     `json:"partnerWaitSeconds"` // seconds the partner spent in the queue
	MatchedAt    time.Time `gorm:"not null;index:idx_pairing_tenant_matched,priority:2" json:"matchedAt"`
}
