package match

import "time"

// Ticket is one participant's open request to be paired within a tenant.
type Ticket struct {
	ParticipantID string    `json:"participantId"`
	TenantID      string    `json:"tenantId"`
	OriginChannel string    `json:"originChannel,omitempty"`
	JoinedAt      time.Time `json:"joinedAt"`
}

type Request struct {
	ParticipantID string
	TenantID      string
	OriginChannel string
}

type Outcome string

const (
	OutcomeMatched  Outcome = "matched"
	OutcomeEnqueued Outcome = "waiting"
)

type Result struct {
	Outcome   Outcome `json:"status"`
	PartnerID string  `json:"partnerId,omitempty"`
	// PartnerJoinedAt is when the consumed partner ticket was enqueued.
	PartnerJoinedAt time.Time `json:"-"`
}

func (r Result) Matched() bool {
	return r.Outcome == OutcomeMatched
}

type QueueStatus string

const (
	QueueStatusIdle    QueueStatus = "idle"
	QueueStatusWaiting QueueStatus = "waiting"
)

type StatusResult struct {
	Status   QueueStatus `json:"status"`
	TenantID string      `json:"tenantId"`
	JoinedAt *time.Time  `json:"joinedAt,omitempty"`
}
