package domain

import "time"

// AuditLog represents one auth audit event (sign-in, refresh, replay
// detection, sign-out, permission denial).
type AuditLog struct {
	ID         string    `json:"id"`
	IdentityID string    `json:"identityId"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	IP         string    `json:"ip"`
	Metadata   string    `json:"metadata"`
	CreatedAt  time.Time `json:"createdAt"`
}
