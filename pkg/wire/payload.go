// Package wire defines the inbound push payload contract shared between the
// backend dispatcher and the delivery worker.
package wire

// Payload is the untrusted JSON body delivered through the push channel.
// Every field is optional; absence falls back to a fixed default.
type Payload struct {
	Title          string       `json:"title,omitempty"`
	Body           string       `json:"body,omitempty"`
	URL            string       `json:"url,omitempty"`
	Tag            string       `json:"tag,omitempty"`
	NotificationID string       `json:"notificationId,omitempty"`
	Urgent         bool         `json:"urgent,omitempty"`
	Data           *PayloadData `json:"data,omitempty"`
}

// PayloadData carries the addressing metadata used by the security filter.
type PayloadData struct {
	TargetUserID string `json:"targetUserId,omitempty"`
}

// TargetUserID returns the payload's target user, or "" when untargeted.
func (p Payload) TargetUserID() string {
	if p.Data == nil {
		return ""
	}
	return p.Data.TargetUserID
}

// Click action identifiers.
const (
	ActionView     = "view"
	ActionMarkRead = "mark-read"
	ActionDismiss  = "dismiss"
)
