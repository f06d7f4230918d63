package delivery

import (
	"push-agent/pkg/wire"
)

// ==========================
// Decision Model
// ==========================

// SuppressReason explains why a delivered payload produced no notification.
type SuppressReason string

const (
	// SuppressNone means the payload should be rendered.
	SuppressNone SuppressReason = ""
	// SuppressPreference means the user turned notifications off.
	SuppressPreference SuppressReason = "preference_disabled"
	// SuppressWrongRecipient means the payload targets a different user than
	// the one mirrored locally.
	SuppressWrongRecipient SuppressReason = "wrong_recipient"
	// SuppressIdentityUnknown means the payload is targeted but no local
	// identity is mirrored to compare against.
	SuppressIdentityUnknown SuppressReason = "identity_unknown"
)

// Decision is the outcome of the render-or-suppress check for one payload.
type Decision struct {
	Render bool
	Reason SuppressReason
}

// ParsedPayload is a payload plus how it was obtained from the raw event
// data. Source is recorded for logging only.
type ParsedPayload struct {
	Payload wire.Payload
	Source  PayloadSource
}

// PayloadSource tells which parsing path produced the payload.
type PayloadSource string

const (
	SourceJSON  PayloadSource = "json"
	SourceText  PayloadSource = "text"
	SourceEmpty PayloadSource = "empty"
)
