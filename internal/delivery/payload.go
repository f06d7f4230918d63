package delivery

import (
	"bytes"
	"encoding/json"

	"push-agent/internal/common/validation"
	"push-agent/internal/store"
	"push-agent/pkg/wire"
)

// ==========================
// Payload Parsing
// ==========================

// Parser turns the untrusted raw push data into a payload. It never fails:
// data that is not valid payload JSON is demoted to a plain-text body, and
// empty data yields an all-defaults payload.
type Parser struct {
	validator *validation.Validator
}

func NewParser() (*Parser, error) {
	v, err := validation.NewValidator(wire.PayloadSchema)
	if err != nil {
		return nil, err
	}
	return &Parser{validator: v}, nil
}

func (p *Parser) Parse(raw []byte) ParsedPayload {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ParsedPayload{Source: SourceEmpty}
	}

	if result := p.validator.ValidateBytes(raw); result.Valid {
		var payload wire.Payload
		if err := json.Unmarshal(raw, &payload); err == nil {
			return ParsedPayload{Payload: payload, Source: SourceJSON}
		}
	}

	// Anything else is shown verbatim as the body rather than dropped.
	return ParsedPayload{
		Payload: wire.Payload{Body: string(raw)},
		Source:  SourceText,
	}
}

// ==========================
// Render Decision
// ==========================

// Decide applies the recipient and preference checks to one payload. A
// targeted payload renders only for the mirrored identity; with no identity
// mirrored the check fails closed. The preference check fails open: the
// snapshot already defaults to receiving when the mirror is unreadable.
func Decide(payload wire.Payload, snapshot store.Snapshot) Decision {
	if target := payload.TargetUserID(); target != "" {
		if !snapshot.IdentityKnown {
			return Decision{Reason: SuppressIdentityUnknown}
		}
		if snapshot.Identity != target {
			return Decision{Reason: SuppressWrongRecipient}
		}
	}

	if !snapshot.Receive {
		return Decision{Reason: SuppressPreference}
	}

	return Decision{Render: true}
}
