package certificate

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf16"
)

const payloadDateLayout = "2006-01-02 15:04:05"

// VerificationPayload is the record carried by the QR code. Field order in the
// encoded form is hash, name, event, date.
type VerificationPayload struct {
	Hash  string `json:"hash"`
	Name  string `json:"name"`
	Event string `json:"event"`
	Date  string `json:"date"`
}

// PayloadBuilder stamps payloads with its own render-time clock.
type PayloadBuilder struct {
	now Clock
}

func NewPayloadBuilder(now Clock) *PayloadBuilder {
	if now == nil {
		now = time.Now
	}
	return &PayloadBuilder{now: now}
}

func (b *PayloadBuilder) Build(attendeeName, eventName, certHash string) VerificationPayload {
	return VerificationPayload{
		Hash:  certHash,
		Name:  attendeeName,
		Event: eventName,
		Date:  b.now().Format(payloadDateLayout),
	}
}

// Encode serializes the payload as compact JSON restricted to ASCII;
// anything outside ASCII is written as \uXXXX escapes.
func (p VerificationPayload) Encode() (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode verification payload: %w", err)
	}
	return asciiJSON(string(raw)), nil
}

// ParsePayload decodes QR text back into a payload. All four fields must be present.
func ParsePayload(text string) (VerificationPayload, error) {
	var raw struct {
		Hash  *string `json:"hash"`
		Name  *string `json:"name"`
		Event *string `json:"event"`
		Date  *string `json:"date"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &raw); err != nil {
		return VerificationPayload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if raw.Hash == nil || raw.Name == nil || raw.Event == nil || raw.Date == nil {
		return VerificationPayload{}, fmt.Errorf("%w: hash, name, event and date are required", ErrInvalidPayload)
	}
	return VerificationPayload{
		Hash:  *raw.Hash,
		Name:  *raw.Name,
		Event: *raw.Event,
		Date:  *raw.Date,
	}, nil
}

// asciiJSON escapes non-ASCII runes. Valid for marshaled JSON since such runes
// can only occur inside string literals.
func asciiJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r < 0x80:
			b.WriteRune(r)
		case r > 0xffff:
			r1, r2 := utf16.EncodeRune(r)
			fmt.Fprintf(&b, `\u%04x\u%04x`, r1, r2)
		default:
			fmt.Fprintf(&b, `\u%04x`, r)
		}
	}
	return b.String()
}
