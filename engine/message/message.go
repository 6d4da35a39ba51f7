// Package message defines the value records elements exchange through the
// element store. Messages are plain data: a sender label, a recipient label,
// a creation timestamp, and a key→Variant payload map. They carry no handles,
// so delivery order between elements never creates aliasing.
package message

import "time"

// MaxAge is how long an undeliverable message may sit in the queue before it
// is dropped with a warning on the next update.
const MaxAge = 5 * time.Second

// VariantKind discriminates the Variant union.
type VariantKind int

const (
	// VariantBool holds a boolean payload.
	VariantBool VariantKind = iota

	// VariantInt holds a signed integer payload.
	VariantInt

	// VariantFloat holds a float64 payload.
	VariantFloat

	// VariantString holds a string payload.
	VariantString

	// VariantVec3 holds a three-component float payload.
	VariantVec3
)

// Variant is a single typed payload value.
type Variant struct {
	// Kind selects which field is meaningful.
	Kind VariantKind

	// Bool is the payload for VariantBool.
	Bool bool

	// Int is the payload for VariantInt.
	Int int64

	// Float is the payload for VariantFloat.
	Float float64

	// Str is the payload for VariantString.
	Str string

	// Vec3 is the payload for VariantVec3.
	Vec3 [3]float32
}

// Bool wraps a boolean payload.
//
// Parameters:
//   - v: the value to wrap
//
// Returns:
//   - Variant: the wrapped payload
func Bool(v bool) Variant { return Variant{Kind: VariantBool, Bool: v} }

// Int wraps an integer payload.
//
// Parameters:
//   - v: the value to wrap
//
// Returns:
//   - Variant: the wrapped payload
func Int(v int64) Variant { return Variant{Kind: VariantInt, Int: v} }

// Float wraps a float payload.
//
// Parameters:
//   - v: the value to wrap
//
// Returns:
//   - Variant: the wrapped payload
func Float(v float64) Variant { return Variant{Kind: VariantFloat, Float: v} }

// String wraps a string payload.
//
// Parameters:
//   - v: the value to wrap
//
// Returns:
//   - Variant: the wrapped payload
func String(v string) Variant { return Variant{Kind: VariantString, Str: v} }

// Vec3 wraps a vector payload.
//
// Parameters:
//   - v: the value to wrap
//
// Returns:
//   - Variant: the wrapped payload
func Vec3(v [3]float32) Variant { return Variant{Kind: VariantVec3, Vec3: v} }

// Message is a single element-to-element message. Identity is the
// (From, To, CreatedAt) tuple; a message is delivered at most once.
type Message struct {
	// From is the sender's label.
	From string

	// To is the recipient label. Every element tagged with this label
	// receives the message.
	To string

	// CreatedAt is the wall-clock creation time used for expiry.
	CreatedAt time.Time

	// Payload maps payload keys to typed values.
	Payload map[string]Variant
}

// New creates a message stamped with the current time.
//
// Parameters:
//   - from: the sender label
//   - to: the recipient label
//   - payload: the key→value payload (may be nil)
//
// Returns:
//   - Message: the stamped message
func New(from, to string, payload map[string]Variant) Message {
	return Message{
		From:      from,
		To:        to,
		CreatedAt: time.Now(),
		Payload:   payload,
	}
}

// Expired reports whether the message has exceeded MaxAge as of now.
//
// Parameters:
//   - now: the current wall-clock time
//
// Returns:
//   - bool: true if the message should be dropped
func (m Message) Expired(now time.Time) bool {
	return now.Sub(m.CreatedAt) >= MaxAge
}
