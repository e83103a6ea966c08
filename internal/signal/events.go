package signal

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// Source identifies the alert channel an event originated from. Lifecycle
// events are only honored when their source matches the source recorded on
// the open position.
type Source string

const (
	SourcePrimary   Source = "primary"
	SourceSecondary Source = "secondary"
)

// Kind enumerates the closed set of recognized alert events.
type Kind string

const (
	KindEntry          Kind = "ENTRY"
	KindEntryTriggered Kind = "ENTRY_TRIGGERED"
	KindTrim           Kind = "TRIM"
	KindTargetHit      Kind = "TARGET_HIT"
	KindTarget2Hit     Kind = "TARGET2_HIT"
	KindStopLoss       Kind = "STOP_LOSS"
	KindStoppedOut     Kind = "STOPPED_OUT"
)

// Event is a classified alert. Fingerprint returns the semantic dedup key for
// events that describe a concrete real-world occurrence; ok is false for
// events deduplicated by transport message id alone.
type Event interface {
	Kind() Kind
	Source() Source
	Fingerprint() (EventKey, bool)
}

// EventKey is a deterministic composite fingerprint over an event's numeric
// and time fields. Two transport deliveries of the same real-world event hash
// to the same key.
type EventKey string

// NewEventKey derives the fingerprint from a label (symbol or event tag), two
// price-like values, a magnitude, and the alert's own time string.
func NewEventKey(label string, a, b, magnitude float64, ts string) EventKey {
	payload := label + "|" +
		strconv.FormatFloat(a, 'f', 4, 64) + "|" +
		strconv.FormatFloat(b, 'f', 4, 64) + "|" +
		strconv.FormatFloat(magnitude, 'f', 4, 64) + "|" +
		ts
	sum := sha256.Sum256([]byte(payload))
	return EventKey(hex.EncodeToString(sum[:]))
}

// Entry is a letter-coded entry alert from the primary channel, e.g.
// "ES long 5000.25 B stop 4990".
type Entry struct {
	Src       Source
	Direction string // "long" | "short"
	Price     float64
	Letter    string
	StopValue float64
}

func (e Entry) Kind() Kind                    { return KindEntry }
func (e Entry) Source() Source                { return e.Src }
func (e Entry) Fingerprint() (EventKey, bool) { return "", false }

// EntryTriggered is a score-gated entry alert from the secondary channel.
type EntryTriggered struct {
	Src      Source
	Symbol   string
	Interval int
	Level    float64
	Score    string // "n/m"
	Price    float64
	Time     string
}

func (e EntryTriggered) Kind() Kind     { return KindEntryTriggered }
func (e EntryTriggered) Source() Source { return e.Src }
func (e EntryTriggered) Fingerprint() (EventKey, bool) {
	return NewEventKey(e.Symbol, e.Price, e.Price, 0, e.Time), true
}

// Trim requests a partial close of numerator/denominator of the original
// quantities. Timestamp is the transport timestamp used for the fingerprint.
type Trim struct {
	Src         Source
	Numerator   int
	Denominator int
	Timestamp   string
}

func (e Trim) Kind() Kind     { return KindTrim }
func (e Trim) Source() Source { return e.Src }
func (e Trim) Fingerprint() (EventKey, bool) {
	return NewEventKey("trim", float64(e.Numerator), float64(e.Denominator), 0, e.Timestamp), true
}

// TargetHit marks the first profit target.
type TargetHit struct {
	Src         Source
	Symbol      string
	Interval    int
	Level       float64
	TargetPrice float64
	EntryPrice  float64
	Profit      float64
	Time        string
}

func (e TargetHit) Kind() Kind     { return KindTargetHit }
func (e TargetHit) Source() Source { return e.Src }
func (e TargetHit) Fingerprint() (EventKey, bool) {
	return NewEventKey(e.Symbol, e.TargetPrice, e.EntryPrice, e.Profit, e.Time), true
}

// Target2Hit marks the second profit target; the remainder closes in full.
type Target2Hit struct {
	Src         Source
	Symbol      string
	Interval    int
	Level       float64
	TargetPrice float64
	EntryPrice  float64
	Profit      float64
	Time        string
}

func (e Target2Hit) Kind() Kind     { return KindTarget2Hit }
func (e Target2Hit) Source() Source { return e.Src }
func (e Target2Hit) Fingerprint() (EventKey, bool) {
	return NewEventKey(e.Symbol, e.TargetPrice, e.EntryPrice, e.Profit, e.Time), true
}

// StopLoss marks a stop-loss exit. Simple distinguishes the short text form
// that carries no explicit time field.
type StopLoss struct {
	Src        Source
	Symbol     string
	Interval   int
	Level      float64
	EntryPrice float64
	ExitPrice  float64
	Loss       float64
	Time       string
	Simple     bool
}

func (e StopLoss) Kind() Kind     { return KindStopLoss }
func (e StopLoss) Source() Source { return e.Src }
func (e StopLoss) Fingerprint() (EventKey, bool) {
	return NewEventKey(e.Symbol, e.ExitPrice, e.EntryPrice, e.Loss, e.Time), true
}

// StoppedOut is an external flatten instruction; it carries no fields beyond
// its source and is idempotent against a flat book.
type StoppedOut struct {
	Src Source
}

func (e StoppedOut) Kind() Kind                    { return KindStoppedOut }
func (e StoppedOut) Source() Source                { return e.Src }
func (e StoppedOut) Fingerprint() (EventKey, bool) { return "", false }

// ParseError reports a message that matched a pattern but carried a malformed
// field. The event is dropped, never retried.
type ParseError struct {
	Pattern string
	Field   string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: field %s: %v", e.Pattern, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
