package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// CustodyTimeFormat is the canonical timestamp encoding used inside custody
// record hashes. Hashes must be reproducible across implementations, so the
// format is fixed here rather than left to time.Time defaults.
const CustodyTimeFormat = time.RFC3339Nano

// CustodyRecord is one link in a sample's tamper-evident chain of custody.
// Records are immutable once appended; CurrentHash covers every field except
// itself, and PreviousHash links to the prior record's CurrentHash.
type CustodyRecord struct {
	RecordID     string    `json:"record_id"`
	SampleID     string    `json:"sample_id"`
	Timestamp    time.Time `json:"timestamp"`
	EventType    string    `json:"event_type"` // Registered, Moved, Status Changed, Photo Documentation
	FromLocation string    `json:"from_location"`
	ToLocation   string    `json:"to_location"`
	HandledBy    string    `json:"handled_by"`
	Temperature  *float64  `json:"temperature,omitempty"`
	Humidity     *float64  `json:"humidity,omitempty"`
	Photos       []string  `json:"photos,omitempty"`
	Notes        string    `json:"notes"`
	PreviousHash *string   `json:"previous_hash"`
	CurrentHash  string    `json:"current_hash"`
}

// CalculateHash returns the lower-case hex SHA-256 digest of the record's
// canonical serialization. encoding/json emits map keys in sorted order,
// which gives the deterministic key ordering the chain depends on.
func (r *CustodyRecord) CalculateHash() string {
	fields := map[string]interface{}{
		"record_id":     r.RecordID,
		"sample_id":     r.SampleID,
		"timestamp":     r.Timestamp.UTC().Format(CustodyTimeFormat),
		"event_type":    r.EventType,
		"from_location": r.FromLocation,
		"to_location":   r.ToLocation,
		"handled_by":    r.HandledBy,
		"temperature":   r.Temperature,
		"humidity":      r.Humidity,
		"notes":         r.Notes,
		"previous_hash": r.PreviousHash,
	}

	canonical, _ := json.Marshal(fields)
	digest := sha256.Sum256(canonical)
	return hex.EncodeToString(digest[:])
}

// VerifyHash recomputes the record hash and compares it to the stored value
func (r *CustodyRecord) VerifyHash() bool {
	return r.CurrentHash == r.CalculateHash()
}

// ChainVerification is the result of verifying a sample's full custody chain
type ChainVerification struct {
	Valid        bool     `json:"valid"`
	TotalRecords int      `json:"total_records"`
	Errors       []string `json:"errors"`
}
