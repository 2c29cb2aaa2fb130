package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() CustodyRecord {
	temp := 22.5
	prev := "abc123"
	return CustodyRecord{
		RecordID:     "COC_AAAABBBBCCCC",
		SampleID:     "SAMPLE_12345678",
		Timestamp:    time.Date(2025, 3, 14, 9, 26, 53, 589793000, time.UTC),
		EventType:    "Moved",
		FromLocation: "Receiving",
		ToLocation:   "Test Lab 1",
		HandledBy:    "tech-01",
		Temperature:  &temp,
		Notes:        "routine transfer",
		PreviousHash: &prev,
	}
}

func TestCalculateHashDeterministic(t *testing.T) {
	r := sampleRecord()
	first := r.CalculateHash()
	second := r.CalculateHash()

	require.Len(t, first, 64)
	assert.Equal(t, first, second)
}

func TestCalculateHashCoversFields(t *testing.T) {
	base := sampleRecord()
	baseHash := base.CalculateHash()

	mutations := map[string]func(*CustodyRecord){
		"record_id":     func(r *CustodyRecord) { r.RecordID = "COC_OTHER" },
		"sample_id":     func(r *CustodyRecord) { r.SampleID = "SAMPLE_OTHER" },
		"timestamp":     func(r *CustodyRecord) { r.Timestamp = r.Timestamp.Add(time.Nanosecond) },
		"event_type":    func(r *CustodyRecord) { r.EventType = "Registered" },
		"to_location":   func(r *CustodyRecord) { r.ToLocation = "Storage" },
		"handled_by":    func(r *CustodyRecord) { r.HandledBy = "tech-02" },
		"notes":         func(r *CustodyRecord) { r.Notes = "edited" },
		"previous_hash": func(r *CustodyRecord) { r.PreviousHash = nil },
	}

	for name, mutate := range mutations {
		r := sampleRecord()
		mutate(&r)
		assert.NotEqual(t, baseHash, r.CalculateHash(), "mutating %s must change the hash", name)
	}
}

func TestCalculateHashIgnoresPhotos(t *testing.T) {
	r := sampleRecord()
	baseHash := r.CalculateHash()

	r.Photos = []string{"photo1.jpg", "photo2.jpg"}
	assert.Equal(t, baseHash, r.CalculateHash())
}

func TestCalculateHashTimezoneNormalized(t *testing.T) {
	r := sampleRecord()
	baseHash := r.CalculateHash()

	r.Timestamp = r.Timestamp.In(time.FixedZone("CET", 3600))
	assert.Equal(t, baseHash, r.CalculateHash())
}

func TestVerifyHash(t *testing.T) {
	r := sampleRecord()
	r.CurrentHash = r.CalculateHash()
	assert.True(t, r.VerifyHash())

	r.Notes = "tampered"
	assert.False(t, r.VerifyHash())
}
