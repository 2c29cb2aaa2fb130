package custody

import (
	"strings"
	"testing"
	"time"

	"lab-orchestrator/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker() *Tracker {
	t := NewTracker(nil)
	base := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	step := 0
	t.nowFunc = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Minute)
	}
	return t
}

func registerSample(t *Tracker) *models.Sample {
	return t.RegisterSample(RegisterRequest{
		Name:         "Mono PERC 400W",
		SampleType:   "Module",
		Manufacturer: "SunCo",
		Model:        "SC-400M",
		SerialNumber: "SN-001",
		RegisteredBy: "tech-01",
	})
}

func TestRegisterSample(t *testing.T) {
	tracker := newTestTracker()
	sample := registerSample(tracker)

	require.NotNil(t, sample)
	assert.True(t, strings.HasPrefix(sample.ID, "SAMPLE_"))
	assert.Len(t, sample.ID, len("SAMPLE_")+8)
	assert.Equal(t, models.SampleRegistered, sample.Status)
	assert.Equal(t, "Receiving", sample.CurrentLocation)
	assert.Equal(t, 1, sample.Quantity)
	assert.NotEmpty(t, sample.QRCode)
	assert.NotEmpty(t, sample.Barcode)

	chain := tracker.GetChainOfCustody(sample.ID)
	require.Len(t, chain, 1)
	assert.Equal(t, "Registered", chain[0].EventType)
	assert.Equal(t, "", chain[0].FromLocation)
	assert.Equal(t, "Receiving", chain[0].ToLocation)
	assert.Nil(t, chain[0].PreviousHash)
	assert.True(t, chain[0].VerifyHash())
}

func TestMoveSampleLinksChain(t *testing.T) {
	tracker := newTestTracker()
	sample := registerSample(tracker)

	temp := 21.0
	ok := tracker.MoveSample(sample.ID, "Test Lab 1", "tech-02", &temp, nil, nil, "for STC test")
	require.True(t, ok)

	moved := tracker.GetSample(sample.ID)
	assert.Equal(t, "Test Lab 1", moved.CurrentLocation)

	chain := tracker.GetChainOfCustody(sample.ID)
	require.Len(t, chain, 2)
	assert.Equal(t, "Moved", chain[1].EventType)
	assert.Equal(t, "Receiving", chain[1].FromLocation)
	assert.Equal(t, "Test Lab 1", chain[1].ToLocation)
	require.NotNil(t, chain[1].PreviousHash)
	assert.Equal(t, chain[0].CurrentHash, *chain[1].PreviousHash)
}

func TestMoveUnknownSample(t *testing.T) {
	tracker := newTestTracker()
	assert.False(t, tracker.MoveSample("SAMPLE_NOPE", "Anywhere", "tech", nil, nil, nil, ""))
}

func TestUpdateSampleStatus(t *testing.T) {
	tracker := newTestTracker()
	sample := registerSample(tracker)

	ok := tracker.UpdateSampleStatus(sample.ID, models.SampleInTesting, "tech-01", "")
	require.True(t, ok)

	updated := tracker.GetSample(sample.ID)
	assert.Equal(t, models.SampleInTesting, updated.Status)

	chain := tracker.GetChainOfCustody(sample.ID)
	require.Len(t, chain, 2)
	assert.Equal(t, "Status Changed: Registered -> In Testing", chain[1].EventType)
}

func TestAddPhotoDocumentation(t *testing.T) {
	tracker := newTestTracker()
	sample := registerSample(tracker)

	ok := tracker.AddPhotoDocumentation(sample.ID, []string{"front.jpg", "back.jpg"}, "tech-01", "intake photos")
	require.True(t, ok)

	updated := tracker.GetSample(sample.ID)
	assert.Equal(t, []string{"front.jpg", "back.jpg"}, updated.Photos)

	chain := tracker.GetChainOfCustody(sample.ID)
	require.Len(t, chain, 2)
	assert.Equal(t, "Photo Documentation", chain[1].EventType)
}

func TestVerifyChainIntegrityValid(t *testing.T) {
	tracker := newTestTracker()
	sample := registerSample(tracker)
	tracker.MoveSample(sample.ID, "Test Lab 1", "tech-02", nil, nil, nil, "")
	tracker.MoveSample(sample.ID, "Storage", "tech-02", nil, nil, nil, "")

	verification := tracker.VerifyChainIntegrity(sample.ID)
	assert.True(t, verification.Valid)
	assert.Equal(t, 3, verification.TotalRecords)
	assert.Empty(t, verification.Errors)
}

func TestVerifyChainIntegrityUnknownSample(t *testing.T) {
	tracker := newTestTracker()
	verification := tracker.VerifyChainIntegrity("SAMPLE_NOPE")
	assert.False(t, verification.Valid)
	assert.Equal(t, []string{"No chain of custody found"}, verification.Errors)
}

func TestVerifyChainIntegrityDetectsTampering(t *testing.T) {
	tracker := newTestTracker()
	sample := registerSample(tracker)
	tracker.MoveSample(sample.ID, "Test Lab 1", "tech-02", nil, nil, nil, "")
	tracker.MoveSample(sample.ID, "Storage", "tech-02", nil, nil, nil, "")
	tracker.MoveSample(sample.ID, "Archive", "tech-02", nil, nil, nil, "")

	// Tamper with the second record behind the tracker's back
	tracker.chains[sample.ID][1].ToLocation = "Competitor Lab"

	verification := tracker.VerifyChainIntegrity(sample.ID)
	require.False(t, verification.Valid)

	assert.Contains(t, verification.Errors, "Record 1: Hash verification failed")
	// Every record after the tampered one is flagged too
	assert.Contains(t, verification.Errors, "Record 2: Chain break - follows tampered record")
	assert.Contains(t, verification.Errors, "Record 3: Chain break - follows tampered record")
}

func TestVerifyChainIntegrityDetectsLinkBreak(t *testing.T) {
	tracker := newTestTracker()
	sample := registerSample(tracker)
	tracker.MoveSample(sample.ID, "Test Lab 1", "tech-02", nil, nil, nil, "")

	// Rewrite the link and recompute the hash so only linkage is broken
	bogus := "0000000000000000"
	record := tracker.chains[sample.ID][1]
	record.PreviousHash = &bogus
	record.CurrentHash = record.CalculateHash()

	verification := tracker.VerifyChainIntegrity(sample.ID)
	require.False(t, verification.Valid)
	assert.Contains(t, verification.Errors, "Record 1: Chain break - previous hash mismatch")
}

func TestSearchSamples(t *testing.T) {
	tracker := newTestTracker()
	registerSample(tracker)
	tracker.RegisterSample(RegisterRequest{
		Name:         "Poly 330W",
		SampleType:   "Module",
		Manufacturer: "OtherCorp",
		Model:        "OC-330P",
		SerialNumber: "SN-777",
	})

	assert.Len(t, tracker.SearchSamples("sunco"), 1)
	assert.Len(t, tracker.SearchSamples("330"), 1)
	assert.Len(t, tracker.SearchSamples("module"), 0)
}

func TestGetSampleHistory(t *testing.T) {
	tracker := newTestTracker()
	sample := registerSample(tracker)
	tracker.MoveSample(sample.ID, "Test Lab 1", "tech-02", nil, nil, nil, "")

	history, ok := tracker.GetSampleHistory(sample.ID)
	require.True(t, ok)
	assert.Equal(t, sample.ID, history.Sample.ID)
	assert.Equal(t, 2, history.TotalEvents)
	assert.Equal(t, "Test Lab 1", history.CurrentLocation)

	_, ok = tracker.GetSampleHistory("SAMPLE_NOPE")
	assert.False(t, ok)
}

func TestGetStatistics(t *testing.T) {
	tracker := newTestTracker()
	a := registerSample(tracker)
	registerSample(tracker)
	tracker.MoveSample(a.ID, "Test Lab 1", "tech-02", nil, nil, nil, "")

	stats := tracker.GetStatistics()
	assert.Equal(t, 2, stats.TotalSamples)
	assert.Equal(t, 3, stats.TotalCustodyRecords)
	assert.Equal(t, 2, stats.ByStatus[string(models.SampleRegistered)])
	assert.Equal(t, 1, stats.ByLocation["Test Lab 1"])
	assert.InDelta(t, 1.5, stats.AvgRecordsPerSample, 1e-9)
}
