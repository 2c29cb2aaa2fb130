package custody

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"lab-orchestrator/core/models"

	"github.com/google/uuid"
)

// Tracker owns the sample registry and the per-sample chain of custody.
// All mutations go through the tracker so that every physical handling
// event leaves exactly one hash-chained ledger record behind.
type Tracker struct {
	mu      sync.RWMutex
	samples map[string]*models.Sample
	chains  map[string][]*models.CustodyRecord
	encoder IdentifierEncoder
	nowFunc func() time.Time
}

// NewTracker creates a new sample tracker
func NewTracker(encoder IdentifierEncoder) *Tracker {
	if encoder == nil {
		encoder = PlaceholderEncoder{}
	}
	return &Tracker{
		samples: make(map[string]*models.Sample),
		chains:  make(map[string][]*models.CustodyRecord),
		encoder: encoder,
		nowFunc: time.Now,
	}
}

// RegisterRequest carries the attributes of a new sample
type RegisterRequest struct {
	Name              string                 `json:"sample_name"`
	SampleType        string                 `json:"sample_type"`
	Manufacturer      string                 `json:"manufacturer"`
	Model             string                 `json:"model"`
	BatchNumber       string                 `json:"batch_number"`
	SerialNumber      string                 `json:"serial_number"`
	Quantity          int                    `json:"quantity"`
	Customer          string                 `json:"customer"`
	ProjectID         string                 `json:"project_id"`
	RegisteredBy      string                 `json:"registered_by"`
	StorageConditions map[string]interface{} `json:"storage_conditions"`
	Metadata          map[string]interface{} `json:"metadata"`
}

// RegisterSample registers a new sample in Receiving and appends the first
// custody record
func (t *Tracker) RegisterSample(req RegisterRequest) *models.Sample {
	t.mu.Lock()
	defer t.mu.Unlock()

	sampleID := "SAMPLE_" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])

	if req.Quantity <= 0 {
		req.Quantity = 1
	}
	if req.RegisteredBy == "" {
		req.RegisteredBy = "system"
	}

	qrPayload := fmt.Sprintf("%s|%s|%s|%s|%s", sampleID, req.SampleType, req.Manufacturer, req.Model, req.SerialNumber)

	sample := &models.Sample{
		ID:                sampleID,
		Name:              req.Name,
		SampleType:        req.SampleType,
		Manufacturer:      req.Manufacturer,
		Model:             req.Model,
		BatchNumber:       req.BatchNumber,
		SerialNumber:      req.SerialNumber,
		Quantity:          req.Quantity,
		Status:            models.SampleRegistered,
		QRCode:            t.encoder.EncodeQR(qrPayload),
		Barcode:           t.encoder.EncodeBarcode(sampleID),
		RegisteredDate:    t.nowFunc(),
		RegisteredBy:      req.RegisteredBy,
		CurrentLocation:   "Receiving",
		Customer:          req.Customer,
		ProjectID:         req.ProjectID,
		StorageConditions: req.StorageConditions,
		Metadata:          req.Metadata,
	}

	t.samples[sampleID] = sample

	t.appendRecord(sampleID, "Registered", "", "Receiving", req.RegisteredBy,
		nil, nil, nil, "Sample registered: "+req.Name)

	out := *sample
	return &out
}

// MoveSample moves a sample to a new location and records the transfer
func (t *Tracker) MoveSample(sampleID, toLocation, handledBy string, temperature, humidity *float64, photos []string, notes string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	sample, ok := t.samples[sampleID]
	if !ok {
		return false
	}

	fromLocation := sample.CurrentLocation
	sample.CurrentLocation = toLocation

	t.appendRecord(sampleID, "Moved", fromLocation, toLocation, handledBy,
		temperature, humidity, photos, notes)

	return true
}

// UpdateSampleStatus transitions a sample's workflow status and records it
func (t *Tracker) UpdateSampleStatus(sampleID string, newStatus models.SampleStatus, handledBy, notes string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	sample, ok := t.samples[sampleID]
	if !ok {
		return false
	}

	oldStatus := sample.Status
	sample.Status = newStatus

	event := fmt.Sprintf("Status Changed: %s -> %s", oldStatus, newStatus)
	t.appendRecord(sampleID, event, sample.CurrentLocation, sample.CurrentLocation,
		handledBy, nil, nil, nil, notes)

	return true
}

// AddPhotoDocumentation attaches photos to a sample and records the event
func (t *Tracker) AddPhotoDocumentation(sampleID string, photoPaths []string, handledBy, notes string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	sample, ok := t.samples[sampleID]
	if !ok {
		return false
	}

	sample.Photos = append(sample.Photos, photoPaths...)

	t.appendRecord(sampleID, "Photo Documentation", sample.CurrentLocation,
		sample.CurrentLocation, handledBy, nil, nil, photoPaths, notes)

	return true
}

// appendRecord creates a hash-chained custody record. Caller must hold the lock.
func (t *Tracker) appendRecord(sampleID, eventType, from, to, handledBy string,
	temperature, humidity *float64, photos []string, notes string) *models.CustodyRecord {

	var previousHash *string
	if chain := t.chains[sampleID]; len(chain) > 0 {
		previousHash = &chain[len(chain)-1].CurrentHash
	}

	record := &models.CustodyRecord{
		RecordID:     "COC_" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:12]),
		SampleID:     sampleID,
		Timestamp:    t.nowFunc(),
		EventType:    eventType,
		FromLocation: from,
		ToLocation:   to,
		HandledBy:    handledBy,
		Temperature:  temperature,
		Humidity:     humidity,
		Photos:       photos,
		Notes:        notes,
		PreviousHash: previousHash,
	}
	record.CurrentHash = record.CalculateHash()

	t.chains[sampleID] = append(t.chains[sampleID], record)
	return record
}

// GetSample returns a copy of the sample, or nil if unknown
func (t *Tracker) GetSample(sampleID string) *models.Sample {
	t.mu.RLock()
	defer t.mu.RUnlock()

	sample, ok := t.samples[sampleID]
	if !ok {
		return nil
	}
	out := *sample
	return &out
}

// GetAllSamples returns copies of all registered samples
func (t *Tracker) GetAllSamples() []models.Sample {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]models.Sample, 0, len(t.samples))
	for _, s := range t.samples {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredDate.Before(out[j].RegisteredDate) })
	return out
}

// GetSamplesByStatus returns samples currently in the given status
func (t *Tracker) GetSamplesByStatus(status models.SampleStatus) []models.Sample {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []models.Sample
	for _, s := range t.samples {
		if s.Status == status {
			out = append(out, *s)
		}
	}
	return out
}

// GetSamplesByLocation returns samples at the given location
func (t *Tracker) GetSamplesByLocation(location string) []models.Sample {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []models.Sample
	for _, s := range t.samples {
		if s.CurrentLocation == location {
			out = append(out, *s)
		}
	}
	return out
}

// SearchSamples matches the query against id, name, manufacturer, model,
// serial and batch fields, case-insensitively
func (t *Tracker) SearchSamples(query string) []models.Sample {
	t.mu.RLock()
	defer t.mu.RUnlock()

	query = strings.ToLower(query)
	var out []models.Sample
	for _, s := range t.samples {
		if strings.Contains(strings.ToLower(s.ID), query) ||
			strings.Contains(strings.ToLower(s.Name), query) ||
			strings.Contains(strings.ToLower(s.Manufacturer), query) ||
			strings.Contains(strings.ToLower(s.Model), query) ||
			strings.Contains(strings.ToLower(s.SerialNumber), query) ||
			strings.Contains(strings.ToLower(s.BatchNumber), query) {
			out = append(out, *s)
		}
	}
	return out
}

// GetChainOfCustody returns copies of the custody records for a sample,
// oldest first
func (t *Tracker) GetChainOfCustody(sampleID string) []models.CustodyRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	chain := t.chains[sampleID]
	out := make([]models.CustodyRecord, len(chain))
	for i, r := range chain {
		out[i] = *r
	}
	return out
}

// VerifyChainIntegrity recomputes every record hash and re-checks linkage.
// All problems found are enumerated; the chain is never repaired.
func (t *Tracker) VerifyChainIntegrity(sampleID string) models.ChainVerification {
	t.mu.RLock()
	defer t.mu.RUnlock()

	chain, ok := t.chains[sampleID]
	if !ok || len(chain) == 0 {
		return models.ChainVerification{
			Valid:  false,
			Errors: []string{"No chain of custody found"},
		}
	}

	var errs []string
	tampered := false

	for i, record := range chain {
		if !record.VerifyHash() {
			errs = append(errs, fmt.Sprintf("Record %d: Hash verification failed", i))
			tampered = true
		} else if tampered {
			// Everything downstream of a tampered record loses its guarantee.
			errs = append(errs, fmt.Sprintf("Record %d: Chain break - follows tampered record", i))
		}

		if i > 0 {
			expected := chain[i-1].CurrentHash
			if record.PreviousHash == nil || *record.PreviousHash != expected {
				errs = append(errs, fmt.Sprintf("Record %d: Chain break - previous hash mismatch", i))
			}
		}
	}

	return models.ChainVerification{
		Valid:        len(errs) == 0,
		TotalRecords: len(chain),
		Errors:       errs,
	}
}

// SampleHistory is the full event history of one sample
type SampleHistory struct {
	Sample          models.Sample          `json:"sample"`
	ChainOfCustody  []models.CustodyRecord `json:"chain_of_custody"`
	TotalEvents     int                    `json:"total_events"`
	CurrentLocation string                 `json:"current_location"`
	CurrentStatus   models.SampleStatus    `json:"current_status"`
	DaysInSystem    int                    `json:"days_in_system"`
}

// GetSampleHistory returns the sample with its complete custody chain
func (t *Tracker) GetSampleHistory(sampleID string) (*SampleHistory, bool) {
	t.mu.RLock()
	sample, ok := t.samples[sampleID]
	if !ok {
		t.mu.RUnlock()
		return nil, false
	}
	s := *sample
	t.mu.RUnlock()

	chain := t.GetChainOfCustody(sampleID)

	return &SampleHistory{
		Sample:          s,
		ChainOfCustody:  chain,
		TotalEvents:     len(chain),
		CurrentLocation: s.CurrentLocation,
		CurrentStatus:   s.Status,
		DaysInSystem:    int(t.nowFunc().Sub(s.RegisteredDate).Hours() / 24),
	}, true
}

// Statistics summarizes the tracker state
type Statistics struct {
	TotalSamples        int            `json:"total_samples"`
	ByStatus            map[string]int `json:"by_status"`
	ByLocation          map[string]int `json:"by_location"`
	TotalCustodyRecords int            `json:"total_custody_records"`
	AvgRecordsPerSample float64        `json:"avg_custody_records_per_sample"`
}

// GetStatistics returns sample tracking statistics
func (t *Tracker) GetStatistics() Statistics {
	t.mu.RLock()
	defer t.mu.RUnlock()

	byStatus := make(map[string]int)
	byLocation := make(map[string]int)
	for _, s := range t.samples {
		byStatus[string(s.Status)]++
		byLocation[s.CurrentLocation]++
	}

	totalRecords := 0
	for _, chain := range t.chains {
		totalRecords += len(chain)
	}

	stats := Statistics{
		TotalSamples:        len(t.samples),
		ByStatus:            byStatus,
		ByLocation:          byLocation,
		TotalCustodyRecords: totalRecords,
	}
	if len(t.samples) > 0 {
		stats.AvgRecordsPerSample = float64(totalRecords) / float64(len(t.samples))
	}
	return stats
}
