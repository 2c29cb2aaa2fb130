package catalog

import (
	"sort"
	"strings"
	"sync"
	"time"

	"lab-orchestrator/core/models"
)

// Library is the read-only protocol catalog. Entries are immutable after
// registration; the scheduler and execution engine only ever read from it.
type Library struct {
	mu        sync.RWMutex
	protocols map[string]models.TestProtocol
}

// NewLibrary creates a protocol library seeded with the standard IEC/UL set
func NewLibrary() *Library {
	l := &Library{
		protocols: make(map[string]models.TestProtocol),
	}
	l.seedStandardProtocols()
	return l
}

// AddProtocol registers a protocol. Returns false if the id already exists.
func (l *Library) AddProtocol(p models.TestProtocol) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.protocols[p.ID]; exists {
		return false
	}
	if p.CreatedDate.IsZero() {
		p.CreatedDate = time.Now()
	}
	p.UpdatedDate = p.CreatedDate
	p.IsActive = true
	l.protocols[p.ID] = p
	return true
}

// GetProtocol returns a protocol by id
func (l *Library) GetProtocol(id string) (models.TestProtocol, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := l.protocols[id]
	return p, ok
}

// GetAllProtocols returns all protocols sorted by id
func (l *Library) GetAllProtocols() []models.TestProtocol {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.TestProtocol, 0, len(l.protocols))
	for _, p := range l.protocols {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetByStandard returns all protocols belonging to a standard
func (l *Library) GetByStandard(standard models.TestStandard) []models.TestProtocol {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []models.TestProtocol
	for _, p := range l.protocols {
		if p.Standard == standard {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SearchProtocols matches the query against name, description and tags
func (l *Library) SearchProtocols(query string) []models.TestProtocol {
	l.mu.RLock()
	defer l.mu.RUnlock()

	query = strings.ToLower(query)
	var out []models.TestProtocol
	for _, p := range l.protocols {
		if strings.Contains(strings.ToLower(p.Name), query) ||
			strings.Contains(strings.ToLower(p.Description), query) {
			out = append(out, p)
			continue
		}
		for _, tag := range p.Tags {
			if strings.Contains(strings.ToLower(tag), query) {
				out = append(out, p)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SuggestProtocols returns the protocols commonly applied to a sample type.
// Modules get the full qualification set; cells get the electrical subset.
func (l *Library) SuggestProtocols(sampleType string) []models.TestProtocol {
	switch strings.ToLower(sampleType) {
	case "module":
		return l.GetAllProtocols()
	case "cell", "string":
		var out []models.TestProtocol
		for _, p := range l.GetAllProtocols() {
			if p.Standard == models.StandardIEC61853 || strings.Contains(p.Name, "STC") {
				out = append(out, p)
			}
		}
		return out
	default:
		return l.GetByStandard(models.StandardIEC61215)
	}
}

// Count returns the number of catalogued protocols
func (l *Library) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.protocols)
}

func f(v float64) *float64 { return &v }

// seedStandardProtocols loads the built-in protocol definitions
func (l *Library) seedStandardProtocols() {
	now := time.Now()

	seed := []models.TestProtocol{
		{
			ID:          "PROTO_IEC61215_001",
			Name:        "Visual Inspection",
			Standard:    models.StandardIEC61215,
			Version:     "4.0",
			Description: "Visual inspection of PV modules for defects, damage, and workmanship",
			Steps: []models.ProtocolStep{
				{Step: 1, Description: "Inspect module surface for cracks, chips, or scratches", Duration: 5},
				{Step: 2, Description: "Check frame integrity and junction box", Duration: 3},
				{Step: 3, Description: "Verify labels and markings", Duration: 2},
				{Step: 4, Description: "Document findings with photos", Duration: 5},
			},
			Parameters: map[string]interface{}{
				"lighting":      "1000 lux minimum",
				"distance":      "30-50 cm",
				"viewing_angle": "Multiple angles required",
			},
			AcceptanceCriteria: map[string]models.AcceptanceCriterion{
				"DefectCount": {Min: f(0), Max: f(0)},
			},
			EstimatedDuration:   15,
			RequiredEquipment:   []string{"Inspection Table", "LED Light"},
			RequiredStaffSkills: []string{"Visual Inspection", "IEC 61215"},
		},
		{
			ID:          "PROTO_IEC61215_002",
			Name:        "Performance at STC",
			Standard:    models.StandardIEC61215,
			Version:     "4.0",
			Description: "Electrical performance measurement at Standard Test Conditions",
			Steps: []models.ProtocolStep{
				{Step: 1, Description: "Set up module in solar simulator", Duration: 10},
				{Step: 2, Description: "Allow temperature stabilization to 25±2°C", Duration: 15},
				{Step: 3, Description: "Perform IV curve measurement at 1000 W/m²", Duration: 5},
				{Step: 4, Description: "Record Voc, Isc, Vmp, Imp, Pmax, FF", Duration: 5},
				{Step: 5, Description: "Verify against nameplate ±3%", Duration: 5},
			},
			Parameters: map[string]interface{}{
				"irradiance":  "1000 W/m²",
				"temperature": "25°C",
				"spectrum":    "AM 1.5G",
			},
			AcceptanceCriteria: map[string]models.AcceptanceCriterion{
				"Voc":  {Min: f(0), Max: f(100)},
				"Isc":  {Min: f(0), Max: f(20)},
				"Pmax": {Nominal: f(400), TolerancePct: f(3)},
				"FF":   {Threshold: f(0.70)},
			},
			EstimatedDuration:   40,
			RequiredEquipment:   []string{"Solar Simulator", "IV Tracer", "Temperature Monitor"},
			RequiredStaffSkills: []string{"STC Testing", "IV Measurement", "IEC 61215"},
		},
		{
			ID:          "PROTO_IEC61215_003",
			Name:        "Thermal Cycling Test",
			Standard:    models.StandardIEC61215,
			Version:     "4.0",
			Description: "200 thermal cycles from -40°C to +85°C",
			Steps: []models.ProtocolStep{
				{Step: 1, Description: "Baseline IV measurement at STC", Duration: 30},
				{Step: 2, Description: "Place module in thermal chamber", Duration: 10},
				{Step: 3, Description: "Execute 200 thermal cycles", Duration: 28800},
				{Step: 4, Description: "Final IV measurement at STC", Duration: 30},
				{Step: 5, Description: "Visual inspection", Duration: 15},
				{Step: 6, Description: "Calculate power degradation", Duration: 10},
			},
			Parameters: map[string]interface{}{
				"min_temp":  "-40°C",
				"max_temp":  "+85°C",
				"cycles":    200,
				"ramp_rate": "100°C/hour max",
			},
			AcceptanceCriteria: map[string]models.AcceptanceCriterion{
				"PowerLossPct":         {Min: f(0), Max: f(5)},
				"InsulationResistance": {Threshold: f(40)},
			},
			EstimatedDuration:   29000,
			RequiredEquipment:   []string{"Thermal Chamber", "Solar Simulator", "IV Tracer"},
			RequiredStaffSkills: []string{"Thermal Testing", "IEC 61215", "IV Measurement"},
		},
		{
			ID:          "PROTO_IEC61730_001",
			Name:        "Wet Leakage Current Test",
			Standard:    models.StandardIEC61730,
			Version:     "2.0",
			Description: "Measure leakage current in wet conditions",
			Steps: []models.ProtocolStep{
				{Step: 1, Description: "Spray module with saline solution", Duration: 5},
				{Step: 2, Description: "Apply test voltage", Duration: 2},
				{Step: 3, Description: "Measure leakage current", Duration: 5},
				{Step: 4, Description: "Record and verify limits", Duration: 3},
			},
			Parameters: map[string]interface{}{
				"test_voltage": "1000V + 2 × Voc",
				"solution":     "1% NaCl",
				"duration":     "60 seconds",
			},
			AcceptanceCriteria: map[string]models.AcceptanceCriterion{
				"LeakageCurrent": {Min: f(0), Max: f(1)}, // mA per module
			},
			EstimatedDuration:   15,
			RequiredEquipment:   []string{"HiPot Tester", "Spray System"},
			RequiredStaffSkills: []string{"Safety Testing", "IEC 61730", "High Voltage"},
		},
		{
			ID:          "PROTO_IEC61853_001",
			Name:        "IV Curve at Multiple Irradiances",
			Standard:    models.StandardIEC61853,
			Version:     "3.0",
			Description: "Measure IV curves at multiple irradiance levels",
			Steps: []models.ProtocolStep{
				{Step: 1, Description: "Measure IV curve at 1100 W/m²", Duration: 10},
				{Step: 2, Description: "Measure IV curve at 1000 W/m²", Duration: 10},
				{Step: 3, Description: "Measure IV curve at 800 W/m²", Duration: 10},
				{Step: 4, Description: "Measure IV curve at 600 W/m²", Duration: 10},
				{Step: 5, Description: "Measure IV curve at 400 W/m²", Duration: 10},
				{Step: 6, Description: "Measure IV curve at 200 W/m²", Duration: 10},
			},
			Parameters: map[string]interface{}{
				"irradiances": []int{1100, 1000, 800, 600, 400, 200},
				"temperature": "25°C ± 2°C",
				"spectrum":    "AM 1.5G",
			},
			AcceptanceCriteria: map[string]models.AcceptanceCriterion{
				"Linearity": {Threshold: f(0.99)},
			},
			EstimatedDuration:   60,
			RequiredEquipment:   []string{"Solar Simulator", "IV Tracer", "Spectroradiometer"},
			RequiredStaffSkills: []string{"IEC 61853", "IV Measurement", "Solar Simulation"},
		},
		{
			ID:          "PROTO_UL1703_001",
			Name:        "Impact Test",
			Standard:    models.StandardUL1703,
			Version:     "2013",
			Description: "Ice ball impact test for hail resistance",
			Steps: []models.ProtocolStep{
				{Step: 1, Description: "Prepare ice balls of specified diameter", Duration: 10},
				{Step: 2, Description: "Mount module at test angle", Duration: 5},
				{Step: 3, Description: "Drop ice balls from specified height", Duration: 15},
				{Step: 4, Description: "Visual inspection for damage", Duration: 10},
				{Step: 5, Description: "Electrical performance check", Duration: 20},
			},
			Parameters: map[string]interface{}{
				"ice_ball_diameter": "25-76 mm",
				"drop_height":       "1.3-2.5 m",
				"impact_points":     11,
				"test_angle":        "45 degrees",
			},
			AcceptanceCriteria: map[string]models.AcceptanceCriterion{
				"PowerLossPct": {Min: f(0), Max: f(5)},
			},
			EstimatedDuration:   60,
			RequiredEquipment:   []string{"Impact Tester", "Ice Ball Former", "Solar Simulator"},
			RequiredStaffSkills: []string{"UL 1703", "Impact Testing", "IV Measurement"},
		},
	}

	for _, p := range seed {
		p.CreatedDate = now
		p.UpdatedDate = now
		p.IsActive = true
		l.protocols[p.ID] = p
	}
}
