package catalog

import (
	"testing"

	"lab-orchestrator/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLibrarySeedsStandardProtocols(t *testing.T) {
	l := NewLibrary()
	assert.Equal(t, 6, l.Count())

	stc, ok := l.GetProtocol("PROTO_IEC61215_002")
	require.True(t, ok)
	assert.Equal(t, "Performance at STC", stc.Name)
	assert.Equal(t, models.StandardIEC61215, stc.Standard)
	assert.Equal(t, 40, stc.EstimatedDuration)
	assert.True(t, stc.IsActive)

	criteria := stc.AcceptanceCriteria["Pmax"]
	require.NotNil(t, criteria.Nominal)
	assert.Equal(t, 400.0, *criteria.Nominal)
	assert.True(t, criteria.IsTolerance())
	assert.True(t, stc.AcceptanceCriteria["FF"].IsThreshold())
	assert.True(t, stc.AcceptanceCriteria["Voc"].IsRange())
}

func TestAddProtocolRejectsDuplicate(t *testing.T) {
	l := NewLibrary()

	p := models.TestProtocol{ID: "PROTO_CUSTOM_001", Name: "Custom", EstimatedDuration: 10}
	assert.True(t, l.AddProtocol(p))
	assert.False(t, l.AddProtocol(p))
	assert.Equal(t, 7, l.Count())
}

func TestGetByStandard(t *testing.T) {
	l := NewLibrary()

	iec61215 := l.GetByStandard(models.StandardIEC61215)
	assert.Len(t, iec61215, 3)
	for _, p := range iec61215 {
		assert.Equal(t, models.StandardIEC61215, p.Standard)
	}

	assert.Len(t, l.GetByStandard(models.StandardUL1703), 1)
	assert.Empty(t, l.GetByStandard(models.StandardIEEE1547))
}

func TestSearchProtocols(t *testing.T) {
	l := NewLibrary()

	assert.Len(t, l.SearchProtocols("thermal"), 1)
	assert.Len(t, l.SearchProtocols("iv curve"), 1)
	assert.Empty(t, l.SearchProtocols("nonexistent"))

	// Matches descriptions too
	results := l.SearchProtocols("leakage")
	require.Len(t, results, 1)
	assert.Equal(t, "PROTO_IEC61730_001", results[0].ID)
}

func TestSuggestProtocols(t *testing.T) {
	l := NewLibrary()

	assert.Len(t, l.SuggestProtocols("Module"), 6)

	cellSuggestions := l.SuggestProtocols("cell")
	require.NotEmpty(t, cellSuggestions)
	for _, p := range cellSuggestions {
		isElectrical := p.Standard == models.StandardIEC61853 || p.Name == "Performance at STC"
		assert.True(t, isElectrical, "unexpected suggestion %s", p.ID)
	}

	// Unknown types fall back to the IEC 61215 qualification set
	assert.Len(t, l.SuggestProtocols("inverter"), 3)
}

func TestGetAllProtocolsSorted(t *testing.T) {
	l := NewLibrary()
	all := l.GetAllProtocols()
	require.Len(t, all, 6)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ID, all[i].ID)
	}
}
