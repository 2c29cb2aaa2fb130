package ingest

import (
	"bufio"
	"strconv"
	"strings"

	"lab-orchestrator/core/analytics"
)

// CurveFile is the parsed content of one .ivc tracer export: a key/value
// metadata header followed by whitespace-separated voltage/current rows.
type CurveFile struct {
	Metadata   map[string]string       `json:"metadata"`
	Points     []analytics.IVPoint     `json:"iv_curve"`
	Parameters *analytics.IVParameters `json:"parameters,omitempty"`
}

// ParseIVCFile parses tracer output. Blank lines and # comments are
// ignored; the data section starts at a [DATA] marker or a line beginning
// with "Voltage"; rows that fail to parse as two floats are skipped.
// Electrical parameters are derived when at least one point was read.
func ParseIVCFile(content string) CurveFile {
	file := CurveFile{
		Metadata: make(map[string]string),
		Points:   []analytics.IVPoint{},
	}

	scanner := bufio.NewScanner(strings.NewReader(content))
	inData := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[DATA]") || strings.HasPrefix(line, "Voltage") {
			inData = true
			continue
		}

		if !inData {
			if key, value, found := strings.Cut(line, ":"); found {
				file.Metadata[strings.TrimSpace(key)] = strings.TrimSpace(value)
			}
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		voltage, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			continue
		}
		current, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			continue
		}
		file.Points = append(file.Points, analytics.IVPoint{Voltage: voltage, Current: current})
	}

	if len(file.Points) > 0 {
		params := deriveParameters(file.Points)
		file.Parameters = &params
	}

	return file
}

// deriveParameters extracts Voc, Isc, the maximum power point and the fill
// factor from the raw curve
func deriveParameters(points []analytics.IVPoint) analytics.IVParameters {
	voc := points[0].Voltage
	isc := points[0].Current
	for _, p := range points {
		if p.Voltage > voc {
			voc = p.Voltage
		}
		if p.Current > isc {
			isc = p.Current
		}
	}

	var pmax, vmp, imp float64
	for _, p := range points {
		power := p.Voltage * p.Current
		if power > pmax {
			pmax = power
			vmp = p.Voltage
			imp = p.Current
		}
	}

	ff := 0.0
	if voc*isc > 0 {
		ff = pmax / (voc * isc)
	}

	return analytics.IVParameters{Voc: voc, Isc: isc, Vmp: vmp, Imp: imp, Pmax: pmax, FF: ff}
}
