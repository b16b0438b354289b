package coverage

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Format represents the output format for coverage reports.
type Format int

const (
	// FormatText outputs a human-readable table.
	FormatText Format = iota
	// FormatJSON outputs machine-readable JSON.
	FormatJSON
)

// Reporter formats and writes coverage reports.
type Reporter struct {
	writer io.Writer
	format Format
}

// NewReporter creates a Reporter with the given writer and format.
func NewReporter(writer io.Writer, format Format) *Reporter {
	return &Reporter{writer: writer, format: format}
}

// Report writes the coverage report in the configured format.
func (r *Reporter) Report(report *Report) error {
	switch r.format {
	case FormatJSON:
		return r.reportJSON(report)
	default:
		return r.reportText(report)
	}
}

func (r *Reporter) reportText(report *Report) error {
	w := r.writer
	rule := "----------------------------------------------------------------------"

	status := "FAIL"
	if report.MeetsThreshold() {
		status = "PASS"
	}
	if _, err := fmt.Fprintf(w,
		"%s\nOVERALL COVERAGE\n%s\nLines Hit:    %d\nTotal Lines:  %d\nCoverage:     %.1f%% (Target: %.0f%%) [%s]\nGenerated lines excluded: %d\n\n",
		rule, rule,
		report.Overall.Hit, report.Overall.Lines,
		report.Overall.Percent(), report.Threshold, status,
		report.Generated.Lines,
	); err != nil {
		return fmt.Errorf("failed to write coverage report: %w", err)
	}

	if _, err := fmt.Fprintf(w, "%s\nCOVERAGE BY LAYER\n%s\n%-15s %8s %8s %10s %10s %8s\n%s\n",
		rule, rule, "Layer", "Hit", "Total", "Coverage", "Target", "Status", rule); err != nil {
		return fmt.Errorf("failed to write coverage report: %w", err)
	}

	for _, layer := range sortedLayers(report) {
		s := report.Layers[layer]
		if s.Lines == 0 {
			continue
		}
		target := report.Targets[layer]
		if _, err := fmt.Fprintf(w, "%-15s %8d %8d %9.1f%% %9.0f%% %8s\n",
			layer, s.Hit, s.Lines, s.Percent(), target, layerStatus(s.Percent(), target)); err != nil {
			return fmt.Errorf("failed to write coverage report: %w", err)
		}
	}
	return nil
}

func (r *Reporter) reportJSON(report *Report) error {
	type layerOut struct {
		Coverage float64 `json:"coverage"`
		Hit      int     `json:"hit"`
		Lines    int     `json:"lines"`
		Target   float64 `json:"target"`
	}
	out := struct {
		Overall           layerOut            `json:"overall"`
		GeneratedExcluded int                 `json:"generated_excluded"`
		Layers            map[string]layerOut `json:"layers"`
	}{
		Overall: layerOut{
			Coverage: report.Overall.Percent(),
			Hit:      report.Overall.Hit,
			Lines:    report.Overall.Lines,
			Target:   report.Threshold,
		},
		GeneratedExcluded: report.Generated.Lines,
		Layers:            make(map[string]layerOut),
	}
	for layer, s := range report.Layers {
		if s.Lines == 0 {
			continue
		}
		out.Layers[layer] = layerOut{
			Coverage: s.Percent(),
			Hit:      s.Hit,
			Lines:    s.Lines,
			Target:   report.Targets[layer],
		}
	}

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("failed to encode coverage report: %w", err)
	}
	return nil
}

// layerStatus mirrors the operator-facing convention: PASS at or above
// target, WARN within ten points below it, FAIL otherwise.
func layerStatus(percent, target float64) string {
	switch {
	case percent >= target:
		return "PASS"
	case percent >= target-10:
		return "WARN"
	default:
		return "FAIL"
	}
}

func sortedLayers(report *Report) []string {
	layers := make([]string, 0, len(report.Layers))
	for layer := range report.Layers {
		layers = append(layers, layer)
	}
	sort.Strings(layers)
	return layers
}
