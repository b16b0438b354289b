// Package coverage parses LCOV line-coverage summaries and computes the
// aggregate and per-layer percentages the pipeline reports. Generated
// files are excluded so the numbers reflect hand-written code only.
package coverage

import (
	"strconv"
	"strings"

	"github.com/shipgate/shipgate/errors"
	"github.com/shipgate/shipgate/fs"
)

// Options configures parsing and thresholds.
type Options struct {
	// Exclude lists filename fragments identifying generated files;
	// matching files are counted separately and left out of every total.
	Exclude []string

	// Layers maps layer names to their coverage targets. A source file
	// belongs to the first layer whose name appears as a path segment.
	Layers map[string]float64

	// Threshold is the aggregate target percentage.
	Threshold float64
}

// Summary accumulates instrumented and hit line counts.
type Summary struct {
	Lines int
	Hit   int
}

// Percent returns the hit percentage; an empty summary reports zero.
func (s Summary) Percent() float64 {
	if s.Lines == 0 {
		return 0
	}
	return float64(s.Hit) / float64(s.Lines) * 100
}

func (s *Summary) add(lines, hit int) {
	s.Lines += lines
	s.Hit += hit
}

// Report is the computed coverage breakdown.
type Report struct {
	// Overall aggregates every non-generated file.
	Overall Summary

	// Generated aggregates the excluded generated files.
	Generated Summary

	// Layers holds the per-layer summaries, plus "other" for files that
	// match no configured layer.
	Layers map[string]Summary

	// Targets are the configured per-layer targets.
	Targets map[string]float64

	// Threshold is the aggregate target percentage.
	Threshold float64
}

// MeetsThreshold reports whether the aggregate coverage reaches the
// configured threshold.
func (r *Report) MeetsThreshold() bool {
	return r.Overall.Percent() >= r.Threshold
}

// MeetsTargets reports whether the aggregate threshold and every
// configured layer target are met. Layers with no instrumented lines
// are ignored.
func (r *Report) MeetsTargets() bool {
	if !r.MeetsThreshold() {
		return false
	}
	for layer, target := range r.Targets {
		summary, ok := r.Layers[layer]
		if !ok || summary.Lines == 0 {
			continue
		}
		if summary.Percent() < target {
			return false
		}
	}
	return true
}

// Parse reads the LCOV file at path and computes the report.
// A missing file is an error naming the command that produces it.
func Parse(fsys *fs.FS, path string, opts Options) (*Report, error) {
	exists, err := fsys.Exists(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to probe coverage file")
	}
	if !exists {
		return nil, errors.Newf(errors.CodeInvalidInput,
			"%s not found; run 'flutter test --coverage' first", path)
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to read coverage file")
	}
	return parseLCOV(string(data), opts), nil
}

// parseLCOV walks the LCOV records. Each record starts with an SF: line
// naming the source file and carries LF: (instrumented lines) and LH:
// (hit lines) totals.
func parseLCOV(content string, opts Options) *Report {
	report := &Report{
		Layers:    make(map[string]Summary),
		Targets:   opts.Layers,
		Threshold: opts.Threshold,
	}

	var (
		file       string
		lines, hit int
		haveCounts bool
	)
	flush := func() {
		if file == "" || !haveCounts {
			return
		}
		if isGenerated(file, opts.Exclude) {
			report.Generated.add(lines, hit)
		} else {
			report.Overall.add(lines, hit)
			layer := classify(file, opts.Layers)
			s := report.Layers[layer]
			s.add(lines, hit)
			report.Layers[layer] = s
		}
		file, lines, hit, haveCounts = "", 0, 0, false
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "SF:"):
			flush()
			file = strings.TrimPrefix(line, "SF:")
		case strings.HasPrefix(line, "LF:"):
			if n, err := strconv.Atoi(strings.TrimPrefix(line, "LF:")); err == nil {
				lines = n
				haveCounts = true
			}
		case strings.HasPrefix(line, "LH:"):
			if n, err := strconv.Atoi(strings.TrimPrefix(line, "LH:")); err == nil {
				hit = n
			}
		case line == "end_of_record":
			flush()
		}
	}
	flush()
	return report
}

func isGenerated(file string, exclude []string) bool {
	for _, fragment := range exclude {
		if strings.Contains(file, fragment) {
			return true
		}
	}
	return false
}

// classify returns the layer a file belongs to, or "other". A layer
// matches when its name appears as a full path segment.
func classify(file string, layers map[string]float64) string {
	for layer := range layers {
		if strings.Contains(file, "/"+layer+"/") {
			return layer
		}
	}
	return "other"
}
