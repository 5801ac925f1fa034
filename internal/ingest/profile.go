package ingest

import (
	"strconv"
	"strings"
	"time"

	"datachat/domain/dataset"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// ProfileConfig defines the type-inference thresholds
type ProfileConfig struct {
	NumericThreshold       float64 // fraction of non-null values that must parse as numbers
	BooleanThreshold       float64 // fraction that must parse as booleans
	TimestampThreshold     float64 // fraction that must parse as timestamps
	CategoricalUniqueRatio float64 // unique/total ratio below which text is categorical
	MaxSampleValues        int
}

// DefaultProfileConfig returns sensible defaults
func DefaultProfileConfig() ProfileConfig {
	return ProfileConfig{
		NumericThreshold:       0.8,
		BooleanThreshold:       0.9,
		TimestampThreshold:     0.8,
		CategoricalUniqueRatio: 0.3,
		MaxSampleValues:        5,
	}
}

// Profiler derives per-column schema summaries from raw string values
type Profiler struct {
	config ProfileConfig
}

// NewProfiler creates a profiler with the given config
func NewProfiler(config ProfileConfig) *Profiler {
	return &Profiler{config: config}
}

// nullTokens are cell values treated as missing, case-insensitively
var nullTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"null": true,
	"nan":  true,
	"none": true,
}

// ProfileColumn computes the schema summary for one column
func (p *Profiler) ProfileColumn(name string, values []string) dataset.ColumnInfo {
	info := dataset.ColumnInfo{Name: name}

	var nonNull []string
	seen := make(map[string]bool)
	for _, v := range values {
		if isNull(v) {
			info.NullCount++
			continue
		}
		nonNull = append(nonNull, v)
		// Samples keep first-encountered order, not sorted
		if !seen[v] {
			seen[v] = true
			if len(info.SampleValues) < p.config.MaxSampleValues {
				info.SampleValues = append(info.SampleValues, v)
			}
		}
	}

	info.DataType = p.inferType(nonNull, len(seen))

	if info.DataType == dataset.TypeNumeric {
		info.Numeric = numericSummary(nonNull)
	}

	return info
}

func (p *Profiler) inferType(nonNull []string, uniqueCount int) dataset.ColumnType {
	if len(nonNull) == 0 {
		return dataset.TypeText
	}

	var numeric, boolean, timestamp int
	for _, v := range nonNull {
		if _, ok := parseNumeric(v); ok {
			numeric++
		}
		if parseBoolean(v) {
			boolean++
		}
		if parseTimestamp(v) {
			timestamp++
		}
	}

	total := float64(len(nonNull))

	// Boolean wins over numeric so 0/1-free yes/no columns are not
	// misclassified; pure 0/1 columns stay numeric.
	if float64(boolean)/total >= p.config.BooleanThreshold {
		return dataset.TypeBoolean
	}
	if float64(numeric)/total >= p.config.NumericThreshold {
		return dataset.TypeNumeric
	}
	if float64(timestamp)/total >= p.config.TimestampThreshold {
		return dataset.TypeTimestamp
	}
	if float64(uniqueCount)/total <= p.config.CategoricalUniqueRatio {
		return dataset.TypeCategorical
	}
	return dataset.TypeText
}

func isNull(v string) bool {
	return nullTokens[strings.ToLower(strings.TrimSpace(v))]
}

// parseNumeric parses a cell as a float, tolerating currency symbols,
// thousands separators and surrounding whitespace
func parseNumeric(v string) (float64, bool) {
	cleaned := strings.TrimSpace(v)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.TrimPrefix(cleaned, "€")
	cleaned = strings.TrimPrefix(cleaned, "£")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSuffix(cleaned, "%")
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	return f, err == nil
}

var booleanTokens = map[string]bool{
	"true": true, "false": true,
	"yes": true, "no": true,
	"y": true, "n": true,
}

func parseBoolean(v string) bool {
	return booleanTokens[strings.ToLower(strings.TrimSpace(v))]
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"01/02/2006 15:04",
}

func parseTimestamp(v string) bool {
	trimmed := strings.TrimSpace(v)
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, trimmed); err == nil {
			return true
		}
	}
	return false
}

// numericSummary computes distribution stats over the parseable values
func numericSummary(nonNull []string) *dataset.NumericStats {
	var values []float64
	for _, v := range nonNull {
		if f, ok := parseNumeric(v); ok {
			values = append(values, f)
		}
	}
	if len(values) == 0 {
		return nil
	}

	min, _ := stats.Min(values)
	max, _ := stats.Max(values)
	mean, _ := stats.Mean(values)
	stdDev, _ := stats.StandardDeviation(values)

	summary := &dataset.NumericStats{
		Min:    min,
		Max:    max,
		Mean:   mean,
		StdDev: stdDev,
	}
	if len(values) > 2 && stdDev > 0 {
		summary.Skew = stat.Skew(values, nil)
	}
	return summary
}
