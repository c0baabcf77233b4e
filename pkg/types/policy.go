// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PolicyMode names a packaging strategy.
type PolicyMode string

const (
	// PolicyNone moves every file individually into the output directory.
	PolicyNone PolicyMode = "none"
	// PolicySingle writes one archive holding every file.
	PolicySingle PolicyMode = "single"
	// PolicyCount writes one archive per Count files.
	PolicyCount PolicyMode = "count"
	// PolicySize starts a new archive whenever the next file would push the
	// running uncompressed total past MaxBytes.
	PolicySize PolicyMode = "size"
)

// OutputPolicy configures the packager.
type OutputPolicy struct {
	Mode     PolicyMode `json:"mode" yaml:"mode"`
	Count    int        `json:"count,omitempty" yaml:"count,omitempty"`
	MaxBytes int64      `json:"max_bytes,omitempty" yaml:"max_bytes,omitempty"`
}

// ConfigError reports an invalid configuration value. It is fatal to a run.
type ConfigError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Validate checks that the policy parameters make sense for its mode.
func (p OutputPolicy) Validate() error {
	switch p.Mode {
	case PolicyNone, PolicySingle:
		return nil
	case PolicyCount:
		if p.Count <= 0 {
			return &ConfigError{Field: "count", Value: strconv.Itoa(p.Count), Reason: "must be a positive integer"}
		}
		return nil
	case PolicySize:
		if p.MaxBytes <= 0 {
			return &ConfigError{Field: "max-size", Value: strconv.FormatInt(p.MaxBytes, 10), Reason: "must be a positive size"}
		}
		return nil
	default:
		return &ConfigError{Field: "zip mode", Value: string(p.Mode), Reason: "use none, single, count, or size"}
	}
}

// String renders the policy for logs and history records.
func (p OutputPolicy) String() string {
	switch p.Mode {
	case PolicyCount:
		return fmt.Sprintf("count(%d)", p.Count)
	case PolicySize:
		return fmt.Sprintf("size(%s)", FormatSize(p.MaxBytes))
	default:
		return string(p.Mode)
	}
}

var sizeUnits = []struct {
	suffix string
	factor int64
}{
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
	{"B", 1},
}

// ParseSize converts "10MB", "512 KB", "2gb", or a bare byte count into bytes.
// Units are 1024-based.
func ParseSize(s string) (int64, error) {
	raw := strings.ToUpper(strings.TrimSpace(s))
	if raw == "" {
		return 0, &ConfigError{Field: "max-size", Reason: "empty size"}
	}
	factor := int64(1)
	for _, u := range sizeUnits {
		if strings.HasSuffix(raw, u.suffix) {
			factor = u.factor
			raw = strings.TrimSpace(strings.TrimSuffix(raw, u.suffix))
			break
		}
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, &ConfigError{Field: "max-size", Value: s, Reason: "expected a positive number with optional KB, MB, or GB"}
	}
	if n > math.MaxInt64/factor {
		return 0, &ConfigError{Field: "max-size", Value: s, Reason: "size is too large"}
	}
	return n * factor, nil
}

// FormatSize renders a byte count with the largest whole unit.
func FormatSize(n int64) string {
	for _, u := range sizeUnits {
		if u.factor > 1 && n >= u.factor && n%u.factor == 0 {
			return fmt.Sprintf("%d%s", n/u.factor, u.suffix)
		}
	}
	return fmt.Sprintf("%dB", n)
}
