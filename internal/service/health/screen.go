// Package health screens per-scan diagnostics against configurable
// thresholds to keep anomalous scans out of averaging.
package health

import (
	"errors"

	"github.com/sgmdata-labs/sgmsync-go/internal/domain"
)

// Default thresholds; a scan is bad when any metric exceeds its bound.
const (
	DefaultContinuity = 55.0
	DefaultDropped    = 30.0
	DefaultSaturation = 60.0

	// DefaultSDDMax is the absolute detector-saturation cap handed to
	// the diagnostics engine.
	DefaultSDDMax = 105000.0
)

// Spec holds the screening thresholds (percentages) and the saturation
// cap. The zero value is invalid; start from DefaultSpec.
type Spec struct {
	Continuity float64 `yaml:"continuity"`
	Dropped    float64 `yaml:"dropped"`
	Saturation float64 `yaml:"saturation"`
	SDDMax     float64 `yaml:"sdd_max"`
}

func DefaultSpec() Spec {
	return Spec{
		Continuity: DefaultContinuity,
		Dropped:    DefaultDropped,
		Saturation: DefaultSaturation,
		SDDMax:     DefaultSDDMax,
	}
}

func (s Spec) Validate() error {
	if s.Continuity <= 0 || s.Dropped <= 0 || s.Saturation <= 0 {
		return errors.New("health thresholds must be positive")
	}
	if s.SDDMax <= 0 {
		return errors.New("sdd_max must be positive")
	}
	return nil
}

// Screen flags the indices whose diagnostics exceed any threshold. The
// result preserves input order. Pure; the diagnostics themselves come
// from the external engine.
func (s Spec) Screen(diags []domain.Diagnostics) []int {
	var bad []int
	for i, d := range diags {
		if d.Continuity > s.Continuity || d.Dropped > s.Dropped || d.Saturation > s.Saturation {
			bad = append(bad, i)
		}
	}
	return bad
}
