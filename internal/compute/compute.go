// Package compute declares the contracts of the numeric collaborators
// the pipeline delegates to: the interpolation/averaging engine and the
// instrument diagnostics engine. Their implementations live outside
// this module and are injected at construction time.
package compute

import (
	"context"

	"github.com/sgmdata-labs/sgmsync-go/internal/domain"
)

// Loader materializes an Engine over a set of resolved scan files.
type Loader interface {
	Load(ctx context.Context, paths []string) (Engine, error)
}

// Engine performs the numeric work over one loaded scan set. Calls
// block; any parallelism (worker pools, distributed schedulers) is the
// engine's own business.
type Engine interface {
	// Interpolate bins every scan entry at the given resolution and
	// returns base name -> entry label -> frame. Entries already binned
	// upstream come back unchanged.
	Interpolate(ctx context.Context, resolution float64) (map[string]map[string]domain.Frame, error)

	// ScanHealth computes the diagnostic percentages for one entry.
	// sddMax is the absolute detector-saturation cap.
	ScanHealth(ctx context.Context, base, entry string, sddMax float64) (domain.Diagnostics, error)

	// Mean averages all scans excluding the given indices (input order
	// of the interpolated set), grouped by sample key.
	Mean(ctx context.Context, exclude []int) (map[string][]domain.Averaged, error)
}
