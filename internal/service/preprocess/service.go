// Package preprocess drives a full processing run: resolve the scan
// set, interpolate, persist per-scan results, screen instrument health,
// average the survivors and persist the average.
package preprocess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/sgmdata-labs/sgmsync-go/internal/compute"
	"github.com/sgmdata-labs/sgmsync-go/internal/domain"
	"github.com/sgmdata-labs/sgmsync-go/internal/platform/progress"
	"github.com/sgmdata-labs/sgmsync-go/internal/service/health"
	"github.com/sgmdata-labs/sgmsync-go/internal/service/locate"
	"github.com/sgmdata-labs/sgmsync-go/internal/service/persist"
)

// DefaultResolution is the interpolation step in native units.
const DefaultResolution = 0.1

// Options configures one pipeline run.
type Options struct {
	Sample    string
	User      string
	DateRange *domain.DateRange
	// Resolution is the interpolation step; DefaultResolution when 0.
	Resolution float64
	// AbortOnItemError turns per-item persistence failures into run
	// failures. The default is to log and continue; fatal infra errors
	// abort regardless.
	AbortOnItemError bool
}

func (o Options) Validate() error {
	if strings.TrimSpace(o.Sample) == "" {
		return errors.New("sample is required")
	}
	if strings.TrimSpace(o.User) == "" {
		return errors.New("user is required")
	}
	if o.Resolution < 0 {
		return errors.New("resolution must not be negative")
	}
	if o.DateRange != nil {
		return o.DateRange.Validate()
	}
	return nil
}

// Report is the operator-facing outcome of a run.
type Report struct {
	ID             string
	Sample         string
	ScansTotal     int
	BadScans       []int
	ScansAveraged  int
	AverageDomains []string
	Links          []string
	Message        string
}

// Service is the pipeline orchestrator. Stages run strictly in order;
// the only parallelism lives inside the injected compute engine.
type Service struct {
	locate *locate.Service
	writer *persist.Writer
	loader compute.Loader
	screen health.Spec
	sink   progress.Sink
	log    *slog.Logger
	// host is the file-store host suffix for generated domains.
	host string
}

func NewService(loc *locate.Service, writer *persist.Writer, loader compute.Loader,
	screen health.Spec, host string, sink progress.Sink, log *slog.Logger) (*Service, error) {
	if loc == nil {
		return nil, errors.New("locate service is required")
	}
	if writer == nil {
		return nil, errors.New("persistence writer is required")
	}
	if loader == nil {
		return nil, errors.New("compute loader is required")
	}
	if err := screen.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(host) == "" {
		return nil, errors.New("file-store host is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		locate: loc,
		writer: writer,
		loader: loader,
		screen: screen,
		sink:   progress.OrNoop(sink),
		log:    log,
		host:   host,
	}, nil
}

// Run executes the pipeline for one sample and reports the outcome.
// Empty scan sets and all-bad screens terminate with an explanatory
// report, not an error; infra failures propagate.
func (s *Service) Run(ctx context.Context, opts Options) (Report, error) {
	if err := opts.Validate(); err != nil {
		return Report{}, err
	}
	resolution := opts.Resolution
	if resolution == 0 {
		resolution = DefaultResolution
	}
	report := Report{ID: uuid.NewString(), Sample: opts.Sample}

	s.sink.Describe("Resolving scans")
	located, err := s.locate.Locate(ctx, locate.Options{
		Sample:    opts.Sample,
		User:      opts.User,
		DateRange: opts.DateRange,
	})
	if err != nil {
		return Report{}, err
	}
	if !located.Found || len(located.Scans) == 0 {
		report.Message = located.Message
		if report.Message == "" {
			report.Message = fmt.Sprintf("no matching scans for %s", opts.Sample)
		}
		s.log.Warn(report.Message, "sample", opts.Sample)
		return report, nil
	}

	s.sink.Describe("Interpolating")
	engine, err := s.loader.Load(ctx, located.Paths)
	if err != nil {
		return Report{}, fmt.Errorf("load scans: %w", err)
	}
	frames, err := engine.Interpolate(ctx, resolution)
	if err != nil {
		return Report{}, fmt.Errorf("interpolate: %w", err)
	}

	s.sink.Describe("Saving")
	processedIDs, _, err := s.writer.WriteProcessed(ctx, persist.ProcessedBatch{
		ProjectID:       located.ProjectID,
		Sample:          opts.Sample,
		User:            opts.User,
		Host:            s.host,
		Frames:          frames,
		ScanIDs:         located.ScanIDs,
		ContinueOnError: !opts.AbortOnItemError,
	})
	if err != nil {
		return Report{}, err
	}

	s.sink.Describe("Screening health")
	diags, err := s.collectDiagnostics(ctx, engine, frames)
	if err != nil {
		return Report{}, err
	}
	bad := s.screen.Screen(diags)
	report.ScansTotal = len(diags)
	report.BadScans = bad

	if len(bad) >= len(diags) {
		report.Message = fmt.Sprintf("no scans passed health check for %s", opts.Sample)
		s.log.Warn(report.Message, "sample", opts.Sample, "bad_scans", len(bad))
		s.sink.Clear()
		return report, nil
	}

	s.sink.Describe("Averaging")
	averaged, err := engine.Mean(ctx, bad)
	if err != nil {
		return Report{}, fmt.Errorf("average: %w", err)
	}
	surviving := excludeByIndex(processedIDs, bad)
	domains, links, err := s.writer.WriteAverage(ctx, averaged, persist.AverageBatch{
		ProjectID:       located.ProjectID,
		Sample:          opts.Sample,
		User:            opts.User,
		Host:            s.host,
		DateHash:        located.DateHash,
		MemberIDs:       surviving,
		ContinueOnError: !opts.AbortOnItemError,
	})
	if err != nil {
		return Report{}, err
	}

	report.ScansAveraged = len(diags) - len(bad)
	report.AverageDomains = domains
	report.Links = links
	report.Message = fmt.Sprintf("Averaged %d scans for %s", report.ScansAveraged, opts.Sample)

	s.sink.Clear()
	for _, link := range links {
		s.sink.Link(opts.Sample, link)
	}
	s.log.Info("preprocess complete", "sample", opts.Sample,
		"averaged", report.ScansAveraged, "removed", len(bad))
	return report, nil
}

// collectDiagnostics walks the interpolated set in the same sorted
// base/entry order the writer uses, so screen indices line up with the
// persisted processed ids.
func (s *Service) collectDiagnostics(ctx context.Context, engine compute.Engine,
	frames map[string]map[string]domain.Frame) ([]domain.Diagnostics, error) {
	var diags []domain.Diagnostics
	for _, base := range sortedKeys(frames) {
		for _, entry := range sortedKeys(frames[base]) {
			d, err := engine.ScanHealth(ctx, base, entry, s.screen.SDDMax)
			if err != nil {
				return nil, fmt.Errorf("scan health %s/%s: %w", base, entry, err)
			}
			diags = append(diags, d)
		}
	}
	return diags, nil
}

func excludeByIndex(ids []int64, exclude []int) []int64 {
	drop := make(map[int]struct{}, len(exclude))
	for _, i := range exclude {
		drop[i] = struct{}{}
	}
	out := make([]int64, 0, len(ids))
	for i, id := range ids {
		if _, ok := drop[i]; ok {
			continue
		}
		out = append(out, id)
	}
	return out
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
