// Package locate resolves which files hold a sample's data: raw scans
// by default, or the processed/averaged set when asked. It is the read
// side of the metadata-file synchronization.
package locate

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sgmdata-labs/sgmsync-go/internal/domain"
	"github.com/sgmdata-labs/sgmsync-go/internal/repo"
	"github.com/sgmdata-labs/sgmsync-go/internal/service/paths"
)

// Options selects the sample to locate. User is the account name; the
// caller decides whether impersonation is allowed (admin flag on the
// resolver governs path shape only).
type Options struct {
	Sample    string
	User      string
	DateRange *domain.DateRange
	Processed bool
}

func (o Options) Validate() error {
	if strings.TrimSpace(o.Sample) == "" {
		return errors.New("sample is required")
	}
	if strings.TrimSpace(o.User) == "" {
		return errors.New("user is required")
	}
	if o.DateRange != nil {
		return o.DateRange.Validate()
	}
	return nil
}

// Result carries everything downstream loading needs. A lookup that
// found nothing is reported through Message with Found=false, never as
// an error: "no data" is an answer, not a failure.
type Result struct {
	Found   bool
	Message string

	ProjectID int64
	SampleID  int64
	Scans     []domain.Scan
	// ScanIDs groups scan ids as base name -> entry label -> id.
	ScanIDs  map[string]map[string]int64
	DateHash string

	// Paths point at the files to load: raw scans, or processed scans
	// in processed mode (RawPaths then keeps the raw set).
	Paths    []string
	RawPaths []string

	ProcessedIDs  []int64
	ProcessedRows []domain.ProcessedScan
	AverageID     int64
	AverageDomain string
	AveragePath   string
}

type Service struct {
	projects  repo.ProjectStore
	samples   repo.SampleStore
	scans     repo.ScanStore
	processed repo.ProcessedScanStore
	averages  repo.ScanAverageStore
	resolver  *paths.Resolver
	log       *slog.Logger
}

func NewService(projects repo.ProjectStore, samples repo.SampleStore, scans repo.ScanStore,
	processed repo.ProcessedScanStore, averages repo.ScanAverageStore,
	resolver *paths.Resolver, log *slog.Logger) (*Service, error) {
	if projects == nil || samples == nil || scans == nil || processed == nil || averages == nil {
		return nil, errors.New("all metadata stores are required")
	}
	if resolver == nil {
		return nil, errors.New("path resolver is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		projects:  projects,
		samples:   samples,
		scans:     scans,
		processed: processed,
		averages:  averages,
		resolver:  resolver,
		log:       log,
	}, nil
}

// Locate resolves the scan set for (sample, user, date range) and, in
// processed mode, the processed rows and their current average.
func (s *Service) Locate(ctx context.Context, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}

	project, err := s.projects.FindByName(ctx, opts.User)
	if errors.Is(err, repo.ErrNotFound) {
		return s.miss(fmt.Sprintf("no account %q found", opts.User)), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("find project: %w", err)
	}

	sample, err := s.samples.FindByName(ctx, project.ID, opts.Sample)
	if errors.Is(err, repo.ErrNotFound) {
		return s.miss(fmt.Sprintf("no sample %q in account %q", opts.Sample, opts.User)), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("find sample: %w", err)
	}

	scans, err := s.scans.List(ctx, project.ID, sample.ID, opts.DateRange)
	if err != nil {
		return Result{}, fmt.Errorf("list scans: %w", err)
	}

	res := Result{
		Found:     true,
		ProjectID: project.ID,
		SampleID:  sample.ID,
		Scans:     scans,
		ScanIDs:   domain.GroupScans(scans),
	}
	if len(scans) > 0 {
		res.DateHash = dateHash(scans)
	}
	rawDomains := make([]string, len(scans))
	for i, sc := range scans {
		rawDomains[i] = sc.Domain
	}
	res.RawPaths = s.resolver.RewriteToMirror(s.resolver.Resolve(rawDomains))
	res.Paths = res.RawPaths

	if !opts.Processed {
		return res, nil
	}
	return s.locateProcessed(ctx, opts, res)
}

func (s *Service) locateProcessed(ctx context.Context, opts Options, res Result) (Result, error) {
	if len(res.Scans) == 0 {
		return s.miss(fmt.Sprintf("no scans for %q in account %q", opts.Sample, opts.User)), nil
	}
	scanIDs := make([]int64, len(res.Scans))
	for i, sc := range res.Scans {
		scanIDs[i] = sc.ID
	}
	rows, err := s.processed.ListByScans(ctx, scanIDs)
	if err != nil {
		return Result{}, fmt.Errorf("list processed scans: %w", err)
	}
	if len(rows) == 0 {
		return s.miss(fmt.Sprintf("no processed scans found for %q in account %q", opts.Sample, opts.User)), nil
	}
	res.ProcessedRows = rows
	res.ProcessedIDs = make([]int64, len(rows))
	procDomains := make([]string, len(rows))
	for i, row := range rows {
		res.ProcessedIDs[i] = row.ID
		procDomains[i] = row.Domain
	}

	avgID, err := domain.SelectAverageID(rows)
	if errors.Is(err, domain.ErrNoAverage) {
		return s.miss(fmt.Sprintf("no average scan found for %q in account %q", opts.Sample, opts.User)), nil
	}
	if err != nil {
		return Result{}, err
	}
	avg, err := s.averages.Get(ctx, res.ProjectID, avgID)
	if errors.Is(err, repo.ErrNotFound) {
		return s.miss(fmt.Sprintf("average scan for %q is in a different account", opts.Sample)), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("get scan average: %w", err)
	}
	res.AverageID = avg.ID
	res.AverageDomain = avg.Domain
	avgPaths := s.resolver.RewriteToMirror(s.resolver.Resolve([]string{avg.Domain}))
	res.AveragePath = avgPaths[0]
	res.Paths = s.resolver.RewriteToMirror(s.resolver.Resolve(procDomains))
	return res, nil
}

func (s *Service) miss(message string) Result {
	s.log.Warn(message)
	return Result{Message: message}
}

// dateHash is the stable digest of the covered acquisition window,
// folded into content-based average domain names.
func dateHash(scans []domain.Scan) string {
	const layout = "2006-01-02 15:04:05"
	first := scans[0].StartTime.Format(layout)
	last := scans[len(scans)-1].StartTime.Format(layout)
	sum := md5.Sum([]byte(first + "-" + last))
	return hex.EncodeToString(sum[:])
}
