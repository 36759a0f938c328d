// Package persist serializes processed and averaged datasets into the
// structured file store and records their provenance in the metadata
// store.
package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/gosimple/slug"

	"github.com/sgmdata-labs/sgmsync-go/internal/domain"
	"github.com/sgmdata-labs/sgmsync-go/internal/repo"
	"github.com/sgmdata-labs/sgmsync-go/internal/storage/filestore"
)

// DefaultSignal is the detector channel marked as the plottable signal
// when the caller does not pick one.
const DefaultSignal = "sdd3_processed"

// resultLinkBase is where persisted averages become browsable.
const resultLinkBase = "https://sgmdata.lightsource.ca/users/xasexperiment/useravg/%d"

// Options tunes one container write.
type Options struct {
	// Signal names the detector-signal attribute; DefaultSignal when
	// empty.
	Signal string
	// Detectors overrides the detector set; the frame's distinct
	// column prefixes when empty.
	Detectors []string
}

// Writer owns the file-store side of a processing run.
type Writer struct {
	store     filestore.Store
	processed repo.ProcessedScanStore
	averages  repo.ScanAverageStore
	log       *slog.Logger
}

func NewWriter(store filestore.Store, processed repo.ProcessedScanStore, averages repo.ScanAverageStore, log *slog.Logger) (*Writer, error) {
	if store == nil {
		return nil, errors.New("file store is required")
	}
	if processed == nil || averages == nil {
		return nil, errors.New("metadata stores are required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Writer{store: store, processed: processed, averages: averages, log: log}, nil
}

// Write appends one dataset to the container at domain as a new
// auto-numbered entry. Repeated writes accumulate entries; nothing is
// ever overwritten.
func (w *Writer) Write(ctx context.Context, frame domain.Frame, dom string, opts Options) error {
	if err := frame.Validate(); err != nil {
		return fmt.Errorf("write %q: %w", dom, err)
	}
	c, err := filestore.OpenOrCreate(ctx, w.store, dom)
	if err != nil {
		return fmt.Errorf("open container %q: %w", dom, err)
	}

	entry, err := c.CreateGroup(nextEntryName(c))
	if err != nil {
		return fmt.Errorf("create entry in %q: %w", dom, err)
	}
	entry.SetAttr("NX_class", "NXentry")
	data, err := entry.CreateGroup("data")
	if err != nil {
		return fmt.Errorf("create data group in %q: %w", dom, err)
	}
	data.SetAttr("NX_class", "NXdata")
	data.SetAttr("axes", frame.AxisNames())
	signal := opts.Signal
	if signal == "" {
		signal = DefaultSignal
	}
	data.SetAttr("signal", signal)

	for _, ax := range frame.Axes {
		name := ax.Name + "_processed"
		if _, err := data.CreateDataset(name, []int{len(ax.Values)}, ax.Values); err != nil {
			return fmt.Errorf("write axis %q in %q: %w", name, dom, err)
		}
	}

	detectors := opts.Detectors
	if len(detectors) == 0 {
		detectors = frame.Detectors()
	}
	for _, det := range detectors {
		values, cols := frame.DetectorMatrix(det)
		if cols == 0 {
			continue
		}
		shape := []int{len(frame.Rows), cols}
		if len(frame.Axes) > 1 {
			shape = frame.GridShape(cols)
		}
		name := det + "_processed"
		if _, err := data.CreateDataset(name, shape, values); err != nil {
			return fmt.Errorf("write detector %q in %q: %w", name, dom, err)
		}
	}
	if err := c.Close(ctx); err != nil {
		return fmt.Errorf("close container %q: %w", dom, err)
	}
	return nil
}

// nextEntryName numbers one past the highest existing NXentry group,
// starting at entry1 for a fresh container.
func nextEntryName(c filestore.Container) string {
	highest := 0
	for _, name := range c.Groups() {
		g, ok := c.Group(name)
		if !ok || !strings.Contains(g.AttrString("NX_class"), "NXentry") {
			continue
		}
		rest, ok := strings.CutPrefix(name, "entry")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return "entry" + strconv.Itoa(highest+1)
}

// ProcessedBatch is one per-scan persistence pass over interpolated
// frames.
type ProcessedBatch struct {
	ProjectID int64
	Sample    string
	User      string
	Host      string
	// Frames holds the interpolated data, base name -> entry -> frame.
	Frames map[string]map[string]domain.Frame
	// ScanIDs correlates entries back to their source scan for
	// provenance (base name -> entry -> scan id).
	ScanIDs map[string]map[string]int64
	// ContinueOnError keeps the batch going past single-item write or
	// upsert failures; infra failures always abort.
	ContinueOnError bool
	Options         Options
}

// WriteProcessed persists every interpolated entry and upserts its
// provenance row, returning the processed-scan ids and domains written
// in input (sorted base, then entry) order.
func (w *Writer) WriteProcessed(ctx context.Context, batch ProcessedBatch) ([]int64, []string, error) {
	var (
		ids     []int64
		domains []string
	)
	for _, base := range sortedKeys(batch.Frames) {
		entries := batch.Frames[base]
		for _, entryName := range sortedKeys(entries) {
			frame := entries[entryName]
			dom := processedDomain(base, batch.User, batch.Host)
			if err := w.Write(ctx, frame, dom, batch.Options); err != nil {
				if !batch.ContinueOnError {
					return ids, domains, err
				}
				w.log.Error("persist processed scan", "domain", dom, "error", err)
				continue
			}
			scanID := batch.ScanIDs[base][entryName]
			id, err := w.processed.Upsert(ctx, repo.UpsertProcessedScan{
				ProjectID:   batch.ProjectID,
				Name:        batch.Sample,
				ScanID:      scanID,
				Domain:      dom,
				Group:       entryName,
				Resolution:  frame.Resolution(),
				Range:       frame.RangeString(),
				Independent: independentPath(entryName, frame),
			})
			if err != nil {
				if !batch.ContinueOnError {
					return ids, domains, err
				}
				w.log.Error("upsert processed scan", "domain", dom, "error", err)
				continue
			}
			ids = append(ids, id)
			domains = append(domains, dom)
		}
	}
	return ids, domains, nil
}

// AverageBatch is one average-persistence pass.
type AverageBatch struct {
	ProjectID int64
	Sample    string
	User      string
	Host      string
	// DateHash is the digest of the covered acquisition window, folded
	// into the content-based average domain.
	DateHash string
	// MemberIDs are the processed rows that survived health screening;
	// the average's membership is replaced with exactly this set.
	MemberIDs       []int64
	ContinueOnError bool
	Options         Options
}

// WriteAverage persists each averaged dataset and upserts the average
// row with the surviving membership, returning the domains written and
// the browsable result links.
func (w *Writer) WriteAverage(ctx context.Context, averaged map[string][]domain.Averaged, batch AverageBatch) ([]string, []string, error) {
	if len(batch.MemberIDs) == 0 {
		return nil, nil, nil
	}
	var (
		domains []string
		links   []string
	)
	for _, key := range sortedKeys(averaged) {
		for i, avg := range averaged[key] {
			dom := averageDomain(batch.Sample, batch.DateHash, i, batch.User, batch.Host)
			if err := w.Write(ctx, avg.Data, dom, batch.Options); err != nil {
				if !batch.ContinueOnError {
					return domains, links, err
				}
				w.log.Error("persist scan average", "domain", dom, "error", err)
				continue
			}
			avgID, err := w.averages.Upsert(ctx, repo.UpsertScanAverage{
				ProjectID: batch.ProjectID,
				Name:      batch.Sample,
				Domain:    dom,
			}, batch.MemberIDs)
			if err != nil {
				if !batch.ContinueOnError {
					return domains, links, err
				}
				w.log.Error("upsert scan average", "domain", dom, "error", err)
				continue
			}
			domains = append(domains, dom)
			links = append(links, fmt.Sprintf(resultLinkBase, avgID))
		}
	}
	return domains, links, nil
}

func processedDomain(base, user, host string) string {
	return strings.Join([]string{"processed_" + base, user, host}, ".")
}

func averageDomain(sample, dateHash string, i int, user, host string) string {
	name := fmt.Sprintf("%s-%s-%d", slug.Make(sample), dateHash, i)
	return strings.Join([]string{name, user, host}, ".")
}

// independentPath records where the first index axis lives inside the
// written entry.
func independentPath(entry string, frame domain.Frame) string {
	names := frame.AxisNames()
	if len(names) == 0 {
		return ""
	}
	return entry + "/data/" + names[0] + "_processed"
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
