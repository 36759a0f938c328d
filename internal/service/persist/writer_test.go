package persist

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"testing"

	"github.com/sgmdata-labs/sgmsync-go/internal/domain"
	"github.com/sgmdata-labs/sgmsync-go/internal/repo"
	"github.com/sgmdata-labs/sgmsync-go/internal/storage/filestore"
)

type stubProcessedStore struct {
	upserts    []repo.UpsertProcessedScan
	failDomain string
	nextID     int64
}

func (s *stubProcessedStore) ListByScans(ctx context.Context, scanIDs []int64) ([]domain.ProcessedScan, error) {
	return nil, nil
}

func (s *stubProcessedStore) Upsert(ctx context.Context, fields repo.UpsertProcessedScan) (int64, error) {
	if s.failDomain != "" && fields.Domain == s.failDomain {
		return 0, errors.New("upsert refused")
	}
	s.nextID++
	s.upserts = append(s.upserts, fields)
	return s.nextID, nil
}

type stubAverageStore struct {
	upserts []repo.UpsertScanAverage
	members [][]int64
	nextID  int64
}

func (s *stubAverageStore) Get(ctx context.Context, projectID, id int64) (domain.ScanAverage, error) {
	return domain.ScanAverage{}, repo.ErrNotFound
}

func (s *stubAverageStore) Upsert(ctx context.Context, fields repo.UpsertScanAverage, memberIDs []int64) (int64, error) {
	s.nextID++
	s.upserts = append(s.upserts, fields)
	s.members = append(s.members, append([]int64(nil), memberIDs...))
	return s.nextID, nil
}

func testWriter(t *testing.T, store filestore.Store) *Writer {
	t.Helper()
	w, err := NewWriter(store, &stubProcessedStore{}, &stubAverageStore{}, slog.Default())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	return w
}

func testFrame() domain.Frame {
	return domain.Frame{
		Axes:    []domain.Axis{{Name: "en", Values: []float64{270, 270.1, 270.2}}},
		Columns: []string{"sdd1-0", "sdd1-1", "tey-0"},
		Rows: [][]float64{
			{1, 2, 10},
			{3, 4, 11},
			{5, 6, 12},
		},
	}
}

func TestWriteAppendsNumberedEntries(t *testing.T) {
	ctx := context.Background()
	store := filestore.NewMemory()
	w := testWriter(t, store)

	for i := 0; i < 2; i++ {
		if err := w.Write(ctx, testFrame(), "processed_run1.alice.host", Options{}); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	c, err := store.Open(ctx, "processed_run1.alice.host")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got := c.Groups(); !reflect.DeepEqual(got, []string{"entry1", "entry2"}) {
		t.Fatalf("entries = %v, want [entry1 entry2]", got)
	}
	entry, _ := c.Group("entry2")
	if entry.AttrString("NX_class") != "NXentry" {
		t.Errorf("entry NX_class = %q", entry.AttrString("NX_class"))
	}
	data, ok := entry.Group("data")
	if !ok {
		t.Fatal("data group missing")
	}
	if data.AttrString("NX_class") != "NXdata" {
		t.Errorf("data NX_class = %q", data.AttrString("NX_class"))
	}
	if data.AttrString("signal") != DefaultSignal {
		t.Errorf("signal = %q, want %q", data.AttrString("signal"), DefaultSignal)
	}
	axis, ok := data.Dataset("en_processed")
	if !ok {
		t.Fatal("axis dataset missing")
	}
	if !reflect.DeepEqual(axis.Values, []float64{270, 270.1, 270.2}) {
		t.Errorf("axis values = %v", axis.Values)
	}
	det, ok := data.Dataset("sdd1_processed")
	if !ok {
		t.Fatal("detector dataset missing")
	}
	if !reflect.DeepEqual(det.Shape, []int{3, 2}) {
		t.Errorf("detector shape = %v, want [3 2]", det.Shape)
	}
	if _, ok := data.Dataset("tey_processed"); !ok {
		t.Error("tey detector missing; detectors should default to column prefixes")
	}
}

func TestWriteMultiAxisStoresLevelsAndGrid(t *testing.T) {
	ctx := context.Background()
	store := filestore.NewMemory()
	w := testWriter(t, store)

	frame := domain.Frame{
		Axes: []domain.Axis{
			{Name: "xp", Values: []float64{0, 1, 2}},
			{Name: "yp", Values: []float64{0, 1}},
		},
		Columns: []string{"sdd1-0"},
		Rows:    [][]float64{{1}, {2}, {3}, {4}, {5}, {6}},
	}
	if err := w.Write(ctx, frame, "map1.alice.host", Options{}); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, _ := store.Open(ctx, "map1.alice.host")
	entry, _ := c.Group("entry1")
	data, _ := entry.Group("data")
	for _, name := range []string{"xp_processed", "yp_processed"} {
		if _, ok := data.Dataset(name); !ok {
			t.Errorf("level dataset %q missing", name)
		}
	}
	det, ok := data.Dataset("sdd1_processed")
	if !ok {
		t.Fatal("detector dataset missing")
	}
	if !reflect.DeepEqual(det.Shape, []int{3, 2, 1}) {
		t.Errorf("detector shape = %v, want [3 2 1]", det.Shape)
	}
}

func TestWriteProcessedRecordsProvenance(t *testing.T) {
	ctx := context.Background()
	processed := &stubProcessedStore{}
	w, err := NewWriter(filestore.NewMemory(), processed, &stubAverageStore{}, slog.Default())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	ids, domains, err := w.WriteProcessed(ctx, ProcessedBatch{
		ProjectID: 1,
		Sample:    "TiO2 - C",
		User:      "alice",
		Host:      "host",
		Frames: map[string]map[string]domain.Frame{
			"run1": {"entry1": testFrame()},
		},
		ScanIDs:         map[string]map[string]int64{"run1": {"entry1": 9}},
		ContinueOnError: true,
	})
	if err != nil {
		t.Fatalf("WriteProcessed: %v", err)
	}
	if len(ids) != 1 || len(domains) != 1 {
		t.Fatalf("ids=%v domains=%v, want one each", ids, domains)
	}
	if domains[0] != "processed_run1.alice.host" {
		t.Errorf("domain = %q", domains[0])
	}
	up := processed.upserts[0]
	if up.ScanID != 9 {
		t.Errorf("scan id = %d, want 9", up.ScanID)
	}
	if up.Range != "270 270.2" {
		t.Errorf("range = %q", up.Range)
	}
	if up.Independent != "entry1/data/en_processed" {
		t.Errorf("independent = %q", up.Independent)
	}
	if up.Resolution < 0.0999 || up.Resolution > 0.1001 {
		t.Errorf("resolution = %v", up.Resolution)
	}
}

func TestWriteProcessedContinuesPastItemFailures(t *testing.T) {
	ctx := context.Background()
	processed := &stubProcessedStore{failDomain: "processed_run1.alice.host"}
	w, err := NewWriter(filestore.NewMemory(), processed, &stubAverageStore{}, slog.Default())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	batch := ProcessedBatch{
		ProjectID: 1,
		Sample:    "TiO2 - C",
		User:      "alice",
		Host:      "host",
		Frames: map[string]map[string]domain.Frame{
			"run1": {"entry1": testFrame()},
			"run2": {"entry1": testFrame()},
		},
		ScanIDs: map[string]map[string]int64{
			"run1": {"entry1": 1},
			"run2": {"entry1": 2},
		},
		ContinueOnError: true,
	}
	ids, domains, err := w.WriteProcessed(ctx, batch)
	if err != nil {
		t.Fatalf("WriteProcessed: %v", err)
	}
	if len(ids) != 1 || domains[0] != "processed_run2.alice.host" {
		t.Fatalf("ids=%v domains=%v, want the surviving item only", ids, domains)
	}

	batch.ContinueOnError = false
	if _, _, err := w.WriteProcessed(ctx, batch); err == nil {
		t.Fatal("WriteProcessed ignored item failure with ContinueOnError=false")
	}
}

func TestWriteAverageUpsertsMembershipAndLinks(t *testing.T) {
	ctx := context.Background()
	averages := &stubAverageStore{}
	w, err := NewWriter(filestore.NewMemory(), &stubProcessedStore{}, averages, slog.Default())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	averaged := map[string][]domain.Averaged{
		"TiO2 - C": {{Data: testFrame()}},
	}
	domains, links, err := w.WriteAverage(ctx, averaged, AverageBatch{
		ProjectID: 1,
		Sample:    "TiO2 - C",
		User:      "alice",
		Host:      "host",
		DateHash:  "abc123",
		MemberIDs: []int64{2, 3, 4},
	})
	if err != nil {
		t.Fatalf("WriteAverage: %v", err)
	}
	if len(domains) != 1 || domains[0] != "tio2-c-abc123-0.alice.host" {
		t.Fatalf("domains = %v", domains)
	}
	if len(links) != 1 || links[0] != "https://sgmdata.lightsource.ca/users/xasexperiment/useravg/1" {
		t.Fatalf("links = %v", links)
	}
	if !reflect.DeepEqual(averages.members[0], []int64{2, 3, 4}) {
		t.Fatalf("members = %v", averages.members[0])
	}
}

func TestWriteAverageSkipsWithNoMembers(t *testing.T) {
	averages := &stubAverageStore{}
	w, err := NewWriter(filestore.NewMemory(), &stubProcessedStore{}, averages, slog.Default())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	domains, links, err := w.WriteAverage(context.Background(),
		map[string][]domain.Averaged{"TiO2 - C": {{Data: testFrame()}}}, AverageBatch{ProjectID: 1})
	if err != nil {
		t.Fatalf("WriteAverage: %v", err)
	}
	if len(domains) != 0 || len(links) != 0 || len(averages.upserts) != 0 {
		t.Fatal("WriteAverage wrote despite empty membership")
	}
}
