// Command sgmsync locates and preprocesses acquisition data: it resolves
// a sample's scan files, interpolates and persists per-scan results,
// screens instrument health and averages the survivors, keeping the
// metadata store and the structured file store in step.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sgmdata-labs/sgmsync-go/internal/compute"
	"github.com/sgmdata-labs/sgmsync-go/internal/domain"
	"github.com/sgmdata-labs/sgmsync-go/internal/platform/config"
	"github.com/sgmdata-labs/sgmsync-go/internal/platform/objectstore"
	"github.com/sgmdata-labs/sgmsync-go/internal/platform/postgres"
	"github.com/sgmdata-labs/sgmsync-go/internal/platform/progress"
	repopg "github.com/sgmdata-labs/sgmsync-go/internal/repo/postgres"
	"github.com/sgmdata-labs/sgmsync-go/internal/service/locate"
	"github.com/sgmdata-labs/sgmsync-go/internal/service/persist"
	"github.com/sgmdata-labs/sgmsync-go/internal/service/preprocess"
	"github.com/sgmdata-labs/sgmsync-go/internal/storage/filestore"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "locate":
		err = runLocate(ctx, logger, os.Args[2:])
	case "run":
		err = runPreprocess(ctx, logger, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: sgmsync <locate|run> [flags]")
}

// deps bundles everything a command needs against live backends.
type deps struct {
	cfg     config.Config
	locate  *locate.Service
	writer  *persist.Writer
	cleanup func()
}

func connect(ctx context.Context, logger *slog.Logger, configFile string) (deps, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return deps{}, err
	}
	if configFile != "" {
		if err := cfg.ApplyFile(configFile); err != nil {
			return deps{}, err
		}
	}

	db, err := postgres.Open(ctx, cfg.DB)
	if err != nil {
		return deps{}, fmt.Errorf("database unavailable: %w", err)
	}
	cleanup := func() { _ = db.Close() }

	client, err := objectstore.NewMinIOClient(cfg.Store)
	if err != nil {
		cleanup()
		return deps{}, fmt.Errorf("object store client: %w", err)
	}
	startupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = objectstore.EnsureBucket(startupCtx, client, cfg.Store)
	cancel()
	if err != nil {
		cleanup()
		return deps{}, fmt.Errorf("object store unavailable: %w", err)
	}
	files, err := filestore.NewMinioStoreWithClient(client, cfg.Store.Bucket)
	if err != nil {
		cleanup()
		return deps{}, err
	}

	processed := repopg.NewProcessedScanStore(db)
	averages := repopg.NewScanAverageStore(db)
	loc, err := locate.NewService(
		repopg.NewProjectStore(db),
		repopg.NewSampleStore(db),
		repopg.NewScanStore(db),
		processed, averages, cfg.Resolver(), logger)
	if err != nil {
		cleanup()
		return deps{}, err
	}
	writer, err := persist.NewWriter(files, processed, averages, logger)
	if err != nil {
		cleanup()
		return deps{}, err
	}
	return deps{cfg: cfg, locate: loc, writer: writer, cleanup: cleanup}, nil
}

func runLocate(ctx context.Context, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("locate", flag.ExitOnError)
	configFile := fs.String("config", "", "optional YAML tuning file")
	sample := fs.String("sample", "", "sample name")
	user := fs.String("user", "", "account to search (defaults to SGM_USER)")
	from := fs.String("from", "", "start date, YYYY-MM-DD")
	to := fs.String("to", "", "end date, YYYY-MM-DD (defaults to today)")
	proc := fs.Bool("processed", false, "locate processed scans and their average")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, err := connect(ctx, logger, *configFile)
	if err != nil {
		return err
	}
	defer d.cleanup()

	opts := locate.Options{
		Sample:    *sample,
		User:      *user,
		Processed: *proc,
	}
	if opts.User == "" {
		opts.User = d.cfg.User
	}
	if opts.DateRange, err = parseDates(*from, *to); err != nil {
		return err
	}

	res, err := d.locate.Locate(ctx, opts)
	if err != nil {
		return err
	}
	if !res.Found {
		fmt.Println(res.Message)
		return nil
	}
	for _, p := range res.Paths {
		fmt.Println(p)
	}
	if res.AveragePath != "" {
		fmt.Println(res.AveragePath)
	}
	return nil
}

func runPreprocess(ctx context.Context, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configFile := fs.String("config", "", "optional YAML tuning file")
	sample := fs.String("sample", "", "sample name")
	user := fs.String("user", "", "account to process (defaults to SGM_USER)")
	from := fs.String("from", "", "start date, YYYY-MM-DD")
	to := fs.String("to", "", "end date, YYYY-MM-DD (defaults to today)")
	resolution := fs.Float64("resolution", 0, "interpolation step (defaults to configured value)")
	abort := fs.Bool("abort-on-error", false, "fail the run on the first per-scan persistence error")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, err := connect(ctx, logger, *configFile)
	if err != nil {
		return err
	}
	defer d.cleanup()

	loader, err := newLoader(d.cfg)
	if err != nil {
		return err
	}
	svc, err := preprocess.NewService(d.locate, d.writer, loader, d.cfg.Health,
		d.cfg.FileStoreHost, progress.WriterSink{W: os.Stderr}, logger)
	if err != nil {
		return err
	}

	opts := preprocess.Options{
		Sample:           *sample,
		User:             *user,
		Resolution:       *resolution,
		AbortOnItemError: *abort,
	}
	if opts.User == "" {
		opts.User = d.cfg.User
	}
	if opts.Resolution == 0 {
		opts.Resolution = d.cfg.Resolution
	}
	if opts.DateRange, err = parseDates(*from, *to); err != nil {
		return err
	}

	report, err := svc.Run(ctx, opts)
	if err != nil {
		return err
	}
	fmt.Println(report.Message)
	for _, link := range report.Links {
		fmt.Println(link)
	}
	return nil
}

// newLoader resolves the numeric engine for this deployment. The engine
// is an external collaborator; until one is linked in, runs fail up
// front instead of partway through a pipeline.
func newLoader(cfg config.Config) (compute.Loader, error) {
	return nil, fmt.Errorf("no compute engine is linked into this build")
}

func parseDates(from, to string) (*domain.DateRange, error) {
	if from == "" && to == "" {
		return nil, nil
	}
	r, err := domain.ParseDateRange(from, to)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
