// Command code-ingest imports pre-generated discount codes from
// gzip-compressed line-delimited files into PostgreSQL. Duplicate codes,
// within the files or against the database, are skipped.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/domain/discount"
	"github.com/xenking/storefront/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
	minCodeLen    = 4
	maxCodeLen    = 32
)

// codeSet collects unique candidate codes across all input files. The bloom
// filter is a cheap prefilter; the map is authoritative.
type codeSet struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
	seen   map[string]struct{}
	codes  []string
}

func newCodeSet() *codeSet {
	return &codeSet{
		filter: bloom.NewWithEstimates(bloomCapacity, bloomFPR),
		seen:   make(map[string]struct{}),
	}
}

// add records the code if it has not been seen before.
func (s *codeSet) add(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.filter.TestString(code) {
		if _, ok := s.seen[code]; ok {
			return
		}
	}
	s.filter.AddString(code)
	s.seen[code] = struct{}{}
	s.codes = append(s.codes, code)
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.gz code files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("code ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("code ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.gz"))
	if err != nil {
		return errors.Wrap(err, "list code files")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.gz files found in %s", dataDir)
	}

	slog.Info("scanning code files", slog.Int("files", len(files)))

	set := newCodeSet()
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(scanFile(gctx, i, f, set))
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "scan code files")
	}

	slog.Info("unique codes found", slog.Int("count", len(set.codes)))
	if len(set.codes) == 0 {
		return nil
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return insertCodes(ctx, repository.NewDiscountRepository(pool), set.codes)
}

// scanFile streams one gzip file and feeds well-formed codes into the set.
func scanFile(ctx context.Context, idx int, path string, set *codeSet) func() error {
	return func() error {
		var count uint64
		err := streamGzFile(ctx, path, func(code string) {
			if !validCode(code) {
				return
			}
			set.add(code)
			count++
			if count%progressEvery == 0 {
				slog.Info("scan progress",
					slog.Int("file", idx+1),
					slog.Uint64("codes", count),
				)
			}
		})
		if err != nil {
			return errors.Wrapf(err, "scan %s", path)
		}

		slog.Info("scan complete", slog.Int("file", idx+1), slog.Uint64("codes", count))
		return nil
	}
}

// validCode accepts uppercase alphanumeric codes within the length bounds.
func validCode(code string) bool {
	if len(code) < minCodeLen || len(code) > maxCodeLen {
		return false
	}
	for i := range len(code) {
		c := code[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(code string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(strings.TrimSpace(scanner.Text()))
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

// insertCodes writes the codes into the registry. Codes already present in
// the database are counted and skipped.
func insertCodes(ctx context.Context, repo *repository.DiscountRepository, codes []string) error {
	slog.Info("inserting codes", slog.Int("count", len(codes)))

	now := time.Now().UTC()
	var skipped int
	for i, value := range codes {
		err := repo.Insert(ctx, &discount.Code{Value: value, CreatedAt: now})
		switch {
		case errors.Is(err, discount.ErrCodeExists):
			skipped++
		case err != nil:
			return errors.Wrapf(err, "insert code %s", value)
		}

		if (i+1)%progressEvery == 0 || i+1 == len(codes) {
			slog.Info("insert progress", slog.Int("written", i+1), slog.Int("total", len(codes)))
		}
	}

	slog.Info("insert complete", slog.Int("inserted", len(codes)-skipped), slog.Int("skipped", skipped))
	return nil
}
