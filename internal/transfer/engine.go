// Package transfer moves large objects between the object store and the
// local filesystem. Uploads stream in one shot; downloads above a size
// threshold are split into byte-range parts fetched with bounded
// concurrency and per-part retry, then reconstructed in order.
package transfer

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/shulkerhost/shulker/internal/fault"
	"github.com/shulkerhost/shulker/internal/metrics"
	"github.com/shulkerhost/shulker/internal/storage"
)

const (
	DefaultLargeThreshold = 100 << 20 // 100 MiB
	DefaultChunkSize      = 50 << 20  // 50 MiB
	DefaultMaxConcurrent  = 5
	DefaultMaxRetries     = 3
	DefaultBaseDelay      = time.Second
)

type Options struct {
	// LargeThreshold is the object size at and above which downloads are
	// chunked instead of fetched in one request.
	LargeThreshold int64
	// ChunkSize is the byte length of each part; the last part may be
	// shorter.
	ChunkSize int64
	// MaxConcurrent caps in-flight part downloads. Parts run in batches of
	// this size; a batch starts only after the previous one fully settles.
	MaxConcurrent int
	// MaxRetries is the maximum number of attempts per part.
	MaxRetries int
	// BaseDelay seeds the exponential backoff between attempts:
	// BaseDelay * 2^(attempt-1).
	BaseDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.LargeThreshold <= 0 {
		o.LargeThreshold = DefaultLargeThreshold
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = DefaultMaxConcurrent
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = DefaultBaseDelay
	}
	return o
}

// part covers the inclusive byte range [start,end] of the remote object.
type part struct {
	index    int
	start    int64
	end      int64
	tempPath string
}

type Engine struct {
	store  storage.Client
	logger zerolog.Logger
	opts   Options
}

func NewEngine(logger zerolog.Logger, store storage.Client, opts Options) *Engine {
	return &Engine{
		store:  store,
		logger: logger.With().Str("component", "transfer").Logger(),
		opts:   opts.withDefaults(),
	}
}

// Upload streams the local file at path to the store under key. Writes
// originate locally, so no chunking is needed.
func (e *Engine) Upload(ctx context.Context, path, key, contentType string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}

	e.logger.Info().Str("key", key).Int64("size", info.Size()).Msg("uploading archive")
	if err := e.store.Put(ctx, key, f, contentType); err != nil {
		return 0, err
	}
	metrics.TransferBytes.WithLabelValues("upload").Add(float64(info.Size()))
	return info.Size(), nil
}

// Download fetches key into destPath, choosing the single-shot or chunked
// path based on the probed object size. The returned size is the probed
// size, which callers should treat as advisory; archive extraction remains
// the authoritative integrity check.
func (e *Engine) Download(ctx context.Context, key, destPath string) (int64, error) {
	size, err := e.store.HeadSize(ctx, key)
	if err != nil {
		return 0, err
	}

	if size < e.opts.LargeThreshold {
		if err := e.downloadSingle(ctx, key, destPath, size); err != nil {
			return 0, err
		}
	} else {
		if err := e.downloadChunked(ctx, key, destPath, size); err != nil {
			return 0, err
		}
	}

	if info, err := os.Stat(destPath); err == nil && info.Size() != size {
		// Not fatal here: extraction is the authoritative error signal for
		// a truncated archive.
		e.logger.Warn().
			Str("key", key).
			Int64("expected", size).
			Int64("actual", info.Size()).
			Msg("downloaded size differs from probed size")
	}

	metrics.TransferBytes.WithLabelValues("download").Add(float64(size))
	return size, nil
}

func (e *Engine) downloadSingle(ctx context.Context, key, destPath string, size int64) error {
	if size == 0 {
		return os.WriteFile(destPath, nil, 0o644)
	}
	data, err := e.store.GetRange(ctx, key, 0, size-1)
	if err != nil {
		return err
	}
	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", destPath, err)
	}
	return nil
}

func (e *Engine) downloadChunked(ctx context.Context, key, destPath string, size int64) error {
	parts := partition(size, e.opts.ChunkSize, destPath)
	e.logger.Info().
		Str("key", key).
		Int64("size", size).
		Int("parts", len(parts)).
		Int("concurrency", e.opts.MaxConcurrent).
		Msg("starting chunked download")

	if err := e.downloadParts(ctx, key, parts); err != nil {
		removeTempFiles(parts)
		return err
	}
	if err := reassemble(destPath, parts); err != nil {
		removeTempFiles(parts)
		return fault.New(fault.KindStorage, fmt.Errorf("reassemble %s: %w", destPath, err))
	}
	return nil
}

// downloadParts fetches parts in batches of MaxConcurrent. Batch k+1 does
// not start until every download in batch k has settled, which caps
// outstanding connections while overlapping latency within a batch.
func (e *Engine) downloadParts(ctx context.Context, key string, parts []part) error {
	for batchStart := 0; batchStart < len(parts); batchStart += e.opts.MaxConcurrent {
		batchEnd := min(batchStart+e.opts.MaxConcurrent, len(parts))

		g, gctx := errgroup.WithContext(ctx)
		for _, p := range parts[batchStart:batchEnd] {
			g.Go(func() error {
				return e.downloadPart(gctx, key, p, len(parts))
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// downloadPart fetches one byte range with up to MaxRetries attempts and
// exponential backoff between them. Only storage failures are retried; a
// local write error aborts immediately.
func (e *Engine) downloadPart(ctx context.Context, key string, p part, totalParts int) error {
	wantLen := p.end - p.start + 1
	attempt := 0

	op := func() error {
		attempt++
		if attempt > 1 {
			metrics.PartRetries.Inc()
		}

		data, err := e.store.GetRange(ctx, key, p.start, p.end)
		if err != nil {
			e.logger.Warn().
				Err(err).
				Str("key", key).
				Int("part", p.index+1).
				Int("attempt", attempt).
				Int("max_attempts", e.opts.MaxRetries).
				Msg("part download failed")
			return err
		}
		if int64(len(data)) != wantLen {
			// The store already answered 206 for this range; a short or
			// long body is logged but does not burn a retry.
			e.logger.Warn().
				Str("key", key).
				Int("part", p.index+1).
				Int64("expected", wantLen).
				Int("actual", len(data)).
				Msg("part length differs from requested range")
		}
		if err := os.WriteFile(p.tempPath, data, 0o600); err != nil {
			return backoff.Permanent(fmt.Errorf("write part file %s: %w", p.tempPath, err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.opts.BaseDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = e.opts.BaseDelay << 6
	bo.MaxElapsedTime = 0

	err := backoff.Retry(op, backoff.WithContext(
		backoff.WithMaxRetries(bo, uint64(e.opts.MaxRetries-1)), ctx))
	if err != nil {
		return fmt.Errorf("part %d of %d failed after %d attempts: %w",
			p.index+1, totalParts, attempt, err)
	}
	return nil
}

// reassemble concatenates part temp files into destPath in ascending part
// order, deleting each temp file once appended. Order is mandatory;
// out-of-order writes would silently corrupt the archive.
func reassemble(destPath string, parts []part) error {
	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	defer out.Close()

	for _, p := range parts {
		data, err := os.ReadFile(p.tempPath)
		if err != nil {
			return fmt.Errorf("read part %d: %w", p.index+1, err)
		}
		if _, err := out.Write(data); err != nil {
			return fmt.Errorf("append part %d: %w", p.index+1, err)
		}
		os.Remove(p.tempPath)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", destPath, err)
	}
	return nil
}

func partition(size, chunkSize int64, destPath string) []part {
	var parts []part
	for start := int64(0); start < size; start += chunkSize {
		end := min(start+chunkSize, size) - 1
		i := len(parts)
		parts = append(parts, part{
			index:    i,
			start:    start,
			end:      end,
			tempPath: fmt.Sprintf("%s.part%d", destPath, i),
		})
	}
	return parts
}

func removeTempFiles(parts []part) {
	for _, p := range parts {
		os.Remove(p.tempPath)
	}
}
