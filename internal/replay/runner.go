package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/LdDl/centroid-mot/internal/config"
	"github.com/LdDl/centroid-mot/internal/observability"
	"github.com/LdDl/centroid-mot/mot"
)

// Summary aggregates a finished replay.
type Summary struct {
	Frames     int
	Detections int
	Registered int
	Evicted    int
	// Live tracks after the last frame
	Live int
}

// Runner feeds frames of a single stream through its own tracker.
type Runner struct {
	stream  string
	tracker *mot.CentroidTracker
	metrics *observability.Metrics
	logger  *slog.Logger
	summary Summary
}

// NewRunner builds tracker from cfg. metrics may be nil.
func NewRunner(cfg config.TrackerConfig, stream string, metrics *observability.Metrics, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	runner := &Runner{
		stream:  stream,
		metrics: metrics,
		logger:  logger.With("stream", stream),
	}
	tracker, err := cfg.NewTracker(
		mot.WithOnRegister(runner.onRegister),
		mot.WithOnDeregister(runner.onDeregister),
	)
	if err != nil {
		return nil, fmt.Errorf("create tracker: %w", err)
	}
	runner.tracker = tracker
	return runner, nil
}

// Tracker exposes underlying tracker
func (r *Runner) Tracker() *mot.CentroidTracker {
	return r.tracker
}

func (r *Runner) onRegister(track mot.Track) {
	r.summary.Registered++
	if r.metrics != nil {
		r.metrics.TrackRegistered(r.stream)
	}
	r.logger.Debug("track registered", "id", track.ID, "uuid", track.UUID, "x", track.Centroid.X, "y", track.Centroid.Y)
}

func (r *Runner) onDeregister(track mot.Track) {
	r.summary.Evicted++
	if r.metrics != nil {
		r.metrics.TrackEvicted(r.stream)
	}
	r.logger.Debug("track evicted", "id", track.ID, "uuid", track.UUID, "disappeared", track.Disappeared)
}

// Run processes frames until reader is exhausted or ctx is cancelled.
// writer may be nil when only the summary is needed. Rows of frames processed
// before an error or cancellation are flushed on every return path.
func (r *Runner) Run(ctx context.Context, reader *Reader, writer *Writer) (summary Summary, err error) {
	if writer != nil {
		defer func() {
			if flushErr := writer.Flush(); flushErr != nil {
				err = errors.Join(err, fmt.Errorf("flush output: %w", flushErr))
			}
		}()
	}
	for {
		if err := ctx.Err(); err != nil {
			return r.finish(), err
		}
		frame, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return r.finish(), err
		}

		start := time.Now()
		if _, err := r.tracker.Update(frame.Boxes); err != nil {
			return r.finish(), fmt.Errorf("frame %d: %w", frame.Index, err)
		}
		took := time.Since(start)

		r.summary.Frames++
		r.summary.Detections += len(frame.Boxes)
		if r.metrics != nil {
			r.metrics.ObserveFrame(r.stream, len(frame.Boxes), r.tracker.Len(), took)
		}
		if writer != nil {
			if err := writer.WriteFrame(frame.Index, r.tracker.Tracks()); err != nil {
				return r.finish(), fmt.Errorf("write frame %d: %w", frame.Index, err)
			}
		}
	}
	return r.finish(), nil
}

func (r *Runner) finish() Summary {
	r.summary.Live = r.tracker.Len()
	return r.summary
}
