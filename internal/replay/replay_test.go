package replay

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LdDl/centroid-mot/internal/config"
	"github.com/LdDl/centroid-mot/internal/observability"
	"github.com/LdDl/centroid-mot/mot"
)

func trackerConfig(maxDisappeared int, maxDistance float64) config.TrackerConfig {
	return config.TrackerConfig{
		MaxDisappeared: &maxDisappeared,
		MaxDistance:    &maxDistance,
	}
}

func TestReader(t *testing.T) {
	input := `{"frame": 7, "detections": [[0, 0, 10, 10], [100, 100, 110, 120]]}

{"detections": []}
{"frame": 9}
`
	reader := NewReader(strings.NewReader(input))

	frames := []Frame{}
	for {
		frame, err := reader.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		frames = append(frames, frame)
	}

	want := []Frame{
		{Index: 7, Boxes: []mot.BoundingBox{{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}, {MinX: 100, MinY: 100, MaxX: 110, MaxY: 120}}},
		{Index: 1, Boxes: []mot.BoundingBox{}},
		{Index: 9, Boxes: []mot.BoundingBox{}},
	}
	if diff := cmp.Diff(want, frames); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestReaderErrors(t *testing.T) {
	reader := NewReader(strings.NewReader("{\"frame\": 1}\nnot json\n"))
	_, err := reader.Next()
	require.NoError(t, err)
	_, err = reader.Next()
	assert.ErrorContains(t, err, "line 2")

	_, err = NewReader(strings.NewReader(`{"detections": [[1, 2, 3]]}`)).Next()
	assert.ErrorContains(t, err, "expected 4")
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(&buf)
	require.NoError(t, writer.WriteFrame(0, []mot.Track{
		{ID: 0, Centroid: mot.NewPoint(5, 5)},
		{ID: 3, Centroid: mot.NewPoint(2.5, 10), Disappeared: 2},
	}))
	require.NoError(t, writer.WriteFrame(1, nil))
	require.NoError(t, writer.Flush())

	assert.Equal(t, "frame;id;x;y;disappeared\n0;0;5;5;0\n0;3;2.5;10;2\n", buf.String())
}

func TestRunnerEviction(t *testing.T) {
	input := `{"frame": 0, "detections": [[0, 0, 10, 10]]}
{"frame": 1, "detections": []}
{"frame": 2, "detections": []}
`
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	runner, err := NewRunner(trackerConfig(1, 50), "cam-1", metrics, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	summary, err := runner.Run(context.Background(), NewReader(strings.NewReader(input)), NewWriter(&buf))
	require.NoError(t, err)

	assert.Equal(t, Summary{Frames: 3, Detections: 1, Registered: 1, Evicted: 1, Live: 0}, summary)
	assert.Equal(t, "frame;id;x;y;disappeared\n0;0;5;5;0\n1;0;5;5;1\n", buf.String())
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.FramesProcessed.WithLabelValues("cam-1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TracksEvicted.WithLabelValues("cam-1")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.LiveTracks.WithLabelValues("cam-1")))
}

func TestRunnerNewObjectJoins(t *testing.T) {
	input := `{"detections": [[0, 0, 10, 10]]}
{"detections": [[3, 3, 7, 7], [195, 195, 205, 205]]}
`
	runner, err := NewRunner(trackerConfig(50, 50), "cam-2", nil, nil)
	require.NoError(t, err)

	summary, err := runner.Run(context.Background(), NewReader(strings.NewReader(input)), nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{Frames: 2, Detections: 3, Registered: 2, Live: 2}, summary)
	assert.Equal(t, map[int]mot.Point{0: {X: 5, Y: 5}, 1: {X: 200, Y: 200}}, runner.Tracker().Objects())
}

func TestRunnerInvalidBox(t *testing.T) {
	cfg := trackerConfig(50, 50)
	cfg.ValidateBoxes = true
	runner, err := NewRunner(cfg, "cam-3", nil, nil)
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), NewReader(strings.NewReader(`{"frame": 4, "detections": [[10, 10, 0, 0]]}`)), nil)
	assert.ErrorIs(t, err, mot.ErrInvalidBox)
	assert.ErrorContains(t, err, "frame 4")
}

func TestRunnerCancelled(t *testing.T) {
	runner, err := NewRunner(trackerConfig(50, 50), "cam-4", nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := runner.Run(ctx, NewReader(strings.NewReader(`{"detections": [[0, 0, 1, 1]]}`)), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, summary.Frames)
}

// cancelOnRead serves one line per Read and cancels ctx once the given line is requested
type cancelOnRead struct {
	lines    []string
	cancelAt int
	cancel   context.CancelFunc
	read     int
}

func (r *cancelOnRead) Read(p []byte) (int, error) {
	if r.read >= len(r.lines) {
		return 0, io.EOF
	}
	if r.read == r.cancelAt {
		r.cancel()
	}
	n := copy(p, r.lines[r.read])
	r.read++
	return n, nil
}

func TestRunnerCancelledMidStreamFlushes(t *testing.T) {
	runner, err := NewRunner(trackerConfig(50, 50), "cam-6", nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	input := &cancelOnRead{
		lines: []string{
			"{\"frame\": 0, \"detections\": [[0, 0, 10, 10]]}\n",
			"{\"frame\": 1, \"detections\": [[2, 2, 12, 12]]}\n",
			"{\"frame\": 2, \"detections\": [[4, 4, 14, 14]]}\n",
		},
		cancelAt: 1,
		cancel:   cancel,
	}

	var buf bytes.Buffer
	summary, err := runner.Run(ctx, NewReader(input), NewWriter(&buf))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, summary.Frames)
	assert.Equal(t, "frame;id;x;y;disappeared\n0;0;5;5;0\n1;0;7;7;0\n", buf.String())
}

func TestNewRunnerBadAlgorithm(t *testing.T) {
	cfg := trackerConfig(50, 50)
	cfg.Algorithm = "sort"
	_, err := NewRunner(cfg, "cam-5", nil, nil)
	assert.Error(t, err)
}

func TestRunnerFile(t *testing.T) {
	f, err := os.Open(filepath.Join("testdata", "detections.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	runner, err := NewRunner(trackerConfig(50, 50), "file", nil, nil)
	require.NoError(t, err)
	summary, err := runner.Run(context.Background(), NewReader(f), nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{Frames: 5, Detections: 7, Registered: 2, Live: 2}, summary)

	// Far detection on the last frame is dropped: live tracks and detections are equal in number
	want := []mot.Track{
		{ID: 0, Centroid: mot.NewPoint(7, 7), Predicted: mot.NewPoint(7, 7)},
		{ID: 1, Centroid: mot.NewPoint(105, 105), Predicted: mot.NewPoint(105, 105), Disappeared: 3},
	}
	if diff := cmp.Diff(want, runner.Tracker().Tracks(), cmpopts.IgnoreFields(mot.Track{}, "UUID")); diff != "" {
		t.Errorf("tracks mismatch (-want +got):\n%s", diff)
	}
}
