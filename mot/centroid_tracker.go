package mot

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultMaxDisappeared is default number of consecutive unmatched frames before eviction
	DefaultMaxDisappeared = 50
	// DefaultMaxDistance is default max centroid displacement (in pixels) between frames for the same object
	DefaultMaxDistance = 50.0
)

// CentroidTracker assigns stable integer IDs to detections by matching each frame's
// bounding box centroids to centroids of tracks from the previous frame.
//
// It is not safe for concurrent use: callers must serialize Update calls
// (one tracker per video stream is the intended usage).
type CentroidTracker struct {
	// Live track IDs in insertion (creation) order
	ids []int
	// Main storage
	tracks map[int]*trackState
	nextID int
	// Max number of consecutive frames when object could not be found again. Default is 50
	maxDisappeared int
	// Threshold distance (most of time in pixels). Default is 50.0
	maxDistance float64

	algorithm        MatchingAlgorithm
	integerCentroids bool
	validateBoxes    bool
	// Kalman time step. Zero means motion model is disabled
	motionDt     float64
	onRegister   func(Track)
	onDeregister func(Track)
}

// NewCentroidTrackerDefault creates default instance of CentroidTracker
func NewCentroidTrackerDefault(opts ...Option) *CentroidTracker {
	return NewCentroidTracker(DefaultMaxDisappeared, DefaultMaxDistance, opts...)
}

// NewCentroidTracker creates new instance of CentroidTracker.
// Configuration is immutable after construction.
func NewCentroidTracker(maxDisappeared int, maxDistance float64, opts ...Option) *CentroidTracker {
	tracker := &CentroidTracker{
		ids:            make([]int, 0),
		tracks:         make(map[int]*trackState),
		maxDisappeared: maxDisappeared,
		maxDistance:    maxDistance,
		algorithm:      MatchingAlgorithmGreedy,
	}
	for _, opt := range opts {
		opt(tracker)
	}
	return tracker
}

// MaxDisappeared returns eviction threshold
func (tracker *CentroidTracker) MaxDisappeared() int {
	return tracker.maxDisappeared
}

// MaxDistance returns association distance threshold
func (tracker *CentroidTracker) MaxDistance() float64 {
	return tracker.maxDistance
}

// Algorithm returns matching strategy in use
func (tracker *CentroidTracker) Algorithm() MatchingAlgorithm {
	return tracker.algorithm
}

// NextID returns identifier which will be assigned to the next registered track
func (tracker *CentroidTracker) NextID() int {
	return tracker.nextID
}

// Len returns number of live tracks
func (tracker *CentroidTracker) Len() int {
	return len(tracker.ids)
}

// Register creates new track with given centroid using next available ID
func (tracker *CentroidTracker) Register(centroid Point) {
	state := &trackState{
		id:       tracker.nextID,
		uuid:     uuid.New(),
		centroid: centroid,
	}
	if tracker.motionDt > 0 {
		state.motion = newMotionModel(centroid, tracker.motionDt)
	}
	tracker.tracks[state.id] = state
	tracker.ids = append(tracker.ids, state.id)
	tracker.nextID++
	if tracker.onRegister != nil {
		tracker.onRegister(state.snapshot())
	}
}

// Deregister removes track with given ID.
// Removing unknown ID is a programming error and panics.
func (tracker *CentroidTracker) Deregister(id int) {
	state, ok := tracker.tracks[id]
	if !ok {
		panic(fmt.Sprintf("mot: deregister of unknown track %d", id))
	}
	delete(tracker.tracks, id)
	for i, liveID := range tracker.ids {
		if liveID == id {
			tracker.ids = append(tracker.ids[:i], tracker.ids[i+1:]...)
			break
		}
	}
	if tracker.onDeregister != nil {
		tracker.onDeregister(state.snapshot())
	}
}

// Objects returns copy of track-ID-to-centroid mapping
func (tracker *CentroidTracker) Objects() map[int]Point {
	objects := make(map[int]Point, len(tracker.ids))
	for _, id := range tracker.ids {
		objects[id] = tracker.tracks[id].centroid
	}
	return objects
}

// Tracks returns snapshots of live tracks in insertion order
func (tracker *CentroidTracker) Tracks() []Track {
	tracks := make([]Track, 0, len(tracker.ids))
	for _, id := range tracker.ids {
		tracks = append(tracks, tracker.tracks[id].snapshot())
	}
	return tracks
}

// Track returns snapshot of single live track
func (tracker *CentroidTracker) Track(id int) (Track, bool) {
	state, ok := tracker.tracks[id]
	if !ok {
		return Track{}, false
	}
	return state.snapshot(), true
}

// Update processes one frame of detections and returns current track-ID-to-centroid mapping.
// Boxes are (minX, minY, maxX, maxY); order carries no identity meaning.
//
// If number of live tracks is greater than or equal to number of detections then unmatched tracks are aged
// (and evicted once their counter exceeds maxDisappeared) while unmatched detections are dropped.
// Otherwise unmatched detections are registered and unmatched tracks are left as is.
func (tracker *CentroidTracker) Update(boxes []BoundingBox) (map[int]Point, error) {
	if tracker.validateBoxes {
		for i, box := range boxes {
			if err := box.Validate(); err != nil {
				return nil, errors.Wrapf(err, "detection %d", i)
			}
		}
	}

	rows := tracker.liveTracks()
	for _, state := range rows {
		if state.motion != nil {
			state.motion.predict()
		}
	}

	if len(boxes) == 0 {
		for _, state := range rows {
			tracker.markDisappeared(state)
		}
		return tracker.Objects(), nil
	}

	centroids := make([]Point, len(boxes))
	for i, box := range boxes {
		centroids[i] = box.Centroid()
		if tracker.integerCentroids {
			centroids[i] = centroids[i].truncate()
		}
	}

	if len(rows) == 0 {
		for _, centroid := range centroids {
			tracker.Register(centroid)
		}
		return tracker.Objects(), nil
	}

	distances := distanceMatrix(rows, centroids)
	matches := tracker.match(distances)

	// Filters are corrected before any centroid is committed: on error no track is moved, aged or registered
	for _, match := range matches {
		state := rows[match[0]]
		if state.motion == nil {
			continue
		}
		if err := state.motion.correct(centroids[match[1]]); err != nil {
			return nil, errors.Wrapf(err, "Can't update track %d", state.id)
		}
	}

	usedRows := make([]bool, len(rows))
	usedCols := make([]bool, len(centroids))
	for _, match := range matches {
		row, col := match[0], match[1]
		state := rows[row]
		state.centroid = centroids[col]
		state.disappeared = 0
		usedRows[row] = true
		usedCols[col] = true
	}

	if len(rows) >= len(centroids) {
		for row, used := range usedRows {
			if !used {
				tracker.markDisappeared(rows[row])
			}
		}
	} else {
		for col, used := range usedCols {
			if !used {
				tracker.Register(centroids[col])
			}
		}
	}
	return tracker.Objects(), nil
}

func (tracker *CentroidTracker) match(distances *mat.Dense) [][2]int {
	switch tracker.algorithm {
	case MatchingAlgorithmHungarian:
		return matchHungarian(distances, tracker.maxDistance)
	case MatchingAlgorithmGreedy:
		return matchGreedy(distances, tracker.maxDistance)
	default:
		return matchGreedy(distances, tracker.maxDistance)
	}
}

// markDisappeared increments no-match counter and evicts track once it exceeds maxDisappeared
func (tracker *CentroidTracker) markDisappeared(state *trackState) {
	state.disappeared++
	if state.disappeared > tracker.maxDisappeared {
		tracker.Deregister(state.id)
	}
}

func (tracker *CentroidTracker) liveTracks() []*trackState {
	rows := make([]*trackState, len(tracker.ids))
	for i, id := range tracker.ids {
		rows[i] = tracker.tracks[id]
	}
	return rows
}
