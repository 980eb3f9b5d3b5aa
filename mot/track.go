package mot

import (
	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Track is a snapshot of one tracked object.
type Track struct {
	// Per-tracker identifier. Strictly increasing, never reused
	ID int
	// Globally unique key. Integer IDs restart at zero for every tracker, this one does not
	UUID uuid.UUID
	// Center of the most recently matched bounding box
	Centroid Point
	// Number of consecutive frames without a matching detection
	Disappeared int
	// Position predicted by motion model for the current frame. Equals Centroid when motion model is disabled
	Predicted Point
}

// trackState is live storage for a track. Track values handed out to callers are copies of it.
type trackState struct {
	id          int
	uuid        uuid.UUID
	centroid    Point
	disappeared int
	motion      *motionModel
}

func (state *trackState) snapshot() Track {
	predicted := state.centroid
	if state.motion != nil {
		predicted = state.motion.predicted
	}
	return Track{
		ID:          state.id,
		UUID:        state.uuid,
		Centroid:    state.centroid,
		Disappeared: state.disappeared,
		Predicted:   predicted,
	}
}

// gatingDistance is distance used for association.
// With motion model enabled the closer of the current and predicted centroids wins.
func (state *trackState) gatingDistance(detection Point) float64 {
	dist := euclideanDistance(state.centroid, detection)
	if state.motion == nil {
		return dist
	}
	distPredicted := euclideanDistance(state.motion.predicted, detection)
	if distPredicted < dist {
		return distPredicted
	}
	return dist
}

// motionModel smooths centroid movement via 2D Kalman filter (constant acceleration control input)
type motionModel struct {
	predicted Point
	filter    *kalman_filter.Kalman2D
}

func newMotionModel(center Point, dt float64) *motionModel {
	/* Kalman filter props */
	ux := 1.0
	uy := 1.0
	stdDevA := 2.0
	stdDevMx := 0.1
	stdDevMy := 0.1
	kf := kalman_filter.NewKalman2D(dt, ux, uy, stdDevA, stdDevMx, stdDevMy, kalman_filter.WithState2D(center.X, center.Y))
	return &motionModel{
		predicted: center,
		filter:    kf,
	}
}

// predict executes Kalman filter's first step and stores predicted position
func (model *motionModel) predict() {
	model.filter.Predict()
	stateX, stateY := model.filter.GetState()
	model.predicted.X = stateX
	model.predicted.Y = stateY
}

// correct feeds measured centroid into Kalman filter (second step)
func (model *motionModel) correct(measurement Point) error {
	err := model.filter.Update(measurement.X, measurement.Y)
	if err != nil {
		return errors.Wrap(err, "Can't update motion model")
	}
	return nil
}
