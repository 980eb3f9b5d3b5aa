package mot

// Option configures CentroidTracker at construction time
type Option func(*CentroidTracker)

// WithMatchingAlgorithm selects association strategy. Default is MatchingAlgorithmGreedy
func WithMatchingAlgorithm(algorithm MatchingAlgorithm) Option {
	return func(tracker *CentroidTracker) {
		tracker.algorithm = algorithm
	}
}

// WithIntegerCentroids truncates centroid coordinates toward zero (pixel grid)
func WithIntegerCentroids() Option {
	return func(tracker *CentroidTracker) {
		tracker.integerCentroids = true
	}
}

// WithBoxValidation makes Update reject malformed boxes with ErrInvalidBox instead of computing centroid from raw values
func WithBoxValidation() Option {
	return func(tracker *CentroidTracker) {
		tracker.validateBoxes = true
	}
}

// WithMotionModel attaches Kalman filter to every track. dt is time step between frames (e.g. 1/25 for 25 fps).
// Association then uses the smaller of distances to current and predicted centroid.
// Non-positive dt is replaced with 1.0
func WithMotionModel(dt float64) Option {
	return func(tracker *CentroidTracker) {
		if dt <= 0 {
			dt = 1.0
		}
		tracker.motionDt = dt
	}
}

// WithOnRegister sets callback which is called right after track creation
func WithOnRegister(fn func(Track)) Option {
	return func(tracker *CentroidTracker) {
		tracker.onRegister = fn
	}
}

// WithOnDeregister sets callback which is called right after track removal
func WithOnDeregister(fn func(Track)) Option {
	return func(tracker *CentroidTracker) {
		tracker.onDeregister = fn
	}
}
