package mot

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MatchingAlgorithm is for algorithm type for matching detections to tracks
type MatchingAlgorithm uint16

const (
	// MatchingAlgorithmGreedy resolves the smallest row minima first and claims rows/columns on first-come basis.
	// Cheap, but not guaranteed to produce minimal total distance
	MatchingAlgorithmGreedy MatchingAlgorithm = iota
	// MatchingAlgorithmHungarian solves assignment with Kuhn-Munkres: maximal number of pairs within
	// maxDistance, then minimal total distance among them.
	// Changes ID continuity under ambiguous configurations compared to greedy one
	MatchingAlgorithmHungarian
)

func (algorithm MatchingAlgorithm) String() string {
	switch algorithm {
	case MatchingAlgorithmGreedy:
		return "greedy"
	case MatchingAlgorithmHungarian:
		return "hungarian"
	default:
		return fmt.Sprintf("MatchingAlgorithm(%d)", uint16(algorithm))
	}
}

// ParseMatchingAlgorithm converts textual name (as returned by String) into MatchingAlgorithm
func ParseMatchingAlgorithm(name string) (MatchingAlgorithm, error) {
	switch name {
	case "greedy", "":
		return MatchingAlgorithmGreedy, nil
	case "hungarian":
		return MatchingAlgorithmHungarian, nil
	default:
		return 0, fmt.Errorf("unknown matching algorithm %q", name)
	}
}

// distanceMatrix builds matrix where rows are live tracks (insertion order) and columns are detections (input order)
func distanceMatrix(tracks []*trackState, centroids []Point) *mat.Dense {
	distances := mat.NewDense(len(tracks), len(centroids), nil)
	for row, track := range tracks {
		for col, centroid := range centroids {
			distances.Set(row, col, track.gatingDistance(centroid))
		}
	}
	return distances
}

// matchGreedy returns claimed (row, col) pairs.
// Rows are visited by ascending minimum distance (ties by row order), each row offers its arg-min column only.
// Pair is skipped if row or column is already claimed or distance exceeds maxDistance.
func matchGreedy(distances *mat.Dense, maxDistance float64) [][2]int {
	rowsNum, colsNum := distances.Dims()
	queue := make(distanceHeap, 0, rowsNum)
	for row := 0; row < rowsNum; row++ {
		values := distances.RawRowView(row)
		col := floats.MinIdx(values)
		queue.Push(rowMinimum{
			row:      row,
			col:      col,
			distance: values[col],
		})
	}

	matches := make([][2]int, 0, min(rowsNum, colsNum))
	usedRows := make(map[int]struct{}, rowsNum)
	usedCols := make(map[int]struct{}, colsNum)
	for queue.Len() > 0 {
		candidate := queue.Pop()
		if _, ok := usedRows[candidate.row]; ok {
			continue
		}
		if _, ok := usedCols[candidate.col]; ok {
			continue
		}
		// Too far to be the same object
		if candidate.distance > maxDistance {
			continue
		}
		usedRows[candidate.row] = struct{}{}
		usedCols[candidate.col] = struct{}{}
		matches = append(matches, [2]int{candidate.row, candidate.col})
	}
	return matches
}

// matchHungarian returns claimed (row, col) pairs: the largest possible number of pairs within maxDistance,
// and among those the one of minimal total distance. Result is sorted by row.
func matchHungarian(distances *mat.Dense, maxDistance float64) [][2]int {
	rowsNum, colsNum := distances.Dims()
	if rowsNum == 0 || colsNum == 0 {
		return [][2]int{}
	}

	// Forbidden cost exceeds sum of all admissible distances, so one more pair always beats any saving in distance
	forbidden := 1.0
	for row := 0; row < rowsNum; row++ {
		for _, dist := range distances.RawRowView(row) {
			if dist <= maxDistance {
				forbidden += dist
			}
		}
	}
	costs := mat.NewDense(rowsNum, colsNum, nil)
	costs.Apply(func(_, _ int, dist float64) float64 {
		if dist > maxDistance {
			return forbidden
		}
		return dist
	}, distances)

	assignments := hungarianAssign(costs, forbidden)
	matches := make([][2]int, 0, min(rowsNum, colsNum))
	for row, col := range assignments {
		if col < 0 {
			continue
		}
		matches = append(matches, [2]int{row, col})
	}
	return matches
}
