package mot

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// hungarianAssign solves rectangular min-cost assignment with Kuhn-Munkres potentials (Jonker-Volgenant variant), O(n^3).
// Matrix is padded to square with forbidden cost. Result maps row to column, -1 for rows
// left on padding or on a cell with cost >= forbidden.
func hungarianAssign(cost *mat.Dense, forbidden float64) []int {
	rowsNum, colsNum := cost.Dims()
	result := make([]int, rowsNum)
	for i := range result {
		result[i] = -1
	}
	if rowsNum == 0 || colsNum == 0 {
		return result
	}

	dim := max(rowsNum, colsNum)
	cell := func(i, j int) float64 {
		if i < rowsNum && j < colsNum {
			return cost.At(i, j)
		}
		return forbidden
	}

	const inf = math.MaxFloat64 / 2

	// 1-indexed, index 0 is the virtual column
	u := make([]float64, dim+1)
	v := make([]float64, dim+1)
	p := make([]int, dim+1) // p[j] is row owning column j
	way := make([]int, dim+1)
	minv := make([]float64, dim+1)
	used := make([]bool, dim+1)

	for i := 1; i <= dim; i++ {
		p[0] = i
		j0 := 0
		for j := 1; j <= dim; j++ {
			minv[j] = inf
			used[j] = false
		}
		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := -1
			for j := 1; j <= dim; j++ {
				if used[j] {
					continue
				}
				cur := cell(i0-1, j-1) - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			if j1 < 0 {
				break
			}
			for j := 0; j <= dim; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}
		// Augmenting path
		for j0 != 0 {
			p[j0] = p[way[j0]]
			j0 = way[j0]
		}
	}

	for j := 1; j <= dim; j++ {
		row, col := p[j]-1, j-1
		if row < 0 || row >= rowsNum || col >= colsNum {
			continue
		}
		if cost.At(row, col) >= forbidden {
			continue
		}
		result[row] = col
	}
	return result
}
