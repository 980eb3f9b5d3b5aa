package mot

// rowMinimum is the closest detection (column) for one live track (row) of distance matrix
type rowMinimum struct {
	row      int
	col      int
	distance float64
}

// distanceHeap is min-heap by distance with typed Push/Pop (sift-up/sift-down as in container/heap).
// Equal distances pop in row order, so popping everything is the same as a stable sort of rows by their minima.
type distanceHeap []rowMinimum

func (h distanceHeap) Len() int { return len(h) }
func (h distanceHeap) Less(i, j int) bool {
	if h[i].distance != h[j].distance {
		return h[i].distance < h[j].distance
	}
	return h[i].row < h[j].row
}
func (h distanceHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

// Push pushes the element x onto the heap.
// The complexity is O(log n) where n = h.Len().
func (h *distanceHeap) Push(x rowMinimum) {
	*h = append(*h, x)
	h.up(h.Len() - 1)
}

// Pop removes and returns the minimum element (according to Less) from the heap.
// The complexity is O(log n) where n = h.Len().
func (h *distanceHeap) Pop() rowMinimum {
	n := h.Len() - 1
	h.Swap(0, n)
	h.down(0, n)
	lastNode := (*h)[n]
	*h = (*h)[0:n]
	return lastNode
}

func (h distanceHeap) up(j int) {
	for {
		i := (j - 1) / 2
		if i == j || !h.Less(j, i) {
			break
		}
		h.Swap(i, j)
		j = i
	}
}

func (h distanceHeap) down(i, n int) {
	for {
		j1 := 2*i + 1
		if j1 >= n || j1 < 0 {
			break
		}
		j := j1
		if j2 := j1 + 1; j2 < n && h.Less(j2, j1) {
			j = j2
		}
		if !h.Less(j, i) {
			break
		}
		h.Swap(i, j)
		i = j
	}
}
