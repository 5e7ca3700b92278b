package pose

// Copied from container/heap - https://golang.org/pkg/container/heap/
// Why make copy? Just want to avoid type conversion

// adjustmentHeap orders adjustments by urgency first, magnitude second,
// so popping yields the most pressing correction.
type adjustmentHeap []Adjustment

func (h adjustmentHeap) Len() int { return len(h) }
func (h adjustmentHeap) Less(i, j int) bool {
	if h[i].Urgency.rank() != h[j].Urgency.rank() {
		return h[i].Urgency.rank() > h[j].Urgency.rank()
	}
	return h[i].Magnitude > h[j].Magnitude
}
func (h adjustmentHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

// Push pushes the element x onto the heap.
// The complexity is O(log n) where n = h.Len().
func (h *adjustmentHeap) Push(x Adjustment) {
	*h = append(*h, x)
	h.up(h.Len() - 1)
}

// Pop removes and returns the highest-priority adjustment.
// The complexity is O(log n) where n = h.Len().
func (h *adjustmentHeap) Pop() Adjustment {
	n := h.Len() - 1
	h.Swap(0, n)
	h.down(0, n)
	heapSize := len(*h)
	lastNode := (*h)[heapSize-1]
	*h = (*h)[0 : heapSize-1]
	return lastNode
}

func (h adjustmentHeap) up(j int) {
	for {
		i := (j - 1) / 2
		if i == j || !h.Less(j, i) {
			break
		}
		h.Swap(i, j)
		j = i
	}
}

func (h adjustmentHeap) down(i0, n int) bool {
	i := i0
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
	return i > i0
}
