package queue

import (
	"container/heap"
	"sync"

	"github.com/sirupsen/logrus"

	"sitetext/pkg/models"
)

// --- Frontier heap ---

// item wraps a candidate in the heap with its priority and index
type item struct {
	candidate *models.Candidate
	priority  int // Lower value pops first (shallower pages)
	index     int // Heap index (required by heap interface)
}

type candidateHeap []*item

func (h candidateHeap) Len() int { return len(h) }

func (h candidateHeap) Less(i, j int) bool {
	return h[i].priority < h[j].priority
}

func (h candidateHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

// Push adds an element to the heap
func (h *candidateHeap) Push(x any) {
	n := len(*h)
	it := x.(*item)
	it.index = n
	*h = append(*h, it)
}

// Pop removes and returns the minimum-priority element from the heap
func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil  // avoid memory leak
	it.index = -1   // for safety
	*h = old[0 : n-1]
	return it
}

// Frontier is the thread-safe set of discovered-but-not-yet-processed
// candidates. Shallower candidates pop first as a traversal heuristic; callers
// must not rely on any ordering guarantee.
type Frontier struct {
	heap   candidateHeap
	mu     sync.Mutex
	cond   *sync.Cond // Signals waiting workers when an item arrives or the queue closes
	closed bool
	log    *logrus.Logger
}

// NewFrontier creates an empty Frontier
func NewFrontier(logger *logrus.Logger) *Frontier {
	f := &Frontier{log: logger}
	f.cond = sync.NewCond(&f.mu)
	heap.Init(&f.heap)
	return f
}

// Add pushes a candidate onto the frontier. A closed frontier discards the
// candidate and returns false so the caller can unwind any accounting tied
// to it.
func (f *Frontier) Add(c *models.Candidate) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		f.log.Warnf("Attempted to add candidate to closed frontier: %s", c.URL)
		return false
	}

	heap.Push(&f.heap, &item{candidate: c, priority: c.Depth})
	f.cond.Signal()
	return true
}

// Pop retrieves and removes one candidate. It blocks while the frontier is
// empty until a candidate is added or the frontier is closed.
// Returns (nil, false) once the frontier is closed and drained.
func (f *Frontier) Pop() (*models.Candidate, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for len(f.heap) == 0 {
		if f.closed {
			return nil, false
		}
		f.cond.Wait()
	}

	it := heap.Pop(&f.heap).(*item)
	return it.candidate, true
}

// Len returns the current number of queued candidates
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.heap)
}

// Close signals that no more candidates will be added. Waiting workers wake
// and drain whatever remains.
func (f *Frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.cond.Broadcast()
}
