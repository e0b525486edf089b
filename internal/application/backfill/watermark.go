package backfill

import "sync"

// watermark tracks the highest entity id below which every scheduled unit
// has finished.  Units finish out of order when several workers run, so the
// checkpoint may only move over a contiguous finished prefix.
type watermark struct {
	mu      sync.Mutex
	pending []string
	done    map[string]bool
}

func newWatermark() *watermark {
	return &watermark{done: map[string]bool{}}
}

// add registers id as scheduled.  Ids must be added in ascending order.
func (w *watermark) add(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, id)
}

// finish marks id as finished and reports the new watermark when it moved.
// The caller's save runs under the watermark lock so that positions are
// written in order.
func (w *watermark) finish(id string, save func(pos string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.done[id] = true

	n := 0
	for n < len(w.pending) && w.done[w.pending[n]] {
		delete(w.done, w.pending[n])
		n++
	}
	if n == 0 {
		return
	}
	pos := w.pending[n-1]
	w.pending = w.pending[n:]
	if save != nil {
		save(pos)
	}
}

//Personal.AI order the ending
