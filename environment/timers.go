package environment

import (
	"container/heap"
	"sync"

	"github.com/dop251/goja"
)

// scheduledCall is one entry in the TimerQueue's priority queue.
type scheduledCall struct {
	seq      int64
	deadline int64
	interval int64 // 0 for a one-shot timeout, >0 for setInterval
	fn       goja.Callable
	cleared  bool
}

type timerHeap []*scheduledCall

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline == h[j].deadline {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline < h[j].deadline
}
func (h timerHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)        { *h = append(*h, x.(*scheduledCall)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// TimerQueue is the reference FakeTimers implementation: a minimal,
// jitter-free priority queue of scheduled callbacks. It intentionally
// does not virtualize Date.now.
type TimerQueue struct {
	mu      sync.Mutex
	rt      *goja.Runtime
	clock   int64
	seq     int64
	fake    bool
	pending timerHeap
}

// NewTimerQueue wires setTimeout/setInterval/clearTimeout/clearInterval
// onto rt's global scope.
func NewTimerQueue(rt *goja.Runtime) *TimerQueue {
	tq := &TimerQueue{rt: rt}
	rt.Set("setTimeout", tq.setTimeout)
	rt.Set("setInterval", tq.setInterval)
	rt.Set("clearTimeout", tq.clear)
	rt.Set("clearInterval", tq.clear)
	rt.Set("setImmediate", tq.setImmediate)
	return tq
}

func (tq *TimerQueue) schedule(fn goja.Value, delayMs int64, interval int64) int64 {
	callable, ok := goja.AssertFunction(fn)
	if !ok {
		return -1
	}
	tq.mu.Lock()
	defer tq.mu.Unlock()
	tq.seq++
	call := &scheduledCall{seq: tq.seq, deadline: tq.clock + delayMs, interval: interval, fn: callable}
	heap.Push(&tq.pending, call)
	return call.seq
}

func (tq *TimerQueue) setTimeout(fn goja.Value, delayMs int64) int64 {
	return tq.schedule(fn, delayMs, 0)
}

func (tq *TimerQueue) setInterval(fn goja.Value, delayMs int64) int64 {
	return tq.schedule(fn, delayMs, delayMs)
}

func (tq *TimerQueue) setImmediate(fn goja.Value) int64 {
	return tq.schedule(fn, 0, 0)
}

func (tq *TimerQueue) clear(id int64) {
	tq.mu.Lock()
	defer tq.mu.Unlock()
	for _, c := range tq.pending {
		if c.seq == id {
			c.cleared = true
		}
	}
}

// UseFake sets the queue's fake flag. Scheduling does not depend on the
// flag: callbacks are always queued until a Run* method drains them.
func (tq *TimerQueue) UseFake() {
	tq.mu.Lock()
	defer tq.mu.Unlock()
	tq.fake = true
}

// UseReal clears the queue's fake flag. Callbacks scheduled afterwards are
// still queued, not run immediately, and already-queued calls are left
// pending.
func (tq *TimerQueue) UseReal() {
	tq.mu.Lock()
	defer tq.mu.Unlock()
	tq.fake = false
}

func (tq *TimerQueue) drain(onlyOnce bool) {
	for {
		tq.mu.Lock()
		if tq.pending.Len() == 0 {
			tq.mu.Unlock()
			return
		}
		call := heap.Pop(&tq.pending).(*scheduledCall)
		tq.clock = call.deadline
		tq.mu.Unlock()

		if call.cleared {
			continue
		}

		// Re-arm an interval before running it, under its original id, so a
		// clearInterval issued from inside the callback finds and cancels it.
		if call.interval > 0 && !onlyOnce {
			tq.mu.Lock()
			call.deadline = tq.clock + call.interval
			heap.Push(&tq.pending, call)
			tq.mu.Unlock()
		}
		call.fn(goja.Undefined())
	}
}

// RunAllTicks and RunAllImmediates both run every currently-pending
// zero-delay callback; RunAllTimers runs everything, including intervals
// re-armed as they fire, until the queue is empty.
func (tq *TimerQueue) RunAllTicks()       { tq.drainZeroDelay() }
func (tq *TimerQueue) RunAllImmediates()  { tq.drainZeroDelay() }
func (tq *TimerQueue) RunAllTimers()      { tq.drain(false) }
func (tq *TimerQueue) RunOnlyPending()    { tq.drain(true) }

func (tq *TimerQueue) drainZeroDelay() {
	for {
		tq.mu.Lock()
		if tq.pending.Len() == 0 || tq.pending[0].deadline > tq.clock {
			tq.mu.Unlock()
			return
		}
		tq.mu.Unlock()
		tq.drainOne()
	}
}

func (tq *TimerQueue) drainOne() {
	tq.mu.Lock()
	if tq.pending.Len() == 0 {
		tq.mu.Unlock()
		return
	}
	call := heap.Pop(&tq.pending).(*scheduledCall)
	tq.mu.Unlock()
	if !call.cleared {
		call.fn(goja.Undefined())
	}
}

// ClearAll drops every pending callback, as Registry.Reset requires
// (mockClearTimers, §4.3).
func (tq *TimerQueue) ClearAll() {
	tq.mu.Lock()
	defer tq.mu.Unlock()
	tq.pending = nil
	tq.clock = 0
}
