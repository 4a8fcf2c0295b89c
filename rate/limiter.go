package rate

import (
	"sync"
	"time"
)

// Window counts requests per client in fixed windows of Length. A client
// may issue Max requests per window; the counter resets when the window that
// started with its first request expires.
type Window struct {
	Max     int
	Length  time.Duration
	clients map[string]*clientWindow
	mu      sync.Mutex
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

type clientWindow struct {
	start time.Time
	count int
}

// Result describes the outcome of a Check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

func NewWindow(max int, length time.Duration) *Window {
	return newWindow(max, length, time.Now)
}

func newWindow(max int, length time.Duration, now func() time.Time) *Window {
	w := &Window{
		Max:     max,
		Length:  length,
		clients: make(map[string]*clientWindow),
		now:     now,
		done:    make(chan struct{}),
	}
	go w.refresh()
	return w
}

func (w *Window) Check(id string) Result {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	cl, ok := w.clients[id]
	if !ok || now.Sub(cl.start) >= w.Length {
		cl = &clientWindow{start: now}
		w.clients[id] = cl
	}

	res := Result{
		Limit: w.Max,
		Reset: cl.start.Add(w.Length),
	}
	if cl.count >= w.Max {
		return res
	}

	cl.count++
	res.Allowed = true
	res.Remaining = w.Max - cl.count
	return res
}

// Close stops the background sweep of expired clients.
func (w *Window) Close() {
	w.once.Do(func() { close(w.done) })
}

func (w *Window) refresh() {
	t := time.NewTicker(time.Minute)
	defer t.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-t.C:
		}

		w.mu.Lock()
		now := w.now()
		for id, cl := range w.clients {
			if now.Sub(cl.start) >= w.Length {
				delete(w.clients, id)
			}
		}
		w.mu.Unlock()
	}
}
