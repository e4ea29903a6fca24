package highlighter

import (
	"sync"
	"time"
)

// Debouncer delays rescan requests per document key. A new request for a
// key supersedes the pending one. When the delay expires the post callback
// runs on the timer goroutine; it should only hand the key back to the host
// loop, which performs the scan.
type Debouncer struct {
	delay time.Duration
	post  func(key string)

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewDebouncer returns a debouncer calling post after delay.
func NewDebouncer(delay time.Duration, post func(key string)) *Debouncer {
	return &Debouncer{delay: delay, post: post, timers: map[string]*time.Timer{}}
}

// Schedule requests a rescan of key, replacing any pending request.
func (d *Debouncer) Schedule(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// a superseded timer that fired before Stop must not post
		if d.timers[key] != t {
			d.mu.Unlock()
			return
		}
		delete(d.timers, key)
		d.mu.Unlock()
		d.post(key)
	})
	d.timers[key] = t
}

// Cancel drops a pending request for key.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[key]; ok {
		t.Stop()
		delete(d.timers, key)
	}
}

// Pending reports the number of keys waiting to fire.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

// Stop cancels every pending request.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, t := range d.timers {
		t.Stop()
		delete(d.timers, k)
	}
}
