package client

import "time"

// task is a cancellable timer whose callback runs on the event loop.
// Resetting or stopping a task invalidates callbacks already in flight.
type task struct {
	sess  *Session
	fn    func()
	timer *time.Timer
	seq   uint64
}

func newTask(s *Session, fn func()) *task {
	return &task{sess: s, fn: fn}
}

// reset replaces any pending run with one after d.
func (t *task) reset(d time.Duration) {
	t.stop()
	seq := t.seq
	t.timer = time.AfterFunc(d, func() {
		t.sess.post(func() {
			if t.seq == seq {
				t.timer = nil
				t.fn()
			}
		})
	})
}

// stop cancels the pending run.
func (t *task) stop() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.seq++
}

func (t *task) pending() bool {
	return t.timer != nil
}
