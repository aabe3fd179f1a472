package services

import (
	"sync"
	"time"
)

// fadeOp is one in-flight volume ramp. The engine holds at most one; starting
// a new transition cancels the prior op before the new one begins, so two
// fade timers can never fight over the channel's volume.
type fadeOp struct {
	mu        sync.Mutex
	cancelled bool
	stop      chan struct{}
}

func newFadeOp() *fadeOp {
	return &fadeOp{stop: make(chan struct{})}
}

// cancel is synchronous with respect to volume: the mutex is shared with the
// ramp step, so once cancel returns no further volume write lands. A
// completion callback racing the cancel is still possible; callers discard
// stale ops by identity.
func (f *fadeOp) cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.cancelled {
		f.cancelled = true
		close(f.stop)
	}
}

// step applies one ramp level unless the op was cancelled. The write happens
// under the cancel mutex, which is what makes cancel's guarantee hold.
func (f *fadeOp) step(channel Channel, level float64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelled {
		return false
	}
	channel.SetVolume(level)
	return true
}

// run ramps the channel volume from one level to another in periodic steps,
// then invokes onDone. Runs on its own goroutine; every step re-checks
// cancellation so a superseded fade dies quietly mid-ramp. onDone is called
// without the op mutex held, so it may safely re-enter the engine.
func (f *fadeOp) run(channel Channel, from, to float64, duration, step time.Duration, onDone func(*fadeOp)) {
	steps := int(duration / step)
	if steps < 1 {
		steps = 1
	}

	ticker := time.NewTicker(step)
	defer ticker.Stop()

	for i := 1; i <= steps; i++ {
		select {
		case <-f.stop:
			return
		case <-ticker.C:
		}
		if !f.step(channel, from+(to-from)*float64(i)/float64(steps)) {
			return
		}
	}

	f.mu.Lock()
	done := !f.cancelled
	f.mu.Unlock()
	if done {
		onDone(f)
	}
}
