package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestFadeCancelStopsVolumeWrites tests that no ramp step lands once cancel returns
func TestFadeCancelStopsVolumeWrites(t *testing.T) {
	channel := newFakeChannel()
	fade := newFadeOp()

	done := make(chan struct{})
	go func() {
		fade.run(channel, 1, 0, 20*time.Millisecond, time.Millisecond, func(*fadeOp) {})
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	fade.cancel()
	settled := channel.currentVolume()

	<-done
	assert.Equal(t, settled, channel.currentVolume())
	assert.False(t, fade.step(channel, 0.5), "a cancelled op must refuse further steps")
}

// TestFadeCancelIdempotent tests that repeated cancels are harmless
func TestFadeCancelIdempotent(t *testing.T) {
	fade := newFadeOp()
	fade.cancel()
	fade.cancel()
	assert.False(t, fade.step(newFakeChannel(), 0.5))
}
