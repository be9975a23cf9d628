package metrics

import (
	"sync"

	"github.com/ohrstrom/edi-dab/pkg/edi"
	"github.com/ohrstrom/edi-dab/pkg/edi/bus"
)

// Collector accumulates receiver-wide counters derived from bus events.
// It never touches a DabSource directly; Subscribe wires it to a Bus so
// it can run in a process that has many sources feeding one bus.
type Collector struct {
	mu sync.RWMutex

	rxBytes  uint64
	rxFrames uint64
	rxRate   int

	aacpFramesExtracted uint64
	ensembleUpdates     uint64
	dlObjectsReceived   uint64
	motImagesReceived   uint64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Subscribe drains b until ctx-like stop is requested via the returned
// unsubscribe func, updating counters as matching events arrive.
func (c *Collector) Subscribe(b *bus.Bus) (stop func()) {
	ch, unsubscribe := b.Subscribe()
	done := make(chan struct{})
	go func() {
		for {
			select {
			case ev, ok := <-ch:
				if !ok {
					return
				}
				c.handle(ev)
			case <-done:
				return
			}
		}
	}()
	return func() {
		close(done)
		unsubscribe()
	}
}

func (c *Collector) handle(ev bus.Event) {
	switch ev.Kind {
	case bus.KindDabStatsUpdated:
		stats, ok := ev.Data.(edi.DabStats)
		if !ok {
			return
		}
		c.mu.Lock()
		c.rxBytes = stats.RxBytes
		c.rxFrames = stats.RxFrames
		c.rxRate = stats.RxRate
		c.mu.Unlock()
	case bus.KindAacpFramesExtracted:
		res, ok := ev.Data.(edi.AacpResult)
		if !ok {
			return
		}
		c.mu.Lock()
		c.aacpFramesExtracted += uint64(len(res.Frames))
		c.mu.Unlock()
	case bus.KindEnsembleUpdated:
		c.mu.Lock()
		c.ensembleUpdates++
		c.mu.Unlock()
	case bus.KindDlObjectReceived:
		c.mu.Lock()
		c.dlObjectsReceived++
		c.mu.Unlock()
	case bus.KindMotImageReceived:
		c.mu.Lock()
		c.motImagesReceived++
		c.mu.Unlock()
	}
}

// Reset clears all counters. Useful for testing.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rxBytes = 0
	c.rxFrames = 0
	c.rxRate = 0
	c.aacpFramesExtracted = 0
	c.ensembleUpdates = 0
	c.dlObjectsReceived = 0
	c.motImagesReceived = 0
}

// GetRxBytes returns total bytes fed to the decoder.
func (c *Collector) GetRxBytes() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rxBytes
}

// GetRxFrames returns total AF frames received.
func (c *Collector) GetRxFrames() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rxFrames
}

// GetRxRate returns the most recently reported receive rate.
func (c *Collector) GetRxRate() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rxRate
}

// GetAacpFramesExtracted returns the total number of AAC access units
// extracted across all subchannels.
func (c *Collector) GetAacpFramesExtracted() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.aacpFramesExtracted
}

// GetEnsembleUpdates returns the number of ensemble model changes observed.
func (c *Collector) GetEnsembleUpdates() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ensembleUpdates
}

// GetDlObjectsReceived returns the number of completed Dynamic Labels.
func (c *Collector) GetDlObjectsReceived() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dlObjectsReceived
}

// GetMotImagesReceived returns the number of completed MOT images (slides).
func (c *Collector) GetMotImagesReceived() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.motImagesReceived
}
