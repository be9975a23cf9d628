// Package edi wires the frame extractor, FIC/ensemble merge, AACP
// superframe extractors, and PAD decoders together into one entry point:
// feed it a raw EDI byte stream and it emits structured events on a Bus.
package edi

import (
	"time"

	"github.com/ohrstrom/edi-dab/pkg/edi/bus"
	"github.com/ohrstrom/edi-dab/pkg/edi/ensemble"
	"github.com/ohrstrom/edi-dab/pkg/edi/frame"
	"github.com/ohrstrom/edi-dab/pkg/edi/msc"
	"github.com/ohrstrom/edi-dab/pkg/edi/pad"
	"github.com/ohrstrom/edi-dab/pkg/logger"
)

// DabStats is a running byte/frame counter, snapshotted and emitted on
// the bus every time Feed processes a chunk.
type DabStats struct {
	RxRate   int
	RxBytes  uint64
	RxFrames uint64
}

func (s *DabStats) feed(data []byte, b *bus.Bus) {
	s.RxBytes += uint64(len(data))
	s.RxFrames++
	if b != nil {
		snapshot := *s
		b.Emit(bus.Event{Kind: bus.KindDabStatsUpdated, Timestamp: timeNow(), Data: snapshot})
	}
}

// timeNow is a seam so tests can avoid depending on wall-clock behavior
// if they ever need to; production code just wants "now".
var timeNow = time.Now

// AacpResult is one completed superframe's extracted AAC/HE-AAC access
// units, tagged with the stream channel and audio format in effect.
type AacpResult struct {
	SCID        uint8
	AudioFormat *msc.AudioFormat
	Frames      [][]byte
}

// subchannel owns one stream's AACP extractor and PAD decoder, created
// lazily the first time its est tag is seen.
type subchannel struct {
	scid      uint8
	extractor *msc.Extractor
	pad       *pad.Decoder
}

// DabSource is the top-level decode pipeline for one EDI byte stream. It
// is not safe for concurrent use from multiple goroutines; run one
// DabSource per connection/source, each on its own goroutine.
type DabSource struct {
	scid        uint8
	ensemble    *ensemble.Ensemble
	subchannels []*subchannel
	extractor   *frame.Extractor
	bus         *bus.Bus
	log         *logger.Logger
	stats       DabStats
}

// NewDabSource creates a DabSource. scid selects which subchannel's PAD
// (Dynamic Label / MOT) is decoded and published; audio frames are
// extracted and emitted for every subchannel carrying an est tag
// regardless of scid. b may be nil to run without publishing events.
func NewDabSource(scid uint8, b *bus.Bus, log *logger.Logger) *DabSource {
	if log == nil {
		log = logger.New(logger.Config{Level: "error"})
	}
	log = log.WithComponent("edi.source")
	return &DabSource{
		scid:      scid,
		ensemble:  ensemble.New(),
		extractor: frame.NewExtractor(log),
		bus:       b,
		log:       log,
	}
}

// SetSCID changes which subchannel's PAD is decoded; subsequent AF
// frames for the new scid begin accumulating PAD state afresh, since the
// subchannel's pad.Decoder was never created for it if it wasn't
// previously selected.
func (d *DabSource) SetSCID(scid uint8) {
	if old := d.subchannel(d.scid); old != nil && d.scid != scid {
		old.pad = nil
	}
	d.scid = scid
	if sc := d.subchannel(scid); sc != nil && sc.pad == nil {
		sc.pad = pad.NewDecoder(scid, d.bus, d.log)
	}
}

// Ensemble returns the current merged ensemble model. Callers must not
// mutate the returned value; it is owned by the DabSource.
func (d *DabSource) Ensemble() *ensemble.Ensemble {
	return d.ensemble
}

// Stats returns a snapshot of the receive counters.
func (d *DabSource) Stats() DabStats {
	return d.stats
}

// Reset clears all per-session state: the frame extractor's buffer, the
// ensemble model, and every subchannel's superframe/PAD state. It does
// not emit an EnsembleUpdated for the cleared state.
func (d *DabSource) Reset() {
	d.log.Info("DabSource: reset")
	d.extractor.Reset()
	d.ensemble.Reset()
	d.subchannels = nil
}

func (d *DabSource) subchannel(scid uint8) *subchannel {
	for _, sc := range d.subchannels {
		if sc.scid == scid {
			return sc
		}
	}
	return nil
}

func (d *DabSource) subchannelOrCreate(scid uint8) *subchannel {
	if sc := d.subchannel(scid); sc != nil {
		return sc
	}
	sc := &subchannel{scid: scid, extractor: msc.NewExtractor(scid, d.log)}
	if scid == d.scid {
		sc.pad = pad.NewDecoder(scid, d.bus, d.log)
	}
	sc.extractor.PADSink = func(p msc.PAD) {
		if sc.pad != nil {
			sc.pad.Feed(p.FPAD, p.XPAD)
		}
	}
	d.subchannels = append(d.subchannels, sc)
	return sc
}

// Feed submits one chunk of raw EDI bytes, which may span, split, or
// contain many AF frames. It extracts every complete frame, merges deti
// tags into the ensemble and feeds est tags to their subchannel's AACP
// extractor, emitting EnsembleUpdated/AacpFramesExtracted/DabStatsUpdated
// events on the Bus as they occur.
func (d *DabSource) Feed(data []byte) {
	d.stats.feed(data, d.bus)

	for _, tags := range d.extractor.Feed(data) {
		if tags.Deti != nil {
			d.ensemble.Feed(tags.Deti, d.bus)
		}

		for _, est := range tags.Ests {
			d.feedEst(est)
		}
	}
}

func (d *DabSource) feedEst(est frame.EstTag) {
	scid := est.SCID
	sc := d.subchannelOrCreate(scid)

	result, err := sc.extractor.Feed(est.Value, len(est.Value))
	if err != nil {
		d.log.Warn("error feeding AACP extractor", logger.Error(err), logger.Uint("scid", uint(scid)))
		return
	}
	if result == nil {
		return
	}

	if result.AudioFormat != nil {
		d.ensemble.UpdateAudioFormat(scid, result.AudioFormat, d.bus)
	}

	if d.bus != nil {
		d.bus.Emit(bus.Event{
			Kind:      bus.KindAacpFramesExtracted,
			Timestamp: timeNow(),
			Data:      AacpResult{SCID: scid, AudioFormat: result.AudioFormat, Frames: result.Frames},
		})
	}
}
