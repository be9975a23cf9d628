package edi

import (
	"testing"

	"github.com/ohrstrom/edi-dab/pkg/edi/bus"
)

// Ten AF frames carrying one est tag each, all for scid 1 (the tag
// value's own 3-byte sub-channel header, not the tag name, selects the
// subchannel): the first five 24-byte fragments establish the audio
// format (AAC-LC, 32kHz), the next five carry four AU boundaries worth
// of AAC frames. Byte contents mirror pkg/edi/msc's superframe1/
// superframe2 test fixtures, wrapped in AF framing with a hand-computed
// CCITT CRC trailer.
var sf1Frames = [][]byte{
	{65, 70, 0, 0, 0, 35, 0, 0, 144, 84, 101, 115, 116, 49, 0, 0, 0, 216, 4, 0, 0, 40, 69, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 239, 206},
	{65, 70, 0, 0, 0, 35, 0, 1, 144, 84, 101, 115, 116, 49, 0, 0, 0, 216, 4, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 214, 226},
	{65, 70, 0, 0, 0, 35, 0, 2, 144, 84, 101, 115, 116, 49, 0, 0, 0, 216, 4, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 235, 110},
	{65, 70, 0, 0, 0, 35, 0, 3, 144, 84, 101, 115, 116, 49, 0, 0, 0, 216, 4, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 15, 245},
	{65, 70, 0, 0, 0, 35, 0, 4, 144, 84, 101, 115, 116, 49, 0, 0, 0, 216, 4, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 144, 118},
}

var sf2Frames = [][]byte{
	{65, 70, 0, 0, 0, 35, 0, 0, 144, 84, 101, 115, 116, 49, 0, 0, 0, 216, 4, 0, 0, 174, 65, 0, 2, 128, 72, 6, 136, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 205, 9},
	{65, 70, 0, 0, 0, 35, 0, 1, 144, 84, 101, 115, 116, 49, 0, 0, 0, 216, 4, 0, 0, 32, 33, 34, 35, 36, 37, 38, 39, 40, 41, 42, 43, 44, 45, 23, 164, 32, 33, 34, 35, 36, 37, 38, 39, 142, 194},
	{65, 70, 0, 0, 0, 35, 0, 2, 144, 84, 101, 115, 116, 49, 0, 0, 0, 216, 4, 0, 0, 40, 41, 42, 43, 44, 45, 46, 47, 48, 49, 50, 51, 52, 53, 54, 55, 56, 57, 58, 59, 60, 61, 195, 208, 124, 72},
	{65, 70, 0, 0, 0, 35, 0, 3, 144, 84, 101, 115, 116, 49, 0, 0, 0, 216, 4, 0, 0, 48, 49, 50, 51, 52, 53, 54, 55, 56, 57, 58, 59, 60, 61, 62, 63, 64, 65, 66, 67, 68, 69, 70, 71, 85, 130},
	{65, 70, 0, 0, 0, 35, 0, 4, 144, 84, 101, 115, 116, 49, 0, 0, 0, 216, 4, 0, 0, 72, 73, 74, 75, 76, 77, 189, 155, 64, 65, 66, 67, 44, 55, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 201, 224},
}

func TestDabSource_EstTagDrivesAacpExtraction(t *testing.T) {
	b := bus.New()
	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	d := NewDabSource(1, b, nil)
	for _, f := range sf1Frames {
		d.Feed(f)
	}
	for _, f := range sf2Frames {
		d.Feed(f)
	}

	var gotFrames bool
drain:
	for {
		select {
		case ev := <-ch:
			if ev.Kind == bus.KindAacpFramesExtracted {
				res := ev.Data.(AacpResult)
				if res.SCID != 1 {
					t.Fatalf("SCID = %d, want 1", res.SCID)
				}
				if len(res.Frames) > 0 {
					gotFrames = true
				}
			}
		default:
			break drain
		}
	}
	if !gotFrames {
		t.Fatalf("expected at least one AacpFramesExtracted event with frames")
	}
}

func TestDabSource_StatsAccumulate(t *testing.T) {
	d := NewDabSource(1, nil, nil)
	d.Feed(sf1Frames[0])
	d.Feed(sf1Frames[1])

	stats := d.Stats()
	if stats.RxFrames != 2 {
		t.Fatalf("RxFrames = %d, want 2", stats.RxFrames)
	}
	want := uint64(len(sf1Frames[0]) + len(sf1Frames[1]))
	if stats.RxBytes != want {
		t.Fatalf("RxBytes = %d, want %d", stats.RxBytes, want)
	}
}

func TestDabSource_GarbageBytesDoNotPanic(t *testing.T) {
	d := NewDabSource(1, nil, nil)
	d.Feed([]byte{0x00, 0x01, 'A', 'F'})
	d.Feed([]byte{'A', 'F', 0xFF, 0xFF, 0xFF, 0xFF, 0, 0, 0x90, 'T'})
}

func TestDabSource_Reset(t *testing.T) {
	d := NewDabSource(1, nil, nil)
	d.Feed(sf1Frames[0])
	if d.Stats().RxFrames == 0 {
		t.Fatalf("expected stats to advance before reset")
	}
	d.Reset()
	if d.Stats().RxFrames == 0 {
		t.Fatalf("Reset must not clear byte/frame counters, only decode state")
	}
	if d.Ensemble().EID != nil {
		t.Fatalf("expected ensemble to be cleared after reset")
	}
}
