package frame

import "testing"

// goodFrame carries a deti tag (no FIC, flags all clear) and one est tag
// whose 3-byte sub-channel header selects scid 1 and carries a 4-byte
// stream fragment.
var goodFrame = []byte{
	65, 70, 0, 0, 0, 27, 0, 0, 144, 84,
	100, 101, 116, 105, 0, 0, 0, 32, 0, 0, 0, 0,
	101, 115, 116, 49, 0, 0, 0, 56, 4, 0, 0, 170, 187, 204, 221,
	155, 143,
}

func TestExtractor_HappyPath(t *testing.T) {
	e := NewExtractor(nil)
	tags := e.Feed(goodFrame)
	if len(tags) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(tags))
	}
	if tags[0].Deti == nil {
		t.Fatalf("expected a deti tag")
	}
	if len(tags[0].Ests) != 1 {
		t.Fatalf("expected 1 est tag, got %d", len(tags[0].Ests))
	}
	est := tags[0].Ests[0]
	if est.SCID != 1 {
		t.Fatalf("SCID = %d, want 1", est.SCID)
	}
	if len(est.Value) != 4 || est.Value[0] != 0xAA {
		t.Fatalf("unexpected est value: %v", est.Value)
	}
}

func TestExtractor_ChunkingInvariant(t *testing.T) {
	e := NewExtractor(nil)
	var tags []Tags
	for i := 0; i < len(goodFrame); i++ {
		tags = append(tags, e.Feed(goodFrame[i:i+1])...)
	}
	if len(tags) != 1 {
		t.Fatalf("expected 1 frame across byte-at-a-time feed, got %d", len(tags))
	}
	if tags[0].Deti == nil {
		t.Fatalf("expected a deti tag")
	}
}

func TestExtractor_CRCRejection(t *testing.T) {
	corrupted := append([]byte{}, goodFrame...)
	corrupted[len(corrupted)-1] ^= 0xFF

	e := NewExtractor(nil)
	tags := e.Feed(corrupted)
	if len(tags) != 0 {
		t.Fatalf("expected corrupted frame to be dropped, got %d tags", len(tags))
	}
}

func TestExtractor_ResyncsPastGarbage(t *testing.T) {
	garbage := []byte{0x00, 0x01, 0x02, 'A', 0x55}
	stream := append(append([]byte{}, garbage...), goodFrame...)

	e := NewExtractor(nil)
	tags := e.Feed(stream)
	if len(tags) != 1 {
		t.Fatalf("expected 1 frame after resync, got %d", len(tags))
	}
}

func TestExtractor_BadFlagsDropped(t *testing.T) {
	bad := append([]byte{}, goodFrame...)
	bad[8] = 0x00 // clear CF bit
	e := NewExtractor(nil)
	tags := e.Feed(bad)
	if len(tags) != 0 {
		t.Fatalf("expected frame with bad flags to be dropped, got %d tags", len(tags))
	}
}

func TestExtractor_TwoFramesBackToBack(t *testing.T) {
	stream := append(append([]byte{}, goodFrame...), goodFrame...)
	e := NewExtractor(nil)
	tags := e.Feed(stream)
	if len(tags) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(tags))
	}
}
