package msc

import "testing"

const testFLen = 24 // 5*24 = 120, a valid DAB+ superframe length

var superframe1 = []byte{
	40, 69, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0,
}

var superframe2 = []byte{
	174, 65, 0, 2, 128, 72, 6, 136, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31,
	32, 33, 34, 35, 36, 37, 38, 39, 40, 41, 42, 43, 44, 45, 23, 164,
	32, 33, 34, 35, 36, 37, 38, 39, 40, 41, 42, 43, 44, 45, 46, 47, 48, 49, 50, 51, 52, 53, 54, 55, 56, 57, 58, 59, 60, 61, 195, 208,
	48, 49, 50, 51, 52, 53, 54, 55, 56, 57, 58, 59, 60, 61, 62, 63, 64, 65, 66, 67, 68, 69, 70, 71, 72, 73, 74, 75, 76, 77, 189, 155,
	64, 65, 66, 67, 44, 55,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

func pad120(prefix []byte) []byte {
	buf := make([]byte, 120)
	copy(buf, prefix)
	return buf
}

func feedSuperframe(t *testing.T, e *Extractor, sf []byte) *Result {
	t.Helper()
	var last *Result
	for i := 0; i < 5; i++ {
		chunk := sf[i*testFLen : (i+1)*testFLen]
		res, err := e.Feed(chunk, testFLen)
		if err != nil {
			t.Fatalf("Feed: %v", err)
		}
		last = res
	}
	return last
}

func TestExtractor_FirstSuperframeEstablishesFormat(t *testing.T) {
	e := NewExtractor(1, nil)
	sf := pad120(superframe1)

	res := feedSuperframe(t, e, sf)
	if res == nil {
		t.Fatalf("expected a result on the 5th frame")
	}
	if res.AudioFormat == nil {
		t.Fatalf("expected audio format to be detected")
	}
	if res.AudioFormat.Codec != "AAC-LC" || res.AudioFormat.SampleRate != 32 {
		t.Fatalf("unexpected audio format: %+v", res.AudioFormat)
	}
	if len(res.Frames) != 0 {
		t.Fatalf("expected no AU frames on the format-establishing superframe, got %d", len(res.Frames))
	}
}

func TestExtractor_SecondSuperframeExtractsFourAUs(t *testing.T) {
	e := NewExtractor(1, nil)
	feedSuperframe(t, e, pad120(superframe1))
	res := feedSuperframe(t, e, superframe2)

	if res == nil {
		t.Fatalf("expected a result")
	}
	if len(res.Frames) != 4 {
		t.Fatalf("expected 4 AU frames, got %d", len(res.Frames))
	}
	if len(res.Frames[0]) != 30 {
		t.Fatalf("frame 0 length = %d, want 30", len(res.Frames[0]))
	}
	if len(res.Frames[3]) != 4 {
		t.Fatalf("frame 3 length = %d, want 4", len(res.Frames[3]))
	}
}

func TestExtractor_FireCodeMismatchKeepsBuffering(t *testing.T) {
	e := NewExtractor(1, nil)
	corrupted := pad120(superframe1)
	corrupted[0] ^= 0xFF

	res := feedSuperframe(t, e, corrupted)
	if res != nil {
		t.Fatalf("expected nil result on fire-code mismatch, got %+v", res)
	}
}

func TestExtractor_InvalidFrameLength(t *testing.T) {
	e := NewExtractor(1, nil)
	_, err := e.Feed(make([]byte, 7), 7)
	if err == nil {
		t.Fatalf("expected an error for an invalid frame length")
	}
}

func TestExtractPAD_DABPlusStreamID(t *testing.T) {
	au := []byte{0x80, 4, 0xAA, 0xBB, 0xCC, 0xDD}
	pad, ok := extractPAD(au)
	if !ok {
		t.Fatalf("expected PAD extraction to succeed")
	}
	if len(pad.XPAD) != 2 || len(pad.FPAD) != 2 {
		t.Fatalf("unexpected split: xpad=%v fpad=%v", pad.XPAD, pad.FPAD)
	}
}

func TestExtractPAD_NonDABPlusStreamIgnored(t *testing.T) {
	au := []byte{0x00, 4, 0xAA, 0xBB, 0xCC, 0xDD}
	_, ok := extractPAD(au)
	if ok {
		t.Fatalf("expected non-DAB+ stream id to be ignored")
	}
}
