package pad

import (
	"testing"

	"github.com/ohrstrom/edi-dab/pkg/edi/bus"
	"github.com/ohrstrom/edi-dab/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error"})
}

func TestDlDecoder_Segmentation(t *testing.T) {
	// Header byte bits: toggle=bit7, first=bit6, last=bit5, command=bit4,
	// num_chars=(low nibble)+1. Segment 1: first, num_chars=2, charset=0x4.
	seg1 := []byte{0x41, 0x40, 'H', 'i'}
	// Segment 2: last, num_chars=1.
	seg2 := []byte{0x20, 0x00, '!'}

	b := bus.New()
	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	d := NewDlDecoder(1, b, testLogger())
	d.Feed(seg1)
	d.Feed(seg2)
	d.flush()

	select {
	case ev := <-ch:
		obj := ev.Data.(*DlObject)
		if obj.Label() != "Hi!" {
			t.Fatalf("Label() = %q, want %q", obj.Label(), "Hi!")
		}
	default:
		t.Fatalf("expected a DlObjectReceived event")
	}
}

func TestDlObject_Projections_UnicodeOffsets(t *testing.T) {
	obj := &DlObject{
		Charset: 0xF, // UTF-8 passthrough
		Chars:   []byte("Türk"),
		DlPlus: []DlPlusTag{
			{Kind: 1, Start: 0, Len: 1},
			{Kind: 1, Start: 1, Len: 1},
		},
	}
	projections := obj.Projections()
	if len(projections) != 2 {
		t.Fatalf("expected 2 projections, got %d", len(projections))
	}
	if projections[0].Value != "T" {
		t.Fatalf("projection[0] = %q, want %q", projections[0].Value, "T")
	}
	if projections[1].Value != "ü" {
		t.Fatalf("projection[1] = %q, want %q", projections[1].Value, "ü")
	}
}

func TestDlObject_Projections_DropsDummyAndOutOfRange(t *testing.T) {
	obj := &DlObject{
		Charset: 0xF,
		Chars:   []byte("AB"),
		DlPlus: []DlPlusTag{
			{Kind: 0, Start: 0, Len: 1}, // Dummy, dropped
			{Kind: 1, Start: 5, Len: 1}, // out of range, dropped
		},
	}
	if got := obj.Projections(); len(got) != 0 {
		t.Fatalf("expected 0 projections, got %d", len(got))
	}
}

func TestMotDecoder_JPEGAssembly(t *testing.T) {
	b := bus.New()
	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	d := NewMotDecoder(1, b, testLogger())

	headerSeg := mscDataGroup{
		valid: true, segmentFlag: true, segType: 3,
		transportID: 5, lastFlag: true,
		dataField: append([]byte{0x00, 0x00}, []byte{0, 0, 0, 0x40, 3, 0x84, 1}...),
	}
	bodySeg := mscDataGroup{
		valid: true, segmentFlag: true, segType: 4,
		transportID: 5, lastFlag: true,
		dataField: append([]byte{0x00, 0x00}, []byte{0xDE, 0xAD, 0xBE, 0xEF}...),
	}

	d.Feed(headerSeg)
	d.Feed(bodySeg)

	select {
	case ev := <-ch:
		img := ev.Data.(*MotImage)
		if img.MimeType != "image/jpeg" {
			t.Fatalf("MimeType = %q, want image/jpeg", img.MimeType)
		}
		if img.Len != 4 {
			t.Fatalf("Len = %d, want 4", img.Len)
		}
	default:
		t.Fatalf("expected a MotImageReceived event")
	}
}

func TestParseMSCDataGroup_BasicFraming(t *testing.T) {
	// header: extension=0, crc=0, segment=1, user_access=0, seg_type=4
	// second byte: continuity/repetition (unused)
	// segment header: last_flag=1, segment_num=0
	data := []byte{0x24, 0x00, 0x80, 0x00, 0xAA, 0xBB}
	dg := parseMSCDataGroup(data)
	if !dg.valid {
		t.Fatalf("expected valid data group")
	}
	if !dg.segmentFlag || !dg.lastFlag {
		t.Fatalf("expected segment_flag and last_flag set")
	}
	if dg.segType != 4 {
		t.Fatalf("seg_type = %d, want 4", dg.segType)
	}
	if string(dg.dataField) != "\xaa\xbb" {
		t.Fatalf("unexpected data field: %v", dg.dataField)
	}
}

func TestBuildCIList_LongForm(t *testing.T) {
	fpad := []byte{0x20, 0x02} // fpad_type=0, xpad_ind=0b10 (long form), ci_flag set
	xpad := []byte{0x01 | (1 << 5), 0x00} // kind=1, len_index=1 (len=6)
	list, headerLen := buildCIList(xpad, fpad)
	if headerLen == 0 {
		t.Fatalf("expected nonzero header length")
	}
	if len(list) == 0 || list[0].kind != 1 {
		t.Fatalf("unexpected CI list: %+v", list)
	}
}
