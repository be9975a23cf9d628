package pad

import (
	"github.com/ohrstrom/edi-dab/pkg/edi/bus"
	"github.com/ohrstrom/edi-dab/pkg/edi/tables"
	"github.com/ohrstrom/edi-dab/pkg/logger"
)

// DlPlusTag is one DL+ content-type tag: a label substring location,
// expressed in Unicode character offsets into the decoded label.
type DlPlusTag struct {
	Kind  uint8
	Start uint8
	Len   uint8
}

// DlObject is one fully-assembled Dynamic Label, its DL+ tags still
// unresolved against character offsets until Projections is called.
type DlObject struct {
	SCID     uint8
	Toggle   uint8
	Charset  uint8
	Chars    []byte
	DlPlus   []DlPlusTag
	SegCount uint8
}

// Label decodes the object's raw character bytes per its announced
// charset.
func (o *DlObject) Label() string {
	return tables.DecodeChars(o.Chars, o.Charset)
}

// IsDlPlus reports whether any DL+ tags were attached to this label.
func (o *DlObject) IsDlPlus() bool {
	return len(o.DlPlus) > 0
}

// DlPlusProjection is one DL+ tag resolved to its text substring.
type DlPlusProjection struct {
	Kind  tables.DlPlusContentType
	Value string
}

// Projections resolves each DL+ tag's (start, len) Unicode-offset pair
// against the decoded label, dropping Dummy tags and tags whose start lies
// past the end of the label, and clamping an end that runs past it.
func (o *DlObject) Projections() []DlPlusProjection {
	label := []rune(o.Label())
	n := len(label)

	var out []DlPlusProjection
	for _, tag := range o.DlPlus {
		kind := tables.ParseDlPlusContentType(tag.Kind)
		if kind.IsDummy() {
			continue
		}

		start := int(tag.Start)
		if start >= n {
			continue
		}
		end := start + int(tag.Len)
		if end > n {
			end = n
		}
		if end <= start {
			continue
		}

		out = append(out, DlPlusProjection{Kind: kind, Value: string(label[start:end])})
	}
	return out
}

// DlDecoder reassembles Dynamic Label segments into DlObjects and
// parses DL+ tag commands, publishing a DlObjectReceived event each time
// a label's toggle bit flips.
type DlDecoder struct {
	scid       uint8
	bus        *bus.Bus
	log        *logger.Logger
	current    *DlObject
	lastToggle *uint8
}

// NewDlDecoder creates a DlDecoder for one stream channel.
func NewDlDecoder(scid uint8, b *bus.Bus, log *logger.Logger) *DlDecoder {
	return &DlDecoder{scid: scid, bus: b, log: log}
}

// Feed submits one reassembled DL data-group payload.
func (d *DlDecoder) Feed(data []byte) {
	if len(data) < 2 {
		return
	}

	flags := data[0]
	numChars := int(flags&0x0F) + 1
	isFirst := flags&0x40 != 0
	isLast := flags&0x20 != 0
	toggle := (flags & 0x80) >> 7

	if data[0]&0x10 != 0 {
		switch data[0] & 0x0F {
		case 0x01:
			d.log.Debug("DL: clear display command")
		case 0x02:
			if len(data) < 3 {
				d.log.Warn("DL+ command too short")
				return
			}
			d.parseDlPlus(data[2:])
			return
		default:
			d.log.Debug("DL: unexpected command")
		}
	}

	nibble := (data[1] >> 4) & 0x0F
	var charset uint8
	if isFirst {
		charset = nibble
	}

	if isFirst {
		d.flush()
		d.current = &DlObject{SCID: d.scid, Toggle: toggle, Charset: charset}
	}

	start, end := 2, 2+numChars
	if len(data) < end {
		d.log.Warn("DL segment too short")
		return
	}
	if d.current != nil {
		d.current.Chars = append(d.current.Chars, data[start:end]...)
	}

	_ = isLast
}

func (d *DlDecoder) parseDlPlus(data []byte) {
	if len(data) == 0 {
		return
	}
	cid := (data[0] >> 4) & 0x0F
	if cid != 0 {
		return
	}

	numTags := int(data[0]&0x03) + 1
	if len(data) < 1+numTags*3 {
		return
	}

	for i := 0; i < numTags; i++ {
		base := 1 + i*3
		tag := DlPlusTag{
			Kind:  data[base] & 0x7F,
			Start: data[base+1] & 0x7F,
			Len:   (data[base+2] & 0x7F) + 1,
		}
		if d.current != nil {
			d.current.DlPlus = append(d.current.DlPlus, tag)
		}
	}
}

func (d *DlDecoder) flush() {
	if d.current == nil {
		return
	}
	current := d.current
	d.current = nil

	if len(current.Chars) == 0 {
		return
	}
	if d.lastToggle != nil && *d.lastToggle == current.Toggle {
		return
	}

	toggle := current.Toggle
	d.lastToggle = &toggle

	if d.bus != nil {
		d.bus.Emit(bus.Event{Kind: bus.KindDlObjectReceived, Data: current})
	}
}
