// Package pad demultiplexes F-PAD/X-PAD bytes out of each DAB+ Access
// Unit into MSC data groups, and assembles those data groups into
// Dynamic Label and MOT (Multimedia Object Transfer) objects.
package pad

import (
	"github.com/ohrstrom/edi-dab/pkg/edi/bus"
	"github.com/ohrstrom/edi-dab/pkg/logger"
)

// xpadCILenLookup maps the 3-bit length-index field of an X-PAD CI byte
// to its payload length in bytes.
var xpadCILenLookup = [8]int{4, 6, 8, 12, 16, 24, 32, 48}

// ci is one X-PAD Content Indicator: a data-group kind tag plus the byte
// length of the payload it introduces.
type ci struct {
	kind int8 // -1 marks "no continuation pending"
	len  int
}

func ciFromRaw(raw byte) ci {
	lenIndex := raw >> 5
	length := 0
	if int(lenIndex) < len(xpadCILenLookup) {
		length = xpadCILenLookup[lenIndex]
	}
	return ci{kind: int8(raw & 0x1F), len: length}
}

func (c ci) valid() bool { return c.kind != -1 }

// mscDataGroup is one parsed MSC data group: the generic framing that
// both DL and MOT payloads ride inside.
type mscDataGroup struct {
	valid            bool
	extensionFlag    bool
	segmentFlag      bool
	userAccessFlag   bool
	segType          uint8
	lastFlag         bool
	segmentNum       int
	transportIDFlag  bool
	transportID      int
	endUserAddrField []byte
	dataField        []byte
}

func parseMSCDataGroup(data []byte) mscDataGroup {
	var dg mscDataGroup
	if len(data) < 2 {
		return dg
	}

	idx := 0
	header := data[idx]
	idx++

	crcFlag := header&0x40 != 0
	dg.extensionFlag = header&0x80 != 0
	dg.segmentFlag = header&0x20 != 0
	dg.userAccessFlag = header&0x10 != 0
	dg.segType = header & 0x0F

	idx++ // second byte carries continuity/repetition indices, unused downstream

	if dg.extensionFlag {
		if len(data) < idx+2 {
			return dg
		}
		idx += 2
	}

	if dg.segmentFlag {
		if len(data) < idx+2 {
			return dg
		}
		dg.lastFlag = data[idx]&0x80 != 0
		dg.segmentNum = int(data[idx]&0x7F)<<8 | int(data[idx+1])
		idx += 2
	}

	if dg.userAccessFlag {
		if len(data) < idx+1 {
			return dg
		}
		b := data[idx]
		idx++
		dg.transportIDFlag = b&0x10 != 0
		lengthIndicator := int(b & 0x0F)

		if dg.transportIDFlag {
			if len(data) < idx+2 {
				return dg
			}
			dg.transportID = int(data[idx])<<8 | int(data[idx+1])
			idx += 2
		}

		transportIDLen := 0
		if dg.transportIDFlag {
			transportIDLen = 2
		}
		addressLen := lengthIndicator - transportIDLen
		if addressLen < 0 {
			addressLen = 0
		}
		if addressLen > 0 && len(data) >= idx+addressLen {
			dg.endUserAddrField = append([]byte{}, data[idx:idx+addressLen]...)
			idx += addressLen
		}
	}

	crcLen := 0
	if crcFlag {
		crcLen = 2
	}
	if len(data) >= idx+crcLen {
		dg.dataField = append([]byte{}, data[idx:len(data)-crcLen]...)
	}

	dg.valid = true
	return dg
}

// dlDataGroup accumulates the bytes of one DL segment, whose total size
// is only known once its 1-byte header has arrived.
type dlDataGroup struct {
	data []byte
}

func (g *dlDataGroup) feed(payload []byte) ([]byte, bool) {
	g.data = append(g.data, payload...)
	if len(g.data) == 0 {
		return nil, false
	}
	fieldLen := int(g.data[0]&0x0F) + 1
	sizeNeeded := 2 + fieldLen + 2
	if len(g.data) >= sizeNeeded {
		complete := g.data
		g.data = nil
		return complete, true
	}
	return nil, false
}

// motDataGroup accumulates a fixed-size MOT data group announced by a
// preceding DGLI content indicator.
type motDataGroup struct {
	sizeNeeded int
	data       []byte
}

func (g *motDataGroup) init(size int) {
	g.sizeNeeded = size
	g.data = nil
}

func (g *motDataGroup) feed(data []byte) (mscDataGroup, bool) {
	remaining := g.sizeNeeded - len(g.data)
	if remaining < 0 {
		remaining = 0
	}
	take := len(data)
	if take > remaining {
		take = remaining
	}
	g.data = append(g.data, data[:take]...)

	if len(g.data) == g.sizeNeeded {
		dg := parseMSCDataGroup(g.data)
		g.data = nil
		return dg, true
	}
	return mscDataGroup{}, false
}

// Decoder demultiplexes one stream channel's F-PAD/X-PAD bytes into DL
// and MOT objects, publishing completed objects on the given Bus.
type Decoder struct {
	scid       uint8
	bus        *bus.Bus
	log        *logger.Logger
	lastXPadCI *ci
	nextDGSize int
	dlDG       dlDataGroup
	motDG      motDataGroup
	dl         *DlDecoder
	mot        *MotDecoder
}

// NewDecoder creates a PAD Decoder for one stream channel. b may be nil
// to discard DL/MOT events.
func NewDecoder(scid uint8, b *bus.Bus, log *logger.Logger) *Decoder {
	if log == nil {
		log = logger.New(logger.Config{Level: "error"})
	}
	log = log.WithComponent("edi.pad")
	return &Decoder{
		scid: scid,
		bus:  b,
		log:  log,
		dl:   NewDlDecoder(scid, b, log),
		mot:  NewMotDecoder(scid, b, log),
	}
}

// Feed submits one AU's fpad/xpad split.
func (d *Decoder) Feed(fpad, xpadIn []byte) {
	if len(fpad) < 2 {
		d.log.Warn("missing fpad bytes")
		return
	}

	used := len(xpadIn)
	if used > 64 {
		used = 64
	}
	xpad := make([]byte, used)
	for i := 0; i < used; i++ {
		xpad[i] = xpadIn[used-1-i]
	}

	fpadType := fpad[0] >> 6
	xpadInd := (fpad[0] & 0x30) >> 4
	ciFlag := fpad[1]&0x02 != 0

	prevCI := d.lastXPadCI
	d.lastXPadCI = nil

	if fpadType != 0 {
		return
	}

	var ciList []ci
	var ciHeaderLen int

	switch {
	case ciFlag:
		ciList, ciHeaderLen = buildCIList(xpad, fpad)
	case xpadInd == 0b01 || xpadInd == 0b10:
		if prevCI == nil || !prevCI.valid() {
			return
		}
		ciList = []ci{*prevCI}
		ciHeaderLen = 0
	default:
		return
	}

	if len(ciList) == 0 {
		if prevCI != nil {
			d.lastXPadCI = prevCI
		}
		return
	}

	payloadLen := 0
	for _, c := range ciList {
		payloadLen += c.len
	}
	announced := ciHeaderLen + payloadLen
	if announced != len(xpad) {
		d.log.Warn("X-PAD length mismatch, discarding")
		return
	}

	offset := ciHeaderLen
	var continued *int8
	for _, c := range ciList {
		d.processCI(c, xpad[offset:offset+c.len])
		offset += c.len

		switch c.kind {
		case 1:
			k := int8(1)
			continued = &k
		case 2, 3:
			k := int8(3)
			continued = &k
		case 12, 13:
			k := int8(13)
			continued = &k
		}
	}

	if continued != nil {
		d.lastXPadCI = &ci{kind: *continued, len: announced}
	}
}

func buildCIList(xpad, fpad []byte) ([]ci, int) {
	var list []ci
	headerLen := 0

	if len(fpad) < 2 {
		return list, headerLen
	}
	fpadType := fpad[0] >> 6
	ciFlag := fpad[1]&0x02 != 0
	if fpadType != 0 || !ciFlag {
		return list, headerLen
	}

	xpadInd := (fpad[0] & 0x30) >> 4
	switch xpadInd {
	case 0b01:
		if len(xpad) > 0 {
			kind := xpad[0] & 0x1F
			if kind != 0 {
				list = append(list, ci{kind: int8(kind), len: 3})
				headerLen = 1
			}
		}
	case 0b10:
		limit := len(xpad)
		if limit > 4 {
			limit = 4
		}
		for _, raw := range xpad[:limit] {
			kind := raw & 0x1F
			headerLen++
			if kind == 0 {
				break
			}
			list = append(list, ciFromRaw(raw))
		}
	}
	return list, headerLen
}

func (d *Decoder) processCI(c ci, payload []byte) {
	switch c.kind {
	case 1:
		if len(payload) < 2 {
			return
		}
		d.nextDGSize = int(payload[0]&0x3F)<<8 | int(payload[1])
	case 2, 3:
		if data, ok := d.dlDG.feed(payload); ok {
			d.dl.Feed(data)
		}
	case 12, 13:
		if c.kind == 12 {
			d.motDG.init(d.nextDGSize)
			d.nextDGSize = 0
		}
		if dg, ok := d.motDG.feed(payload); ok {
			d.mot.Feed(dg)
		}
	default:
		d.log.Debug("unhandled X-PAD CI kind")
	}
}
