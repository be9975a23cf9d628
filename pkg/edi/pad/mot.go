package pad

import (
	"crypto/md5"
	"fmt"

	"github.com/ohrstrom/edi-dab/pkg/edi/bus"
	"github.com/ohrstrom/edi-dab/pkg/logger"
)

// MotImage is a completed MOT object whose content type identified it as
// an image (JPEG or PNG).
type MotImage struct {
	SCID     uint8
	MimeType string
	MD5      [16]byte
	Len      int
	Data     []byte
}

// MD5Hex returns the image body's MD5 checksum as a lowercase hex string.
func (m *MotImage) MD5Hex() string {
	return fmt.Sprintf("%x", m.MD5)
}

func newMotImage(scid uint8, subtype uint16, data []byte, log *logger.Logger) *MotImage {
	var mimetype string
	switch subtype {
	case 1:
		mimetype = "image/jpeg"
	case 3:
		mimetype = "image/png"
	default:
		log.Warn("MOT unknown image content subtype", logger.Uint32("subtype", uint32(subtype)))
		mimetype = "application/octet-stream"
	}

	return &MotImage{
		SCID:     scid,
		MimeType: mimetype,
		MD5:      md5.Sum(data),
		Len:      len(data),
		Data:     data,
	}
}

// motObject accumulates one MOT transfer's header and body segments
// until both are complete, then parses the header.
type motObject struct {
	transportID int

	header         []byte
	body           []byte
	headerComplete bool
	bodyComplete   bool

	contentType        int
	contentSubtype      int
	contentName         string
	clickThroughURL     string
	alternativeLocation string
}

func (o *motObject) isComplete() bool {
	return o.headerComplete && o.bodyComplete
}

// parseHeader extracts the content type/subtype from the MOT header core
// (the body size field is not read) and walks the extension-header chain for ContentName,
// ClickThroughURL, and AlternativeLocationURL; CAInfo and CompressionType
// extensions abort the walk since this decoder does not support
// scrambled or compressed MOT objects.
func (o *motObject) parseHeader(log *logger.Logger) {
	data := o.header
	if len(data) < 7 {
		log.Warn("MOT header too short, skipping")
		return
	}

	headerSize := int(data[3]&0x0F)<<9 | int(data[4])<<1 | int(data[5]>>7)
	if headerSize > len(data) {
		log.Warn("MOT header incomplete")
		return
	}

	o.contentType = int(data[5]>>1) & 0x3F
	o.contentSubtype = int(data[5]&0x01)<<8 | int(data[6])

	n := 7
	for n < headerSize {
		pli := (data[n] >> 6) & 0x03
		paramID := data[n] & 0x3F
		n++

		dataFieldLen := 0
		switch pli {
		case 0:
		case 1:
			dataFieldLen = 1
		case 2:
			dataFieldLen = 4
		case 3:
			if n >= headerSize {
				log.Warn("MOT header corrupted")
				return
			}
			length := int(data[n] & 0x7F)
			if data[n]&0x80 != 0 {
				n++
				if n >= headerSize {
					log.Warn("MOT header invalid")
					return
				}
				length = length<<8 | int(data[n])
			}
			n++
			dataFieldLen = length
		}

		if n+dataFieldLen > headerSize {
			log.Warn("MOT header field runs past declared size")
			return
		}
		fieldData := data[n : n+dataFieldLen]

		switch paramID {
		case 0x0C: // ContentName
			if len(fieldData) > 1 {
				o.contentName = string(fieldData[1:])
			}
		case 0x27: // ClickThroughURL
			if len(fieldData) > 1 {
				o.clickThroughURL = string(fieldData)
			}
		case 0x28: // AlternativeLocationURL
			if len(fieldData) > 1 {
				o.alternativeLocation = string(fieldData)
			}
		case 0x23: // CAInfo: scrambled, unsupported
			log.Warn("MOT object is CA-scrambled, ignoring")
			return
		case 0x11: // CompressionType: unsupported
			log.Warn("MOT object is compressed, ignoring")
			return
		}

		n += dataFieldLen
	}
}

// MotDecoder reassembles MOT header/body segments for one stream
// channel and publishes completed image objects on the Bus.
type MotDecoder struct {
	scid    uint8
	bus     *bus.Bus
	log     *logger.Logger
	current *motObject
}

// NewMotDecoder creates a MotDecoder for one stream channel.
func NewMotDecoder(scid uint8, b *bus.Bus, log *logger.Logger) *MotDecoder {
	return &MotDecoder{scid: scid, bus: b, log: log}
}

// Feed submits one parsed MSC data group carrying a MOT header or body
// segment (seg_type 3 and 4 respectively); any other seg_type is
// ignored.
func (d *MotDecoder) Feed(dg mscDataGroup) {
	if !dg.valid || !dg.segmentFlag {
		return
	}
	if len(dg.dataField) < 3 {
		d.log.Warn("MOT data too short")
		return
	}

	data := dg.dataField[2:]

	switch dg.segType {
	case 3:
		obj := &motObject{transportID: dg.transportID}
		obj.header = append(obj.header, data...)
		obj.headerComplete = dg.lastFlag
		if obj.headerComplete {
			obj.parseHeader(d.log)
		}
		d.current = obj

	case 4:
		if d.current == nil {
			return
		}
		if d.current.transportID != dg.transportID {
			d.log.Warn("MOT body transport_id mismatch")
			return
		}
		d.current.body = append(d.current.body, data...)
		d.current.bodyComplete = dg.lastFlag

		if d.current.isComplete() {
			obj := d.current
			d.current = nil

			if obj.contentType == 2 {
				image := newMotImage(d.scid, uint16(obj.contentSubtype), obj.body, d.log)
				if d.bus != nil {
					d.bus.Emit(bus.Event{Kind: bus.KindMotImageReceived, Data: image})
				}
			} else {
				d.log.Warn("MOT object content type not an image", logger.Int("content_type", obj.contentType))
			}
		}

	default:
		d.log.Debug("MOT: skipping unsupported seg_type")
	}
}
