// Package fic decodes Fast Information Channel data: FIB framing (with CRC
// validation) and FIG 0/1 group contents (ensemble, subchannel, service,
// language, country/time, user-application, and label information).
package fic

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/ohrstrom/edi-dab/pkg/edi/crc"
	"github.com/ohrstrom/edi-dab/pkg/edi/tables"
)

// Fig0Header carries the common FIG type 0 header bits shared by every
// FIG 0 extension.
type Fig0Header struct {
	CN  bool
	OE  bool
	PD  bool
	Ext uint8
}

// Fig1Header carries the common FIG type 1 header bits.
type Fig1Header struct {
	Charset uint8
	OE      bool
	Ext     uint8
}

// Subchannel describes one FIG 0/1 subchannel organization entry.
type Subchannel struct {
	ID      uint8
	Start   int
	Size    int
	HasSize bool
	PL      string
	Bitrate int
}

// Fig0_0 is FIG 0/0, ensemble information.
type Fig0_0 struct {
	Header Fig0Header
	EID    uint16
	Alarm  bool
}

// Fig0_1 is FIG 0/1, subchannel organization.
type Fig0_1 struct {
	Header      Fig0Header
	Subchannels []Subchannel
}

// ServiceComponent is one FIG 0/2 component entry.
type ServiceComponent struct {
	SID     uint16
	TMID    uint8
	SCID    uint8
	Primary bool
	CA      bool
}

// Fig0_2 is FIG 0/2, service organization.
type Fig0_2 struct {
	Header   Fig0Header
	Services []ServiceComponent
}

// Fig0_3 is FIG 0/3, service component in packet mode.
type Fig0_3 struct {
	Header        Fig0Header
	SCID          uint16
	DGFlag        bool
	DSCTy         uint8
	SubChID       uint8
	PacketAddress uint16
	SCCAFlag      bool
	SCCA          uint16
}

// ServiceLanguage is one FIG 0/5 entry.
type ServiceLanguage struct {
	SCID     uint8
	Language tables.Language
}

// Fig0_5 is FIG 0/5, service component language.
type Fig0_5 struct {
	Header   Fig0Header
	Services []ServiceLanguage
}

// Fig0_9 is FIG 0/9, country/LTO/international table.
type Fig0_9 struct {
	Header      Fig0Header
	LTO         int
	ECC         uint8
	IntTableID  uint8
}

// DateTimeUTC is the FIG 0/10 date/time, either the short form (minute
// resolution) or long form (millisecond resolution).
type DateTimeUTC struct {
	Year, Month, Day    int
	Hours, Minutes      int
	Seconds             int
	Milliseconds        int
	Long                bool
}

// Fig0_10 is FIG 0/10, date and time.
type Fig0_10 struct {
	Header  Fig0Header
	MJD     uint32
	LSI     bool
	UTCFlag bool
	UTC     DateTimeUTC
}

// ServiceUA is one FIG 0/13 service's list of user applications.
type ServiceUA struct {
	SID   uint16
	SCIdS uint8
	Apps  []tables.UserApplication
}

// Fig0_13 is FIG 0/13, user application information.
type Fig0_13 struct {
	Header   Fig0Header
	Services []ServiceUA
}

// Fig1_0 is FIG 1/0, ensemble label.
type Fig1_0 struct {
	Header      Fig1Header
	EID         uint16
	Label       string
	ShortLabel  string
}

// Fig1_1 is FIG 1/1, service label.
type Fig1_1 struct {
	Header     Fig1Header
	SID        uint16
	Label      string
	ShortLabel string
}

// Fig1_4 is FIG 1/4, service component label. No field of this extension
// is consumed by the spec's ensemble model; it is parsed only to the
// point of validating its presence.
type Fig1_4 struct {
	Header Fig1Header
}

// Fig is the union of every FIG variant this decoder understands. Exactly
// one of the pointer fields is non-nil.
type Fig struct {
	F0_0  *Fig0_0
	F0_1  *Fig0_1
	F0_2  *Fig0_2
	F0_3  *Fig0_3
	F0_5  *Fig0_5
	F0_9  *Fig0_9
	F0_10 *Fig0_10
	F0_13 *Fig0_13
	F1_0  *Fig1_0
	F1_1  *Fig1_1
	F1_4  *Fig1_4
}

// DecodeFIC decodes a FIC byte buffer composed of consecutive 32-byte FIB
// blocks (30 bytes of FIG data, 2 bytes of CCITT CRC). A block whose CRC
// does not validate contributes zero FIGs and decoding continues with the
// next block.
func DecodeFIC(data []byte) ([]Fig, error) {
	if len(data)%32 != 0 {
		return nil, fmt.Errorf("fic: size %d not a multiple of 32", len(data))
	}

	var figs []Fig
	for off := 0; off+32 <= len(data); off += 32 {
		figs = append(figs, decodeFIB(data[off:off+32])...)
	}
	return figs, nil
}

func decodeFIB(block []byte) []Fig {
	if !crc.CheckCCITT(block) {
		return nil
	}

	var figs []Fig
	body := block[:30]
	offset := 0
	for offset < 30 && body[offset] != 0xFF {
		figType := body[offset] >> 5
		figLen := int(body[offset] & 0x1F)
		offset++

		if offset+figLen > 30 {
			break
		}
		payload := body[offset : offset+figLen]

		switch figType {
		case 0:
			if fig, ok := decodeFig0(payload); ok {
				figs = append(figs, fig)
			}
		case 1:
			if fig, ok := decodeFig1(payload); ok {
				figs = append(figs, fig)
			}
		}

		offset += figLen
	}
	return figs
}

func decodeFig0(data []byte) (Fig, bool) {
	if len(data) == 0 {
		return Fig{}, false
	}
	h := data[0]
	header := Fig0Header{
		CN:  h&0x80 != 0,
		OE:  h&0x40 != 0,
		PD:  h&0x20 != 0,
		Ext: h & 0x1F,
	}
	rest := data[1:]

	switch header.Ext {
	case 0:
		f, ok := parseFig0_0(header, rest)
		if !ok {
			return Fig{}, false
		}
		return Fig{F0_0: f}, true
	case 1:
		f, ok := parseFig0_1(header, rest)
		if !ok {
			return Fig{}, false
		}
		return Fig{F0_1: f}, true
	case 2:
		f, ok := parseFig0_2(header, rest)
		if !ok {
			return Fig{}, false
		}
		return Fig{F0_2: f}, true
	case 3:
		f, ok := parseFig0_3(header, rest)
		if !ok {
			return Fig{}, false
		}
		return Fig{F0_3: f}, true
	case 5:
		f, ok := parseFig0_5(header, rest)
		if !ok {
			return Fig{}, false
		}
		return Fig{F0_5: f}, true
	case 9:
		f, ok := parseFig0_9(header, rest)
		if !ok {
			return Fig{}, false
		}
		return Fig{F0_9: f}, true
	case 10:
		f, ok := parseFig0_10(header, rest)
		if !ok {
			return Fig{}, false
		}
		return Fig{F0_10: f}, true
	case 13:
		f, ok := parseFig0_13(header, rest)
		if !ok {
			return Fig{}, false
		}
		return Fig{F0_13: f}, true
	default:
		return Fig{}, false
	}
}

func decodeFig1(data []byte) (Fig, bool) {
	if len(data) == 0 {
		return Fig{}, false
	}
	h := data[0]
	header := Fig1Header{
		Charset: h >> 4,
		OE:      h&0x08 != 0,
		Ext:     h & 0x07,
	}
	rest := data[1:]

	switch header.Ext {
	case 0:
		f, ok := parseFig1_0(header, rest)
		if !ok {
			return Fig{}, false
		}
		return Fig{F1_0: f}, true
	case 1:
		f, ok := parseFig1_1(header, rest)
		if !ok {
			return Fig{}, false
		}
		return Fig{F1_1: f}, true
	case 4:
		return Fig{F1_4: &Fig1_4{Header: header}}, true
	default:
		return Fig{}, false
	}
}

func parseFig0_0(header Fig0Header, data []byte) (*Fig0_0, bool) {
	if len(data) < 4 {
		return nil, false
	}
	return &Fig0_0{
		Header: header,
		EID:    binary.BigEndian.Uint16(data[0:2]),
		Alarm:  data[2]&0x20 != 0,
	}, true
}

func parseFig0_1(header Fig0Header, data []byte) (*Fig0_1, bool) {
	var subchannels []Subchannel
	offset := 0
	for offset < len(data) {
		if offset+2 > len(data) {
			return nil, false
		}
		id := data[offset] >> 2
		start := int(data[offset]&0x03)<<8 | int(data[offset+1])
		offset += 2

		sc := Subchannel{ID: id, Start: start}

		if offset >= len(data) {
			return nil, false
		}
		longForm := data[offset]&0x80 != 0

		if longForm {
			if offset+1 >= len(data) {
				return nil, false
			}
			option := (data[offset] & 0x70) >> 4
			plIndex := (data[offset] & 0x0C) >> 2
			subchSize := int(data[offset]&0x03)<<8 | int(data[offset+1])
			offset += 2

			switch option {
			case 0:
				sc.HasSize = true
				sc.Size = subchSize
				sc.PL = fmt.Sprintf("EEP %d-A", plIndex+1)
				sc.Bitrate = subchSize / tables.EEPASizeFactors[plIndex] * 8
			case 1:
				sc.HasSize = true
				sc.Size = subchSize
				sc.PL = fmt.Sprintf("EEP %d-B", plIndex+1)
				sc.Bitrate = subchSize / tables.EEPBSizeFactors[plIndex] * 32
			}
		} else {
			tableSwitch := data[offset]&0x40 != 0
			if !tableSwitch {
				idx := int(data[offset] & 0x3F)
				if idx < len(tables.UEPSizes) {
					sc.HasSize = true
					sc.Size = tables.UEPSizes[idx]
					sc.PL = fmt.Sprintf("UEP %d", tables.UEPProtectionLevels[idx])
					sc.Bitrate = tables.UEPBitrates[idx]
				}
			}
			offset++
		}

		if id <= 30 {
			subchannels = append(subchannels, sc)
		}
	}
	return &Fig0_1{Header: header, Subchannels: subchannels}, true
}

func parseFig0_2(header Fig0Header, data []byte) (*Fig0_2, bool) {
	var services []ServiceComponent
	offset := 0
	for offset+2 <= len(data) {
		sid := binary.BigEndian.Uint16(data[offset : offset+2])
		offset += 2
		if offset >= len(data) {
			return nil, false
		}
		numComponents := int(data[offset] & 0x0F)
		offset++

		for i := 0; i < numComponents; i++ {
			if offset+2 > len(data) {
				return nil, false
			}
			tmid := (data[offset] & 0xC0) >> 6
			scid := data[offset+1] >> 2
			primary := data[offset+1]&0x02 != 0
			ca := data[offset+1]&0x01 != 0
			offset += 2

			if !ca {
				services = append(services, ServiceComponent{
					SID: sid, TMID: tmid, SCID: scid, Primary: primary, CA: ca,
				})
			}
		}
	}
	return &Fig0_2{Header: header, Services: services}, true
}

func parseFig0_3(header Fig0Header, data []byte) (*Fig0_3, bool) {
	if len(data) < 5 {
		return nil, false
	}
	b0, b1, b2, b3, b4 := data[0], data[1], data[2], data[3], data[4]

	f := &Fig0_3{
		Header:        header,
		SCID:          uint16(b0)<<4 | uint16(b1)>>4,
		SCCAFlag:      b1&0x01 != 0,
		DGFlag:        b2&0x80 != 0,
		DSCTy:         b2 & 0x3F,
		SubChID:       (b3 >> 2) & 0x3F,
		PacketAddress: uint16(b3&0x03)<<8 | uint16(b4),
	}
	if f.SCCAFlag {
		if len(data) < 7 {
			return nil, false
		}
		f.SCCA = binary.BigEndian.Uint16(data[5:7])
	}
	return f, true
}

func parseFig0_5(header Fig0Header, data []byte) (*Fig0_5, bool) {
	if len(data) < 3 {
		return nil, false
	}
	var services []ServiceLanguage
	offset := 0
	for offset+1 < len(data) {
		b := data[offset]
		if b&0x80 != 0 {
			offset += 3
			continue
		}
		if b&0x40 == 0 {
			services = append(services, ServiceLanguage{
				SCID:     b & 0x3F,
				Language: tables.ParseLanguage(data[offset+1]),
			})
		}
		offset += 2
	}
	return &Fig0_5{Header: header, Services: services}, true
}

func parseFig0_9(header Fig0Header, data []byte) (*Fig0_9, bool) {
	if len(data) < 3 {
		return nil, false
	}
	ltoRaw := data[0] & 0x3F
	sign := 1
	if ltoRaw&0x20 != 0 {
		sign = -1
	}
	halfHours := int(ltoRaw & 0x1F)

	return &Fig0_9{
		Header:     header,
		LTO:        sign * halfHours / 2,
		ECC:        data[1],
		IntTableID: data[2],
	}, true
}

func parseFig0_10(header Fig0Header, data []byte) (*Fig0_10, bool) {
	if len(data) < 4 {
		return nil, false
	}
	mjd := uint32(data[0]&0x7F)<<10 | uint32(data[1])<<2 | uint32(data[2])>>6
	year, month, day := mjdToGregorian(mjd)

	lsi := data[2]>>5&0x01 != 0
	utcFlag := data[2]>>3&0x01 != 0

	if len(data) < 6 {
		return nil, false
	}

	var utc DateTimeUTC
	utc.Year, utc.Month, utc.Day = year, month, day

	if utcFlag {
		hour := (data[2]&0x07)<<2 | data[3]>>6
		minute := data[3] & 0x3F
		second := data[4] >> 2
		millisecond := uint16(data[4]&0x03)<<8 | uint16(data[5])

		utc.Long = true
		utc.Hours, utc.Minutes, utc.Seconds, utc.Milliseconds = int(hour), int(minute), int(second), int(millisecond)
	} else {
		b4, b5 := data[4], data[5]
		hour := (b4 >> 3) & 0x1F
		minute := (b4&0x07)<<3 | b5>>5

		utc.Hours, utc.Minutes = int(hour), int(minute)
	}

	return &Fig0_10{Header: header, MJD: mjd, LSI: lsi, UTCFlag: utcFlag, UTC: utc}, true
}

// mjdToGregorian converts a Modified Julian Day number to a proleptic
// Gregorian calendar date, following the standard MJD inverse formula.
func mjdToGregorian(mjd uint32) (year, month, day int) {
	mjdF := float64(mjd)
	y0 := floorDiv(mjdF-15078.2, 365.25)
	m0 := floorDiv(mjdF-14956.1-floorMul(y0, 365.25), 30.6001)
	d := mjdF - 14956.0 - floorMul(y0, 365.25) - floorMul(m0, 30.6001)
	k := 0.0
	if m0 == 14.0 || m0 == 15.0 {
		k = 1.0
	}
	year = int(y0+k) + 1900
	month = int(m0 - 1.0 - k*12.0)
	day = int(d)
	return
}

func floorDiv(a, b float64) float64 {
	return floorF(a / b)
}

func floorMul(a, b float64) float64 {
	return floorF(a * b)
}

func floorF(v float64) float64 {
	i := int64(v)
	if v < 0 && float64(i) != v {
		i--
	}
	return float64(i)
}

func parseFig0_13(header Fig0Header, data []byte) (*Fig0_13, bool) {
	var services []ServiceUA
	offset := 0
	for offset+3 <= len(data) {
		sid := binary.BigEndian.Uint16(data[offset : offset+2])
		offset += 2

		scids := data[offset] >> 4
		numUAs := data[offset] & 0x0F
		offset++

		if numUAs == 0 {
			break
		}
		if numUAs > 6 {
			break
		}

		var apps []tables.UserApplication
		for i := 0; i < int(numUAs); i++ {
			if offset+2 > len(data) {
				break
			}
			uaType := uint16(data[offset])<<3 | uint16(data[offset+1])>>5
			uaDataLen := int(data[offset+1] & 0x1F)
			offset += 2

			if offset+uaDataLen > len(data) {
				break
			}
			offset += uaDataLen

			apps = append(apps, tables.ParseUserApplication(uaType))
		}

		services = append(services, ServiceUA{SID: sid, SCIdS: scids, Apps: apps})
	}
	return &Fig0_13{Header: header, Services: services}, true
}

func parseFig1_0(header Fig1Header, data []byte) (*Fig1_0, bool) {
	if len(data) < 20 {
		return nil, false
	}
	eid := binary.BigEndian.Uint16(data[0:2])
	labelBytes := data[2:18]
	mask := binary.BigEndian.Uint16(data[18:20])

	return &Fig1_0{
		Header:     header,
		EID:        eid,
		Label:      trimLabel(labelBytes, header.Charset),
		ShortLabel: shortLabel(labelBytes, mask, header.Charset),
	}, true
}

func parseFig1_1(header Fig1Header, data []byte) (*Fig1_1, bool) {
	if len(data) < 20 {
		return nil, false
	}
	sid := binary.BigEndian.Uint16(data[0:2])
	labelBytes := data[2:18]
	mask := binary.BigEndian.Uint16(data[18:20])

	return &Fig1_1{
		Header:     header,
		SID:        sid,
		Label:      trimLabel(labelBytes, header.Charset),
		ShortLabel: shortLabel(labelBytes, mask, header.Charset),
	}, true
}

func trimLabel(b []byte, charset uint8) string {
	return strings.TrimRight(tables.DecodeChars(b, charset), " \x00")
}

// shortLabel applies the character flag field to a 16-byte label: bit i
// (counted from the MSB, i=0) selects the character at position i. The
// selected raw bytes are decoded per the FIG's announced charset, same
// as the full label.
func shortLabel(label []byte, mask uint16, charset uint8) string {
	var selected []byte
	for i, b := range label {
		if mask&(1<<(15-i)) != 0 {
			selected = append(selected, b)
		}
	}
	return strings.TrimSpace(tables.DecodeChars(selected, charset))
}
