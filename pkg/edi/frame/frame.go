// Package frame extracts AF packets from an unaligned TCP byte stream and
// demultiplexes their tag items into DETI/EST tags.
package frame

import (
	"encoding/binary"

	"github.com/ohrstrom/edi-dab/pkg/edi/crc"
	"github.com/ohrstrom/edi-dab/pkg/edi/fic"
	"github.com/ohrstrom/edi-dab/pkg/logger"
)

const minHeaderSize = 8

// DetiTag is the deti tag payload: FIC flag data plus the FIGs decoded
// from the carried FIC bytes (when present).
type DetiTag struct {
	HasATSTF bool
	HasFIC   bool
	HasRFUDF bool
	FIGs     []fic.Fig
}

// EstTag is an EST tag: one subchannel's MSC stream bytes for this AF
// frame. The tag name itself is fixed at 4 ASCII bytes and only ever
// identifies the tag class ("est..."); the subchannel id that the stream
// belongs to is carried in the tag value's own 3-byte sub-channel header,
// not in the name.
type EstTag struct {
	SCID  uint8
	Value []byte
}

// Tags collects the tag items demultiplexed from one validated AF frame.
type Tags struct {
	Deti *DetiTag
	Ests []EstTag
}

// Extractor reassembles AF packets out of an arbitrarily chunked byte
// stream, validating sync, header flags, and the CCITT trailer CRC before
// handing completed frames to the caller. It is not safe for concurrent
// use from multiple goroutines.
type Extractor struct {
	acc []byte
	log *logger.Logger
}

// NewExtractor creates a frame Extractor. log may be nil to discard
// diagnostics.
func NewExtractor(log *logger.Logger) *Extractor {
	if log == nil {
		log = logger.New(logger.Config{Level: "error"})
	}
	return &Extractor{log: log.WithComponent("edi.frame")}
}

// Reset discards any partially accumulated bytes.
func (e *Extractor) Reset() {
	e.acc = nil
}

// Feed appends newly received bytes and returns zero or more tag sets
// extracted from every AF frame that could be fully validated so far.
// Frames that fail CRC or flag validation are discarded with a logged
// warning; the stream resynchronizes at the next "AF" occurrence.
func (e *Extractor) Feed(data []byte) []Tags {
	e.acc = append(e.acc, data...)

	var out []Tags
	for {
		tags, consumed, done := e.step()
		if consumed > 0 {
			e.acc = e.acc[consumed:]
		}
		if tags != nil {
			out = append(out, *tags)
		}
		if done {
			break
		}
	}
	return out
}

// step performs one unit of work: either resyncing to the next "AF"
// occurrence, waiting for more header/payload bytes, or validating and
// demultiplexing one complete frame. done is true when no further progress
// is possible without more input.
func (e *Extractor) step() (tags *Tags, consumed int, done bool) {
	if len(e.acc) < minHeaderSize {
		return nil, 0, true
	}

	offset := e.findSync()
	if offset < 0 {
		// Keep the final byte in case it is the first half of a split "AF".
		keep := 1
		if len(e.acc) < keep {
			keep = len(e.acc)
		}
		return nil, len(e.acc) - keep, true
	}
	if offset > 0 {
		return nil, offset, false
	}

	if len(e.acc) < minHeaderSize {
		return nil, 0, true
	}

	length := int(binary.BigEndian.Uint32(e.acc[2:6]))
	expected := 10 + length + 2

	if len(e.acc) < expected {
		return nil, 0, true
	}

	full := e.acc[:expected]
	if !validateFrame(full, length) {
		e.log.Warn("discarding AF frame: validation failed")
		return nil, 1, false
	}

	tagSet := demuxTags(full[10:10+length], e.log)
	return &tagSet, expected, false
}

func (e *Extractor) findSync() int {
	for i := 0; i+1 < len(e.acc); i++ {
		if e.acc[i] == 'A' && e.acc[i+1] == 'F' {
			return i
		}
	}
	return -1
}

// validateFrame checks CF/MAJ/MIN/PT flags and the trailing CCITT CRC over
// the full frame (header + payload, excluding the 2-byte trailer itself).
func validateFrame(frame []byte, length int) bool {
	if len(frame) < 10+length+2 {
		return false
	}
	flags := frame[8]
	cf := flags&0x80 != 0
	maj := (flags >> 4) & 0x07
	min := flags & 0x0F
	pt := frame[9]

	if !cf || maj != 1 || min != 0 || pt != 'T' {
		return false
	}

	return crc.CheckCCITT(frame[:10+length+2])
}

func demuxTags(payload []byte, log *logger.Logger) Tags {
	var out Tags

	i := 0
	limit := len(payload) - 8
	for i < limit {
		item := payload[i:]
		if len(item) < 8 {
			break
		}
		tagLen := int(binary.BigEndian.Uint32(item[4:8]))

		switch name := string(item[0:4]); {
		case name == "deti":
			deti, ok := parseDetiTag(item, tagLen, log)
			if ok {
				out.Deti = deti
			}
		case len(name) >= 3 && name[:3] == "est":
			est, ok := parseEstTag(item, tagLen)
			if ok {
				out.Ests = append(out.Ests, est)
			}
		case name == "*ptr", name == "*dmy", name == "Fsst", name == "Fptt", name == "Fsid":
			// Acknowledged but carry no information this decoder needs.
		default:
			log.Debug("unsupported tag", logger.String("name", name))
		}

		i += 8 + (tagLen+7)/8
	}
	return out
}

func parseDetiTag(item []byte, tagLenBits int, log *logger.Logger) (*DetiTag, bool) {
	if len(item) < 8 {
		return nil, false
	}
	value := item[8:]
	if len(value) < 4 {
		return nil, false
	}

	hasATSTF := value[0]&0x80 != 0
	hasFICF := value[0]&0x40 != 0
	hasRFUDF := value[0]&0x20 != 0
	mid := value[3] >> 6

	var ficLen int
	switch {
	case hasFICF && mid == 3:
		ficLen = 128
	case hasFICF:
		ficLen = 96
	}

	lenATSTF := 0
	if hasATSTF {
		lenATSTF = 8
	}
	lenRFUDF := 0
	if hasRFUDF {
		lenRFUDF = 3
	}

	lenCalc := 2 + 4 + lenATSTF + ficLen + lenRFUDF
	if lenCalc*8 != tagLenBits {
		log.Warn("dropping deti tag: length mismatch",
			logger.Int("want_bits", lenCalc*8), logger.Int("got_bits", tagLenBits))
		return nil, false
	}

	deti := &DetiTag{HasATSTF: hasATSTF, HasFIC: hasFICF, HasRFUDF: hasRFUDF}

	if hasFICF {
		ficStart := 2 + 4 + lenATSTF
		if ficStart+ficLen > len(value) {
			return nil, false
		}
		figs, err := fic.DecodeFIC(value[ficStart : ficStart+ficLen])
		if err != nil {
			log.Warn("error decoding FIC", logger.Error(err))
		} else {
			deti.FIGs = figs
		}
	}

	return deti, true
}

// parseEstTag reads the subchannel id from the top 6 bits of the tag
// value's first byte and returns the stream bytes that follow the
// 3-byte sub-channel header, trimmed to the length the tag item's own
// bit-length field announces (tagLenBits/8, less the 3-byte header).
func parseEstTag(item []byte, tagLenBits int) (EstTag, bool) {
	value := item[8:]
	if len(value) < 3 {
		return EstTag{}, false
	}

	scid := value[0] >> 2
	data := value[3:]

	totalBytes := tagLenBits / 8
	sliceLen := totalBytes - 3
	if sliceLen < 0 {
		sliceLen = 0
	}
	if sliceLen > len(data) {
		sliceLen = len(data)
	}

	return EstTag{SCID: scid, Value: data[:sliceLen]}, true
}
