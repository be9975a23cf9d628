// Package msc reassembles DAB+ superframes out of a stream channel's AU
// packets, checks each superframe header's fire code, and splits each
// Access Unit into its CRC-checked AAC frame plus any embedded PAD
// (Programme Associated Data) bytes.
package msc

import (
	"errors"
	"fmt"

	"github.com/ohrstrom/edi-dab/pkg/edi/crc"
	"github.com/ohrstrom/edi-dab/pkg/logger"
)

const fpadLen = 2

// AudioFormat is the DAB+ superframe audio configuration derived from the
// first superframe header once enough data has arrived to parse it.
type AudioFormat struct {
	SBR        bool
	PS         bool
	Codec      string
	SampleRate int
	BitRate    int
	AUCount    int
	Channels   int
}

var errZeroAUStart = errors.New("msc: AU start values are zero")

// audioFormatFromSuperframe derives the AudioFormat from the first bytes
// of an assembled 5-frame superframe buffer.
func audioFormatFromSuperframe(sf []byte, sfLen int) (AudioFormat, error) {
	if len(sf) < 5 {
		return AudioFormat{}, errZeroAUStart
	}
	if sf[3] == 0x00 && sf[4] == 0x00 {
		return AudioFormat{}, errZeroAUStart
	}

	h := sf[2]
	dacMode := h&0x40 != 0
	sbr := h&0x20 != 0
	ps := h&0x08 != 0
	channelMode := h&0x10 != 0

	var codec string
	switch {
	case sbr && ps:
		codec = "HE-AACv2"
	case sbr && !ps:
		codec = "HE-AAC"
	default:
		codec = "AAC-LC"
	}

	sampleRate := 32
	if dacMode {
		sampleRate = 48
	}
	bitRate := sfLen / 120 * 8

	var auCount int
	switch {
	case sampleRate == 48 && sbr:
		auCount = 3
	case sampleRate == 48 && !sbr:
		auCount = 6
	case sbr:
		auCount = 2
	default:
		auCount = 4
	}

	channels := 1
	if channelMode || ps {
		channels = 2
	}

	return AudioFormat{
		SBR: sbr, PS: ps, Codec: codec,
		SampleRate: sampleRate, BitRate: bitRate,
		AUCount: auCount, Channels: channels,
	}, nil
}

// Result is the output of one completed superframe decode: the raw AAC
// Access Unit frames (CRC trailer stripped) plus the audio format in
// effect when they were extracted.
type Result struct {
	SCID        uint8
	AudioFormat *AudioFormat
	Frames      [][]byte
}

// PAD is the fpad/xpad split of one AU's PAD payload.
type PAD struct {
	FPAD []byte
	XPAD []byte
}

// Extractor reassembles the 5-AF-frame DAB+ superframe for one stream
// channel (identified by SCID), resyncing on the fire-code CRC in the
// superframe header, and splits each resulting AU into an AAC frame (CRC
// validated) plus optional PAD bytes.
//
// PADSink, when set, receives the fpad/xpad split of every AU that
// carries a DAB+-tagged PAD payload; the caller wires it to a pad
// decoder. Leaving it nil simply skips PAD extraction.
type Extractor struct {
	SCID      uint8
	PADSink   func(PAD)
	log       *logger.Logger
	fLen      int
	fCount    int
	fSyncMiss int
	sfLen     int
	sfRaw     []byte
	sfBuf     []byte
	auCount   int
	auStart   []int
	format    *AudioFormat
}

// NewExtractor creates an Extractor for one stream channel.
func NewExtractor(scid uint8, log *logger.Logger) *Extractor {
	if log == nil {
		log = logger.New(logger.Config{Level: "error"})
	}
	return &Extractor{
		SCID:    scid,
		log:     log.WithComponent("edi.msc"),
		auStart: make([]int, 7),
	}
}

// Feed submits one AF frame's worth of stream-channel bytes (length
// fLen, constant across calls for a given stream). It returns a non-nil
// Result once a full superframe has been assembled, resynced, and
// decoded; nil, nil means "still buffering."
func (e *Extractor) Feed(data []byte, fLen int) (*Result, error) {
	if e.fLen != 0 {
		if e.fLen != fLen {
			return nil, fmt.Errorf("msc: frame length changed %d -> %d", e.fLen, fLen)
		}
	} else {
		if fLen < 10 || (5*fLen)%120 != 0 {
			return nil, fmt.Errorf("msc: invalid frame length %d", fLen)
		}
		e.fLen = fLen
		e.sfLen = 5 * fLen
		e.sfRaw = make([]byte, e.sfLen)
		e.sfBuf = make([]byte, e.sfLen)
	}

	if e.fCount == 5 {
		copy(e.sfRaw, e.sfRaw[e.fLen:])
	} else {
		e.fCount++
	}

	start := (e.fCount - 1) * e.fLen
	copy(e.sfRaw[start:start+e.fLen], data[:e.fLen])

	if e.fCount < 5 {
		return nil, nil
	}

	copy(e.sfBuf, e.sfRaw[:e.sfLen])

	if !e.resync() {
		if e.fSyncMiss == 0 {
			e.log.Debug("superframe sync lost, searching")
		}
		e.fSyncMiss++
		return nil, nil
	}
	if e.fSyncMiss > 0 {
		e.log.Debug("superframe sync recovered", logger.Int("missed_frames", e.fSyncMiss))
		e.fSyncMiss = 0
	}

	if e.format == nil && len(e.sfBuf) >= 11 {
		af, err := audioFormatFromSuperframe(e.sfBuf, e.sfLen)
		if err != nil {
			e.log.Debug("audio format not yet available", logger.Error(err))
		} else {
			e.format = &af
		}
	}

	var frames [][]byte
	for i := 0; i < e.auCount; i++ {
		auData := e.sfBuf[e.auStart[i]:e.auStart[i+1]]
		auLen := len(auData)
		if auLen < 2 {
			continue
		}

		stored := uint16(auData[auLen-2])<<8 | uint16(auData[auLen-1])
		calced := crc.CCITT(auData[:auLen-2])
		if stored != calced {
			e.log.Warn("AU CRC mismatch", logger.Int("au_index", i))
			continue
		}

		frame := append([]byte{}, auData[:auLen-2]...)
		frames = append(frames, frame)

		if e.PADSink != nil {
			if pad, ok := extractPAD(frame); ok {
				e.PADSink(pad)
			}
		}
	}

	e.fCount = 0

	result := &Result{SCID: e.SCID, AudioFormat: e.format, Frames: frames}
	return result, nil
}

// resync checks the superframe header's fire-code CRC and, when the
// audio format is already known, recomputes the AU start-offset table
// for this superframe.
func (e *Extractor) resync() bool {
	if len(e.sfBuf) < 11 {
		return false
	}
	stored := uint16(e.sfBuf[0])<<8 | uint16(e.sfBuf[1])
	calced := crc.Fire(e.sfBuf[2:11])
	if stored != calced {
		return false
	}

	if e.format == nil {
		return true
	}
	f := e.format
	e.auCount = f.AUCount

	switch {
	case f.SampleRate == 48 && f.SBR:
		e.auStart[0] = 6
	case f.SampleRate == 48 && !f.SBR:
		e.auStart[0] = 11
	case f.SBR:
		e.auStart[0] = 5
	default:
		e.auStart[0] = 8
	}

	e.auStart[e.auCount] = e.sfLen / 120 * 110
	e.auStart[1] = int(e.sfBuf[3])<<4 | int(e.sfBuf[4]>>4)

	if e.auCount >= 3 {
		e.auStart[2] = int(e.sfBuf[4]&0x0F)<<8 | int(e.sfBuf[5])
	}
	if e.auCount >= 4 {
		e.auStart[3] = int(e.sfBuf[6])<<4 | int(e.sfBuf[7]>>4)
	}
	if e.auCount == 6 {
		e.auStart[4] = int(e.sfBuf[7]&0x0F)<<8 | int(e.sfBuf[8])
		e.auStart[5] = int(e.sfBuf[9])<<4 | int(e.sfBuf[10]>>4)
	}

	for i := 0; i < e.auCount; i++ {
		if e.auStart[i] >= e.auStart[i+1] {
			e.log.Warn("AU start table invalid")
			return false
		}
	}
	return true
}

// extractPAD pulls the fpad/xpad split out of a DAB+ AU frame, when the
// AU's stream-id nibble marks it as carrying PAD (0b100).
func extractPAD(au []byte) (PAD, bool) {
	if len(au) < 3 {
		return PAD{}, false
	}
	if au[0]>>5 != 4 {
		return PAD{}, false
	}

	padStart := 2
	padLen := int(au[1])
	if padLen == 255 {
		if len(au) < 4 {
			return PAD{}, false
		}
		padLen += int(au[2])
		padStart++
	}

	if padLen < 2 || len(au) < padStart+padLen {
		return PAD{}, false
	}

	xpad := au[padStart : padStart+padLen-fpadLen]
	fpad := au[padStart+padLen-fpadLen : padStart+padLen]
	return PAD{FPAD: append([]byte{}, fpad...), XPAD: append([]byte{}, xpad...)}, true
}
