package fic

import "testing"

func TestDecodeFIC_Fig0_0_EnsembleInfo(t *testing.T) {
	fib := []byte{5, 0, 128, 1, 32, 0, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255,
		255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 152, 20}

	figs, err := DecodeFIC(fib)
	if err != nil {
		t.Fatalf("DecodeFIC: %v", err)
	}
	if len(figs) != 1 || figs[0].F0_0 == nil {
		t.Fatalf("expected exactly one FIG 0/0, got %+v", figs)
	}
	f := figs[0].F0_0
	if f.EID != 0x8001 {
		t.Fatalf("EID = 0x%04X, want 0x8001", f.EID)
	}
	if !f.Alarm {
		t.Fatalf("expected alarm flag set")
	}
}

func TestDecodeFIC_CorruptedCRCDropsOnlyThatFIB(t *testing.T) {
	fib := []byte{5, 0, 128, 1, 32, 0, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255,
		255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 152, 20}
	corrupted := append([]byte{}, fib...)
	corrupted[31] ^= 0xFF

	figs, err := DecodeFIC(corrupted)
	if err != nil {
		t.Fatalf("DecodeFIC: %v", err)
	}
	if len(figs) != 0 {
		t.Fatalf("expected CRC-mismatched FIB to contribute zero FIGs, got %d", len(figs))
	}
}

func TestDecodeFIC_Fig1_0_EnsembleLabelAndShortLabel(t *testing.T) {
	fib := []byte{53, 0, 128, 1, 84, 69, 83, 84, 32, 69, 78, 83, 69, 77, 66, 76, 69, 32, 32, 32,
		240, 0, 255, 255, 255, 255, 255, 255, 255, 255, 52, 113}

	figs, err := DecodeFIC(fib)
	if err != nil {
		t.Fatalf("DecodeFIC: %v", err)
	}
	if len(figs) != 1 || figs[0].F1_0 == nil {
		t.Fatalf("expected exactly one FIG 1/0, got %+v", figs)
	}
	f := figs[0].F1_0
	if f.EID != 0x8001 {
		t.Fatalf("EID = 0x%04X, want 0x8001", f.EID)
	}
	if f.Label != "TEST ENSEMBLE" {
		t.Fatalf("Label = %q, want %q", f.Label, "TEST ENSEMBLE")
	}
	if f.ShortLabel != "TEST" {
		t.Fatalf("ShortLabel = %q, want %q", f.ShortLabel, "TEST")
	}
}

func TestParseFig1_0_EBULatinCharsetDecoded(t *testing.T) {
	header := Fig1Header{Charset: 0x0}
	labelBytes := []byte{'C', 'A', 'F', 0xC9, ' ', 'E', 'N', 'S', 'E', 'M', 'B', 'L', 'E', ' ', ' ', ' '}
	data := append([]byte{0x80, 0x01}, labelBytes...)
	data = append(data, 0xF0, 0x00) // short label selects the first 4 characters

	f, ok := parseFig1_0(header, data)
	if !ok {
		t.Fatalf("parseFig1_0 failed")
	}
	if f.Label != "CAFé ENSEMBLE" {
		t.Fatalf("Label = %q, want %q", f.Label, "CAFé ENSEMBLE")
	}
	if f.ShortLabel != "CAFé" {
		t.Fatalf("ShortLabel = %q, want %q", f.ShortLabel, "CAFé")
	}
}

func TestParseFig1_1_EBULatinCharsetDecoded(t *testing.T) {
	header := Fig1Header{Charset: 0x0}
	labelBytes := []byte{'R', 'A', 'D', 0xC9, 'O', ' ', 'U', 'N', 'O', ' ', ' ', ' ', ' ', ' ', ' ', ' '}
	data := append([]byte{0xC1, 0x23}, labelBytes...)
	data = append(data, 0xF8, 0x00) // short label selects the first 5 characters

	f, ok := parseFig1_1(header, data)
	if !ok {
		t.Fatalf("parseFig1_1 failed")
	}
	if f.SID != 0xC123 {
		t.Fatalf("SID = 0x%04X, want 0xC123", f.SID)
	}
	if f.Label != "RADéO UNO" {
		t.Fatalf("Label = %q, want %q", f.Label, "RADéO UNO")
	}
	if f.ShortLabel != "RADéO" {
		t.Fatalf("ShortLabel = %q, want %q", f.ShortLabel, "RADéO")
	}
}

func TestMjdToGregorian_KnownDate(t *testing.T) {
	year, month, day := mjdToGregorian(58849)
	if year != 2020 || month != 1 || day != 1 {
		t.Fatalf("mjdToGregorian(58849) = %d-%02d-%02d, want 2020-01-01", year, month, day)
	}
}

func TestParseFig0_1_ShortFormUEP(t *testing.T) {
	header := Fig0Header{}
	// subchannel id=1, start=0, short form: table_switch=0, table_index=0
	// -> UEPSizes[0]=16, UEPProtectionLevels[0]=5, UEPBitrates[0]=32
	data := []byte{0x04, 0x00, 0x00}
	f, ok := parseFig0_1(header, data)
	if !ok {
		t.Fatalf("parseFig0_1 failed")
	}
	if len(f.Subchannels) != 1 {
		t.Fatalf("expected 1 subchannel, got %d", len(f.Subchannels))
	}
	sc := f.Subchannels[0]
	if sc.Bitrate != 32 || sc.Size != 16 || sc.PL != "UEP 5" {
		t.Fatalf("unexpected subchannel: %+v", sc)
	}
}

func TestParseFig0_1_LongFormEEPA(t *testing.T) {
	header := Fig0Header{}
	// long form: bit7=1, option=000 (EEP-A), pl_index=0, subch_size=72
	data := []byte{0x04, 0x00, 0x80, 72}
	f, ok := parseFig0_1(header, data)
	if !ok {
		t.Fatalf("parseFig0_1 failed")
	}
	if len(f.Subchannels) != 1 {
		t.Fatalf("expected 1 subchannel, got %d", len(f.Subchannels))
	}
	sc := f.Subchannels[0]
	if sc.Bitrate != 48 || sc.PL != "EEP 1-A" {
		t.Fatalf("unexpected subchannel: %+v", sc)
	}
}
