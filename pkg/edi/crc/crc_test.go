package crc

import "testing"

func TestCCITT_KnownVector(t *testing.T) {
	// "123456789" is the standard CRC check string for this variant.
	got := CCITT([]byte("123456789"))
	if got != 0xD64E {
		t.Fatalf("CCITT(\"123456789\") = 0x%04X, want 0xD64E", got)
	}
}

func TestCheckCCITT_RoundTrip(t *testing.T) {
	body := []byte{0xAF, 0x01, 0x02, 0x03, 0x04}
	sum := CCITT(body)
	framed := append(append([]byte{}, body...), byte(sum>>8), byte(sum))

	if !CheckCCITT(framed) {
		t.Fatalf("expected valid CRC for freshly computed frame")
	}

	framed[len(framed)-1] ^= 0xFF
	if CheckCCITT(framed) {
		t.Fatalf("expected corrupted trailer to fail validation")
	}
}

func TestCheckCCITT_TooShort(t *testing.T) {
	if CheckCCITT([]byte{0x01}) {
		t.Fatalf("expected single byte input to be rejected")
	}
}

func TestFire_ZeroOnEmpty(t *testing.T) {
	if got := Fire(nil); got != 0 {
		t.Fatalf("Fire(nil) = 0x%04X, want 0", got)
	}
}

func TestFire_NonZeroOnData(t *testing.T) {
	got := Fire([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09})
	if got == 0 {
		t.Fatalf("expected non-zero Fire code for non-empty data")
	}
}
