package codec

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func float32Bytes(values ...float32) []byte {
	out := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func TestLosslessCodecsRoundTrip(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog, repeated. the quick brown fox jumps over the lazy dog.")
	for _, mode := range []Mode{ModeNone, ModeFastByteStream, ModeRangeCoded, ModeFastLZ} {
		c, err := Get(mode)
		if err != nil {
			t.Fatalf("Get(%s): %v", mode, err)
		}
		compressed, err := c.Compress(payload, 5)
		if err != nil {
			t.Fatalf("%s Compress: %v", mode, err)
		}
		out, err := c.Decompress(compressed, len(payload))
		if err != nil {
			t.Fatalf("%s Decompress: %v", mode, err)
		}
		if !bytes.Equal(out, payload) {
			t.Fatalf("%s round trip mismatch: got %q, want %q", mode, out, payload)
		}
	}
}

func TestLossyFloatFixedAccuracyBoundsError(t *testing.T) {
	in := float32Bytes(1.0, -2.5, 3.14159, 0, 1000.25)
	tol := 0.01
	c := NewLossyFloat(Width32, ZFPParams{SubMode: FixedAccuracy, Tolerance: tol})

	compressed, err := c.Compress(in, 0)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	out, err := c.Decompress(compressed, len(in))
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}

	origVals := []float32{1.0, -2.5, 3.14159, 0, 1000.25}
	for i, orig := range origVals {
		got := math.Float32frombits(binary.LittleEndian.Uint32(out[i*4:]))
		diff := math.Abs(float64(got) - float64(orig))
		if diff > tol {
			t.Fatalf("element %d: |%v - %v| = %v exceeds tolerance %v", i, got, orig, diff, tol)
		}
	}
}

func TestLossyFloatFixedRateRoundTripIsBounded(t *testing.T) {
	in := float32Bytes(0, 1, 2, 3, 4, 5, 10)
	c := NewLossyFloat(Width32, ZFPParams{SubMode: FixedRate, RateBits: 8})

	compressed, err := c.Compress(in, 0)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	out, err := c.Decompress(compressed, len(in))
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("decompressed length = %d, want %d", len(out), len(in))
	}

	got0 := math.Float32frombits(binary.LittleEndian.Uint32(out[0:]))
	if math.Abs(float64(got0)) > 0.1 {
		t.Fatalf("first element = %v, want ~0", got0)
	}
}

func TestLossyFloatFixedPrecisionPreservesWidth(t *testing.T) {
	in := float32Bytes(1.0, 2.0, 3.0)
	c := NewLossyFloat(Width32, ZFPParams{SubMode: FixedPrecision, PrecisionBits: 10})

	compressed, err := c.Compress(in, 0)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	out, err := c.Decompress(compressed, len(in))
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("decompressed length = %d, want %d", len(out), len(in))
	}
}
