// Package codec implements the pluggable payload compression of
// spec.md §4.7: None, a Snappy-like fast byte stream, a
// Zstandard-like range coder, an LZ4-like fast codec, and a ZFP-like
// lossy float codec with FixedAccuracy/FixedPrecision/FixedRate
// sub-modes.
//
// The lossless codecs are thin wrappers over klauspost/compress,
// promoted from an indirect dependency of the teacher's tile-server
// (services/tile-server/go.mod) to a direct, central use. LossyFloat
// has no ecosystem equivalent in the retrieved corpus and is hand-
// rolled; it is the one intentionally from-scratch codec here.
package codec

import "github.com/vistle-sys/vistle/internal/verrors"

// Mode is the closed set of compression modes from spec.md §4.7.
type Mode string

const (
	ModeNone           Mode = "None"
	ModeFastByteStream Mode = "FastByteStream"
	ModeRangeCoded     Mode = "RangeCoded"
	ModeFastLZ         Mode = "FastLZ"
	ModeLossyFloat     Mode = "LossyFloat"
)

// Codec presents a uniform compress/decompress contract. speedHint is
// a caller preference in [0,9] (0 = smallest, 9 = fastest); codecs
// that do not support a speed/ratio tradeoff ignore it.
type Codec interface {
	Mode() Mode
	Compress(in []byte, speedHint int) ([]byte, error)
	Decompress(in []byte, uncompressedSize int) ([]byte, error)
}

// Get resolves a codec by mode. LossyFloat requires Params (element
// size and sub-mode); use NewLossyFloat directly for that mode.
func Get(mode Mode) (Codec, error) {
	switch mode {
	case ModeNone, "":
		return noneCodec{}, nil
	case ModeFastByteStream:
		return fastByteStreamCodec{}, nil
	case ModeRangeCoded:
		return rangeCodedCodec{}, nil
	case ModeFastLZ:
		return fastLZCodec{}, nil
	default:
		return nil, verrors.New(verrors.DecompressionFailed, "codec", "Get", "unknown or parameterized mode "+string(mode))
	}
}
