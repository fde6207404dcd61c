package codec

import (
	"github.com/klauspost/compress/zstd"

	"github.com/vistle-sys/vistle/internal/verrors"
)

// rangeCodedCodec is the Zstandard-like range-coded mode of spec.md
// §4.7, backed directly by klauspost/compress/zstd.
type rangeCodedCodec struct{}

func (rangeCodedCodec) Mode() Mode { return ModeRangeCoded }

func (rangeCodedCodec) Compress(in []byte, speedHint int) ([]byte, error) {
	level := zstd.SpeedDefault
	switch {
	case speedHint >= 7:
		level = zstd.SpeedFastest
	case speedHint <= 2:
		level = zstd.SpeedBestCompression
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, verrors.Wrap(verrors.DecompressionFailed, "codec", "Compress", "RangeCoded encoder init failed", err)
	}
	defer enc.Close()
	return enc.EncodeAll(in, nil), nil
}

func (rangeCodedCodec) Decompress(in []byte, uncompressedSize int) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, verrors.Wrap(verrors.DecompressionFailed, "codec", "Decompress", "RangeCoded decoder init failed", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(in, make([]byte, 0, uncompressedSize))
	if err != nil {
		return nil, verrors.Wrap(verrors.DecompressionFailed, "codec", "Decompress", "RangeCoded decode failed", err)
	}
	return out, nil
}
