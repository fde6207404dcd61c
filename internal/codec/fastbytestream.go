package codec

import (
	"github.com/klauspost/compress/s2"

	"github.com/vistle-sys/vistle/internal/verrors"
)

// fastByteStreamCodec is the Snappy-like fast byte stream mode of
// spec.md §4.7, backed by klauspost/compress/s2 (a faster, block-
// compatible superset of Snappy).
type fastByteStreamCodec struct{}

func (fastByteStreamCodec) Mode() Mode { return ModeFastByteStream }

func (fastByteStreamCodec) Compress(in []byte, _ int) ([]byte, error) {
	return s2.Encode(nil, in), nil
}

func (fastByteStreamCodec) Decompress(in []byte, uncompressedSize int) ([]byte, error) {
	out, err := s2.Decode(make([]byte, 0, uncompressedSize), in)
	if err != nil {
		return nil, verrors.Wrap(verrors.DecompressionFailed, "codec", "Decompress", "FastByteStream decode failed", err)
	}
	return out, nil
}
