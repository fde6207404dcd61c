package codec

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"

	"github.com/vistle-sys/vistle/internal/verrors"
)

// fastLZCodec is the LZ4-like fast codec of spec.md §4.7. The corpus
// carries no LZ4 binding, so this mode uses klauspost/compress/flate
// at BestSpeed, the closest available fast/low-ratio lossless codec.
type fastLZCodec struct{}

func (fastLZCodec) Mode() Mode { return ModeFastLZ }

func (fastLZCodec) Compress(in []byte, _ int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestSpeed)
	if err != nil {
		return nil, verrors.Wrap(verrors.DecompressionFailed, "codec", "Compress", "FastLZ writer init failed", err)
	}
	if _, err := w.Write(in); err != nil {
		return nil, verrors.Wrap(verrors.DecompressionFailed, "codec", "Compress", "FastLZ write failed", err)
	}
	if err := w.Close(); err != nil {
		return nil, verrors.Wrap(verrors.DecompressionFailed, "codec", "Compress", "FastLZ flush failed", err)
	}
	return buf.Bytes(), nil
}

func (fastLZCodec) Decompress(in []byte, uncompressedSize int) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(in))
	defer r.Close()
	out := make([]byte, 0, uncompressedSize)
	buf := bytes.NewBuffer(out)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, verrors.Wrap(verrors.DecompressionFailed, "codec", "Decompress", "FastLZ decode failed", err)
	}
	return buf.Bytes(), nil
}
