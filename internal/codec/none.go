package codec

type noneCodec struct{}

func (noneCodec) Mode() Mode { return ModeNone }

func (noneCodec) Compress(in []byte, _ int) ([]byte, error) {
	out := make([]byte, len(in))
	copy(out, in)
	return out, nil
}

func (noneCodec) Decompress(in []byte, uncompressedSize int) ([]byte, error) {
	out := make([]byte, len(in))
	copy(out, in)
	return out[:uncompressedSize], nil
}
