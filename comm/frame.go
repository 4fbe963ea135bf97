package comm

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"
)

// A frame is a 16-byte header followed by the payload:
//
//	tag      uint32 little-endian
//	length   uint32 little-endian, payload bytes
//	checksum uint64 little-endian, xxh3 of the payload
const frameHeaderSize = 16

// maxFrameSize bounds the allocation for a single incoming payload.
const maxFrameSize = 1<<32 - 1

func writeFrame(w io.Writer, tag Tag, payload []byte) error {
	if uint64(len(payload)) > maxFrameSize {
		return errors.Errorf("comm: payload of %d bytes exceeds the frame limit", len(payload))
	}
	var header [frameHeaderSize]byte
	binary.LittleEndian.PutUint32(header[0:], uint32(tag))
	binary.LittleEndian.PutUint32(header[4:], uint32(len(payload)))
	binary.LittleEndian.PutUint64(header[8:], xxh3.Hash(payload))
	if _, err := w.Write(header[:]); err != nil {
		return errors.Wrap(err, "comm: write frame header")
	}
	if _, err := w.Write(payload); err != nil {
		return errors.Wrap(err, "comm: write frame payload")
	}
	return nil
}

// readFrame returns io.EOF unwrapped if the stream ends cleanly before a
// header.
func readFrame(r io.Reader) (Tag, []byte, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return 0, nil, err
		}
		return 0, nil, errors.Wrap(err, "comm: read frame header")
	}
	tag := Tag(binary.LittleEndian.Uint32(header[0:]))
	length := binary.LittleEndian.Uint32(header[4:])
	sum := binary.LittleEndian.Uint64(header[8:])
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, errors.Wrap(err, "comm: read frame payload")
	}
	if xxh3.Hash(payload) != sum {
		return 0, nil, errors.Wrapf(ErrChecksum, "frame with tag %d and %d bytes", tag, length)
	}
	return tag, payload, nil
}
