package comm

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// EncodeInts encodes values as little-endian 64-bit integers.
func EncodeInts(values ...int) []byte {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[8*i:], uint64(int64(v)))
	}
	return buf
}

// DecodeInts decodes a payload produced by EncodeInts.
func DecodeInts(payload []byte) ([]int, error) {
	if len(payload)%8 != 0 {
		return nil, errors.Wrapf(ErrPayload, "%d bytes is not a whole number of integers", len(payload))
	}
	values := make([]int, len(payload)/8)
	for i := range values {
		values[i] = int(int64(binary.LittleEndian.Uint64(payload[8*i:])))
	}
	return values, nil
}

// EncodeFloat64s encodes values by their IEEE 754 bit patterns in
// little-endian order, so that every value, including signed zeros and NaN
// payloads, is decoded bit for bit.
func EncodeFloat64s(values []float64) []byte {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return buf
}

// DecodeFloat64s decodes a payload produced by EncodeFloat64s.
func DecodeFloat64s(payload []byte) ([]float64, error) {
	if len(payload)%8 != 0 {
		return nil, errors.Wrapf(ErrPayload, "%d bytes is not a whole number of float64s", len(payload))
	}
	values := make([]float64, len(payload)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(payload[8*i:]))
	}
	return values, nil
}

// RecvInts receives a message and decodes it with DecodeInts.
func RecvInts(ctx context.Context, ep Endpoint, source int, tag Tag) ([]int, error) {
	payload, err := ep.Recv(ctx, source, tag)
	if err != nil {
		return nil, err
	}
	return DecodeInts(payload)
}

// RecvFloat64s receives a message and decodes it with DecodeFloat64s.
func RecvFloat64s(ctx context.Context, ep Endpoint, source int, tag Tag) ([]float64, error) {
	payload, err := ep.Recv(ctx, source, tag)
	if err != nil {
		return nil, err
	}
	return DecodeFloat64s(payload)
}
