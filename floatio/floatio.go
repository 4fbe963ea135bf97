// Package floatio reads and writes the float64 buffers that are sorted by
// the command-line harness.
//
// The binary format is the sequence of IEEE 754 bit patterns in
// little-endian order, the same encoding that workers exchange. The text
// format holds one value per line, written with the shortest
// representation that parses back to the same value. Every NaN is written
// as "NaN", so its sign and payload are lost; use the binary format to keep
// NaNs bit for bit.
package floatio

import (
	"bufio"
	"io"
	"os"
	"strconv"

	"github.com/exascience/dsort/comm"
	"github.com/pkg/errors"
)

// A Format is an encoding of a float64 buffer.
type Format int

// The supported formats.
const (
	Binary Format = iota
	Text
)

func (f Format) String() string {
	switch f {
	case Binary:
		return "binary"
	case Text:
		return "text"
	default:
		return "Format(" + strconv.Itoa(int(f)) + ")"
	}
}

// ParseFormat returns the format with the given name. The empty name
// selects Binary.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "", "binary":
		return Binary, nil
	case "text":
		return Text, nil
	default:
		return 0, errors.Errorf("floatio: unknown format %q", name)
	}
}

// Read reads all values from r.
func Read(r io.Reader, f Format) ([]float64, error) {
	switch f {
	case Binary:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, errors.Wrap(err, "floatio: read")
		}
		values, err := comm.DecodeFloat64s(data)
		return values, errors.Wrap(err, "floatio: binary input")
	case Text:
		var values []float64
		scanner := bufio.NewScanner(r)
		scanner.Split(bufio.ScanWords)
		for scanner.Scan() {
			v, err := strconv.ParseFloat(scanner.Text(), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "floatio: value %d", len(values))
			}
			values = append(values, v)
		}
		if err := scanner.Err(); err != nil {
			return nil, errors.Wrap(err, "floatio: read")
		}
		return values, nil
	default:
		return nil, errors.Errorf("floatio: unknown format %v", f)
	}
}

// Write writes values to w.
func Write(w io.Writer, f Format, values []float64) error {
	switch f {
	case Binary:
		_, err := w.Write(comm.EncodeFloat64s(values))
		return errors.Wrap(err, "floatio: write")
	case Text:
		bw := bufio.NewWriter(w)
		buf := make([]byte, 0, 32)
		for _, v := range values {
			buf = strconv.AppendFloat(buf[:0], v, 'g', -1, 64)
			buf = append(buf, '\n')
			if _, err := bw.Write(buf); err != nil {
				return errors.Wrap(err, "floatio: write")
			}
		}
		return errors.Wrap(bw.Flush(), "floatio: write")
	default:
		return errors.Errorf("floatio: unknown format %v", f)
	}
}

// ReadFile reads all values from the named file.
func ReadFile(path string, f Format) ([]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "floatio")
	}
	defer file.Close()
	return Read(bufio.NewReader(file), f)
}

// WriteFile writes values to the named file, creating or truncating it.
func WriteFile(path string, f Format, values []float64) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "floatio")
	}
	if err := Write(file, f, values); err != nil {
		file.Close()
		return err
	}
	return errors.Wrap(file.Close(), "floatio")
}
