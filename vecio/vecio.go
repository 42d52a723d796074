// Package vecio reads and writes flat float32 vectors: whitespace separated
// text, raw little-endian binary, and WAV input.
//
// Text dumps are row-major, one row per line with values separated by a
// single space. Binary dumps are the raw values without a header.
package vecio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mjibson/go-dsp/wav"
)

// ErrShape is returned when a vector does not match the requested shape.
var ErrShape = errors.New("vecio: shape mismatch")

// ReadSamples reads path as text when text is set, otherwise as raw
// little-endian float32.
func ReadSamples(path string, text bool) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if text {
		return DecodeText(f)
	}
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return DecodeBinary(bufio.NewReader(f), int(fi.Size()/4))
}

// DecodeText parses whitespace separated values until EOF.
func DecodeText(r io.Reader) ([]float32, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	var out []float32
	for sc.Scan() {
		v, err := strconv.ParseFloat(sc.Text(), 32)
		if err != nil {
			return nil, fmt.Errorf("vecio: value %d: %w", len(out), err)
		}
		out = append(out, float32(v))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeBinary reads n little-endian float32 values.
func DecodeBinary(r io.Reader, n int) ([]float32, error) {
	out := make([]float32, n)
	if err := binary.Read(r, binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("vecio: read %d values: %w", n, err)
	}
	return out, nil
}

// WAVInfo describes a decoded WAV file.
type WAVInfo struct {
	SampleRate int
	Channels   int
}

// ReadWAV reads every sample of a PCM or IEEE float WAV file. Multi-channel
// files are returned interleaved.
func ReadWAV(path string) ([]float32, WAVInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, WAVInfo{}, err
	}
	defer f.Close()

	w, err := wav.New(bufio.NewReader(f))
	if err != nil {
		return nil, WAVInfo{}, fmt.Errorf("vecio: %s: %w", path, err)
	}
	info := WAVInfo{SampleRate: int(w.SampleRate), Channels: int(w.NumChannels)}
	samples, err := w.ReadFloats(w.Samples)
	if err != nil {
		return nil, info, fmt.Errorf("vecio: %s: %w", path, err)
	}
	return samples, info, nil
}

// WriteVector writes height rows of width values of data to path as text.
func WriteVector(data []float32, width, height int, path string) error {
	if width < 0 || height < 0 || width*height > len(data) {
		return fmt.Errorf("%w: %d x %d from %d values", ErrShape, height, width, len(data))
	}
	return writeFile(path, func(w *bufio.Writer) error {
		return EncodeText(w, data, width, height)
	})
}

// EncodeText writes height rows of width values of data to w.
func EncodeText(w io.Writer, data []float32, width, height int) error {
	buf := make([]byte, 0, 16*width+1)
	for i := range height {
		buf = buf[:0]
		for j := range width {
			if j > 0 {
				buf = append(buf, ' ')
			}
			buf = strconv.AppendFloat(buf, float64(data[i*width+j]), 'g', -1, 32)
		}
		buf = append(buf, '\n')
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// WriteVectorBinary writes the first count values of data to path as raw
// little-endian float32.
func WriteVectorBinary(data []float32, count int, path string) error {
	if count < 0 || count > len(data) {
		return fmt.Errorf("%w: %d values from %d", ErrShape, count, len(data))
	}
	return writeFile(path, func(w *bufio.Writer) error {
		return binary.Write(w, binary.LittleEndian, data[:count])
	})
}

// WriteVectorAs writes height rows of width values as text when text is
// set, otherwise as binary.
func WriteVectorAs(data []float32, width, height int, path string, text bool) error {
	if text {
		return WriteVector(data, width, height, path)
	}
	return WriteVectorBinary(data, width*height, path)
}

func writeFile(path string, fn func(*bufio.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(f)
	if err := fn(w); err != nil {
		return err
	}
	return w.Flush()
}
