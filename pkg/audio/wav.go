package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

// EncodeWAV writes c as a 16-bit PCM WAV stream.
func EncodeWAV(w io.WriteSeeker, c Clip) error {
	if c.SampleRate <= 0 || c.NumChannels <= 0 {
		return fmt.Errorf("invalid clip format %dHz/%dch", c.SampleRate, c.NumChannels)
	}
	if len(c.Data)%2 != 0 {
		return fmt.Errorf("pcm payload not aligned")
	}

	samples := make([]int, len(c.Data)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(c.Data[i*2:])))
	}
	buffer := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: c.NumChannels, SampleRate: c.SampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}

	enc := wav.NewEncoder(w, c.SampleRate, 16, c.NumChannels, wavFormatPCM)
	if err := enc.Write(buffer); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}

// WAV returns the clip encoded as an in-memory WAV file.
func (c Clip) WAV() ([]byte, error) {
	var buf seekBuffer
	if err := EncodeWAV(&buf, c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteWAVFile encodes c into a new file at path.
func WriteWAVFile(path string, c Clip) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create WAV file: %w", err)
	}
	if err := EncodeWAV(file, c); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// DecodeWAV reads a PCM WAV stream into a 16-bit clip. 8, 24 and 32-bit
// integer sources are rescaled to 16 bits.
func DecodeWAV(r io.ReadSeeker) (Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Clip{}, errors.New("not a valid WAVE file")
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return Clip{}, fmt.Errorf("only PCM format is supported, got format %d", dec.WavAudioFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("failed to read audio data: %w", err)
	}

	bitDepth := int(dec.BitDepth)
	data := make([]byte, len(buf.Data)*2)
	for i, v := range buf.Data {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(to16Bit(v, bitDepth)))
	}

	return Clip{
		Data:        data,
		SampleRate:  int(dec.SampleRate),
		NumChannels: int(dec.NumChans),
	}, nil
}

// ReadWAVFile decodes the WAV file at path.
func ReadWAVFile(path string) (Clip, error) {
	file, err := os.Open(path)
	if err != nil {
		return Clip{}, fmt.Errorf("failed to open WAV file: %w", err)
	}
	defer file.Close()

	clip, err := DecodeWAV(file)
	if err != nil {
		return Clip{}, fmt.Errorf("%s: %w", path, err)
	}
	return clip, nil
}

func to16Bit(v, bitDepth int) int16 {
	switch {
	case bitDepth == 8:
		// 8-bit WAV is unsigned
		return int16((v - 128) << 8)
	case bitDepth > 16:
		return int16(v >> (bitDepth - 16))
	default:
		return int16(v)
	}
}

// seekBuffer is an in-memory io.WriteSeeker; the WAV encoder seeks back to
// patch chunk sizes on Close.
type seekBuffer struct {
	buf []byte
	pos int
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	end := s.pos + len(p)
	if end > len(s.buf) {
		s.buf = append(s.buf, make([]byte, end-len(s.buf))...)
	}
	copy(s.buf[s.pos:], p)
	s.pos = end
	return len(p), nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(s.pos) + offset
	case io.SeekEnd:
		abs = int64(len(s.buf)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, errors.New("negative position")
	}
	s.pos = int(abs)
	return abs, nil
}

func (s *seekBuffer) Bytes() []byte {
	return bytes.Clone(s.buf)
}
