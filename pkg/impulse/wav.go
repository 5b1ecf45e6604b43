package impulse

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// Errors returned by the WAV codec.
var (
	ErrNotWAV         = errors.New("impulse: not a RIFF/WAVE stream")
	ErrUnsupportedWAV = errors.New("impulse: unsupported WAV encoding")
)

// WriteWAV writes samples as a 16-bit signed little-endian PCM mono
// RIFF/WAVE stream. Samples are clamped to [-1, 1] and scaled by 32767.
func WriteWAV(w io.Writer, samples []float64, sampleRate int) error {
	dataLen := uint32(len(samples) * 2)
	byteRate := uint32(sampleRate * 2)

	var header [44]byte
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], 36+dataLen)
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], 1) // mono
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], byteRate)
	binary.LittleEndian.PutUint16(header[32:34], 2)  // block align
	binary.LittleEndian.PutUint16(header[34:36], 16) // bits per sample
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataLen)

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("impulse: writing WAV header: %w", err)
	}

	pcm := make([]byte, len(samples)*2)
	for i, sample := range samples {
		clamped := math.Max(-1, math.Min(1, sample))
		value := int16(math.Round(clamped * 32767))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(value))
	}
	if _, err := w.Write(pcm); err != nil {
		return fmt.Errorf("impulse: writing WAV data: %w", err)
	}
	return nil
}

// WriteWAVFile writes the impulse response to a WAV file at path.
func WriteWAVFile(path string, ir *ImpulseResponse) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteWAV(f, ir.Samples, ir.SampleRate)
}

// ReadWAV decodes a 16-bit PCM mono WAV stream back into samples in
// [-1, 1] and the stream's sample rate.
func ReadWAV(r io.Reader) ([]float64, int, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, 0, fmt.Errorf("impulse: reading RIFF header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, 0, ErrNotWAV
	}

	sampleRate := 0
	sawFormat := false

	// Walk chunks until the data chunk
	for {
		var chunkHeader [8]byte
		if _, err := io.ReadFull(r, chunkHeader[:]); err != nil {
			return nil, 0, fmt.Errorf("impulse: reading chunk header: %w", err)
		}
		chunkID := string(chunkHeader[0:4])
		chunkLen := binary.LittleEndian.Uint32(chunkHeader[4:8])

		switch chunkID {
		case "fmt ":
			body := make([]byte, chunkLen)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, 0, fmt.Errorf("impulse: reading fmt chunk: %w", err)
			}
			if len(body) < 16 {
				return nil, 0, ErrUnsupportedWAV
			}
			formatTag := binary.LittleEndian.Uint16(body[0:2])
			channels := binary.LittleEndian.Uint16(body[2:4])
			bitsPerSample := binary.LittleEndian.Uint16(body[14:16])
			if formatTag != 1 || channels != 1 || bitsPerSample != 16 {
				return nil, 0, ErrUnsupportedWAV
			}
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			sawFormat = true

		case "data":
			if !sawFormat {
				return nil, 0, ErrUnsupportedWAV
			}
			pcm := make([]byte, chunkLen)
			if _, err := io.ReadFull(r, pcm); err != nil {
				return nil, 0, fmt.Errorf("impulse: reading data chunk: %w", err)
			}
			samples := make([]float64, len(pcm)/2)
			for i := range samples {
				value := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
				samples[i] = float64(value) / 32767.0
			}
			return samples, sampleRate, nil

		default:
			// Skip unknown chunks
			if _, err := io.CopyN(io.Discard, r, int64(chunkLen)); err != nil {
				return nil, 0, fmt.Errorf("impulse: skipping chunk %q: %w", chunkID, err)
			}
		}
	}
}
