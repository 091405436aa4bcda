package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const wavHeaderSize = 44

// WriteWAV writes mono 16-bit PCM samples as a RIFF/WAVE file.
func WriteWAV(path string, samples []int16, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	if err := EncodeWAV(f, samples, sampleRate); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	return nil
}

// EncodeWAV streams a mono 16-bit little-endian WAV to w.
func EncodeWAV(w io.Writer, samples []int16, sampleRate int) error {
	dataLen := len(samples) * 2
	header := make([]byte, wavHeaderSize)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(wavHeaderSize-8+dataLen))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], 1) // mono
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(header[32:34], 2)
	binary.LittleEndian.PutUint16(header[34:36], 16)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataLen))
	if _, err := w.Write(header); err != nil {
		return err
	}

	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	_, err := w.Write(buf)
	return err
}

// ReadWAV reads back a mono 16-bit WAV, returning samples and sample rate.
func ReadWAV(path string) ([]int16, int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read wav: %w", err)
	}
	if len(raw) < wavHeaderSize || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return nil, 0, errors.New("audio: not a RIFF/WAVE file")
	}
	sampleRate := int(binary.LittleEndian.Uint32(raw[24:28]))
	dataLen := int(binary.LittleEndian.Uint32(raw[40:44]))
	if wavHeaderSize+dataLen > len(raw) {
		dataLen = len(raw) - wavHeaderSize
	}
	samples := make([]int16, dataLen/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[wavHeaderSize+i*2:]))
	}
	return samples, sampleRate, nil
}
