// Package audio holds the capture contracts and the PCM plumbing between
// them and the streaming upload: mixing, chunking, level metering, and the
// WAV artifact codec. All PCM in this package is mono signed 16-bit.
package audio

import "math"

// Mix sums two PCM buffers sample-by-sample, clamping into the int16 range.
// The shorter input counts as silence past its end. This is the only place
// amplitude is manipulated anywhere in the pipeline.
func Mix(a, b []int16) []int16 {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make([]int16, n)
	for i := range out {
		var sa, sb int32
		if i < len(a) {
			sa = int32(a[i])
		}
		if i < len(b) {
			sb = int32(b[i])
		}
		out[i] = clampPCM(sa + sb)
	}
	return out
}

func clampPCM(v int32) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// Level returns the RMS amplitude of the samples as a 0-100 percentage,
// used for the audio-level UI event.
func Level(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		f := float64(s)
		sum += f * f
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	level := rms / float64(math.MaxInt16) * 100
	if level > 100 {
		level = 100
	}
	return level
}
