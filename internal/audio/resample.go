package audio

// Resample converts PCM between sample rates with linear interpolation.
// Good enough for speech being fed to a transcription model; capture devices
// that cannot open at the pipeline rate go through here.
func Resample(samples []int16, fromRate, toRate int) []int16 {
	if fromRate == toRate || len(samples) == 0 || fromRate <= 0 || toRate <= 0 {
		out := make([]int16, len(samples))
		copy(out, samples)
		return out
	}
	ratio := float64(fromRate) / float64(toRate)
	outLen := int(float64(len(samples))/ratio + 0.999999)
	out := make([]int16, 0, outLen)
	for i := 0; i < outLen; i++ {
		srcPos := float64(i) * ratio
		idx := int(srcPos)
		frac := srcPos - float64(idx)
		var s float64
		if idx+1 < len(samples) {
			s = float64(samples[idx])*(1-frac) + float64(samples[idx+1])*frac
		} else {
			last := idx
			if last >= len(samples) {
				last = len(samples) - 1
			}
			s = float64(samples[last])
		}
		if s >= 0 {
			s += 0.5
		} else {
			s -= 0.5
		}
		out = append(out, int16(s))
	}
	return out
}
