package audio

// Chunker windows the mixed stream into fixed-size upload slices while
// accumulating the full-session buffer for the WAV artifact written at stop.
type Chunker struct {
	chunkSamples int
	pending      []int16
	session      []int16
}

func NewChunker(sampleRate, chunkMillis int) *Chunker {
	n := sampleRate * chunkMillis / 1000
	if n <= 0 {
		n = 1
	}
	return &Chunker{chunkSamples: n}
}

// Append adds mixed samples and returns zero or more complete chunks.
func (c *Chunker) Append(samples []int16) [][]int16 {
	c.session = append(c.session, samples...)
	c.pending = append(c.pending, samples...)

	var chunks [][]int16
	for len(c.pending) >= c.chunkSamples {
		chunk := make([]int16, c.chunkSamples)
		copy(chunk, c.pending[:c.chunkSamples])
		c.pending = c.pending[c.chunkSamples:]
		chunks = append(chunks, chunk)
	}
	return chunks
}

// Flush returns whatever partial chunk remains. Called once at stop so the
// tail of the recording still reaches the streaming service.
func (c *Chunker) Flush() []int16 {
	if len(c.pending) == 0 {
		return nil
	}
	tail := make([]int16, len(c.pending))
	copy(tail, c.pending)
	c.pending = nil
	return tail
}

// SessionSamples returns the accumulated whole-session buffer.
func (c *Chunker) SessionSamples() []int16 {
	return c.session
}
