package audio

import "time"

// stalePadDelay is how long the chunker lets a sub-minimum residue sit
// before padding it with silence and flushing.
const stalePadDelay = 500 * time.Millisecond

// Chunker accumulates arbitrarily sized PCM16 frames and re-cuts them
// into chunks whose duration stays inside the window the upstream API
// accepts. Not safe for concurrent use; the bridge serializes access.
type Chunker struct {
	buf      []byte
	minBytes int
	maxBytes int
	rate     int // bytes per second

	lastEmit time.Time
	total    time.Duration // audio emitted so far

	now func() time.Time
}

// NewChunker builds a Chunker for PCM16 audio with the given chunk byte
// bounds and byte rate.
func NewChunker(minBytes, maxBytes, bytesPerSecond int) *Chunker {
	c := &Chunker{
		buf:      make([]byte, 0, maxBytes*2),
		minBytes: AlignSamples(minBytes),
		maxBytes: AlignSamples(maxBytes),
		rate:     bytesPerSecond,
		now:      time.Now,
	}
	c.lastEmit = c.now()
	return c
}

// Write appends a frame of audio to the pending buffer.
func (c *Chunker) Write(p []byte) {
	c.buf = append(c.buf, p...)
}

// Next returns the next chunk ready to send upstream, or nil when the
// buffered audio should keep waiting for more data. Call it repeatedly
// after each Write until it returns nil.
func (c *Chunker) Next() []byte {
	if len(c.buf) >= c.minBytes {
		size := c.maxBytes
		if len(c.buf) < size {
			size = AlignSamples(len(c.buf))
		}
		return c.emit(size)
	}

	// A short residue that has sat past the stale window gets padded to
	// the minimum chunk size with silence so it is not lost.
	if len(c.buf) > 0 && c.now().Sub(c.lastEmit) > stalePadDelay {
		c.buf = append(c.buf, Silence(c.minBytes-len(c.buf))...)
		return c.emit(c.minBytes)
	}

	return nil
}

func (c *Chunker) emit(size int) []byte {
	chunk := make([]byte, size)
	copy(chunk, c.buf[:size])
	c.buf = c.buf[size:]
	c.lastEmit = c.now()
	c.total += Duration(size, c.rate/BytesPerSample)
	return chunk
}

// Pending reports how many bytes are buffered but not yet emitted.
func (c *Chunker) Pending() int {
	return len(c.buf)
}

// Discard drops any buffered residue, returning how much was dropped.
func (c *Chunker) Discard() int {
	n := len(c.buf)
	c.buf = c.buf[:0]
	return n
}

// Total returns the duration of all audio emitted so far.
func (c *Chunker) Total() time.Duration {
	return c.total
}
