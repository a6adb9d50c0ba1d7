package audio

// WindowAssembler reassembles arbitrarily sized sample frames into fixed-size
// analysis windows. One assembler serves one session; it is not safe for
// concurrent use and is always driven in frame-arrival order.
type WindowAssembler struct {
	windowSize int
	buf        []float32
}

func NewWindowAssembler(windowSize int) *WindowAssembler {
	if windowSize <= 0 {
		windowSize = 512
	}
	return &WindowAssembler{windowSize: windowSize}
}

// Push appends samples to the rolling buffer and returns every complete
// window now available, in order. Leftover partial data is retained for the
// next push.
func (a *WindowAssembler) Push(samples []float32) [][]float32 {
	a.buf = append(a.buf, samples...)

	var windows [][]float32
	for len(a.buf) >= a.windowSize {
		window := make([]float32, a.windowSize)
		copy(window, a.buf[:a.windowSize])
		windows = append(windows, window)
		a.buf = a.buf[a.windowSize:]
	}
	if len(a.buf) == 0 {
		a.buf = nil
	}
	return windows
}

// Pending reports how many samples are buffered short of a full window.
func (a *WindowAssembler) Pending() int {
	return len(a.buf)
}

// Reset releases the rolling buffer on session teardown.
func (a *WindowAssembler) Reset() {
	a.buf = nil
}
