package scan

// ProgressReporter receives phased progress updates. The jobs layer
// implements it over the job record; tests implement it over a slice.
type ProgressReporter interface {
	Report(progress int, message string)
}

// ReporterFunc adapts a function to ProgressReporter.
type ReporterFunc func(progress int, message string)

func (f ReporterFunc) Report(progress int, message string) { f(progress, message) }

// tracker clamps reported progress to [0,100] and keeps it monotonically
// non-decreasing no matter what the phase math produces.
type tracker struct {
	sink ProgressReporter
	last int
}

func newTracker(sink ProgressReporter) *tracker {
	return &tracker{sink: sink}
}

func (t *tracker) report(progress int, message string) {
	if progress < t.last {
		progress = t.last
	}
	if progress > 100 {
		progress = 100
	}
	t.last = progress
	if t.sink != nil {
		t.sink.Report(progress, message)
	}
}

// span is one phase's slice of the progress bar.
type span struct {
	lo, hi int
}

// at interpolates linearly within the span: done of total units finished.
func (s span) at(done, total int) int {
	if total <= 0 {
		return s.lo
	}
	return s.lo + (s.hi-s.lo)*done/total
}

// sub carves a fraction [i, i+1) of n equal parts out of the span.
func (s span) sub(i, n int) span {
	if n <= 0 {
		return s
	}
	width := s.hi - s.lo
	return span{
		lo: s.lo + width*i/n,
		hi: s.lo + width*(i+1)/n,
	}
}

// split divides the span at the given percentage.
func (s span) split(pct int) (span, span) {
	mid := s.lo + (s.hi-s.lo)*pct/100
	return span{s.lo, mid}, span{mid, s.hi}
}
