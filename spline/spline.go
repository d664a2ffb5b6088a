// Package spline implements the piecewise-linear learned index used to
// narrow a key lookup to a small bracket of candidate pages without a
// full tree. It is built incrementally, one knot per flushed data page,
// and supports front-eviction when the data ring reclaims pages.
package spline

// Point is one knot: a key and the page number it was observed at.
// Key is carried as the numeric interpolation value the engine derives
// from the page's minKey (see the root package's decodeUintLE), never
// compared as raw bytes.
type Point struct {
	Key  uint64
	Page uint32
}

// Spline maintains knots such that linear interpolation between
// consecutive knots approximates page(key) within maxError pages.
type Spline struct {
	maxPoints int
	maxError  int32

	points []Point

	// open segment tracking: the corridor of valid slopes for
	// extending the current segment from points[len-1].
	haveCorridor bool
	lowSlopeNum  float64
	lowSlopeDen  float64
	highSlopeNum float64
	highSlopeDen float64
	lastAdded    Point
}

// New creates a Spline retaining at most maxPoints knots (>= 4) and
// built with the given error tolerance.
func New(maxPoints int, maxError int32) *Spline {
	if maxPoints < 4 {
		maxPoints = 4
	}
	return &Spline{maxPoints: maxPoints, maxError: maxError}
}

// Len returns the number of retained knots.
func (s *Spline) Len() int { return len(s.points) }

// Points returns the retained knots, in key order. The caller must not
// mutate the returned slice.
func (s *Spline) Points() []Point { return s.points }

// Add records a new (key, page) observation. It is called exactly once
// per flushed data page, with that page's minimum key.
func (s *Spline) Add(key uint64, page uint32) {
	p := Point{Key: key, Page: page}
	if len(s.points) == 0 {
		s.points = append(s.points, p)
		s.lastAdded = p
		return
	}
	if len(s.points) == 1 {
		s.points = append(s.points, p)
		s.openCorridor(s.points[0], p)
		s.lastAdded = p
		return
	}

	if s.haveCorridor && s.withinCorridor(p) {
		s.narrowCorridor(p)
		s.lastAdded = p
		return
	}

	// Close the current segment at lastAdded, retaining it as a knot,
	// and open a new one starting there.
	if s.lastAdded != s.points[len(s.points)-1] {
		s.points = append(s.points, s.lastAdded)
	}
	s.openCorridor(s.lastAdded, p)
	s.lastAdded = p

	if len(s.points) > s.maxPoints {
		s.mergeOldest()
	}
}

// openCorridor establishes the slope corridor for extending the
// segment that starts at `from`, initially as wide as the single
// observed slope to `to` widened by maxError in either direction.
func (s *Spline) openCorridor(from, to Point) {
	dx := float64(to.Key) - float64(from.Key)
	if dx <= 0 {
		dx = 1
	}
	dyLow := float64(to.Page) - float64(s.maxError) - float64(from.Page)
	dyHigh := float64(to.Page) + float64(s.maxError) - float64(from.Page)
	s.lowSlopeNum, s.lowSlopeDen = dyLow, dx
	s.highSlopeNum, s.highSlopeDen = dyHigh, dx
	s.haveCorridor = true
}

// withinCorridor reports whether p's page estimate, projected from the
// segment start through the current corridor, is within maxError of
// p's actual page — i.e. whether extending the segment to include p
// still keeps every point seen so far within tolerance.
func (s *Spline) withinCorridor(p Point) bool {
	start := s.points[len(s.points)-1]
	dx := float64(p.Key) - float64(start.Key)
	if dx <= 0 {
		return true
	}
	lowEstimate := float64(start.Page) + s.lowSlopeNum/s.lowSlopeDen*dx
	highEstimate := float64(start.Page) + s.highSlopeNum/s.highSlopeDen*dx
	return float64(p.Page) >= lowEstimate && float64(p.Page) <= highEstimate
}

// narrowCorridor tightens the corridor so it still covers p, keeping
// the segment's start fixed at points[len-1].
func (s *Spline) narrowCorridor(p Point) {
	start := s.points[len(s.points)-1]
	dx := float64(p.Key) - float64(start.Key)
	if dx <= 0 {
		return
	}
	lowSlope := (float64(p.Page) - float64(s.maxError) - float64(start.Page)) / dx
	highSlope := (float64(p.Page) + float64(s.maxError) - float64(start.Page)) / dx
	if lowSlope > s.lowSlopeNum/s.lowSlopeDen {
		s.lowSlopeNum, s.lowSlopeDen = lowSlope, 1
	}
	if highSlope < s.highSlopeNum/s.highSlopeDen {
		s.highSlopeNum, s.highSlopeDen = highSlope, 1
	}
}

// mergeOldest drops the two oldest knots and replaces them with one,
// keeping the spline within maxPoints.
func (s *Spline) mergeOldest() {
	if len(s.points) < 2 {
		return
	}
	merged := s.points[1]
	s.points = append(s.points[:0], append([]Point{merged}, s.points[2:]...)...)
}

// Find locates the segment containing key and returns a [low, high]
// page bracket, unclamped; the caller clamps to the live page range.
func (s *Spline) Find(key uint64) (low, high int64) {
	if len(s.points) == 0 {
		return 0, 0
	}
	if key <= s.points[0].Key {
		return int64(s.points[0].Page) - int64(s.maxError), int64(s.points[0].Page) + int64(s.maxError)
	}
	// The open segment runs from the last retained knot to lastAdded,
	// which is not itself retained while the segment is still open.
	last := s.points[len(s.points)-1]
	end := last
	if s.lastAdded.Key > last.Key {
		end = s.lastAdded
	}
	if key >= end.Key {
		return int64(end.Page) - int64(s.maxError), int64(end.Page) + int64(s.maxError)
	}

	var a, b Point
	if key >= last.Key {
		a, b = last, end
	} else {
		// Binary search for the segment [points[i], points[i+1]] bracketing key.
		i, j := 0, len(s.points)-1
		for i < j {
			mid := (i + j + 1) / 2
			if s.points[mid].Key <= key {
				i = mid
			} else {
				j = mid - 1
			}
		}
		a, b = s.points[i], s.points[i+1]
	}
	dx := float64(b.Key) - float64(a.Key)
	var estimate float64
	if dx <= 0 {
		estimate = float64(a.Page)
	} else {
		t := (float64(key) - float64(a.Key)) / dx
		estimate = float64(a.Page) + t*(float64(b.Page)-float64(a.Page))
	}
	return int64(estimate) - int64(s.maxError), int64(estimate) + int64(s.maxError)
}

// Erase drops numPoints knots from the front, refusing to drop below
// two retained knots (a lone knot cannot bracket a range).
func (s *Spline) Erase(numPoints int) {
	if numPoints <= 0 {
		return
	}
	if len(s.points)-numPoints < 2 {
		numPoints = len(s.points) - 2
	}
	if numPoints <= 0 {
		return
	}
	s.points = append([]Point(nil), s.points[numPoints:]...)
}

// CountBelow returns the number of knots whose Page is strictly less
// than minPage — the quantity the data-ring reclamation hook passes to
// Erase after a wrap advances minDataPageId.
func (s *Spline) CountBelow(minPage uint32) int {
	n := 0
	for _, p := range s.points {
		if p.Page < minPage {
			n++
			continue
		}
		break
	}
	return n
}
