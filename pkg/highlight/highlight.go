// Package highlight holds the ranges produced by a scan.
package highlight

import "sort"

// Range is a byte-offset half-open interval [Start, End) of a document
// styled by decoration Decoration.
type Range struct {
	Decoration int
	Start      int
	End        int
	Tooltip    string
}

// Len returns End - Start.
func (r Range) Len() int { return r.End - r.Start }

// Contains reports whether pos falls inside the range.
func (r Range) Contains(pos int) bool { return pos >= r.Start && pos < r.End }

// Set groups ranges by decoration id, keeping emission order per id.
type Set struct {
	by  map[int][]Range
	ids []int
	n   int
}

// NewSet returns an empty set.
func NewSet() *Set { return &Set{by: map[int][]Range{}} }

// Add appends r to its decoration's list.
func (s *Set) Add(r Range) {
	if s.by == nil {
		s.by = map[int][]Range{}
	}
	if _, ok := s.by[r.Decoration]; !ok {
		s.ids = append(s.ids, r.Decoration)
	}
	s.by[r.Decoration] = append(s.by[r.Decoration], r)
	s.n++
}

// Len is the total number of ranges.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return s.n
}

// Ranges returns the ranges of decoration id in emission order.
func (s *Set) Ranges(id int) []Range {
	if s == nil {
		return nil
	}
	return s.by[id]
}

// IDs returns the decoration ids that have ranges, ascending.
func (s *Set) IDs() []int {
	if s == nil {
		return nil
	}
	out := append([]int(nil), s.ids...)
	sort.Ints(out)
	return out
}

// Flatten returns every range sorted by start, then end, then decoration.
func (s *Set) Flatten() []Range {
	if s == nil {
		return nil
	}
	out := make([]Range, 0, s.n)
	for _, id := range s.ids {
		out = append(out, s.by[id]...)
	}
	Sort(out)
	return out
}

// Sort orders ranges by start, then end, then decoration.
func Sort(rs []Range) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		return a.Decoration < b.Decoration
	})
}

// Next returns the index in ranges (sorted by start) of the first range that
// starts after pos. If pos is past all ranges, it wraps and returns 0.
// Returns -1 if no ranges.
func Next(ranges []Range, pos int) int {
	if len(ranges) == 0 {
		return -1
	}
	for i, r := range ranges {
		if r.Start > pos {
			return i
		}
	}
	// wrap
	return 0
}

// At returns the ranges covering pos.
func At(ranges []Range, pos int) []Range {
	var out []Range
	for _, r := range ranges {
		if r.Contains(pos) {
			out = append(out, r)
		}
	}
	return out
}
