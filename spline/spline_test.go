package spline

import "testing"

func TestFindBracketsWrittenPoints(t *testing.T) {
	s := New(32, 2)
	for i := 0; i < 50; i++ {
		s.Add(uint64(i*10), uint32(i))
	}
	for i := 0; i < 50; i++ {
		key := uint64(i * 10)
		low, high := s.Find(key)
		page := int64(i)
		if page < low || page > high {
			t.Fatalf("key %d: page %d not in bracket [%d,%d]", key, page, low, high)
		}
	}
}

func TestEraseKeepsAtLeastTwoPoints(t *testing.T) {
	s := New(4, 1)
	s.Add(0, 0)
	s.Add(10, 1)
	s.Add(20, 2)
	s.Erase(10)
	if s.Len() < 2 {
		t.Fatalf("Len() = %d, want >= 2", s.Len())
	}
}

func TestCountBelow(t *testing.T) {
	s := New(8, 1)
	for i := 0; i < 6; i++ {
		s.Add(uint64(i*5), uint32(i))
	}
	if n := s.CountBelow(3); n == 0 {
		t.Fatalf("CountBelow(3) = 0, want > 0")
	}
}

func TestMaxPointsBounded(t *testing.T) {
	s := New(4, 1)
	for i := 0; i < 100; i++ {
		// Irregular spacing forces frequent segment closes.
		s.Add(uint64(i*i), uint32(i))
	}
	if s.Len() > 4 {
		t.Fatalf("Len() = %d, want <= 4", s.Len())
	}
}
