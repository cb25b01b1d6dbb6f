// internal/sample/sample_test.go
package sample

import "testing"

func TestSample_Immutable(t *testing.T) {
	src := map[int]int{4: 1, 5: 0}
	s := New(src)

	src[4] = 0
	src[9] = 1

	if v, _ := s.D4(); v != 1 {
		t.Fatalf("sample changed through source map: D4=%d", v)
	}
	if _, ok := s.Get(9); ok {
		t.Fatalf("sample gained pin 9 through source map")
	}

	states := s.States()
	states[5] = 1
	if v, _ := s.D5(); v != 0 {
		t.Fatalf("sample changed through States() copy: D5=%d", v)
	}

	ref := s.Ref(4)
	*ref = 7
	if v, _ := s.D4(); v != 1 {
		t.Fatalf("sample changed through Ref(): D4=%d", v)
	}
}

func TestSample_AbsentVsZero(t *testing.T) {
	s := New(map[int]int{6: 0})

	if v, ok := s.D6(); !ok || v != 0 {
		t.Fatalf("D6 = %d,%v want 0,true", v, ok)
	}
	if _, ok := s.D7(); ok {
		t.Fatalf("D7 should be absent")
	}
	if s.Ref(7) != nil {
		t.Fatalf("Ref(7) should be nil")
	}
	if r := s.Ref(6); r == nil || *r != 0 {
		t.Fatalf("Ref(6) = %v, want pointer to 0", r)
	}
}

func TestSample_ZeroValue(t *testing.T) {
	var s Sample
	if s.Len() != 0 {
		t.Fatalf("zero sample Len=%d", s.Len())
	}
	if _, ok := s.D4(); ok {
		t.Fatalf("zero sample should report no pins")
	}
}
