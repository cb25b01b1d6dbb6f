// internal/sample/codec_test.go
package sample

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseLine_Valid(t *testing.T) {
	cases := []struct {
		name string
		line string
		want map[int]int
	}{
		{"device line", "4,1,5,0,6,1,7,0", map[int]int{4: 1, 5: 0, 6: 1, 7: 0}},
		{"whitespace", "  4 , 1 ,\t5,0  ", map[int]int{4: 1, 5: 0}},
		{"empty tokens", "4,,1,5,0,", map[int]int{4: 1, 5: 0}},
		{"last write wins", "4,1,4,0,4,1,4,0", map[int]int{4: 0}},
		{"sparse", "7,1", map[int]int{7: 1}},
		{"empty line", "", map[int]int{}},
		{"signed", "+4,-1", map[int]int{4: -1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseLine(tc.line)
			if err != nil {
				t.Fatalf("ParseLine(%q) err=%v", tc.line, err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ParseLine(%q) = %v, want %v", tc.line, got, tc.want)
			}
		})
	}
}

func TestParseLine_Malformed(t *testing.T) {
	lines := []string{
		"4,1,5",
		"4",
		"a,1",
		"4,b",
		"4,1,5,1.0",
		"4;1;5;0",
	}

	for _, line := range lines {
		if _, err := ParseLine(line); !errors.Is(err, ErrMalformedLine) {
			t.Fatalf("ParseLine(%q) err=%v, want ErrMalformedLine", line, err)
		}
	}
}

func TestParseLine_LastOccurrenceProperty(t *testing.T) {
	// Generated pairs: pin i%3, value i%2. The last occurrence must win.
	var line string
	want := map[int]int{}
	for i := 0; i < 20; i++ {
		if i > 0 {
			line += ","
		}
		pin, val := i%3, i%2
		line += itoa(pin) + "," + itoa(val)
		want[pin] = val
	}

	got, err := ParseLine(line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDecode(t *testing.T) {
	s, err := Decode("4,1,6,0")
	if err != nil {
		t.Fatalf("Decode err=%v", err)
	}

	if v, ok := s.D4(); !ok || v != 1 {
		t.Fatalf("D4 = %d,%v want 1,true", v, ok)
	}
	if v, ok := s.D6(); !ok || v != 0 {
		t.Fatalf("D6 = %d,%v want 0,true", v, ok)
	}
	if _, ok := s.D5(); ok {
		t.Fatalf("D5 should be absent")
	}

	if _, err := Decode("4,1,5"); !errors.Is(err, ErrMalformedLine) {
		t.Fatalf("expected ErrMalformedLine, got %v", err)
	}
}

func itoa(n int) string {
	return string(rune('0' + n))
}
