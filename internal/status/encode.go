// internal/status/encode.go
package status

import (
	"math"
	"time"
)

// Health derives the health code from a snapshot.
// staleAfter <= 0 disables stale detection.
func Health(s Snapshot, staleAfter time.Duration) uint16 {
	if !s.Running {
		switch {
		case !s.Started():
			return HealthUnknown
		case s.LastError != "":
			return HealthError
		default:
			return HealthDisabled
		}
	}

	if staleAfter > 0 {
		if s.LastSampleAgeSeconds == nil || *s.LastSampleAgeSeconds > staleAfter.Seconds() {
			return HealthStale
		}
	}
	if s.LastError != "" {
		return HealthError
	}
	return HealthOK
}

// Encode converts a Snapshot into a full status block.
// Device name slots are left zero; the mirror owns the name.
// No IO. No side effects.
func Encode(s Snapshot, staleAfter time.Duration) []uint16 {
	regs := make([]uint16, SlotsPerDevice)

	regs[SlotHealthCode] = Health(s, staleAfter)
	if s.LastError != "" {
		regs[SlotLastErrorFlag] = 1
	}
	regs[SlotLastSampleAge] = encodeAge(s.LastSampleAgeSeconds)

	for i, p := range []*int{s.Pins.D4, s.Pins.D5, s.Pins.D6, s.Pins.D7} {
		regs[SlotPinD4+i] = encodePin(p)
	}

	regs[SlotSamplesWrittenHi], regs[SlotSamplesWrittenLo] = splitCounter(s.SamplesWritten)
	regs[SlotBadReadsHi], regs[SlotBadReadsLo] = splitCounter(s.BadReads)

	return regs
}

func encodeAge(age *float64) uint16 {
	if age == nil || *age >= float64(MaxAgeSeconds) {
		return MaxAgeSeconds
	}
	if *age <= 0 {
		return 0
	}
	return uint16(*age)
}

func encodePin(p *int) uint16 {
	if p == nil {
		return PinAbsent
	}
	// Device values are not range-checked; anything outside a word saturates.
	if *p < 0 || *p >= int(PinAbsent) {
		return PinAbsent - 1
	}
	return uint16(*p)
}

// splitCounter saturates at 32 bits and returns hi, lo words.
func splitCounter(v uint64) (uint16, uint16) {
	if v > math.MaxUint32 {
		v = math.MaxUint32
	}
	return uint16(v >> 16), uint16(v)
}
