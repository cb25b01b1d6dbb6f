// internal/mirror/writer.go
package mirror

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tamzrod/pinlogger/internal/status"
)

// registerClient is the exact contract the writer uses.
type registerClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// Plan is where and how the status block is mirrored.
type Plan struct {
	Endpoint   string
	UnitID     uint8
	BaseSlot   uint16
	DeviceName string
	StaleAfter time.Duration
}

// Writer delivers status snapshots into one holding register block.
// The full block (device name included) is written first and after any
// failure; otherwise only changed register ranges are written.
type Writer struct {
	plan Plan
	cli  registerClient

	needFull bool
	last     []uint16
	nameRegs []uint16
}

// NewWriter builds a status writer.
func NewWriter(plan Plan, cli registerClient) (*Writer, error) {
	if cli == nil {
		return nil, fmt.Errorf("mirror: missing client for endpoint %s", plan.Endpoint)
	}
	if (int(plan.BaseSlot)+1)*status.SlotsPerDevice > 1<<16 {
		return nil, fmt.Errorf("mirror: base slot %d out of range", plan.BaseSlot)
	}

	return &Writer{
		plan:     plan,
		cli:      cli,
		needFull: true, // full re-assert on first successful write
		nameRegs: encodeDeviceNameRegs(plan.DeviceName),
	}, nil
}

// WriteStatus encodes s and delivers it.
// On any write failure, the next call re-asserts the full block.
func (w *Writer) WriteStatus(s status.Snapshot) error {
	regs := w.fullBlockRegs(s)
	base := w.baseAddr()

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if w.needFull {
		if err := w.cli.WriteRegisters(w.plan.UnitID, base, regs); err != nil {
			return fmt.Errorf("mirror: full block write failed: %w", err)
		}
		w.needFull = false
		w.last = regs
		return nil
	}

	var errs []string

	for _, r := range changedRanges(w.last, regs) {
		chunk := regs[r.start:r.end]
		if err := w.cli.WriteRegisters(w.plan.UnitID, base+uint16(r.start), chunk); err != nil {
			errs = append(errs, fmt.Sprintf("slots %d..%d write failed: %v", r.start, r.end-1, err))
			continue
		}
		copy(w.last[r.start:r.end], chunk)
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt: re-assert on next call.
		w.needFull = true
		return errors.New("mirror: " + strings.Join(errs, " | "))
	}

	return nil
}

func (w *Writer) baseAddr() uint16 {
	// Each block owns a fixed SlotsPerDevice range.
	return w.plan.BaseSlot * status.SlotsPerDevice
}

func (w *Writer) fullBlockRegs(s status.Snapshot) []uint16 {
	regs := status.Encode(s, w.plan.StaleAfter)

	// Device name always lives at the end of the block
	copy(regs[status.SlotDeviceNameStart:status.SlotDeviceNameEnd+1], w.nameRegs)

	return regs
}

type slotRange struct{ start, end int }

// changedRanges returns the contiguous runs where next differs from prev.
func changedRanges(prev, next []uint16) []slotRange {
	var out []slotRange
	start := -1

	for i := range next {
		diff := i >= len(prev) || prev[i] != next[i]
		switch {
		case diff && start < 0:
			start = i
		case !diff && start >= 0:
			out = append(out, slotRange{start, i})
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, slotRange{start, len(next)})
	}
	return out
}

// encodeDeviceNameRegs packs up to 16 ASCII characters into 8 uint16 registers.
// Each register stores two ASCII bytes in big-endian order.
func encodeDeviceNameRegs(name string) []uint16 {
	out := make([]uint16, status.SlotDeviceNameSlots)

	b := []byte(name)
	if len(b) > status.DeviceNameMaxChars {
		b = b[:status.DeviceNameMaxChars]
	}

	// sanitize to printable ASCII
	for i := 0; i < len(b); i++ {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < status.DeviceNameMaxChars; i += 2 {
		var hi, lo byte
		if i < len(b) {
			hi = b[i]
		}
		if i+1 < len(b) {
			lo = b[i+1]
		}
		out[i/2] = uint16(hi)<<8 | uint16(lo)
	}

	return out
}
