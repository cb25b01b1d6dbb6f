// internal/status/constants.go
package status

// Status block layout constants.
// These values define the register protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of registers per status block.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the derived health state.
const SlotHealthCode = 0

// SlotLastErrorFlag is 1 while the service reports a last error.
const SlotLastErrorFlag = 1

// SlotLastSampleAge holds the age of the last accepted sample in seconds.
const SlotLastSampleAge = 2

// SlotPinD4 is the first pin slot; D4..D7 occupy four consecutive slots.
const SlotPinD4 = 3

// SlotPinCount is the number of pin slots.
const SlotPinCount = 4

// SlotSamplesWrittenHi/Lo hold the samples-written counter as two words.
const (
	SlotSamplesWrittenHi = 7
	SlotSamplesWrittenLo = 8
)

// SlotBadReadsHi/Lo hold the bad-read counter as two words.
const (
	SlotBadReadsHi = 9
	SlotBadReadsLo = 10
)

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the device name.
// Device name is always placed at the END of the status block.
const SlotDeviceNameStart = 11

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the device name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// SlotReserved is left as zero.
const SlotReserved = 19

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for device name.
const DeviceNameMaxChars = 16

// MaxAgeSeconds is the saturation value of the age slot.
// An absent age is written as MaxAgeSeconds as well.
const MaxAgeSeconds uint16 = 65535

// PinAbsent marks a pin missing from the last sample.
const PinAbsent uint16 = 0xFFFF

// ---- HEALTH CODES ----

// HealthUnknown means the service was never started.
const HealthUnknown uint16 = 0

// HealthOK means running with fresh samples and no error.
const HealthOK uint16 = 1

// HealthError means a last error is reported.
const HealthError uint16 = 2

// HealthStale means running but no sample within the stale window.
const HealthStale uint16 = 3

// HealthDisabled means stopped without error.
const HealthDisabled uint16 = 4
