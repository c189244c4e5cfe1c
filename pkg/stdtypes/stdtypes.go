// Package stdtypes defines the result and version vocabulary shared by
// modules of the base software stack.
package stdtypes

import "fmt"

// Outcome is the two-valued result returned by mutating operations.
// It reports whether the operation was accepted, not whether the
// underlying condition is benign.
type Outcome uint8

const (
	// OK indicates the operation was accepted (E_OK).
	OK Outcome = 0

	// NotOK indicates the operation was refused (E_NOT_OK).
	NotOK Outcome = 1
)

// Raw values of the standard return type.
const (
	EOK    uint8 = 0
	ENotOK uint8 = 1
)

// OutcomeFromByte maps a raw return value to an Outcome.
// Any non-zero value is treated as NotOK.
func OutcomeFromByte(b uint8) Outcome {
	if b == EOK {
		return OK
	}
	return NotOK
}

// Byte returns the raw return value (E_OK or E_NOT_OK).
func (o Outcome) Byte() uint8 {
	if o == OK {
		return EOK
	}
	return ENotOK
}

// IsOK reports whether the outcome is OK.
func (o Outcome) IsOK() bool {
	return o == OK
}

func (o Outcome) String() string {
	if o == OK {
		return "E_OK"
	}
	return "E_NOT_OK"
}

// VersionInfo identifies the supplier and software version of a module.
// It is fixed at build time.
type VersionInfo struct {
	VendorID       uint16
	SWMajorVersion uint8
	SWMinorVersion uint8
	SWPatchVersion uint8
}

// String formats the version as "vendor 0x0001 v1.0.0".
func (v VersionInfo) String() string {
	return fmt.Sprintf("vendor 0x%04x v%d.%d.%d", v.VendorID, v.SWMajorVersion, v.SWMinorVersion, v.SWPatchVersion)
}

// Physical, activity and feature-switch levels.
const (
	StdLow  uint8 = 0
	StdHigh uint8 = 1

	StdIdle   uint8 = 0
	StdActive uint8 = 1

	StdOff uint8 = 0
	StdOn  uint8 = 1
)
