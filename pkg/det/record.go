// record.go defines the record and category types stored by the tracer.

package det

import (
	"fmt"
	"strings"
)

// Record identifies what failed, where, and how.
// Records carry no timestamp or message; the category is implied by the
// log a record was appended to.
type Record struct {
	// ModuleID identifies the reporting module.
	ModuleID uint16

	// InstanceID distinguishes instances of the same module.
	InstanceID uint8

	// APIID identifies the API in which the failure was detected.
	APIID uint8

	// ErrorID identifies the failure condition.
	ErrorID uint8
}

// String formats the record as "module=0x0001 instance=1 api=0x01 error=0x01".
func (r Record) String() string {
	return fmt.Sprintf("module=0x%04x instance=%d api=0x%02x error=0x%02x", r.ModuleID, r.InstanceID, r.APIID, r.ErrorID)
}

// Category classifies a reported record.
type Category uint8

const (
	// DevelopmentError is a programming-contract violation detected by a caller.
	DevelopmentError Category = iota

	// RuntimeError is a condition detected during normal operation.
	RuntimeError

	// TransientFault is a condition expected to be transient.
	TransientFault

	numCategories
)

// Categories returns all categories in declaration order.
func Categories() []Category {
	return []Category{DevelopmentError, RuntimeError, TransientFault}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c < numCategories
}

func (c Category) String() string {
	switch c {
	case DevelopmentError:
		return "development_error"
	case RuntimeError:
		return "runtime_error"
	case TransientFault:
		return "transient_fault"
	default:
		return fmt.Sprintf("category(%d)", uint8(c))
	}
}

// ParseCategory parses a category name. Besides the String form it accepts
// the short names "dev", "runtime" and "transient".
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "development_error", "development", "dev":
		return DevelopmentError, nil
	case "runtime_error", "runtime":
		return RuntimeError, nil
	case "transient_fault", "transient":
		return TransientFault, nil
	default:
		return 0, fmt.Errorf("unknown category %q", s)
	}
}
