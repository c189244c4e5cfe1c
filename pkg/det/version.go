package det

import "github.com/strongdm/ai-cxdb-det/pkg/stdtypes"

// Build identity of the tracer.
const (
	VendorID       uint16 = 0x0001
	SWMajorVersion uint8  = 1
	SWMinorVersion uint8  = 0
	SWPatchVersion uint8  = 0
)

// VersionInfo returns the build identity of the tracer.
// It does not depend on any Tracer instance.
func VersionInfo() stdtypes.VersionInfo {
	return stdtypes.VersionInfo{
		VendorID:       VendorID,
		SWMajorVersion: SWMajorVersion,
		SWMinorVersion: SWMinorVersion,
		SWPatchVersion: SWPatchVersion,
	}
}
