// Package units contains small formatting helpers for quantities reported by
// the storage backends.
package units

// StorageScale is the scale factor used for all storage sizes.
const StorageScale = 1024.0

// ByteUnit is the base unit of storage sizes.
const ByteUnit = "B"

var prefixes = []string{"", "k", "M", "G", "T", "P", "E", "Z", "Y"}

// Scale converts value to the largest prefixed unit in which the value is
// still smaller than scale.
//
// With scale = 1000.0 and unit = "m", 231234.0 becomes 231.234 km. If the
// value exceeds the largest prefix, the value is returned in that prefix
// even though it is not smaller than scale.
//
// value must be non-negative and scale must be greater than 1.
func Scale(value float64, unit string, scale float64) (float64, string) {
	ind := 0
	for value >= scale && ind < len(prefixes)-1 {
		value /= scale
		ind++
	}

	return value, prefixes[ind] + unit
}

// ScaleBytes scales a byte count using StorageScale.
func ScaleBytes(bytes uint64) (float64, string) {
	return Scale(float64(bytes), ByteUnit, StorageScale)
}
