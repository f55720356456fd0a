package canfeat

import "fmt"

// Range is the accepted [Min, Max] interval for one feature, sized to the
// width of its hardware register.
type Range struct {
	Name string
	Min  float64
	Max  float64
	Bits int
}

// Ranges lists the per-feature validation intervals in canonical order.
var Ranges = [6]Range{
	{"arb_id_dec", 0, 2047, 11}, // 11-bit standard CAN identifier
	{"data_length", 0, 16, 4},   // 16 hex chars = 8-byte payload
	{"first_byte", 0, 255, 8},
	{"last_byte", 0, 255, 8},
	{"byte_sum", 0, 2047, 11}, // 8 * 255 = 2040 worst case
	{"time_delta", 0, 1, 32},  // clamped upstream
}

// Validate checks every feature against its declared range. It is purely
// diagnostic: it never errors, it reports each violating field.
func Validate(v Vector) (bool, []string) {
	var violations []string
	for i, val := range v.Values() {
		r := Ranges[i]
		if val < r.Min || val > r.Max {
			violations = append(violations,
				fmt.Sprintf("%s = %g out of range [%g, %g]", r.Name, val, r.Min, r.Max))
		}
	}
	return len(violations) == 0, violations
}
