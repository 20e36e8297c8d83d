// Package units provides shared constants and conversions for speed units
// and timezones.
package units

// Unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

const mphPerMPS = 2.2369362920544

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, MPH, KMPH, KPH}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "mps, mph, kmph, kph"
}

// ConvertSpeed converts a speed from meters per second to the target units
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPS:
		return speedMPS
	case MPH:
		return speedMPS * mphPerMPS
	case KMPH, KPH:
		return speedMPS * 3.6
	default:
		return speedMPS
	}
}

// ConvertToMPS converts a speed in fromUnit to meters per second
func ConvertToMPS(speed float64, fromUnit string) float64 {
	switch fromUnit {
	case MPS:
		return speed
	case MPH:
		return speed / mphPerMPS
	case KMPH, KPH:
		return speed / 3.6
	default:
		return speed
	}
}

// ToKMPH converts a speed in fromUnit to kilometres per hour. Telemetry
// already logged in km/h is returned untouched.
func ToKMPH(speed float64, fromUnit string) float64 {
	switch fromUnit {
	case KMPH, KPH:
		return speed
	default:
		return ConvertSpeed(ConvertToMPS(speed, fromUnit), KMPH)
	}
}
