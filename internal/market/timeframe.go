package market

import "strconv"

const defaultIntervalSeconds = 60

// IntervalSeconds converts a timeframe label such as "5m", "2h" or "1d"
// into a polling interval in seconds. A label without a recognized unit
// suffix is parsed as whole minutes. Anything malformed or non-positive
// falls back to one minute, so the result can never busy-poll; this
// never fails.
func IntervalSeconds(label string) int {
	if label == "" {
		return defaultIntervalSeconds
	}

	unit := label[len(label)-1]
	multiplier := 0
	switch unit {
	case 'm':
		multiplier = 60
	case 'h':
		multiplier = 3600
	case 'd':
		multiplier = 86400
	}

	if multiplier != 0 {
		value, err := strconv.Atoi(label[:len(label)-1])
		if err != nil || value <= 0 {
			return defaultIntervalSeconds
		}
		return value * multiplier
	}

	// No unit suffix: treat the whole label as minutes.
	value, err := strconv.Atoi(label)
	if err != nil || value <= 0 {
		return defaultIntervalSeconds
	}
	return value * 60
}
