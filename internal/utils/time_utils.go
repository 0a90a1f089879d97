package utils

import (
	"strconv"
	"strings"
	"time"

	"github.com/peer-chat-dev/peer-chat-go-signaling-server/internal/logger"
)

// ParseStringTime parses the short duration strings used in config.json
// ("500ms", "5s", "2m", "1h", "1d"). Unparsable input yields 0, which callers
// treat as "use the default".
func ParseStringTime(timeString string) time.Duration {
	timeString = strings.ToLower(strings.TrimSpace(timeString))
	units := []struct {
		suffix string
		unit   time.Duration
	}{
		{"ms", time.Millisecond},
		{"s", time.Second},
		{"m", time.Minute},
		{"h", time.Hour},
		{"d", 24 * time.Hour},
	}

	for _, u := range units {
		cutString, found := strings.CutSuffix(timeString, u.suffix)
		if !found {
			continue
		}
		number, err := strconv.Atoi(cutString)
		if err != nil {
			logger.ErrorF("Error parsing time string: %s", err.Error())
			return 0
		}
		return time.Duration(number) * u.unit
	}

	logger.ErrorF("invalid time format: %s", timeString)
	return 0
}
