package stats

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/sharpie/internal/model"
)

// DateLayout is the format accepted for the since filter.
const DateLayout = "2006-01-02"

// ParseFilter builds a stats config from user input. Empty since and last
// mean no limit; window must be at least 1.
func ParseFilter(since, last, window string) (model.StatsConfig, error) {
	var cfg model.StatsConfig
	if since = strings.TrimSpace(since); since != "" {
		parsed, err := time.ParseInLocation(DateLayout, since, time.Local)
		if err != nil {
			return model.StatsConfig{}, fmt.Errorf("invalid since date %q (expected YYYY-MM-DD)", since)
		}
		cfg.Since = &parsed
	}
	if last = strings.TrimSpace(last); last != "" {
		n, err := strconv.Atoi(last)
		if err != nil || n < 0 {
			return model.StatsConfig{}, fmt.Errorf("invalid last value %q (use 0 or a positive integer)", last)
		}
		cfg.Last = n
	}
	n, err := strconv.Atoi(strings.TrimSpace(window))
	if err != nil || n < 1 {
		return model.StatsConfig{}, fmt.Errorf("invalid window %q (use an integer >= 1)", window)
	}
	cfg.Window = n
	return cfg, nil
}
