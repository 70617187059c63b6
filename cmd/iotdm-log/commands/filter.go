package commands

import (
	"fmt"
	"time"

	"github.com/opendaylight/iotdm-sub002/pkg/log"
)

// FilterOptions holds the filter flags shared by view and stats.
type FilterOptions struct {
	Category  string
	Protocol  string
	Channel   string
	Plugin    string
	TimeStart string
	TimeEnd   string
}

// Build converts the flag values to a log.Filter.
func (o FilterOptions) Build() (log.Filter, error) {
	filter := log.Filter{
		Protocol: o.Protocol,
		Channel:  o.Channel,
		Plugin:   o.Plugin,
	}

	if o.Category != "" {
		c, err := ParseCategoryFlag(o.Category)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Category = &c
	}

	if o.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, o.TimeStart)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}

	if o.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, o.TimeEnd)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}

	return filter, nil
}

// ParseCategoryFlag parses a category string from a command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	c, ok := log.ParseCategory(s)
	if !ok {
		return 0, fmt.Errorf("invalid category: %s (must be registry, dispatch, state, or error)", s)
	}
	return c, nil
}
