package models

import (
	"strconv"
	"time"

	"giveaway-bot/internal/common/apperrors"
)

const (
	day  = 24 * time.Hour
	week = 7 * day
)

// ParseDuration parses a compact duration token: a positive integer
// followed by "h" (hours), "d" (days) or "w" (weeks), e.g. "24h", "3d",
// "2w".
func ParseDuration(token string) (time.Duration, error) {
	if len(token) < 2 {
		return 0, apperrors.Newf(apperrors.CodeInvalidDuration, "invalid duration %q, expected forms like 12h, 3d, 2w", token)
	}

	var unit time.Duration
	switch token[len(token)-1] {
	case 'h':
		unit = time.Hour
	case 'd':
		unit = day
	case 'w':
		unit = week
	default:
		return 0, apperrors.Newf(apperrors.CodeInvalidDuration, "invalid duration %q, unknown suffix", token)
	}

	n, err := strconv.ParseInt(token[:len(token)-1], 10, 64)
	if err != nil || n <= 0 {
		return 0, apperrors.Newf(apperrors.CodeInvalidDuration, "invalid duration %q, magnitude must be a positive integer", token)
	}
	if n > int64(maxDuration/unit) {
		return 0, apperrors.Newf(apperrors.CodeInvalidDuration, "invalid duration %q, too large", token)
	}

	return time.Duration(n) * unit, nil
}

const maxDuration = time.Duration(1<<63 - 1)
