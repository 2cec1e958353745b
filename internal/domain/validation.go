package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Validation constants
const (
	MaxSymbolLength   = 10
	MaxUsernameLength = 64
	MaxPasswordLength = 72 // bcrypt ignores anything longer
	MaxSharesPerTrade = 1_000_000_000
)

var (
	symbolRegex   = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-^]*$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.\-]+$`)
)

// NormalizeSymbol trims and upper-cases a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ValidateSymbol validates a normalized ticker.
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("%w: missing symbol", ErrValidation)
	}

	if len(symbol) > MaxSymbolLength {
		return fmt.Errorf("%w: symbol exceeds %d characters", ErrValidation, MaxSymbolLength)
	}

	if !symbolRegex.MatchString(symbol) {
		return fmt.Errorf("%w: symbol contains invalid characters", ErrValidation)
	}

	return nil
}

// ValidateShares checks that a share count is a positive whole number
// within the per-trade limit.
func ValidateShares(shares int64) error {
	if shares <= 0 {
		return fmt.Errorf("%w: shares must be a positive integer", ErrValidation)
	}

	if shares > MaxSharesPerTrade {
		return fmt.Errorf("%w: shares exceed %d", ErrValidation, MaxSharesPerTrade)
	}

	return nil
}

// ParseShares parses a share count as submitted by a form.
func ParseShares(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: missing shares", ErrValidation)
	}

	shares, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: shares must be a positive integer", ErrValidation)
	}

	if err := ValidateShares(shares); err != nil {
		return 0, err
	}

	return shares, nil
}

// ValidateUsername validates a username.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)

	if username == "" {
		return fmt.Errorf("%w: must provide username", ErrValidation)
	}

	if len(username) > MaxUsernameLength {
		return fmt.Errorf("%w: username exceeds %d characters", ErrValidation, MaxUsernameLength)
	}

	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("%w: username contains invalid characters", ErrValidation)
	}

	return nil
}

// ValidatePassword validates a new password.
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: must provide password", ErrValidation)
	}

	if len(password) > MaxPasswordLength {
		return fmt.Errorf("%w: password must not exceed %d characters", ErrValidation, MaxPasswordLength)
	}

	return nil
}
