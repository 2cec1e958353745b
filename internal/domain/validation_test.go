package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalizeAndValidateSymbol(t *testing.T) {
	t.Parallel()

	t.Run("normalizes case and whitespace", func(t *testing.T) {
		if got := NormalizeSymbol("  aapl "); got != "AAPL" {
			t.Fatalf("expected AAPL, got %q", got)
		}
	})

	t.Run("valid symbols", func(t *testing.T) {
		for _, s := range []string{"AAPL", "BRK.B", "RDS-A", "GSPC"} {
			if err := ValidateSymbol(s); err != nil {
				t.Fatalf("expected %q to be valid, got %v", s, err)
			}
		}
	})

	t.Run("empty symbol rejected", func(t *testing.T) {
		if err := ValidateSymbol(""); !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("symbol too long", func(t *testing.T) {
		err := ValidateSymbol(strings.Repeat("A", MaxSymbolLength+1))
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("symbol with forbidden characters", func(t *testing.T) {
		if err := ValidateSymbol("AA PL;"); !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})
}

func TestParseShares(t *testing.T) {
	t.Parallel()

	valid := map[string]int64{"1": 1, " 42 ": 42, "1000000000": MaxSharesPerTrade}
	for raw, want := range valid {
		got, err := ParseShares(raw)
		if err != nil {
			t.Fatalf("ParseShares(%q): unexpected error %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseShares(%q) = %d, want %d", raw, got, want)
		}
	}

	for _, raw := range []string{"", "0", "-3", "1.5", "abc", "1e3", "1000000001"} {
		if _, err := ParseShares(raw); !errors.Is(err, ErrValidation) {
			t.Fatalf("ParseShares(%q): expected ErrValidation, got %v", raw, err)
		}
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()

	if err := ValidateUsername("alice_01"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	for _, name := range []string{"", "   ", "bad name", strings.Repeat("a", MaxUsernameLength+1)} {
		if err := ValidateUsername(name); !errors.Is(err, ErrValidation) {
			t.Fatalf("ValidateUsername(%q): expected ErrValidation, got %v", name, err)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	if err := ValidatePassword("hunter2"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := ValidatePassword(""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty password, got %v", err)
	}

	if err := ValidatePassword(strings.Repeat("x", MaxPasswordLength+1)); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for long password, got %v", err)
	}
}

func TestUser_ValidateDebit(t *testing.T) {
	tests := []struct {
		name        string
		cash        decimal.Decimal
		amount      decimal.Decimal
		expectError bool
	}{
		{name: "debit less than cash", cash: decimal.NewFromInt(100), amount: decimal.NewFromInt(50)},
		{name: "debit exact cash", cash: decimal.NewFromInt(100), amount: decimal.NewFromInt(100)},
		{name: "debit more than cash", cash: decimal.NewFromInt(100), amount: decimal.RequireFromString("100.01"), expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{Cash: tt.cash}

			err := u.ValidateDebit(tt.amount)

			if tt.expectError && !errors.Is(err, ErrInsufficientFunds) {
				t.Errorf("expected ErrInsufficientFunds, got %v", err)
			}

			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestQuoteErrorUnwraps(t *testing.T) {
	err := error(&QuoteError{Symbol: "AAPL", Err: ErrQuoteUnavailable})

	if !errors.Is(err, ErrQuoteUnavailable) {
		t.Fatalf("expected QuoteError to match ErrQuoteUnavailable")
	}

	if !IsRetryable(err) {
		t.Fatalf("expected quote error to be retryable")
	}

	if IsRetryable(ErrUnknownSymbol) {
		t.Fatalf("unknown symbol must not be retryable")
	}

	var qe *QuoteError
	if !errors.As(err, &qe) || qe.Symbol != "AAPL" {
		t.Fatalf("expected errors.As to expose the symbol, got %v", qe)
	}
}
