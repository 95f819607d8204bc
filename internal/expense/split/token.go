package split

import (
	"strings"

	"github.com/shopspring/decimal"
)

// UserRef is a normalized username as typed in a mention, without the "@".
type UserRef string

// NewUserRef normalizes a mention such as "@John" to "john".
func NewUserRef(s string) UserRef {
	return UserRef(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "@")))
}

// Kind is the meaning a participant token ends up with.
type Kind string

const (
	KindEqual      Kind = "EQUAL"
	KindFixed      Kind = "FIXED"
	KindPercentage Kind = "PERCENTAGE"
	KindShare      Kind = "SHARE"
	KindRemainder  Kind = "REMAINDER"

	// kindNumeric is a bare "@user=N" before the share/amount heuristic runs.
	kindNumeric Kind = "NUMERIC"
)

const payerPrefix = "paid:"

// maxShares bounds a single share count
var maxShares = decimal.NewFromInt(1_000_000)

// Token is one parsed split token.
type Token struct {
	Raw   string
	User  UserRef
	Kind  Kind
	Value decimal.Decimal

	// integral is true when a numeric value was typed without a decimal separator
	integral bool
}

// Tokenize splits raw command text on whitespace.
func Tokenize(input string) []string {
	return strings.Fields(input)
}

// parseToken reads a single token. A payer override is reported with
// payer=true and is never a participant.
func parseToken(raw string) (tok Token, payer bool, err error) {
	text := strings.TrimSpace(raw)
	tok.Raw = text

	if len(text) >= len(payerPrefix) && strings.EqualFold(text[:len(payerPrefix)], payerPrefix) {
		mention := text[len(payerPrefix):]
		if strings.Contains(mention, "=") {
			return tok, false, invalidToken(text, "payer override takes no value")
		}
		user, err := parseMention(text, mention)
		if err != nil {
			return tok, false, err
		}
		tok.User = user
		return tok, true, nil
	}

	mention, value, hasValue := strings.Cut(text, "=")
	user, err := parseMention(text, mention)
	if err != nil {
		return tok, false, err
	}
	tok.User = user

	if !hasValue {
		tok.Kind = KindEqual
		return tok, false, nil
	}
	if value == "" {
		return tok, false, invalidToken(text, "missing value after '='")
	}

	switch last := value[len(value)-1]; {
	case last == '%':
		pct, err := parseNumber(text, value[:len(value)-1])
		if err != nil {
			return tok, false, err
		}
		if !pct.IsPositive() || pct.GreaterThan(decimal.NewFromInt(100)) {
			return tok, false, invalidToken(text, "percentage must be greater than 0 and at most 100")
		}
		tok.Kind = KindPercentage
		tok.Value = pct
	case last == 'x' || last == 'X':
		digits := value[:len(value)-1]
		shares, err := parseNumber(text, digits)
		if err != nil {
			return tok, false, err
		}
		if !isIntegralText(digits) {
			return tok, false, invalidToken(text, "shares must be a whole number")
		}
		if shares.GreaterThan(maxShares) {
			return tok, false, invalidToken(text, "too many shares")
		}
		tok.Kind = KindShare
		tok.Value = shares
		tok.integral = true
	default:
		n, err := parseNumber(text, value)
		if err != nil {
			return tok, false, err
		}
		tok.Kind = kindNumeric
		tok.Value = n
		tok.integral = isIntegralText(value)
	}
	return tok, false, nil
}

func parseMention(token, mention string) (UserRef, error) {
	if !strings.HasPrefix(mention, "@") {
		return "", invalidToken(token, "expected a mention like @user")
	}
	name := mention[1:]
	if name == "" {
		return "", invalidToken(token, "empty username")
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == '.' || r == '-':
		default:
			return "", invalidToken(token, "username has invalid characters")
		}
	}
	return NewUserRef(name), nil
}

func parseNumber(token, text string) (decimal.Decimal, error) {
	normalized := strings.ReplaceAll(text, ",", ".")
	if normalized == "" || strings.HasPrefix(normalized, "+") || strings.HasPrefix(normalized, "-") {
		return decimal.Zero, invalidToken(token, "expected a non-negative number")
	}
	if !isPlainDecimal(normalized) {
		return decimal.Zero, invalidToken(token, "not a number")
	}
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, invalidToken(token, "not a number")
	}
	return d, nil
}

// isPlainDecimal accepts digits with at most one fractional part, as in
// "12" or "12.50". Exponents and other decimal forms are not split values.
func isPlainDecimal(text string) bool {
	whole, frac, hasFrac := strings.Cut(text, ".")
	if !allDigits(whole) {
		return false
	}
	return !hasFrac || allDigits(frac)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isIntegralText(text string) bool {
	return !strings.ContainsAny(text, ".,")
}
