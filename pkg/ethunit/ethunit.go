// Package ethunit converts between the contract's native integer encodings
// (wei amounts, fixed-width name buffers, epoch-second deadlines) and
// human-facing decimal/string/time forms.
package ethunit

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
)

// EtherDecimals is the number of decimal places between wei and ether.
const EtherDecimals = 18

var weiPerEther = new(big.Int).SetUint64(params.Ether)

// Sentinel errors for codec failures
var (
	ErrBadName       = errors.New("malformed campaign name encoding")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrBadDeadline   = errors.New("malformed deadline")
	ErrMissingValue  = errors.New("value missing")
)

// DecodeName recovers a campaign name from its stored representation.
// A value that is already textual passes through unchanged; a 32-byte
// zero-padded buffer (older contract revisions) has its padding stripped.
// Anything else fails with ErrBadName.
func DecodeName(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case [32]byte:
		return trimNamePadding(v[:])
	case []byte:
		if len(v) != 32 {
			return "", fmt.Errorf("%w: buffer is %d bytes, want 32", ErrBadName, len(v))
		}
		return trimNamePadding(v)
	default:
		return "", fmt.Errorf("%w: unsupported representation %T", ErrBadName, raw)
	}
}

func trimNamePadding(buf []byte) (string, error) {
	end := len(buf)
	for end > 0 && buf[end-1] == 0 {
		end--
	}
	text := buf[:end]
	if bytes.IndexByte(text, 0) >= 0 {
		return "", fmt.Errorf("%w: interior NUL byte", ErrBadName)
	}
	if !utf8.Valid(text) {
		return "", fmt.Errorf("%w: not valid UTF-8", ErrBadName)
	}
	return string(text), nil
}

// DisplayAmount converts a wei amount to a decimal ether string, e.g.
// 2500000000000000000 -> "2.5". Zero renders as "0.0".
func DisplayAmount(wei *big.Int) (string, error) {
	if wei == nil {
		return "", ErrMissingValue
	}
	if wei.Sign() < 0 {
		return "", fmt.Errorf("%w: negative wei value", ErrInvalidAmount)
	}
	whole, frac := new(big.Int).QuoRem(wei, weiPerEther, new(big.Int))
	fracStr := frac.String()
	fracStr = strings.Repeat("0", EtherDecimals-len(fracStr)) + fracStr
	fracDigits := strings.TrimRight(fracStr, "0")
	if fracDigits == "" {
		fracDigits = "0"
	}
	return whole.String() + "." + fracDigits, nil
}

// DisplayAmountOr converts like DisplayAmount but never fails: a missing or
// malformed value yields the fallback together with the reason, so callers
// render partially-loaded chain data instead of crashing on it.
func DisplayAmountOr(wei *big.Int, fallback string) (string, error) {
	s, err := DisplayAmount(wei)
	if err != nil {
		return fallback, err
	}
	return s, nil
}

// ParseAmount parses a decimal ether string into wei. The amount must be a
// positive finite decimal with at most 18 fractional digits.
func ParseAmount(display string) (*big.Int, error) {
	s := strings.TrimSpace(display)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	whole, frac, hasDot := strings.Cut(s, ".")
	if hasDot && strings.Contains(frac, ".") {
		return nil, fmt.Errorf("%w: multiple decimal points", ErrInvalidAmount)
	}
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("%w: no digits", ErrInvalidAmount)
	}
	if !digitsOnly(whole) || !digitsOnly(frac) {
		return nil, fmt.Errorf("%w: not a decimal number", ErrInvalidAmount)
	}
	if len(frac) > EtherDecimals {
		return nil, fmt.Errorf("%w: more than %d fractional digits", ErrInvalidAmount, EtherDecimals)
	}
	padded := frac + strings.Repeat("0", EtherDecimals-len(frac))
	wei, ok := new(big.Int).SetString(whole+padded, 10)
	if !ok {
		return nil, fmt.Errorf("%w: not a decimal number", ErrInvalidAmount)
	}
	if wei.Sign() <= 0 {
		return nil, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	return wei, nil
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// DeadlineTime converts a stored epoch-seconds deadline to a time.Time.
// Display in the viewer's timezone is the caller's concern.
func DeadlineTime(secs *big.Int) (time.Time, error) {
	if secs == nil {
		return time.Time{}, ErrMissingValue
	}
	if !secs.IsInt64() || secs.Sign() < 0 {
		return time.Time{}, fmt.Errorf("%w: %s is not a valid epoch", ErrBadDeadline, secs)
	}
	return time.Unix(secs.Int64(), 0), nil
}

// ShortAddress renders an address in the abbreviated 0x1234...abcd form.
func ShortAddress(a common.Address) string {
	hex := a.Hex()
	return hex[:6] + "..." + hex[len(hex)-4:]
}
