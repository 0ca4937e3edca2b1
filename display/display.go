// ABOUTME: Presentation helpers shared by the CLI, TUI and MCP surfaces
// ABOUTME: Formats initials, currency amounts and due date badges
package display

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Due date badge colors.
const (
	ColorError   = "error"
	ColorWarning = "warning"
	ColorDefault = "default"
)

// DueSoon is how close a due date must be to count as a warning.
const DueSoon = 3 * 24 * time.Hour

// Initials returns up to two uppercase letters taken from the first letter
// of each word. Characters that are not letters are ignored.
func Initials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			if unicode.IsLetter(r) {
				b.WriteRune(unicode.ToUpper(r))
				break
			}
		}
		if len([]rune(b.String())) == 2 {
			break
		}
	}
	return b.String()
}

// Currency formats amount in the given ISO currency with en-US grouping.
func Currency(amount decimal.Decimal, code string) (string, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return "", fmt.Errorf("unknown currency %q: %w", code, err)
	}
	value, _ := amount.Float64()
	p := message.NewPrinter(language.AmericanEnglish)
	return p.Sprint(currency.Symbol(unit.Amount(value))), nil
}

// USD formats an amount in US dollars.
func USD(amount decimal.Decimal) string {
	s, err := Currency(amount, "USD")
	if err != nil {
		return amount.StringFixed(2)
	}
	return s
}

// DateColor classifies a due date relative to now.
func DateColor(due, now time.Time) string {
	switch {
	case due.Before(now):
		return ColorError
	case due.Before(now.Add(DueSoon)):
		return ColorWarning
	default:
		return ColorDefault
	}
}

// DueLabel is the short form shown on task cards.
func DueLabel(due time.Time) string {
	return due.Format("Jan 02")
}
