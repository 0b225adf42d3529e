// Package keymap maps physical key names to accumulator inputs.
package keymap

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/aretw0/abacus/pkg/domain"
)

// Binding documents one group of keys bound to the same input.
type Binding struct {
	Keys        []string
	Input       domain.Input
	Description string
}

// Bindings lists every key binding in keypad order. Digits are collapsed into one entry.
var Bindings = []Binding{
	{Keys: []string{"0-9"}, Input: domain.Input{Action: domain.ActionDigit}, Description: "Type a digit"},
	{Keys: []string{"."}, Input: domain.Command(domain.ActionDecimal), Description: "Decimal point"},
	{Keys: []string{"+"}, Input: domain.Op(domain.OpAdd), Description: "Add"},
	{Keys: []string{"-"}, Input: domain.Op(domain.OpSubtract), Description: "Subtract"},
	{Keys: []string{"*", "x"}, Input: domain.Op(domain.OpMultiply), Description: "Multiply"},
	{Keys: []string{"/"}, Input: domain.Op(domain.OpDivide), Description: "Divide"},
	{Keys: []string{"Enter", "="}, Input: domain.Command(domain.ActionEquals), Description: "Evaluate"},
	{Keys: []string{"Backspace"}, Input: domain.Command(domain.ActionBackspace), Description: "Delete last character"},
	{Keys: []string{"Escape"}, Input: domain.Command(domain.ActionClear), Description: "Clear everything"},
	{Keys: []string{"Delete"}, Input: domain.Command(domain.ActionClearEntry), Description: "Clear current entry"},
	{Keys: []string{"F9", "±"}, Input: domain.Command(domain.ActionToggleSign), Description: "Toggle sign"},
}

var named = map[string]domain.Input{
	"+":         domain.Op(domain.OpAdd),
	"-":         domain.Op(domain.OpSubtract),
	"*":         domain.Op(domain.OpMultiply),
	"x":         domain.Op(domain.OpMultiply),
	"×":         domain.Op(domain.OpMultiply),
	"/":         domain.Op(domain.OpDivide),
	"÷":         domain.Op(domain.OpDivide),
	"−":         domain.Op(domain.OpSubtract),
	".":         domain.Command(domain.ActionDecimal),
	"=":         domain.Command(domain.ActionEquals),
	"enter":     domain.Command(domain.ActionEquals),
	"backspace": domain.Command(domain.ActionBackspace),
	"escape":    domain.Command(domain.ActionClear),
	"esc":       domain.Command(domain.ActionClear),
	"delete":    domain.Command(domain.ActionClearEntry),
	"del":       domain.Command(domain.ActionClearEntry),
	"f9":        domain.Command(domain.ActionToggleSign),
	"±":         domain.Command(domain.ActionToggleSign),
}

// Lookup returns the input bound to a key name. Names are case-insensitive.
func Lookup(key string) (domain.Input, error) {
	if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
		return domain.Digit(rune(key[0])), nil
	}
	if in, ok := named[strings.ToLower(key)]; ok {
		return in, nil
	}
	return domain.Input{}, fmt.Errorf("%w: %q", domain.ErrUnknownKey, key)
}

// Tokenize splits a typed line into key names.
// Whitespace separates tokens; a token that is not a named key is split into single
// characters, so "12+3=" yields 1, 2, +, 3, =.
func Tokenize(line string) []string {
	var keys []string
	for _, field := range strings.FieldsFunc(line, unicode.IsSpace) {
		if _, ok := named[strings.ToLower(field)]; ok {
			keys = append(keys, field)
			continue
		}
		for _, r := range field {
			keys = append(keys, string(r))
		}
	}
	return keys
}
