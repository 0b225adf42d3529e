package keymap_test

import (
	"testing"

	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/keymap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		key  string
		want domain.Input
	}{
		{"7", domain.Digit('7')},
		{"+", domain.Op(domain.OpAdd)},
		{"-", domain.Op(domain.OpSubtract)},
		{"*", domain.Op(domain.OpMultiply)},
		{"/", domain.Op(domain.OpDivide)},
		{".", domain.Command(domain.ActionDecimal)},
		{"Enter", domain.Command(domain.ActionEquals)},
		{"=", domain.Command(domain.ActionEquals)},
		{"Backspace", domain.Command(domain.ActionBackspace)},
		{"Escape", domain.Command(domain.ActionClear)},
		{"Delete", domain.Command(domain.ActionClearEntry)},
		{"ENTER", domain.Command(domain.ActionEquals)},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := keymap.Lookup(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := keymap.Lookup("%")
	assert.ErrorIs(t, err, domain.ErrUnknownKey)

	_, err = keymap.Lookup("12")
	assert.ErrorIs(t, err, domain.ErrUnknownKey)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"1", "2", "+", "3", "="}, keymap.Tokenize("12+3="))
	assert.Equal(t, []string{"5", "+", "3", "Enter"}, keymap.Tokenize("5 + 3 Enter"))
	assert.Equal(t, []string{"9", "Backspace", "Escape"}, keymap.Tokenize("  9\tBackspace Escape "))
	assert.Empty(t, keymap.Tokenize("   "))
}

func TestBindings_AllResolve(t *testing.T) {
	for _, b := range keymap.Bindings {
		for _, k := range b.Keys {
			if k == "0-9" {
				continue
			}
			got, err := keymap.Lookup(k)
			require.NoError(t, err, k)
			assert.Equal(t, b.Input, got, k)
		}
	}
}
