package domain_test

import (
	"strings"
	"testing"

	"github.com/aretw0/abacus/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestValidateSessionID(t *testing.T) {
	valid := []string{"default", "a", "user-42", "tab_1.calc", strings.Repeat("x", domain.MaxSessionIDLength)}
	for _, id := range valid {
		assert.NoError(t, domain.ValidateSessionID(id), id)
	}

	invalid := []string{"", "../etc", ".hidden", "a/b", "with space", "index\n", strings.Repeat("x", domain.MaxSessionIDLength+1)}
	for _, id := range invalid {
		assert.ErrorIs(t, domain.ValidateSessionID(id), domain.ErrInvalidSessionID, "%q", id)
	}
}
