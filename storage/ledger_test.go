package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedger(t *testing.T) {
	ledger := NewLedger()

	assert.False(t, ledger.Contains("aaaaaaaaaaa"))
	assert.Equal(t, 0, ledger.Len())

	ledger.Mark("aaaaaaaaaaa")
	ledger.Mark("bbbbbbbbbbb")
	ledger.Mark("aaaaaaaaaaa")

	assert.True(t, ledger.Contains("aaaaaaaaaaa"))
	assert.True(t, ledger.Contains("bbbbbbbbbbb"))
	assert.False(t, ledger.Contains("ccccccccccc"))
	assert.Equal(t, 2, ledger.Len())
}
