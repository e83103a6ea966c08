package ledger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func openTestLedger(t *testing.T) (*Ledger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	l, err := Open(path)
	assert.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l, path
}

func TestLedgerMarkAndCheck(t *testing.T) {
	l, _ := openTestLedger(t)

	assert.False(t, l.IsProcessed(NamespaceMessage, "m1"))
	assert.NoError(t, l.MarkProcessed(NamespaceMessage, "m1"))
	assert.True(t, l.IsProcessed(NamespaceMessage, "m1"))

	t.Run("namespaces are independent", func(t *testing.T) {
		assert.False(t, l.IsProcessed(NamespaceEvent, "m1"))
		assert.NoError(t, l.MarkProcessed(NamespaceEvent, "m1"))
		assert.True(t, l.IsProcessed(NamespaceEvent, "m1"))
	})

	t.Run("remarking is a no-op", func(t *testing.T) {
		assert.NoError(t, l.MarkProcessed(NamespaceMessage, "m1"))
		assert.True(t, l.IsProcessed(NamespaceMessage, "m1"))
	})

	t.Run("empty key never recorded", func(t *testing.T) {
		assert.NoError(t, l.MarkProcessed(NamespaceMessage, ""))
		assert.False(t, l.IsProcessed(NamespaceMessage, ""))
	})
}

func TestLedgerSurvivesRestart(t *testing.T) {
	l, path := openTestLedger(t)
	assert.NoError(t, l.MarkProcessed(NamespaceMessage, "m1"))
	assert.NoError(t, l.MarkProcessed(NamespaceEvent, "fp1"))
	assert.NoError(t, l.Close())

	reopened, err := Open(path)
	assert.NoError(t, err)
	defer reopened.Close()
	assert.True(t, reopened.IsProcessed(NamespaceMessage, "m1"))
	assert.True(t, reopened.IsProcessed(NamespaceEvent, "fp1"))
	assert.False(t, reopened.IsProcessed(NamespaceEvent, "fp2"))
}

func TestLedgerCounts(t *testing.T) {
	l, _ := openTestLedger(t)
	assert.NoError(t, l.MarkProcessed(NamespaceMessage, "m1"))
	assert.NoError(t, l.MarkProcessed(NamespaceMessage, "m2"))
	assert.NoError(t, l.MarkProcessed(NamespaceInvalid, "m3"))

	counts := l.Counts()
	assert.Equal(t, 2, counts[NamespaceMessage])
	assert.Equal(t, 1, counts[NamespaceInvalid])
	assert.Equal(t, 0, counts[NamespaceEvent])
}

func TestLedgerOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}
