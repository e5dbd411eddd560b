package ledger

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_MarkSeenIsIdempotent(t *testing.T) {
	l := New(10)
	assert.False(t, l.HasSeen("m1"))

	l.MarkSeen("m1")
	l.MarkSeen("m1")
	assert.True(t, l.HasSeen("m1"))
	assert.Equal(t, 1, l.Len())
}

func TestLedger_IgnoresEmptyIDs(t *testing.T) {
	l := New(10)
	l.MarkSeen("")
	assert.False(t, l.HasSeen(""))
	assert.False(t, l.Claim(""))
	assert.Equal(t, 0, l.Len())
}

func TestLedger_Claim(t *testing.T) {
	l := New(10)
	assert.True(t, l.Claim("m1"))
	assert.False(t, l.Claim("m1"))
	assert.True(t, l.HasSeen("m1"))

	l.MarkSeen("m2")
	assert.False(t, l.Claim("m2"))
}

func TestLedger_ReleaseAllowsClaimAgain(t *testing.T) {
	l := New(10)
	require.True(t, l.Claim("m1"))
	l.Release("m1")
	assert.False(t, l.HasSeen("m1"))
	assert.True(t, l.Claim("m1"))
	l.Release("")
}

func TestLedger_EvictsOldest(t *testing.T) {
	l := New(3)
	for i := 0; i < 4; i++ {
		l.MarkSeen(fmt.Sprintf("m%d", i))
	}
	assert.False(t, l.HasSeen("m0"))
	assert.True(t, l.HasSeen("m3"))
	assert.Equal(t, 3, l.Len())
}

func TestLedger_DefaultCapacity(t *testing.T) {
	l := New(0)
	for i := 0; i < DefaultCapacity; i++ {
		l.MarkSeen(fmt.Sprintf("m%d", i))
	}
	assert.True(t, l.HasSeen("m0"))
}

func TestLedger_ConcurrentClaimWinsOnce(t *testing.T) {
	l := New(100)
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Claim("m1") {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}
