package domain

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMaxTollFree(t *testing.T) {
	b, err := ParseMaxTollFree("3")
	require.NoError(t, err)
	assert.Equal(t, "0/3", b.String())

	b, err = ParseMaxTollFree(" Unlimited ")
	require.NoError(t, err)
	assert.Equal(t, "0/unlimited", b.String())

	b, err = ParseMaxTollFree("0")
	require.NoError(t, err)
	assert.True(t, b.Exhausted())

	_, err = ParseMaxTollFree("-1")
	assert.ErrorIs(t, err, ErrInvalidRunOptions)

	_, err = ParseMaxTollFree("many")
	assert.ErrorIs(t, err, ErrInvalidRunOptions)
}

func TestPurchaseBudget_ReserveCommitRelease(t *testing.T) {
	b := NewPurchaseBudget(1)

	require.True(t, b.Reserve())
	assert.False(t, b.Reserve(), "a pending reservation counts against the ceiling")

	b.Release()
	require.True(t, b.Reserve())
	b.Commit()

	assert.Equal(t, 1, b.Used())
	assert.True(t, b.Exhausted())
	assert.False(t, b.Reserve())
}

func TestPurchaseBudget_Halt(t *testing.T) {
	b := NewUnlimitedPurchaseBudget()
	require.True(t, b.Reserve())
	b.Commit()

	b.Halt()
	assert.True(t, b.Exhausted())
	assert.False(t, b.Reserve())
	assert.Equal(t, "1/unlimited", b.String())
}

func TestPurchaseBudget_ConcurrentReservationsRespectCeiling(t *testing.T) {
	b := NewPurchaseBudget(5)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if b.Reserve() {
				b.Commit()
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, granted)
	assert.Equal(t, 5, b.Used())
}
