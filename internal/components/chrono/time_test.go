package chrono

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	_ "time/tzdata"
)

func TestEvery(t *testing.T) {
	require.Equal(t, "@every 10m0s", Every(10*time.Minute))
	require.Equal(t, "@every 1h30m0s", Every(90*time.Minute))
}

func TestFixedTime(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	start := time.Date(2026, 1, 23, 13, 0, 0, 0, tokyo)

	clock := NewFixedTime(start)
	require.Equal(t, tokyo, clock.Location())
	require.True(t, clock.Now().Equal(start))

	clock.Advance(10 * time.Minute)
	require.True(t, clock.Now().Equal(start.Add(10*time.Minute)))

	clock.Set(start)
	require.True(t, clock.Now().Equal(start))
}

func TestStandardTime(t *testing.T) {
	local, err := NewStandardTime("")
	require.NoError(t, err)
	require.Equal(t, time.Local, local.Location())

	tokyo, err := NewStandardTime("Asia/Tokyo")
	require.NoError(t, err)
	require.Equal(t, "Asia/Tokyo", tokyo.Now().Location().String())

	_, err = NewStandardTime("Not/AZone")
	require.Error(t, err)
}
