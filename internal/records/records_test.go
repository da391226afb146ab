package records

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSongKey(t *testing.T) {
	table := []struct {
		title    string
		fallback string
	}{
		{title: "", fallback: ""},
		{title: "", fallback: "https://maimaidx-eng.com/maimai-mobile/img/Music/abc.png"},
		{title: "   ", fallback: "raw row"},
		{title: "Link", fallback: ""},
		{title: "ＢＡＤ ＡＰＰＬＥ!!", fallback: ""},
	}

	for _, row := range table {
		key := SongKey(row.title, row.fallback)
		require.NotEmpty(t, key)
		require.Equal(t, key, SongKey(row.title, row.fallback))
	}

	require.Equal(t, SongKey("Link", ""), SongKey("  link ", "something else"))
	require.NotEqual(t, SongKey("", "a.png"), SongKey("", "b.png"))
	require.NotEqual(t, SongKey("", "a.png"), SongKey("a.png", ""))
}

func TestAchievementFromPercent(t *testing.T) {
	table := []struct {
		percent  float64
		expected int64
	}{
		{percent: 99.8012, expected: 998012},
		{percent: 100.5, expected: 1005000},
		{percent: 101.0000, expected: 1010000},
		{percent: 0, expected: 0},
		{percent: 97.0001, expected: 970001},
		{percent: 80.1234, expected: 801234},
	}

	for _, row := range table {
		require.Equal(t, row.expected, AchievementFromPercent(row.percent), row.percent)
	}
}

func TestParseEnums(t *testing.T) {
	d, err := ParseDifficulty("Re:MASTER")
	require.NoError(t, err)
	require.Equal(t, DIFFICULTY_REMASTER, d)
	require.Equal(t, "Re:MASTER", d.String())

	d, err = ParseDifficulty("remaster")
	require.NoError(t, err)
	require.Equal(t, DIFFICULTY_REMASTER, d)

	_, err = ParseDifficulty("ultima")
	require.Error(t, err)

	_, err = DifficultyFromIndex(5)
	require.Error(t, err)

	c, err := ParseChartType("dx")
	require.NoError(t, err)
	require.Equal(t, CHART_DX, c)

	r, ok := RankFromGlyph("sssplus")
	require.True(t, ok)
	require.Equal(t, RANK_SSS_PLUS, r)
	r, ok = RankFromGlyph("sssp")
	require.True(t, ok)
	require.Equal(t, RANK_SSS_PLUS, r)

	parsed, err := ParseRank("SS+")
	require.NoError(t, err)
	require.Equal(t, RANK_SS_PLUS, parsed)
}

func TestMergeSync(t *testing.T) {
	fs := SYNC_FS
	fdx := SYNC_FDX
	require.Nil(t, MergeSync(nil, nil))
	require.Equal(t, &fs, MergeSync(nil, &fs))
	require.Equal(t, &fdx, MergeSync(&fs, &fdx))
	require.Equal(t, &fdx, MergeSync(&fdx, &fs))
}
