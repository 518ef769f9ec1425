package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupe_FirstSeenWins(t *testing.T) {
	in := []Source{
		{Key: "a", Title: "First A"},
		{Key: "b", Title: "Only B"},
		{Key: "a", Title: "Second A"},
		{Key: "", Title: "Keyless"},
	}

	out := Dedupe(in)
	assert.Len(t, out, 2)
	assert.Equal(t, "First A", out[0].Title)
	assert.Equal(t, "Only B", out[1].Title)
}

func TestRankByTitle(t *testing.T) {
	in := []Source{
		{Key: "1", Title: "zebra"},
		{Key: "2", Title: "Alpha"},
		{Key: "3", Title: "alpha"},
		{Key: "4", Title: "Mitte"},
	}

	out := RankByTitle(in)

	titles := make([]string, len(out))
	for i, s := range out {
		titles[i] = s.Title
	}
	// Locale collation orders case-insensitively rather than by byte value.
	assert.Equal(t, []string{"alpha", "Alpha", "Mitte", "zebra"}, titles)

	// Input order is untouched.
	assert.Equal(t, "zebra", in[0].Title)
}

func TestRankByTitle_StableForEqualTitles(t *testing.T) {
	in := []Source{
		{Key: "x", Title: "Same"},
		{Key: "y", Title: "Same"},
		{Key: "z", Title: "Same"},
	}
	out := RankByTitle(in)
	assert.Equal(t, []string{"x", "y", "z"}, []string{out[0].Key, out[1].Key, out[2].Key})
}

func TestSourceKey(t *testing.T) {
	assert.Equal(t, "id-1", SourceKey("id-1", "https://x/a.json"))
	assert.Equal(t, "https://x/a.json", SourceKey("", "https://x/a.json"))
	assert.Equal(t, "", SourceKey("", ""))
}

func TestTempJSONFilter(t *testing.T) {
	tests := []struct {
		url      string
		expected bool
	}{
		{"https://pod.example/files/temp-1.json", true},
		{"https://pod.example/files/TEMP-1.JSON", true},
		{"https://pod.example/files/temp-1.json#frag", true},
		{"https://pod.example/files/noise.json", false},
		{"https://pod.example/files/temp-1.csv", false},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, TempJSONFilter(test.url), test.url)
	}
}
