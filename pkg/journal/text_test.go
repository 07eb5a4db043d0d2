package journal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeQuery(t *testing.T) {
	cases := map[string]string{
		"sunrise":                "sunrise",
		`  "sunrise"   (walk) `:  "sunrise walk",
		"a*b:c^d~e":              "a b c d e",
		"***":                    "",
		"[tag]{x}'quoted'":       "tag x quoted",
		"multi\t\nline\r\nquery": "multi line query",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeQuery(in), "input %q", in)
	}
}

func TestBuildSnippet(t *testing.T) {
	content := strings.Repeat("a", 40) + " needle " + strings.Repeat("b", 40)

	snippet := BuildSnippet(content, "NEEDLE")
	assert.True(t, strings.HasPrefix(snippet, "..."))
	assert.True(t, strings.HasSuffix(snippet, "..."))
	assert.Contains(t, snippet, "needle")
	assert.Len(t, []rune(snippet), 3+30+len("needle")+30+3)

	assert.Equal(t, "needle in a haystack", BuildSnippet("needle in a haystack", "needle"))

	long := strings.Repeat("x", 150)
	assert.Equal(t, strings.Repeat("x", 100)+"...", BuildSnippet(long, "absent"))
	assert.Equal(t, "short", BuildSnippet("short", "absent"))
}

func TestBuildSnippet_MultibyteContent(t *testing.T) {
	content := strings.Repeat("é", 50) + "Ünïcode" + strings.Repeat("ø", 50)

	snippet := BuildSnippet(content, "ünïcode")
	assert.Equal(t, "..."+strings.Repeat("é", 30)+"Ünïcode"+strings.Repeat("ø", 30)+"...", snippet)
}

func TestDeriveTitle(t *testing.T) {
	assert.Equal(t, "Untitled", DeriveTitle(""))
	assert.Equal(t, "Untitled", DeriveTitle("  \n\t "))
	assert.Equal(t, "Had coffee with Sam", DeriveTitle("Had coffee with Sam"))
	assert.Equal(t, "First line", DeriveTitle("\n  First line  \nsecond line"))

	sentence := "A short opening sentence. Then a much longer tail that keeps on going and going"
	assert.Equal(t, "A short opening sentence.", DeriveTitle(sentence))

	words := "This line has no sentence break and it keeps going for a very long while"
	title := DeriveTitle(words)
	require.True(t, strings.HasSuffix(title, "..."))
	assert.Equal(t, "This line has no sentence break and it keeps...", title)
	assert.LessOrEqual(t, len([]rune(strings.TrimSuffix(title, "..."))), 50)

	unbroken := strings.Repeat("z", 80)
	assert.Equal(t, strings.Repeat("z", 50)+"...", DeriveTitle(unbroken))
}

func TestDominantMood(t *testing.T) {
	assert.Equal(t, Mood(""), DominantMood(nil))
	assert.Equal(t, MoodGood, DominantMood([]Mood{MoodGood, MoodGood, MoodBad}))
	assert.Equal(t, MoodBad, DominantMood([]Mood{MoodBad, MoodGood}))
	assert.Equal(t, MoodOkay, DominantMood([]Mood{MoodOkay, MoodGreat, MoodGreat, MoodOkay}))
	assert.Equal(t, MoodTerrible, DominantMood([]Mood{MoodGood, MoodTerrible, MoodTerrible}))
}

func TestNormalizeTagName(t *testing.T) {
	assert.Equal(t, "focus", NormalizeTagName("  FoCuS "))
	assert.Equal(t, "ärger", NormalizeTagName("ÄRGER"))
}

func TestMoods(t *testing.T) {
	catalogue := Moods()
	require.Len(t, catalogue, 5)
	assert.Equal(t, MoodGreat, catalogue[0].Mood)
	assert.Equal(t, MoodTerrible, catalogue[4].Mood)

	catalogue[0].Label = "changed"
	assert.Equal(t, "Great", Moods()[0].Label)

	m, err := ParseMood("okay")
	require.NoError(t, err)
	assert.Equal(t, MoodOkay, m)

	m, err = ParseMood("")
	require.NoError(t, err)
	assert.Empty(t, m)

	_, err = ParseMood("Okay")
	assert.ErrorIs(t, err, ErrInvalidMood)
}
