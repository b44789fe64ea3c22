package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestParse_Empty(t *testing.T) {
	result := Parse("")
	assert.Equal(t, "", result.Command)
	assert.Nil(t, result.Args)
}

func TestParse_SingleWord(t *testing.T) {
	result := Parse("accept")
	assert.Equal(t, "accept", result.Command)
	assert.Nil(t, result.Args)
	assert.Equal(t, "", result.RawArgs)
}

func TestParse_Lowercase(t *testing.T) {
	result := Parse("DRAW")
	assert.Equal(t, "draw", result.Command)
}

func TestParse_WithArgs(t *testing.T) {
	result := Parse("move 3")
	assert.Equal(t, "move", result.Command)
	assert.Equal(t, []string{"3"}, result.Args)
	assert.Equal(t, "3", result.RawArgs)
}

func TestParse_GameFiller(t *testing.T) {
	result := Parse("start game")
	assert.Equal(t, "start", result.Command)
	assert.Nil(t, result.Args)

	result = Parse("start game with @bob")
	assert.Equal(t, "start", result.Command)
	assert.Equal(t, []string{"with", "@bob"}, result.Args)
	assert.Equal(t, "with @bob", result.RawArgs)

	result = Parse("play game")
	assert.Equal(t, "play", result.Command)
	assert.Nil(t, result.Args)
}

func TestParse_ExtraWhitespace(t *testing.T) {
	result := Parse("  start   game   with   bob  ")
	assert.Equal(t, "start", result.Command)
	assert.Equal(t, []string{"with", "bob"}, result.Args)
}

func TestTargets(t *testing.T) {
	assert.Equal(t, []string{"bob", "carol"}, Targets([]string{"with", "@bob", "carol,"}))
	assert.Equal(t, []string{"bob"}, Targets([]string{"bob"}))
	assert.Empty(t, Targets([]string{"with"}))
	assert.Empty(t, Targets(nil))
}

func TestPropertyParseAlwaysLowercasesCommand(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		word := rapid.StringMatching(`[A-Za-z]{1,20}`).Draw(t, "word")
		result := Parse(word)
		for _, c := range result.Command {
			if c >= 'A' && c <= 'Z' {
				t.Fatalf("command %q contains uppercase char in Parse result %q", word, result.Command)
			}
		}
	})
}

func TestPropertyParseNonEmptyInputHasCommand(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		word := rapid.StringMatching(`[a-z]{1,10}`).Draw(t, "word")
		result := Parse(word)
		if result.Command == "" {
			t.Fatalf("non-empty input %q produced empty command", word)
		}
	})
}
