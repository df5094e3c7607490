package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCenterBlockPadsShortLines(t *testing.T) {
	in := "hi\nworld"
	out := centerBlock(in, 10)

	lines := strings.Split(out, "\n")
	assert.Equal(t, 2, len(lines))
	assert.True(t, strings.HasPrefix(lines[0], " "), "expected first line padded")
	assert.True(t, strings.HasPrefix(lines[1], " "), "expected second line padded")
	assert.Contains(t, lines[0], "hi")
	assert.Contains(t, lines[1], "world")
}

func TestCenterBlockLeavesWideLinesUnchanged(t *testing.T) {
	in := "0123456789"
	assert.Equal(t, in, centerBlock(in, 5))
	assert.Equal(t, in, centerBlock(in, 0))
}

func TestCenterBlockUniformKeepsRelativeIndent(t *testing.T) {
	out := centerBlockUniform("ab\n  cd\n", 10)
	lines := strings.Split(out, "\n")
	assert.Equal(t, "   ab", lines[0])
	assert.Equal(t, "     cd", lines[1])
	assert.Equal(t, "", lines[2])
	assert.Equal(t, "wide", centerBlockUniform("wide", 3))
}
