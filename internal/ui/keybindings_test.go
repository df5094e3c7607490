package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tidycode/magetui/internal/input"
)

func TestIsQuit(t *testing.T) {
	assert.True(t, isQuit(input.KeyOf(input.RawCtrlC)))
	assert.False(t, isQuit(input.Rune('q')))
}

func TestIsEnter(t *testing.T) {
	assert.True(t, isEnter(input.KeyOf("\r")))
	assert.True(t, isEnter(input.KeyOf("\n")))
	assert.False(t, isEnter(input.Rune(' ')))
}

func TestIsBack(t *testing.T) {
	assert.True(t, isBack(input.KeyOf(input.RawEscape)))
	assert.True(t, isBack(input.Rune('q')))
	assert.True(t, isBack(input.Rune('Q')))
	assert.False(t, isBack(input.KeyOf(input.RawEnter)))
}

func TestArrowsAndPages(t *testing.T) {
	assert.True(t, isUp(input.KeyOf(input.RawUp)))
	assert.False(t, isUp(input.KeyOf(input.RawDown)))
	assert.True(t, isDown(input.KeyOf(input.RawDown)))
	assert.False(t, isDown(input.Rune('j')))
	assert.True(t, isPageUp(input.KeyOf(input.RawPageUp)))
	assert.True(t, isPageDown(input.KeyOf(input.RawPageDown)))
}

func TestConfirmAndCancel(t *testing.T) {
	for _, r := range []rune{'y', 'Y'} {
		assert.True(t, isConfirm(input.Rune(r)))
		assert.False(t, isCancel(input.Rune(r)))
	}
	assert.True(t, isCancel(input.Rune('n')))
	assert.True(t, isCancel(input.Rune('N')))
	assert.True(t, isCancel(input.KeyOf(input.RawEscape)))
	assert.False(t, isCancel(input.Rune('q')))
}

func TestMatchesKeyBinding(t *testing.T) {
	assert.True(t, matches(input.KeyOf(input.RawPageDown), nav.Page))
	assert.True(t, matches(input.Rune('q'), nav.Back))
	assert.False(t, matches(input.Rune('x'), nav.Move))
}
