package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tealc-lang/sclc/internal/lexer"
)

func TestLinesPeekNextAdvance(t *testing.T) {
	l := lexer.New("#pragma version 8\nint x = 1\n\nexit(1)")

	line, ok := l.Peek()
	assert.True(t, ok)
	assert.Equal(t, "#pragma version 8", line)
	assert.Equal(t, 1, l.LineNo())

	line, ok = l.Next()
	assert.True(t, ok)
	assert.Equal(t, "#pragma version 8", line)
	assert.Equal(t, 2, l.LineNo())

	line, _ = l.Next()
	assert.Equal(t, "int x = 1", line)

	line, _ = l.Next()
	assert.True(t, lexer.IsBlank(lexer.Strip(line)))

	line, ok = l.Next()
	assert.True(t, ok)
	assert.Equal(t, "exit(1)", line)

	_, ok = l.Next()
	assert.False(t, ok)
	assert.True(t, l.Done())
}

func TestCRLFNormalized(t *testing.T) {
	l := lexer.New("a\r\nb\r\n")
	first, _ := l.Next()
	second, _ := l.Next()
	assert.Equal(t, "a", first)
	assert.Equal(t, "b", second)
}

func TestIndentCountsSpacesAndTabs(t *testing.T) {
	assert.Equal(t, 0, lexer.Indent("foo"))
	assert.Equal(t, 4, lexer.Indent("    foo"))
	assert.Equal(t, 4, lexer.Indent("\tfoo"))
}

func TestIsCommentDetectsDoubleSlash(t *testing.T) {
	assert.True(t, lexer.IsComment("// hello"))
	assert.False(t, lexer.IsComment("int x = 1"))
}
