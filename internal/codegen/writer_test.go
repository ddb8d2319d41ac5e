package codegen_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tealc-lang/sclc/internal/codegen"
)

func TestWriterIndentsNestedLines(t *testing.T) {
	w := codegen.New()
	w.Line("#pragma version 8")
	w.Label("main:")
	w.Indent()
	w.Line("txn Sender")
	w.Indent()
	w.Line("pop")
	w.Dedent()
	w.Dedent()
	w.Line("return")

	out := w.String()
	require.True(t, strings.HasSuffix(out, "\n"))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Equal(t, []string{
		"#pragma version 8",
		"main:",
		"  txn Sender",
		"    pop",
		"return",
	}, lines)
}

func TestWriterDedentNeverGoesNegative(t *testing.T) {
	w := codegen.New()
	w.Dedent()
	w.Line("ok")
	require.Equal(t, []string{"ok"}, w.Lines())
}

func TestWriterResetClearsState(t *testing.T) {
	w := codegen.New()
	w.Indent()
	w.Line("a")
	w.Reset()
	w.Line("b")
	require.Equal(t, []string{"b"}, w.Lines())
}
