package rpcservice_test

import (
	"context"
	"testing"

	"github.com/jhump/protoreflect/dynamic"
	"github.com/stretchr/testify/require"

	"github.com/tealc-lang/sclc/internal/cache"
	"github.com/tealc-lang/sclc/internal/compiler"
	"github.com/tealc-lang/sclc/internal/rpcservice"
)

// invoke reaches past grpc.Server and calls the registered unary
// handler directly, decoding/encoding through dynamic.Message exactly
// as a real RPC transport would, without opening a socket.
func invoke(t *testing.T, srv *rpcservice.Server, source, configYAML string) *dynamic.Message {
	t.Helper()
	resp, err := rpcservice.CompileForTest(context.Background(), srv, source, configYAML)
	require.NoError(t, err)
	return resp
}

func TestCompileHandlerProducesAssembly(t *testing.T) {
	srv, err := rpcservice.NewServer(nil)
	require.NoError(t, err)

	resp := invoke(t, srv, "#pragma version 8\nint x = 1\nexit(x)\n", "")
	assembly, err := resp.TryGetFieldByName("assembly")
	require.NoError(t, err)
	require.Contains(t, assembly.(string), "#pragma version 8")

	diags, err := resp.TryGetFieldByName("diagnostics")
	require.NoError(t, err)
	require.Empty(t, diags)
}

func TestCompileHandlerReturnsDiagnosticsOnFailure(t *testing.T) {
	srv, err := rpcservice.NewServer(nil)
	require.NoError(t, err)

	resp := invoke(t, srv, "#pragma version 8\nint x = undeclared_name\nexit(x)\n", "")
	assembly, _ := resp.TryGetFieldByName("assembly")
	require.Empty(t, assembly)

	diags, err := resp.TryGetFieldByName("diagnostics")
	require.NoError(t, err)
	require.NotEmpty(t, diags)
}

func TestCompileHandlerHonorsInlineConfig(t *testing.T) {
	srv, err := rpcservice.NewServer(nil)
	require.NoError(t, err)

	resp := invoke(t, srv, "int x = 1\nexit(x)\n", "target_version: 10\n")
	assembly, _ := resp.TryGetFieldByName("assembly")
	require.Contains(t, assembly.(string), "#pragma version 10")
}

func TestCompileHandlerMatchesDirectLibraryCall(t *testing.T) {
	srv, err := rpcservice.NewServer(nil)
	require.NoError(t, err)

	source := "#pragma version 8\nint x = 1\nexit(x)\n"
	resp := invoke(t, srv, source, "")
	rpcAssembly, _ := resp.TryGetFieldByName("assembly")

	direct := compiler.CompileDefault(source)
	require.True(t, direct.OK())
	require.Equal(t, direct.Output, rpcAssembly.(string))
}

func TestCompileHandlerUsesCacheWhenProvided(t *testing.T) {
	store, err := cache.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	srv, err := rpcservice.NewServer(store)
	require.NoError(t, err)

	source := "#pragma version 8\nint x = 1\nexit(x)\n"
	first := invoke(t, srv, source, "")
	second := invoke(t, srv, source, "")

	firstOut, _ := first.TryGetFieldByName("assembly")
	secondOut, _ := second.TryGetFieldByName("assembly")
	require.Equal(t, firstOut, secondOut)
}
