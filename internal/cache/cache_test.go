package cache_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tealc-lang/sclc/internal/cache"
	"github.com/tealc-lang/sclc/internal/compiler"
	"github.com/tealc-lang/sclc/internal/config"
)

func openStore(t *testing.T) *cache.Store {
	t.Helper()
	s, err := cache.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestKeyIsDeterministicAndConfigSensitive(t *testing.T) {
	cfg := config.DefaultBuildConfig()
	k1 := cache.Key("#pragma version 8\nexit(1)\n", cfg)
	k2 := cache.Key("#pragma version 8\nexit(1)\n", cfg)
	require.Equal(t, k1, k2)

	cfg2 := cfg
	cfg2.TargetVersion = 9
	k3 := cache.Key("#pragma version 8\nexit(1)\n", cfg2)
	require.NotEqual(t, k1, k3)
}

func TestStoreAndLookupRoundTrip(t *testing.T) {
	s := openStore(t)
	cfg := config.DefaultBuildConfig()
	result := compiler.Result{Output: "#pragma version 8\nreturn\n"}

	key := cache.Key("source", cfg)
	require.NoError(t, s.Store(key, result))

	got, ok, err := s.Lookup(key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, result.Output, got.Output)
}

func TestLookupMissReturnsFalse(t *testing.T) {
	s := openStore(t)
	_, ok, err := s.Lookup("nonexistent")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCompileCachedReusesResultOnSecondCall(t *testing.T) {
	s := openStore(t)
	c := compiler.New()
	cfg := config.DefaultBuildConfig()
	source := "#pragma version 8\nint x = 1\nexit(x)\n"

	first, err := s.CompileCached(c, source, cfg)
	require.NoError(t, err)
	require.True(t, first.OK())

	second, err := s.CompileCached(c, source, cfg)
	require.NoError(t, err)
	require.Equal(t, first.Output, second.Output)
}

func TestCompileCachedPersistsFailures(t *testing.T) {
	s := openStore(t)
	c := compiler.New()
	cfg := config.DefaultBuildConfig()
	source := "#pragma version 8\nint x = undeclared\nexit(x)\n"

	first, err := s.CompileCached(c, source, cfg)
	require.NoError(t, err)
	require.False(t, first.OK())

	second, ok, err := s.Lookup(cache.Key(source, cfg))
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, second.OK())
}
