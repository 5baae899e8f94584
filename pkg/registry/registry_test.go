package registry

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenocode/zenocode/pkg/providers/echo"
	"github.com/zenocode/zenocode/pkg/stream"
	"github.com/zenocode/zenocode/pkg/types"
)

type fixedProvider struct {
	reply string
}

func (p *fixedProvider) Complete(context.Context, string) (string, error) { return p.reply, nil }

func (p *fixedProvider) Stream(ctx context.Context, _ string) (types.ChunkSource, error) {
	return stream.Words(ctx, p.reply), nil
}

// needsKey mirrors a backend that refuses to construct without a credential
func needsKey(name string) types.Factory {
	return types.NewFactory(name, func(_ context.Context, cfg types.Config) (types.Provider, error) {
		if !cfg.HasCredential() {
			return nil, types.NewConfigError(name, "api key not configured")
		}
		return &fixedProvider{reply: name}, nil
	})
}

func fixed(name, reply string) types.Factory {
	return types.NewFactory(name, func(context.Context, types.Config) (types.Provider, error) {
		return &fixedProvider{reply: reply}, nil
	})
}

func TestRegistry_ResolveEcho(t *testing.T) {
	r := New()
	r.Register(echo.NewFactory())

	ctx := context.Background()
	p, err := r.Resolve(ctx, "echo", types.Config{})
	require.NoError(t, err)

	out, err := p.Complete(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestRegistry_UsableAfterCancelledStream(t *testing.T) {
	r := New()
	r.Register(echo.NewFactory())

	p, err := r.Resolve(context.Background(), "echo", types.Config{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	src, err := p.Stream(ctx, "a b c")
	require.NoError(t, err)
	cancel()
	<-src.(*stream.Source).Done()
	_, err = src.Next(context.Background())
	assert.Error(t, err)

	fresh := context.Background()
	next, err := p.Stream(fresh, "d e")
	require.NoError(t, err)
	parts, err := stream.Collect(fresh, next)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "e"}, parts)

	again, err := r.Resolve(fresh, "echo", types.Config{})
	require.NoError(t, err)
	out, err := again.Complete(fresh, "still here")
	require.NoError(t, err)
	assert.Equal(t, "still here", out)
}

func TestRegistry_ResolveMissingOnEmptyRegistry(t *testing.T) {
	r := New()

	p, err := r.Resolve(context.Background(), "missing", types.Config{})
	assert.Nil(t, p)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrProviderNotFound)

	var pe *types.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Empty(t, pe.Available)
	assert.Equal(t, "resolve", pe.Operation)
	assert.Contains(t, err.Error(), `"missing"`)
}

func TestRegistry_NotFoundListsAvailable(t *testing.T) {
	r := New()
	r.Register(fixed("b", "x"))
	r.Register(fixed("a", "x"))

	_, err := r.Resolve(context.Background(), "c", types.Config{})
	var pe *types.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, []string{"a", "b"}, pe.Available)
}

func TestRegistry_ConfigErrorFromFactory(t *testing.T) {
	r := New()
	r.Register(needsKey("needs-key"))
	ctx := context.Background()

	_, err := r.Resolve(ctx, "needs-key", types.Config{})
	assert.ErrorIs(t, err, types.ErrConfig)
	assert.NotErrorIs(t, err, types.ErrProviderNotFound)

	p, err := r.Resolve(ctx, "needs-key", types.Config{APIKey: "k"})
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestRegistry_DegenerateStreamSplitsWords(t *testing.T) {
	r := New()
	r.Register(fixed("words", "a b c"))
	ctx := context.Background()

	p, err := r.Resolve(ctx, "words", types.Config{})
	require.NoError(t, err)

	src, err := p.Stream(ctx, "ignored")
	require.NoError(t, err)
	parts, err := stream.Collect(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, parts)
}

func TestRegistry_LastWriterWins(t *testing.T) {
	r := New()
	r.Register(fixed("dup", "first"))
	r.Register(fixed("dup", "second"))
	ctx := context.Background()

	assert.Equal(t, 1, r.Len())

	p, err := r.Resolve(ctx, "dup", types.Config{})
	require.NoError(t, err)
	out, err := p.Complete(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "second", out)
}

func TestRegistry_NotFoundIndependentOfOthers(t *testing.T) {
	ctx := context.Background()
	for _, names := range [][]string{nil, {"a"}, {"a", "b", "c"}} {
		r := New()
		for _, n := range names {
			r.Register(fixed(n, n))
		}
		_, err := r.Resolve(ctx, "zzz", types.Config{})
		assert.ErrorIs(t, err, types.ErrProviderNotFound, "registered %v", names)
	}
}

func TestRegistry_AvailableMatchesResolvable(t *testing.T) {
	r := New()
	r.Register(fixed("a", "x"))
	r.Register(needsKey("b"))
	r.Register(echo.NewFactory())
	ctx := context.Background()

	available := r.Available()
	assert.Equal(t, []string{"a", "b", "echo"}, available)

	for _, name := range []string{"a", "b", "echo", "c", "openai", ""} {
		_, err := r.Resolve(ctx, name, types.Config{})
		notFound := types.CodeOf(err) == types.ErrCodeProviderNotFound
		assert.Equal(t, !contains(available, name), notFound, "name %q", name)
	}
}

func TestRegistry_AvailableIsSnapshot(t *testing.T) {
	r := New()
	r.Register(fixed("a", "x"))

	names := r.Available()
	names[0] = "mutated"
	assert.Equal(t, []string{"a"}, r.Available())
}

func TestRegistry_Unregister(t *testing.T) {
	r := New()
	r.Register(fixed("a", "x"))

	assert.True(t, r.Unregister("a"))
	assert.False(t, r.Unregister("a"))

	_, err := r.Resolve(context.Background(), "a", types.Config{})
	assert.ErrorIs(t, err, types.ErrProviderNotFound)
}

func TestRegistry_RegisterPanicsOnInvalidFactory(t *testing.T) {
	r := New()
	assert.Panics(t, func() { r.Register(nil) })
	assert.Panics(t, func() { r.Register(fixed("", "x")) })
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_NilProviderFromFactory(t *testing.T) {
	r := New()
	r.Register(types.NewFactory("broken", func(context.Context, types.Config) (types.Provider, error) {
		return nil, nil
	}))

	p, err := r.Resolve(context.Background(), "broken", types.Config{})
	assert.Nil(t, p)
	assert.ErrorIs(t, err, types.ErrBackend)
}

func TestRegistry_ResolveConfig(t *testing.T) {
	r := New()
	r.Register(echo.NewFactory())
	ctx := context.Background()

	p, err := r.ResolveConfig(ctx, types.Config{Provider: "echo"})
	require.NoError(t, err)
	assert.NotNil(t, p)

	_, err = r.ResolveConfig(ctx, types.Config{})
	assert.ErrorIs(t, err, types.ErrConfig)

	_, err = r.ResolveConfig(ctx, types.Config{Provider: "nope"})
	assert.ErrorIs(t, err, types.ErrProviderNotFound)
}

func TestRegistry_ConcurrentRegisterAndResolve(t *testing.T) {
	r := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("p%d", i)
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Register(fixed(name, name))
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, err := r.Resolve(ctx, name, types.Config{})
				if err != nil {
					assert.ErrorIs(t, err, types.ErrProviderNotFound)
				}
				_ = r.Available()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, r.Len())
	for i := 0; i < 20; i++ {
		_, err := r.Resolve(ctx, fmt.Sprintf("p%d", i), types.Config{})
		assert.NoError(t, err)
	}
}

func TestRegistry_SlowCreateDoesNotHoldLock(t *testing.T) {
	r := New()
	entered := make(chan struct{})
	release := make(chan struct{})
	r.Register(types.NewFactory("slow", func(context.Context, types.Config) (types.Provider, error) {
		close(entered)
		<-release
		return &fixedProvider{reply: "slow"}, nil
	}))

	resolved := make(chan error, 1)
	go func() {
		_, err := r.Resolve(context.Background(), "slow", types.Config{})
		resolved <- err
	}()
	<-entered

	done := make(chan struct{})
	go func() {
		r.Register(fixed("fast", "x"))
		_ = r.Available()
		_, _ = r.Resolve(context.Background(), "fast", types.Config{})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("registry blocked while a factory was constructing")
	}

	close(release)
	assert.NoError(t, <-resolved)
}

func TestRegisterBuiltins(t *testing.T) {
	r := New()
	RegisterBuiltins(r)
	assert.Equal(t, []string{"anthropic", "echo", "ollama", "openai"}, r.Available())

	ctx := context.Background()
	_, err := r.Resolve(ctx, "openai", types.Config{Provider: "openai"})
	assert.ErrorIs(t, err, types.ErrConfig)
	_, err = r.Resolve(ctx, "anthropic", types.Config{Provider: "anthropic"})
	assert.ErrorIs(t, err, types.ErrConfig)

	for _, name := range []string{"ollama", "echo"} {
		p, err := r.Resolve(ctx, name, types.Config{Provider: name})
		require.NoError(t, err, name)
		assert.NotNil(t, p)
	}

	RegisterBuiltins(r)
	assert.Equal(t, 4, r.Len())
}

func TestDefaultRegistry(t *testing.T) {
	assert.Same(t, Default(), Default())

	name := "default-registry-test"
	Register(fixed(name, "from default"))
	t.Cleanup(func() { Default().Unregister(name) })

	assert.Contains(t, Available(), name)
	p, err := Resolve(context.Background(), name, types.Config{})
	require.NoError(t, err)
	out, err := p.Complete(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "from default", out)
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
