package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/modforge/internal/buildspec"
	"github.com/vk/modforge/internal/modenv"
)

func TestSkipAvailableRemovesInstalled(t *testing.T) {
	t.Parallel()

	avail := modenv.NewIndex([]string{"gzip/1.4", "xz/5.0"})
	specs := []*buildspec.Spec{
		rootSpec("foo", "1.2.3"),
		rootSpec("gzip", "1.4"),
		rootSpec("bar", "2.0"),
		rootSpec("xz", "5.0"),
	}

	res := SkipAvailable(context.Background(), specs, Policy{}, avail)
	assert.Equal(t, []string{"foo/1.2.3", "bar/2.0"}, modNames(res))
}

func TestSkipAvailableForceKeepsEverything(t *testing.T) {
	t.Parallel()

	avail := modenv.NewIndex([]string{"gzip/1.4"})
	specs := []*buildspec.Spec{
		rootSpec("foo", "1.2.3"),
		rootSpec("gzip", "1.4"),
	}

	res := SkipAvailable(context.Background(), specs, Policy{Force: true}, avail)
	assert.Equal(t, specs, res)
}

func TestSkipAvailableNothingInstalled(t *testing.T) {
	t.Parallel()

	specs := []*buildspec.Spec{rootSpec("foo", "1.2.3")}
	res := SkipAvailable(context.Background(), specs, Policy{}, modenv.None{})
	require.Len(t, res, 1)
	assert.Equal(t, "foo/1.2.3", res[0].FullModName)
}

func TestSkipAvailableThenResolve(t *testing.T) {
	t.Parallel()

	// The pre-pass removes an installed root; resolution then prunes the
	// same module when it reappears as a dependency.
	avail := modenv.NewIndex([]string{"gzip/1.4"})
	foo := rootSpec("foo", "1.2.3", sysDep("gzip", "1.4"))
	gzip := rootSpec("gzip", "1.4")

	roots := SkipAvailable(context.Background(), []*buildspec.Spec{foo, gzip}, Policy{}, avail)
	require.Equal(t, []string{"foo/1.2.3"}, modNames(roots))

	res, err := newResolver(avail).Resolve(context.Background(), roots, Policy{})
	require.NoError(t, err)
	assert.Equal(t, []string{"foo/1.2.3"}, modNames(res))
}
