package adapter

import (
	"testing"

	"github.com/cjbester78/h2h/server/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryResolvesRegisteredPair(t *testing.T) {
	f := NewDefaultFactory(t.TempDir())

	executor, err := f.CreateAdapter("FILE", "SENDER")
	require.NoError(t, err)
	assert.Equal(t, model.ADAPTER_TYPE_FILE, executor.Type())
	assert.Equal(t, model.DIRECTION_SENDER, executor.Direction())
}

func TestFactoryCaseInsensitiveLookup(t *testing.T) {
	f := NewDefaultFactory(t.TempDir())

	a, err := f.CreateAdapter("sftp", "receiver")
	require.NoError(t, err)
	b, err := f.CreateAdapter("SFTP", "RECEIVER")
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestFactoryMemoizesUntilClearCache(t *testing.T) {
	f := NewDefaultFactory(t.TempDir())

	first, err := f.CreateAdapter("FILE", "RECEIVER")
	require.NoError(t, err)
	second, err := f.CreateAdapter("FILE", "RECEIVER")
	require.NoError(t, err)
	assert.Same(t, first, second, "repeat lookups must return the cached instance")

	f.ClearCache()
	third, err := f.CreateAdapter("FILE", "RECEIVER")
	require.NoError(t, err)
	assert.NotSame(t, first, third, "cache flush must force a new instance")
}

func TestFactoryRejectsBlankArguments(t *testing.T) {
	f := NewDefaultFactory(t.TempDir())

	_, err := f.CreateAdapter("", "SENDER")
	assert.ErrorIs(t, err, ErrUnsupportedAdapter)
	_, err = f.CreateAdapter("FILE", "   ")
	assert.ErrorIs(t, err, ErrUnsupportedAdapter)
}

func TestFactoryRejectsUnknownPair(t *testing.T) {
	f := NewDefaultFactory(t.TempDir())

	_, err := f.CreateAdapter("EMAIL", "SENDER")
	assert.ErrorIs(t, err, ErrUnsupportedAdapter, "email has no sender side")
	_, err = f.CreateAdapter("FTP", "SENDER")
	assert.ErrorIs(t, err, ErrUnsupportedAdapter)
}

func TestFactorySupportedAdapters(t *testing.T) {
	f := NewDefaultFactory(t.TempDir())

	supported := f.SupportedAdapters()
	require.Len(t, supported, 5)
	assert.Contains(t, supported, SupportedAdapter{Type: model.ADAPTER_TYPE_FILE, Direction: model.DIRECTION_SENDER})
	assert.Contains(t, supported, SupportedAdapter{Type: model.ADAPTER_TYPE_SFTP, Direction: model.DIRECTION_RECEIVER})
	assert.Contains(t, supported, SupportedAdapter{Type: model.ADAPTER_TYPE_EMAIL, Direction: model.DIRECTION_RECEIVER})
	assert.NotContains(t, supported, SupportedAdapter{Type: model.ADAPTER_TYPE_EMAIL, Direction: model.DIRECTION_SENDER})
}
