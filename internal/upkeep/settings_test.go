package upkeep_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upkeep/internal/upkeep"
)

func TestSettingsStore(t *testing.T) {
	f := newFixture(t, time.Now())
	s := f.svc.Settings

	t.Run("default for absent key", func(t *testing.T) {
		v, err := s.Get("missing", "fallback")
		require.NoError(t, err)
		assert.Equal(t, "fallback", v)
	})

	t.Run("default for empty value", func(t *testing.T) {
		v, err := s.Get(upkeep.KeyLastAlertCheckDate, "never")
		require.NoError(t, err)
		assert.Equal(t, "never", v)
	})

	t.Run("set is an upsert", func(t *testing.T) {
		require.NoError(t, s.Set("theme", "dark"))
		require.NoError(t, s.Set("theme", "light"))
		require.NoError(t, s.Set("theme", "light"))

		v, err := s.Get("theme", "")
		require.NoError(t, err)
		assert.Equal(t, "light", v)
	})

	t.Run("integers", func(t *testing.T) {
		require.NoError(t, s.SetInt("count", 12))
		n, err := s.GetInt("count", 0)
		require.NoError(t, err)
		assert.Equal(t, 12, n)

		n, err = s.GetInt("absent", 7)
		require.NoError(t, err)
		assert.Equal(t, 7, n)

		require.NoError(t, s.Set("count", "12.5"))
		_, err = s.GetInt("count", 0)
		var ce *upkeep.ConfigError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "12.5", ce.Value)
	})
}
