/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"bytes"
	"errors"
	"testing"

	"github.com/mitchellh/mapstructure"
	"github.com/stretchr/testify/require"
)

func TestViperAdapter_SetFromReader(t *testing.T) {
	tests := []struct {
		dataType DataType
		data     string
	}{
		{DataTypeYAML, testCacheConfigYAML},
		{DataTypeJSON, testCacheConfigJSON},
	}
	for _, tt := range tests {
		t.Run(string(tt.dataType), func(t *testing.T) {
			va := NewViperAdapter()
			require.NoError(t, va.SetFromReader(bytes.NewBufferString(tt.data), tt.dataType))

			capacity, err := va.GetInt("cache.capacity")
			require.NoError(t, err)
			require.Equal(t, 42, capacity)

			name, err := va.GetString("cache.name")
			require.NoError(t, err)
			require.Equal(t, "users", name)

			size, err := va.GetSizeInBytes("cache.logFileMaxSize")
			require.NoError(t, err)
			require.Equal(t, uint64(100*1024*1024), size)

			require.True(t, va.IsSet("cache.capacity"))
			require.False(t, va.IsSet("cache.unknown"))
		})
	}
}

func TestViperAdapter_UseEnvVars(t *testing.T) {
	t.Setenv("VATEST_CACHE_CAPACITY", "100")
	t.Setenv("VATEST_CACHE_NAME", "posts")

	va := NewViperAdapter()
	va.UseEnvVars("vatest")
	require.NoError(t, va.SetFromReader(bytes.NewBufferString(testCacheConfigYAML), DataTypeYAML))

	capacity, err := va.GetInt("cache.capacity")
	require.NoError(t, err)
	require.Equal(t, 100, capacity)

	name, err := va.GetString("cache.name")
	require.NoError(t, err)
	require.Equal(t, "posts", name)
}

func TestViperAdapter_GetBool(t *testing.T) {
	va := NewViperAdapter()

	va.Set("enabled", "true")
	got, err := va.GetBool("enabled")
	require.NoError(t, err)
	require.True(t, got)

	va.Set("enabled", "maybe")
	_, err = va.GetBool("enabled")
	require.ErrorContains(t, err, "enabled: ")
}

func TestViperAdapter_GetStringFromSet(t *testing.T) {
	va := NewViperAdapter()
	set := []string{"json", "text"}

	va.Set("format", "JSON")
	got, err := va.GetStringFromSet("format", set, true)
	require.NoError(t, err)
	require.Equal(t, "JSON", got)

	_, err = va.GetStringFromSet("format", set, false)
	require.EqualError(t, err, `format: unknown value "JSON", should be one of [json text]`)
}

func TestViperAdapter_GetSizeInBytes(t *testing.T) {
	const key = "size"
	tests := []struct {
		name      string
		configVal interface{}
		want      uint64
		wantErr   bool
	}{
		{"not set", nil, 0, false},
		{"empty string", "", 0, false},
		{"integer", 2048, 2048, false},
		{"human-readable", "10M", 10 * 1024 * 1024, false},
		{"k8s suffix", "1Gi", 1024 * 1024 * 1024, false},
		{"byte size", ByteSize(512), 512, false},
		{"negative", -1, 0, true},
		{"invalid string", "lots", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			va := NewViperAdapter()
			if tt.configVal != nil {
				va.Set(key, tt.configVal)
			}
			got, err := va.GetSizeInBytes(key)
			if tt.wantErr {
				require.ErrorContains(t, err, key+": ")
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestViperAdapter_UnmarshalKey(t *testing.T) {
	type cacheSection struct {
		Capacity       int      `mapstructure:"capacity"`
		Name           string   `mapstructure:"name"`
		LogFileMaxSize ByteSize `mapstructure:"logFileMaxSize"`
	}

	t.Run("section from config data", func(t *testing.T) {
		va := NewViperAdapter()
		require.NoError(t, va.SetFromReader(bytes.NewBufferString(testCacheConfigYAML), DataTypeYAML))

		var section cacheSection
		require.NoError(t, va.UnmarshalKey("cache", &section))
		require.Equal(t, cacheSection{Capacity: 42, Name: "users", LogFileMaxSize: 100 * 1024 * 1024}, section)
	})

	t.Run("environment variables override nested keys", func(t *testing.T) {
		t.Setenv("LRUTEST_CACHE_CAPACITY", "7")
		t.Setenv("LRUTEST_CACHE_LOGFILEMAXSIZE", "2M")

		va := NewViperAdapter()
		va.UseEnvVars("lrutest")
		require.NoError(t, va.SetFromReader(bytes.NewBufferString(testCacheConfigYAML), DataTypeYAML))

		var section cacheSection
		require.NoError(t, va.UnmarshalKey("CACHE", &section))
		require.Equal(t, cacheSection{Capacity: 7, Name: "users", LogFileMaxSize: 2 * 1024 * 1024}, section)
	})

	t.Run("missing key leaves value untouched", func(t *testing.T) {
		va := NewViperAdapter()
		section := cacheSection{Capacity: 1}
		require.NoError(t, va.UnmarshalKey("cache", &section))
		require.Equal(t, cacheSection{Capacity: 1}, section)
	})

	t.Run("decoding error contains key", func(t *testing.T) {
		va := NewViperAdapter()
		va.Set("cache.capacity", "many")

		var section cacheSection
		require.ErrorContains(t, va.UnmarshalKey("cache", &section), "cache: ")
	})

	t.Run("decoder options", func(t *testing.T) {
		va := NewViperAdapter()
		require.NoError(t, va.SetFromReader(bytes.NewBufferString(testCacheConfigYAML), DataTypeYAML))

		var section struct {
			Capacity int `mapstructure:"capacity"`
		}
		err := va.UnmarshalKey("cache", &section, func(dc *mapstructure.DecoderConfig) {
			dc.ErrorUnused = true
		})
		require.ErrorContains(t, err, "name")
	})
}

func TestWrapKeyErrIfNeeded(t *testing.T) {
	require.NoError(t, WrapKeyErrIfNeeded("key", nil))

	baseErr := errors.New("bad value")
	err := WrapKeyErrIfNeeded("cache.capacity", baseErr)
	require.ErrorIs(t, err, baseErr)
	require.EqualError(t, err, "cache.capacity: bad value")
}
