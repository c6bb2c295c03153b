package file

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/OCAP2/animconv/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDoc = "{\n  \"format_version\": \"1.8.0\"\n}\n"

func TestStoreAnimation_Plain(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "walk.animation.json")
	b := New(Config{}, nil)
	require.NoError(t, b.Init())

	require.NoError(t, b.StoreAnimation(&core.ConvertedAnimation{
		Source:     "walk.json",
		OutputPath: out,
		Document:   []byte(testDoc),
	}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, testDoc, string(data))
	assert.Equal(t, out, b.LastOutputPath())
	assert.NoError(t, b.Close())
}

func TestStoreAnimation_Overwrites(t *testing.T) {
	out := filepath.Join(t.TempDir(), "a.animation.json")
	require.NoError(t, os.WriteFile(out, []byte("old content that is longer than the new one"), 0644))

	b := New(Config{}, nil)
	require.NoError(t, b.StoreAnimation(&core.ConvertedAnimation{OutputPath: out, Document: []byte("{}\n")}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(data))
}

func TestStoreAnimation_Gzip(t *testing.T) {
	out := filepath.Join(t.TempDir(), "walk.animation.json")
	b := New(Config{Compress: true}, nil)

	require.NoError(t, b.StoreAnimation(&core.ConvertedAnimation{OutputPath: out, Document: []byte(testDoc)}))
	assert.Equal(t, out+GzipExtension, b.LastOutputPath())

	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))

	f, err := os.Open(out + GzipExtension)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, testDoc, string(data))
}

func TestStoreAnimation_NoPath(t *testing.T) {
	b := New(Config{}, nil)
	err := b.StoreAnimation(&core.ConvertedAnimation{Source: "x.json"})
	assert.ErrorContains(t, err, "x.json")
	assert.Empty(t, b.LastOutputPath())
}

func TestRecordFailure_KeepsOutput(t *testing.T) {
	b := New(Config{}, nil)
	assert.NoError(t, b.RecordFailure(&core.ConversionFailure{Source: "x.json"}))
}
