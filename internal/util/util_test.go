package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\n中\n"), 0o644))

	dict, err := LoadDict(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "中"}, dict)
}

func TestLoadDictMissing(t *testing.T) {
	_, err := LoadDict(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestArgmax(t *testing.T) {
	i, v := Argmax([]float32{0.1, 0.7, 0.7, 0.2})
	assert.Equal(t, 1, i)
	assert.Equal(t, float32(0.7), v)

	i, _ = Argmax(nil)
	assert.Equal(t, -1, i)
}

func TestSoftmax(t *testing.T) {
	p := Softmax([]float32{1, 2, 3, 1000})
	var sum float32
	for _, v := range p {
		sum += v
	}
	assert.InDelta(t, 1, sum, 1e-5)
	assert.InDelta(t, 1, p[3], 1e-5)
	assert.Nil(t, Softmax(nil))
}

func TestTopK(t *testing.T) {
	assert.Equal(t, []int{2, 0}, TopK([]float32{0.3, 0.1, 0.6}, 2))
	assert.Equal(t, []int{2, 0, 1}, TopK([]float32{0.3, 0.1, 0.6}, 0))
	assert.Equal(t, []int{0, 1}, TopK([]float32{0.5, 0.5}, 5))
}
