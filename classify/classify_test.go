package classify

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	winml "github.com/getcharzp/go-winml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank(t *testing.T) {
	c := &Classifier{
		cfg:    Config{TopK: 2},
		labels: []string{"tench", "goldfish", "great white shark"},
	}

	preds := c.rank([]float32{0.1, 0.2, 0.7})
	require.Len(t, preds, 2)
	assert.Equal(t, Prediction{Index: 2, Label: "great white shark", Score: 0.7}, preds[0])
	assert.Equal(t, Prediction{Index: 1, Label: "goldfish", Score: 0.2}, preds[1])
}

func TestRankSoftmaxWithoutLabels(t *testing.T) {
	c := &Classifier{cfg: Config{ApplySoftmax: true}}

	preds := c.rank([]float32{1, 5, 2})
	require.Len(t, preds, 1)
	assert.Equal(t, 1, preds[0].Index)
	assert.Empty(t, preds[0].Label)
	assert.Greater(t, preds[0].Score, float32(0.9))
	assert.LessOrEqual(t, preds[0].Score, float32(1))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "data_0", cfg.InputName)
	assert.Equal(t, "softmaxout_1", cfg.OutputName)
	assert.Equal(t, []int64{1, 1000, 1, 1}, cfg.OutputShape)
	assert.Equal(t, 1000, cfg.Iterations)
}

func TestNewReport(t *testing.T) {
	lat := []time.Duration{4 * time.Millisecond, 1 * time.Millisecond, 3 * time.Millisecond, 2 * time.Millisecond}
	r := newReport(lat, 10*time.Millisecond)

	assert.Equal(t, 4, r.Iterations)
	assert.Equal(t, 2500*time.Microsecond, r.Mean)
	assert.Equal(t, time.Millisecond, r.Min)
	assert.Equal(t, 4*time.Millisecond, r.Max)
	assert.Equal(t, 2*time.Millisecond, r.P50)
	assert.Equal(t, 4*time.Millisecond, r.P95)
	assert.InDelta(t, 400, r.Throughput, 1e-6)
	assert.Greater(t, r.StdDev, time.Duration(0))
}

func TestNewReportEdgeCases(t *testing.T) {
	r := newReport(nil, 0)
	assert.Zero(t, r.Iterations)
	assert.Zero(t, r.Throughput)

	r = newReport([]time.Duration{time.Millisecond}, time.Millisecond)
	assert.Zero(t, r.StdDev)
	assert.Equal(t, time.Millisecond, r.Mean)
}

func TestReportWrite(t *testing.T) {
	var buf bytes.Buffer
	newReport([]time.Duration{time.Millisecond, 3 * time.Millisecond}, 4*time.Millisecond).Write(&buf)

	out := buf.String()
	assert.Contains(t, out, "THROUGHPUT")
	assert.Contains(t, out, "2ms")
	assert.Contains(t, out, "500.0/s")
}

func TestResolveNames(t *testing.T) {
	c := &Classifier{}
	require.NoError(t, c.resolveNames(
		[]winml.Feature{{Name: "data_0"}},
		[]winml.Feature{{Name: "softmaxout_1"}, {Name: "extra"}},
	))
	assert.Equal(t, "data_0", c.cfg.InputName)
	assert.Equal(t, "softmaxout_1", c.cfg.OutputName)

	c = &Classifier{cfg: Config{InputName: "x", OutputName: "y"}}
	require.NoError(t, c.resolveNames(nil, nil))
	assert.Equal(t, "x", c.cfg.InputName)
}

func TestResolveNamesUndeclared(t *testing.T) {
	assert.Error(t, (&Classifier{}).resolveNames(nil, []winml.Feature{{Name: "y"}}))
	assert.Error(t, (&Classifier{}).resolveNames([]winml.Feature{{Name: "x"}}, nil))
}

func writePNG(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cat.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return path
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	c := &Classifier{
		cfg: Config{Iterations: 10, Warmup: 1, TopK: 1},
		scores: func(ctx context.Context, _ image.Image) ([]float32, error) {
			calls++
			return []float32{0.1, 0.7, 0.2}, nil
		},
	}

	var seen []int
	report, err := c.Run(ctx, writePNG(t), func(iter int, preds []Prediction) {
		seen = append(seen, preds[0].Index)
		if iter == 2 {
			cancel()
		}
	})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, 3, report.Iterations)
	assert.Equal(t, []int{1, 1, 1}, seen)
	assert.Equal(t, 4, calls) // 含一次预热
}

func TestRunReloadsImage(t *testing.T) {
	path := writePNG(t)
	c := &Classifier{
		cfg: Config{Iterations: 2, ReloadImage: true},
		scores: func(context.Context, image.Image) ([]float32, error) {
			return []float32{1}, nil
		},
	}

	report, err := c.Run(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Iterations)

	require.NoError(t, os.Remove(path))
	report, err = c.Run(context.Background(), path, nil)
	assert.Error(t, err)
	assert.Nil(t, report)
}

func TestRunScoreError(t *testing.T) {
	boom := errors.New("boom")
	c := &Classifier{
		cfg: Config{Iterations: 3},
		scores: func(context.Context, image.Image) ([]float32, error) {
			return nil, boom
		},
	}

	report, err := c.Run(context.Background(), writePNG(t), nil)
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, report)
	assert.Zero(t, report.Iterations)
}
