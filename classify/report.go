package classify

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Report 重复推理的耗时统计，单次耗时包含解码、绑定与推理
type Report struct {
	Iterations int
	Elapsed    time.Duration
	Mean       time.Duration
	StdDev     time.Duration
	Min        time.Duration
	Max        time.Duration
	P50        time.Duration
	P95        time.Duration
	Throughput float64 // 每秒迭代次数
}

func newReport(latencies []time.Duration, elapsed time.Duration) *Report {
	r := &Report{Iterations: len(latencies), Elapsed: elapsed}
	if len(latencies) == 0 {
		return r
	}

	xs := make([]float64, len(latencies))
	for i, d := range latencies {
		xs[i] = float64(d)
	}
	sort.Float64s(xs)

	r.Mean = time.Duration(stat.Mean(xs, nil))
	if len(xs) > 1 {
		r.StdDev = time.Duration(stat.StdDev(xs, nil))
	}
	r.Min = time.Duration(floats.Min(xs))
	r.Max = time.Duration(floats.Max(xs))
	r.P50 = time.Duration(stat.Quantile(0.5, stat.Empirical, xs, nil))
	r.P95 = time.Duration(stat.Quantile(0.95, stat.Empirical, xs, nil))
	if elapsed > 0 {
		r.Throughput = float64(len(latencies)) / elapsed.Seconds()
	}
	return r
}

// Write 以表格输出统计
func (r *Report) Write(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ITERATIONS", "ELAPSED", "MEAN", "STDDEV", "MIN", "P50", "P95", "MAX", "THROUGHPUT"})
	table.SetBorder(false)
	table.SetAutoFormatHeaders(false)
	table.Append([]string{
		fmt.Sprint(r.Iterations),
		r.Elapsed.String(),
		r.Mean.String(),
		r.StdDev.String(),
		r.Min.String(),
		r.P50.String(),
		r.P95.String(),
		r.Max.String(),
		fmt.Sprintf("%.1f/s", r.Throughput),
	})
	table.Render()
}
