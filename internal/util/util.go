package util

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"sort"
)

// LoadDict 加载字典文件，每行一项
func LoadDict(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开字典文件 %s: %w", path, err)
	}
	defer file.Close()
	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取字典文件时出错: %w", err)
	}
	return lines, nil
}

// Argmax 最大值下标，空切片返回 -1。相等时取靠前者
func Argmax(v []float32) (int, float32) {
	if len(v) == 0 {
		return -1, 0
	}
	idx, best := 0, v[0]
	for i, f := range v[1:] {
		if f > best {
			idx, best = i+1, f
		}
	}
	return idx, best
}

// Softmax 数值稳定的 softmax
func Softmax(logits []float32) []float32 {
	if len(logits) == 0 {
		return nil
	}
	_, maxLogit := Argmax(logits)

	probs := make([]float32, len(logits))
	var sum float64
	for i, v := range logits {
		e := math.Exp(float64(v - maxLogit))
		probs[i] = float32(e)
		sum += e
	}
	for i := range probs {
		probs[i] = float32(float64(probs[i]) / sum)
	}
	return probs
}

// TopK 按分数降序返回前 k 个下标
func TopK(v []float32, k int) []int {
	idx := make([]int, len(v))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return v[idx[a]] > v[idx[b]]
	})
	if k > 0 && k < len(idx) {
		idx = idx[:k]
	}
	return idx
}
