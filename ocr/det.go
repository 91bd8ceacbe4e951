package ocr

import (
	"image"
	"math"
	"sort"

	winml "github.com/getcharzp/go-winml"
)

const (
	minBoxSide    = 3
	maxCandidates = 1000
	sameRowDelta  = 10
)

// PaddleOCR 检测模型按 BGR 顺序做 ImageNet 归一化
var detFormat = winml.ImageFormat{
	Order: winml.ChannelBGR,
	Scale: 1.0 / 255,
	Mean:  [3]float32{0.485, 0.456, 0.406},
	Std:   [3]float32{0.229, 0.224, 0.225},
}

type detParams struct {
	threshold    float32
	boxThreshold float32
	unclipRatio  float64
}

func (e *Engine) preprocessDet(img image.Image) ([]float32, []int64, error) {
	w, h := detInputSize(img.Bounds().Dx(), img.Bounds().Dy(), e.cfg.MaxSideLen)
	return winml.ImageTensor(img, []int64{1, 3, int64(h), int64(w)}, detFormat)
}

// detInputSize 长边不超过 maxSide，宽高取 32 的倍数
func detInputSize(w, h, maxSide int) (int, int) {
	ratio := 1.0
	if longest := max(w, h); longest > maxSide {
		ratio = float64(maxSide) / float64(longest)
	}
	round32 := func(v int) int {
		r := int(math.Round(float64(v)*ratio/32)) * 32
		return max(r, 32)
	}
	return round32(w), round32(h)
}

// extractBoxes 二值化概率图，按 4 连通域取外接矩形并外扩，坐标为概率图坐标
func extractBoxes(prob []float32, w, h int, p detParams) []TextBox {
	visited := make([]bool, len(prob))
	var boxes []TextBox
	var stack []int

	for start := range prob {
		if visited[start] || prob[start] <= p.threshold {
			continue
		}

		minX, minY, maxX, maxY := w, h, -1, -1
		var sum float64
		var count int

		visited[start] = true
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			x, y := idx%w, idx/w
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
			sum += float64(prob[idx])
			count++

			for _, n := range [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
				nx, ny := n[0], n[1]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				ni := ny*w + nx
				if !visited[ni] && prob[ni] > p.threshold {
					visited[ni] = true
					stack = append(stack, ni)
				}
			}
		}

		bw, bh := maxX-minX+1, maxY-minY+1
		if min(bw, bh) < minBoxSide {
			continue
		}
		score := float32(sum / float64(count))
		if score < p.boxThreshold {
			continue
		}

		boxes = append(boxes, TextBox{Box: unclip(minX, minY, bw, bh, p.unclipRatio), Score: score})
		if len(boxes) >= maxCandidates {
			break
		}
	}
	return boxes
}

// unclip 按 面积*ratio/周长 的距离向外扩展矩形
func unclip(x, y, w, h int, ratio float64) image.Rectangle {
	d := float64(w*h) * ratio / float64(2*(w+h))
	return image.Rect(
		int(math.Floor(float64(x)-d)),
		int(math.Floor(float64(y)-d)),
		int(math.Ceil(float64(x+w)+d)),
		int(math.Ceil(float64(y+h)+d)),
	)
}

// scaleBoxes 概率图坐标映射回原图，裁剪到图像范围并排序
func scaleBoxes(boxes []TextBox, mapW, mapH int, bounds image.Rectangle) []TextBox {
	sx := float64(bounds.Dx()) / float64(mapW)
	sy := float64(bounds.Dy()) / float64(mapH)

	out := make([]TextBox, 0, len(boxes))
	for _, b := range boxes {
		r := image.Rect(
			int(math.Round(float64(b.Box.Min.X)*sx)),
			int(math.Round(float64(b.Box.Min.Y)*sy)),
			int(math.Round(float64(b.Box.Max.X)*sx)),
			int(math.Round(float64(b.Box.Max.Y)*sy)),
		).Add(bounds.Min).Intersect(bounds)
		if r.Dx() < minBoxSide || r.Dy() < minBoxSide {
			continue
		}
		out = append(out, TextBox{Box: r, Score: b.Score})
	}
	sortBoxes(out)
	return out
}

// sortBoxes 先按 (y, x) 排序，再把纵向相差不足 sameRowDelta 的相邻框按 x 交换，
// 与 PaddleOCR 的 sorted_boxes 一致，结果与输入顺序无关
func sortBoxes(boxes []TextBox) {
	sort.Slice(boxes, func(i, j int) bool {
		a, b := boxes[i].Box.Min, boxes[j].Box.Min
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})

	for i := 0; i < len(boxes)-1; i++ {
		for j := i; j >= 0; j-- {
			a, b := boxes[j].Box.Min, boxes[j+1].Box.Min
			if abs(b.Y-a.Y) >= sameRowDelta || b.X >= a.X {
				break
			}
			boxes[j], boxes[j+1] = boxes[j+1], boxes[j]
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
