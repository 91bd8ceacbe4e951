package ocr

import (
	"image"
	"math"
	"strings"

	"golang.org/x/image/draw"
)

const (
	recHeight   = 48
	recMinWidth = 320
	recMaxWidth = 1600
	// 识别网络在宽度方向下采样 8 倍
	recStride = 8
)

// preprocessRec 裁剪文本区域，高度缩放到 48 并保持宽高比，右侧补零到至少 320 宽。
// 超过 1600 的宽度压缩到 1600
func preprocessRec(img image.Image, box image.Rectangle) ([]float32, []int64) {
	box = box.Intersect(img.Bounds())
	if box.Empty() {
		return nil, nil
	}

	resizedW := int(math.Ceil(float64(recHeight) * float64(box.Dx()) / float64(box.Dy())))
	resizedW = min(max(resizedW, 1), recMaxWidth)
	width := max(recMinWidth, resizedW)

	crop := image.NewRGBA(image.Rect(0, 0, resizedW, recHeight))
	draw.BiLinear.Scale(crop, crop.Bounds(), img, box, draw.Src, nil)

	area := recHeight * width
	data := make([]float32, 3*area)
	for y := 0; y < recHeight; y++ {
		for x := 0; x < resizedW; x++ {
			i := crop.PixOffset(x, y)
			r, g, b := crop.Pix[i], crop.Pix[i+1], crop.Pix[i+2]
			// BGR
			data[0*area+y*width+x] = (float32(b)/255 - 0.5) / 0.5
			data[1*area+y*width+x] = (float32(g)/255 - 0.5) / 0.5
			data[2*area+y*width+x] = (float32(r)/255 - 0.5) / 0.5
		}
	}
	return data, []int64{1, 3, recHeight, int64(width)}
}

// ctcDecode 贪心 CTC 解码: 0 为空白符，合并相邻重复，字符下标为 idx-1。
// 分数为输出字符最大概率的均值
func ctcDecode(probs []float32, steps, classes int, dict []string) (string, float32) {
	var sb strings.Builder
	var scoreSum float32
	var n int
	lastIdx := -1

	for t := 0; t < steps; t++ {
		start := t * classes
		end := start + classes
		if end > len(probs) {
			break
		}

		maxIdx, maxVal := 0, probs[start]
		for c := 1; c < classes; c++ {
			if probs[start+c] > maxVal {
				maxIdx, maxVal = c, probs[start+c]
			}
		}

		if maxIdx != 0 && maxIdx != lastIdx && maxIdx-1 < len(dict) {
			sb.WriteString(dict[maxIdx-1])
			scoreSum += maxVal
			n++
		}
		lastIdx = maxIdx
	}

	if n == 0 {
		return "", 0
	}
	return sb.String(), scoreSum / float32(n)
}
