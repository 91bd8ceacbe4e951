package winml

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/up-zero/gotool/imageutil"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ChannelOrder 图像张量的通道顺序
type ChannelOrder int

const (
	// ChannelBGR 与 Windows ML 图像特征的默认 Bgr8 一致
	ChannelBGR ChannelOrder = iota
	ChannelRGB
)

// ImageFormat 图像转张量时的像素变换: (pixel*Scale - Mean) / Std
type ImageFormat struct {
	Order ChannelOrder
	Scale float32 // 0 视为 1，即保持 0-255
	Mean  [3]float32
	Std   [3]float32 // 0 视为 1
}

// ImageNetFormat 常见的 ImageNet 归一化
var ImageNetFormat = ImageFormat{
	Order: ChannelRGB,
	Scale: 1.0 / 255,
	Mean:  [3]float32{0.485, 0.456, 0.406},
	Std:   [3]float32{0.229, 0.224, 0.225},
}

// LoadImage 读取并解码图片文件
func LoadImage(path string) (image.Image, error) {
	img, err := imageutil.Open(path)
	if err != nil {
		return nil, fmt.Errorf("加载图像失败 %s: %w", path, err)
	}
	return img, nil
}

// ImageTensor 按 NCHW 形状把图像转为张量数据。
// 形状中非正的维度视为动态: N 取 1, C 取 3, H/W 取图像尺寸。
func ImageTensor(img image.Image, shape []int64, f ImageFormat) ([]float32, []int64, error) {
	if len(shape) != 4 {
		return nil, nil, fmt.Errorf("图像输入需要 4 维 NCHW 形状, 实际为 %v", shape)
	}

	b := img.Bounds()
	n, c, h, w := shape[0], shape[1], shape[2], shape[3]
	if n <= 0 {
		n = 1
	}
	if c <= 0 {
		c = 3
	}
	if h <= 0 {
		h = int64(b.Dy())
	}
	if w <= 0 {
		w = int64(b.Dx())
	}
	if n != 1 {
		return nil, nil, fmt.Errorf("图像输入只支持 batch=1, 实际为 %d", n)
	}
	if c != 1 && c != 3 {
		return nil, nil, fmt.Errorf("图像输入只支持 1 或 3 通道, 实际为 %d", c)
	}
	if h == 0 || w == 0 {
		return nil, nil, fmt.Errorf("图像尺寸为空")
	}

	var src image.Image = img
	if int64(b.Dx()) != w || int64(b.Dy()) != h {
		src = imageutil.Resize(img, int(w), int(h))
	}

	scale := f.Scale
	if scale == 0 {
		scale = 1
	}
	norm := func(ch int, v float32) float32 {
		std := f.Std[ch]
		if std == 0 {
			std = 1
		}
		return (v*scale - f.Mean[ch]) / std
	}

	W, H := int(w), int(h)
	area := W * H
	data := make([]float32, int(c)*area)

	if c == 1 {
		gray := imageutil.Grayscale(src)
		for y := 0; y < H; y++ {
			for x := 0; x < W; x++ {
				data[y*W+x] = norm(0, float32(gray.Pix[y*gray.Stride+x]))
			}
		}
		return data, []int64{1, 1, h, w}, nil
	}

	sb := src.Bounds()
	for y := 0; y < H; y++ {
		for x := 0; x < W; x++ {
			r, g, bl, _ := src.At(sb.Min.X+x, sb.Min.Y+y).RGBA()
			px := [3]float32{float32(r >> 8), float32(g >> 8), float32(bl >> 8)}
			if f.Order == ChannelBGR {
				px[0], px[2] = px[2], px[0]
			}
			for ch := 0; ch < 3; ch++ {
				data[ch*area+y*W+x] = norm(ch, px[ch])
			}
		}
	}
	return data, []int64{1, 3, h, w}, nil
}
