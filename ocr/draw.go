package ocr

import (
	"image"
	"image/color"

	"github.com/up-zero/gotool/imageutil"
	"golang.org/x/image/draw"
)

var boxColor = color.RGBA{R: 255, A: 255}

// DrawBoxes 复制一份图像并画出文本框
func DrawBoxes(img image.Image, boxes []TextBox) *image.RGBA {
	dst := image.NewRGBA(img.Bounds())
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)

	for _, b := range boxes {
		imageutil.DrawThickRectOutline(dst, b.Box, boxColor, 2)
	}
	return dst
}
