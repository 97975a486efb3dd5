package tui

import (
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	_ "image/png"
	"io"
	"strconv"
	"strings"
)

// ImageSizeMode fixes one axis of an image to Len cells. The other axis is
// derived from the image and font cell aspect ratios.
type ImageSizeMode struct {
	Axis Axis
	Len  uint16
}

// FillAxis is shorthand for ImageSizeMode{axis, n}.
func FillAxis(axis Axis, n uint16) ImageSizeMode {
	return ImageSizeMode{Axis: axis, Len: n}
}

type imageNode struct {
	pix  []byte // non-premultiplied RGBA, row-major
	w, h uint32
	mode ImageSizeMode
	b64  string
}

// ImageRGBA builds an image element from raw RGBA pixels. A buffer that does
// not match w*h*4 bytes is an error and yields the empty element.
func ImageRGBA(pix []byte, w, h uint32, mode ImageSizeMode) (Elem, error) {
	if w == 0 || h == 0 || uint64(len(pix)) != uint64(w)*uint64(h)*4 {
		return Empty(), fmt.Errorf("image: %d bytes for %dx%d pixels", len(pix), w, h)
	}
	return Elem{&imageNode{
		pix:  pix,
		w:    w,
		h:    h,
		mode: mode,
		b64:  base64.StdEncoding.EncodeToString(pix),
	}}, nil
}

// Image converts img to an image element.
func Image(img image.Image, mode ImageSizeMode) (Elem, error) {
	b := img.Bounds()
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Stride != b.Dx()*4 {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}
	return ImageRGBA(nrgba.Pix, uint32(b.Dx()), uint32(b.Dy()), mode)
}

// DecodeImage reads a PNG (or any registered format) into an image element.
func DecodeImage(r io.Reader, mode ImageSizeMode) (Elem, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return Empty(), fmt.Errorf("decode image: %w", err)
	}
	return Image(img, mode)
}

func (n *imageNode) minSize(font Size) Size {
	fixed := uint64(n.mode.Len)
	fw, fh := uint64(font.W), uint64(font.H)
	iw, ih := uint64(n.w), uint64(n.h)
	var flex uint64
	switch n.mode.Axis {
	case AxisX:
		// rows = cols * fontW/fontH * imgH/imgW
		flex = ceilDiv(fixed*fw*ih, iw*fh)
	case AxisY:
		// cols = rows * fontH/fontW * imgW/imgH
		flex = ceilDiv(fixed*fh*iw, ih*fw)
	}
	if flex > 0xffff {
		flex = 0xffff
	}
	return Size{}.With(n.mode.Axis, n.mode.Len).With(n.mode.Axis.Other(), uint16(flex))
}

// maxChunk is the largest base64 payload kitty accepts per escape.
const maxChunk = 4096

// writeAPC emits the kitty graphics escapes that display the image scaled to
// its fixed axis length. The terminal derives the other axis, so a font
// change reflows the image without re-encoding.
func (n *imageNode) writeAPC(w io.Writer, area Area) error {
	cells := strconv.Itoa(int(min(n.mode.Len, area.Size.Get(n.mode.Axis))))
	fit := "c=" + cells
	if n.mode.Axis == AxisY {
		fit = "r=" + cells
	}
	var sb strings.Builder
	data := n.b64
	fmt.Fprintf(&sb, "\x1b_Ga=T,f=32,C=1,s=%d,v=%d,%s", n.w, n.h, fit)
	if len(data) <= maxChunk {
		sb.WriteString(";" + data + "\x1b\\")
	} else {
		sb.WriteString(",m=1;" + data[:maxChunk] + "\x1b\\")
		data = data[maxChunk:]
		for len(data) > 0 {
			chunk := data[:min(len(data), maxChunk)]
			data = data[len(chunk):]
			more := "1"
			if len(data) == 0 {
				more = "0"
			}
			sb.WriteString("\x1b_Gm=" + more + ";" + chunk + "\x1b\\")
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func ceilDiv(a, b uint64) uint64 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}
