package tui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextWidth(t *testing.T) {
	tests := []struct {
		text string
		want Size
	}{
		{"abc", Size{W: 3, H: 1}},
		{"日本", Size{W: 4, H: 1}},
		{"", Size{W: 0, H: 1}},
		{"ab\nlonger", Size{W: 6, H: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, CalcMinSize(PlainText(tt.text), SizingArgs{}))
		})
	}
}

func TestTextStyledKeepsWidth(t *testing.T) {
	e := Text("bar", NewStyle().Foreground(lipgloss.Color("#ff0000")).Bold(true))
	assert.Equal(t, Size{W: 3, H: 1}, CalcMinSize(e, SizingArgs{}))
	n := e.n.(*printNode)
	assert.Contains(t, n.raw, "\x1b[")
	assert.Contains(t, n.raw, "bar")
}

func TestCenterSymbol(t *testing.T) {
	e := CenterSymbol("", 2)
	n := e.n.(*printNode)
	assert.Equal(t, "\x1b]66;w=2:h=2:n=1:d=1;\a", n.raw)
	assert.Equal(t, Size{W: 2, H: 1}, n.size)
}

func TestTextSizeApply(t *testing.T) {
	assert.Equal(t, "\x1b]66;s=2;hi\a", TextSize{Scale: 2}.Apply("hi"))
	assert.Equal(t, "\x1b]66;;hi\a", TextSize{}.Apply("hi"))
}

func TestLineSetByName(t *testing.T) {
	assert.Equal(t, LinesRounded, LineSetByName("rounded"))
	assert.Equal(t, LinesDouble, LineSetByName("double"))
	assert.Equal(t, LinesThick, LineSetByName("thick"))
	assert.Equal(t, LinesNormal, LineSetByName("normal"))
	assert.Equal(t, LinesNormal, LineSetByName("bogus"))
}

func TestImageRGBARejectsBadBuffer(t *testing.T) {
	e, err := ImageRGBA(make([]byte, 7), 2, 2, FillAxis(AxisX, 1))
	assert.Error(t, err)
	assert.True(t, e.IsEmpty())

	_, err = ImageRGBA(nil, 0, 0, FillAxis(AxisX, 1))
	assert.Error(t, err)
}

func TestDecodeImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 2))
	src.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	e, err := DecodeImage(&buf, FillAxis(AxisY, 1))
	require.NoError(t, err)
	n := e.n.(*imageNode)
	assert.Equal(t, uint32(4), n.w)
	assert.Equal(t, uint32(2), n.h)
	assert.Equal(t, []byte{255, 0, 0, 255}, n.pix[:4])

	_, err = DecodeImage(strings.NewReader("not an image"), FillAxis(AxisY, 1))
	assert.Error(t, err)
}

func TestImageChunking(t *testing.T) {
	// 10000 pixel bytes encode to a little over three chunks.
	pix := make([]byte, 50*50*4)
	e, err := ImageRGBA(pix, 50, 50, FillAxis(AxisX, 5))
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, e.n.(*imageNode).writeAPC(&buf, Area{Size: Size{W: 5, H: 3}}))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "\x1b_Ga=T,f=32,C=1,s=50,v=50,c=5,m=1;"))
	assert.Contains(t, out, "\x1b_Gm=0;")
	chunks := strings.Count(out, "\x1b_G")
	assert.Equal(t, (len(e.n.(*imageNode).b64)+maxChunk-1)/maxChunk, chunks)
}

func TestTagParts(t *testing.T) {
	tag := NewTag("workspace", "3")
	assert.Equal(t, []string{"workspace", "3"}, tag.Parts())
	assert.True(t, tag.HasPrefix("workspace"))
	assert.False(t, tag.HasPrefix("work"))
	assert.Equal(t, tag, TagFromBytes(tag.Bytes()))
	assert.NotEqual(t, NewTag("a", "b"), NewTag("ab"))
}
