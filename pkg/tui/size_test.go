package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testArgs = SizingArgs{FontSize: Size{W: 10, H: 20}}

func TestCalcMinSize(t *testing.T) {
	tests := []struct {
		name string
		elem Elem
		want Size
	}{
		{"empty", Empty(), Size{}},
		{"print", RawPrint("abc", Size{W: 3, H: 1}), Size{W: 3, H: 1}},
		{"spacing", Spacing(AxisX, 4), Size{W: 4}},
		{
			name: "stack x sums along and maxes across",
			elem: Stack(AxisX,
				Fit(RawPrint("a", Size{W: 3, H: 1})),
				Fill(1, RawPrint("b", Size{W: 2, H: 4})),
			),
			want: Size{W: 5, H: 4},
		},
		{
			name: "stack y",
			elem: Stack(AxisY,
				Fit(RawPrint("a", Size{W: 3, H: 1})),
				Fit(RawPrint("b", Size{W: 2, H: 4})),
			),
			want: Size{W: 3, H: 5},
		},
		{
			name: "block all borders",
			elem: Block{Borders: AllBorders(), Inner: RawPrint("x", Size{W: 4, H: 2})}.Elem(),
			want: Size{W: 6, H: 4},
		},
		{
			name: "block left and top only",
			elem: Block{Borders: Borders{Left: true, Top: true}, Inner: RawPrint("x", Size{W: 4, H: 2})}.Elem(),
			want: Size{W: 5, H: 3},
		},
		{
			name: "block without inner",
			elem: Block{Borders: AllBorders()}.Elem(),
			want: Size{W: 2, H: 2},
		},
		{
			name: "min size raises",
			elem: RawPrint("x", Size{W: 4, H: 1}).WithMinSize(Size{W: 2, H: 3}),
			want: Size{W: 4, H: 3},
		},
		{
			name: "interact ignores hovered",
			elem: RawPrint("x", Size{W: 2, H: 1}).InteractiveHover(NewTag("t"), RawPrint("wide", Size{W: 9, H: 3})),
			want: Size{W: 2, H: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalcMinSize(tt.elem, testArgs))
		})
	}
}

func TestCalcMinSizeImage(t *testing.T) {
	// 40x20 px image, font 10x20 px.
	pix := make([]byte, 40*20*4)

	t.Run("fixed rows", func(t *testing.T) {
		img, err := ImageRGBA(pix, 40, 20, FillAxis(AxisY, 2))
		require.NoError(t, err)
		// 2 rows = 40px tall -> 80px wide -> 8 cols.
		assert.Equal(t, Size{W: 8, H: 2}, CalcMinSize(img, testArgs))
	})

	t.Run("fixed cols rounds up", func(t *testing.T) {
		img, err := ImageRGBA(pix, 40, 20, FillAxis(AxisX, 3))
		require.NoError(t, err)
		// 3 cols = 30px wide -> 15px tall -> 0.75 rows -> 1.
		assert.Equal(t, Size{W: 3, H: 1}, CalcMinSize(img, testArgs))
	})

	t.Run("unknown font size", func(t *testing.T) {
		img, err := ImageRGBA(pix, 40, 20, FillAxis(AxisY, 2))
		require.NoError(t, err)
		assert.Equal(t, Size{W: 0, H: 2}, CalcMinSize(img, SizingArgs{}))
	})
}

func TestCalcMinSizeDeterministic(t *testing.T) {
	tree := NewStackBuilder(AxisX).
		Fit(Text("hello", NewStyle())).
		Spacing(2).
		Fill(1, Block{Borders: AllBorders(), Inner: PlainText("a\nbc")}.Elem()).
		Build()
	first := CalcMinSize(tree, testArgs)
	assert.Equal(t, first, CalcMinSize(tree, testArgs))
	assert.Equal(t, Size{W: 11, H: 4}, first)
}
