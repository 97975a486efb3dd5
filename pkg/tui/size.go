package tui

// SizingArgs carries the terminal properties needed to size elements.
type SizingArgs struct {
	// FontSize is the pixel size of one cell.
	FontSize Size
}

// CalcMinSize returns the smallest area e can be drawn into without
// clipping. It has no side effects.
func CalcMinSize(e Elem, args SizingArgs) Size {
	switch n := e.n.(type) {
	case nil:
		return Size{}
	case *printNode:
		return n.size
	case *imageNode:
		return n.minSize(args.FontSize)
	case *stackNode:
		var total Size
		for _, item := range n.items {
			s := CalcMinSize(item.Elem, args)
			along := satAdd(total.Get(n.axis), s.Get(n.axis))
			across := max(total.Get(n.axis.Other()), s.Get(n.axis.Other()))
			total = total.With(n.axis, along).With(n.axis.Other(), across)
		}
		return total
	case *blockNode:
		inner := CalcMinSize(n.inner, args)
		l, t, r, b := n.borders.thickness()
		return Size{W: satAdd(inner.W, l+r), H: satAdd(inner.H, t+b)}
	case *minSizeNode:
		return CalcMinSize(n.inner, args).Max(n.min)
	case *interactNode:
		return CalcMinSize(n.normal, args)
	default:
		return Size{}
	}
}
