package l3partition

import (
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

const locatorPadding = 1e-9

type cellBounds struct {
	id   int
	rect rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (c *cellBounds) Bounds() rtreego.Rect { return c.rect }

// Locator finds the arrangement cell containing a ground-plane point.
type Locator struct {
	arr  *Arrangement
	tree *rtreego.Rtree
}

// NewLocator indexes the bounding rectangle of every cell.
func NewLocator(a *Arrangement) *Locator {
	objs := make([]rtreego.Spatial, 0, len(a.Cells))
	for _, c := range a.Cells {
		b := a.Ring(c.ID).Bound()
		rect, err := rtreego.NewRect(
			rtreego.Point{b.Min[0] - locatorPadding, b.Min[1] - locatorPadding},
			[]float64{b.Max[0] - b.Min[0] + 2*locatorPadding, b.Max[1] - b.Min[1] + 2*locatorPadding},
		)
		if err != nil {
			continue
		}
		objs = append(objs, &cellBounds{id: c.ID, rect: rect})
	}
	return &Locator{arr: a, tree: rtreego.NewTree(2, 25, 50, objs...)}
}

// CellOf returns the cell containing p, preferring the lowest ID when p is
// on a shared edge, or -1 when p is outside the bounding box.
func (l *Locator) CellOf(p orb.Point) int {
	if !l.arr.Bound.Contains(p) {
		return -1
	}
	hits := l.tree.SearchIntersect(rtreego.Point{p[0], p[1]}.ToRect(locatorPadding))
	ids := make([]int, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.(*cellBounds).id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if l.arr.Contains(id, p) {
			return id
		}
	}
	return -1
}
