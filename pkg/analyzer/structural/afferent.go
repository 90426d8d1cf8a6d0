package structural

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/panbanda/decay/pkg/model"
)

// ReferenceIndex maps a type's simple name to the set of units that
// reference it. It is built once per run and is read-only afterwards, so any
// number of goroutines may query it.
type ReferenceIndex struct {
	refs     map[string]*roaring.Bitmap
	declared map[string]*roaring.Bitmap
	files    map[string]*roaring.Bitmap
}

// NewReferenceIndex scans every unit of the program once.
func NewReferenceIndex(p *model.Program) *ReferenceIndex {
	idx := &ReferenceIndex{
		refs:     make(map[string]*roaring.Bitmap),
		declared: make(map[string]*roaring.Bitmap, p.Len()),
		files:    make(map[string]*roaring.Bitmap),
	}
	for i, u := range p.Units() {
		id := uint32(i)
		addTo(idx.declared, u.SimpleName(), id)
		addTo(idx.files, u.Path, id)
		for _, t := range u.ReferencedTypes() {
			if key := model.SimpleName(t); key != "" {
				addTo(idx.refs, key, id)
			}
		}
	}
	return idx
}

func addTo(m map[string]*roaring.Bitmap, key string, id uint32) {
	bm, ok := m[key]
	if !ok {
		bm = roaring.New()
		m[key] = bm
	}
	bm.Add(id)
}

// Afferent returns the number of other units that reference u's type. Units
// declaring the same type, u included, are not counted.
func (idx *ReferenceIndex) Afferent(u *model.Unit) int {
	key := u.SimpleName()
	bm, ok := idx.refs[key]
	if !ok {
		return 0
	}
	if self, ok := idx.declared[key]; ok {
		return int(roaring.AndNot(bm, self).GetCardinality())
	}
	return int(bm.GetCardinality())
}

// AfferentOfFile returns the number of distinct units outside path that
// reference any of the given units declared in it.
func (idx *ReferenceIndex) AfferentOfFile(path string, units []*model.Unit) int {
	referrers := roaring.New()
	for _, u := range units {
		key := u.SimpleName()
		bm, ok := idx.refs[key]
		if !ok {
			continue
		}
		if self, ok := idx.declared[key]; ok {
			bm = roaring.AndNot(bm, self)
		}
		referrers.Or(bm)
	}
	if local, ok := idx.files[path]; ok {
		referrers.AndNot(local)
	}
	return int(referrers.GetCardinality())
}

// Instability is fan-out / (fan-out + afferent), or 0 when both are 0.
func Instability(fanOut, afferent int) float64 {
	if fanOut+afferent == 0 {
		return 0
	}
	return float64(fanOut) / float64(fanOut+afferent)
}
