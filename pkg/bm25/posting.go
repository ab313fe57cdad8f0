package bm25

import "github.com/RoaringBitmap/roaring/v2/roaring64"

// promotionThreshold is the cardinality at which a posting list switches
// from a plain hashset to a roaring bitmap, per spec: hashset up to 1000
// docs, then roaring bitmap, matching velesdb's posting_list.rs crossover.
const promotionThreshold = 1000

// postingList is an adaptive set of document ids: a Go map while small,
// promoted in place to a roaring bitmap once it crosses promotionThreshold.
// Promotion is one-way — document deletion that shrinks a large postings
// list back below the threshold does not demote it, since churn around the
// boundary would otherwise thrash representations.
type postingList struct {
	small map[uint64]struct{}
	large *roaring64.Bitmap
}

func newPostingList() *postingList {
	return &postingList{small: make(map[uint64]struct{})}
}

func (p *postingList) insert(id uint64) {
	if p.large != nil {
		p.large.Add(id)
		return
	}
	p.small[id] = struct{}{}
	if len(p.small) >= promotionThreshold {
		p.promote()
	}
}

func (p *postingList) promote() {
	bitmap := roaring64.New()
	for id := range p.small {
		bitmap.Add(id)
	}
	p.large = bitmap
	p.small = nil
}

func (p *postingList) remove(id uint64) {
	if p.large != nil {
		p.large.Remove(id)
		return
	}
	delete(p.small, id)
}

func (p *postingList) contains(id uint64) bool {
	if p.large != nil {
		return p.large.Contains(id)
	}
	_, ok := p.small[id]
	return ok
}

func (p *postingList) len() int {
	if p.large != nil {
		return int(p.large.GetCardinality())
	}
	return len(p.small)
}

func (p *postingList) isEmpty() bool {
	return p.len() == 0
}

// each calls fn once per document id in the posting list, in no particular
// order.
func (p *postingList) each(fn func(id uint64)) {
	if p.large != nil {
		it := p.large.Iterator()
		for it.HasNext() {
			fn(it.Next())
		}
		return
	}
	for id := range p.small {
		fn(id)
	}
}
