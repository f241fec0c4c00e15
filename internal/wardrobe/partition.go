package wardrobe

import "sort"

// Partition is a catalog grouped by category. The prompt builder, the
// reconciler and the fallback generator all read from this one type.
type Partition struct {
	buckets map[Category][]Item
}

// NewPartition groups items by category. When maxPerCategory is positive,
// each bucket keeps only the most recently added items up to that bound.
// Otherwise buckets keep the input order and nothing is dropped.
// Items with an unknown category are filed under Other.
func NewPartition(items []Item, maxPerCategory int) Partition {
	p := Partition{buckets: make(map[Category][]Item)}
	for _, item := range items {
		c := item.Category
		if !c.Valid() {
			c = Other
		}
		p.buckets[c] = append(p.buckets[c], item)
	}

	if maxPerCategory > 0 {
		for c, bucket := range p.buckets {
			sort.SliceStable(bucket, func(i, j int) bool {
				return bucket[i].AddedAt.After(bucket[j].AddedAt)
			})
			if len(bucket) > maxPerCategory {
				p.buckets[c] = bucket[:maxPerCategory]
			}
		}
	}

	return p
}

// Items returns the bucket for c. Categories with no items return nil.
func (p Partition) Items(c Category) []Item {
	return p.buckets[c]
}

// Categories returns the non-empty categories in canonical order.
func (p Partition) Categories() []Category {
	var out []Category
	for _, c := range Categories {
		if len(p.buckets[c]) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// Len is the total number of items across all buckets.
func (p Partition) Len() int {
	n := 0
	for _, bucket := range p.buckets {
		n += len(bucket)
	}
	return n
}

// Empty reports whether the partition holds no items at all.
func (p Partition) Empty() bool {
	return p.Len() == 0
}

// Find looks up an item by exact ID within category c.
func (p Partition) Find(c Category, id string) (Item, bool) {
	for _, item := range p.buckets[c] {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

// Only returns a partition restricted to the given categories. With no
// categories the partition is returned unchanged.
func (p Partition) Only(categories ...Category) Partition {
	if len(categories) == 0 {
		return p
	}
	out := Partition{buckets: make(map[Category][]Item)}
	for _, c := range categories {
		if bucket, ok := p.buckets[c]; ok {
			out.buckets[c] = bucket
		}
	}
	return out
}
