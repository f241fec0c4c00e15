package wardrobe

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id string, c Category, addedAt time.Time) Item {
	return Item{ID: id, Title: "Item " + id, Category: c, AddedAt: addedAt}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
	}{
		{"tops", Tops},
		{" Shoes ", Shoes},
		{"dresses/jumpsuits", Dresses},
		{"DRESSES", Dresses},
		{"swimwear", Other},
		{"", Other},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCategory(tt.in))
		})
	}
}

func TestNewPartition_Unbounded(t *testing.T) {
	now := time.Now()
	items := []Item{
		item("1", Tops, now),
		item("2", Bottoms, now),
		item("3", Tops, now.Add(time.Minute)),
		item("4", Category("swimwear"), now),
		item("5", Shoes, now),
	}

	p := NewPartition(items, 0)

	assert.Equal(t, len(items), p.Len())
	assert.Equal(t, []Category{Tops, Bottoms, Shoes, Other}, p.Categories())
	// Input order is preserved without a bound.
	require.Len(t, p.Items(Tops), 2)
	assert.Equal(t, "1", p.Items(Tops)[0].ID)
	assert.Equal(t, "3", p.Items(Tops)[1].ID)
	assert.Equal(t, "4", p.Items(Other)[0].ID)
	assert.Nil(t, p.Items(Dresses))
}

func TestNewPartition_BoundKeepsMostRecent(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var items []Item
	for i := 0; i < 5; i++ {
		items = append(items, item(fmt.Sprint(i), Tops, base.Add(time.Duration(i)*time.Hour)))
	}
	items = append(items, item("b", Bottoms, base))

	p := NewPartition(items, 2)

	tops := p.Items(Tops)
	require.Len(t, tops, 2)
	assert.Equal(t, "4", tops[0].ID)
	assert.Equal(t, "3", tops[1].ID)
	assert.Len(t, p.Items(Bottoms), 1)
	assert.Equal(t, 3, p.Len())
}

func TestNewPartition_NeverLosesOrDuplicates(t *testing.T) {
	base := time.Now()
	var items []Item
	for i := 0; i < 40; i++ {
		c := Categories[i%len(Categories)]
		items = append(items, item(fmt.Sprint(i), c, base.Add(time.Duration(i)*time.Second)))
	}

	p := NewPartition(items, 0)
	assert.Equal(t, len(items), p.Len())

	seen := map[string]bool{}
	for _, c := range p.Categories() {
		for _, it := range p.Items(c) {
			assert.False(t, seen[it.ID], "duplicate item %s", it.ID)
			seen[it.ID] = true
		}
	}
	assert.Len(t, seen, len(items))

	bounded := NewPartition(items, 3)
	assert.LessOrEqual(t, bounded.Len(), len(items))
}

func TestNewPartition_Empty(t *testing.T) {
	p := NewPartition(nil, 10)
	assert.True(t, p.Empty())
	assert.Empty(t, p.Categories())
	assert.Nil(t, p.Items(Tops))
}

func TestPartition_FindAndOnly(t *testing.T) {
	now := time.Now()
	p := NewPartition([]Item{item("a", Tops, now), item("b", Shoes, now)}, 0)

	found, ok := p.Find(Tops, "a")
	assert.True(t, ok)
	assert.Equal(t, "a", found.ID)

	_, ok = p.Find(Shoes, "a")
	assert.False(t, ok, "lookup is scoped to the category")

	only := p.Only(Shoes)
	assert.Equal(t, []Category{Shoes}, only.Categories())
	assert.Equal(t, p, p.Only())
}

func TestColorFromTitle(t *testing.T) {
	assert.Equal(t, "navy", ColorFromTitle("Slim NAVY chinos"))
	assert.Equal(t, "red", ColorFromTitle("Red and blue scarf"))
	assert.Equal(t, "", ColorFromTitle("Linen shirt"))
	assert.Equal(t, "", ColorFromTitle(""))
}

func TestInferCategory(t *testing.T) {
	assert.Equal(t, Tops, InferCategory("Cotton Tee", ""))
	assert.Equal(t, Bottoms, InferCategory("Wide leg jeans"))
	assert.Equal(t, Shoes, InferCategory("Leather loafers"))
	assert.Equal(t, Dresses, InferCategory("Midi dress", "floral"))
	assert.Equal(t, Outerwear, InferCategory("Wool coat"))
	assert.Equal(t, Accessories, InferCategory("Silk scarf"))
	assert.Equal(t, Other, InferCategory("Umbrella"))
}

func TestSameAs(t *testing.T) {
	a := Item{ID: "1", SourceURL: "https://shop/p", ImageURL: "https://shop/i.jpg"}
	b := Item{ID: "2", SourceURL: "https://shop/p", ImageURL: "https://shop/i.jpg"}
	c := Item{ID: "3", SourceURL: "https://shop/p", ImageURL: "https://shop/other.jpg"}
	assert.True(t, a.SameAs(b))
	assert.False(t, a.SameAs(c))
	assert.False(t, Item{ID: "4"}.SameAs(Item{ID: "5"}))
}

func TestValidate(t *testing.T) {
	ok := Item{ID: "1", Category: Tops}
	assert.NoError(t, Validate(ok))

	assert.Error(t, Validate(Item{Category: Tops}), "missing id")
	assert.Error(t, Validate(Item{ID: "1", Category: "hats"}), "unknown category")
	assert.Error(t, Validate(Item{ID: "1"}), "missing category")
}
