package outfit

import (
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/raine/virtual-closet/internal/wardrobe"
)

// Rand is the randomness source of the fallback generator. *rand.Rand
// satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

type occasion struct {
	name      string
	keywords  []string
	reasoning string
}

var (
	formalOccasion = occasion{
		name:      "Formal",
		keywords:  []string{"formal", "wedding", "dinner"},
		reasoning: "I've selected items that work well for a formal occasion, focusing on elegant pieces that create a polished look.",
	}
	casualOccasion = occasion{
		name:      "Casual",
		keywords:  []string{"casual", "coffee", "everyday"},
		reasoning: "I've created a relaxed, casual outfit that's comfortable yet stylish for everyday wear.",
	}
	summerOccasion = occasion{
		name:      "Summer",
		keywords:  []string{"summer", "hot", "beach"},
		reasoning: "I've selected light, breathable pieces that will keep you cool during the summer while looking stylish.",
	}
	winterOccasion = occasion{
		name:      "Winter",
		keywords:  []string{"winter", "cold", "snow"},
		reasoning: "I've chosen warm, layerable pieces that will keep you cozy in cold weather while maintaining a fashionable look.",
	}
	versatileOccasion = occasion{
		name:      "Versatile",
		reasoning: "I've selected versatile pieces that work well together and can be adapted for different settings.",
	}
)

// Checked in this order; the first match wins.
var occasions = []occasion{formalOccasion, casualOccasion, summerOccasion, winterOccasion}

func detectOccasion(intent string) occasion {
	intent = strings.ToLower(intent)
	for _, o := range occasions {
		for _, kw := range o.keywords {
			if strings.Contains(intent, kw) {
				return o
			}
		}
	}
	return versatileOccasion
}

// Draw order is fixed so a seeded Rand gives reproducible outfits.
var fallbackDraws = []wardrobe.Category{
	wardrobe.Tops,
	wardrobe.Bottoms,
	wardrobe.Shoes,
	wardrobe.Dresses,
	wardrobe.Accessories,
}

// Fallback builds outfits locally with a uniform random pick per category.
// It never fails and never returns an item that is not in the partition.
type Fallback struct {
	mu   sync.Mutex
	rand Rand
}

// NewFallback returns a generator drawing from r. A nil r uses the
// process-wide source.
func NewFallback(r Rand) *Fallback {
	if r == nil {
		r = globalRand{}
	}
	return &Fallback{rand: r}
}

// Generate picks at most one item per category. A dress replaces the
// top/bottom pair, and outerwear is only added for cold-weather intents.
func (f *Fallback) Generate(p wardrobe.Partition, intent string) Outfit {
	occ := detectOccasion(intent)

	f.mu.Lock()
	defer f.mu.Unlock()

	items := make(map[wardrobe.Category]wardrobe.Item)
	pick := func(c wardrobe.Category) {
		bucket := p.Items(c)
		if len(bucket) == 0 {
			return
		}
		items[c] = bucket[f.rand.IntN(len(bucket))]
	}

	for _, c := range fallbackDraws {
		pick(c)
	}
	if occ.name == winterOccasion.name {
		pick(wardrobe.Outerwear)
	}

	if _, ok := items[wardrobe.Dresses]; ok {
		delete(items, wardrobe.Tops)
		delete(items, wardrobe.Bottoms)
	}

	return Outfit{
		Items:     items,
		Reasoning: occ.reasoning,
		Name:      "AI Generated " + occ.name + " Outfit",
	}
}
