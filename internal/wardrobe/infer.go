package wardrobe

import "strings"

// palette is checked in order; the first colour found in a title wins.
var palette = []string{
	"red", "blue", "green", "yellow", "orange", "purple", "pink", "black",
	"white", "gray", "grey", "brown", "navy", "beige", "maroon", "teal", "olive",
	"turquoise", "lavender", "cream", "tan", "khaki",
}

// ColorFromTitle returns the first palette colour contained in the text,
// or an empty string when none matches. Matching is plain substring
// matching, so "Tank Top" reports "tan".
func ColorFromTitle(text string) string {
	lower := strings.ToLower(text)
	for _, color := range palette {
		if strings.Contains(lower, color) {
			return color
		}
	}
	return ""
}

var categoryKeywords = []struct {
	category Category
	keywords []string
}{
	{Tops, []string{"shirt", "top", "tee", "sweater", "blouse", "tank"}},
	{Bottoms, []string{"pant", "jean", "skirt", "short", "trouser", "chino"}},
	{Shoes, []string{"shoe", "boot", "sneaker", "sandal", "loafer", "heel"}},
	{Dresses, []string{"dress"}},
	{Outerwear, []string{"jacket", "coat", "hoodie", "cardigan", "blazer"}},
	{Accessories, []string{"hat", "scarf", "glove", "sock", "belt", "jewelry", "accessory", "bag", "purse", "watch"}},
}

// InferCategory guesses a category from free text such as a product title
// and description. Rules are checked in order, so "shirt dress" is Tops.
func InferCategory(texts ...string) Category {
	text := strings.ToLower(strings.Join(texts, " "))
	for _, rule := range categoryKeywords {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.category
			}
		}
	}
	return Other
}
