package extract

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/raine/virtual-closet/internal/llm"
	"github.com/raine/virtual-closet/internal/wardrobe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	calls  atomic.Int32
	reply  string
	err    error
	prompt string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls.Add(1)
	f.prompt = prompt
	return f.reply, f.err
}

var page = Page{
	URL:      "https://shop.example/products/linen-shirt",
	ImageURL: "https://cdn.shop.example/linen-shirt.jpg",
	Title:    "Linen Shirt | Shop",
	Text:     "Relaxed linen shirt in white. 100% linen. 49,95 €",
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(page, 0)
	assert.True(t, strings.HasPrefix(prompt, "You are an AI assistant specialized in extracting product information"))
	assert.Contains(t, prompt, "The image URL associated with this product is: https://cdn.shop.example/linen-shirt.jpg")
	assert.Contains(t, prompt, "9. category: Identify which category")
	assert.True(t, strings.HasSuffix(prompt, "Here is the webpage content:\n"+page.Text))
}

func TestBuildPrompt_TruncatesPageText(t *testing.T) {
	long := page
	long.Text = strings.Repeat("ä", 50)
	prompt := BuildPrompt(long, 10)
	assert.True(t, strings.HasSuffix(prompt, "\n"+strings.Repeat("ä", 10)+"...(truncated)"))
}

func TestParseProduct(t *testing.T) {
	reply := "```json\n" + `{
		"title": "Relaxed Linen Shirt",
		"brand": "Acme",
		"price": 49.95,
		"originalPrice": null,
		"color": "white",
		"description": "A relaxed shirt.",
		"detailedDescription": null,
		"material": "100% linen",
		"category": "tops"
	}` + "\n```"

	p, err := ParseProduct(reply)
	require.NoError(t, err)
	item := p.Item(page)
	assert.Equal(t, "Relaxed Linen Shirt", item.Title)
	assert.Equal(t, "Acme", item.Brand)
	assert.Equal(t, "49.95", item.Price)
	assert.Empty(t, item.OriginalPrice)
	assert.Equal(t, "100% linen", item.Material)
	assert.Equal(t, wardrobe.Tops, item.Category)
	assert.Equal(t, page.URL, item.SourceURL)
	assert.Equal(t, page.ImageURL, item.ImageURL)
}

func TestParseProduct_Errors(t *testing.T) {
	_, err := ParseProduct("I could not find a product.")
	assert.ErrorIs(t, err, ErrNoProduct)

	_, err = ParseProduct(`{"title": "x",}`)
	assert.Error(t, err)

	_, err = ParseProduct(`{"title": null, "category": null}`)
	assert.ErrorIs(t, err, ErrNoProduct)

	_, err = ParseProduct(`{"title": ["a"]}`)
	assert.Error(t, err)
}

func TestProductItem_InfersCategory(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		category wardrobe.Category
	}{
		{"other is re-checked", `{"title":"Leather Chelsea Boots","category":"other"}`, wardrobe.Shoes},
		{"missing uses description", `{"title":"The Weekender","description":"A roomy canvas bag"}`, wardrobe.Accessories},
		{"label form", `{"title":"Wrap","category":"Dresses/Jumpsuits"}`, wardrobe.Dresses},
		{"nothing to go on", `{"title":"Gift card"}`, wardrobe.Other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseProduct(tt.json)
			require.NoError(t, err)
			assert.Equal(t, tt.category, p.Item(page).Category)
		})
	}
}

func TestProductItem_ClipsLongFields(t *testing.T) {
	p := Product{
		Title:       text(strings.Repeat("t", 600)),
		Description: text(strings.Repeat("d", 300)),
		Category:    "tops",
	}
	item := p.Item(page)
	assert.Len(t, item.Title, maxTitleLen)
	assert.Len(t, item.Description, maxDescriptionLen)
	assert.NoError(t, wardrobe.Validate(wardrobe.Item{ID: "x", Title: item.Title, Category: item.Category}))
}

func TestFallbackItem(t *testing.T) {
	item := FallbackItem(page)
	assert.Equal(t, "Linen Shirt | Shop", item.Title)
	assert.Equal(t, wardrobe.Tops, item.Category)
	assert.Equal(t, page.URL, item.SourceURL)

	item = FallbackItem(Page{URL: "https://shop.example/x"})
	assert.Equal(t, "Unknown Product", item.Title)
	assert.Equal(t, wardrobe.Other, item.Category)
}

func TestExtractor_CachesPerPage(t *testing.T) {
	completer := &fakeCompleter{reply: `{"title":"Relaxed Linen Shirt","category":"tops"}`}
	e, err := New(completer, Options{})
	require.NoError(t, err)

	ctx := context.Background()
	first, err := e.Extract(ctx, page)
	require.NoError(t, err)
	second, err := e.Extract(ctx, page)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), completer.calls.Load())

	other := page
	other.ImageURL = "https://cdn.shop.example/linen-shirt-blue.jpg"
	_, err = e.Extract(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, int32(2), completer.calls.Load())
}

func TestExtractor_Errors(t *testing.T) {
	e, err := New(&fakeCompleter{err: llm.ErrTimeout}, Options{})
	require.NoError(t, err)
	_, err = e.Extract(context.Background(), page)
	assert.ErrorIs(t, err, llm.ErrTimeout)

	completer := &fakeCompleter{reply: "no idea"}
	e, err = New(completer, Options{})
	require.NoError(t, err)
	_, err = e.Extract(context.Background(), page)
	assert.True(t, errors.Is(err, ErrNoProduct))

	// Failures are not cached.
	_, _ = e.Extract(context.Background(), page)
	assert.Equal(t, int32(2), completer.calls.Load())
}
