// Package extract turns the text of a shop's product page into a wardrobe
// item with the help of a language model.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"
	"github.com/lithammer/dedent"
	"github.com/raine/virtual-closet/internal/llm"
	"github.com/raine/virtual-closet/internal/wardrobe"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultMaxPageChars bounds the page text sent to the model.
	DefaultMaxPageChars = 6000
	DefaultCacheTTL     = time.Hour

	unknownTitle = "Unknown Product"

	maxTitleLen               = 500
	maxDescriptionLen         = 200
	maxDetailedDescriptionLen = 1000
)

var ErrNoProduct = errors.New("reply does not describe a product")

// Page is what a browser sees of a product page.
type Page struct {
	URL      string
	ImageURL string
	Title    string
	Text     string
}

// Product is the model's reading of a page. Every field may be missing.
type Product struct {
	Title               text `json:"title"`
	Brand               text `json:"brand"`
	Price               text `json:"price"`
	OriginalPrice       text `json:"originalPrice"`
	Color               text `json:"color"`
	Description         text `json:"description"`
	DetailedDescription text `json:"detailedDescription"`
	Material            text `json:"material"`
	Category            text `json:"category"`
}

// text is a JSON field the model may fill with a string, a number or null.
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case nil:
		*t = ""
	case string:
		*t = text(strings.TrimSpace(val))
	case float64:
		*t = text(strconv.FormatFloat(val, 'f', -1, 64))
	case bool:
		*t = text(strconv.FormatBool(val))
	default:
		return fmt.Errorf("unexpected JSON value %s", data)
	}
	return nil
}

type Options struct {
	MaxPageChars int
	CacheTTL     time.Duration
}

// Extractor asks a Completer to read product pages. Results are memoized
// per page URL and image.
type Extractor struct {
	completer    llm.Completer
	cache        *cache.Cache[wardrobe.Item]
	ristretto    *ristretto.Cache
	maxPageChars int
	ttl          time.Duration
}

func New(completer llm.Completer, opts Options) (*Extractor, error) {
	ristrettoCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     1 << 12,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ristretto cache: %w", err)
	}

	e := &Extractor{
		completer:    completer,
		cache:        cache.New[wardrobe.Item](ristretto_store.NewRistretto(ristrettoCache)),
		ristretto:    ristrettoCache,
		maxPageChars: DefaultMaxPageChars,
		ttl:          DefaultCacheTTL,
	}
	if opts.MaxPageChars > 0 {
		e.maxPageChars = opts.MaxPageChars
	}
	if opts.CacheTTL > 0 {
		e.ttl = opts.CacheTTL
	}
	return e, nil
}

// Extract returns the page as a wardrobe item without ID or AddedAt.
// On error the caller can still store FallbackItem(page).
func (e *Extractor) Extract(ctx context.Context, page Page) (wardrobe.Item, error) {
	key := cacheKey(page)
	if item, err := e.cache.Get(ctx, key); err == nil {
		log.Debug().Str("url", page.URL).Msg("extraction cache hit")
		return item, nil
	}

	reply, err := e.completer.Complete(ctx, BuildPrompt(page, e.maxPageChars))
	if err != nil {
		return wardrobe.Item{}, fmt.Errorf("failed to extract product: %w", err)
	}

	product, err := ParseProduct(reply)
	if err != nil {
		return wardrobe.Item{}, err
	}
	item := product.Item(page)

	if err := e.cache.Set(ctx, key, item, store.WithExpiration(e.ttl), store.WithCost(1)); err != nil {
		log.Warn().Err(err).Msg("failed to cache extraction")
	} else {
		e.ristretto.Wait()
	}

	log.Info().
		Str("url", page.URL).
		Str("title", item.Title).
		Str("category", string(item.Category)).
		Msg("extracted product")

	return item, nil
}

func cacheKey(page Page) string {
	return page.URL + "\x00" + page.ImageURL
}

const promptTemplate = `
	You are an AI assistant specialized in extracting product information from e-commerce websites.
	I need you to analyze the following text from a product page and extract structured product information.
	Focus specifically on clothing or accessory product details.

	Extract the following information in JSON format:
	1. title: The name of the product
	2. brand: The brand name if available
	3. price: The price with currency symbol if available
	4. originalPrice: If there's a sale, the original price before discount
	5. color: The color of the product if mentioned
	6. description: A concise description of the product (max 200 characters)
	7. detailedDescription: A more complete description with features, material, etc. (max 1000 characters)
	8. material: The fabric/material composition if available
	9. category: Identify which category this belongs to: tops, bottoms, dresses, outerwear, shoes, accessories, or other

	IMPORTANT: The image URL associated with this product is: %s
	Respond ONLY with valid JSON without any other text or explanations.
	If you can't determine a specific field, use null for that field.

	Here is the webpage content:
	`

// BuildPrompt renders the extraction prompt. Page text beyond maxChars
// characters is cut and marked.
func BuildPrompt(page Page, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxPageChars
	}
	pageText := page.Text
	if r := []rune(pageText); len(r) > maxChars {
		pageText = string(r[:maxChars]) + "...(truncated)"
	}
	header := fmt.Sprintf(strings.TrimSpace(dedent.Dedent(promptTemplate)), page.ImageURL)
	return header + "\n" + pageText
}

// ParseProduct reads the model reply. A reply without the JSON object, or
// with neither a title nor a category, is an error.
func ParseProduct(reply string) (Product, error) {
	jsonStr, err := llm.ExtractJSONObject(reply)
	if err != nil {
		return Product{}, fmt.Errorf("%w: %v", ErrNoProduct, err)
	}
	var p Product
	if err := json.Unmarshal([]byte(jsonStr), &p); err != nil {
		return Product{}, fmt.Errorf("failed to parse product JSON: %w", err)
	}
	if p.Title == "" && p.Category == "" {
		return Product{}, ErrNoProduct
	}
	return p, nil
}

// Item converts the product to a wardrobe item. A missing or "other"
// category is guessed from the title and descriptions.
func (p Product) Item(page Page) wardrobe.Item {
	title := string(p.Title)
	if title == "" {
		title = strings.TrimSpace(page.Title)
	}
	if title == "" {
		title = unknownTitle
	}

	category := wardrobe.ParseCategory(string(p.Category))
	if category == wardrobe.Other {
		category = wardrobe.InferCategory(title, string(p.Description), string(p.DetailedDescription))
	}

	color := string(p.Color)
	if color == "" {
		color = wardrobe.ColorFromTitle(title)
	}

	return wardrobe.Item{
		Title:               clip(title, maxTitleLen),
		Brand:               string(p.Brand),
		Price:               string(p.Price),
		OriginalPrice:       string(p.OriginalPrice),
		Color:               color,
		Description:         clip(string(p.Description), maxDescriptionLen),
		DetailedDescription: clip(string(p.DetailedDescription), maxDetailedDescriptionLen),
		Material:            string(p.Material),
		Category:            category,
		ImageURL:            page.ImageURL,
		SourceURL:           page.URL,
	}
}

// FallbackItem is what gets stored when extraction fails: the page title
// and a category guessed from it.
func FallbackItem(page Page) wardrobe.Item {
	title := strings.TrimSpace(page.Title)
	if title == "" {
		title = unknownTitle
	}
	return wardrobe.Item{
		Title:     clip(title, maxTitleLen),
		Color:     wardrobe.ColorFromTitle(title),
		Category:  wardrobe.InferCategory(title),
		ImageURL:  page.ImageURL,
		SourceURL: page.URL,
	}
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
