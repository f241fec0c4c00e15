package outfit

import (
	"context"
	"time"

	"github.com/raine/virtual-closet/internal/llm"
	"github.com/raine/virtual-closet/internal/wardrobe"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const DefaultMaxPerCategory = 15

type Options struct {
	// MaxPerCategory bounds each category in the prompt. Zero uses
	// DefaultMaxPerCategory; negative disables the bound.
	MaxPerCategory int
	PromptMaxChars int
	CacheTTL       time.Duration
	Clock          Clock
	Rand           Rand
}

// Request is a generation request. Categories, when set, restricts the
// candidate items to those categories before anything else happens.
type Request struct {
	Items      []wardrobe.Item
	Intent     string
	Categories []wardrobe.Category
}

// Generator runs the outfit pipeline: partition, prompt, complete,
// reconcile, and fall back on any failure. Results are cached per
// (intent, wardrobe) and concurrent identical requests share one run.
type Generator struct {
	completer      llm.Completer
	fallback       *Fallback
	cache          *ResultCache
	group          singleflight.Group
	maxPerCategory int
	promptMaxChars int
}

func NewGenerator(completer llm.Completer, opts Options) *Generator {
	maxPer := opts.MaxPerCategory
	if maxPer == 0 {
		maxPer = DefaultMaxPerCategory
	}
	return &Generator{
		completer:      completer,
		fallback:       NewFallback(opts.Rand),
		cache:          NewResultCache(opts.CacheTTL, opts.Clock),
		maxPerCategory: maxPer,
		promptMaxChars: opts.PromptMaxChars,
	}
}

// Cache exposes the result cache, e.g. to invalidate after wardrobe edits.
func (g *Generator) Cache() *ResultCache {
	return g.cache
}

// Generate always returns a usable result. Remote failures are recorded in
// Result.FallbackReason.
func (g *Generator) Generate(ctx context.Context, items []wardrobe.Item, intent string) Result {
	return g.GenerateRequest(ctx, Request{Items: items, Intent: intent})
}

func (g *Generator) GenerateRequest(ctx context.Context, req Request) Result {
	items := filterCategories(req.Items, req.Categories)
	key := CacheKey(req.Intent, items)

	if r, ok := g.cache.Get(key); ok {
		log.Debug().Str("key", key[:12]).Msg("outfit cache hit")
		return r
	}

	// The shared run must not die with whichever caller started it.
	ch := g.group.DoChan(key, func() (any, error) {
		if r, ok := g.cache.Get(key); ok {
			return r, nil
		}
		r := g.run(context.WithoutCancel(ctx), items, req.Intent)
		g.cache.Put(key, r)
		return r, nil
	})

	select {
	case res := <-ch:
		return res.Val.(Result)
	case <-ctx.Done():
		return g.fallbackResult(wardrobe.NewPartition(items, 0), req.Intent, ctx.Err())
	}
}

// run makes at most one remote attempt. The fallback draws from the whole
// snapshot, not just the bounded part that was shown to the model.
func (g *Generator) run(ctx context.Context, items []wardrobe.Item, intent string) Result {
	full := wardrobe.NewPartition(items, 0)
	if full.Empty() {
		return g.fallbackResult(full, intent, ErrEmptyCatalog)
	}
	if g.completer == nil {
		return g.fallbackResult(full, intent, ErrNoCompleter)
	}
	p := wardrobe.NewPartition(items, g.maxPerCategory)

	prompt := BuildPrompt(p, intent, g.promptMaxChars)
	started := time.Now()
	text, err := g.completer.Complete(ctx, prompt)
	if err != nil {
		return g.fallbackResult(full, intent, err)
	}

	o, err := Reconcile(text, p)
	if err != nil {
		return g.fallbackResult(full, intent, err)
	}

	log.Info().
		Int("candidates", p.Len()).
		Int("selected", len(o.Items)).
		Dur("took", time.Since(started)).
		Msg("generated outfit")

	return Result{Outfit: o, Source: SourceRemote}
}

func (g *Generator) fallbackResult(p wardrobe.Partition, intent string, reason error) Result {
	log.Warn().Err(reason).Msg("using fallback outfit")
	return Result{
		Outfit:         g.fallback.Generate(p, intent),
		Source:         SourceFallback,
		FallbackReason: reason,
	}
}

func filterCategories(items []wardrobe.Item, categories []wardrobe.Category) []wardrobe.Item {
	if len(categories) == 0 {
		return items
	}
	keep := make(map[wardrobe.Category]bool, len(categories))
	for _, c := range categories {
		keep[c] = true
	}
	var out []wardrobe.Item
	for _, item := range items {
		c := item.Category
		if !c.Valid() {
			c = wardrobe.Other
		}
		if keep[c] {
			out = append(out, item)
		}
	}
	return out
}
