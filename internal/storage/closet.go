package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator"
	"github.com/google/uuid"
	"github.com/raine/virtual-closet/internal/outfit"
	"github.com/raine/virtual-closet/internal/wardrobe"
	"github.com/rs/zerolog/log"
)

const (
	wardrobeKey = "wardrobe"
	outfitsKey  = "outfits"
)

var ErrNotFound = errors.New("not found")

// SavedOutfit is an outfit the user chose to keep. Items are referenced by
// ID so later edits to an item show up in the saved outfit.
type SavedOutfit struct {
	ID        string                       `json:"id" validate:"required"`
	Name      string                       `json:"name" validate:"required"`
	Reasoning string                       `json:"reasoning"`
	ItemIDs   map[wardrobe.Category]string `json:"items"`
	Source    outfit.Source                `json:"source,omitempty"`
	CreatedAt time.Time                    `json:"createdAt"`
}

var outfitValidator = validator.New()

// Closet persists the wardrobe and saved outfits as two JSON documents in
// a KeyValueStore.
type Closet struct {
	store KeyValueStore
	mu    sync.Mutex
	now   func() time.Time
}

func NewCloset(store KeyValueStore) *Closet {
	return &Closet{store: store, now: time.Now}
}

// Wardrobe returns every stored item, newest first.
func (c *Closet) Wardrobe(ctx context.Context) ([]wardrobe.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadWardrobe(ctx)
}

// Upsert adds item, or replaces the stored item it is the same as. A
// replaced item keeps its stored ID and AddedAt. The boolean reports
// whether a new item was created.
func (c *Closet) Upsert(ctx context.Context, item wardrobe.Item) (wardrobe.Item, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.loadWardrobe(ctx)
	if err != nil {
		return wardrobe.Item{}, false, err
	}

	if !item.Category.Valid() {
		item.Category = wardrobe.ParseCategory(string(item.Category))
	}

	idx := -1
	for i, existing := range items {
		if existing.SameAs(item) || (item.ID != "" && existing.ID == item.ID) {
			idx = i
			break
		}
	}

	created := idx == -1
	if created {
		if item.ID == "" {
			item.ID = wardrobe.NewID()
		}
		if item.AddedAt.IsZero() {
			item.AddedAt = c.now()
		}
	} else {
		item.ID = items[idx].ID
		item.AddedAt = items[idx].AddedAt
	}

	if err := wardrobe.Validate(item); err != nil {
		return wardrobe.Item{}, false, err
	}

	if created {
		items = append(items, item)
	} else {
		items[idx] = item
	}
	if err := c.saveDocument(ctx, wardrobeKey, items); err != nil {
		return wardrobe.Item{}, false, err
	}

	log.Info().Str("id", item.ID).Str("category", string(item.Category)).Bool("created", created).Msg("stored wardrobe item")
	return item, created, nil
}

// Remove deletes the item with the given ID. Removing an unknown ID
// returns ErrNotFound.
func (c *Closet) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.loadWardrobe(ctx)
	if err != nil {
		return err
	}
	kept := items[:0]
	for _, item := range items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(items) {
		return fmt.Errorf("wardrobe item %q: %w", id, ErrNotFound)
	}
	return c.saveDocument(ctx, wardrobeKey, kept)
}

// Outfits returns saved outfits, newest first.
func (c *Closet) Outfits(ctx context.Context) ([]SavedOutfit, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadOutfits(ctx)
}

// SaveOutfit stores o under a new ID.
func (c *Closet) SaveOutfit(ctx context.Context, o outfit.Outfit, source outfit.Source) (SavedOutfit, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	saved := SavedOutfit{
		ID:        uuid.NewString(),
		Name:      o.Name,
		Reasoning: o.Reasoning,
		ItemIDs:   make(map[wardrobe.Category]string, len(o.Items)),
		Source:    source,
		CreatedAt: c.now(),
	}
	for cat, item := range o.Items {
		saved.ItemIDs[cat] = item.ID
	}
	if err := outfitValidator.Struct(saved); err != nil {
		return SavedOutfit{}, fmt.Errorf("invalid outfit: %w", err)
	}

	outfits, err := c.loadOutfits(ctx)
	if err != nil {
		return SavedOutfit{}, err
	}
	outfits = append(outfits, saved)
	if err := c.saveDocument(ctx, outfitsKey, outfits); err != nil {
		return SavedOutfit{}, err
	}
	return saved, nil
}

// DeleteOutfit removes a saved outfit by ID.
func (c *Closet) DeleteOutfit(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	outfits, err := c.loadOutfits(ctx)
	if err != nil {
		return err
	}
	kept := outfits[:0]
	for _, o := range outfits {
		if o.ID != id {
			kept = append(kept, o)
		}
	}
	if len(kept) == len(outfits) {
		return fmt.Errorf("outfit %q: %w", id, ErrNotFound)
	}
	return c.saveDocument(ctx, outfitsKey, kept)
}

// Resolve looks up the items of a saved outfit in items. Items that no
// longer exist are left out.
func (s SavedOutfit) Resolve(items []wardrobe.Item) map[wardrobe.Category]wardrobe.Item {
	byID := make(map[string]wardrobe.Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	out := make(map[wardrobe.Category]wardrobe.Item)
	for cat, id := range s.ItemIDs {
		if item, ok := byID[id]; ok {
			out[cat] = item
		}
	}
	return out
}

func (c *Closet) loadWardrobe(ctx context.Context) ([]wardrobe.Item, error) {
	records, err := c.loadDocument(ctx, wardrobeKey)
	if err != nil {
		return nil, err
	}
	items := make([]wardrobe.Item, 0, len(records))
	for i, raw := range records {
		var item wardrobe.Item
		if err := json.Unmarshal(raw, &item); err != nil {
			log.Warn().Err(err).Int("index", i).Msg("skipping unreadable wardrobe record")
			continue
		}
		if err := wardrobe.Validate(item); err != nil {
			log.Warn().Err(err).Int("index", i).Msg("skipping invalid wardrobe record")
			continue
		}
		items = append(items, item)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].AddedAt.After(items[j].AddedAt)
	})
	return items, nil
}

func (c *Closet) loadOutfits(ctx context.Context) ([]SavedOutfit, error) {
	records, err := c.loadDocument(ctx, outfitsKey)
	if err != nil {
		return nil, err
	}
	outfits := make([]SavedOutfit, 0, len(records))
	for i, raw := range records {
		var o SavedOutfit
		if err := json.Unmarshal(raw, &o); err != nil {
			log.Warn().Err(err).Int("index", i).Msg("skipping unreadable outfit record")
			continue
		}
		if err := outfitValidator.Struct(o); err != nil {
			log.Warn().Err(err).Int("index", i).Msg("skipping invalid outfit record")
			continue
		}
		outfits = append(outfits, o)
	}
	sort.SliceStable(outfits, func(i, j int) bool {
		return outfits[i].CreatedAt.After(outfits[j].CreatedAt)
	})
	return outfits, nil
}

// loadDocument reads a JSON array stored under key. Records are returned
// raw so a single bad record does not hide the rest.
func (c *Closet) loadDocument(ctx context.Context, key string) ([]json.RawMessage, error) {
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok || len(data) == 0 {
		return nil, nil
	}
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("stored document is not a list, treating as empty")
		return nil, nil
	}
	return records, nil
}

func (c *Closet) saveDocument(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := c.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
