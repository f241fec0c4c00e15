package outfit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/raine/virtual-closet/internal/llm"
	"github.com/raine/virtual-closet/internal/wardrobe"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Reconcile maps a model reply back onto items of p. Only items that
// exist in p under the named category make it into the outfit; unknown
// categories, unknown IDs and "null" selections are dropped silently.
func Reconcile(text string, p wardrobe.Partition) (Outfit, error) {
	jsonStr, err := llm.ExtractJSONObject(text)
	if err != nil {
		return Outfit{}, fmt.Errorf("%w: %v", ErrNoJSONFound, err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &doc); err != nil {
		return Outfit{}, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	var selections map[string]json.RawMessage
	raw, ok := doc["outfit"]
	if !ok || json.Unmarshal(raw, &selections) != nil || selections == nil {
		return Outfit{}, ErrMissingOutfitKey
	}

	keys := make([]string, 0, len(selections))
	for k := range selections {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := Outfit{Items: make(map[wardrobe.Category]wardrobe.Item)}
	for _, key := range keys {
		c, ok := categoryKey(key)
		if !ok {
			continue
		}
		id, ok := selectionID(selections[key])
		if !ok {
			continue
		}
		item, found := p.Find(c, id)
		if !found {
			log.Debug().Str("category", string(c)).Str("id", id).Msg("model selected unknown item")
			continue
		}
		out.Items[c] = item
	}

	out.Reasoning = stringField(doc["reasoning"])
	if out.Reasoning == "" {
		out.Reasoning = defaultReasoning
	}

	occasion := stringField(doc["occasion"])
	if occasion == "" {
		occasion = stringField(selections["occasion"])
	}
	out.Name = defaultName
	if occasion != "" {
		out.Name = "AI Generated " + cases.Title(language.English).String(occasion)
	}

	return out, nil
}

// categoryKey accepts only keys naming a known category.
func categoryKey(key string) (wardrobe.Category, bool) {
	c := wardrobe.ParseCategory(key)
	if c == wardrobe.Other && strings.ToLower(strings.TrimSpace(key)) != string(wardrobe.Other) {
		return "", false
	}
	return c, true
}

// selectionID reads one outfit slot. JSON null, empty strings and the
// literal "null" all mean nothing was picked. Numeric IDs are kept in
// their literal form.
func selectionID(raw json.RawMessage) (string, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", false
	}
	var id string
	switch val := v.(type) {
	case string:
		id = val
	case json.Number:
		id = val.String()
	default:
		return "", false
	}
	trimmed := strings.TrimSpace(id)
	if trimmed == "" || strings.EqualFold(trimmed, "null") {
		return "", false
	}
	return id, true
}

func stringField(raw json.RawMessage) string {
	var s string
	if raw == nil || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
