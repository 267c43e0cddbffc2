// Package taxonomy holds the two-tier category graph and attribute schemas
// that every classifier output is resolved against.
package taxonomy

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/parthgeek/tally/internal/model"
)

// Registry is the read-mostly category graph, keyed by id and by slug. It is
// immutable after construction, so concurrent readers need no locking.
type Registry struct {
	byID   map[int]*model.Category
	bySlug map[string]*model.Category
	all    []model.Category
}

// NewRegistry builds a registry from the given categories, enforcing the
// graph invariants: unique ids and slugs, every tier-2 parent resolvable to a
// tier-1 node, and the miscellaneous fallback present.
func NewRegistry(categories []model.Category) (*Registry, error) {
	r := &Registry{
		byID:   make(map[int]*model.Category, len(categories)),
		bySlug: make(map[string]*model.Category, len(categories)),
		all:    make([]model.Category, len(categories)),
	}
	copy(r.all, categories)

	sort.Slice(r.all, func(i, j int) bool { return r.all[i].ID < r.all[j].ID })

	for i := range r.all {
		cat := &r.all[i]
		if cat.Slug == "" {
			return nil, fmt.Errorf("category %d: slug is required", cat.ID)
		}
		if cat.Tier != 1 && cat.Tier != 2 {
			return nil, fmt.Errorf("category %s: tier must be 1 or 2, got %d", cat.Slug, cat.Tier)
		}
		if _, dup := r.byID[cat.ID]; dup {
			return nil, fmt.Errorf("category %s: duplicate id %d", cat.Slug, cat.ID)
		}
		if _, dup := r.bySlug[cat.Slug]; dup {
			return nil, fmt.Errorf("duplicate slug %q", cat.Slug)
		}
		r.byID[cat.ID] = cat
		r.bySlug[cat.Slug] = cat
	}

	for i := range r.all {
		cat := &r.all[i]
		switch cat.Tier {
		case 1:
			if cat.ParentID != nil {
				return nil, fmt.Errorf("category %s: tier-1 categories cannot have a parent", cat.Slug)
			}
		case 2:
			if cat.ParentID == nil {
				return nil, fmt.Errorf("category %s: tier-2 categories require a parent", cat.Slug)
			}
			parent, ok := r.byID[*cat.ParentID]
			if !ok {
				return nil, fmt.Errorf("category %s: parent %d does not exist", cat.Slug, *cat.ParentID)
			}
			if parent.Tier != 1 {
				return nil, fmt.Errorf("category %s: parent %s is not tier-1", cat.Slug, parent.Slug)
			}
		}
	}

	if _, ok := r.bySlug[model.FallbackSlug]; !ok {
		return nil, fmt.Errorf("registry requires the %q fallback category", model.FallbackSlug)
	}

	return r, nil
}

// MustNewRegistry is NewRegistry for static category sets known at compile
// time. It panics on invariant violations.
func MustNewRegistry(categories []model.Category) *Registry {
	r, err := NewRegistry(categories)
	if err != nil {
		panic(err)
	}
	return r
}

// ByID resolves a category by its stable id.
func (r *Registry) ByID(id int) (*model.Category, bool) {
	cat, ok := r.byID[id]
	return cat, ok
}

// BySlug resolves a category by slug without falling back.
func (r *Registry) BySlug(slug string) (*model.Category, bool) {
	cat, ok := r.bySlug[slug]
	return cat, ok
}

// Resolve returns the category for slug, or the miscellaneous fallback when
// the slug is unknown. It never returns nil.
func (r *Registry) Resolve(slug string) *model.Category {
	if cat, ok := r.bySlug[slug]; ok {
		return cat
	}
	return r.bySlug[model.FallbackSlug]
}

// Fallback returns the miscellaneous category.
func (r *Registry) Fallback() *model.Category {
	return r.bySlug[model.FallbackSlug]
}

// Parent resolves the tier-1 parent of a tier-2 category. Tier-1 categories
// return themselves.
func (r *Registry) Parent(cat *model.Category) *model.Category {
	if cat.ParentID == nil {
		return cat
	}
	return r.byID[*cat.ParentID]
}

// All returns every category ordered by id.
func (r *Registry) All() []model.Category {
	out := make([]model.Category, len(r.all))
	copy(out, r.all)
	return out
}

// ListByIndustry returns categories whose industry set contains "all" or the
// requested vertical, ordered by id.
func (r *Registry) ListByIndustry(industry string) []model.Category {
	var out []model.Category
	for i := range r.all {
		if r.all[i].AppliesTo(industry) {
			out = append(out, r.all[i])
		}
	}
	return out
}

// ValidateAttributes checks an attribute bag against a category's schema.
// It returns one message per failed key and never panics or errors: an empty
// slice means the bag is valid.
func (r *Registry) ValidateAttributes(cat *model.Category, attrs map[string]any) []string {
	var problems []string

	for key := range attrs {
		if _, ok := cat.Attributes[key]; !ok {
			problems = append(problems, fmt.Sprintf("%s: not declared for category %s", key, cat.Slug))
		}
	}

	// Deterministic order for the declared keys.
	keys := make([]string, 0, len(cat.Attributes))
	for key := range cat.Attributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		schema := cat.Attributes[key]
		value, present := attrs[key]
		if !present {
			if schema.Required {
				problems = append(problems, fmt.Sprintf("%s: required attribute missing", key))
			}
			continue
		}
		if msg := checkAttributeValue(key, schema, value); msg != "" {
			problems = append(problems, msg)
		}
	}

	sort.Strings(problems)
	return problems
}

func checkAttributeValue(key string, schema model.AttributeSchema, value any) string {
	switch schema.Type {
	case model.AttributeString:
		if _, ok := value.(string); !ok {
			return fmt.Sprintf("%s: expected string, got %T", key, value)
		}
	case model.AttributeNumber:
		if !isNumeric(value) {
			return fmt.Sprintf("%s: expected number, got %T", key, value)
		}
	case model.AttributeBool:
		if _, ok := value.(bool); !ok {
			return fmt.Sprintf("%s: expected bool, got %T", key, value)
		}
	case model.AttributeEnum:
		s, ok := value.(string)
		if !ok {
			return fmt.Sprintf("%s: expected one of %v, got %T", key, schema.Allowed, value)
		}
		for _, allowed := range schema.Allowed {
			if s == allowed {
				return ""
			}
		}
		return fmt.Sprintf("%s: value %q not in %v", key, s, schema.Allowed)
	default:
		return fmt.Sprintf("%s: unknown attribute type %q", key, schema.Type)
	}
	return ""
}

func isNumeric(value any) bool {
	switch v := value.(type) {
	case int, int32, int64, float32, float64:
		return true
	case string:
		// JSON round-trips sometimes stringify numbers; accept them.
		_, err := strconv.ParseFloat(v, 64)
		return err == nil
	default:
		return false
	}
}
