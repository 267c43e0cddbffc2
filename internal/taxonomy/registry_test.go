package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parthgeek/tally/internal/model"
)

func validSet() []model.Category {
	return []model.Category{
		{ID: 1, Slug: "operating-expenses", Name: "Operating Expenses", Type: model.AccountingOpex, Tier: 1, Industries: []string{model.IndustryAll}},
		{ID: 10, Slug: "travel", Name: "Travel", ParentID: intPtr(1), Type: model.AccountingOpex, Tier: 2, Industries: []string{model.IndustryAll}},
		{ID: 99, Slug: model.FallbackSlug, Name: "Miscellaneous", ParentID: intPtr(1), Type: model.AccountingOpex, Tier: 2, Industries: []string{model.IndustryAll}},
	}
}

func TestNewRegistryInvariants(t *testing.T) {
	tests := []struct {
		mutate  func([]model.Category) []model.Category
		name    string
		wantErr string
	}{
		{
			name:   "valid set",
			mutate: func(c []model.Category) []model.Category { return c },
		},
		{
			name: "duplicate id",
			mutate: func(c []model.Category) []model.Category {
				c[1].ID = 1
				return c
			},
			wantErr: "duplicate id",
		},
		{
			name: "duplicate slug",
			mutate: func(c []model.Category) []model.Category {
				c[1].Slug = model.FallbackSlug
				return c
			},
			wantErr: "duplicate slug",
		},
		{
			name: "tier-2 without parent",
			mutate: func(c []model.Category) []model.Category {
				c[1].ParentID = nil
				return c
			},
			wantErr: "require a parent",
		},
		{
			name: "parent does not exist",
			mutate: func(c []model.Category) []model.Category {
				c[1].ParentID = intPtr(42)
				return c
			},
			wantErr: "parent 42 does not exist",
		},
		{
			name: "parent must be tier-1",
			mutate: func(c []model.Category) []model.Category {
				c[1].ParentID = intPtr(99)
				return c
			},
			wantErr: "is not tier-1",
		},
		{
			name: "tier-1 with parent",
			mutate: func(c []model.Category) []model.Category {
				c[0].ParentID = intPtr(99)
				return c
			},
			wantErr: "cannot have a parent",
		},
		{
			name: "missing fallback",
			mutate: func(c []model.Category) []model.Category {
				return c[:2]
			},
			wantErr: `requires the "miscellaneous" fallback`,
		},
		{
			name: "bad tier",
			mutate: func(c []model.Category) []model.Category {
				c[1].Tier = 3
				return c
			},
			wantErr: "tier must be 1 or 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRegistry(tt.mutate(validSet()))
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				assert.Nil(t, r)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, r)
		})
	}
}

func TestRegistryResolve(t *testing.T) {
	r := Default()

	travel, ok := r.BySlug("travel")
	require.True(t, ok)
	assert.Equal(t, 31, travel.ID)

	_, ok = r.BySlug("definitely-not-a-category")
	assert.False(t, ok)

	// Resolve never returns nil.
	assert.Equal(t, model.FallbackSlug, r.Resolve("definitely-not-a-category").Slug)
	assert.Equal(t, "travel", r.Resolve("travel").Slug)

	parent := r.Parent(travel)
	require.NotNil(t, parent)
	assert.Equal(t, "operating-expenses", parent.Slug)
	assert.Same(t, parent, r.Parent(parent))

	fallback := r.Fallback()
	require.NotNil(t, fallback)
	assert.Equal(t, 99, fallback.ID)
}

func TestListByIndustry(t *testing.T) {
	r := Default()

	slugsOf := func(cats []model.Category) []string {
		out := make([]string, 0, len(cats))
		for _, c := range cats {
			out = append(out, c.Slug)
		}
		return out
	}

	consulting := slugsOf(r.ListByIndustry("consulting"))
	assert.Contains(t, consulting, "service-revenue")
	assert.Contains(t, consulting, "travel")
	assert.NotContains(t, consulting, "materials")

	retail := slugsOf(r.ListByIndustry("retail"))
	assert.Contains(t, retail, "materials")
	assert.Contains(t, retail, "merchant-fees")
	assert.NotContains(t, retail, "service-revenue")
}

func TestValidateAttributes(t *testing.T) {
	r := Default()
	travel, _ := r.BySlug("travel")
	software, _ := r.BySlug("software-subscriptions")
	meals, _ := r.BySlug("meals-and-entertainment")

	tests := []struct {
		attrs        map[string]any
		cat          *model.Category
		name         string
		wantProblems []string
	}{
		{
			name: "valid travel attributes",
			cat:  travel,
			attrs: map[string]any{
				"trip_purpose": "client visit",
				"destination":  "Austin",
			},
		},
		{
			name:         "missing required attribute",
			cat:          travel,
			attrs:        map[string]any{"destination": "Austin"},
			wantProblems: []string{"trip_purpose: required attribute missing"},
		},
		{
			name: "undeclared key",
			cat:  meals,
			attrs: map[string]any{
				"attendees": 4,
				"mood":      "great",
			},
			wantProblems: []string{"mood: not declared for category meals-and-entertainment"},
		},
		{
			name:         "wrong type",
			cat:          meals,
			attrs:        map[string]any{"attendees": true},
			wantProblems: []string{"attendees: expected number, got bool"},
		},
		{
			name:  "stringified number is accepted",
			cat:   meals,
			attrs: map[string]any{"attendees": "4"},
		},
		{
			name:  "enum member",
			cat:   software,
			attrs: map[string]any{"billing_period": "annual"},
		},
		{
			name:         "enum non-member",
			cat:          software,
			attrs:        map[string]any{"billing_period": "weekly"},
			wantProblems: []string{`billing_period: value "weekly" not in [monthly annual]`},
		},
		{
			name: "nil bag with no required attributes",
			cat:  software,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := r.ValidateAttributes(tt.cat, tt.attrs)
			assert.Equal(t, tt.wantProblems, problems)
		})
	}
}
