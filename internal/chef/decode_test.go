package chef

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestDecodeItems(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantNames []string
	}{
		{
			name:      "BareArray",
			content:   `[{"dish_name":"Kimchi nabe","category":"MainDish"},{"dish_name":"Ramen","category":"Other"}]`,
			wantNames: []string{"Kimchi nabe", "Ramen"},
		},
		{
			name:      "DishesKey",
			content:   `{"dishes":[{"dish_name":"Curry"}]}`,
			wantNames: []string{"Curry"},
		},
		{
			name:      "MenuKey",
			content:   `{"menu":[{"date":"2024-01-15","dish_name":"Salmon"}]}`,
			wantNames: []string{"Salmon"},
		},
		{
			name:      "EmptyWellKnownKeyFallsThrough",
			content:   `{"dishes":[],"items":[{"dish_name":"Tofu"}]}`,
			wantNames: []string{"Tofu"},
		},
		{
			name:      "FirstArrayValuedKey",
			content:   `{"note":"ok","result":[{"name":"Gyoza"}],"other":[{"name":"Rice"}]}`,
			wantNames: []string{"Gyoza"},
		},
		{
			name:      "CodeFence",
			content:   "```json\n{\"meals\":[{\"dish_name\":\"Udon\"}]}\n```",
			wantNames: []string{"Udon"},
		},
		{
			name:      "SurroundingProse",
			content:   "Here you go: {\"data\":[{\"dish_name\":\"Soba\"}]} Enjoy!",
			wantNames: []string{"Soba"},
		},
		{
			name:      "NonObjectElementsSkipped",
			content:   `[1, "x", {"dish_name":"Oden"}]`,
			wantNames: []string{"Oden"},
		},
		{
			name:      "NoArray",
			content:   `{"message":"nothing"}`,
			wantNames: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := decodeItems(tt.content)
			if err != nil {
				t.Fatalf("decodeItems failed: %v", err)
			}
			if len(items) != len(tt.wantNames) {
				t.Fatalf("Expected %d items, got %d (%+v)", len(tt.wantNames), len(items), items)
			}
			for i, want := range tt.wantNames {
				if got := items[i].dishName(); got != want {
					t.Errorf("item %d: expected %q, got %q", i, want, got)
				}
			}
		})
	}
}

func TestDecodeItemsErrors(t *testing.T) {
	for _, content := range []string{"", "   ", "not json at all", `{"dishes": [`} {
		if _, err := decodeItems(content); err == nil {
			t.Errorf("Expected error for %q", content)
		}
	}
}

func TestDecodeShoppingListShapes(t *testing.T) {
	items, err := decodeItems(`[{"dish_name":"A","shopping_list":"egg, leek"},{"dish_name":"B","shopping_list":["pork","cabbage"]}]`)
	if err != nil {
		t.Fatalf("decodeItems failed: %v", err)
	}
	if items[0].ShoppingList != "egg, leek" {
		t.Errorf("Unexpected string shopping list %q", items[0].ShoppingList)
	}
	if items[1].ShoppingList != "pork, cabbage" {
		t.Errorf("Unexpected array shopping list %q", items[1].ShoppingList)
	}
}

func TestSnippetKeepsRunesWhole(t *testing.T) {
	// Each kana is three bytes, so the byte limit falls mid-rune.
	s := "a献立" + strings.Repeat("あ", 60)
	got := snippet(s)
	if !utf8.ValidString(got) {
		t.Fatalf("snippet produced invalid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, "...") || len(got) > 123 {
		t.Errorf("Unexpected snippet %q", got)
	}
	if snippet("short  reply") != "short reply" {
		t.Errorf("Short input should only be whitespace-folded, got %q", snippet("short  reply"))
	}
}
