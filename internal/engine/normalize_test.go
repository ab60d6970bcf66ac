package engine

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"oes to o", "Tomatoes", "tomato"},
		{"singular oe drops e", "shoe", "sho"},
		{"ies to y", "Categories", "category"},
		{"ves to f", "Shelves", "shelf"},
		{"es dropped", "Boxes", "box"},
		{"s dropped", "Bags", "bag"},
		{"ss kept", "Glass", "glass"},
		{"us kept", "Cactus", "cactus"},
		{"known mis-stem", "gas", "ga"},
		{"no suffix", "Sand", "sand"},
		{"whitespace collapsed", "  Cement   Bags ", "cement bag"},
		{"hyphen and underscore", "Re-bar_rods", "re bar rod"},
		{"straight quotes", `"Quoted" Item's`, "quoted item"},
		{"curly quotes", "‘Lumber’ “2x4”", "lumber 2x4"},
		{"dangling hyphen", "-Bags-", "bag"},
		{"empty", "", ""},
		{"blank", "   ", ""},
		{"only quotes", `""`, ""},
		{"rule applies to last word only", "Boxes of Nails", "boxes of nail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	names := []string{
		"Tomatoes", "Potatoes", "Categories", "Batteries", "Shelves", "Gloves",
		"Boxes", "Paint Brushes", "PVC Pipes", "Bags", "Cement Bags", "Nails",
		"Steel Bars", "Hollow Blocks", "Plywood Sheets", "Safety Glasses",
		"Hard Hats", "Gravel", "Sand", "Cactus", "Re-bar_rods", `"Quoted" Item's`,
		"  spaced   out  ", "-Bags-", "Knives", "",
	}

	for _, n := range names {
		once := Normalize(n)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize(Normalize(%q)) = %q, want %q", n, twice, once)
		}
	}
}

func TestPluralRules_FireAtMostOnce(t *testing.T) {
	// "oes" would also satisfy the "es" and "s" rules; only the first applies.
	if got := Normalize("Heroes"); got != "hero" {
		t.Errorf("Normalize(Heroes) = %q, want %q", got, "hero")
	}
	// "ies" must not fall through to "es".
	if got := Normalize("Supplies"); got != "supply" {
		t.Errorf("Normalize(Supplies) = %q, want %q", got, "supply")
	}
}

func TestSameDisplayName(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"Cement Bags", "cement bags", true},
		{" Sand ", "sand", true},
		{"Cement Bag", "cement bags", false},
		{"Re-bar", "rebar", false},
	}
	for _, tt := range tests {
		if got := sameDisplayName(tt.a, tt.b); got != tt.want {
			t.Errorf("sameDisplayName(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

// Stemming is a single suffix strip, so feeding a key back through Normalize
// can shorten it again. Keys are always derived from the raw name.
func TestNormalize_KnownNonIdempotent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Lenses", "lens"},
		{"lens", "len"},
		{"Bases", "bas"},
		{"bas", "ba"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
