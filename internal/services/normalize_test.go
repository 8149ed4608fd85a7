package services

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"accents", "José Müller", "josemuller"},
		{"punctuation and spaces", "  Anne-Marie O'Neil ", "annemarieoneil"},
		{"uppercase accents", "ÉLODIE Béranger", "elodieberanger"},
		{"ligature", "Cœur de Lion", "coeurdelion"},
		{"stroke letter", "Łukasz Øster", "lukaszoster"},
		{"digits kept", "Zoë 2", "zoe2"},
		{"tabs and newlines", "Jean\tPaul\nSartre", "jeanpaulsartre"},
		{"only punctuation", "!!! ---", ""},
		{"empty", "", ""},
		{"non latin dropped", "李雷", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.in); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeNameCollisions(t *testing.T) {
	if NormalizeName("Hélène Dupont") != NormalizeName("helene  DUPONT") {
		t.Error("Expected names differing only by accents, case and spacing to collide")
	}
	if NormalizeName("Hélène Dupont") == NormalizeName("Helena Dupont") {
		t.Error("Expected different names not to collide")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Alice@Example.COM "); got != "alice@example.com" {
		t.Errorf("Expected alice@example.com, got %q", got)
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := map[string]string{
		"06 12 34 56 78":     "0612345678",
		"+33\t6 12 34 56 78": "+33612345678",
		"0612345678":         "0612345678",
		"":                   "",
	}
	for in, want := range tests {
		if got := NormalizePhone(in); got != want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPrizeCatalogClassify(t *testing.T) {
	catalog := NewPrizeCatalog(nil)

	tests := []struct {
		prizeName string
		wantKey   string
		wantOK    bool
	}{
		{"Pass VIP pour la soirée", "vip", true},
		{"vip lounge", "vip", true},
		{"Box connectée Canal +", "canal", true},
		{"Goodies", "goodies", true},
		{"Un goodie surprise", "goodies", true},
		{"Mystery gift", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.prizeName, func(t *testing.T) {
			prize, ok := catalog.Classify(tt.prizeName)
			if ok != tt.wantOK {
				t.Fatalf("Classify(%q) ok = %t, want %t", tt.prizeName, ok, tt.wantOK)
			}
			if prize.Key != tt.wantKey {
				t.Errorf("Classify(%q) = %q, want %q", tt.prizeName, prize.Key, tt.wantKey)
			}
		})
	}
}

func TestPrizeCatalogDefaultStock(t *testing.T) {
	stock := NewPrizeCatalog(nil).DefaultStock()
	want := map[string]int{"vip": 10, "canal": 10, "goodies": 30}
	for k, v := range want {
		if stock[k] != v {
			t.Errorf("Expected %s stock %d, got %d", k, v, stock[k])
		}
	}
	if len(stock) != len(want) {
		t.Errorf("Expected %d categories, got %d", len(want), len(stock))
	}
}
