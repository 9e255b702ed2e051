package messages

import (
	"testing"

	"github.com/angelmondragon/bazary-backend/pkg/enums"
)

func TestTextLocalizes(t *testing.T) {
	if got := Text(enums.LanguageUzbek, ResearchFailed); got != "Bozor tahlili vaqtida xatolik yuz berdi." {
		t.Fatalf("unexpected uz text %q", got)
	}
	if got := Text(enums.LanguageRussian, ResearchFailed); got != "Произошла ошибка при анализе рынка." {
		t.Fatalf("unexpected ru text %q", got)
	}
}

func TestTextFallsBack(t *testing.T) {
	if got := Text(enums.LanguageUzbek, NetworkError); got != "Network Error" {
		t.Fatalf("expected russian catalog fallback, got %q", got)
	}
	if got := Text(enums.Language("en"), StatusAnalyzing); got != "ИИ распознает товары и пишет текст..." {
		t.Fatalf("expected default language fallback, got %q", got)
	}
	if got := Text(enums.LanguageRussian, Key("missing")); got != "missing" {
		t.Fatalf("expected key fallback, got %q", got)
	}
}

func TestEveryKeyHasRussianText(t *testing.T) {
	for key := range catalog[enums.LanguageUzbek] {
		if _, ok := catalog[enums.LanguageRussian][key]; !ok {
			t.Fatalf("key %s missing from russian catalog", key)
		}
	}
}
