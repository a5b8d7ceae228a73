package naming

import "testing"

func existsAmong(names ...string) Exists {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[FoldCase(n)] = true
	}
	return func(name string) (bool, error) {
		return set[FoldCase(name)], nil
	}
}

func TestResolveNoCollision(t *testing.T) {
	got, err := Resolve("Alpha", existsAmong())
	if err != nil {
		t.Fatal(err)
	}
	if got != "Alpha" {
		t.Fatalf("expected Alpha unchanged, got %q", got)
	}
}

func TestResolveFirstCollision(t *testing.T) {
	got, err := Resolve("Alpha", existsAmong("Alpha"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "Alpha_1" {
		t.Fatalf("expected Alpha_1, got %q", got)
	}
}

func TestResolveSkipsTakenSuffixes(t *testing.T) {
	got, err := Resolve("Alpha", existsAmong("Alpha", "Alpha_1", "Alpha_2"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "Alpha_3" {
		t.Fatalf("expected Alpha_3, got %q", got)
	}
}

func TestResolveCaseInsensitive(t *testing.T) {
	got, err := Resolve("alpha", existsAmong("ALPHA"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "alpha_1" {
		t.Fatalf("expected alpha_1, got %q", got)
	}
}

func TestResolvePreservesExtension(t *testing.T) {
	got, err := Resolve("strings.xlsx", existsAmong("strings.xlsx"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "strings_1.xlsx" {
		t.Fatalf("expected strings_1.xlsx, got %q", got)
	}
}

func TestResolveDotfileKeepsEmptyExtension(t *testing.T) {
	got, err := Resolve(".gitignore", existsAmong(".gitignore"))
	if err != nil {
		t.Fatal(err)
	}
	if got != ".gitignore_1" {
		t.Fatalf("expected .gitignore_1, got %q", got)
	}
}

func TestResolveNoExtensionName(t *testing.T) {
	got, err := Resolve("Makefile", existsAmong("Makefile"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "Makefile_1" {
		t.Fatalf("expected Makefile_1, got %q", got)
	}
}
