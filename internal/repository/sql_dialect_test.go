package repository

import "testing"

func TestBuildKeywordLikeConditionByDialect(t *testing.T) {
	cond, count := buildKeywordLikeConditionByDialect("sqlite", []string{"name", "description"})
	if cond != "name LIKE ? OR description LIKE ?" {
		t.Fatalf("unexpected sqlite condition: %q", cond)
	}
	if count != 2 {
		t.Fatalf("expected 2 args, got %d", count)
	}

	cond, count = buildKeywordLikeConditionByDialect("postgres", []string{"name"})
	if cond != "name ILIKE ?" {
		t.Fatalf("unexpected postgres condition: %q", cond)
	}
	if count != 1 {
		t.Fatalf("expected 1 arg, got %d", count)
	}
}

func TestBuildKeywordLikeConditionSkipsBlankColumns(t *testing.T) {
	cond, count := buildKeywordLikeConditionByDialect("sqlite", []string{"name", " ", ""})
	if cond != "name LIKE ?" {
		t.Fatalf("unexpected condition: %q", cond)
	}
	if count != 1 {
		t.Fatalf("expected 1 arg, got %d", count)
	}
}

func TestRepeatLikeArgs(t *testing.T) {
	args := repeatLikeArgs("%mug%", 3)
	if len(args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(args))
	}
	for _, a := range args {
		if a != "%mug%" {
			t.Fatalf("unexpected arg %v", a)
		}
	}
}
