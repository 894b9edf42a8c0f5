package object

import "testing"

func TestParseObjectIdRoundTrip(t *testing.T) {
	hex := "da39a3ee5e6b4b0d3255bfef95601890afd80709"
	id, err := ParseObjectId(hex)
	if err != nil {
		t.Fatalf("ParseObjectId: %v", err)
	}
	if id.String() != hex {
		t.Fatalf("String() = %q, want %q", id.String(), hex)
	}
}

func TestParseObjectIdRejectsWrongLength(t *testing.T) {
	if _, err := ParseObjectId("abcd"); err == nil {
		t.Fatal("expected error for short hex string")
	}
}

func TestObjectIdIsZero(t *testing.T) {
	var id ObjectId
	if !id.IsZero() {
		t.Fatal("zero-value ObjectId should report IsZero")
	}
	id[0] = 1
	if id.IsZero() {
		t.Fatal("non-zero ObjectId should not report IsZero")
	}
}

func TestSortObjectIdsOrdersLexicographically(t *testing.T) {
	a, _ := ParseObjectId("000000000000000000000000000000000000000a")
	b, _ := ParseObjectId("000000000000000000000000000000000000000b")
	c, _ := ParseObjectId("000000000000000000000000000000000000000c")

	ids := []ObjectId{c, a, b}
	SortObjectIds(ids)
	if ids[0] != a || ids[1] != b || ids[2] != c {
		t.Fatalf("SortObjectIds() = %v, want [a b c]", ids)
	}
}

func TestAbbreviatedIdMatchesOddLengthPrefix(t *testing.T) {
	id, _ := ParseObjectId("abcdef000000000000000000000000000000000a")
	abbrev, err := ParseAbbreviatedId("abc")
	if err != nil {
		t.Fatalf("ParseAbbreviatedId: %v", err)
	}
	if !abbrev.Matches(id) {
		t.Fatal("expected abbreviation \"abc\" to match id starting with abc")
	}

	other, _ := ParseObjectId("abd000000000000000000000000000000000000a")
	if abbrev.Matches(other) {
		t.Fatal("abbreviation should not match id diverging within the prefix")
	}
}

func TestAbbreviatedIdResolveClassifiesByCount(t *testing.T) {
	a, _ := ParseObjectId("aaaa00000000000000000000000000000000000a")
	a2, _ := ParseObjectId("aaaa00000000000000000000000000000000000b")
	other, _ := ParseObjectId("bbbb00000000000000000000000000000000000a")

	abbrev, err := ParseAbbreviatedId("aaaa")
	if err != nil {
		t.Fatalf("ParseAbbreviatedId: %v", err)
	}
	matches := abbrev.Resolve([]ObjectId{a, a2, other})
	if len(matches) != 2 {
		t.Fatalf("Resolve() = %v, want 2 matches", matches)
	}
}
