package thread

import (
	"testing"
)

func TestDecodeRecordCanonicalShape(t *testing.T) {
	data := []byte(`{
		"post": {
			"id": "abc",
			"title": "Title",
			"selftext": "body text",
			"search_results": ["doc one", "doc two"],
			"comments": [{"id": "c1", "parent_id": "t3_abc", "link_id": "t3_abc", "body": "hi", "replies": []}]
		},
		"angles": [[{"source_quote": "q", "tangent": "t", "category": "cat"}]]
	}`)
	rec, err := DecodeRecord(data)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Post.ID != "abc" || rec.Post.Selftext != "body text" {
		t.Errorf("post not decoded: %+v", rec.Post)
	}
	if len(rec.Post.SearchResults) != 2 {
		t.Errorf("search_results = %d, want 2", len(rec.Post.SearchResults))
	}
	if len(rec.Angles) != 1 || len(rec.Angles[0]) != 1 {
		t.Errorf("angles not decoded: %+v", rec.Angles)
	}
}

func TestDecodeRecordDataWrapper(t *testing.T) {
	data := []byte(`{"data": {"id": "xyz", "selftext": "s"}, "angles": []}`)
	rec, err := DecodeRecord(data)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Post.ID != "xyz" {
		t.Errorf("post.ID = %q, want %q", rec.Post.ID, "xyz")
	}
}

func TestDecodeRecordMissingPost(t *testing.T) {
	if _, err := DecodeRecord([]byte(`{"angles": []}`)); err != ErrMissingPost {
		t.Errorf("err = %v, want ErrMissingPost", err)
	}
}

func TestDecodeRecordScrubsPlaceholders(t *testing.T) {
	data := []byte(`{
		"post": {
			"id": "p",
			"selftext": "[removed]",
			"comments": [
				{"id": "c1", "body": "[deleted]", "replies": [
					{"id": "c2", "body": "kept", "replies": []}
				]}
			]
		}
	}`)
	rec, err := DecodeRecord(data)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Post.Selftext != "" {
		t.Errorf("selftext = %q, want empty", rec.Post.Selftext)
	}
	if rec.Post.Comments[0].Body != "" {
		t.Errorf("comment body = %q, want empty", rec.Post.Comments[0].Body)
	}
	if rec.Post.Comments[0].Replies[0].Body != "kept" {
		t.Errorf("nested body = %q, want %q", rec.Post.Comments[0].Replies[0].Body, "kept")
	}
}

func TestDecodePayloadShapes(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"payload": "secret"}`, "secret"},
		{`"quoted"`, "quoted"},
		{`raw text`, `raw text`},
	}
	for _, c := range cases {
		if got := DecodePayload([]byte(c.in)); got != c.want {
			t.Errorf("DecodePayload(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestAngleEqual(t *testing.T) {
	one := 1
	a := Angle{SourceQuote: "q", Tangent: "t", Category: "c"}
	b := Angle{SourceQuote: "q", Tangent: "t", Category: "c", SourceDocument: &one}
	if !a.Equal(b) {
		t.Error("angles differing only in source_document must be equal")
	}
	b.Tangent = "other"
	if a.Equal(b) {
		t.Error("angles with different tangents must not be equal")
	}
}

func forest() []*Comment {
	// a
	// ├── b
	// │   └── d
	// └── c
	// e
	d := &Comment{ID: "d", ParentID: "t1_b", LinkID: "t3_root"}
	b := &Comment{ID: "b", ParentID: "t1_a", LinkID: "t3_root", Replies: []*Comment{d}}
	c := &Comment{ID: "c", ParentID: "t1_a", LinkID: "t3_root"}
	a := &Comment{ID: "a", ParentID: "t3_root", LinkID: "t3_root", Replies: []*Comment{b, c}}
	e := &Comment{ID: "e", ParentID: "t3_root", LinkID: "t3_root"}
	return []*Comment{a, e}
}

func TestFlattenPreOrder(t *testing.T) {
	f := Flatten(forest())
	want := []string{"a", "b", "d", "c", "e"}
	if f.Len() != len(want) {
		t.Fatalf("Len = %d, want %d", f.Len(), len(want))
	}
	for i, id := range want {
		if f.At(i).ID != id {
			t.Errorf("At(%d).ID = %q, want %q", i, f.At(i).ID, id)
		}
	}
}

func TestResolveTolerantPrefix(t *testing.T) {
	f := Flatten(forest())
	got, ok := f.Resolve("t1_b")
	if !ok || got.ID != "b" {
		t.Fatalf("Resolve(t1_b) = %v, %v", got, ok)
	}
	got, ok = f.Resolve("b")
	if !ok || got.ID != "b" {
		t.Fatalf("Resolve(b) = %v, %v", got, ok)
	}
	if _, ok := f.Resolve("t1_missing"); ok {
		t.Error("Resolve of unknown id must fail")
	}
}

func TestChainRootFirst(t *testing.T) {
	f := Flatten(forest())
	var d *Comment
	for _, c := range f.Comments() {
		if c.ID == "d" {
			d = c
		}
	}
	chain := f.Chain(d)
	want := []string{"a", "b", "d"}
	if len(chain) != len(want) {
		t.Fatalf("chain length = %d, want %d", len(chain), len(want))
	}
	for i, id := range want {
		if chain[i].ID != id {
			t.Errorf("chain[%d].ID = %q, want %q", i, chain[i].ID, id)
		}
	}
}

func TestChainTerminatesOnCycle(t *testing.T) {
	// x and y point at each other through prefixed parent ids.
	x := &Comment{ID: "x", ParentID: "t1_y", LinkID: "t3_root"}
	y := &Comment{ID: "y", ParentID: "t1_x", LinkID: "t3_root", Replies: []*Comment{x}}
	f := Flatten([]*Comment{y})
	chain := f.Chain(x)
	if len(chain) != 2 {
		t.Fatalf("chain length = %d, want 2", len(chain))
	}
	if chain[0].ID != "y" || chain[1].ID != "x" {
		t.Errorf("chain = [%s %s], want [y x]", chain[0].ID, chain[1].ID)
	}
}

func TestFlattenAliasedSubtreeVisitedOnce(t *testing.T) {
	shared := &Comment{ID: "s", ParentID: "t1_a", LinkID: "t3_root"}
	a := &Comment{ID: "a", ParentID: "t3_root", LinkID: "t3_root", Replies: []*Comment{shared, shared}}
	f := Flatten([]*Comment{a})
	if f.Len() != 2 {
		t.Errorf("Len = %d, want 2 (aliased node flattened once)", f.Len())
	}
}
