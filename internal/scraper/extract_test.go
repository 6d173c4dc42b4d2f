package scraper

import (
	"errors"
	"testing"

	"car-listings/internal/jsontree"
)

func mustParse(t *testing.T, s string) *jsontree.Value {
	t.Helper()
	v, err := jsontree.Parse([]byte(s))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return v
}

func TestExtractEmbeddedJSON(t *testing.T) {
	page := `<html><head>
<script type="text/javascript">var x = 1;</script>
<script id="__NEXT_DATA__" type="application/json">{&quot;a&quot;:&quot;b &amp; c&quot;,&quot;n&quot;:2}</script>
<script type="application/json">{"second": true}</script>
</head></html>`

	root, err := ExtractEmbeddedJSON(page)
	if err != nil {
		t.Fatalf("ExtractEmbeddedJSON: %v", err)
	}
	if got := root.Get("a").String(); got != "b & c" {
		t.Errorf("a = %q; want %q", got, "b & c")
	}
	if got := root.Get("n").String(); got != "2" {
		t.Errorf("n = %q; want 2", got)
	}
	if root.Get("second") != nil {
		t.Error("only the first block should be parsed")
	}
}

func TestExtractEmbeddedJSONMissingBlock(t *testing.T) {
	tests := []string{
		"",
		"<html><body>blocked</body></html>",
		`<script type="text/javascript">{"a":1}</script>`,
	}
	for _, page := range tests {
		if _, err := ExtractEmbeddedJSON(page); !errors.Is(err, ErrNoEmbeddedData) {
			t.Errorf("ExtractEmbeddedJSON(%q) error = %v; want ErrNoEmbeddedData", page, err)
		}
	}
}

func TestExtractEmbeddedJSONMalformed(t *testing.T) {
	_, err := ExtractEmbeddedJSON(`<script type="application/json">{"a":</script>`)
	if err == nil || errors.Is(err, ErrNoEmbeddedData) {
		t.Errorf("error = %v; want a parse error", err)
	}
}

func TestLocateListingsNested(t *testing.T) {
	root := mustParse(t, `{
		"props": {
			"apollo": {
				"ROOT_QUERY": {"search": ["ignored"]},
				"AutosListing:1": {
					"title": "outer",
					"related": {"AutosListing:2": {"title": "inner"}}
				}
			},
			"deep": [{"more": {"AutosListing:3": {"title": "in array"}}}],
			"AutosListing:4": "not an object",
			"Listing:5": {"title": "wrong prefix"}
		}
	}`)

	got := LocateListings(root, KijijiListingPrefix)
	if len(got) != 3 {
		t.Fatalf("LocateListings found %d nodes; want 3", len(got))
	}
	wantKeys := []string{"AutosListing:1", "AutosListing:2", "AutosListing:3"}
	for i, loc := range got {
		if loc.Key != wantKeys[i] {
			t.Errorf("node %d key = %q; want %q", i, loc.Key, wantKeys[i])
		}
	}
	if got[1].Node.Get("title").String() != "inner" {
		t.Errorf("nested listing title = %q", got[1].Node.Get("title").String())
	}
}

func TestLocateListingsDuplicateKey(t *testing.T) {
	root := mustParse(t, `{
		"a": {"AutosListing:1": {"title": "first"}},
		"b": {"AutosListing:2": {"title": "other"}},
		"c": {"AutosListing:1": {"title": "last"}}
	}`)

	got := LocateListings(root, KijijiListingPrefix)
	if len(got) != 2 {
		t.Fatalf("found %d; want 2", len(got))
	}
	if got[0].Key != "AutosListing:1" || got[0].Node.Get("title").String() != "last" {
		t.Errorf("duplicate key entry = %s %q; want AutosListing:1 with last value", got[0].Key, got[0].Node.Get("title").String())
	}
}

func TestAutotraderListings(t *testing.T) {
	root := mustParse(t, `{"props":{"pageProps":{"listings":[{"url":"a"},null,{"url":"b"}]}}}`)
	nodes, err := AutotraderListings(root)
	if err != nil {
		t.Fatalf("AutotraderListings: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("got %d listings; want 2", len(nodes))
	}

	empty := mustParse(t, `{"props":{"pageProps":{"listings":[]}}}`)
	if nodes, err := AutotraderListings(empty); err != nil || len(nodes) != 0 {
		t.Errorf("empty listings = %d, %v; want 0, nil", len(nodes), err)
	}

	missing := mustParse(t, `{"props":{"pageProps":{}}}`)
	if _, err := AutotraderListings(missing); !errors.Is(err, ErrNoListings) {
		t.Errorf("missing listings error = %v; want ErrNoListings", err)
	}
}
