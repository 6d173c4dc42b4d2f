package scraper

import (
	"fmt"
	"regexp"
	"strings"

	"car-listings/internal/jsontree"
)

// KijijiListingPrefix marks listing entries in Kijiji's normalized page cache
const KijijiListingPrefix = "AutosListing:"

var (
	embeddedJSONPattern = regexp.MustCompile(`(?s)<script[^>]+type="application/json"[^>]*>(.*?)</script>`)
	entityReplacer      = strings.NewReplacer("&quot;", `"`, "&amp;", "&")
)

// ExtractEmbeddedJSON finds the first <script type="application/json"> block
// in a page, undoes the quote and ampersand entity escaping and parses it.
func ExtractEmbeddedJSON(page string) (*jsontree.Value, error) {
	m := embeddedJSONPattern.FindStringSubmatch(page)
	if m == nil {
		return nil, ErrNoEmbeddedData
	}

	text := entityReplacer.Replace(strings.TrimSpace(m[1]))
	v, err := jsontree.Parse([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded JSON: %w", err)
	}
	return v, nil
}

// Located is a listing node found in the tree, with the key it was stored
// under. The key is informational only.
type Located struct {
	Key  string
	Node *jsontree.Value
}

// LocateListings walks the whole tree and collects every object stored under
// a key starting with prefix. The walk continues inside matched nodes, so a
// listing nested in another listing is collected too. A key seen twice keeps
// its first position and its last value.
func LocateListings(root *jsontree.Value, prefix string) []Located {
	var found []Located
	index := make(map[string]int)

	root.Walk(func(key string, val *jsontree.Value) {
		if !strings.HasPrefix(key, prefix) || val.Kind() != jsontree.Object {
			return
		}
		if i, ok := index[key]; ok {
			found[i].Node = val
			return
		}
		index[key] = len(found)
		found = append(found, Located{Key: key, Node: val})
	})

	return found
}

// AutotraderListings returns the items of props.pageProps.listings
func AutotraderListings(root *jsontree.Value) ([]*jsontree.Value, error) {
	listings := root.Path("props", "pageProps", "listings")
	if listings.Kind() != jsontree.Array {
		return nil, ErrNoListings
	}

	var out []*jsontree.Value
	for _, it := range listings.Items() {
		if it.Kind() == jsontree.Object {
			out = append(out, it)
		}
	}
	return out, nil
}
