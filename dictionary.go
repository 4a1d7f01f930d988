package sidewing

import (
	"github.com/NasoohOlabi/stego-side-wing/thread"
)

// dictionaryTexts assembles the ordered reference-text list for the
// compressor: post body first, then each search-result document, then
// every comment body in canonical flatten order. The order is a
// protocol parameter — the receiver rebuilds the identical list from
// the same carrier, so nothing here may depend on map iteration or any
// other unstable source.
func dictionaryTexts(post *thread.Post, flat *thread.Flattened) []string {
	texts := make([]string, 0, 1+len(post.SearchResults)+flat.Len())
	texts = append(texts, post.Selftext)
	texts = append(texts, post.SearchResults...)
	for _, c := range flat.Comments() {
		texts = append(texts, c.Body)
	}
	return texts
}
