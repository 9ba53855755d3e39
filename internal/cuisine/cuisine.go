// Package cuisine extracts national cuisine types from OSM-style venue tags.
package cuisine

import (
	"sort"
	"strings"

	"github.com/kiezlabs/kiezscout/internal/names"
)

// vocab is the national cuisine vocabulary (English tokens). Only tokens in
// this set count toward a neighborhood's cuisine diversity.
var vocab = map[string]bool{
	// Europe
	"italian": true, "french": true, "spanish": true, "portuguese": true,
	"greek": true, "turkish": true, "german": true, "polish": true,
	"russian": true, "ukrainian": true, "balkan": true, "hungarian": true,
	"romanian": true, "bulgarian": true, "georgian": true,
	// Americas
	"mexican": true, "argentinian": true, "peruvian": true, "brazilian": true,
	"colombian": true, "venezuelan": true, "caribbean": true, "american": true,
	"texmex": true,
	// Middle East & Africa
	"lebanese": true, "israeli": true, "palestinian": true, "syrian": true,
	"iraqi": true, "iranian": true, "afghan": true, "moroccan": true,
	"tunisian": true, "algerian": true, "ethiopian": true, "eritrean": true,
	"egyptian": true, "southafrican": true, "nigerian": true,
	// Asia
	"indian": true, "pakistani": true, "bangladeshi": true, "srilankan": true,
	"nepali": true, "chinese": true, "japanese": true, "korean": true,
	"thai": true, "vietnamese": true, "laotian": true, "cambodian": true,
	"indonesian": true, "malaysian": true, "singaporean": true, "filipino": true,
}

// excluded covers dish and venue-form tokens that are not national cuisines.
var excluded = map[string]bool{
	"pizza": true, "pasta": true, "sushi": true, "ramen": true,
	"doner": true, "kebab": true, "burger": true, "bbq": true,
	"grill": true, "steak": true, "noodles": true, "dumpling": true,
	"dumplings": true, "sandwich": true, "bakery": true, "cafe": true,
	"coffee": true, "bubbletea": true, "boba": true, "falafel": true,
}

// Tokens splits a semicolon-separated cuisine tag into normalized tokens,
// keeping only national cuisine types. Tokens may repeat if the tag does.
func Tokens(cuisines string) []string {
	if cuisines == "" {
		return nil
	}
	var toks []string
	for _, part := range strings.Split(cuisines, ";") {
		t := names.Canon(part)
		if t == "" || excluded[t] {
			continue
		}
		if vocab[t] {
			toks = append(toks, t)
		}
	}
	return toks
}

// Nationals returns the distinct national cuisine tokens in a cuisine tag.
func Nationals(cuisines string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range Tokens(cuisines) {
		set[t] = true
	}
	return set
}

// SortedNationals returns the distinct tokens in deterministic order.
func SortedNationals(cuisines string) []string {
	set := Nationals(cuisines)
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
