package document

import (
	"strings"
)

// Supported SEO plugin backends
const (
	SEOPluginNone     = "none"
	SEOPluginYoast    = "yoast"
	SEOPluginRankMath = "rankmath"
	SEOPluginSEOPress = "seopress"
)

// SEOKeySet holds the plugin-specific meta keys for the normalized SEO fields
type SEOKeySet struct {
	Title        string
	Description  string
	FocusKeyword string
}

// seoRegistry maps plugin identifiers to their meta-key sets. New backends
// register here rather than extending a conditional chain.
var seoRegistry = map[string]SEOKeySet{
	SEOPluginYoast: {
		Title:        "_yoast_wpseo_title",
		Description:  "_yoast_wpseo_metadesc",
		FocusKeyword: "_yoast_wpseo_focuskw",
	},
	SEOPluginRankMath: {
		Title:        "rank_math_title",
		Description:  "rank_math_description",
		FocusKeyword: "rank_math_focus_keyword",
	},
	SEOPluginSEOPress: {
		Title:        "_seopress_titles_title",
		Description:  "_seopress_titles_desc",
		FocusKeyword: "_seopress_analysis_target_kw",
	},
}

// seoMetaPrefixes are the meta-key prefixes copied into seo.raw_meta
var seoMetaPrefixes = []string{"_yoast_wpseo_", "rank_math_", "_seopress_"}

// NormalizeSEOPlugin maps an arbitrary plugin identifier onto the supported
// set, defaulting to "none"
func NormalizeSEOPlugin(plugin string) string {
	if _, ok := seoRegistry[plugin]; ok {
		return plugin
	}
	return SEOPluginNone
}

// SEOKeysFor resolves the meta-key set for a plugin identifier. An absent or
// unrecognized plugin falls back to the Yoast key set, labeled "none".
func SEOKeysFor(plugin string) SEOKeySet {
	if keys, ok := seoRegistry[plugin]; ok {
		return keys
	}
	return seoRegistry[SEOPluginYoast]
}

// IsSEOMetaKey reports whether a meta key belongs to one of the supported
// SEO plugin backends
func IsSEOMetaKey(key string) bool {
	for _, prefix := range seoMetaPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}
