package document

// protectedPostKeys are post fields a patch cannot delete. A delete sentinel
// on these keys is ignored so the merged document keeps non-null title and
// content.
var protectedPostKeys = map[string]bool{
	"title":   true,
	"content": true,
}

// Merge applies a partial patch onto a canonical document and returns the
// merged result. The inputs are not modified. An explicit null leaf in the
// patch deletes the corresponding key; an absent key leaves the prior value
// unchanged. Merge is idempotent per key.
func Merge(doc Document, patch map[string]any) Document {
	out := doc.Clone()
	if patch == nil {
		return out
	}

	if v, present := patch[SectionPost]; present {
		if m, ok := AsMap(v); ok {
			mergeFlat(sectionOf(out, SectionPost), m, protectedPostKeys)
		}
	}

	if v, present := patch[SectionSEO]; present {
		if m, ok := AsMap(v); ok {
			mergeSEO(sectionOf(out, SectionSEO), m)
		}
	}

	if v, present := patch[SectionTaxonomies]; present {
		if m, ok := AsMap(v); ok {
			mergeTaxonomies(sectionOf(out, SectionTaxonomies), m)
		}
	}

	if v, present := patch[SectionCustomFields]; present {
		if m, ok := AsMap(v); ok {
			mergeCustomFields(sectionOf(out, SectionCustomFields), m)
		}
	}

	if v, present := patch[SectionMedia]; present {
		if m, ok := AsMap(v); ok {
			mergeFlat(sectionOf(out, SectionMedia), m, nil)
		}
	}

	if v, present := patch[SectionExtensions]; present {
		if v == nil {
			delete(out, SectionExtensions)
		} else if m, ok := AsMap(v); ok {
			mergeFlat(sectionOf(out, SectionExtensions), m, nil)
		}
	}

	return out
}

// sectionOf returns the named section of the document, creating it when the
// patch targets a section the document does not carry yet
func sectionOf(doc Document, name string) map[string]any {
	if m, ok := doc.Section(name); ok {
		return m
	}
	m := map[string]any{}
	doc[name] = m
	return m
}

// mergeFlat merges a patch object into dst one key at a time: null deletes
// the key (unless protected), any other value overwrites
func mergeFlat(dst, patch map[string]any, protected map[string]bool) {
	for k, v := range patch {
		if v == nil {
			if !protected[k] {
				delete(dst, k)
			}
			continue
		}
		dst[k] = v
	}
}

// mergeSEO merges the seo section. Scalar keys follow the flat rule;
// raw_meta is merged one level deeper with per-key delete support, and a
// null at the raw_meta level wipes the whole sub-map. Values inside
// raw_meta are set directly with no deeper recursion.
func mergeSEO(dst, patch map[string]any) {
	for k, v := range patch {
		if k != "raw_meta" {
			if v == nil {
				delete(dst, k)
			} else {
				dst[k] = v
			}
			continue
		}

		if v == nil {
			dst["raw_meta"] = map[string]any{}
			continue
		}
		m, ok := AsMap(v)
		if !ok {
			continue
		}
		raw, ok := AsMap(dst["raw_meta"])
		if !ok {
			raw = map[string]any{}
			dst["raw_meta"] = raw
		}
		mergeFlat(raw, m, nil)
	}
}

// mergeTaxonomies replaces taxonomy entries wholesale: null removes the
// taxonomy's entry, any other value replaces the full {ids, names}
// structure with no element-wise merging
func mergeTaxonomies(dst, patch map[string]any) {
	for taxonomy, v := range patch {
		if v == nil {
			delete(dst, taxonomy)
			continue
		}
		dst[taxonomy] = v
	}
}

// mergeCustomFields merges the acf and meta sub-maps key by key. A null on
// the whole sub-map resets it to an empty map rather than removing it.
func mergeCustomFields(dst, patch map[string]any) {
	for k, v := range patch {
		if v == nil {
			dst[k] = map[string]any{}
			continue
		}
		m, ok := AsMap(v)
		if !ok {
			dst[k] = v
			continue
		}
		sub, ok := AsMap(dst[k])
		if !ok {
			sub = map[string]any{}
			dst[k] = sub
		}
		mergeFlat(sub, m, nil)
	}
}
