package catalog

import "strings"

// mediaPathPrefix is the catalog's media serving route.
const mediaPathPrefix = "/api/m/"

// MediaURL resolves an opaque media reference to a fetchable path. Passing
// an already-resolved path returns it unchanged.
func MediaURL(ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, mediaPathPrefix) {
		return ref
	}
	return mediaPathPrefix + ref
}
