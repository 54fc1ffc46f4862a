package markup

import "strings"

// ResolveURL makes ref absolute against base. The forum emits three shapes:
// already absolute, host-relative, and bare relative paths.
func ResolveURL(base, ref string) string {
	if strings.HasPrefix(ref, "http") {
		return ref
	}
	if strings.HasPrefix(ref, "/") {
		return base + ref
	}
	return base + "/" + ref
}
