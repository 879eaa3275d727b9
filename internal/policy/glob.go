package policy

import "strings"

// matchGlob reports whether path matches the shell-style glob pattern.
// Within a segment, "*" matches any run of non-"/" characters; "**" as a
// whole segment matches zero or more whole segments. There is no globset
// dependency in the module's stack to reach for (see DESIGN.md), so this
// is a small hand-rolled segment matcher rather than a regexp translation.
func matchGlob(pattern, path string) bool {
	return matchSegments(splitSegments(pattern), splitSegments(path))
}

func splitSegments(s string) []string {
	s = strings.TrimPrefix(s, "/")
	s = strings.TrimSuffix(s, "/")
	if s == "" {
		return nil
	}
	return strings.Split(s, "/")
}

func matchSegments(pat, segs []string) bool {
	if len(pat) == 0 {
		return len(segs) == 0
	}

	head := pat[0]
	if head == "**" {
		if matchSegments(pat[1:], segs) {
			return true
		}
		for i := range segs {
			if matchSegments(pat[1:], segs[i+1:]) {
				return true
			}
		}
		return false
	}

	if len(segs) == 0 {
		return false
	}
	if !matchSegment(head, segs[0]) {
		return false
	}
	return matchSegments(pat[1:], segs[1:])
}

// matchSegment matches a single path segment against a single pattern
// segment containing zero or more "*" wildcards.
func matchSegment(pat, seg string) bool {
	parts := strings.Split(pat, "*")
	if len(parts) == 1 {
		return pat == seg
	}

	if !strings.HasPrefix(seg, parts[0]) {
		return false
	}
	seg = seg[len(parts[0]):]

	if !strings.HasSuffix(seg, parts[len(parts)-1]) {
		return false
	}
	if len(parts) > 1 {
		trailing := parts[len(parts)-1]
		seg = seg[:len(seg)-len(trailing)]
	}

	for _, mid := range parts[1 : len(parts)-1] {
		idx := strings.Index(seg, mid)
		if idx < 0 {
			return false
		}
		seg = seg[idx+len(mid):]
	}
	return true
}
