package ao3

import (
	"net/url"
	"strconv"
	"strings"
)

// ParseHref extracts the work id and, for chapter urls, the chapter id from an href
// of the shape `/works/{id}` or `/works/{id}/chapters/{id}`. Absolute urls are
// accepted, only their path is inspected.
func ParseHref(href string) (workId int64, chapterId *int64, err error) {
	invalid := &InvalidReferenceError{Href: href}

	parsed, err := url.Parse(href)
	if err != nil {
		return 0, nil, invalid
	}

	var parts []string
	for _, part := range strings.Split(parsed.Path, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}

	switch {
	case len(parts) == 4 && parts[0] == "works" && parts[2] == "chapters":
		workId, err = strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return 0, nil, invalid
		}
		chapter, err := strconv.ParseInt(parts[3], 10, 64)
		if err != nil {
			return 0, nil, invalid
		}
		return workId, &chapter, nil
	case len(parts) == 2 && parts[0] == "works":
		workId, err = strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return 0, nil, invalid
		}
		return workId, nil, nil
	}

	return 0, nil, invalid
}
