package ao3

import (
	"net/url"

	"ao3scraper/pkg/htmlutil"
)

// Tag is a named link to an archive tag page (rating, warning, category, fandom,
// relationship, character or freeform tag).
type Tag struct {
	Name string
	Href string

	session *Session
}

// Session returns the session the tag was scraped with.
func (t Tag) Session() *Session {
	return t.session
}

// Url resolves Href against the session origin. Tags built by hand have no session
// and resolve against DefaultBaseUrl.
func (t Tag) Url() (string, error) {
	if t.session != nil {
		return t.session.Resolve(t.Href)
	}
	base, err := url.Parse(DefaultBaseUrl)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(t.Href)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

func tagsFromAnchors(anchors []htmlutil.Anchor, session *Session) []Tag {
	tags := make([]Tag, len(anchors))
	for i, a := range anchors {
		tags[i] = Tag{
			Name:    a.Name,
			Href:    a.Href,
			session: session,
		}
	}
	return tags
}
