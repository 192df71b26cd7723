package ao3

// Chapter is the text of one chapter of a work. Every field is nil when the page
// did not contain it.
type Chapter struct {
	Title   *string
	Summary *string
	// Notes are the author notes shown before the chapter text.
	Notes   *string
	Article *string
	// EndNotes are the author notes shown after the chapter text.
	EndNotes *string

	session *Session
}

// Session returns the session the chapter was scraped with.
func (c Chapter) Session() *Session {
	return c.session
}
