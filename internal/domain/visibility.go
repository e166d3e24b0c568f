package domain

// Visible reports whether viewer may see m. Matching is exact; an empty
// viewer still sees broadcasts and public messages.
func Visible(viewer string, m Message) bool {
	return m.To == viewer ||
		m.From == viewer ||
		m.To == Everyone ||
		m.Kind == KindPublic
}
