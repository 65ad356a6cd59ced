package topics

// Renderer formats topic content for the terminal. format is the topic
// file extension, dot included.
type Renderer interface {
	Render(content string, format string) string
}

// PlainRenderer returns content as-is
type PlainRenderer struct{}

func (r *PlainRenderer) Render(content string, format string) string {
	return content
}
