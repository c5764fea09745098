package style

// Context is handed to style transformations. Transformations may mutate
// Root in place or return replacement text.
type Context struct {
	Root *Root
	// Lang is css, scss, less or postcss
	Lang string
	Path string
}

// Lang of a style block, defaulting to css
func Lang(blockLang string) string {
	if blockLang == "" {
		return "css"
	}
	return blockLang
}
