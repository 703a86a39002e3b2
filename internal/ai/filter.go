package ai

// ContentFilter is the extension point for sensitive-content detection and sanitization of text before it is sent
// anywhere
type ContentFilter interface {
	// Sensitive reports whether content must not leave the machine
	Sensitive(content string) bool
	// Sanitize returns content with anything that should not be sent removed
	Sanitize(content string) string
}

// PassthroughFilter flags nothing and changes nothing
type PassthroughFilter struct{}

func (PassthroughFilter) Sensitive(string) bool { return false }

func (PassthroughFilter) Sanitize(content string) string { return content }
