package usecase

import "strings"

// Image template placeholders and the values substituted for them
const (
	ImageModifiersToken = "{MODIFIERS}"
	ImageExtensionToken = "{EXTENSION}"
	ImageModifiers      = "w360h360@_q75"
	ImageExtension      = "webp"
)

// ResolveImageURL fills the modifier and extension placeholders of an image
// URL template. An empty template resolves to an empty URL.
func ResolveImageURL(template string) string {
	if template == "" {
		return ""
	}
	url := strings.Replace(template, ImageModifiersToken, ImageModifiers, 1)
	return strings.Replace(url, ImageExtensionToken, ImageExtension, 1)
}
