package editor

import "github.com/starford/folio/internal/block"

// Option is a selectable value with its display label.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Languages offered for code blocks.
var Languages = []Option{
	{"javascript", "JavaScript"},
	{"typescript", "TypeScript"},
	{"python", "Python"},
	{"css", "CSS"},
	{"html", "HTML"},
	{"json", "JSON"},
	{"bash", "Bash"},
}

// ListKinds offered for list blocks.
var ListKinds = []Option{
	{string(block.ListBullet), "Bullet"},
	{string(block.ListNumbered), "Numbered"},
}

// BlockTypes returns the block palette in display order.
func BlockTypes() []Option {
	out := make([]Option, len(block.Types))
	for i, t := range block.Types {
		out[i] = Option{Value: string(t), Label: t.Label()}
	}
	return out
}
