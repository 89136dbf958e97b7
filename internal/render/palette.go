package render

// Node colors are handed out to node types in sorted order, wrapping around.
var nodePalette = []string{
	"#90EE90",
	"#FFD700",
	"#87CEEB",
	"#FFB6C1",
	"#DDA0DD",
	"#F0E68C",
	"#98FB98",
	"#FFA07A",
	"#20B2AA",
	"#B0C4DE",
}

var edgePalette = []string{
	"gray",
	"darkblue",
	"darkgreen",
	"gold",
	"lightcoral",
	"purple",
	"orange",
	"teal",
}

const (
	fallbackNodeColor = "#CCCCCC"
	fallbackEdgeColor = "gray"
)

// assignColors maps each type to a palette entry by its position in types.
func assignColors(types []string, palette []string) map[string]string {
	out := make(map[string]string, len(types))
	for i, t := range types {
		out[t] = palette[i%len(palette)]
	}
	return out
}
