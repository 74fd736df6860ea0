package colour

// table is the compiled-in dark-mode accent palette. Foregrounds are chosen
// for contrast against the primary colour.
var table = [12]Entry{
	{Name: "Ocean", Primary: "#0078D4", PrimaryDark: "#003d6b", Foreground: "#ffffff"},
	{Name: "Forest", Primary: "#2D7D46", PrimaryDark: "#1a4a29", Foreground: "#ffffff"},
	{Name: "Sunset", Primary: "#D83B01", PrimaryDark: "#6d1d00", Foreground: "#ffffff"},
	{Name: "Violet", Primary: "#8B5CF6", PrimaryDark: "#4c2889", Foreground: "#ffffff"},
	{Name: "Rose", Primary: "#DB2777", PrimaryDark: "#6d133b", Foreground: "#ffffff"},
	{Name: "Teal", Primary: "#0D9488", PrimaryDark: "#064a44", Foreground: "#ffffff"},
	{Name: "Amber", Primary: "#D97706", PrimaryDark: "#6d3b03", Foreground: "#ffffff"},
	{Name: "Crimson", Primary: "#DC2626", PrimaryDark: "#6e1313", Foreground: "#ffffff"},
	{Name: "Indigo", Primary: "#4F46E5", PrimaryDark: "#272372", Foreground: "#ffffff"},
	{Name: "Emerald", Primary: "#059669", PrimaryDark: "#024b34", Foreground: "#ffffff"},
	{Name: "Fuchsia", Primary: "#C026D3", PrimaryDark: "#601369", Foreground: "#ffffff"},
	{Name: "Cyan", Primary: "#0891B2", PrimaryDark: "#044859", Foreground: "#ffffff"},
}

// Default returns a copy of the built-in palette.
func Default() Palette {
	p := make(Palette, len(table))
	copy(p, table[:])
	return p
}
