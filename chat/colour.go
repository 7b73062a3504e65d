package chat

// ColourUnknown is reported for background colours outside the known palette.
const ColourUnknown = "unknown"

// colourPalette maps the fixed set of superchat/sticker background colour
// codes to named categories. Each category has a header/sticker code and a
// body code.
var colourPalette = map[int64]string{
	4279592384: "blue", // header/sticker
	4280191205: "blue", // body
	4278237396: "light-blue",
	4278248959: "light-blue",
	4278239141: "light-green",
	4280150454: "light-green",
	4294947584: "yellow",
	4294953512: "yellow",
	4293284096: "orange",
	4294278144: "orange",
	4290910299: "pink",
	4293467747: "pink",
	4291821568: "red",
	4293271831: "red",
}

// ColourCategories lists the named categories in display order.
var ColourCategories = []string{"red", "pink", "orange", "yellow", "light-green", "light-blue", "blue"}

// ColourFromBackground resolves a raw background colour integer to its named
// category, or "unknown" for codes outside the palette.
func ColourFromBackground(code int64) string {
	if name, ok := colourPalette[code]; ok {
		return name
	}
	return ColourUnknown
}
