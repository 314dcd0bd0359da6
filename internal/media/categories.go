package media

// Category pairs a tracker category id with its display label.
type Category struct {
	ID    int
	Label string
}

var categoryOptions = map[Type][]Category{
	TypeMusic: {
		{ID: 31, Label: "Music :: Audio"},
		{ID: 16, Label: "Music :: Music Videos"},
	},
	TypeMovies: {
		{ID: 14, Label: "Movies :: BlurayRip"},
		{ID: 13, Label: "Movies :: Bluray"},
		{ID: 37, Label: "Movies :: WEBRip"},
		{ID: 43, Label: "Movies :: HDRip"},
		{ID: 11, Label: "Movies :: DVDRip/DVDScreener"},
		{ID: 12, Label: "Movies :: DVD-R"},
		{ID: 47, Label: "Movies :: 4K"},
		{ID: 29, Label: "Movies :: Documentaries"},
		{ID: 36, Label: "Movies :: Foreign"},
		{ID: 15, Label: "Movies :: Boxsets"},
		{ID: 8, Label: "Movies :: Cam"},
		{ID: 9, Label: "Movies :: TS/TC"},
	},
	TypeTV: {
		{ID: 26, Label: "TV :: Episodes (SD)"},
		{ID: 32, Label: "TV :: Episodes HD"},
		{ID: 27, Label: "TV :: BoxSets"},
		{ID: 44, Label: "TV :: Foreign"},
	},
	TypeBooks: {
		{ID: 45, Label: "Books :: EBooks"},
		{ID: 46, Label: "Books :: Comics"},
	},
	TypeMagazines: {
		{ID: 45, Label: "Books :: EBooks"},
	},
}

// Categories returns the valid tracker categories for a media type.
func Categories(mediaType Type) []Category {
	options := categoryOptions[mediaType]
	out := make([]Category, len(options))
	copy(out, options)
	return out
}

// DefaultCategory returns the first category for a media type, or 0 when the
// type is unknown.
func DefaultCategory(mediaType Type) int {
	options := categoryOptions[mediaType]
	if len(options) == 0 {
		return 0
	}
	return options[0].ID
}

// ValidCategory reports whether id is an allowed category for the media type.
func ValidCategory(mediaType Type, id int) bool {
	for _, option := range categoryOptions[mediaType] {
		if option.ID == id {
			return true
		}
	}
	return false
}

// CategoryLabel resolves a category id to its label across all media types.
func CategoryLabel(id int) string {
	for _, options := range categoryOptions {
		for _, option := range options {
			if option.ID == id {
				return option.Label
			}
		}
	}
	return ""
}
