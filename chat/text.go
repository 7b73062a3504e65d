package chat

import "strings"

// escapeText keeps simplified text safe to embed in markup fragments.
func escapeText(s string) string {
	s = strings.ReplaceAll(s, "<", "&lt;")
	return strings.ReplaceAll(s, ">", "&gt;")
}

// smallestThumbnail picks the thumbnail with the smallest width, first-seen
// winning ties. Returns nil when the list is empty.
func smallestThumbnail(thumbs []Thumbnail) *Thumbnail {
	var smallest *Thumbnail
	for i := range thumbs {
		if smallest == nil || thumbs[i].Width < smallest.Width {
			smallest = &thumbs[i]
		}
	}
	return smallest
}

// emojiMarkup renders a custom emoji as an image tag for its smallest
// thumbnail, falling back to the shortcut text, then the raw emoji id.
func emojiMarkup(e *Emoji) string {
	if e.IsCustomEmoji {
		shortcut := ""
		if len(e.Shortcuts) > 0 {
			shortcut = e.Shortcuts[0]
		}
		if thumb := smallestThumbnail(e.Image.Thumbnails); thumb != nil {
			return `<img class="emoji" src="` + thumb.URL + `" alt="` + shortcut + `">`
		}
		return `<span class="emoji-text">` + shortcut + `</span>`
	}
	return e.EmojiID
}

// SimplifyText flattens rich text into one inline-markup string. Plain runs
// are escaped; emoji runs become image tags. A nil or empty TextData
// simplifies to "".
func SimplifyText(td *TextData) string {
	if td == nil {
		return ""
	}
	if td.SimpleText != "" {
		return td.SimpleText
	}
	var b strings.Builder
	for _, run := range td.Runs {
		switch {
		case run.Text != "":
			b.WriteString(escapeText(run.Text))
		case run.Emoji != nil:
			b.WriteString(emojiMarkup(run.Emoji))
		}
	}
	return b.String()
}

// PlainText flattens rich text for search and filtering: no escaping, emoji
// rendered as their shortcut (or raw id when no shortcut exists).
func PlainText(td *TextData) string {
	if td == nil {
		return ""
	}
	if td.SimpleText != "" {
		return td.SimpleText
	}
	var b strings.Builder
	for _, run := range td.Runs {
		switch {
		case run.Text != "":
			b.WriteString(run.Text)
		case run.Emoji != nil:
			if len(run.Emoji.Shortcuts) > 0 {
				b.WriteString(run.Emoji.Shortcuts[0])
			} else {
				b.WriteString(run.Emoji.EmojiID)
			}
		}
	}
	return b.String()
}
