package chat

import "testing"

func customEmoji(id, shortcut, thumbURL string, width int) *Emoji {
	e := &Emoji{EmojiID: id, IsCustomEmoji: true}
	if shortcut != "" {
		e.Shortcuts = []string{shortcut}
	}
	if thumbURL != "" {
		e.Image.Thumbnails = []Thumbnail{{URL: thumbURL, Width: width}}
	}
	return e
}

func TestSimplifyText(t *testing.T) {
	tests := []struct {
		name string
		td   *TextData
		want string
	}{
		{"nil", nil, ""},
		{"simple text", &TextData{SimpleText: "hello"}, "hello"},
		{
			"runs escape angle brackets",
			&TextData{Runs: []TextRun{{Text: "a <b> c"}}},
			"a &lt;b&gt; c",
		},
		{
			"custom emoji becomes img",
			&TextData{Runs: []TextRun{
				{Text: "hi "},
				{Emoji: customEmoji("e1", ":wave:", "https://img/e1.png", 24)},
			}},
			`hi <img class="emoji" src="https://img/e1.png" alt=":wave:">`,
		},
		{
			"custom emoji without thumbnail falls back to shortcut",
			&TextData{Runs: []TextRun{{Emoji: customEmoji("e2", ":hmm:", "", 0)}}},
			`<span class="emoji-text">:hmm:</span>`,
		},
		{
			"unicode emoji passes through",
			&TextData{Runs: []TextRun{{Emoji: &Emoji{EmojiID: "😀"}}}},
			"😀",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SimplifyText(tt.td); got != tt.want {
				t.Errorf("SimplifyText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		td   *TextData
		want string
	}{
		{"nil", nil, ""},
		{"simple text", &TextData{SimpleText: "hello"}, "hello"},
		{"runs keep angle brackets", &TextData{Runs: []TextRun{{Text: "<b>"}}}, "<b>"},
		{
			"emoji uses shortcut",
			&TextData{Runs: []TextRun{{Emoji: customEmoji("e1", ":wave:", "u", 1)}}},
			":wave:",
		},
		{
			"emoji without shortcut uses id",
			&TextData{Runs: []TextRun{{Emoji: &Emoji{EmojiID: "😀"}}}},
			"😀",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlainText(tt.td); got != tt.want {
				t.Errorf("PlainText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSmallestThumbnail(t *testing.T) {
	if got := smallestThumbnail(nil); got != nil {
		t.Errorf("smallestThumbnail(nil) = %v, want nil", got)
	}

	thumbs := []Thumbnail{
		{URL: "a", Width: 48},
		{URL: "b", Width: 24},
		{URL: "c", Width: 24},
	}
	got := smallestThumbnail(thumbs)
	if got == nil || got.URL != "b" {
		t.Errorf("smallestThumbnail() = %+v, want first 24px entry", got)
	}
}
