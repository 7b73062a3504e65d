package chat

import (
	"fmt"
	"regexp"
	"strings"
)

// Markup builders for the self-contained display fragments attached to
// timeline entries. Everything interpolated here has already been escaped by
// SimplifyText.

// FormatOffset renders a millisecond stream offset as mm:ss, switching to
// H:mm:ss past one hour. Pre-stream offsets are negative and keep their sign.
func FormatOffset(msec int64) string {
	sign := ""
	if msec < 0 {
		sign = "-"
		msec = -msec
	}
	totalSec := msec / 1000
	h := totalSec / 3600
	m := (totalSec % 3600) / 60
	s := totalSec % 60
	if msec > 3600000 {
		return fmt.Sprintf("%s%d:%02d:%02d", sign, h, m, s)
	}
	return fmt.Sprintf("%s%02d:%02d", sign, m, s)
}

func timeOffsetSpan(offsetMsec int64) string {
	return `<span class="time offset">` + FormatOffset(offsetMsec) + `</span>`
}

func userSpan(u User) string {
	classes := append([]string{"user"}, u.cssClasses()...)
	var b strings.Builder
	b.WriteString(`<span class="` + strings.Join(classes, " ") + `">`)
	b.WriteString(`<a href="https://www.youtube.com/channel/` + u.ChannelID + `">` + escapeText(u.Name) + `</a>`)
	b.WriteString(`</span>`)
	return b.String()
}

func messageSpan(td *TextData, additionalClasses ...string) string {
	classes := append([]string{"msg"}, additionalClasses...)
	return `<span class="` + strings.Join(classes, " ") + `">` + SimplifyText(td) + `</span>`
}

func giftMessageSpan(td *TextData) string {
	var b strings.Builder
	b.WriteString(`<span class="msg membership-gift system-message">`)
	b.WriteString(`<span class="gift-icon">🎁</span>`)
	b.WriteString(`<span class="text">` + SimplifyText(td) + `</span>`)
	b.WriteString(`</span>`)
	return b.String()
}

var (
	leadingNonDigits = regexp.MustCompile(`^[^0-9]+`)
	monthsPattern    = regexp.MustCompile(`months?`)
	yearsPattern     = regexp.MustCompile(`years?`)
)

// shortenMembershipLength turns "Member for 2 months" into "2 mo".
func shortenMembershipLength(lengthText *TextData) string {
	s := SimplifyText(lengthText)
	s = leadingNonDigits.ReplaceAllString(s, "")
	s = monthsPattern.ReplaceAllString(s, "mo")
	s = yearsPattern.ReplaceAllString(s, "yr")
	return s
}

func memberMessageSpan(lengthText, message *TextData) string {
	var b strings.Builder
	b.WriteString(`<span class="msg membership-message">`)
	b.WriteString(`<span class="mem-length">` + shortenMembershipLength(lengthText) + `</span>`)
	b.WriteString(`<span class="text">` + SimplifyText(message) + `</span>`)
	b.WriteString(`</span>`)
	return b.String()
}

func superchatSpan(r *PaidMessageRenderer) string {
	colour := ColourFromBackground(r.BodyBackgroundColor)
	var b strings.Builder
	b.WriteString(`<span class="msg superchat ` + colour + `">`)
	b.WriteString(`<span class="money">` + SimplifyText(&r.PurchaseAmountText) + `</span>`)
	if r.Message != nil {
		b.WriteString(`<span class="text">` + SimplifyText(r.Message) + `</span>`)
	}
	b.WriteString(`</span>`)
	return b.String()
}

func stickerSpan(r *PaidStickerRenderer) string {
	colour := ColourFromBackground(r.BackgroundColor)
	var b strings.Builder
	b.WriteString(`<span class="msg super-sticker ` + colour + `">`)
	b.WriteString(`<span class="money">` + SimplifyText(&r.PurchaseAmountText) + `</span>`)
	if thumb := smallestThumbnail(r.Sticker.Thumbnails); thumb != nil {
		alt := r.Sticker.Accessibility.AccessibilityData.Label
		b.WriteString(`<img class="sticker" src="` + thumb.URL + `" alt="` + escapeText(alt) + `">`)
	}
	b.WriteString(`</span>`)
	return b.String()
}

func redirectSpan(r *RedirectRenderer) string {
	return `<span class="msg redirect system-message">` + SimplifyText(&r.BannerMessage) + `</span>`
}

// pollSpan renders the current state of a poll: question, choices with vote
// share, and the running vote count.
func pollSpan(p *Poll, closed bool) string {
	class := "msg poll"
	if closed {
		class += " poll-closed"
	}
	var b strings.Builder
	b.WriteString(`<span class="` + class + `">`)
	b.WriteString(`<span class="poll-question">` + escapeText(p.Question) + `</span>`)
	for _, c := range p.Choices {
		b.WriteString(fmt.Sprintf(`<span class="poll-choice">%s (%.0f%%)</span>`, escapeText(c.Text), c.Percentage))
	}
	b.WriteString(fmt.Sprintf(`<span class="poll-votes">%d votes</span>`, p.TotalVotes))
	b.WriteString(`</span>`)
	return b.String()
}

// pollClosedSpan renders a final snapshot with estimated votes per choice.
func pollClosedSpan(snap *PollSnapshot) string {
	var b strings.Builder
	b.WriteString(`<span class="msg poll poll-closed">`)
	b.WriteString(`<span class="poll-question">` + escapeText(snap.Question) + `</span>`)
	for _, c := range snap.Choices {
		b.WriteString(fmt.Sprintf(`<span class="poll-choice">%s (%.0f%%, ~%d)</span>`, escapeText(c.Text), c.Percentage, c.EstimatedVotes))
	}
	b.WriteString(fmt.Sprintf(`<span class="poll-votes">%d votes</span>`, snap.TotalVotes))
	b.WriteString(`</span>`)
	return b.String()
}
