package chat

import (
	"strings"
	"testing"
)

func TestFormatOffset(t *testing.T) {
	tests := []struct {
		msec int64
		want string
	}{
		{0, "00:00"},
		{1000, "00:01"},
		{61000, "01:01"},
		{3599000, "59:59"},
		{3661000, "1:01:01"},
		{7322000, "2:02:02"},
		{-90000, "-01:30"},
		{-3661000, "-1:01:01"},
	}
	for _, tt := range tests {
		if got := FormatOffset(tt.msec); got != tt.want {
			t.Errorf("FormatOffset(%d) = %q, want %q", tt.msec, got, tt.want)
		}
	}
}

func TestShortenMembershipLength(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Member for 2 months", "2 mo"},
		{"Member for 1 month", "1 mo"},
		{"Member for 3 years", "3 yr"},
		{"Member for 1 year", "1 yr"},
	}
	for _, tt := range tests {
		got := shortenMembershipLength(&TextData{SimpleText: tt.input})
		if got != tt.want {
			t.Errorf("shortenMembershipLength(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestUserSpan(t *testing.T) {
	u := User{ChannelID: "UC1", Name: "alice <3", IsMod: true}
	got := userSpan(u)
	if !strings.Contains(got, `class="user mod"`) {
		t.Errorf("userSpan missing role classes: %s", got)
	}
	if !strings.Contains(got, "https://www.youtube.com/channel/UC1") {
		t.Errorf("userSpan missing channel link: %s", got)
	}
	if !strings.Contains(got, "alice &lt;3") {
		t.Errorf("userSpan name not escaped: %s", got)
	}
}

func TestSuperchatSpan(t *testing.T) {
	r := &PaidMessageRenderer{
		PurchaseAmountText:  TextData{SimpleText: "$5.00"},
		BodyBackgroundColor: 4280191205,
		Message:             &TextData{Runs: []TextRun{{Text: "nice stream"}}},
	}
	got := superchatSpan(r)
	if !strings.Contains(got, `class="msg superchat blue"`) {
		t.Errorf("superchatSpan missing colour class: %s", got)
	}
	if !strings.Contains(got, `<span class="money">$5.00</span>`) {
		t.Errorf("superchatSpan missing amount: %s", got)
	}
	if !strings.Contains(got, "nice stream") {
		t.Errorf("superchatSpan missing message: %s", got)
	}

	// No message body: the text span is omitted entirely.
	r.Message = nil
	if got := superchatSpan(r); strings.Contains(got, `class="text"`) {
		t.Errorf("superchatSpan rendered empty text span: %s", got)
	}
}

func TestPollClosedSpan(t *testing.T) {
	snap := &PollSnapshot{
		Question:   "Best arc?",
		TotalVotes: 200,
		Choices: []PollChoiceResult{
			{Text: "A", Percentage: 75, EstimatedVotes: 150},
			{Text: "B", Percentage: 25, EstimatedVotes: 50},
		},
	}
	got := pollClosedSpan(snap)
	if !strings.Contains(got, "Best arc?") || !strings.Contains(got, "(75%, ~150)") {
		t.Errorf("pollClosedSpan = %s", got)
	}
	if !strings.Contains(got, "200 votes") {
		t.Errorf("pollClosedSpan missing vote count: %s", got)
	}
}
