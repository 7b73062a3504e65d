package chat

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// PollChoiceState is one choice of a live poll with its latest vote share.
type PollChoiceState struct {
	Text       string
	Percentage float64
}

// Poll is the mutable lifecycle object for one audience poll. Created on the
// first open/update record for an unseen id, mutated by later updates, and
// marked completed by a close record. Polls are retained for the whole
// session so duplicate close records stay detectable.
type Poll struct {
	ID              string
	PanelID         string
	Question        string
	Choices         []PollChoiceState
	TotalVotes      int
	Completed       bool
	LastUpdatedMsec int64
}

// PollChoiceResult is a closed-poll choice with its estimated vote count.
type PollChoiceResult struct {
	Text           string
	Percentage     float64
	EstimatedVotes int
}

// PollSnapshot is the final state of a closed poll.
type PollSnapshot struct {
	Question   string
	Choices    []PollChoiceResult
	TotalVotes int
}

// applyUpdate overwrites the poll's live fields from a decoded renderer.
func (p *Poll) applyUpdate(pr *PollRenderer, offsetMsec int64) {
	if q := PlainText(&pr.Header.PollHeaderRenderer.PollQuestion); q != "" {
		p.Question = q
	}
	p.Choices = choiceStates(pr)
	p.TotalVotes = totalVotesFromMetadata(&pr.Header.PollHeaderRenderer.MetadataText)
	p.LastUpdatedMsec = offsetMsec
}

// snapshot freezes the poll, sorting choices by vote share descending
// (stable, so tied choices keep their original order) and estimating votes
// per choice from the percentages.
func (p *Poll) snapshot() *PollSnapshot {
	sorted := make([]PollChoiceState, len(p.Choices))
	copy(sorted, p.Choices)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Percentage > sorted[j].Percentage
	})

	snap := &PollSnapshot{Question: p.Question, TotalVotes: p.TotalVotes}
	for _, c := range sorted {
		snap.Choices = append(snap.Choices, PollChoiceResult{
			Text:           c.Text,
			Percentage:     c.Percentage,
			EstimatedVotes: int(math.Round(c.Percentage / 100 * float64(p.TotalVotes))),
		})
	}
	return snap
}

func choiceStates(pr *PollRenderer) []PollChoiceState {
	out := make([]PollChoiceState, 0, len(pr.Choices))
	for _, c := range pr.Choices {
		pct := 0.0
		if c.VotePercentage != nil {
			pct = parsePercentage(PlainText(c.VotePercentage))
		}
		if pct == 0 && c.VoteRatio > 0 {
			pct = c.VoteRatio * 100
		}
		out = append(out, PollChoiceState{Text: PlainText(&c.Text), Percentage: pct})
	}
	return out
}

// parsePercentage reads a value like "53%" or "7.4%".
func parsePercentage(s string) float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// totalVotesFromMetadata extracts the vote count from poll header metadata
// text such as "Poll · 1,234 votes". Returns 0 when no count is present.
func totalVotesFromMetadata(td *TextData) int {
	text := PlainText(td)
	idx := strings.Index(strings.ToLower(text), "vote")
	if idx < 0 {
		return 0
	}
	// Walk backwards over the number (digits and grouping commas).
	end := idx
	for end > 0 && text[end-1] == ' ' {
		end--
	}
	start := end
	for start > 0 && (isAmountDigit(rune(text[start-1])) || text[start-1] == ',') {
		start--
	}
	num := strings.ReplaceAll(text[start:end], ",", "")
	if num == "" {
		return 0
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return 0
	}
	return n
}
