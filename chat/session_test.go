package chat

import (
	"strings"
	"testing"
)

// Event construction helpers. Offsets ride on the inner action wrapper, as
// they do in real replay files.

func wrapAction(a Action, offsetMsec string) *ReplayEvent {
	return &ReplayEvent{
		ReplayChatItemAction: &ReplayChatItemAction{
			Actions:             []Action{a},
			VideoOffsetTimeMsec: offsetMsec,
		},
	}
}

func textMessageEvent(id, channelID, name, text, offsetMsec string) *ReplayEvent {
	r := &TextMessageRenderer{ID: id, Message: &TextData{SimpleText: text}}
	r.AuthorExternalChannelID = channelID
	r.AuthorName = &TextData{SimpleText: name}
	return wrapAction(Action{
		AddChatItemAction: &AddChatItemAction{Item: ChatItem{TextMessage: r}},
	}, offsetMsec)
}

func removeItemEvent(targetID string) *ReplayEvent {
	return wrapAction(Action{
		RemoveChatItemAction: &RemoveChatItemAction{TargetItemID: targetID},
	}, "0")
}

func removeByAuthorEvent(channelID, offsetMsec string) *ReplayEvent {
	return wrapAction(Action{
		RemoveChatItemByAuthorAction: &RemoveByAuthorAction{ExternalChannelID: channelID},
	}, offsetMsec)
}

func showPollEvent(pr *PollRenderer, panelID, offsetMsec string) *ReplayEvent {
	a := &ShowActionPanelAction{}
	a.PanelToShow.LiveChatActionPanelRenderer.ID = panelID
	a.PanelToShow.LiveChatActionPanelRenderer.Contents.PollRenderer = pr
	return wrapAction(Action{ShowLiveChatActionPanelAction: a}, offsetMsec)
}

func updatePollEvent(pr *PollRenderer, offsetMsec string) *ReplayEvent {
	a := &UpdatePollAction{}
	a.PollToUpdate.PollRenderer = pr
	return wrapAction(Action{UpdateLiveChatPollAction: a}, offsetMsec)
}

func closePanelEvent(panelID, offsetMsec string) *ReplayEvent {
	return wrapAction(Action{
		CloseLiveChatActionPanelAction: &CloseActionPanelAction{TargetPanelID: panelID},
	}, offsetMsec)
}

func TestSessionTextMessage(t *testing.T) {
	s := NewSession()
	if !s.Consume(textMessageEvent("m1", "UC1", "alice", "hello", "1000")) {
		t.Fatal("text message not consumed")
	}

	entries := s.Timeline()
	if len(entries) != 1 {
		t.Fatalf("timeline length = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.ID != "m1" || e.Kind != KindMessage || e.OffsetMsec != 1000 {
		t.Errorf("entry = %+v", e)
	}
	if e.ChannelID != "UC1" || e.UserName != "alice" || e.TextContent != "hello" {
		t.Errorf("entry identity = %+v", e)
	}
	if !strings.Contains(e.HTML, "00:01") || !strings.Contains(e.HTML, "hello") {
		t.Errorf("entry markup = %s", e.HTML)
	}
}

func TestSessionDeduplicatesByID(t *testing.T) {
	s := NewSession()
	if !s.Consume(textMessageEvent("m1", "UC1", "alice", "hello", "1000")) {
		t.Fatal("first delivery not consumed")
	}
	if s.Consume(textMessageEvent("m1", "UC1", "alice", "hello", "1000")) {
		t.Error("duplicate delivery consumed")
	}
	if got := len(s.Timeline()); got != 1 {
		t.Errorf("timeline length = %d, want 1", got)
	}
}

func TestSessionRemovalAfterTarget(t *testing.T) {
	s := NewSession()
	s.Consume(textMessageEvent("m1", "UC1", "alice", "hello", "1000"))
	s.Consume(textMessageEvent("m2", "UC2", "bob", "hey", "2000"))

	if !s.Consume(removeItemEvent("m1")) {
		t.Fatal("removal not consumed")
	}
	entries := s.Timeline()
	if !entries[0].IsDeleted {
		t.Error("targeted entry not marked deleted")
	}
	if entries[1].IsDeleted {
		t.Error("unrelated entry marked deleted")
	}
	if got := len(entries); got != 2 {
		t.Errorf("removal changed timeline length: %d", got)
	}
}

func TestSessionRemovalBeforeTarget(t *testing.T) {
	s := NewSession()
	if !s.Consume(removeItemEvent("m1")) {
		t.Fatal("early removal not consumed")
	}
	s.Consume(textMessageEvent("m1", "UC1", "alice", "hello", "1000"))

	entries := s.Timeline()
	if len(entries) != 1 || !entries[0].IsDeleted {
		t.Errorf("late-arriving target not marked deleted: %+v", entries)
	}
}

func TestSessionRemoveByAuthorWindow(t *testing.T) {
	s := NewSession()
	s.Consume(textMessageEvent("m1", "UC1", "alice", "early", "400"))
	s.Consume(textMessageEvent("m2", "UC1", "alice", "late", "600"))
	s.Consume(textMessageEvent("m3", "UC2", "bob", "bystander", "400"))

	if !s.Consume(removeByAuthorEvent("UC1", "500")) {
		t.Fatal("author removal not consumed")
	}

	entries := s.Timeline()
	if !entries[0].IsDeleted || !entries[0].IsTimedOut {
		t.Error("in-window entry not flagged")
	}
	if entries[1].IsDeleted || entries[1].IsTimedOut {
		t.Error("post-window entry flagged")
	}
	if entries[2].IsDeleted || entries[2].IsTimedOut {
		t.Error("other author's entry flagged")
	}

	// A record from the window that arrives after the removal is still caught.
	s.Consume(textMessageEvent("m4", "UC1", "alice", "inside window", "450"))
	late := s.Timeline()[3]
	if !late.IsTimedOut {
		t.Error("late-arriving in-window entry not timed out")
	}

	s.Consume(textMessageEvent("m5", "UC1", "alice", "after window", "501"))
	if s.Timeline()[4].IsTimedOut {
		t.Error("entry past the cutoff timed out")
	}
}

func TestSessionTimeoutCutoffNeverLowers(t *testing.T) {
	s := NewSession()
	s.Consume(removeByAuthorEvent("UC1", "500"))
	s.Consume(removeByAuthorEvent("UC1", "300"))

	s.Consume(textMessageEvent("m1", "UC1", "alice", "hi", "450"))
	if !s.Timeline()[0].IsTimedOut {
		t.Error("cutoff was lowered by an older removal")
	}
}

func TestSessionPollLifecycle(t *testing.T) {
	s := NewSession()

	open := pollRenderer("p1", "Best arc?", "Poll · 10 votes",
		pollChoice("A", "60%"), pollChoice("B", "40%"))
	if !s.Consume(showPollEvent(open, "panel1", "1000")) {
		t.Fatal("poll open not consumed")
	}
	if got := len(s.Timeline()); got != 1 {
		t.Fatalf("timeline length after open = %d, want 1", got)
	}
	opened := s.Timeline()[0]
	if opened.Kind != KindPollOpened || opened.PollID != "p1" {
		t.Fatalf("opened entry = %+v", opened)
	}

	// Update mutates the poll in place; no new timeline entry.
	update := pollRenderer("p1", "Best arc?", "Poll · 100 votes",
		pollChoice("A", "70%"), pollChoice("B", "30%"))
	if !s.Consume(updatePollEvent(update, "2000")) {
		t.Fatal("poll update not consumed")
	}
	if got := len(s.Timeline()); got != 1 {
		t.Errorf("update appended an entry: timeline length = %d", got)
	}
	if got := s.Poll("p1").TotalVotes; got != 100 {
		t.Errorf("poll votes after update = %d, want 100", got)
	}

	// The opened entry renders the poll's current state.
	html := s.RenderHTML(opened)
	if !strings.Contains(html, "100 votes") {
		t.Errorf("opened entry markup not live: %s", html)
	}

	// A stale update (older offset) is dropped.
	stale := pollRenderer("p1", "Best arc?", "Poll · 50 votes", pollChoice("A", "50%"))
	if s.Consume(updatePollEvent(stale, "1500")) {
		t.Error("stale update consumed")
	}
	if got := s.Poll("p1").TotalVotes; got != 100 {
		t.Errorf("stale update applied: votes = %d", got)
	}

	// Close by panel id. The close is terminal.
	if !s.Consume(closePanelEvent("panel1", "3000")) {
		t.Fatal("close not consumed")
	}
	entries := s.Timeline()
	if len(entries) != 2 {
		t.Fatalf("timeline length after close = %d, want 2", len(entries))
	}
	closed := entries[1]
	if closed.Kind != KindPollClosed || closed.Snapshot == nil {
		t.Fatalf("closed entry = %+v", closed)
	}
	if closed.Snapshot.Choices[0].Text != "A" || closed.Snapshot.Choices[0].EstimatedVotes != 70 {
		t.Errorf("closed snapshot = %+v", closed.Snapshot.Choices)
	}

	if s.Consume(closePanelEvent("panel1", "3500")) {
		t.Error("duplicate close consumed")
	}
	update2 := pollRenderer("p1", "Best arc?", "Poll · 999 votes", pollChoice("A", "100%"))
	if s.Consume(updatePollEvent(update2, "4000")) {
		t.Error("update after close consumed")
	}
}

func TestSessionPollCloseByBannerRemoval(t *testing.T) {
	s := NewSession()
	open := pollRenderer("p1", "q", "Poll · 4 votes", pollChoice("A", "100%"))
	s.Consume(showPollEvent(open, "panel1", "1000"))

	// The banner-removal shape targets the poll id rather than the panel id.
	ev := wrapAction(Action{
		RemoveBannerForLiveChatCommand: &RemoveBannerCommand{TargetActionID: "p1"},
	}, "2000")
	if !s.Consume(ev) {
		t.Fatal("banner-removal close not consumed")
	}
	if !s.Poll("p1").Completed {
		t.Error("poll not completed")
	}
}

func TestSessionGiftPurchase(t *testing.T) {
	s := NewSession()

	top := &GiftPurchaseRenderer{ID: "g1", AuthorExternalChannelID: "UC9"}
	top.Header.LiveChatSponsorshipsHeaderRenderer.AuthorName = &TextData{SimpleText: "santa"}
	top.Header.LiveChatSponsorshipsHeaderRenderer.PrimaryText = TextData{Runs: []TextRun{
		{Text: "santa gifted "},
		{Text: "20"},
		{Text: " memberships"},
	}}
	ev := wrapAction(Action{
		AddChatItemAction: &AddChatItemAction{Item: ChatItem{GiftPurchase: top}},
	}, "5000")

	if !s.Consume(ev) {
		t.Fatal("gift purchase not consumed")
	}
	e := s.Timeline()[0]
	if e.Kind != KindGiftPurchase || e.GiftCount != 20 {
		t.Errorf("gift entry = %+v", e)
	}
	if e.ChannelID != "UC9" {
		t.Errorf("purchaser channel id = %q, want UC9 (from outer renderer)", e.ChannelID)
	}
	if !strings.Contains(e.HTML, "🎁") {
		t.Errorf("gift markup missing icon: %s", e.HTML)
	}
}

func TestSessionMembershipVariants(t *testing.T) {
	s := NewSession()

	join := &MembershipItemRenderer{ID: "j1", HeaderSubtext: TextData{SimpleText: "Welcome to Members!"}}
	join.AuthorName = &TextData{SimpleText: "carol"}
	s.Consume(wrapAction(Action{AddChatItemAction: &AddChatItemAction{Item: ChatItem{MembershipItem: join}}}, "1000"))

	milestone := &MembershipItemRenderer{
		ID:                "ms1",
		Message:           &TextData{SimpleText: "12 months strong"},
		HeaderPrimaryText: TextData{SimpleText: "Member for 12 months"},
	}
	milestone.AuthorName = &TextData{SimpleText: "dave"}
	s.Consume(wrapAction(Action{AddChatItemAction: &AddChatItemAction{Item: ChatItem{MembershipItem: milestone}}}, "2000"))

	entries := s.Timeline()
	if entries[0].Kind != KindMembershipJoin {
		t.Errorf("join classified as %v", entries[0].Kind)
	}
	if entries[1].Kind != KindMilestone {
		t.Errorf("milestone classified as %v", entries[1].Kind)
	}
	if !strings.Contains(entries[1].HTML, "12 mo") {
		t.Errorf("milestone markup missing shortened length: %s", entries[1].HTML)
	}
}

func TestSessionSuperchat(t *testing.T) {
	s := NewSession()
	r := &PaidMessageRenderer{
		ID:                  "sc1",
		PurchaseAmountText:  TextData{SimpleText: "CA$10.00"},
		BodyBackgroundColor: 4293271831,
		Message:             &TextData{SimpleText: "love the content"},
	}
	r.AuthorName = &TextData{SimpleText: "eve"}
	r.AuthorExternalChannelID = "UC5"
	s.Consume(wrapAction(Action{AddChatItemAction: &AddChatItemAction{Item: ChatItem{PaidMessage: r}}}, "1000"))

	e := s.Timeline()[0]
	if e.Kind != KindSuperchat || e.Colour != "red" {
		t.Errorf("superchat entry = %+v", e)
	}
	if e.CurrencyLabel != "CA$" || e.Amount != 10 {
		t.Errorf("superchat amount = %q %v", e.CurrencyLabel, e.Amount)
	}
}

func TestSessionUnrecognizedShapesSkipped(t *testing.T) {
	s := NewSession()
	if s.Consume(&ReplayEvent{}) {
		t.Error("empty event consumed")
	}
	if s.Consume(wrapAction(Action{}, "0")) {
		t.Error("action with no known shape consumed")
	}
	if s.Consume(wrapAction(Action{AddChatItemAction: &AddChatItemAction{}}, "0")) {
		t.Error("chat item with no renderer consumed")
	}
}

func TestEventOffsetPrecedence(t *testing.T) {
	ev := textMessageEvent("m1", "UC1", "a", "x", "1000")
	ev.VideoOffsetTimeMsec = "9999"
	if got := eventOffsetMsec(ev); got != 1000 {
		t.Errorf("inner offset not preferred: %d", got)
	}

	ev.ReplayChatItemAction.VideoOffsetTimeMsec = ""
	if got := eventOffsetMsec(ev); got != 9999 {
		t.Errorf("outer offset not used as fallback: %d", got)
	}

	ev.VideoOffsetTimeMsec = "-4000"
	if got := eventOffsetMsec(ev); got != -4000 {
		t.Errorf("negative offset = %d, want -4000", got)
	}

	ev.VideoOffsetTimeMsec = "bogus"
	if got := eventOffsetMsec(ev); got != 0 {
		t.Errorf("unparseable offset = %d, want 0", got)
	}
}

func TestParseOffsetMsec(t *testing.T) {
	tests := []struct {
		input string
		want  *int64
	}{
		{"1000", ptr(int64(1000))},
		{"-500", ptr(int64(-500))},
		{"+250", ptr(int64(250))},
		{"", nil},
		{"-", nil},
		{"12a", nil},
	}
	for _, tt := range tests {
		got := parseOffsetMsec(tt.input)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("parseOffsetMsec(%q) = %d, want nil", tt.input, *got)
		case tt.want != nil && (got == nil || *got != *tt.want):
			t.Errorf("parseOffsetMsec(%q) = %v, want %d", tt.input, got, *tt.want)
		}
	}
}

func ptr[T any](v T) *T { return &v }

func TestSessionFeedChunkSplitsLines(t *testing.T) {
	line1 := `{"replayChatItemAction":{"actions":[{"addChatItemAction":{"item":{"liveChatTextMessageRenderer":{"id":"m1","authorExternalChannelId":"UC1","authorName":{"simpleText":"alice"},"message":{"simpleText":"hello"}}}}}],"videoOffsetTimeMsec":"1000"}}`
	line2 := `{"replayChatItemAction":{"actions":[{"addChatItemAction":{"item":{"liveChatTextMessageRenderer":{"id":"m2","authorExternalChannelId":"UC2","authorName":{"simpleText":"bob"},"message":{"simpleText":"hey"}}}}}],"videoOffsetTimeMsec":"2000"}}`

	s := NewSession()
	payload := line1 + "\n" + line2
	// Feed in chunks that split the first line mid-record.
	mid := len(line1) / 2
	s.FeedChunk([]byte(payload[:mid]))
	s.FeedChunk([]byte(payload[mid:]))
	counts := s.Finish()

	if counts.Lines != 2 || counts.Consumed != 2 {
		t.Errorf("counts = %+v, want 2 lines / 2 consumed", counts)
	}
	if got := len(s.Timeline()); got != 2 {
		t.Errorf("timeline length = %d, want 2", got)
	}
}

func TestSessionMalformedLines(t *testing.T) {
	s := NewSession()
	s.FeedChunk([]byte("not json\n{\"replayChatItemAction\":null}\n"))
	counts := s.Finish()

	if counts.Malformed != 1 {
		t.Errorf("malformed = %d, want 1", counts.Malformed)
	}
	if counts.Skipped != 1 {
		t.Errorf("skipped = %d, want 1 (null action)", counts.Skipped)
	}
	if counts.Consumed != 0 {
		t.Errorf("consumed = %d, want 0", counts.Consumed)
	}
}

func TestSessionFeedReader(t *testing.T) {
	line := `{"replayChatItemAction":{"actions":[{"addChatItemAction":{"item":{"liveChatTextMessageRenderer":{"id":"m1","authorName":{"simpleText":"alice"},"message":{"simpleText":"hello"}}}}}],"videoOffsetTimeMsec":"1000"}}`

	s := NewSession()
	counts, err := s.FeedReader(strings.NewReader(line))
	if err != nil {
		t.Fatalf("FeedReader: %v", err)
	}
	if counts.Consumed != 1 {
		t.Errorf("counts = %+v, want 1 consumed (trailing line flushed)", counts)
	}
}

func TestSessionReset(t *testing.T) {
	s := NewSession()
	s.Consume(textMessageEvent("m1", "UC1", "alice", "hello", "1000"))
	s.Consume(removeByAuthorEvent("UC1", "5000"))
	s.Reset()

	if len(s.Timeline()) != 0 {
		t.Error("timeline survived reset")
	}
	if s.Counts() != (IngestCounts{}) {
		t.Error("counts survived reset")
	}
	// Prior dedup and timeout state must be gone too.
	if !s.Consume(textMessageEvent("m1", "UC1", "alice", "hello", "1000")) {
		t.Error("previously seen id still deduplicated after reset")
	}
	if s.Timeline()[0].IsTimedOut {
		t.Error("previous timeout cutoff survived reset")
	}
}
