package chat

import (
	"io"
	"log/slog"

	"github.com/bytedance/sonic"

	"github.com/absolute-link/yt-chat-viewer/lines"
	"github.com/absolute-link/yt-chat-viewer/telemetry"
)

// IngestCounts tracks how a session's input stream has been handled so far.
type IngestCounts struct {
	Lines     int `json:"lines"`
	Consumed  int `json:"consumed"`
	Skipped   int `json:"skipped"`
	Malformed int `json:"malformed"`
}

// Session owns all cross-event state for one replay file: the seen-item
// dedup set, the deleted-id set, per-author timeout cutoffs, the poll table,
// and the growing timeline. All mutation happens inside Consume; stats and
// rendering consumers treat the session as read-only.
//
// A Session is not safe for concurrent use. Records are classified strictly
// one at a time; callers that share a session across requests must serialize
// access themselves.
type Session struct {
	seenIDs    map[string]struct{}
	deletedIDs map[string]struct{}
	timeouts   map[string]int64
	polls      map[string]*Poll
	timeline   []*TimelineEntry

	splitter lines.Splitter
	counts   IngestCounts

	logger *slog.Logger
}

// NewSession returns an empty session ready for ingestion.
func NewSession() *Session {
	s := &Session{logger: slog.Default().With(slog.String("component", "chat_session"))}
	s.reset()
	return s
}

func (s *Session) reset() {
	s.seenIDs = make(map[string]struct{})
	s.deletedIDs = make(map[string]struct{})
	s.timeouts = make(map[string]int64)
	s.polls = make(map[string]*Poll)
	s.timeline = nil
	s.splitter.Reset()
	s.counts = IngestCounts{}
}

// Reset discards all session state at once. Used when a new source is loaded
// mid-session; nothing from the previous source survives.
func (s *Session) Reset() {
	s.reset()
}

// FeedChunk pushes one chunk of raw bytes through the line splitter and
// classifies every completed line. Chunks may split lines at any byte
// boundary. Returns the running ingest counts.
func (s *Session) FeedChunk(chunk []byte) IngestCounts {
	for _, line := range s.splitter.Push(string(chunk)) {
		s.consumeLine(line)
	}
	return s.counts
}

// Finish flushes the trailing partial line, if any. Call once at end of
// stream.
func (s *Session) Finish() IngestCounts {
	if line, ok := s.splitter.Flush(); ok {
		s.consumeLine(line)
	}
	return s.counts
}

// FeedReader ingests an entire bounded stream: chunks are read until EOF and
// the final partial line is flushed.
func (s *Session) FeedReader(r io.Reader) (IngestCounts, error) {
	buf := make([]byte, 64*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			s.FeedChunk(buf[:n])
		}
		if err == io.EOF {
			return s.Finish(), nil
		}
		if err != nil {
			return s.counts, err
		}
	}
}

// consumeLine decodes one line and runs it through the classifier. Malformed
// lines are counted and skipped, never fatal.
func (s *Session) consumeLine(line string) {
	if line == "" {
		return
	}
	s.counts.Lines++

	var ev ReplayEvent
	if err := sonic.UnmarshalString(line, &ev); err != nil {
		s.counts.Malformed++
		telemetry.CountMalformed()
		s.logger.Debug("skipping malformed record", slog.Int("line", s.counts.Lines), slog.Any("err", err))
		return
	}
	if s.Consume(&ev) {
		s.counts.Consumed++
		telemetry.CountRecord(true)
	} else {
		s.counts.Skipped++
		telemetry.CountRecord(false)
	}
}

// Consume classifies one decoded record, updates session state, and appends
// at most one timeline entry. It reports whether the record was consumed;
// duplicates, stale updates, and unrecognized shapes are not.
func (s *Session) Consume(ev *ReplayEvent) bool {
	if ev == nil || ev.ReplayChatItemAction == nil || len(ev.ReplayChatItemAction.Actions) == 0 {
		return false
	}
	action := ev.ReplayChatItemAction.Actions[0]
	offset := eventOffsetMsec(ev)

	switch {
	case action.AddChatItemAction != nil:
		return s.addChatItem(&action.AddChatItemAction.Item, offset)
	case action.AddBannerToLiveChatCommand != nil:
		return s.addBanner(action.AddBannerToLiveChatCommand, offset)
	case action.RemoveChatItemAction != nil:
		return s.removeItem(action.RemoveChatItemAction.TargetItemID)
	case action.RemoveChatItemByAuthorAction != nil:
		return s.removeByAuthor(action.RemoveChatItemByAuthorAction.ExternalChannelID, offset)
	case action.ShowLiveChatActionPanelAction != nil:
		panel := &action.ShowLiveChatActionPanelAction.PanelToShow.LiveChatActionPanelRenderer
		return s.upsertPoll(panel.Contents.PollRenderer, panel.ID, offset)
	case action.UpdateLiveChatPollAction != nil:
		return s.upsertPoll(action.UpdateLiveChatPollAction.PollToUpdate.PollRenderer, "", offset)
	case action.CloseLiveChatActionPanelAction != nil:
		return s.closePoll(action.CloseLiveChatActionPanelAction.TargetPanelID, offset)
	case action.RemoveBannerForLiveChatCommand != nil:
		return s.closePoll(action.RemoveBannerForLiveChatCommand.TargetActionID, offset)
	default:
		return false
	}
}

// eventOffsetMsec prefers the per-action offset, falls back to the outer
// event's, and defaults to zero. Offsets are signed: pre-stream events are
// negative.
func eventOffsetMsec(ev *ReplayEvent) int64 {
	if v := parseOffsetMsec(ev.ReplayChatItemAction.VideoOffsetTimeMsec); v != nil {
		return *v
	}
	if v := parseOffsetMsec(ev.VideoOffsetTimeMsec); v != nil {
		return *v
	}
	return 0
}

// addChatItem dispatches on the renderer variant, in fixed order, and appends
// one entry unless the item id was already seen.
func (s *Session) addChatItem(item *ChatItem, offsetMsec int64) bool {
	entry := &TimelineEntry{OffsetMsec: offsetMsec}
	var user User

	switch {
	case item.GiftPurchase != nil:
		top := item.GiftPurchase
		header := top.Header.LiveChatSponsorshipsHeaderRenderer
		// The purchaser's channel id lives on the outer renderer, not the header.
		header.AuthorExternalChannelID = top.AuthorExternalChannelID
		user = userFromAuthorInfo(header.AuthorInfo)
		entry.ID = top.ID
		entry.Kind = KindGiftPurchase
		entry.GiftCount = giftCountFromPrimaryText(&header.PrimaryText)
		entry.TextContent = PlainText(&header.PrimaryText)
		entry.HTML = giftMessageSpan(&header.PrimaryText)

	case item.GiftRedemption != nil:
		r := item.GiftRedemption
		user = userFromAuthorInfo(r.AuthorInfo)
		entry.ID = r.ID
		entry.Kind = KindGiftRedemption
		entry.TextContent = PlainText(r.Message)
		entry.HTML = messageSpan(r.Message, "membership-received", "system-message")

	case item.MembershipItem != nil:
		r := item.MembershipItem
		user = userFromAuthorInfo(r.AuthorInfo)
		entry.ID = r.ID
		if r.Message != nil {
			entry.Kind = KindMilestone
			entry.TextContent = PlainText(r.Message)
			entry.HTML = memberMessageSpan(&r.HeaderPrimaryText, r.Message)
		} else {
			entry.Kind = KindMembershipJoin
			entry.TextContent = PlainText(&r.HeaderSubtext)
			entry.HTML = messageSpan(&r.HeaderSubtext, "membership-join", "system-message")
		}

	case item.PaidMessage != nil:
		r := item.PaidMessage
		user = userFromAuthorInfo(r.AuthorInfo)
		amount := ParseAmount(PlainText(&r.PurchaseAmountText))
		entry.ID = r.ID
		entry.Kind = KindSuperchat
		entry.Colour = ColourFromBackground(r.BodyBackgroundColor)
		entry.CurrencyLabel = amount.Label
		entry.Amount = amount.Value
		entry.TextContent = PlainText(r.Message)
		entry.HTML = superchatSpan(r)

	case item.PaidSticker != nil:
		r := item.PaidSticker
		user = userFromAuthorInfo(r.AuthorInfo)
		amount := ParseAmount(PlainText(&r.PurchaseAmountText))
		entry.ID = r.ID
		entry.Kind = KindSuperSticker
		entry.Colour = ColourFromBackground(r.BackgroundColor)
		entry.CurrencyLabel = amount.Label
		entry.Amount = amount.Value
		entry.TextContent = r.Sticker.Accessibility.AccessibilityData.Label
		entry.HTML = stickerSpan(r)

	case item.TextMessage != nil:
		r := item.TextMessage
		user = userFromAuthorInfo(r.AuthorInfo)
		entry.ID = r.ID
		entry.Kind = KindMessage
		entry.TextContent = PlainText(r.Message)
		entry.HTML = messageSpan(r.Message)

	default:
		return false
	}

	// Re-delivered duplicates from overlapping capture ranges are dropped.
	if entry.ID != "" {
		if _, dup := s.seenIDs[entry.ID]; dup {
			return false
		}
	}

	entry.ChannelID = user.ChannelID
	entry.UserName = user.Name
	entry.IsMember = user.IsMember
	entry.IsMod = user.IsMod
	entry.IsOwner = user.IsOwner
	entry.HTML = timeOffsetSpan(offsetMsec) + userSpan(user) + entry.HTML

	s.append(entry)
	return true
}

// addBanner handles redirect banners; other banner contents are not consumed.
// Banner ids share the seen-id space with message ids.
func (s *Session) addBanner(cmd *AddBannerCommand, offsetMsec int64) bool {
	banner := cmd.BannerRenderer.LiveChatBannerRenderer
	redirect := banner.Contents.LiveChatBannerRedirectRenderer
	if redirect == nil {
		return false
	}
	if banner.ActionID != "" {
		if _, dup := s.seenIDs[banner.ActionID]; dup {
			return false
		}
	}
	entry := &TimelineEntry{
		ID:          banner.ActionID,
		Kind:        KindRedirect,
		OffsetMsec:  offsetMsec,
		TextContent: PlainText(&redirect.BannerMessage),
		HTML:        timeOffsetSpan(offsetMsec) + redirectSpan(redirect),
	}
	s.append(entry)
	return true
}

// append applies the retroactive deletion/timeout checks, records the id as
// seen, and grows the timeline.
func (s *Session) append(entry *TimelineEntry) {
	if entry.ID != "" {
		if _, deleted := s.deletedIDs[entry.ID]; deleted {
			entry.IsDeleted = true
		}
		s.seenIDs[entry.ID] = struct{}{}
	}
	if entry.ChannelID != "" {
		if cutoff, ok := s.timeouts[entry.ChannelID]; ok && entry.OffsetMsec <= cutoff {
			entry.IsTimedOut = true
		}
	}
	s.timeline = append(s.timeline, entry)
	telemetry.CountEntry(entry.Kind.String())
}

// removeItem marks the targeted entry deleted. The id is recorded in the
// deleted set regardless, so a removal that outruns its target still applies
// when the target eventually arrives.
func (s *Session) removeItem(targetID string) bool {
	if targetID == "" {
		return false
	}
	if _, done := s.deletedIDs[targetID]; done {
		// Re-delivered removal; already applied.
		return true
	}
	for _, entry := range s.timeline {
		if entry.ID == targetID {
			entry.IsDeleted = true
		}
	}
	s.deletedIDs[targetID] = struct{}{}
	return true
}

// removeByAuthor applies a ban/timeout: every entry from the author at or
// before the removal offset is marked deleted and timed out, and the author's
// cutoff is raised so later-arriving records inside the window are caught at
// append time.
func (s *Session) removeByAuthor(channelID string, offsetMsec int64) bool {
	if channelID == "" {
		return false
	}
	for _, entry := range s.timeline {
		if entry.ChannelID != channelID || entry.OffsetMsec > offsetMsec {
			continue
		}
		entry.IsDeleted = true
		entry.IsTimedOut = true
		if entry.ID != "" {
			s.deletedIDs[entry.ID] = struct{}{}
		}
	}
	if cutoff, ok := s.timeouts[channelID]; !ok || offsetMsec > cutoff {
		s.timeouts[channelID] = offsetMsec
	}
	return true
}

// upsertPoll resolves a poll open/update record. A first sighting creates the
// poll and appends a poll-opened entry; later updates mutate the poll in
// place with no new entry. Updates older than the poll's last-applied offset
// are stale and dropped, and completed polls accept no mutation at all.
func (s *Session) upsertPoll(pr *PollRenderer, panelID string, offsetMsec int64) bool {
	if pr == nil || pr.LiveChatPollID == "" {
		return false
	}
	if poll, ok := s.polls[pr.LiveChatPollID]; ok {
		if offsetMsec < poll.LastUpdatedMsec {
			return false
		}
		if poll.Completed {
			return false
		}
		if panelID != "" && poll.PanelID == "" {
			poll.PanelID = panelID
		}
		poll.applyUpdate(pr, offsetMsec)
		return true
	}

	poll := &Poll{ID: pr.LiveChatPollID, PanelID: panelID}
	poll.applyUpdate(pr, offsetMsec)
	s.polls[poll.ID] = poll

	entry := &TimelineEntry{
		Kind:        KindPollOpened,
		OffsetMsec:  offsetMsec,
		PollID:      poll.ID,
		TextContent: poll.Question,
	}
	s.append(entry)
	return true
}

// closePoll resolves either close-action shape (panel close or banner
// removal) to a poll and completes it. Closing is terminal: a duplicate close
// is not consumed.
func (s *Session) closePoll(target string, offsetMsec int64) bool {
	if target == "" {
		return false
	}
	var poll *Poll
	for _, p := range s.polls {
		if p.ID == target || p.PanelID == target {
			poll = p
			break
		}
	}
	if poll == nil || poll.Completed {
		return false
	}
	poll.Completed = true

	snap := poll.snapshot()
	poll.Choices = make([]PollChoiceState, 0, len(snap.Choices))
	for _, c := range snap.Choices {
		poll.Choices = append(poll.Choices, PollChoiceState{Text: c.Text, Percentage: c.Percentage})
	}

	entry := &TimelineEntry{
		Kind:        KindPollClosed,
		OffsetMsec:  offsetMsec,
		PollID:      poll.ID,
		Snapshot:    snap,
		TextContent: snap.Question,
		HTML:        timeOffsetSpan(offsetMsec) + pollClosedSpan(snap),
	}
	s.append(entry)
	return true
}

// Timeline returns the ordered entry sequence. The slice is shared: callers
// must treat it as read-only.
func (s *Session) Timeline() []*TimelineEntry {
	return s.timeline
}

// Poll returns the current state of a poll by id, or nil.
func (s *Session) Poll(id string) *Poll {
	return s.polls[id]
}

// Counts returns the running ingest counts.
func (s *Session) Counts() IngestCounts {
	return s.counts
}

// RenderHTML produces the display markup for an entry. Poll-opened entries
// are rendered from the poll's current state so in-place updates show up
// without re-emitting rows; everything else was precomputed at append time.
func (s *Session) RenderHTML(entry *TimelineEntry) string {
	if entry.Kind == KindPollOpened {
		if poll, ok := s.polls[entry.PollID]; ok {
			return timeOffsetSpan(entry.OffsetMsec) + pollSpan(poll, poll.Completed)
		}
	}
	return entry.HTML
}

// giftCountFromPrimaryText reads the gifted-membership count from the second
// text run of the announcement ("<name> gifted | 5 | memberships"). Absent or
// unparseable counts default to zero.
func giftCountFromPrimaryText(td *TextData) int {
	if td == nil || len(td.Runs) < 2 {
		return 0
	}
	n := 0
	for _, r := range td.Runs[1].Text {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// parseOffsetMsec parses a signed millisecond offset string; nil means absent
// or unparseable.
func parseOffsetMsec(s string) *int64 {
	if s == "" {
		return nil
	}
	neg := false
	i := 0
	if s[0] == '-' || s[0] == '+' {
		neg = s[0] == '-'
		i = 1
	}
	if i >= len(s) {
		return nil
	}
	var v int64
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return nil
		}
		v = v*10 + int64(s[i]-'0')
	}
	if neg {
		v = -v
	}
	return &v
}
