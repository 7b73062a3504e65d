package chat

// Kind identifies what a timeline entry represents.
type Kind int

const (
	KindMessage Kind = iota
	KindSuperchat
	KindSuperSticker
	KindMembershipJoin
	KindMilestone
	KindGiftPurchase
	KindGiftRedemption
	KindRedirect
	KindPollOpened
	KindPollClosed
)

// String returns the wire/display name of the kind.
func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindSuperchat:
		return "superchat"
	case KindSuperSticker:
		return "super-sticker"
	case KindMembershipJoin:
		return "membership-join"
	case KindMilestone:
		return "milestone"
	case KindGiftPurchase:
		return "gift-purchase"
	case KindGiftRedemption:
		return "gift-redemption"
	case KindRedirect:
		return "redirect"
	case KindPollOpened:
		return "poll-opened"
	case KindPollClosed:
		return "poll-closed"
	default:
		return "unknown"
	}
}

// IsChatItem reports whether the kind originated from a chat-item addition
// (as opposed to banners and poll lifecycle markers).
func (k Kind) IsChatItem() bool {
	switch k {
	case KindMessage, KindSuperchat, KindSuperSticker, KindMembershipJoin,
		KindMilestone, KindGiftPurchase, KindGiftRedemption:
		return true
	}
	return false
}

// IsMonetized reports whether the kind involves money changing hands.
func (k Kind) IsMonetized() bool {
	switch k {
	case KindSuperchat, KindSuperSticker, KindGiftPurchase, KindGiftRedemption, KindMilestone:
		return true
	}
	return false
}

// TimelineEntry is one reconstructed chat-timeline item. Entries are appended
// in source-record order and never removed; later corrective actions only
// flip the IsDeleted/IsTimedOut flags in place.
type TimelineEntry struct {
	// ID is the stable item identifier; empty for some synthetic entries
	// (poll lifecycle markers).
	ID        string
	ChannelID string
	UserName  string

	// OffsetMsec is relative to stream start; pre-stream events are negative.
	OffsetMsec int64

	Kind       Kind
	IsDeleted  bool
	IsTimedOut bool
	IsMember   bool
	IsMod      bool
	IsOwner    bool

	// Monetized payload.
	Colour        string
	CurrencyLabel string
	Amount        float64
	GiftCount     int

	// Poll payload: PollID for both poll kinds; Snapshot only on poll-closed
	// entries (the poll is terminal at that point, so the snapshot is final).
	PollID   string
	Snapshot *PollSnapshot

	// TextContent is the plain text used for search/filter.
	TextContent string

	// HTML is the precomputed display markup. Poll-opened entries are the
	// exception: their markup is produced at render time from current poll
	// state (see Session.RenderHTML).
	HTML string
}
