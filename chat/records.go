package chat

// Raw replay record shapes. One replay file line decodes into a ReplayEvent;
// the presence of exactly one pointer field at each level decides the dispatch
// path. Unknown shapes decode cleanly (all pointers nil) and classify as
// unrecognized rather than failing the line.

// ReplayEvent is the outermost shape of one replay file line.
type ReplayEvent struct {
	ReplayChatItemAction *ReplayChatItemAction `json:"replayChatItemAction"`
	VideoOffsetTimeMsec  string                `json:"videoOffsetTimeMsec"`
	IsLive               bool                  `json:"isLive"`
}

// ReplayChatItemAction wraps the actions recorded for one moment of the stream.
// In practice a record carries exactly one action.
type ReplayChatItemAction struct {
	Actions             []Action `json:"actions"`
	VideoOffsetTimeMsec string   `json:"videoOffsetTimeMsec"`
}

// Action is the closed union of every action shape the classifier understands.
type Action struct {
	AddChatItemAction              *AddChatItemAction      `json:"addChatItemAction"`
	AddBannerToLiveChatCommand     *AddBannerCommand       `json:"addBannerToLiveChatCommand"`
	RemoveChatItemAction           *RemoveChatItemAction   `json:"removeChatItemAction"`
	RemoveChatItemByAuthorAction   *RemoveByAuthorAction   `json:"removeChatItemByAuthorAction"`
	ShowLiveChatActionPanelAction  *ShowActionPanelAction  `json:"showLiveChatActionPanelAction"`
	UpdateLiveChatPollAction       *UpdatePollAction       `json:"updateLiveChatPollAction"`
	CloseLiveChatActionPanelAction *CloseActionPanelAction `json:"closeLiveChatActionPanelAction"`
	RemoveBannerForLiveChatCommand *RemoveBannerCommand    `json:"removeBannerForLiveChatCommand"`
}

// AddChatItemAction carries one renderable chat item.
type AddChatItemAction struct {
	Item ChatItem `json:"item"`
}

// ChatItem is the closed union of renderer variants. Dispatch order is fixed
// (gift purchase first, plain text last); first non-nil field wins.
type ChatItem struct {
	GiftPurchase   *GiftPurchaseRenderer   `json:"liveChatSponsorshipsGiftPurchaseAnnouncementRenderer"`
	GiftRedemption *TextMessageRenderer    `json:"liveChatSponsorshipsGiftRedemptionAnnouncementRenderer"`
	MembershipItem *MembershipItemRenderer `json:"liveChatMembershipItemRenderer"`
	PaidMessage    *PaidMessageRenderer    `json:"liveChatPaidMessageRenderer"`
	PaidSticker    *PaidStickerRenderer    `json:"liveChatPaidStickerRenderer"`
	TextMessage    *TextMessageRenderer    `json:"liveChatTextMessageRenderer"`
}

type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type Accessibility struct {
	AccessibilityData struct {
		Label string `json:"label"`
	} `json:"accessibilityData"`
}

// Image is a thumbnail set with an accessibility label.
type Image struct {
	Thumbnails    []Thumbnail   `json:"thumbnails"`
	Accessibility Accessibility `json:"accessibility"`
}

type Emoji struct {
	EmojiID       string   `json:"emojiId"`
	IsCustomEmoji bool     `json:"isCustomEmoji"`
	Shortcuts     []string `json:"shortcuts"`
	SearchTerms   []string `json:"searchTerms"`
	Image         Image    `json:"image"`
}

type TextRun struct {
	Text  string `json:"text"`
	Emoji *Emoji `json:"emoji"`
}

// TextData is the rich-text representation: either a simple string or an
// ordered list of runs mixing plain spans and emoji references.
type TextData struct {
	SimpleText string    `json:"simpleText"`
	Runs       []TextRun `json:"runs"`
}

type Badge struct {
	LiveChatAuthorBadgeRenderer struct {
		Tooltip string `json:"tooltip"`
	} `json:"liveChatAuthorBadgeRenderer"`
}

// AuthorInfo is the per-event author metadata shared by all renderer variants.
type AuthorInfo struct {
	AuthorExternalChannelID string    `json:"authorExternalChannelId"`
	AuthorName              *TextData `json:"authorName"`
	AuthorBadges            []Badge   `json:"authorBadges"`
}

// TextMessageRenderer covers plain messages and gift redemption announcements
// (the latter is structurally identical).
type TextMessageRenderer struct {
	AuthorInfo
	ID            string    `json:"id"`
	Message       *TextData `json:"message"`
	TimestampUsec string    `json:"timestampUsec"`
}

type PaidMessageRenderer struct {
	AuthorInfo
	ID                    string    `json:"id"`
	Message               *TextData `json:"message"`
	PurchaseAmountText    TextData  `json:"purchaseAmountText"`
	BodyBackgroundColor   int64     `json:"bodyBackgroundColor"`
	HeaderBackgroundColor int64     `json:"headerBackgroundColor"`
	TimestampUsec         string    `json:"timestampUsec"`
}

type PaidStickerRenderer struct {
	AuthorInfo
	ID                 string   `json:"id"`
	PurchaseAmountText TextData `json:"purchaseAmountText"`
	BackgroundColor    int64    `json:"backgroundColor"`
	Sticker            Image    `json:"sticker"`
	TimestampUsec      string   `json:"timestampUsec"`
}

// MembershipItemRenderer covers both plain joins (no message body) and
// milestone messages (message body present).
type MembershipItemRenderer struct {
	AuthorInfo
	ID                string    `json:"id"`
	Message           *TextData `json:"message"`
	HeaderPrimaryText TextData  `json:"headerPrimaryText"`
	HeaderSubtext     TextData  `json:"headerSubtext"`
	TimestampUsec     string    `json:"timestampUsec"`
}

type GiftHeaderRenderer struct {
	AuthorInfo
	PrimaryText TextData `json:"primaryText"`
}

type GiftPurchaseRenderer struct {
	ID                      string `json:"id"`
	AuthorExternalChannelID string `json:"authorExternalChannelId"`
	TimestampUsec           string `json:"timestampUsec"`
	Header                  struct {
		LiveChatSponsorshipsHeaderRenderer GiftHeaderRenderer `json:"liveChatSponsorshipsHeaderRenderer"`
	} `json:"header"`
}

type RedirectRenderer struct {
	BannerMessage TextData `json:"bannerMessage"`
}

type AddBannerCommand struct {
	BannerRenderer struct {
		LiveChatBannerRenderer struct {
			ActionID   string `json:"actionId"`
			BannerType string `json:"bannerType"`
			Contents   struct {
				LiveChatBannerRedirectRenderer *RedirectRenderer `json:"liveChatBannerRedirectRenderer"`
			} `json:"contents"`
		} `json:"liveChatBannerRenderer"`
	} `json:"bannerRenderer"`
}

type RemoveChatItemAction struct {
	TargetItemID string `json:"targetItemId"`
}

type RemoveByAuthorAction struct {
	ExternalChannelID string `json:"externalChannelId"`
}

type PollChoice struct {
	Text           TextData  `json:"text"`
	VotePercentage *TextData `json:"votePercentage"`
	VoteRatio      float64   `json:"voteRatio"`
}

type PollRenderer struct {
	LiveChatPollID string `json:"liveChatPollId"`
	Header         struct {
		PollHeaderRenderer struct {
			PollQuestion TextData `json:"pollQuestion"`
			MetadataText TextData `json:"metadataText"`
		} `json:"pollHeaderRenderer"`
	} `json:"header"`
	Choices []PollChoice `json:"choices"`
}

type ShowActionPanelAction struct {
	PanelToShow struct {
		LiveChatActionPanelRenderer struct {
			ID       string `json:"id"`
			TargetID string `json:"targetId"`
			Contents struct {
				PollRenderer *PollRenderer `json:"pollRenderer"`
			} `json:"contents"`
		} `json:"liveChatActionPanelRenderer"`
	} `json:"panelToShow"`
}

type UpdatePollAction struct {
	PollToUpdate struct {
		PollRenderer *PollRenderer `json:"pollRenderer"`
	} `json:"pollToUpdate"`
}

type CloseActionPanelAction struct {
	TargetPanelID string `json:"targetPanelId"`
}

type RemoveBannerCommand struct {
	TargetActionID string `json:"targetActionId"`
}
