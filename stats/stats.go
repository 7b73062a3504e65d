// Package stats computes roll-up statistics over a reconstructed chat
// timeline. Everything here is a pure function of the entry sequence: it can
// be re-run over any subsequence (the full timeline or a filtered view) and
// always matches what incremental accumulation during ingestion would have
// produced. It never mutates session state.
package stats

import (
	"strings"

	"github.com/absolute-link/yt-chat-viewer/chat"
)

// Totals is the flat counter roll-up over a timeline subsequence.
type Totals struct {
	NumChatMessages      int `json:"numChatMessages"`
	NumMemberChats       int `json:"numMemberChats"`
	NumModChats          int `json:"numModChats"`
	NumOwnerChats        int `json:"numOwnerChats"`
	NumGreyChats         int `json:"numGreyChats"`
	NumMembershipJoins   int `json:"numMembershipJoins"`
	NumMilestoneMessages int `json:"numMilestoneMessages"`
	NumGiftPurchases     int `json:"numGiftPurchases"`
	TotalGiftsPurchased  int `json:"totalGiftsPurchased"`
	NumGiftRedemptions   int `json:"numGiftRedemptions"`
	NumSuperchats        int `json:"numSuperchats"`
	NumSuperStickers     int `json:"numSuperStickers"`

	// ColourTotals counts monetized entries per colour category.
	ColourTotals map[string]int `json:"colourTotals"`
	// CurrencyTotals sums purchase amounts per currency label, keyed by
	// whatever label the amount parser produced (symbol or code).
	CurrencyTotals map[string]float64 `json:"currencyTotals"`
}

// UserTotals is the per-author roll-up.
type UserTotals struct {
	Name                string  `json:"name"`
	IsMember            bool    `json:"isMember"`
	IsMod               bool    `json:"isMod"`
	IsOwner             bool    `json:"isOwner"`
	FirstOffsetMsec     int64   `json:"firstOffsetMsec"`
	LastOffsetMsec      int64   `json:"lastOffsetMsec"`
	NumChatMessages     int     `json:"numChatMessages"`
	NumGiftPurchases    int     `json:"numGiftPurchases"`
	TotalGiftsPurchased int     `json:"totalGiftsPurchased"`
	NumSuperchats       int     `json:"numSuperchats"`
	NumSuperStickers    int     `json:"numSuperStickers"`
}

// Derived holds ratios computed from the totals and the user table.
type Derived struct {
	ChatsPerUser   float64 `json:"chatsPerUser"`
	PctMembers     float64 `json:"pctMembers"`
	PctMemberChats float64 `json:"pctMemberChats"`
}

// Report bundles everything Calculate produces.
type Report struct {
	Totals  Totals                 `json:"totals"`
	Users   map[string]*UserTotals `json:"users"`
	Derived Derived                `json:"derived"`
}

func newTotals() Totals {
	colours := make(map[string]int, len(chat.ColourCategories))
	for _, c := range chat.ColourCategories {
		colours[c] = 0
	}
	return Totals{
		ColourTotals:   colours,
		CurrencyTotals: make(map[string]float64),
	}
}

// Calculate computes the full report over an entry sequence. Deleted and
// timed-out entries still count: removal is representational, not structural.
func Calculate(entries []*chat.TimelineEntry) *Report {
	report := &Report{
		Totals: newTotals(),
		Users:  make(map[string]*UserTotals),
	}
	t := &report.Totals

	for _, e := range entries {
		if !e.Kind.IsChatItem() {
			continue
		}

		t.NumChatMessages++
		anyRole := false
		if e.IsMember {
			t.NumMemberChats++
			anyRole = true
		}
		if e.IsMod {
			t.NumModChats++
			anyRole = true
		}
		if e.IsOwner {
			t.NumOwnerChats++
			anyRole = true
		}
		if !anyRole {
			t.NumGreyChats++
		}

		switch e.Kind {
		case chat.KindMembershipJoin:
			t.NumMembershipJoins++
		case chat.KindMilestone:
			t.NumMilestoneMessages++
		case chat.KindGiftPurchase:
			t.NumGiftPurchases++
			t.TotalGiftsPurchased += e.GiftCount
		case chat.KindGiftRedemption:
			t.NumGiftRedemptions++
		case chat.KindSuperchat:
			t.NumSuperchats++
		case chat.KindSuperSticker:
			t.NumSuperStickers++
		}

		if e.Colour != "" {
			t.ColourTotals[e.Colour]++
		}
		if e.CurrencyLabel != "" {
			t.CurrencyTotals[e.CurrencyLabel] += e.Amount
		}

		accumulateUser(report.Users, e)
	}

	report.Derived = derive(t, report.Users)
	return report
}

func accumulateUser(users map[string]*UserTotals, e *chat.TimelineEntry) {
	if e.ChannelID == "" {
		return
	}
	u, ok := users[e.ChannelID]
	if !ok {
		u = &UserTotals{Name: e.UserName, FirstOffsetMsec: e.OffsetMsec}
		users[e.ChannelID] = u
	}
	u.IsMember = u.IsMember || e.IsMember
	u.IsMod = u.IsMod || e.IsMod
	u.IsOwner = u.IsOwner || e.IsOwner
	if e.OffsetMsec < u.FirstOffsetMsec {
		u.FirstOffsetMsec = e.OffsetMsec
	}
	if e.OffsetMsec > u.LastOffsetMsec {
		u.LastOffsetMsec = e.OffsetMsec
	}
	u.NumChatMessages++
	switch e.Kind {
	case chat.KindGiftPurchase:
		u.NumGiftPurchases++
		u.TotalGiftsPurchased += e.GiftCount
	case chat.KindSuperchat:
		u.NumSuperchats++
	case chat.KindSuperSticker:
		u.NumSuperStickers++
	}
}

func derive(t *Totals, users map[string]*UserTotals) Derived {
	d := Derived{}
	if len(users) > 0 {
		d.ChatsPerUser = float64(t.NumChatMessages) / float64(len(users))
		members := 0
		for _, u := range users {
			if u.IsMember {
				members++
			}
		}
		d.PctMembers = 100 * float64(members) / float64(len(users))
	}
	if t.NumChatMessages > 0 {
		d.PctMemberChats = 100 * float64(t.NumMemberChats) / float64(t.NumChatMessages)
	}
	return d
}

// FilterOptions narrows a timeline for display. Kind is one of "all" (or
// empty), "moderators", "monetized". Search matches case-insensitively
// against text content and author name.
type FilterOptions struct {
	Kind   string
	Search string
}

// Filter returns the subsequence of entries matching the options, preserving
// order. The returned slice shares entry pointers with the input.
func Filter(entries []*chat.TimelineEntry, opts FilterOptions) []*chat.TimelineEntry {
	search := strings.ToLower(opts.Search)
	out := make([]*chat.TimelineEntry, 0, len(entries))
	for _, e := range entries {
		switch opts.Kind {
		case "moderators":
			if !e.IsMod && !e.IsOwner {
				continue
			}
		case "monetized":
			if !e.Kind.IsMonetized() {
				continue
			}
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(e.TextContent), search) &&
			!strings.Contains(strings.ToLower(e.UserName), search) {
			continue
		}
		out = append(out, e)
	}
	return out
}
