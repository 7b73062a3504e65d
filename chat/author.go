package chat

import "strings"

// UnknownName is substituted when an event carries no author display name.
const UnknownName = "[Unknown Name]"

// User is the normalized author identity derived from per-event metadata.
type User struct {
	ChannelID string
	Name      string
	IsMember  bool
	IsMod     bool
	IsOwner   bool
}

// userFromAuthorInfo classifies an author by badge tooltips. Matching is
// case-insensitive; multiple role badges are all honored.
func userFromAuthorInfo(a AuthorInfo) User {
	u := User{
		ChannelID: a.AuthorExternalChannelID,
		Name:      SimplifyText(a.AuthorName),
	}
	if u.Name == "" {
		u.Name = UnknownName
	}
	for _, badge := range a.AuthorBadges {
		tooltip := strings.ToLower(badge.LiveChatAuthorBadgeRenderer.Tooltip)
		switch {
		case tooltip == "owner":
			u.IsOwner = true
		case tooltip == "moderator":
			u.IsMod = true
		case strings.HasPrefix(tooltip, "member") || tooltip == "new member":
			u.IsMember = true
		}
	}
	return u
}

// cssClasses returns the role classes used in rendered user spans.
func (u User) cssClasses() []string {
	var classes []string
	if u.IsOwner {
		classes = append(classes, "owner")
	}
	if u.IsMod {
		classes = append(classes, "mod")
	}
	if u.IsMember {
		classes = append(classes, "mem")
	}
	return classes
}
