package models

// ConversationSummary is the derived per-counterpart view of a user's
// message log.
type ConversationSummary struct {
	User        PublicUser `json:"user"`
	LastMessage Message    `json:"last_message"`
	UnreadCount int        `json:"unread_count"`
}

// ConversationPage is one page of a conversation in ascending order.
type ConversationPage struct {
	Messages []Message `json:"messages"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
	HasMore  bool      `json:"has_more"`
}
