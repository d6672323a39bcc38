package dto

import (
	"time"

	domainnotif "tradepost/internal/domain/notification"
)

type Notification struct {
	ID           string    `json:"id"`
	ListingID    string    `json:"listing_id"`
	ListingTitle string    `json:"listing_title"`
	SenderID     string    `json:"sender_id"`
	SenderName   string    `json:"sender_name"`
	ReceiverID   string    `json:"receiver_id"`
	ReceiverName string    `json:"receiver_name"`
	Type         string    `json:"type"`
	Unread       bool      `json:"unread"`
	CreatedAt    time.Time `json:"created_at"`
}

func MapNotification(n *domainnotif.Notification) Notification {
	if n == nil {
		return Notification{}
	}
	return Notification{
		ID:           n.ID,
		ListingID:    string(n.ListingID),
		ListingTitle: n.ListingTitle,
		SenderID:     string(n.SenderID),
		SenderName:   n.SenderName,
		ReceiverID:   string(n.ReceiverID),
		ReceiverName: n.ReceiverName,
		Type:         string(n.Type),
		Unread:       n.Unread,
		CreatedAt:    n.CreatedAt,
	}
}

func MapNotifications(notifications []*domainnotif.Notification) []Notification {
	out := make([]Notification, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, MapNotification(n))
	}
	return out
}
