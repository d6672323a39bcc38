package memory

import (
	"context"
	"sort"
	"sync"

	domainlisting "tradepost/internal/domain/listing"
	domainnotif "tradepost/internal/domain/notification"
	domainuser "tradepost/internal/domain/user"
)

type notificationKey struct {
	listing  domainlisting.ID
	sender   domainuser.ID
	receiver domainuser.ID
	event    domainnotif.EventType
}

// NotificationRepository merges notifications in memory on the same
// (listing, sender, receiver, type) tuple the mongo index enforces.
type NotificationRepository struct {
	mu      sync.RWMutex
	byTuple map[notificationKey]*domainnotif.Notification
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{byTuple: make(map[notificationKey]*domainnotif.Notification)}
}

func (r *NotificationRepository) Upsert(ctx context.Context, n *domainnotif.Notification) (*domainnotif.Notification, error) {
	if n == nil {
		return nil, domainnotif.ErrIDRequired
	}
	key := notificationKey{listing: n.ListingID, sender: n.SenderID, receiver: n.ReceiverID, event: n.Type}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byTuple[key]; ok {
		existing.ListingTitle = n.ListingTitle
		existing.SenderName = n.SenderName
		existing.ReceiverName = n.ReceiverName
		existing.Unread = true
		existing.CreatedAt = n.CreatedAt
		return cloneNotification(existing), nil
	}
	r.byTuple[key] = cloneNotification(n)
	return cloneNotification(n), nil
}

func (r *NotificationRepository) ListForReceiver(ctx context.Context, receiver domainuser.ID) ([]*domainnotif.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listForReceiverLocked(receiver), nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, receiver domainuser.ID) ([]*domainnotif.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, n := range r.byTuple {
		if key.receiver == receiver {
			n.Unread = false
		}
	}
	return r.listForReceiverLocked(receiver), nil
}

func (r *NotificationRepository) DeleteByListing(ctx context.Context, listingID domainlisting.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.byTuple {
		if key.listing == listingID {
			delete(r.byTuple, key)
		}
	}
	return nil
}

func (r *NotificationRepository) listForReceiverLocked(receiver domainuser.ID) []*domainnotif.Notification {
	var out []*domainnotif.Notification
	for key, n := range r.byTuple {
		if key.receiver == receiver {
			out = append(out, cloneNotification(n))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func cloneNotification(n *domainnotif.Notification) *domainnotif.Notification {
	if n == nil {
		return nil
	}
	copyNotif := *n
	return &copyNotif
}

var _ domainnotif.Repository = (*NotificationRepository)(nil)
