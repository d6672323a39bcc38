package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	domainlisting "tradepost/internal/domain/listing"
	domainuser "tradepost/internal/domain/user"
)

// ListingRepository stores listings in memory.
type ListingRepository struct {
	mu   sync.RWMutex
	byID map[domainlisting.ID]*domainlisting.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{byID: make(map[domainlisting.ID]*domainlisting.Listing)}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlisting.ID) (*domainlisting.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if lst, ok := r.byID[id]; ok {
		return cloneListing(lst), nil
	}
	return nil, domainlisting.ErrNotFound
}

func (r *ListingRepository) ByOwner(ctx context.Context, owner domainuser.ID) ([]*domainlisting.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainlisting.Listing
	for _, lst := range r.byID {
		if lst.Owner == owner {
			out = append(out, cloneListing(lst))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *ListingRepository) Save(ctx context.Context, lst *domainlisting.Listing) error {
	if lst == nil || strings.TrimSpace(string(lst.ID)) == "" {
		return domainlisting.ErrIDRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[lst.ID] = cloneListing(lst)
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id domainlisting.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domainlisting.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func cloneListing(l *domainlisting.Listing) *domainlisting.Listing {
	if l == nil {
		return nil
	}
	copyListing := *l
	copyListing.Images = append([]string(nil), l.Images...)
	copyListing.Offers = append([]domainlisting.Offer(nil), l.Offers...)
	return &copyListing
}

var _ domainlisting.Repository = (*ListingRepository)(nil)
