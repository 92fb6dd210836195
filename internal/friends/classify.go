package friends

import (
	"context"
	"sort"

	"jamm/backend/internal/models"
)

// Status is the relationship of a candidate account to the viewer.
type Status string

const (
	StatusSelf     Status = "self"
	StatusFriend   Status = "friend"
	StatusIncoming Status = "incoming"
	StatusOutgoing Status = "outgoing"
	StatusNone     Status = "none"
)

// Classify returns the viewer's relationship to a candidate account.
// Precedence is fixed: self, then an accepted edge in either direction, then
// a pending request from the candidate, then a pending request to the
// candidate. The state machine's invariants make overlaps impossible, but
// the precedence still decides should a stray row ever exist.
func (s *Service) Classify(ctx context.Context, viewerID, candidateID uint) (Status, error) {
	if viewerID == candidateID {
		return StatusSelf, nil
	}

	var edges []models.FriendRequest
	err := s.db.WithContext(ctx).
		Where("(from_account_id = ? AND to_account_id = ?) OR (from_account_id = ? AND to_account_id = ?)",
			viewerID, candidateID, candidateID, viewerID).
		Find(&edges).Error
	if err != nil {
		return StatusNone, err
	}
	return classifyEdges(edges, viewerID, candidateID), nil
}

func classifyEdges(edges []models.FriendRequest, viewerID, candidateID uint) Status {
	if viewerID == candidateID {
		return StatusSelf
	}
	var incoming, outgoing bool
	for _, e := range edges {
		if e.Status == models.StatusAccepted {
			return StatusFriend
		}
		if e.Status != models.StatusPending {
			continue
		}
		if e.FromAccountID == candidateID && e.ToAccountID == viewerID {
			incoming = true
		}
		if e.FromAccountID == viewerID && e.ToAccountID == candidateID {
			outgoing = true
		}
	}
	switch {
	case incoming:
		return StatusIncoming
	case outgoing:
		return StatusOutgoing
	default:
		return StatusNone
	}
}

// Entry is one classified candidate in the aggregate view. RequestID is the
// id of the pending request connecting viewer and candidate, set only for
// incoming and outgoing entries so the caller can act on it.
type Entry struct {
	Persona   models.Persona
	Status    Status
	RequestID *uint
}

// Page is one paginated bucket of the aggregate view.
type Page struct {
	Count    int64
	Page     int
	PageSize int
	HasNext  bool
	HasPrev  bool
	Results  []Entry
}

// PageParams selects a page of a paginated bucket. Defaults and the maximum
// are applied by Normalize.
type PageParams struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

func (p PageParams) normalize() PageParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Buckets is the aggregate friends/incoming/outgoing/suggested view for one
// viewer. Friends and suggested are paginated independently; incoming and
// outgoing are complete, ordered by candidate account id.
type Buckets struct {
	Friends   Page
	Incoming  []Entry
	Outgoing  []Entry
	Suggested Page
}

// FriendsAndSuggested classifies every person account except the viewer and
// partitions the result into the four buckets. Candidates are ordered by
// account id ascending throughout, for deterministic pages.
func (s *Service) FriendsAndSuggested(ctx context.Context, viewerID uint, friendsPage, suggestedPage PageParams) (*Buckets, error) {
	var persone []models.Persona
	err := s.db.WithContext(ctx).
		Preload("Account").
		Joins("JOIN accounts ON accounts.id = personas.account_id AND accounts.deleted_at IS NULL").
		Where("accounts.kind = ?", models.KindPersona).
		Where("accounts.id <> ?", viewerID).
		Find(&persone).Error
	if err != nil {
		return nil, err
	}
	sort.Slice(persone, func(i, j int) bool { return persone[i].AccountID < persone[j].AccountID })

	// One query for every edge touching the viewer; classification walks
	// the in-memory map instead of issuing a query per candidate.
	var edges []models.FriendRequest
	err = s.db.WithContext(ctx).
		Where("from_account_id = ? OR to_account_id = ?", viewerID, viewerID).
		Find(&edges).Error
	if err != nil {
		return nil, err
	}
	byPeer := make(map[uint][]models.FriendRequest, len(edges))
	for _, e := range edges {
		peer := e.FromAccountID
		if peer == viewerID {
			peer = e.ToAccountID
		}
		byPeer[peer] = append(byPeer[peer], e)
	}

	b := &Buckets{Incoming: []Entry{}, Outgoing: []Entry{}}
	var friends, suggested []Entry
	for _, p := range persone {
		peerEdges := byPeer[p.AccountID]
		entry := Entry{Persona: p, Status: classifyEdges(peerEdges, viewerID, p.AccountID)}
		switch entry.Status {
		case StatusFriend:
			friends = append(friends, entry)
		case StatusIncoming:
			entry.RequestID = pendingRequestID(peerEdges, p.AccountID, viewerID)
			b.Incoming = append(b.Incoming, entry)
		case StatusOutgoing:
			entry.RequestID = pendingRequestID(peerEdges, viewerID, p.AccountID)
			b.Outgoing = append(b.Outgoing, entry)
		case StatusNone:
			suggested = append(suggested, entry)
		}
	}

	b.Friends = paginate(friends, friendsPage.normalize())
	b.Suggested = paginate(suggested, suggestedPage.normalize())
	return b, nil
}

// statusRank orders the classified person list: friends first, then incoming,
// outgoing, strangers, and the viewer's own profile last.
func statusRank(s Status) int {
	switch s {
	case StatusFriend:
		return 0
	case StatusIncoming:
		return 1
	case StatusOutgoing:
		return 2
	case StatusNone:
		return 3
	default:
		return 9
	}
}

// ListByFriendship classifies every person account, the viewer's own profile
// included, and orders the result friend, incoming, outgoing, none, self,
// ties broken by account id.
func (s *Service) ListByFriendship(ctx context.Context, viewerID uint) ([]Entry, error) {
	var persone []models.Persona
	err := s.db.WithContext(ctx).
		Preload("Account").
		Joins("JOIN accounts ON accounts.id = personas.account_id AND accounts.deleted_at IS NULL").
		Where("accounts.kind = ?", models.KindPersona).
		Find(&persone).Error
	if err != nil {
		return nil, err
	}

	var edges []models.FriendRequest
	err = s.db.WithContext(ctx).
		Where("from_account_id = ? OR to_account_id = ?", viewerID, viewerID).
		Find(&edges).Error
	if err != nil {
		return nil, err
	}
	byPeer := make(map[uint][]models.FriendRequest, len(edges))
	for _, e := range edges {
		peer := e.FromAccountID
		if peer == viewerID {
			peer = e.ToAccountID
		}
		byPeer[peer] = append(byPeer[peer], e)
	}

	entries := make([]Entry, 0, len(persone))
	for _, p := range persone {
		entries = append(entries, Entry{
			Persona: p,
			Status:  classifyEdges(byPeer[p.AccountID], viewerID, p.AccountID),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		ri, rj := statusRank(entries[i].Status), statusRank(entries[j].Status)
		if ri != rj {
			return ri < rj
		}
		return entries[i].Persona.AccountID < entries[j].Persona.AccountID
	})
	return entries, nil
}

func pendingRequestID(edges []models.FriendRequest, fromID, toID uint) *uint {
	for _, e := range edges {
		if e.Status == models.StatusPending && e.FromAccountID == fromID && e.ToAccountID == toID {
			id := e.ID
			return &id
		}
	}
	return nil
}

func paginate(entries []Entry, p PageParams) Page {
	total := len(entries)
	start := (p.Page - 1) * p.PageSize
	if start > total {
		start = total
	}
	end := start + p.PageSize
	if end > total {
		end = total
	}
	results := entries[start:end]
	if results == nil {
		results = []Entry{}
	}
	return Page{
		Count:    int64(total),
		Page:     p.Page,
		PageSize: p.PageSize,
		HasNext:  end < total,
		HasPrev:  p.Page > 1,
		Results:  results,
	}
}
