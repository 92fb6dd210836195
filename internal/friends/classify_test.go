package friends

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jamm/backend/internal/models"
)

func TestClassify(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	viewer := createPersona(t, db, "viewer@example.com", "Vera", "Viola")
	friend := createPersona(t, db, "friend@example.com", "Franco", "Ferri")
	requester := createPersona(t, db, "requester@example.com", "Rita", "Russo")
	requested := createPersona(t, db, "requested@example.com", "Remo", "Riva")
	stranger := createPersona(t, db, "stranger@example.com", "Sara", "Sanna")

	fr, err := svc.Send(ctx, viewer.ID, friend.ID)
	require.NoError(t, err)
	_, err = svc.Respond(ctx, fr.ID, friend.ID, ActionAccept)
	require.NoError(t, err)

	_, err = svc.Send(ctx, requester.ID, viewer.ID)
	require.NoError(t, err)
	_, err = svc.Send(ctx, viewer.ID, requested.ID)
	require.NoError(t, err)

	tests := []struct {
		name      string
		candidate uint
		want      Status
	}{
		{"self", viewer.ID, StatusSelf},
		{"accepted edge", friend.ID, StatusFriend},
		{"pending from candidate", requester.ID, StatusIncoming},
		{"pending to candidate", requested.ID, StatusOutgoing},
		{"no edge", stranger.ID, StatusNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Classify(ctx, viewer.ID, tt.candidate)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyEdges_AcceptedWins(t *testing.T) {
	// The state machine forbids this overlap, but precedence must still hold
	// if a stray row ever appears.
	edges := []models.FriendRequest{
		{FromAccountID: 2, ToAccountID: 1, Status: models.StatusPending},
		{FromAccountID: 1, ToAccountID: 2, Status: models.StatusAccepted},
	}
	assert.Equal(t, StatusFriend, classifyEdges(edges, 1, 2))
}

func TestClassifyEdges_TerminalRowsIgnored(t *testing.T) {
	edges := []models.FriendRequest{
		{FromAccountID: 1, ToAccountID: 2, Status: models.StatusDeclined},
		{FromAccountID: 2, ToAccountID: 1, Status: models.StatusCanceled},
	}
	assert.Equal(t, StatusNone, classifyEdges(edges, 1, 2))
}

func TestFriendsAndSuggested_Buckets(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	viewer := createPersona(t, db, "viewer@example.com", "Vera", "Viola")
	friend := createPersona(t, db, "friend@example.com", "Franco", "Ferri")
	requester := createPersona(t, db, "requester@example.com", "Rita", "Russo")
	requested := createPersona(t, db, "requested@example.com", "Remo", "Riva")
	stranger := createPersona(t, db, "stranger@example.com", "Sara", "Sanna")
	createLocale(t, db, "bar@example.com", "Bar Centrale")

	fr, err := svc.Send(ctx, viewer.ID, friend.ID)
	require.NoError(t, err)
	_, err = svc.Respond(ctx, fr.ID, friend.ID, ActionAccept)
	require.NoError(t, err)

	incoming, err := svc.Send(ctx, requester.ID, viewer.ID)
	require.NoError(t, err)
	outgoing, err := svc.Send(ctx, viewer.ID, requested.ID)
	require.NoError(t, err)

	b, err := svc.FriendsAndSuggested(ctx, viewer.ID, PageParams{}, PageParams{})
	require.NoError(t, err)

	require.Len(t, b.Friends.Results, 1)
	assert.Equal(t, friend.ID, b.Friends.Results[0].Persona.AccountID)
	assert.Equal(t, StatusFriend, b.Friends.Results[0].Status)
	assert.Nil(t, b.Friends.Results[0].RequestID)
	assert.Equal(t, int64(1), b.Friends.Count)

	require.Len(t, b.Incoming, 1)
	assert.Equal(t, requester.ID, b.Incoming[0].Persona.AccountID)
	require.NotNil(t, b.Incoming[0].RequestID)
	assert.Equal(t, incoming.ID, *b.Incoming[0].RequestID)

	require.Len(t, b.Outgoing, 1)
	assert.Equal(t, requested.ID, b.Outgoing[0].Persona.AccountID)
	require.NotNil(t, b.Outgoing[0].RequestID)
	assert.Equal(t, outgoing.ID, *b.Outgoing[0].RequestID)

	// The viewer and venue accounts never appear; only the stranger is suggested.
	require.Len(t, b.Suggested.Results, 1)
	assert.Equal(t, stranger.ID, b.Suggested.Results[0].Persona.AccountID)
	assert.Equal(t, StatusNone, b.Suggested.Results[0].Status)
}

func TestListByFriendship_Ordering(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	// Created in reverse of the expected output so ordering is not an
	// artifact of insertion order.
	stranger := createPersona(t, db, "stranger@example.com", "Sara", "Sanna")
	requested := createPersona(t, db, "requested@example.com", "Remo", "Riva")
	requester := createPersona(t, db, "requester@example.com", "Rita", "Russo")
	friend := createPersona(t, db, "friend@example.com", "Franco", "Ferri")
	viewer := createPersona(t, db, "viewer@example.com", "Vera", "Viola")

	fr, err := svc.Send(ctx, viewer.ID, friend.ID)
	require.NoError(t, err)
	_, err = svc.Respond(ctx, fr.ID, friend.ID, ActionAccept)
	require.NoError(t, err)
	_, err = svc.Send(ctx, requester.ID, viewer.ID)
	require.NoError(t, err)
	_, err = svc.Send(ctx, viewer.ID, requested.ID)
	require.NoError(t, err)

	entries, err := svc.ListByFriendship(ctx, viewer.ID)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	got := make([][2]any, len(entries))
	for i, e := range entries {
		got[i] = [2]any{e.Persona.AccountID, e.Status}
	}
	assert.Equal(t, [][2]any{
		{friend.ID, StatusFriend},
		{requester.ID, StatusIncoming},
		{requested.ID, StatusOutgoing},
		{stranger.ID, StatusNone},
		{viewer.ID, StatusSelf},
	}, got)
}

func TestFriendsAndSuggested_Pagination(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	viewer := createPersona(t, db, "viewer@example.com", "Vera", "Viola")
	var candidates []models.Account
	for i := 0; i < 5; i++ {
		candidates = append(candidates, createPersona(t, db,
			fmt.Sprintf("p%d@example.com", i), fmt.Sprintf("Nome%d", i), "Cognome"))
	}

	first, err := svc.FriendsAndSuggested(ctx, viewer.ID,
		PageParams{}, PageParams{Page: 1, PageSize: 2})
	require.NoError(t, err)

	assert.Equal(t, int64(5), first.Suggested.Count)
	assert.Equal(t, 1, first.Suggested.Page)
	assert.Equal(t, 2, first.Suggested.PageSize)
	assert.True(t, first.Suggested.HasNext)
	assert.False(t, first.Suggested.HasPrev)
	require.Len(t, first.Suggested.Results, 2)
	assert.Equal(t, candidates[0].ID, first.Suggested.Results[0].Persona.AccountID)
	assert.Equal(t, candidates[1].ID, first.Suggested.Results[1].Persona.AccountID)

	last, err := svc.FriendsAndSuggested(ctx, viewer.ID,
		PageParams{}, PageParams{Page: 3, PageSize: 2})
	require.NoError(t, err)

	assert.False(t, last.Suggested.HasNext)
	assert.True(t, last.Suggested.HasPrev)
	require.Len(t, last.Suggested.Results, 1)
	assert.Equal(t, candidates[4].ID, last.Suggested.Results[0].Persona.AccountID)

	// Pages past the end are empty, not an error.
	past, err := svc.FriendsAndSuggested(ctx, viewer.ID,
		PageParams{}, PageParams{Page: 9, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, past.Suggested.Results)
	assert.Equal(t, int64(5), past.Suggested.Count)
}

func TestPageParamsNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   PageParams
		want PageParams
	}{
		{"zero values get defaults", PageParams{}, PageParams{Page: 1, PageSize: DefaultPageSize}},
		{"negative page reset", PageParams{Page: -3, PageSize: 10}, PageParams{Page: 1, PageSize: 10}},
		{"oversize capped", PageParams{Page: 2, PageSize: 500}, PageParams{Page: 2, PageSize: MaxPageSize}},
		{"in range untouched", PageParams{Page: 4, PageSize: 50}, PageParams{Page: 4, PageSize: 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.normalize())
		})
	}
}
