package friends

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"jamm/backend/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Every session must land on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Account{},
		&models.Persona{},
		&models.Locale{},
		&models.FriendRequest{},
	))
	return db
}

func createPersona(t *testing.T, db *gorm.DB, email, nome, cognome string) models.Account {
	t.Helper()
	account := models.Account{Email: email, PasswordHash: "x", Kind: models.KindPersona, IsActive: true}
	require.NoError(t, db.Create(&account).Error)
	require.NoError(t, db.Create(&models.Persona{AccountID: account.ID, Nome: nome, Cognome: cognome}).Error)
	return account
}

func createLocale(t *testing.T, db *gorm.DB, email, nome string) models.Account {
	t.Helper()
	account := models.Account{Email: email, PasswordHash: "x", Kind: models.KindLocale, IsActive: true}
	require.NoError(t, db.Create(&account).Error)
	require.NoError(t, db.Create(&models.Locale{AccountID: account.ID, NomeLocale: nome}).Error)
	return account
}

func requireRule(t *testing.T, err error, rule string) {
	t.Helper()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, rule, ve.Rule)
}

func TestSend(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	mario := createPersona(t, db, "mario@example.com", "Mario", "Rossi")
	luigi := createPersona(t, db, "luigi@example.com", "Luigi", "Verdi")

	fr, err := svc.Send(ctx, mario.ID, luigi.ID)
	require.NoError(t, err)
	assert.Equal(t, mario.ID, fr.FromAccountID)
	assert.Equal(t, luigi.ID, fr.ToAccountID)
	assert.Equal(t, models.StatusPending, fr.Status)
	assert.Nil(t, fr.RespondedAt)
}

func TestSend_ToSelf(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	mario := createPersona(t, db, "mario@example.com", "Mario", "Rossi")

	_, err := svc.Send(context.Background(), mario.ID, mario.ID)
	requireRule(t, err, RuleSelfRequest)
}

func TestSend_ToMissingAccount(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	mario := createPersona(t, db, "mario@example.com", "Mario", "Rossi")

	_, err := svc.Send(context.Background(), mario.ID, mario.ID+999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSend_ToVenueAccount(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	mario := createPersona(t, db, "mario@example.com", "Mario", "Rossi")
	bar := createLocale(t, db, "bar@example.com", "Bar Centrale")

	_, err := svc.Send(context.Background(), mario.ID, bar.ID)
	requireRule(t, err, RuleRecipientKind)
}

func TestSend_FromVenueAccount(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	bar := createLocale(t, db, "bar@example.com", "Bar Centrale")
	mario := createPersona(t, db, "mario@example.com", "Mario", "Rossi")

	// Only the recipient must be a person account; venues may send.
	fr, err := svc.Send(context.Background(), bar.ID, mario.ID)
	require.NoError(t, err)
	assert.Equal(t, bar.ID, fr.FromAccountID)
	assert.Equal(t, models.StatusPending, fr.Status)
}

func TestSend_AlreadyFriends(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	mario := createPersona(t, db, "mario@example.com", "Mario", "Rossi")
	luigi := createPersona(t, db, "luigi@example.com", "Luigi", "Verdi")

	fr, err := svc.Send(ctx, mario.ID, luigi.ID)
	require.NoError(t, err)
	_, err = svc.Respond(ctx, fr.ID, luigi.ID, ActionAccept)
	require.NoError(t, err)

	// Either direction is blocked once an accepted edge exists.
	_, err = svc.Send(ctx, luigi.ID, mario.ID)
	requireRule(t, err, RuleAlreadyFriends)
}

func TestSend_InversePending(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	mario := createPersona(t, db, "mario@example.com", "Mario", "Rossi")
	luigi := createPersona(t, db, "luigi@example.com", "Luigi", "Verdi")

	_, err := svc.Send(ctx, mario.ID, luigi.ID)
	require.NoError(t, err)

	_, err = svc.Send(ctx, luigi.ID, mario.ID)
	requireRule(t, err, RuleInversePending)
}

func TestSend_DuplicateDirection(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	mario := createPersona(t, db, "mario@example.com", "Mario", "Rossi")
	luigi := createPersona(t, db, "luigi@example.com", "Luigi", "Verdi")

	fr, err := svc.Send(ctx, mario.ID, luigi.ID)
	require.NoError(t, err)

	_, err = svc.Send(ctx, mario.ID, luigi.ID)
	requireRule(t, err, RuleDuplicate)

	// A declined row keeps blocking the same direction.
	_, err = svc.Respond(ctx, fr.ID, luigi.ID, ActionDecline)
	require.NoError(t, err)
	_, err = svc.Send(ctx, mario.ID, luigi.ID)
	requireRule(t, err, RuleDuplicate)
}

func TestRespond_Accept(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	mario := createPersona(t, db, "mario@example.com", "Mario", "Rossi")
	luigi := createPersona(t, db, "luigi@example.com", "Luigi", "Verdi")

	fr, err := svc.Send(ctx, mario.ID, luigi.ID)
	require.NoError(t, err)

	updated, err := svc.Respond(ctx, fr.ID, luigi.ID, ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, updated.Status)
	require.NotNil(t, updated.RespondedAt)

	status, err := svc.Classify(ctx, mario.ID, luigi.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFriend, status)
}

func TestRespond_Decline(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	mario := createPersona(t, db, "mario@example.com", "Mario", "Rossi")
	luigi := createPersona(t, db, "luigi@example.com", "Luigi", "Verdi")

	fr, err := svc.Send(ctx, mario.ID, luigi.ID)
	require.NoError(t, err)

	updated, err := svc.Respond(ctx, fr.ID, luigi.ID, ActionDecline)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeclined, updated.Status)

	status, err := svc.Classify(ctx, mario.ID, luigi.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNone, status)
}

func TestRespond_OnlyRecipient(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	mario := createPersona(t, db, "mario@example.com", "Mario", "Rossi")
	luigi := createPersona(t, db, "luigi@example.com", "Luigi", "Verdi")
	anna := createPersona(t, db, "anna@example.com", "Anna", "Bianchi")

	fr, err := svc.Send(ctx, mario.ID, luigi.ID)
	require.NoError(t, err)

	// Neither the sender nor a third party may respond.
	_, err = svc.Respond(ctx, fr.ID, mario.ID, ActionAccept)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Respond(ctx, fr.ID, anna.ID, ActionAccept)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRespond_Terminal(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	mario := createPersona(t, db, "mario@example.com", "Mario", "Rossi")
	luigi := createPersona(t, db, "luigi@example.com", "Luigi", "Verdi")

	fr, err := svc.Send(ctx, mario.ID, luigi.ID)
	require.NoError(t, err)
	_, err = svc.Respond(ctx, fr.ID, luigi.ID, ActionAccept)
	require.NoError(t, err)

	_, err = svc.Respond(ctx, fr.ID, luigi.ID, ActionDecline)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRespond_ConcurrentSingleWinner(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	mario := createPersona(t, db, "mario@example.com", "Mario", "Rossi")
	luigi := createPersona(t, db, "luigi@example.com", "Luigi", "Verdi")

	fr, err := svc.Send(ctx, mario.ID, luigi.ID)
	require.NoError(t, err)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Respond(ctx, fr.ID, luigi.ID, ActionAccept)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, conflicted int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrConflict):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)

	var stored models.FriendRequest
	require.NoError(t, db.First(&stored, fr.ID).Error)
	assert.Equal(t, models.StatusAccepted, stored.Status)
	require.NotNil(t, stored.RespondedAt)
}

func TestRespond_MissingRequest(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	luigi := createPersona(t, db, "luigi@example.com", "Luigi", "Verdi")

	_, err := svc.Respond(context.Background(), 42, luigi.ID, ActionAccept)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancel(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	mario := createPersona(t, db, "mario@example.com", "Mario", "Rossi")
	luigi := createPersona(t, db, "luigi@example.com", "Luigi", "Verdi")

	fr, err := svc.Send(ctx, mario.ID, luigi.ID)
	require.NoError(t, err)

	canceled, err := svc.Cancel(ctx, fr.ID, mario.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCanceled, canceled.Status)
	require.NotNil(t, canceled.RespondedAt)
}

func TestCancel_NotSenderLooksLikeMissing(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	mario := createPersona(t, db, "mario@example.com", "Mario", "Rossi")
	luigi := createPersona(t, db, "luigi@example.com", "Luigi", "Verdi")

	fr, err := svc.Send(ctx, mario.ID, luigi.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, fr.ID, luigi.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Cancel(ctx, fr.ID+999, mario.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancel_NotPending(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	mario := createPersona(t, db, "mario@example.com", "Mario", "Rossi")
	luigi := createPersona(t, db, "luigi@example.com", "Luigi", "Verdi")

	fr, err := svc.Send(ctx, mario.ID, luigi.ID)
	require.NoError(t, err)
	_, err = svc.Respond(ctx, fr.ID, luigi.ID, ActionAccept)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, fr.ID, mario.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnfriend_AllowsRefriending(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	mario := createPersona(t, db, "mario@example.com", "Mario", "Rossi")
	luigi := createPersona(t, db, "luigi@example.com", "Luigi", "Verdi")

	fr, err := svc.Send(ctx, mario.ID, luigi.ID)
	require.NoError(t, err)
	_, err = svc.Respond(ctx, fr.ID, luigi.ID, ActionAccept)
	require.NoError(t, err)

	// Unfriending works from either side of the stored edge.
	require.NoError(t, svc.Unfriend(ctx, luigi.ID, mario.ID))

	status, err := svc.Classify(ctx, mario.ID, luigi.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNone, status)

	// The deleted row no longer blocks a fresh request in either direction.
	_, err = svc.Send(ctx, luigi.ID, mario.ID)
	require.NoError(t, err)
}

func TestUnfriend_NotFriends(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	mario := createPersona(t, db, "mario@example.com", "Mario", "Rossi")
	luigi := createPersona(t, db, "luigi@example.com", "Luigi", "Verdi")

	assert.ErrorIs(t, svc.Unfriend(ctx, mario.ID, luigi.ID), ErrNotFound)

	// A pending request is not an accepted edge.
	_, err := svc.Send(ctx, mario.ID, luigi.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Unfriend(ctx, mario.ID, luigi.ID), ErrNotFound)
}
