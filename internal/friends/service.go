// Package friends owns the friend-request state machine and the viewer
// relationship classification built on top of it.
//
// Requests move pending -> accepted/declined by the recipient, or
// pending -> canceled by the sender; all three outcomes are terminal.
// Unfriending deletes the accepted row outright so the pair can re-friend
// later. Every mutation re-validates against persisted state inside its own
// transaction; the unique (from, to) index is the backstop for send races
// the application checks cannot close.
package friends

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"jamm/backend/internal/models"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Action is the recipient's answer to a pending request.
type Action string

const (
	ActionAccept  Action = "accept"
	ActionDecline Action = "decline"
)

// Send creates a pending request from one account to another after checking,
// in order: not a self-request, recipient is a person account, no accepted
// edge already exists in either direction, no pending request exists in the
// opposite direction, and no request row exists in this direction. The
// checks run inside the transaction that writes the row.
func (s *Service) Send(ctx context.Context, fromID, toID uint) (*models.FriendRequest, error) {
	if fromID == toID {
		return nil, validationErr(RuleSelfRequest, "non puoi richiedere l'amicizia a te stesso")
	}

	var fr models.FriendRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var to models.Account
		if err := tx.First(&to, toID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if to.Kind != models.KindPersona {
			return validationErr(RuleRecipientKind, "puoi inviare richieste solo a profili 'persona'")
		}

		var accepted int64
		if err := tx.Model(&models.FriendRequest{}).
			Where("status = ?", models.StatusAccepted).
			Where("(from_account_id = ? AND to_account_id = ?) OR (from_account_id = ? AND to_account_id = ?)",
				fromID, toID, toID, fromID).
			Count(&accepted).Error; err != nil {
			return err
		}
		if accepted > 0 {
			return validationErr(RuleAlreadyFriends, "siete già amici")
		}

		var inverse int64
		if err := tx.Model(&models.FriendRequest{}).
			Where("from_account_id = ? AND to_account_id = ? AND status = ?", toID, fromID, models.StatusPending).
			Count(&inverse).Error; err != nil {
			return err
		}
		if inverse > 0 {
			return validationErr(RuleInversePending, "esiste già una richiesta pendente in senso opposto")
		}

		var same int64
		if err := tx.Model(&models.FriendRequest{}).
			Where("from_account_id = ? AND to_account_id = ?", fromID, toID).
			Count(&same).Error; err != nil {
			return err
		}
		if same > 0 {
			return validationErr(RuleDuplicate, "esiste già una richiesta in questa direzione")
		}

		fr = models.FriendRequest{
			FromAccountID: fromID,
			ToAccountID:   toID,
			Status:        models.StatusPending,
		}
		if err := tx.Create(&fr).Error; err != nil {
			// Lost a race on the unique (from, to) index.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return validationErr(RuleDuplicate, "esiste già una richiesta in questa direzione")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &fr, nil
}

// Respond lets the recipient accept or decline a pending request. The update
// is conditioned on the row still being pending at write time, so of two
// concurrent responses exactly one succeeds and the other gets ErrConflict.
func (s *Service) Respond(ctx context.Context, requestID, responderID uint, action Action) (*models.FriendRequest, error) {
	var fr models.FriendRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&fr, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if fr.ToAccountID != responderID {
			return ErrForbidden
		}
		if fr.Status != models.StatusPending {
			return ErrConflict
		}

		newStatus := models.StatusAccepted
		if action == ActionDecline {
			newStatus = models.StatusDeclined
		}
		now := time.Now()

		res := tx.Model(&models.FriendRequest{}).
			Where("id = ? AND status = ?", requestID, models.StatusPending).
			Updates(map[string]any{"status": newStatus, "responded_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		fr.Status = newStatus
		fr.RespondedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &fr, nil
}

// Cancel lets the sender withdraw their own pending request. Any miss,
// whether the row is absent, not pending, or belongs to someone else, is
// reported as ErrNotFound so internal state is hidden from unauthorized
// callers.
func (s *Service) Cancel(ctx context.Context, requestID, requesterID uint) (*models.FriendRequest, error) {
	var fr models.FriendRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.FriendRequest{}).
			Where("id = ? AND from_account_id = ? AND status = ?", requestID, requesterID, models.StatusPending).
			Updates(map[string]any{"status": models.StatusCanceled, "responded_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.First(&fr, requestID).Error
	})
	if err != nil {
		return nil, err
	}
	return &fr, nil
}

// Unfriend deletes the accepted edge between the two accounts, whichever
// direction it was stored in. ErrNotFound when the pair is not friends.
func (s *Service) Unfriend(ctx context.Context, accountA, accountB uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("status = ?", models.StatusAccepted).
			Where("(from_account_id = ? AND to_account_id = ?) OR (from_account_id = ? AND to_account_id = ?)",
				accountA, accountB, accountB, accountA).
			Delete(&models.FriendRequest{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
