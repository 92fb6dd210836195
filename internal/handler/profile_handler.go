package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"jamm/backend/internal/database"
	"jamm/backend/internal/models"
	"jamm/backend/internal/privacy"
)

// region --- DTOs ---

// PersonaPatchInput carries a partial persona update. Nil pointers mean
// "field not touched"; empty strings clear a field.
type PersonaPatchInput struct {
	Nome                   *string `json:"nome"`
	Cognome                *string `json:"cognome"`
	DataNascita            *string `json:"data_nascita"` // "YYYY-MM-DD", "" clears
	Sesso                  *string `json:"sesso"`
	Telefono               *string `json:"telefono"`
	SituazioneSentimentale *string `json:"situazione_sentimentale"`
	DeleteImage            bool    `json:"delete_image"`
}

// LocalePatchInput carries a partial venue update.
type LocalePatchInput struct {
	NomeLocale       *string  `json:"nome_locale"`
	Indirizzo        *string  `json:"indirizzo"`
	PartitaIVA       *string  `json:"partita_iva"`
	TelefonoContatto *string  `json:"telefono_contatto"`
	Latitudine       *float64 `json:"latitudine"`
	Longitudine      *float64 `json:"longitudine"`
	DeleteImage      bool     `json:"delete_image"`
}

// HiddenFieldsInput is the privacy update body.
type HiddenFieldsInput struct {
	HiddenFields []string `json:"hidden_fields"`
}

// LocationInput is the last-known-position update body.
type LocationInput struct {
	Lat      float64    `json:"lat" binding:"required,min=-90,max=90"`
	Lng      float64    `json:"lng" binding:"required,min=-180,max=180"`
	Accuracy float64    `json:"accuracy" binding:"min=0"`
	TS       *time.Time `json:"ts"`
}

// endregion

func loadPersona(accountID uint) (*models.Persona, error) {
	var p models.Persona
	err := database.DB.Preload("Account").Where("account_id = ?", accountID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func loadLocale(accountID uint) (*models.Locale, error) {
	var l models.Locale
	err := database.DB.Preload("Account").Where("account_id = ?", accountID).First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// region --- Me ---

// GetMe godoc
// @Summary      Get own profile
// @Description  Retrieves the unfiltered profile of the authenticated account, persona or locale.
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /me [get]
func GetMe(c *gin.Context) {
	me := viewerID(c)

	var account models.Account
	if err := database.DB.First(&account, me).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account non trovato"})
		return
	}

	switch account.Kind {
	case models.KindPersona:
		p, err := loadPersona(me)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profilo persona non trovato"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"tipo": "persona", "profilo": personaDetailResponse(*p)})
	case models.KindLocale:
		l, err := loadLocale(me)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profilo locale non trovato"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"tipo": "locale", "profilo": localeDetailResponse(*l)})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tipo utente non supportato"})
	}
}

// UpdateMyPersona godoc
// @Summary      Update own persona profile
// @Description  Partially updates the authenticated persona profile. Nome and cognome cannot be cleared.
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body PersonaPatchInput true "Fields to update"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /me/persona [patch]
func UpdateMyPersona(c *gin.Context) {
	me := viewerID(c)

	p, err := loadPersona(me)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profilo persona non trovato"})
		return
	}

	var input PersonaPatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]any{}
	// nome/cognome stay non-empty: always-public fields must hold a value
	if input.Nome != nil {
		if strings.TrimSpace(*input.Nome) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "nome deve contenere almeno 1 carattere"})
			return
		}
		updates["nome"] = *input.Nome
	}
	if input.Cognome != nil {
		if strings.TrimSpace(*input.Cognome) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cognome deve contenere almeno 1 carattere"})
			return
		}
		updates["cognome"] = *input.Cognome
	}
	if input.DataNascita != nil {
		if *input.DataNascita == "" {
			updates["data_nascita"] = nil
		} else {
			d, err := time.Parse("2006-01-02", *input.DataNascita)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "data_nascita non valida"})
				return
			}
			updates["data_nascita"] = d
		}
	}
	if input.Sesso != nil {
		updates["sesso"] = *input.Sesso
	}
	if input.Telefono != nil {
		updates["telefono"] = *input.Telefono
	}
	if input.SituazioneSentimentale != nil {
		updates["situazione_sentimentale"] = *input.SituazioneSentimentale
	}
	if input.DeleteImage {
		if p.ProfileImageKey != "" && Media != nil {
			_ = Media.DeleteObject(c.Request.Context(), p.ProfileImageKey)
		}
		updates["profile_image_key"] = ""
	}

	if len(updates) > 0 {
		if err := database.DB.Model(p).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
			return
		}
	}

	p, err = loadPersona(me)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload profile"})
		return
	}
	c.JSON(http.StatusOK, personaDetailResponse(*p))
}

// UpdateMyLocale godoc
// @Summary      Update own venue profile
// @Description  Partially updates the authenticated locale profile.
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body LocalePatchInput true "Fields to update"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /me/locale [patch]
func UpdateMyLocale(c *gin.Context) {
	me := viewerID(c)

	l, err := loadLocale(me)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profilo locale non trovato"})
		return
	}

	var input LocalePatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]any{}
	if input.NomeLocale != nil {
		updates["nome_locale"] = *input.NomeLocale
	}
	if input.Indirizzo != nil {
		updates["indirizzo"] = *input.Indirizzo
	}
	if input.PartitaIVA != nil {
		updates["partita_iva"] = *input.PartitaIVA
	}
	if input.TelefonoContatto != nil {
		updates["telefono_contatto"] = *input.TelefonoContatto
	}
	if input.Latitudine != nil {
		updates["latitudine"] = *input.Latitudine
	}
	if input.Longitudine != nil {
		updates["longitudine"] = *input.Longitudine
	}
	if input.DeleteImage {
		if l.ProfileImageKey != "" && Media != nil {
			_ = Media.DeleteObject(c.Request.Context(), l.ProfileImageKey)
		}
		updates["profile_image_key"] = ""
	}

	if len(updates) > 0 {
		if err := database.DB.Model(l).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
			return
		}
	}

	l, err = loadLocale(me)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload profile"})
		return
	}
	c.JSON(http.StatusOK, localeDetailResponse(*l))
}

// endregion

// region --- Public profiles ---

// GetUtenteByID godoc
// @Summary      Get a public profile
// @Description  Retrieves the viewer-projected profile for any account, persona or locale.
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Account ID"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /utenti/{id} [get]
func GetUtenteByID(c *gin.Context) {
	targetID, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid account ID"})
		return
	}

	var account models.Account
	if err := database.DB.First(&account, targetID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utente non trovato"})
		return
	}

	switch account.Kind {
	case models.KindPersona:
		p, err := loadPersona(targetID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profilo persona non trovato"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"tipo": "persona", "profilo": personaResponse(*p, viewerID(c))})
	case models.KindLocale:
		l, err := loadLocale(targetID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profilo locale non trovato"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"tipo": "locale", "profilo": localeResponse(*l, viewerID(c))})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tipo utente non supportato"})
	}
}

// ListPersone godoc
// @Summary      List person profiles
// @Description  Lists person profiles with pagination, each projected for the viewer.
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Param        page  query     int     false  "Page number" default(1)
// @Param        limit query     int     false  "Items per page" default(20)
// @Success      200   {object}  map[string]any
// @Failure      401   {object}  ErrorResponse
// @Router       /persone [get]
func ListPersone(c *gin.Context) {
	page, limit := pageParams(c, "page", "limit", 20, 100)

	query := database.DB.Model(&models.Persona{}).
		Preload("Account").
		Joins("JOIN accounts ON accounts.id = personas.account_id AND accounts.deleted_at IS NULL").
		Where("accounts.kind = ?", models.KindPersona).
		Order("personas.account_id")

	resp, err := Paginate[models.Persona](query, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve profiles"})
		return
	}

	me := viewerID(c)
	data := make([]gin.H, 0, len(resp.Data))
	for _, p := range resp.Data {
		data = append(data, personaResponse(p, me))
	}

	c.JSON(http.StatusOK, NewPaginatedResponse(data, resp.Meta.TotalItems, page, limit))
}

// endregion

// region --- Privacy ---

// GetPersonaPrivacy godoc
// @Summary      Get persona privacy settings
// @Description  Returns the hidden fields plus the hideable and always-public field names.
// @Tags         privacy
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /me/privacy/persona [get]
func GetPersonaPrivacy(c *gin.Context) {
	p, err := loadPersona(viewerID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Non sei un profilo persona"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hidden_fields":    []string(p.HiddenFields),
		"available_fields": privacy.HideableFields(privacy.PersonaWhitelist, privacy.PersonaAlwaysPublic),
		"always_public":    privacy.PersonaAlwaysPublic,
	})
}

// UpdatePersonaPrivacy godoc
// @Summary      Update persona privacy settings
// @Description  Replaces the hidden-field list. Nome and cognome are stripped regardless of input.
// @Tags         privacy
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body HiddenFieldsInput true "Hidden fields"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  ErrorResponse
// @Router       /me/privacy/persona [patch]
func UpdatePersonaPrivacy(c *gin.Context) {
	p, err := loadPersona(viewerID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Non sei un profilo persona"})
		return
	}

	var input HiddenFieldsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hidden, err := privacy.SanitizeHidden(input.HiddenFields, privacy.PersonaWhitelist, privacy.PersonaAlwaysPublic)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := database.DB.Model(p).Update("hidden_fields", datatypes.JSONSlice[string](hidden)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update privacy settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"hidden_fields": hidden})
}

// GetLocalePrivacy godoc
// @Summary      Get venue privacy settings
// @Description  Returns the hidden fields plus the hideable field names. Every venue field is hideable.
// @Tags         privacy
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  ErrorResponse
// @Router       /me/privacy/locale [get]
func GetLocalePrivacy(c *gin.Context) {
	l, err := loadLocale(viewerID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Non sei un profilo locale"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hidden_fields":    []string(l.HiddenFields),
		"available_fields": privacy.LocaleWhitelist,
	})
}

// UpdateLocalePrivacy godoc
// @Summary      Update venue privacy settings
// @Description  Replaces the hidden-field list for the authenticated venue.
// @Tags         privacy
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body HiddenFieldsInput true "Hidden fields"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  ErrorResponse
// @Router       /me/privacy/locale [patch]
func UpdateLocalePrivacy(c *gin.Context) {
	l, err := loadLocale(viewerID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Non sei un profilo locale"})
		return
	}

	var input HiddenFieldsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hidden, err := privacy.SanitizeHidden(input.HiddenFields, privacy.LocaleWhitelist, privacy.LocaleAlwaysPublic)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := database.DB.Model(l).Update("hidden_fields", datatypes.JSONSlice[string](hidden)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update privacy settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"hidden_fields": hidden})
}

// endregion

// region --- Location ---

// SaveMyLocation godoc
// @Summary      Save last known position
// @Description  Stores the persona's last known coordinates. Venue accounts are acknowledged and ignored (fixed position).
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body LocationInput true "Position"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /me/location [post]
func SaveMyLocation(c *gin.Context) {
	me := viewerID(c)

	var account models.Account
	if err := database.DB.First(&account, me).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account non trovato"})
		return
	}
	if account.Kind == models.KindLocale {
		c.JSON(http.StatusOK, gin.H{"ok": true, "ignored": true, "reason": "fixed_location"})
		return
	}

	var input LocationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := loadPersona(me)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profilo persona non trovato"})
		return
	}

	ts := time.Now()
	if input.TS != nil {
		ts = *input.TS
	}
	updates := map[string]any{
		"last_lat":      input.Lat,
		"last_lng":      input.Lng,
		"last_accuracy": input.Accuracy,
		"last_loc_ts":   ts,
	}
	if err := database.DB.Model(p).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save location"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// endregion
