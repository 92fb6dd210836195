package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"jamm/backend/internal/config"
	"jamm/backend/internal/models"
	"jamm/backend/internal/privacy"
	"jamm/backend/internal/storage"
)

// Media is the image reference store, wired at startup. When unset, image
// URLs fall back to MEDIA_BASE_URL + key.
var Media *storage.S3Client

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

// UtenteResponse is the account identity nested inside profile payloads.
type UtenteResponse struct {
	ID    uint   `json:"id" example:"1"`
	Email string `json:"email" example:"test@example.com"`
	Tipo  string `json:"tipo" example:"persona"`
}

func utenteResponse(a models.Account) UtenteResponse {
	return UtenteResponse{ID: a.ID, Email: a.Email, Tipo: string(a.Kind)}
}

func mediaURL(key string) any {
	if key == "" {
		return nil
	}
	if Media != nil {
		return Media.URL(key)
	}
	if config.AppConfig != nil && config.AppConfig.MediaBaseURL != "" {
		return config.AppConfig.MediaBaseURL + "/" + key
	}
	return key
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func formatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}

func age(birth *time.Time) any {
	if birth == nil {
		return nil
	}
	now := time.Now()
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}

// personaFields serializes the whitelisted persona fields. The last known
// location is internal and never appears here.
func personaFields(p models.Persona) privacy.Fields {
	return privacy.Fields{
		"nome":                    p.Nome,
		"cognome":                 p.Cognome,
		"email":                   p.Account.Email,
		"sesso":                   nilIfEmpty(p.Sesso),
		"data_nascita":            formatDate(p.DataNascita),
		"eta":                     age(p.DataNascita),
		"telefono":                nilIfEmpty(p.Telefono),
		"situazione_sentimentale": nilIfEmpty(p.SituazioneSentimentale),
		"profile_image":           mediaURL(p.ProfileImageKey),
	}
}

func localeFields(l models.Locale) privacy.Fields {
	return privacy.Fields{
		"nome_locale":       l.NomeLocale,
		"indirizzo":         l.Indirizzo,
		"telefono_contatto": nilIfEmpty(l.TelefonoContatto),
		"profile_image":     mediaURL(l.ProfileImageKey),
		"latitudine":        l.Latitudine,
		"longitudine":       l.Longitudine,
		"email":             l.Account.Email,
	}
}

// personaResponse builds the viewer-projected persona payload, with the
// account identity always attached untouched.
func personaResponse(p models.Persona, viewerID uint) gin.H {
	fields := privacy.Project(personaFields(p), privacy.PersonaAlwaysPublic, p.HiddenFields, p.AccountID, viewerID)
	out := gin.H{"utente": utenteResponse(p.Account)}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func localeResponse(l models.Locale, viewerID uint) gin.H {
	fields := privacy.Project(localeFields(l), privacy.LocaleAlwaysPublic, l.HiddenFields, l.AccountID, viewerID)
	out := gin.H{"utente": utenteResponse(l.Account)}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// personaDetailResponse is the owner's own unfiltered view, including the
// internal last known location.
func personaDetailResponse(p models.Persona) gin.H {
	out := gin.H{"utente": utenteResponse(p.Account)}
	for k, v := range personaFields(p) {
		out[k] = v
	}
	out["last_lat"] = p.LastLat
	out["last_lng"] = p.LastLng
	return out
}

func localeDetailResponse(l models.Locale) gin.H {
	out := gin.H{"utente": utenteResponse(l.Account)}
	for k, v := range localeFields(l) {
		out[k] = v
	}
	out["partita_iva"] = nilIfEmpty(l.PartitaIVA)
	return out
}

// FriendRequestResponse mirrors a friend request row on the wire.
type FriendRequestResponse struct {
	ID          uint       `json:"id"`
	FromUser    uint       `json:"from_user"`
	ToUser      uint       `json:"to_user"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	RespondedAt *time.Time `json:"responded_at"`
}

func friendRequestResponse(fr models.FriendRequest) FriendRequestResponse {
	return FriendRequestResponse{
		ID:          fr.ID,
		FromUser:    fr.FromAccountID,
		ToUser:      fr.ToAccountID,
		Status:      string(fr.Status),
		CreatedAt:   fr.CreatedAt,
		RespondedAt: fr.RespondedAt,
	}
}
