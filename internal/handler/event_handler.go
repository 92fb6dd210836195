package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"jamm/backend/internal/database"
	"jamm/backend/internal/models"
)

// region --- DTOs ---

// EventoInput defines the structure for creating or updating an event.
type EventoInput struct {
	Titolo            string   `json:"titolo" binding:"required"`
	Descrizione       string   `json:"descrizione"`
	AltreInformazioni string   `json:"altre_informazioni"`
	Programma         string   `json:"programma"`
	InformazioniUtili string   `json:"informazioni_utili"`
	DataEvento        string   `json:"data_evento" binding:"required"` // "YYYY-MM-DD"
	OrarioEvento      string   `json:"orario_evento" binding:"required"`
	Luogo             string   `json:"luogo"`
	Prezzo            *float64 `json:"prezzo"`
	PostiDisponibili  *int     `json:"posti_disponibili"`
}

// EventoPatchInput carries a partial event update. Nil pointers mean "field
// not touched"; empty strings clear a clearable field.
type EventoPatchInput struct {
	Titolo            *string  `json:"titolo"`
	Descrizione       *string  `json:"descrizione"`
	AltreInformazioni *string  `json:"altre_informazioni"`
	Programma         *string  `json:"programma"`
	InformazioniUtili *string  `json:"informazioni_utili"`
	DataEvento        *string  `json:"data_evento"` // "YYYY-MM-DD"
	OrarioEvento      *string  `json:"orario_evento"`
	Luogo             *string  `json:"luogo"`
	Prezzo            *float64 `json:"prezzo"`
	PostiDisponibili  *int     `json:"posti_disponibili"`
}

// EventoResponse is an event annotated with viewer-dependent like data.
type EventoResponse struct {
	ID                uint     `json:"id"`
	Titolo            string   `json:"titolo"`
	Descrizione       string   `json:"descrizione"`
	AltreInformazioni string   `json:"altre_informazioni"`
	Programma         string   `json:"programma"`
	InformazioniUtili string   `json:"informazioni_utili"`
	DataEvento        string   `json:"data_evento"`
	OrarioEvento      string   `json:"orario_evento"`
	Luogo             string   `json:"luogo"`
	Prezzo            *float64 `json:"prezzo"`
	PostiDisponibili  *int     `json:"posti_disponibili"`

	LocaleID   uint   `json:"locale_id"`
	LocaleNome string `json:"locale_nome"`
	UtenteID   uint   `json:"utente_id"`
	Telefono   string `json:"telefono"`

	LocandinaURL any       `json:"locandina_url"`
	CopertinaURL any       `json:"copertina_url"`
	CreatoIl     time.Time `json:"creato_il"`

	LikeCount int64 `json:"like_count"`
	IsLiked   bool  `json:"is_liked"`
}

// endregion

// eventoResponses serializes events with like_count and the viewer's
// is_liked flag, both computed from the like relation at query time.
func eventoResponses(eventi []models.Evento, me uint) []EventoResponse {
	ids := make([]uint, 0, len(eventi))
	for _, e := range eventi {
		ids = append(ids, e.ID)
	}

	likeCounts := map[uint]int64{}
	liked := map[uint]bool{}
	if len(ids) > 0 {
		var counts []struct {
			EventoID uint
			N        int64
		}
		database.DB.Model(&models.EventLike{}).
			Select("evento_id, COUNT(*) AS n").
			Where("evento_id IN ?", ids).
			Group("evento_id").
			Scan(&counts)
		for _, c := range counts {
			likeCounts[c.EventoID] = c.N
		}

		if me != 0 {
			var mine []models.EventLike
			database.DB.Where("account_id = ? AND evento_id IN ?", me, ids).Find(&mine)
			for _, l := range mine {
				liked[l.EventoID] = true
			}
		}
	}

	out := make([]EventoResponse, 0, len(eventi))
	for _, e := range eventi {
		out = append(out, EventoResponse{
			ID:                e.ID,
			Titolo:            e.Titolo,
			Descrizione:       e.Descrizione,
			AltreInformazioni: e.AltreInformazioni,
			Programma:         e.Programma,
			InformazioniUtili: e.InformazioniUtili,
			DataEvento:        e.DataEvento.Format("2006-01-02"),
			OrarioEvento:      e.OrarioEvento,
			Luogo:             e.Luogo,
			Prezzo:            e.Prezzo,
			PostiDisponibili:  e.PostiDisponibili,
			LocaleID:          e.LocaleID,
			LocaleNome:        e.Locale.NomeLocale,
			UtenteID:          e.Locale.AccountID,
			Telefono:          e.Locale.TelefonoContatto,
			LocandinaURL:      mediaURL(e.LocandinaKey),
			CopertinaURL:      mediaURL(e.CopertinaKey),
			CreatoIl:          e.CreatedAt,
			LikeCount:         likeCounts[e.ID],
			IsLiked:           liked[e.ID],
		})
	}
	return out
}

// ListEventi godoc
// @Summary      List events
// @Description  Lists events with text, date, time and price filters, paginated, annotated with like data for the viewer.
// @Tags         events
// @Produce      json
// @Param        titolo          query  string  false  "Filter by title (substring)"
// @Param        luogo           query  string  false  "Filter by place (substring)"
// @Param        data            query  string  false  "Exact event date (YYYY-MM-DD)"
// @Param        orario          query  string  false  "Exact event time (HH:MM)"
// @Param        prezzoMax       query  number  false  "Maximum price (free events always included)"
// @Param        freeOnly        query  bool    false  "Free events only"
// @Param        localeNome      query  string  false  "Filter by venue name (substring)"
// @Param        ordinaPerData   query  bool    false  "Sort by date ascending"
// @Param        ordinaPerOrario query  bool    false  "Sort by time ascending"
// @Param        page            query  int     false  "Page number" default(1)
// @Param        limit           query  int     false  "Items per page" default(20)
// @Success      200  {object}  map[string]any
// @Failure      500  {object}  ErrorResponse
// @Router       /eventi [get]
func ListEventi(c *gin.Context) {
	page, limit := pageParams(c, "page", "limit", 20, 100)

	query := database.DB.Model(&models.Evento{}).
		Preload("Locale").Preload("Locale.Account").
		Joins("JOIN locales ON locales.id = eventos.locale_id AND locales.deleted_at IS NULL")

	if titolo := c.Query("titolo"); titolo != "" {
		query = query.Where("titolo ILIKE ?", "%"+titolo+"%")
	}
	if luogo := c.Query("luogo"); luogo != "" {
		query = query.Where("luogo ILIKE ?", "%"+luogo+"%")
	}
	if data := c.Query("data"); data != "" {
		if d, err := time.Parse("2006-01-02", data); err == nil {
			query = query.Where("data_evento = ?", d)
		}
	}
	if orario := c.Query("orario"); orario != "" {
		query = query.Where("orario_evento = ?", orario)
	}
	if parseBool(c.Query("freeOnly")) {
		query = query.Where("prezzo IS NULL OR prezzo = 0")
	} else if max := parseFloat(c.Query("prezzoMax")); max != nil {
		// events without a price count as free and stay included
		query = query.Where("prezzo IS NULL OR prezzo <= ?", *max)
	}
	if localeNome := c.Query("localeNome"); localeNome != "" {
		query = query.Where("locales.nome_locale ILIKE ?", "%"+localeNome+"%")
	}

	// Default ordering is newest first; the explicit sorts flip to
	// ascending so results run nearest to farthest.
	switch {
	case parseBool(c.Query("ordinaPerData")) && parseBool(c.Query("ordinaPerOrario")):
		query = query.Order("data_evento, orario_evento")
	case parseBool(c.Query("ordinaPerData")):
		query = query.Order("data_evento")
	case parseBool(c.Query("ordinaPerOrario")):
		query = query.Order("orario_evento")
	default:
		query = query.Order("data_evento DESC, orario_evento DESC")
	}

	resp, err := Paginate[models.Evento](query, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve events"})
		return
	}

	c.JSON(http.StatusOK, NewPaginatedResponse(eventoResponses(resp.Data, viewerID(c)), resp.Meta.TotalItems, page, limit))
}

// GetEvento godoc
// @Summary      Get an event
// @Tags         events
// @Produce      json
// @Param        id  path  int  true  "Event ID"
// @Success      200  {object}  EventoResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /eventi/{id} [get]
func GetEvento(c *gin.Context) {
	eventID, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return
	}

	var evento models.Evento
	err := database.DB.Preload("Locale").Preload("Locale.Account").First(&evento, eventID).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Evento non trovato"})
		return
	}

	c.JSON(http.StatusOK, eventoResponses([]models.Evento{evento}, viewerID(c))[0])
}

func parseEventoInput(c *gin.Context) (*EventoInput, *time.Time) {
	var input EventoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", input.DataEvento)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "data_evento non valida"})
		return nil, nil
	}
	return &input, &d
}

// CreateEvento godoc
// @Summary      Create an event
// @Description  Publishes a new event for the authenticated venue. Only locale accounts may create events.
// @Tags         events
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body EventoInput true "Event"
// @Success      201  {object}  EventoResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /eventi [post]
func CreateEvento(c *gin.Context) {
	l, err := loadLocale(viewerID(c))
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Solo i profili 'locale' possono creare eventi"})
		return
	}

	input, data := parseEventoInput(c)
	if input == nil {
		return
	}

	evento := models.Evento{
		LocaleID:          l.ID,
		Titolo:            input.Titolo,
		Descrizione:       input.Descrizione,
		AltreInformazioni: input.AltreInformazioni,
		Programma:         input.Programma,
		InformazioniUtili: input.InformazioniUtili,
		DataEvento:        *data,
		OrarioEvento:      input.OrarioEvento,
		Luogo:             input.Luogo,
		Prezzo:            input.Prezzo,
		PostiDisponibili:  input.PostiDisponibili,
	}
	if err := database.DB.Create(&evento).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create event"})
		return
	}

	evento.Locale = *l
	c.JSON(http.StatusCreated, eventoResponses([]models.Evento{evento}, viewerID(c))[0])
}

// loadOwnedEvento fetches an event and verifies the caller's locale owns it.
func loadOwnedEvento(c *gin.Context) *models.Evento {
	eventID, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return nil
	}

	var evento models.Evento
	err := database.DB.Preload("Locale").Preload("Locale.Account").First(&evento, eventID).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Evento non trovato"})
		return nil
	}

	if evento.Locale.AccountID != viewerID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Non sei il proprietario di questo evento"})
		return nil
	}
	return &evento
}

// UpdateEvento godoc
// @Summary      Update an event
// @Description  Updates an event. Only the owning venue may update it.
// @Tags         events
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  int              true  "Event ID"
// @Param        input body  EventoPatchInput true  "Fields to update"
// @Success      200  {object}  EventoResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /eventi/{id} [patch]
func UpdateEvento(c *gin.Context) {
	evento := loadOwnedEvento(c)
	if evento == nil {
		return
	}

	var input EventoPatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]any{}
	if input.Titolo != nil {
		if strings.TrimSpace(*input.Titolo) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "titolo deve contenere almeno 1 carattere"})
			return
		}
		updates["titolo"] = *input.Titolo
	}
	if input.Descrizione != nil {
		updates["descrizione"] = *input.Descrizione
	}
	if input.AltreInformazioni != nil {
		updates["altre_informazioni"] = *input.AltreInformazioni
	}
	if input.Programma != nil {
		updates["programma"] = *input.Programma
	}
	if input.InformazioniUtili != nil {
		updates["informazioni_utili"] = *input.InformazioniUtili
	}
	if input.DataEvento != nil {
		d, err := time.Parse("2006-01-02", *input.DataEvento)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "data_evento non valida"})
			return
		}
		updates["data_evento"] = d
	}
	if input.OrarioEvento != nil {
		if strings.TrimSpace(*input.OrarioEvento) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "orario_evento deve contenere un orario"})
			return
		}
		updates["orario_evento"] = *input.OrarioEvento
	}
	if input.Luogo != nil {
		updates["luogo"] = *input.Luogo
	}
	if input.Prezzo != nil {
		updates["prezzo"] = *input.Prezzo
	}
	if input.PostiDisponibili != nil {
		updates["posti_disponibili"] = *input.PostiDisponibili
	}

	if len(updates) > 0 {
		if err := database.DB.Model(evento).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update event"})
			return
		}
	}

	var reloaded models.Evento
	if err := database.DB.Preload("Locale").Preload("Locale.Account").First(&reloaded, evento.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload event"})
		return
	}

	c.JSON(http.StatusOK, eventoResponses([]models.Evento{reloaded}, viewerID(c))[0])
}

// DeleteEvento godoc
// @Summary      Delete an event
// @Description  Deletes an event. Only the owning venue may delete it.
// @Tags         events
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "Event ID"
// @Success      204  "No Content"
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /eventi/{id} [delete]
func DeleteEvento(c *gin.Context) {
	evento := loadOwnedEvento(c)
	if evento == nil {
		return
	}

	if err := database.DB.Delete(evento).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete event"})
		return
	}

	c.Status(http.StatusNoContent)
}

// UploadEventoImage godoc
// @Summary      Upload an event image
// @Description  Uploads the event poster (campo=locandina) or cover (campo=copertina). Only the owning venue may upload.
// @Tags         events
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int     true  "Event ID"
// @Param        campo formData  string  true  "locandina or copertina"
// @Param        file  formData  file    true  "Image file"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /eventi/{id}/immagine [post]
func UploadEventoImage(c *gin.Context) {
	evento := loadOwnedEvento(c)
	if evento == nil {
		return
	}

	campo := c.PostForm("campo")
	var column, prefix string
	switch campo {
	case "locandina":
		column, prefix = "locandina_key", "locandine/"
	case "copertina":
		column, prefix = "copertina_key", "copertine/"
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "campo deve essere 'locandina' o 'copertina'"})
		return
	}

	key, url, ok := storeUploadedImage(c, prefix)
	if !ok {
		return
	}

	if err := database.DB.Model(evento).Update(column, key).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store image reference"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// ToggleEventLike godoc
// @Summary      Toggle a like on an event
// @Description  Creates the viewer's like if absent (201), removes it otherwise (200). At most one like per account and event.
// @Tags         events
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "Event ID"
// @Success      200  {object}  map[string]any "unliked"
// @Success      201  {object}  map[string]any "liked"
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /eventi/{id}/toggle-like [post]
func ToggleEventLike(c *gin.Context) {
	me := viewerID(c)
	eventID, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return
	}

	var evento models.Evento
	if err := database.DB.First(&evento, eventID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Evento non trovato"})
		return
	}

	var existing models.EventLike
	err := database.DB.Where("account_id = ? AND evento_id = ?", me, eventID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		like := models.EventLike{AccountID: me, EventoID: eventID}
		if err := database.DB.Create(&like).Error; err != nil {
			// lost a race on the unique (account, event) index: already liked
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(http.StatusOK, gin.H{"status": "liked", "event_id": eventID})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to like event"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"status": "liked", "event_id": eventID})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle like"})
		return
	}

	if err := database.DB.Unscoped().Delete(&existing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unlike event"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unliked", "event_id": eventID})
}

// storeUploadedImage reads the multipart "file" field, stores it under a
// fresh key with the given prefix, and returns the key and public URL.
func storeUploadedImage(c *gin.Context, prefix string) (key, url string, ok bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file mancante"})
		return "", "", false
	}
	defer file.Close()

	if Media == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image storage not configured"})
		return "", "", false
	}

	key = prefix + uuid.NewString() + filepath.Ext(header.Filename)
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := Media.PutObject(c.Request.Context(), key, contentType, file); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store image"})
		return "", "", false
	}
	return key, Media.URL(key), true
}
