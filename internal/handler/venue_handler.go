package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"jamm/backend/internal/database"
	"jamm/backend/internal/geo"
	"jamm/backend/internal/models"
)

// viewerCoords resolves the viewer position for distance queries: explicit
// lat/lng query parameters win, otherwise the authenticated persona's last
// known position is used. Either value may be missing.
func viewerCoords(c *gin.Context) (lat, lng *float64) {
	lat, lng = parseFloat(c.Query("lat")), parseFloat(c.Query("lng"))
	if lat != nil && lng != nil {
		return lat, lng
	}

	me := viewerID(c)
	if me == 0 {
		return nil, nil
	}
	var p models.Persona
	if err := database.DB.Select("last_lat", "last_lng").Where("account_id = ?", me).First(&p).Error; err != nil {
		return nil, nil
	}
	return p.LastLat, p.LastLng
}

// ListLocali godoc
// @Summary      List venues
// @Description  Lists venues with optional name/city filters, only-with-events filter, geo radius and distance ordering. Each venue is annotated with distance_km from the viewer (null when the viewer position is unknown).
// @Tags         venues
// @Produce      json
// @Param        nome              query  string  false  "Filter by venue name (substring)"
// @Param        citta             query  string  false  "Filter by address (substring)"
// @Param        soloConEventi     query  bool    false  "Only venues with an event on the reference date"
// @Param        data              query  string  false  "Reference date (YYYY-MM-DD), defaults to today"
// @Param        raggioKm          query  number  false  "Radius filter in km"
// @Param        ordinaPerDistanza query  bool    false  "Sort by distance ascending"
// @Param        lat               query  number  false  "Viewer latitude override"
// @Param        lng               query  number  false  "Viewer longitude override"
// @Success      200  {array}   map[string]any
// @Failure      500  {object}  ErrorResponse
// @Router       /locali [get]
func ListLocali(c *gin.Context) {
	query := database.DB.Model(&models.Locale{}).Preload("Account")

	if nome := c.Query("nome"); nome != "" {
		query = query.Where("nome_locale ILIKE ?", "%"+nome+"%")
	}
	if citta := c.Query("citta"); citta != "" {
		query = query.Where("indirizzo ILIKE ?", "%"+citta+"%")
	}

	if parseBool(c.Query("soloConEventi")) {
		refDate := time.Now().Truncate(24 * time.Hour)
		if d, err := time.Parse("2006-01-02", c.Query("data")); err == nil {
			refDate = d
		}
		query = query.Where(
			"EXISTS (SELECT 1 FROM eventos WHERE eventos.locale_id = locales.id AND eventos.data_evento = ? AND eventos.deleted_at IS NULL)",
			refDate,
		)
	}

	userLat, userLng := viewerCoords(c)
	radius := parseFloat(c.Query("raggioKm"))

	// Radius filtering runs in the database so large venue tables are never
	// transferred before filtering. It degrades to a no-op when the viewer
	// position is unknown.
	if userLat != nil && userLng != nil && radius != nil {
		expr, args := geo.DistanceSQL("locales.latitudine", "locales.longitudine", *userLat, *userLng)
		query = query.Where("locales.latitudine IS NOT NULL AND locales.longitudine IS NOT NULL").
			Where(expr+" <= ?", append(args, *radius)...)
	}

	var locali []models.Locale
	if err := query.Order("nome_locale").Find(&locali).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve venues"})
		return
	}

	annotated := geo.Annotate(locali, func(l models.Locale) (*float64, *float64) {
		return l.Latitudine, l.Longitudine
	}, userLat, userLng)

	if parseBool(c.Query("ordinaPerDistanza")) && userLat != nil && userLng != nil {
		geo.SortByDistance(annotated, func(l models.Locale) string { return l.NomeLocale })
	}

	me := viewerID(c)
	out := make([]gin.H, 0, len(annotated))
	for _, a := range annotated {
		entry := localeResponse(a.Record, me)
		entry["distance_km"] = a.DistanceKm
		out = append(out, entry)
	}

	c.JSON(http.StatusOK, out)
}

// EventiPerLocale godoc
// @Summary      List a venue's events
// @Description  Lists the events published by one venue, newest first, annotated with like data for the viewer.
// @Tags         venues
// @Produce      json
// @Param        id  path  int  true  "Venue profile ID"
// @Success      200  {array}   EventoResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /locali/{id}/eventi [get]
func EventiPerLocale(c *gin.Context) {
	localeID, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid venue ID"})
		return
	}

	var eventi []models.Evento
	err := database.DB.Preload("Locale").Preload("Locale.Account").
		Where("locale_id = ?", localeID).
		Order("data_evento DESC, orario_evento DESC").
		Find(&eventi).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve events"})
		return
	}

	c.JSON(http.StatusOK, eventoResponses(eventi, viewerID(c)))
}
