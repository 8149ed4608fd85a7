package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"time"

	"mysterybox/internal/models"
	"mysterybox/internal/report"
	"mysterybox/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
)

const defaultRecentLimit = 10

// ReportFile gives access to the generated report.
type ReportFile interface {
	Path() string
	Exists() bool
}

// HTTPHandler holds the dependencies for the HTTP handlers, like the game service.
type HTTPHandler struct {
	service     *services.GameService
	reports     ReportFile
	environment string
	startedAt   time.Time
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(service *services.GameService, reports ReportFile, environment string) *HTTPHandler {
	return &HTTPHandler{
		service:     service,
		reports:     reports,
		environment: environment,
		startedAt:   time.Now(),
	}
}

func (h *HTTPHandler) production() bool {
	return h.environment == "production"
}

// RegisterRoutes registers all the application routes.
func (h *HTTPHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.ShowIndex)

	api := router.Group("/api")
	api.POST("/check-identity", h.CheckIdentity)
	api.GET("/check-user/:userId", h.CheckUser)
	api.POST("/game-result", h.SubmitGameResult)
	api.GET("/download-pdf", h.DownloadReport)
	api.GET("/view-pdf", h.ViewReport)
	api.GET("/results", h.ListResults)
	api.GET("/recent-results", h.RecentResults)
	api.GET("/stats", h.Stats)
	api.DELETE("/user/:userId", h.DeleteUser)
	api.GET("/prize-stock", h.PrizeStock)
	api.GET("/prizes", h.Prizes)
	api.GET("/export-csv", h.ExportResultsCSV)
	api.GET("/health", h.Health)
	api.GET("/health/detailed", h.DetailedHealth)
}

// apiResponse is the envelope used by most endpoints.
type apiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// fail writes {"error": ...} with the status matching err.
func (h *HTTPHandler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrAlreadyPlayed),
		errors.Is(err, services.ErrDuplicateIdentity),
		errors.Is(err, services.ErrPrizeOutOfStock):
		status = http.StatusConflict
	case errors.Is(err, services.ErrGameClosed):
		status = http.StatusGone
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Errorf("Error %d on %s %s: %v", status, c.Request.Method, c.Request.URL.Path, err)
		if h.production() {
			message = "Erreur interne du serveur"
		}
	} else {
		logger.Warningf("Error %d on %s %s: %v", status, c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// ShowIndex answers the root path with a service banner.
func (h *HTTPHandler) ShowIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "API Mystery Box Game",
		"version": "1.0.0",
		"status":  "running",
	})
}

type identityCheckRequest struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	FullName string `json:"fullName"`
}

// CheckIdentity reports whether an email/phone/name combination has already played.
func (h *HTTPHandler) CheckIdentity(c *gin.Context) {
	var req identityCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", services.ErrInvalidInput, err))
		return
	}
	req.Email = SanitizeText(req.Email)
	req.Phone = SanitizeText(req.Phone)
	req.FullName = SanitizeText(req.FullName)
	if req.Email == "" || req.Phone == "" {
		h.fail(c, fmt.Errorf("%w: email et téléphone sont requis", services.ErrInvalidInput))
		return
	}

	exists, err := h.service.IdentityExists(c.Request.Context(), req.Email, req.Phone, req.FullName)
	if err != nil {
		h.fail(c, err)
		return
	}

	message := "Identité valide pour participer"
	if exists {
		message = services.ErrDuplicateIdentity.Error()
	}
	logger.Infof("Identity check: %s - exists=%t", req.Email, exists)
	c.JSON(http.StatusOK, gin.H{
		"exists":  exists,
		"canPlay": !exists,
		"message": message,
	})
}

// CheckUser reports whether userId may still play.
func (h *HTTPHandler) CheckUser(c *gin.Context) {
	userID := c.Param("userId")
	played, err := h.service.HasPlayed(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}

	message := "Utilisateur peut jouer"
	if played {
		message = "Utilisateur a déjà joué"
	}
	logger.Infof("User check: %s - played=%t", userID, played)
	c.JSON(http.StatusOK, apiResponse{Success: true, Data: !played, Message: message})
}

// SubmitGameResult records the outcome of a game.
func (h *HTTPHandler) SubmitGameResult(c *gin.Context) {
	var sub models.GameSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", services.ErrInvalidInput, err))
		return
	}
	sub = SanitizeSubmission(sub)

	client := models.ClientInfo{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	result, err := h.service.Submit(c.Request.Context(), sub, client)
	if err != nil {
		h.fail(c, err)
		return
	}

	message := "Merci d'avoir participé !"
	if result.HasWon {
		message = "Félicitations ! Votre gain a été enregistré."
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
		"message": message,
	})
}

// DownloadReport sends the PDF report as an attachment.
func (h *HTTPHandler) DownloadReport(c *gin.Context) {
	if !h.reports.Exists() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Aucun rapport PDF disponible"})
		return
	}
	fileName := fmt.Sprintf("rapport_boites_mysteres_%s.pdf", time.Now().Format("2006-01-02"))
	c.FileAttachment(h.reports.Path(), fileName)
	logger.Infof("Report downloaded: %s", fileName)
}

// ViewReport streams the PDF report inline.
func (h *HTTPHandler) ViewReport(c *gin.Context) {
	if !h.reports.Exists() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Aucun rapport PDF disponible"})
		return
	}
	c.Header("Content-Type", "application/pdf")
	c.Header("Cache-Control", "no-cache")
	c.File(h.reports.Path())
}

// ListResults returns every result.
func (h *HTTPHandler) ListResults(c *gin.Context) {
	results, err := h.service.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, apiResponse{
		Success: true,
		Data:    results,
		Message: fmt.Sprintf("%d résultats trouvés", len(results)),
	})
}

// RecentResults returns the latest results, most recent first.
func (h *HTTPHandler) RecentResults(c *gin.Context) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		limit = defaultRecentLimit
	}
	results, err := h.service.Recent(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, apiResponse{
		Success: true,
		Data:    results,
		Message: fmt.Sprintf("%d résultats récents trouvés", len(results)),
	})
}

// Stats returns the aggregated game statistics.
func (h *HTTPHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, apiResponse{Success: true, Data: stats, Message: "Statistiques récupérées avec succès"})
}

// DeleteUser removes a user's result and regenerates the report.
func (h *HTTPHandler) DeleteUser(c *gin.Context) {
	userID := c.Param("userId")
	removed, err := h.service.DeleteByUserID(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}

	message := "Données utilisateur supprimées avec succès et PDF mis à jour"
	if !removed {
		message = "Aucune donnée pour cet utilisateur"
	}
	c.JSON(http.StatusOK, apiResponse{Success: true, Data: gin.H{"removed": removed}, Message: message})
}

// PrizeStock returns the raw remaining counts per category.
func (h *HTTPHandler) PrizeStock(c *gin.Context) {
	stock, err := h.service.Stock(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stock)
}

// Prizes returns the prize catalog along with the remaining stock.
func (h *HTTPHandler) Prizes(c *gin.Context) {
	prizes, err := h.service.Prizes(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, apiResponse{Success: true, Data: prizes})
}

// ExportResultsCSV handles the request to download the results as a CSV file.
func (h *HTTPHandler) ExportResultsCSV(c *gin.Context) {
	results, err := h.service.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", "attachment;filename=resultats_boites_mysteres.csv")
	c.Status(http.StatusOK)
	if err := report.WriteCSV(c.Writer, results); err != nil {
		// headers are already sent
		logger.Errorf("Error writing CSV export: %v", err)
	}
}

// Health is a lightweight liveness probe.
func (h *HTTPHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "OK",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": h.environment,
		"uptime":      time.Since(h.startedAt).Seconds(),
	})
}

// DetailedHealth adds runtime and storage details to Health.
func (h *HTTPHandler) DetailedHealth(c *gin.Context) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	status := "OK"
	storage := "OK"
	if _, err := h.service.Stock(c.Request.Context()); err != nil {
		status = "DEGRADED"
		storage = err.Error()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      status,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": h.environment,
		"uptime":      time.Since(h.startedAt).Seconds(),
		"storage":     storage,
		"report":      h.reports.Exists(),
		"memory": gin.H{
			"alloc":      mem.Alloc,
			"heapInUse":  mem.HeapInuse,
			"sys":        mem.Sys,
			"numGC":      mem.NumGC,
			"goroutines": runtime.NumGoroutine(),
		},
		"goVersion": runtime.Version(),
		"platform":  runtime.GOOS,
		"arch":      runtime.GOARCH,
		"pid":       os.Getpid(),
	})
}
