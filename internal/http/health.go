package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alexmk/bookshelf/internal/database"
)

// HealthResponse reports the liveness of the library's dependencies: the
// book database and the catalog search proxy.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Time    string            `json:"time"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	db             *database.Database
	catalogEnabled bool
	version        string
}

func NewHealthController(db *database.Database, catalogEnabled bool, version string) *HealthController {
	return &HealthController{
		db:             db,
		catalogEnabled: catalogEnabled,
		version:        version,
	}
}

// Status handles GET /health. The database ping is the only check that can
// fail the endpoint; the catalog entry is informational since search is an
// optional feature.
func (h *HealthController) Status(c *gin.Context) {
	checks := map[string]string{
		"database": h.checkDatabase(),
		"catalog":  h.checkCatalog(),
	}

	status := "healthy"
	code := http.StatusOK
	if checks["database"] != "ok" {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, HealthResponse{
		Status:  status,
		Version: h.version,
		Time:    time.Now().Format(time.RFC3339),
		Checks:  checks,
	})
}

func (h *HealthController) checkDatabase() string {
	if h.db == nil {
		return "error: not configured"
	}
	sqlDB, err := h.db.DB.DB()
	if err != nil {
		return "error: " + err.Error()
	}
	if err := sqlDB.Ping(); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}

func (h *HealthController) checkCatalog() string {
	if !h.catalogEnabled {
		return "disabled"
	}
	return "ok"
}
