package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/libraryhub/internal/database"
	"github.com/mrlokans/libraryhub/internal/ledger"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	db      *database.Database
	ledger  *ledger.Ledger
	version string
}

func NewHealthController(db *database.Database, l *ledger.Ledger, version string) *HealthController {
	return &HealthController{
		db:      db,
		ledger:  l,
		version: version,
	}
}

// Status reports database connectivity and inventory drift. Drift is reported
// but does not make the service unhealthy; the resync job repairs it.
func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not configured"
	}

	if h.ledger != nil && status == "healthy" {
		drift, err := h.ledger.Verify(c.Request.Context())
		switch {
		case err != nil:
			checks["inventory"] = "error: " + err.Error()
		case len(drift) > 0:
			checks["inventory"] = fmt.Sprintf("%d books out of sync", len(drift))
		default:
			checks["inventory"] = "ok"
		}
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}
