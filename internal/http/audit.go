package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/libraryhub/internal/audit"
	auditrepo "github.com/mrlokans/libraryhub/internal/database/audit"
	"github.com/mrlokans/libraryhub/internal/entities"
)

const defaultAuditPageSize = 50

type AuditController struct {
	service *audit.Service
}

func NewAuditController(service *audit.Service) *AuditController {
	return &AuditController{service: service}
}

// List handles GET /api/audit?limit=&offset=&event_type=&actor_id=&entity_type=&entity_id=
func (ac *AuditController) List(c *gin.Context) {
	limit, ok := parseIntQuery(c, "limit", defaultAuditPageSize)
	if !ok {
		return
	}
	offset, ok := parseIntQuery(c, "offset", 0)
	if !ok {
		return
	}
	if limit == 0 {
		limit = defaultAuditPageSize
	}

	filter := auditrepo.Filter{
		ActorID:    c.Query("actor_id"),
		EventType:  entities.AuditEventType(c.Query("event_type")),
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
	}
	events, total, err := ac.service.GetEvents(filter, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list audit events")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    events,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(events)) < total,
	})
}
