package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/libraryhub/internal/auth"
	"github.com/mrlokans/libraryhub/internal/catalog"
	"github.com/mrlokans/libraryhub/internal/entities"
)

type EbooksController struct {
	catalog *catalog.Catalog
}

func NewEbooksController(cat *catalog.Catalog) *EbooksController {
	return &EbooksController{catalog: cat}
}

// List handles GET /api/ebooks?status=. Students only ever see approved titles.
func (ec *EbooksController) List(c *gin.Context) {
	status := entities.EbookStatus(c.Query("status"))
	switch status {
	case "", entities.EbookStatusPending, entities.EbookStatusApproved:
	default:
		respondBadRequest(c, "status must be pending or approved")
		return
	}
	if auth.GetRole(c) == auth.RoleStudent {
		status = entities.EbookStatusApproved
	}

	found, err := ec.catalog.ListEbooks(c.Request.Context(), status)
	if err != nil {
		respondInternalError(c, err, "list ebooks")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ebooks": found, "count": len(found)})
}

// Publish handles POST /api/ebooks. New e-books wait for staff approval.
func (ec *EbooksController) Publish(c *gin.Context) {
	var in catalog.EbookInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	ebook, err := ec.catalog.PublishEbook(c.Request.Context(), auth.GetSubjectID(c), in)
	if err != nil {
		respondDomainError(c, err, "publish ebook")
		return
	}
	respondCreated(c, ebook)
}

func (ec *EbooksController) Approve(c *gin.Context) {
	ebook, err := ec.catalog.ApproveEbook(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err, "approve ebook")
		return
	}
	c.JSON(http.StatusOK, ebook)
}

func (ec *EbooksController) Delete(c *gin.Context) {
	if err := ec.catalog.DeleteEbook(c.Request.Context(), c.Param("id")); err != nil {
		respondDomainError(c, err, "delete ebook")
		return
	}
	respondSuccess(c, "ebook deleted")
}
