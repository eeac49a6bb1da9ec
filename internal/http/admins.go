package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/libraryhub/internal/catalog"
	"github.com/mrlokans/libraryhub/internal/entities"
)

type AdminsController struct {
	catalog *catalog.Catalog
}

func NewAdminsController(cat *catalog.Catalog) *AdminsController {
	return &AdminsController{catalog: cat}
}

func (ac *AdminsController) List(c *gin.Context) {
	found, err := ac.catalog.ListAdmins(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list admins")
		return
	}
	out := make([]entities.Admin, len(found))
	for i, a := range found {
		out[i] = a.Public()
	}
	c.JSON(http.StatusOK, gin.H{"admins": out, "count": len(out)})
}

func (ac *AdminsController) Create(c *gin.Context) {
	var in catalog.AdminInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	admin, err := ac.catalog.CreateAdmin(c.Request.Context(), in)
	if err != nil {
		respondDomainError(c, err, "create admin")
		return
	}
	respondCreated(c, admin.Public())
}

// Delete handles DELETE /api/admins/:id. The last super admin cannot be removed.
func (ac *AdminsController) Delete(c *gin.Context) {
	if err := ac.catalog.DeleteAdmin(c.Request.Context(), c.Param("id")); err != nil {
		respondDomainError(c, err, "delete admin")
		return
	}
	respondSuccess(c, "admin deleted")
}
