package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/libraryhub/internal/catalog"
	"github.com/mrlokans/libraryhub/internal/entities"
	"github.com/mrlokans/libraryhub/internal/reports"
)

type StudentsController struct {
	catalog *catalog.Catalog
	reports *reports.Reports
}

func NewStudentsController(cat *catalog.Catalog, rep *reports.Reports) *StudentsController {
	return &StudentsController{catalog: cat, reports: rep}
}

func publicStudents(in []entities.Student) []entities.Student {
	out := make([]entities.Student, len(in))
	for i, s := range in {
		out[i] = s.Public()
	}
	return out
}

// List handles GET /api/students?q=
func (sc *StudentsController) List(c *gin.Context) {
	found, err := sc.catalog.SearchStudents(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondInternalError(c, err, "list students")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"students": publicStudents(found),
		"count":    len(found),
	})
}

func (sc *StudentsController) Get(c *gin.Context) {
	student, err := sc.catalog.GetStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err, "get student")
		return
	}
	c.JSON(http.StatusOK, student.Public())
}

func (sc *StudentsController) Create(c *gin.Context) {
	var in catalog.StudentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	student, err := sc.catalog.CreateStudent(c.Request.Context(), in)
	if err != nil {
		respondDomainError(c, err, "create student")
		return
	}
	respondCreated(c, student.Public())
}

// Update handles PUT /api/students/:id. An empty password keeps the current one.
func (sc *StudentsController) Update(c *gin.Context) {
	var in catalog.StudentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	student, err := sc.catalog.UpdateStudent(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondDomainError(c, err, "update student")
		return
	}
	c.JSON(http.StatusOK, student.Public())
}

func (sc *StudentsController) Delete(c *gin.Context) {
	if err := sc.catalog.DeleteStudent(c.Request.Context(), c.Param("id")); err != nil {
		respondDomainError(c, err, "delete student")
		return
	}
	respondSuccess(c, "student deleted")
}

// Borrowing handles GET /api/students/:id/borrowing. Only outstanding copies
// are listed unless ?history=true.
func (sc *StudentsController) Borrowing(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := sc.catalog.GetStudent(ctx, id); err != nil {
		respondDomainError(c, err, "get student")
		return
	}

	var (
		loans []reports.Loan
		err   error
	)
	if c.Query("history") == "true" {
		loans, err = sc.reports.HistoryFor(ctx, id)
	} else {
		loans, err = sc.reports.OutstandingFor(ctx, id)
	}
	if err != nil {
		respondInternalError(c, err, "student borrowing")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"records": loans,
		"count":   len(loans),
	})
}
