package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/libraryhub/internal/auth"
	"github.com/mrlokans/libraryhub/internal/circulation"
	"github.com/mrlokans/libraryhub/internal/reports"
)

// CirculationController exposes the borrowing workflow to staff and students.
type CirculationController struct {
	workflow *circulation.Workflow
	reports  *reports.Reports
	now      func() time.Time
}

func NewCirculationController(w *circulation.Workflow, rep *reports.Reports, now func() time.Time) *CirculationController {
	return &CirculationController{workflow: w, reports: rep, now: now}
}

type issueRequest struct {
	StudentID  string `json:"student_id"`
	BookID     string `json:"book_id"`
	IssuedDate string `json:"issued_date"`
	DueDate    string `json:"due_date"`
	Quantity   int    `json:"quantity"`
	Notes      string `json:"notes"`
}

// Issue handles POST /api/borrowing. Issued date defaults to now and the due
// date to one loan period after it.
func (cc *CirculationController) Issue(c *gin.Context) {
	var req issueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.StudentID == "" || req.BookID == "" {
		respondBadRequest(c, "student_id and book_id are required")
		return
	}

	issued, err := parseDate(req.IssuedDate)
	if err != nil {
		respondBadRequest(c, "invalid issued_date")
		return
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		respondBadRequest(c, "invalid due_date")
		return
	}
	if issued.IsZero() {
		issued = cc.now()
	}
	if due.IsZero() {
		due = issued.Add(cc.workflow.LoanPeriod())
	}

	records, err := cc.workflow.Issue(c.Request.Context(), circulation.IssueRequest{
		StudentID:  req.StudentID,
		BookID:     req.BookID,
		IssuedDate: issued,
		DueDate:    due,
		Quantity:   req.Quantity,
		Notes:      req.Notes,
	})
	if err != nil {
		respondDomainError(c, err, "issue")
		return
	}
	respondCreated(c, gin.H{"records": records, "count": len(records)})
}

func (cc *CirculationController) Return(c *gin.Context) {
	record, err := cc.workflow.Return(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err, "return")
		return
	}
	c.JSON(http.StatusOK, record)
}

func (cc *CirculationController) Renew(c *gin.Context) {
	record, err := cc.workflow.Renew(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err, "renew")
		return
	}
	c.JSON(http.StatusOK, record)
}

// ResetReturned handles POST /api/borrowing/reset-returned.
func (cc *CirculationController) ResetReturned(c *gin.Context) {
	purged, err := cc.workflow.ResetAllReturned(c.Request.Context())
	if err != nil {
		respondDomainError(c, err, "reset returned")
		return
	}
	c.JSON(http.StatusOK, gin.H{"purged": len(purged)})
}

// ReturnAll handles POST /api/students/:id/return-all.
func (cc *CirculationController) ReturnAll(c *gin.Context) {
	returned, err := cc.workflow.ReturnAllFor(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err, "return all")
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": returned, "count": len(returned)})
}

// --- Self-service ---

// selfStudentID resolves which student a self-service call acts for. Students
// always act for themselves; staff and the anonymous subject name the student
// with ?student_id= or the body's student_id.
func selfStudentID(c *gin.Context, fromBody string) (string, bool) {
	subject, _ := auth.GetSubject(c)
	if subject.Role == auth.RoleStudent {
		return subject.ID, true
	}
	id := c.Query("student_id")
	if id == "" {
		id = fromBody
	}
	if id == "" {
		respondBadRequest(c, "student_id is required")
		return "", false
	}
	return id, true
}

type requestBookRequest struct {
	BookID    string `json:"book_id"`
	StudentID string `json:"student_id"`
	Notes     string `json:"notes"`
}

// RequestBook handles POST /api/me/requests.
func (cc *CirculationController) RequestBook(c *gin.Context) {
	var req requestBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.BookID == "" {
		respondBadRequest(c, "book_id is required")
		return
	}
	studentID, ok := selfStudentID(c, req.StudentID)
	if !ok {
		return
	}

	record, err := cc.workflow.RequestBook(c.Request.Context(), studentID, req.BookID, req.Notes)
	if err != nil {
		respondDomainError(c, err, "request book")
		return
	}
	respondCreated(c, record)
}

// MyBorrowing handles GET /api/me/borrowing.
func (cc *CirculationController) MyBorrowing(c *gin.Context) {
	studentID, ok := selfStudentID(c, "")
	if !ok {
		return
	}
	loans, err := cc.reports.OutstandingFor(c.Request.Context(), studentID)
	if err != nil {
		respondInternalError(c, err, "my borrowing")
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": loans, "count": len(loans)})
}

// RenewMine handles POST /api/me/borrowing/:id/renew. Records held by other
// students are reported as not found.
func (cc *CirculationController) RenewMine(c *gin.Context) {
	studentID, ok := selfStudentID(c, "")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	recordID := c.Param("id")

	loans, err := cc.reports.HistoryFor(ctx, studentID)
	if err != nil {
		respondInternalError(c, err, "renew mine")
		return
	}
	owned := false
	for _, l := range loans {
		if l.ID == recordID {
			owned = true
			break
		}
	}
	if !owned {
		respondDomainError(c, circulation.ErrRecordNotFound, "renew mine")
		return
	}

	record, err := cc.workflow.Renew(ctx, recordID)
	if err != nil {
		respondDomainError(c, err, "renew mine")
		return
	}
	c.JSON(http.StatusOK, record)
}
