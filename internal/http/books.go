package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/libraryhub/internal/catalog"
	"github.com/mrlokans/libraryhub/internal/database/books"
)

type BooksController struct {
	catalog *catalog.Catalog
}

func NewBooksController(cat *catalog.Catalog) *BooksController {
	return &BooksController{catalog: cat}
}

// List handles GET /api/books?q=&category=&availability=
func (bc *BooksController) List(c *gin.Context) {
	availability := books.Availability(c.Query("availability"))
	switch availability {
	case "", books.AvailabilityAvailable, books.AvailabilityUnavailable:
	default:
		respondBadRequest(c, "availability must be available or unavailable")
		return
	}

	found, err := bc.catalog.FindBooks(c.Request.Context(), catalog.BookQuery{
		Query:        c.Query("q"),
		Category:     c.Query("category"),
		Availability: availability,
	})
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"books": found,
		"count": len(found),
	})
}

func (bc *BooksController) Get(c *gin.Context) {
	book, err := bc.catalog.GetBook(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err, "get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

func (bc *BooksController) Create(c *gin.Context) {
	var in catalog.BookInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	book, err := bc.catalog.CreateBook(c.Request.Context(), in)
	if err != nil {
		respondDomainError(c, err, "create book")
		return
	}
	respondCreated(c, book)
}

// Update handles PUT /api/books/:id. A quantity change moves availability
// by the same amount.
func (bc *BooksController) Update(c *gin.Context) {
	var in catalog.BookInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	book, err := bc.catalog.UpdateBook(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondDomainError(c, err, "update book")
		return
	}
	c.JSON(http.StatusOK, book)
}

func (bc *BooksController) Delete(c *gin.Context) {
	if err := bc.catalog.DeleteBook(c.Request.Context(), c.Param("id")); err != nil {
		respondDomainError(c, err, "delete book")
		return
	}
	respondSuccess(c, "book deleted")
}
