package exporters

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/libraryhub/internal/entities"
	"github.com/mrlokans/libraryhub/internal/reports"
)

var generated = time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC)

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestBooksCSV(t *testing.T) {
	var buf bytes.Buffer
	result, err := BooksCSV(&buf, []entities.Book{
		{ID: "b-1", Title: "Gatsby, The", Author: "F. Scott Fitzgerald", Category: "Fiction", ISBN: "978-0743273565", Quantity: 5, Available: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rows)

	rows := readCSV(t, buf.Bytes())
	require.Len(t, rows, 2)
	assert.Equal(t, bookHeader, rows[0])
	assert.Equal(t, []string{"b-1", "Gatsby, The", "F. Scott Fitzgerald", "Fiction", "978-0743273565", "5", "3"}, rows[1])
}

func TestStudentsCSV_OmitsPasswordHash(t *testing.T) {
	var buf bytes.Buffer
	_, err := StudentsCSV(&buf, []entities.Student{
		{ID: "s-1", Name: "John Doe", Email: "email@student.com", StudentNumber: "STU-2025-001", Phone: "N/A", PasswordHash: "$2a$secret", CreatedAt: generated},
	})
	require.NoError(t, err)

	assert.NotContains(t, buf.String(), "$2a$secret")
	rows := readCSV(t, buf.Bytes())
	assert.Equal(t, []string{"s-1", "John Doe", "email@student.com", "STU-2025-001", "N/A", "2024-01-20"}, rows[1])
}

func TestBorrowingCSV(t *testing.T) {
	returned := time.Date(2024, 1, 18, 0, 0, 0, 0, time.UTC)
	loans := []reports.Loan{
		{
			BorrowRecord: entities.BorrowRecord{ID: "r-1", StudentID: "s-1", BookID: "b-1",
				IssuedDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), DueDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), Renewals: 1},
			StudentName: "John Doe", BookTitle: "The Great Gatsby",
		},
		{
			BorrowRecord: entities.BorrowRecord{ID: "r-2", StudentID: "s-1", BookID: "b-2", ReturnedDate: &returned},
		},
	}

	var buf bytes.Buffer
	result, err := BorrowingCSV(&buf, loans)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Rows)

	rows := readCSV(t, buf.Bytes())
	assert.Equal(t, []string{"r-1", "s-1", "John Doe", "b-1", "The Great Gatsby", "2024-01-01", "2024-01-15", "", "1", "borrowed"}, rows[1])
	assert.Equal(t, "2024-01-18", rows[2][7])
	assert.Equal(t, "returned", rows[2][9])
}

func TestCatalogMarkdown(t *testing.T) {
	md := CatalogMarkdown([]entities.Book{
		{Title: "Python Programming", Author: "John Smith", Category: "Technology", Quantity: 4, Available: 4},
		{Title: "A | B", Author: "Harper Lee", Category: "Fiction", Quantity: 3, Available: 1},
		{Title: "Untitled", Quantity: 1},
	}, generated)

	assert.Contains(t, md, "content_type: library_catalog")
	assert.Contains(t, md, "created_at: 2024-01-20")
	assert.Contains(t, md, `| A \| B | Harper Lee |  | 1/3 |`)
	assert.Less(t, strings.Index(md, "## Fiction"), strings.Index(md, "## Technology"))
	assert.Contains(t, md, "## Uncategorized")
}

func TestOverdueMarkdown(t *testing.T) {
	assert.Contains(t, OverdueMarkdown(nil, generated), "No overdue books.")

	md := OverdueMarkdown([]reports.OverdueItem{{
		Loan: reports.Loan{
			BorrowRecord: entities.BorrowRecord{StudentID: "s-9", BookID: "b-1", DueDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
			BookTitle:    "The Great Gatsby",
		},
		DaysOverdue: 10,
	}}, generated)
	assert.Contains(t, md, "| s-9 | The Great Gatsby | 2024-01-10 | 10 |")
}
