package exporters

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/mrlokans/libraryhub/internal/entities"
	"github.com/mrlokans/libraryhub/internal/reports"
)

var (
	bookHeader      = []string{"id", "title", "author", "category", "isbn", "quantity", "available"}
	studentHeader   = []string{"id", "name", "email", "student_number", "phone", "created_at"}
	borrowingHeader = []string{"id", "student_id", "student_name", "book_id", "book_title", "issued_date", "due_date", "returned_date", "renewals", "status"}
)

func writeCSV(w io.Writer, header []string, rows [][]string) (ExportResult, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return ExportResult{}, err
	}
	if err := cw.WriteAll(rows); err != nil {
		return ExportResult{}, err
	}
	return ExportResult{Rows: len(rows)}, nil
}

// BooksCSV writes one row per book.
func BooksCSV(w io.Writer, books []entities.Book) (ExportResult, error) {
	rows := make([][]string, 0, len(books))
	for _, b := range books {
		rows = append(rows, []string{
			b.ID, b.Title, b.Author, b.Category, b.ISBN,
			strconv.Itoa(b.Quantity), strconv.Itoa(b.Available),
		})
	}
	return writeCSV(w, bookHeader, rows)
}

// StudentsCSV writes one row per student. Password hashes are never exported.
func StudentsCSV(w io.Writer, students []entities.Student) (ExportResult, error) {
	rows := make([][]string, 0, len(students))
	for _, s := range students {
		rows = append(rows, []string{s.ID, s.Name, s.Email, s.StudentNumber, s.Phone, formatDate(s.CreatedAt)})
	}
	return writeCSV(w, studentHeader, rows)
}

// BorrowingCSV writes one row per borrow record with resolved names.
func BorrowingCSV(w io.Writer, loans []reports.Loan) (ExportResult, error) {
	rows := make([][]string, 0, len(loans))
	for _, l := range loans {
		status := "returned"
		if l.IsOutstanding() {
			status = "borrowed"
		}
		rows = append(rows, []string{
			l.ID, l.StudentID, l.StudentName, l.BookID, l.BookTitle,
			formatDate(l.IssuedDate), formatDate(l.DueDate), formatOptionalDate(l.ReturnedDate),
			strconv.Itoa(l.Renewals), status,
		})
	}
	return writeCSV(w, borrowingHeader, rows)
}
