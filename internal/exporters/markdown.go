package exporters

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mrlokans/libraryhub/internal/entities"
	"github.com/mrlokans/libraryhub/internal/reports"
)

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}

func frontmatter(b *strings.Builder, contentType, title string, generated time.Time) {
	fmt.Fprintf(b, "---\n")
	fmt.Fprintf(b, "content_type: %s\n", contentType)
	fmt.Fprintf(b, "created_at: %s\n", generated.Format(dateFormat))
	fmt.Fprintf(b, "title: \"%s\"\n", strings.ReplaceAll(title, "\"", "\\\""))
	fmt.Fprintf(b, "---\n\n")
}

// CatalogMarkdown lists books grouped by category, categories sorted by name.
func CatalogMarkdown(books []entities.Book, generated time.Time) string {
	var builder strings.Builder
	frontmatter(&builder, "library_catalog", "Library Catalog", generated)

	byCategory := make(map[string][]entities.Book)
	for _, b := range books {
		category := b.Category
		if category == "" {
			category = "Uncategorized"
		}
		byCategory[category] = append(byCategory[category], b)
	}
	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for _, category := range categories {
		fmt.Fprintf(&builder, "## %s\n\n", category)
		fmt.Fprintf(&builder, "| Title | Author | ISBN | Available |\n|---|---|---|---|\n")
		for _, b := range byCategory[category] {
			fmt.Fprintf(&builder, "| %s | %s | %s | %d/%d |\n",
				escapeCell(b.Title), escapeCell(b.Author), escapeCell(b.ISBN), b.Available, b.Quantity)
		}
		builder.WriteString("\n")
	}
	return builder.String()
}

// OverdueMarkdown renders the overdue report as a table, in the order given.
func OverdueMarkdown(items []reports.OverdueItem, generated time.Time) string {
	var builder strings.Builder
	frontmatter(&builder, "overdue_report", "Overdue Books", generated)

	if len(items) == 0 {
		builder.WriteString("No overdue books.\n")
		return builder.String()
	}
	fmt.Fprintf(&builder, "| Student | Book | Due | Days overdue |\n|---|---|---|---|\n")
	for _, item := range items {
		student := item.StudentName
		if student == "" {
			student = item.StudentID
		}
		title := item.BookTitle
		if title == "" {
			title = item.BookID
		}
		fmt.Fprintf(&builder, "| %s | %s | %s | %d |\n",
			escapeCell(student), escapeCell(title), formatDate(item.DueDate), item.DaysOverdue)
	}
	return builder.String()
}
