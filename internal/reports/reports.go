// Package reports derives read-only views of the library: outstanding and
// overdue loans, rankings, aggregates and dashboard counters.
//
// Reads take no ledger lock and may trail an in-flight circulation change.
// Records whose student or book no longer exists are still reported, with the
// missing names left empty.
package reports

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/libraryhub/internal/database/books"
	"github.com/mrlokans/libraryhub/internal/database/borrowing"
	"github.com/mrlokans/libraryhub/internal/database/students"
	"github.com/mrlokans/libraryhub/internal/entities"
)

const (
	DefaultMostBorrowedLimit = 5
	DefaultRecentLimit       = 10
	DefaultDueSoonWindowDays = 3

	day = 24 * time.Hour
)

type Reports struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Reports {
	return &Reports{db: db}
}

// Loan is a borrow record joined with the names a reader needs.
type Loan struct {
	entities.BorrowRecord
	StudentName  string `json:"student_name"`
	StudentEmail string `json:"student_email"`
	BookTitle    string `json:"book_title"`
}

type OverdueItem struct {
	Loan
	DaysOverdue int `json:"days_overdue"`
}

type DueSoonItem struct {
	Loan
	DaysLeft int `json:"days_left"`
}

type BookCount struct {
	BookID string `json:"book_id"`
	Title  string `json:"title"`
	Count  int    `json:"count"`
}

type StudentCount struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Active    int    `json:"active"`
}

type Buckets struct {
	Today     int `json:"today"`
	LastWeek  int `json:"last_week"`
	ThisMonth int `json:"this_month"`
	ThisYear  int `json:"this_year"`
}

type Summary struct {
	TotalBooks     int64 `json:"total_books"`
	TotalStudents  int64 `json:"total_students"`
	BorrowsToday   int   `json:"borrows_today"`
	PendingReturns int64 `json:"pending_returns"`
}

// OutstandingFor lists the copies a student currently holds.
func (r *Reports) OutstandingFor(ctx context.Context, studentID string) ([]Loan, error) {
	records, err := borrowing.NewRepository(r.db.WithContext(ctx)).ListOutstandingForStudent(studentID)
	if err != nil {
		return nil, fmt.Errorf("list outstanding for %s: %w", studentID, err)
	}
	return r.loans(ctx, records)
}

// HistoryFor lists every record of a student, returned ones included.
func (r *Reports) HistoryFor(ctx context.Context, studentID string) ([]Loan, error) {
	records, err := borrowing.NewRepository(r.db.WithContext(ctx)).ListForStudent(studentID)
	if err != nil {
		return nil, fmt.Errorf("list history for %s: %w", studentID, err)
	}
	return r.loans(ctx, records)
}

// AllLoans lists every borrow record in issue order, for exports.
func (r *Reports) AllLoans(ctx context.Context) ([]Loan, error) {
	records, err := borrowing.NewRepository(r.db.WithContext(ctx)).List()
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return r.loans(ctx, records)
}

// Overdue lists outstanding records due before asOf, most overdue first.
func (r *Reports) Overdue(ctx context.Context, asOf time.Time) ([]OverdueItem, error) {
	records, err := borrowing.NewRepository(r.db.WithContext(ctx)).ListOutstanding()
	if err != nil {
		return nil, fmt.Errorf("list outstanding: %w", err)
	}

	var overdue []entities.BorrowRecord
	for _, rec := range records {
		if rec.IsOverdue(asOf) {
			overdue = append(overdue, rec)
		}
	}
	loans, err := r.loans(ctx, overdue)
	if err != nil {
		return nil, err
	}

	items := make([]OverdueItem, len(loans))
	for i, l := range loans {
		items[i] = OverdueItem{Loan: l, DaysOverdue: int(asOf.Sub(l.DueDate) / day)}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DueDate.Before(items[j].DueDate)
	})
	return items, nil
}

// DueSoon lists outstanding records due within windowDays whole days of now.
// A record is included when 0 < ceil((due - now) / day) <= windowDays.
func (r *Reports) DueSoon(ctx context.Context, now time.Time, windowDays int) ([]DueSoonItem, error) {
	if windowDays <= 0 {
		windowDays = DefaultDueSoonWindowDays
	}
	records, err := borrowing.NewRepository(r.db.WithContext(ctx)).ListOutstanding()
	if err != nil {
		return nil, fmt.Errorf("list outstanding: %w", err)
	}

	var soon []entities.BorrowRecord
	var left []int
	for _, rec := range records {
		d := daysLeft(rec.DueDate, now)
		if d > 0 && d <= windowDays {
			soon = append(soon, rec)
			left = append(left, d)
		}
	}
	loans, err := r.loans(ctx, soon)
	if err != nil {
		return nil, err
	}

	items := make([]DueSoonItem, len(loans))
	for i, l := range loans {
		items[i] = DueSoonItem{Loan: l, DaysLeft: left[i]}
	}
	return items, nil
}

func daysLeft(due, now time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours() / 24))
}

// MostBorrowed ranks books by how many records reference them, returned
// records included. Ties keep the order in which each book was first borrowed.
func (r *Reports) MostBorrowed(ctx context.Context, limit int) ([]BookCount, error) {
	if limit <= 0 {
		limit = DefaultMostBorrowedLimit
	}
	records, err := borrowing.NewRepository(r.db.WithContext(ctx)).List()
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	var ranking []BookCount
	index := make(map[string]int)
	for _, rec := range records {
		i, ok := index[rec.BookID]
		if !ok {
			i = len(ranking)
			index[rec.BookID] = i
			ranking = append(ranking, BookCount{BookID: rec.BookID})
		}
		ranking[i].Count++
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Count > ranking[j].Count
	})
	if len(ranking) > limit {
		ranking = ranking[:limit]
	}

	titles, err := r.bookTitles(ctx)
	if err != nil {
		return nil, err
	}
	for i := range ranking {
		ranking[i].Title = titles[ranking[i].BookID]
	}
	return ranking, nil
}

// CategoryCounts groups books by category in order of first appearance.
func (r *Reports) CategoryCounts(ctx context.Context) ([]entities.CategoryCount, error) {
	all, err := books.NewRepository(r.db.WithContext(ctx)).List()
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	var out []entities.CategoryCount
	index := make(map[string]int)
	for _, b := range all {
		i, ok := index[b.Category]
		if !ok {
			i = len(out)
			index[b.Category] = i
			out = append(out, entities.CategoryCount{Category: b.Category})
		}
		out[i].Count++
	}
	return out, nil
}

// BorrowBuckets counts records issued today, in the last seven days, in the
// current calendar month and in the current calendar year, all relative to now
// in now's location.
func (r *Reports) BorrowBuckets(ctx context.Context, now time.Time) (Buckets, error) {
	records, err := borrowing.NewRepository(r.db.WithContext(ctx)).List()
	if err != nil {
		return Buckets{}, fmt.Errorf("list records: %w", err)
	}

	var b Buckets
	weekAgo := now.Add(-7 * day)
	for _, rec := range records {
		issued := rec.IssuedDate.In(now.Location())
		if sameDay(issued, now) {
			b.Today++
		}
		if !issued.Before(weekAgo) {
			b.LastWeek++
		}
		if issued.Year() == now.Year() && issued.Month() == now.Month() {
			b.ThisMonth++
		}
		if issued.Year() == now.Year() {
			b.ThisYear++
		}
	}
	return b, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ActiveCountsByStudent counts outstanding copies per student, in the order
// each student first borrowed.
func (r *Reports) ActiveCountsByStudent(ctx context.Context) ([]StudentCount, error) {
	records, err := borrowing.NewRepository(r.db.WithContext(ctx)).ListOutstanding()
	if err != nil {
		return nil, fmt.Errorf("list outstanding: %w", err)
	}
	names, _, err := r.studentNames(ctx)
	if err != nil {
		return nil, err
	}

	var out []StudentCount
	index := make(map[string]int)
	for _, rec := range records {
		i, ok := index[rec.StudentID]
		if !ok {
			i = len(out)
			index[rec.StudentID] = i
			out = append(out, StudentCount{StudentID: rec.StudentID, Name: names[rec.StudentID]})
		}
		out[i].Active++
	}
	return out, nil
}

// RecentIssues lists outstanding records, newest issue first.
func (r *Reports) RecentIssues(ctx context.Context, limit int) ([]Loan, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	records, err := borrowing.NewRepository(r.db.WithContext(ctx)).ListOutstanding()
	if err != nil {
		return nil, fmt.Errorf("list outstanding: %w", err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].IssuedDate.After(records[j].IssuedDate)
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return r.loans(ctx, records)
}

// Summary returns the dashboard counters.
func (r *Reports) Summary(ctx context.Context, now time.Time) (Summary, error) {
	db := r.db.WithContext(ctx)
	var s Summary
	var err error

	if s.TotalBooks, err = books.NewRepository(db).Count(); err != nil {
		return Summary{}, fmt.Errorf("count books: %w", err)
	}
	if s.TotalStudents, err = students.NewRepository(db).Count(); err != nil {
		return Summary{}, fmt.Errorf("count students: %w", err)
	}
	if s.PendingReturns, err = borrowing.NewRepository(db).CountOutstanding(); err != nil {
		return Summary{}, fmt.Errorf("count outstanding: %w", err)
	}
	buckets, err := r.BorrowBuckets(ctx, now)
	if err != nil {
		return Summary{}, err
	}
	s.BorrowsToday = buckets.Today
	return s, nil
}

func (r *Reports) loans(ctx context.Context, records []entities.BorrowRecord) ([]Loan, error) {
	if len(records) == 0 {
		return []Loan{}, nil
	}
	names, emails, err := r.studentNames(ctx)
	if err != nil {
		return nil, err
	}
	titles, err := r.bookTitles(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Loan, len(records))
	for i, rec := range records {
		out[i] = Loan{
			BorrowRecord: rec,
			StudentName:  names[rec.StudentID],
			StudentEmail: emails[rec.StudentID],
			BookTitle:    titles[rec.BookID],
		}
	}
	return out, nil
}

func (r *Reports) studentNames(ctx context.Context) (names, emails map[string]string, err error) {
	all, err := students.NewRepository(r.db.WithContext(ctx)).List()
	if err != nil {
		return nil, nil, fmt.Errorf("list students: %w", err)
	}
	names = make(map[string]string, len(all))
	emails = make(map[string]string, len(all))
	for _, s := range all {
		names[s.ID] = s.Name
		emails[s.ID] = s.Email
	}
	return names, emails, nil
}

func (r *Reports) bookTitles(ctx context.Context) (map[string]string, error) {
	all, err := books.NewRepository(r.db.WithContext(ctx)).List()
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	titles := make(map[string]string, len(all))
	for _, b := range all {
		titles[b.ID] = b.Title
	}
	return titles, nil
}
