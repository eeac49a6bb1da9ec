package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrlokans/libraryhub/internal/auth"
	"github.com/mrlokans/libraryhub/internal/circulation"
	"github.com/mrlokans/libraryhub/internal/database/borrowing"
	"github.com/mrlokans/libraryhub/internal/database/students"
	"github.com/mrlokans/libraryhub/internal/entities"
	"github.com/mrlokans/libraryhub/internal/ledger"
)

type StudentInput struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	StudentNumber string `json:"student_number"`
	Password      string `json:"password"`
	Phone         string `json:"phone"`
}

// validate checks profile fields; the password is required only when requirePassword is set.
func (in StudentInput) validate(requirePassword bool) error {
	v := validator{}
	v.minLen(in.Name, 2, "name", "Name")
	v.check(emailPattern.MatchString(strings.TrimSpace(in.Email)), "email", "Invalid email format")
	v.minLen(in.StudentNumber, 3, "student_number", "Student ID")
	if requirePassword || in.Password != "" {
		v.check(len(in.Password) >= auth.MinPasswordLength, "password",
			fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength))
	}
	phone := strings.TrimSpace(in.Phone)
	v.check(phone == "" || phone == DefaultPhone || phonePattern.MatchString(phone), "phone", "Invalid phone number")
	return v.err()
}

func (in StudentInput) apply(s *entities.Student) {
	s.Name = strings.TrimSpace(in.Name)
	s.Email = normalizeEmail(in.Email)
	s.StudentNumber = strings.TrimSpace(in.StudentNumber)
	s.Phone = strings.TrimSpace(in.Phone)
	if s.Phone == "" {
		s.Phone = DefaultPhone
	}
}

// CreateStudent registers a student with a hashed password.
func (c *Catalog) CreateStudent(ctx context.Context, in StudentInput) (*entities.Student, error) {
	if err := in.validate(true); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password, c.opts.BcryptCost)
	if err != nil {
		return nil, err
	}
	student := &entities.Student{ID: c.opts.IDs.NewID(), PasswordHash: hash, CreatedAt: c.now()}
	in.apply(student)

	err = c.ledger.Apply(ctx, func(tx *ledger.Tx) error {
		repo := students.NewRepository(tx.DB())
		if err := emailFree(repo, student.Email, ""); err != nil {
			return err
		}
		return repo.Create(student)
	})
	if err != nil {
		return nil, err
	}
	c.notify("student_create", "student", student.ID, fmt.Sprintf("Registered %s (%s)", student.Name, student.StudentNumber))
	return student, nil
}

// UpdateStudent edits profile fields. An empty password keeps the current one.
func (c *Catalog) UpdateStudent(ctx context.Context, id string, in StudentInput) (*entities.Student, error) {
	if err := in.validate(false); err != nil {
		return nil, err
	}
	var hash string
	if in.Password != "" {
		var err error
		if hash, err = auth.HashPassword(in.Password, c.opts.BcryptCost); err != nil {
			return nil, err
		}
	}

	var student *entities.Student
	err := c.ledger.Apply(ctx, func(tx *ledger.Tx) error {
		repo := students.NewRepository(tx.DB())
		var err error
		student, err = repo.GetByID(id)
		if err != nil {
			return studentErr(id, err)
		}
		if err := emailFree(repo, normalizeEmail(in.Email), id); err != nil {
			return err
		}
		in.apply(student)
		if hash != "" {
			student.PasswordHash = hash
		}
		return repo.Save(student)
	})
	if err != nil {
		return nil, err
	}
	c.notify("student_update", "student", id, fmt.Sprintf("Updated %s", student.Name))
	return student, nil
}

// DeleteStudent removes a student who holds no books.
func (c *Catalog) DeleteStudent(ctx context.Context, id string) error {
	var name string
	err := c.ledger.Apply(ctx, func(tx *ledger.Tx) error {
		repo := students.NewRepository(tx.DB())
		student, err := repo.GetByID(id)
		if err != nil {
			return studentErr(id, err)
		}
		name = student.Name
		outstanding, err := borrowing.NewRepository(tx.DB()).CountOutstandingForStudent(id)
		if err != nil {
			return err
		}
		if outstanding > 0 {
			return fmt.Errorf("%w: %d outstanding", ErrStudentHasOutstanding, outstanding)
		}
		return repo.Delete(id)
	})
	if err != nil {
		return err
	}
	c.notify("student_delete", "student", id, fmt.Sprintf("Deleted %s", name))
	return nil
}

func (c *Catalog) GetStudent(ctx context.Context, id string) (*entities.Student, error) {
	student, err := students.NewRepository(c.db.WithContext(ctx)).GetByID(id)
	if err != nil {
		return nil, studentErr(id, err)
	}
	return student, nil
}

func (c *Catalog) ListStudents(ctx context.Context) ([]entities.Student, error) {
	return students.NewRepository(c.db.WithContext(ctx)).List()
}

// SearchStudents matches name, email or student number, ignoring case.
func (c *Catalog) SearchStudents(ctx context.Context, query string) ([]entities.Student, error) {
	if strings.TrimSpace(query) == "" {
		return c.ListStudents(ctx)
	}
	return students.NewRepository(c.db.WithContext(ctx)).Search(query)
}

func emailFree(repo *students.Repository, email, selfID string) error {
	existing, err := repo.GetByEmail(email)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID == selfID {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrEmailTaken, email)
}

func studentErr(id string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: %s", circulation.ErrStudentNotFound, id)
	}
	return err
}
