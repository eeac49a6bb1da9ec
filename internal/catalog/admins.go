package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrlokans/libraryhub/internal/auth"
	"github.com/mrlokans/libraryhub/internal/database/admins"
	"github.com/mrlokans/libraryhub/internal/entities"
	"github.com/mrlokans/libraryhub/internal/ledger"
)

type AdminInput struct {
	Name     string             `json:"name"`
	Email    string             `json:"email"`
	Password string             `json:"password"`
	Role     entities.AdminRole `json:"role"`
}

func (in AdminInput) validate() error {
	v := validator{}
	v.minLen(in.Name, 2, "name", "Name")
	v.check(emailPattern.MatchString(strings.TrimSpace(in.Email)), "email", "Invalid email format")
	v.check(len(in.Password) >= auth.MinPasswordLength, "password",
		fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength))
	v.check(in.Role == "" || in.Role.Valid(), "role", "Role must be admin or super_admin")
	return v.err()
}

// CreateAdmin adds a staff account. Role defaults to admin.
func (c *Catalog) CreateAdmin(ctx context.Context, in AdminInput) (*entities.Admin, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password, c.opts.BcryptCost)
	if err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = entities.AdminRoleAdmin
	}
	admin := &entities.Admin{
		ID:           c.opts.IDs.NewID(),
		Name:         strings.TrimSpace(in.Name),
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    c.now(),
	}

	err = c.ledger.Apply(ctx, func(tx *ledger.Tx) error {
		repo := admins.NewRepository(tx.DB())
		if _, err := repo.GetByEmail(admin.Email); err == nil {
			return fmt.Errorf("%w: %s", ErrEmailTaken, admin.Email)
		} else if !isNotFound(err) {
			return err
		}
		return repo.Create(admin)
	})
	if err != nil {
		return nil, err
	}
	c.notify("admin_create", "admin", admin.ID, fmt.Sprintf("Added %s as %s", admin.Name, admin.Role))
	return admin, nil
}

func (c *Catalog) ListAdmins(ctx context.Context) ([]entities.Admin, error) {
	return admins.NewRepository(c.db.WithContext(ctx)).List()
}

func (c *Catalog) GetAdmin(ctx context.Context, id string) (*entities.Admin, error) {
	admin, err := admins.NewRepository(c.db.WithContext(ctx)).GetByID(id)
	if err != nil {
		return nil, adminErr(id, err)
	}
	return admin, nil
}

// DeleteAdmin removes a staff account. At least one super admin always remains.
func (c *Catalog) DeleteAdmin(ctx context.Context, id string) error {
	var name string
	err := c.ledger.Apply(ctx, func(tx *ledger.Tx) error {
		repo := admins.NewRepository(tx.DB())
		admin, err := repo.GetByID(id)
		if err != nil {
			return adminErr(id, err)
		}
		name = admin.Name
		if admin.Role == entities.AdminRoleSuperAdmin {
			n, err := repo.CountByRole(entities.AdminRoleSuperAdmin)
			if err != nil {
				return err
			}
			if n <= 1 {
				return ErrLastSuperAdmin
			}
		}
		return repo.Delete(id)
	})
	if err != nil {
		return err
	}
	c.notify("admin_delete", "admin", id, fmt.Sprintf("Removed %s", name))
	return nil
}

func adminErr(id string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: %s", ErrAdminNotFound, id)
	}
	return err
}
