package store

import (
	"strings"

	"github.com/tablekit/backend/internal/models"
	"github.com/tablekit/backend/pkg/utils"
)

// PrepareUser runs before a user row is inserted: it normalizes the email and replaces
// the password with its bcrypt hash. The password is always treated as plaintext.
func PrepareUser(u *models.User) error {
	u.Email = NormalizeEmail(u.Email)
	hash, err := utils.HashPassword(u.Password)
	if err != nil {
		return err
	}
	u.Password = hash
	return nil
}

// NormalizeEmail lowercases and trims an address so the unique index compares like values.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
