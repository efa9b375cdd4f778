package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/shell"
)

const minPasswordLength = 8

var ErrDirectoryFailed = errors.New("user directory operation failed")

// userRecord is the gorm model of the users table.
type userRecord struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)"`
	Username     string    `gorm:"uniqueIndex;not null;size:100"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"not null;size:16"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (userRecord) TableName() string {
	return "users"
}

func (r userRecord) toUser() core.User {
	return core.User{ID: r.ID, Username: r.Username, Role: r.Role}
}

// Directory stores users and checks their passwords.
type Directory struct {
	db         *gorm.DB
	bcryptCost int
}

// DirectoryOption defines a functional option for configuring Directory.
type DirectoryOption func(*Directory)

// WithBcryptCost overrides bcrypt.DefaultCost, tests use bcrypt.MinCost.
func WithBcryptCost(cost int) DirectoryOption {
	return func(d *Directory) {
		d.bcryptCost = cost
	}
}

func NewDirectory(db *gorm.DB, opts ...DirectoryOption) Directory {
	d := Directory{db: db, bcryptCost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(&d)
	}

	return d
}

// Migrate creates or updates the users table.
func (d Directory) Migrate(ctx context.Context) error {
	if err := d.db.WithContext(ctx).AutoMigrate(&userRecord{}); err != nil {
		return errors.Join(ErrDirectoryFailed, err)
	}

	return nil
}

// Create registers a new user. The username is trimmed and must be unique.
func (d Directory) Create(ctx context.Context, username string, password string, role core.Role) (core.User, error) {
	username = strings.TrimSpace(username)

	switch {
	case username == "":
		return core.User{}, core.ErrEmptyUsername
	case len(password) < minPasswordLength:
		return core.User{}, core.ErrWeakPassword
	case role != core.RoleAdmin && role != core.RolePatron:
		return core.User{}, core.ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.bcryptCost)
	if err != nil {
		return core.User{}, errors.Join(ErrDirectoryFailed, err)
	}

	record := userRecord{
		ID:           shell.NewID().String(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&userRecord{}).Where("username = ?", username).Count(&taken).Error; err != nil {
			return err
		}

		if taken > 0 {
			return core.ErrUsernameTaken
		}

		return tx.Create(&record).Error
	})

	switch {
	case err == nil:
		return record.toUser(), nil
	case errors.Is(err, core.ErrUsernameTaken), errors.Is(err, gorm.ErrDuplicatedKey):
		return core.User{}, core.ErrUsernameTaken
	default:
		return core.User{}, errors.Join(ErrDirectoryFailed, err)
	}
}

// Authenticate returns the user if the password matches. Unknown users and wrong passwords
// are indistinguishable for the caller.
func (d Directory) Authenticate(ctx context.Context, username string, password string) (core.User, error) {
	var record userRecord

	err := d.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.User{}, core.ErrInvalidCredential
	}

	if err != nil {
		return core.User{}, errors.Join(ErrDirectoryFailed, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)) != nil {
		return core.User{}, core.ErrInvalidCredential
	}

	return record.toUser(), nil
}

func (d Directory) FindByID(ctx context.Context, userID core.UserIDString) (core.User, error) {
	var record userRecord

	err := d.db.WithContext(ctx).Where("id = ?", userID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.User{}, core.ErrUserNotFound
	}

	if err != nil {
		return core.User{}, errors.Join(ErrDirectoryFailed, err)
	}

	return record.toUser(), nil
}

// UsernamesByID resolves display names for the transaction history. Unknown IDs are left out.
func (d Directory) UsernamesByID(ctx context.Context, userIDs []core.UserIDString) (map[core.UserIDString]string, error) {
	usernames := make(map[core.UserIDString]string, len(userIDs))
	if len(userIDs) == 0 {
		return usernames, nil
	}

	var records []userRecord
	if err := d.db.WithContext(ctx).Select("id", "username").Where("id IN ?", userIDs).Find(&records).Error; err != nil {
		return nil, errors.Join(ErrDirectoryFailed, err)
	}

	for _, record := range records {
		usernames[record.ID] = record.Username
	}

	return usernames, nil
}
