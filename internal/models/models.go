package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// Role values carried by user accounts and token claims
const (
	RoleAdmin   = "admin"
	RoleVisitor = "visitor"
)

// Verification code purposes
const (
	PurposeConfirm = "confirm" // email confirmation after sign-up
	PurposeReset   = "reset"   // password reset
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// User represents a library member account
type User struct {
	BaseModel
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email_id" gorm:"unique;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         string    `json:"role" gorm:"not null;default:visitor"`
	Confirmed    bool      `json:"confirmed" gorm:"not null;default:false"`
	Disabled     bool      `json:"disabled" gorm:"not null;default:false"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Book represents a physical book in the catalog.
// BorrowedBy/BorrowDate are nil while the book sits on the shelf.
type Book struct {
	BaseModel
	Name       string     `json:"book_name" gorm:"not null;uniqueIndex:idx_book_author"`
	Author     string     `json:"author" gorm:"not null;uniqueIndex:idx_book_author"`
	BorrowedBy *string    `json:"borrowby"`
	BorrowDate *time.Time `json:"borrow_date"`
}

// Borrowed reports whether the book is currently on loan
func (b *Book) Borrowed() bool {
	return b.BorrowedBy != nil
}

// Collection groups curated resources under a name
type Collection struct {
	BaseModel
	Name string `json:"collection_name" gorm:"unique;not null"`

	// Relationships
	Resources []Resource `json:"resources,omitempty" gorm:"foreignKey:CollectionName;references:Name;constraint:OnDelete:CASCADE"`
}

// Resource is a link belonging to a collection
type Resource struct {
	BaseModel
	CollectionName string `json:"collection_name" gorm:"not null;index"`
	Name           string `json:"resource_name" gorm:"not null"`
	Link           string `json:"link" gorm:"not null"`
	Description    string `json:"description"`
}

// VerificationCode is a one-time code mailed out-of-band for email
// confirmation or password reset. A code is spent once ConsumedAt is set.
type VerificationCode struct {
	BaseModel
	Email      string     `json:"email_id" gorm:"not null;index"`
	Code       string     `json:"-" gorm:"not null"`
	Purpose    string     `json:"purpose" gorm:"not null"`
	ExpiresAt  time.Time  `json:"expires_at" gorm:"not null"`
	ConsumedAt *time.Time `json:"consumed_at"`
}

// Usable reports whether the code can still be redeemed at the given time
func (v *VerificationCode) Usable(now time.Time) bool {
	return v.ConsumedAt == nil && now.Before(v.ExpiresAt)
}

// AuditEvent is the durable record of a published domain event,
// written by the worker as events drain from the queue
type AuditEvent struct {
	BaseModel
	Source string `json:"source" gorm:"not null"`
	Type   string `json:"detail_type" gorm:"not null;index"`
	Detail string `json:"detail" gorm:"type:text"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	// Collect all models
	models := []interface{}{
		&User{}, &Book{}, &Collection{}, &Resource{}, &VerificationCode{}, &AuditEvent{},
	}

	return db.AutoMigrate(models...)
}
