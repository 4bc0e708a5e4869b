// Package identity owns users and their credentials.
package identity

import (
	"context" // Request scoped cancellation
	"strings" // Input trimming

	"fbank/internal/domain" // Domain models and errors

	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/crypto/bcrypt" // Password and PIN hashing
	"gorm.io/gorm"               // GORM ORM library
)

// AccountOpener opens the default account of a freshly registered user
// inside the registration transaction.
type AccountOpener interface {
	OpenDefaultAccount(tx *gorm.DB, userID uint) (*domain.Account, error)
}

// Store is the credential store backed by the users table.
type Store struct {
	db     *gorm.DB
	opener AccountOpener
	cost   int
}

// NewStore builds a Store. opener may be nil when no default account is wanted.
func NewStore(db *gorm.DB, opener AccountOpener) *Store {
	return &Store{db: db, opener: opener, cost: bcrypt.DefaultCost}
}

// WithCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (s *Store) WithCost(cost int) *Store {
	s.cost = cost
	return s
}

// Register creates a user and their default account atomically.
func (s *Store) Register(ctx context.Context, name, login, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.InvalidInput("Name is required")
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	normalized, err := NormalizeLogin(login)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, domain.Internal(err)
	}

	user := &domain.User{Name: name, Phone: normalized, Password: string(hash), Role: domain.RoleUser}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.User{}).Where("phone = ?", normalized).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 { // Login already taken
			return domain.Conflict("A user with this phone or email already exists")
		}
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if s.opener != nil {
			if _, err := s.opener.OpenDefaultAccount(tx, user.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		err = domain.FromStore(err, "User not found")
		if domain.IsKind(err, domain.KindConflict) { // Lost a race on the unique index
			return nil, domain.Conflict("A user with this phone or email already exists")
		}
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"user_id": user.ID}).Info("User registered")
	return user, nil
}

// Authenticate checks a login/password pair.
func (s *Store) Authenticate(ctx context.Context, login, password string) (*domain.User, error) {
	user, err := s.findByLogin(ctx, login)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) || domain.IsKind(err, domain.KindInvalidInput) {
			return nil, domain.Unauthorized("Invalid phone/email or password")
		}
		return nil, err
	}
	if !s.VerifyPassword(user, password) {
		return nil, domain.Unauthorized("Invalid phone/email or password")
	}
	return user, nil
}

// VerifyPassword compares password with the stored hash.
func (s *Store) VerifyPassword(user *domain.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) == nil
}

// SavePIN stores a bcrypt hash of a 4-digit PIN.
func (s *Store) SavePIN(ctx context.Context, userID uint, pin string) error {
	if !isPIN(pin) {
		return domain.InvalidInput("PIN must be 4 digits")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), s.cost)
	if err != nil {
		return domain.Internal(err)
	}
	res := s.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", userID).Update("pin_hash", string(hash)) // Replace any previous PIN
	if res.Error != nil {
		return domain.FromStore(res.Error, "User not found")
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("User not found")
	}
	return nil
}

// VerifyPIN checks pin against the stored hash.
func (s *Store) VerifyPIN(ctx context.Context, userID uint, pin string) error {
	user, err := s.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.HasPIN() {
		return domain.InvalidInput("PIN is not set")
	}
	if bcrypt.CompareHashAndPassword([]byte(*user.PinHash), []byte(pin)) != nil {
		return domain.Unauthorized("Wrong PIN")
	}
	return nil
}

// ResolveCallerID maps the login carried by an access token to a user id.
func (s *Store) ResolveCallerID(ctx context.Context, login string) (uint, error) {
	user, err := s.findByLogin(ctx, login)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

// FindByID loads a user by primary key.
func (s *Store) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, domain.FromStore(err, "User not found")
	}
	return &user, nil
}

// FindByPhone resolves a user from a raw phone number.
func (s *Store) FindByPhone(ctx context.Context, raw string) (*domain.User, error) {
	phone, err := NormalizePhone(raw)
	if err != nil {
		return nil, err
	}
	var user domain.User
	if err := s.db.WithContext(ctx).Where("phone = ?", phone).First(&user).Error; err != nil {
		return nil, domain.FromStore(err, "No user with this phone number")
	}
	return &user, nil
}

func (s *Store) findByLogin(ctx context.Context, login string) (*domain.User, error) {
	normalized, err := NormalizeLogin(login)
	if err != nil {
		return nil, err
	}
	var user domain.User
	if err := s.db.WithContext(ctx).Where("phone = ?", normalized).First(&user).Error; err != nil {
		return nil, domain.FromStore(err, "User not found")
	}
	return &user, nil
}

func validatePassword(p string) error {
	if len(p) < 8 || len(p) > 72 {
		return domain.InvalidInput("Password must be 8-72 characters")
	}
	return nil
}

func isPIN(p string) bool {
	if len(p) != 4 {
		return false
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
