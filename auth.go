package main

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"milkbook/models"
)

var errInvalidCredentials = errors.New("invalid credentials")

// offlineUserID is the fixed owner key used when no account store is
// reachable. All offline sessions share one dataset slot in the local cache.
const offlineUserID = "offline-user"

func offlineEmail() string {
	if v := os.Getenv("OFFLINE_EMAIL"); v != "" {
		return v
	}
	return "admin@milkbook.local"
}

func offlinePassword() string {
	if v := os.Getenv("OFFLINE_PASSWORD"); v != "" {
		return v
	}
	return "admin123"
}

// registerUser creates an account row. Registration needs the remote store;
// there is nowhere durable to put a new account while offline.
func registerUser(email, password string) (models.User, error) {
	if db == nil {
		return models.User{}, errors.New("registration requires the remote store")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}
	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
	}
	if err := db.Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.User{}, errors.New("email already registered")
		}
		return models.User{}, err
	}
	return user, nil
}

// authenticate checks credentials against the account table, falling back to
// the shared offline login when the remote store is missing or unreachable.
// A present-but-wrong account is rejected outright; only infrastructure
// failures degrade to offline mode.
func authenticate(email, password string) (models.User, error) {
	if db == nil {
		return offlineLogin(email, password)
	}
	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, errInvalidCredentials
	}
	if err != nil {
		zlog.Warn("account lookup failed, trying offline login", zap.Error(err))
		return offlineLogin(email, password)
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return models.User{}, errInvalidCredentials
	}
	return user, nil
}

func offlineLogin(email, password string) (models.User, error) {
	if email != offlineEmail() || password != offlinePassword() {
		return models.User{}, errInvalidCredentials
	}
	return models.User{ID: offlineUserID, Email: email}, nil
}

// changePassword verifies the current password and stores a new hash. Needs
// the remote store; the offline login has no stored hash to rotate.
func changePassword(userID, current, next string) error {
	if db == nil || userID == offlineUserID {
		return errors.New("password change requires the remote store")
	}
	var user models.User
	if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(current)) != nil {
		return errInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return db.Model(&models.User{}).Where("id = ?", userID).
		Update("password_hash", hash).Error
}

// isUniqueConstraintError sniffs the driver error text; gorm does not expose
// a typed duplicate-key error across drivers.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

// issueToken signs a 24h HS256 session token for the user.
func issueToken(user models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"exp":   time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}
