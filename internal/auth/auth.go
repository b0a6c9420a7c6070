package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"fern-notes/internal/db"
	"fern-notes/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")
var ErrInvalidCredentials = errors.New("invalid email or password")

// CookieName carries the session JWT between page loads.
const CookieName = "fern_token"

const sessionTTL = 30 * 24 * time.Hour

type Auth struct {
	db        *db.DB
	jwtSecret []byte
}

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func New(database *db.DB, secret string) *Auth {
	return &Auth{
		db:        database,
		jwtSecret: []byte(secret),
	}
}

// SignUp registers a user and returns a session token for them.
func (a *Auth) SignUp(email, password string) (string, *models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, err
	}

	user, err := a.db.CreateUser(email, string(hash))
	if err != nil {
		return "", nil, err
	}

	token, err := a.GenerateJWT(user)
	return token, user, err
}

// SignIn checks credentials and returns a session token.
func (a *Auth) SignIn(email, password string) (string, *models.User, error) {
	user, hash, err := a.db.GetCredentials(email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := a.GenerateJWT(user)
	return token, user, err
}

func (a *Auth) GenerateJWT(user *models.User) (string, error) {
	claims := &Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "fern-notes",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

func (a *Auth) ValidateJWT(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return a.jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

type contextKey struct{}

// Middleware attaches the session for a valid Bearer token or cookie. It never
// rejects: reads degrade to guest results, so each handler decides whether a
// session is required.
func (a *Auth) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")

		if authHeader == "" {
			cookie, err := r.Cookie(CookieName)
			if err == nil {
				authHeader = "Bearer " + cookie.Value
			}
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			next(w, r)
			return
		}

		claims, err := a.ValidateJWT(parts[1])
		if err != nil {
			next(w, r)
			return
		}

		session := &models.Session{UserID: claims.Subject, Email: claims.Email}
		next(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, session)))
	}
}

// SessionFrom returns the session attached by Middleware, if any.
func SessionFrom(r *http.Request) (*models.Session, bool) {
	s, ok := r.Context().Value(contextKey{}).(*models.Session)
	return s, ok
}
