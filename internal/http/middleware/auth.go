package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	types "github.com/yungbote/careerkb-backend/internal/domain"
	"github.com/yungbote/careerkb-backend/internal/http/response"
	"github.com/yungbote/careerkb-backend/internal/platform/ctxutil"
	"github.com/yungbote/careerkb-backend/internal/platform/dbctx"
	"github.com/yungbote/careerkb-backend/internal/platform/logger"
)

// PersonProvisioner creates the Person named by a valid token on first use.
type PersonProvisioner interface {
	EnsurePerson(dbc dbctx.Context, personID uuid.UUID, email, name string) (*types.Person, error)
}

type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type AuthMiddleware struct {
	log    *logger.Logger
	secret []byte
	people PersonProvisioner
}

func NewAuthMiddleware(log *logger.Logger, secret string, people PersonProvisioner) *AuthMiddleware {
	return &AuthMiddleware{
		log:    log.With("middleware", "AuthMiddleware"),
		secret: []byte(secret),
		people: people,
	}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			abortUnauthorized(c, "missing or invalid token")
			return
		}
		personID, claims, err := am.parse(tokenString)
		if err != nil {
			am.log.Debug("token rejected", "error", err)
			abortUnauthorized(c, "missing or invalid token")
			return
		}

		ctx := c.Request.Context()
		if am.people != nil {
			if _, err := am.people.EnsurePerson(dbctx.Context{Ctx: ctx}, personID, claims.Email, claims.Name); err != nil {
				am.log.Error("provision person failed", "person_id", personID, "error", err)
				response.RespondError(c, http.StatusInternalServerError, "internal", errors.New("internal error"))
				return
			}
		}
		ctx = ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
			TokenString: tokenString,
			PersonID:    personID,
			Email:       claims.Email,
			Name:        claims.Name,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (am *AuthMiddleware) parse(tokenString string) (uuid.UUID, *Claims, error) {
	if len(am.secret) == 0 {
		return uuid.Nil, nil, errors.New("jwt secret not configured")
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return am.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return uuid.Nil, nil, err
	}
	if !token.Valid {
		return uuid.Nil, nil, errors.New("invalid token")
	}
	personID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("invalid subject: %w", err)
	}
	return personID, claims, nil
}

// SignToken issues an HS256 bearer token for personID.
func SignToken(secret string, personID uuid.UUID, email, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   personID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func abortUnauthorized(c *gin.Context, msg string) {
	response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New(msg))
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

