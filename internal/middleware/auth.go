package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/apierror"
)

const (
	ClaimsKey  = "claims"
	OwnerIDKey = "owner_id"
)

// JWTClaims are the claims this service reads from tokens issued by the
// identity provider. The owner is "sub", or "user_id" for older tokens.
type JWTClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

func (c *JWTClaims) ownerID() (uuid.UUID, error) {
	raw := c.Subject
	if raw == "" {
		raw = c.UserID
	}
	return uuid.Parse(raw)
}

// JWTAuth validates the Bearer token on every protected route and stores the
// owner id in the context.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("authentication required"))
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("invalid or expired token"))
			return
		}

		ownerID, err := claims.ownerID()
		if err != nil || ownerID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("token has no owner"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(OwnerIDKey, ownerID)
		c.Next()
	}
}

// OwnerID returns the owner resolved by JWTAuth.
func OwnerID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(OwnerIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
