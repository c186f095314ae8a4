package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"go.uber.org/zap"

	"github.com/fatflowers/admeter/pkg/config"
	"github.com/fatflowers/admeter/pkg/logctx"
	"github.com/fatflowers/admeter/pkg/response"
)

var errMissingBearer = errors.New("missing bearer token")

// ServiceAuthMiddleware authenticates internal callers with an HS256 service
// token. The token subject becomes the caller service in the request context.
// Without a configured secret only non-prod environments are let through.
func ServiceAuthMiddleware(cfg *config.Config, base *zap.SugaredLogger) gin.HandlerFunc {
	secret := []byte(cfg.Auth.ServiceTokenSecret)
	return func(c *gin.Context) {
		log := logctx.FromGin(c, base)
		if len(secret) == 0 {
			if cfg.IsProd() {
				log.Errorw("service token secret not configured, rejecting call", "path", c.FullPath())
				abortUnauthorized(c)
				return
			}
			c.Next()
			return
		}

		caller, err := parseServiceToken(c.GetHeader("Authorization"), secret)
		if err != nil {
			log.Warnw("service token rejected", "security_event", true, "path", c.FullPath(), "error", err)
			abortUnauthorized(c)
			return
		}
		c.Request = c.Request.WithContext(logctx.WithCaller(c.Request.Context(), caller))
		c.Next()
	}
}

func parseServiceToken(header string, secret []byte) (string, error) {
	parts := strings.Fields(header)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errMissingBearer
	}
	claims := &jwt.StandardClaims{}
	_, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, nil))
}
