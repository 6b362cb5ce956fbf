package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"kindred-match/internal/service"
)

// claimsContextKey es la clave de contexto gin donde queda la identidad del
// miembro autenticado para los handlers del motor.
const claimsContextKey = "kindred_auth_claims"

// bearerToken extrae el token del header Authorization. Acepta el esquema
// Bearer sin distinguir mayusculas.
func bearerToken(c *gin.Context) (string, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return "", false
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// JWTAuthMiddleware valida el access token y deja los claims del miembro en
// el contexto. Toda ruta de perfil, interacciones y recomendaciones pasa por
// aca.
func JWTAuthMiddleware(jwtSvc *service.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtSvc == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt not configured"})
			c.Abort()
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		claims, err := jwtSvc.ParseAccessToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// GetAuthClaims recupera los claims del miembro dejados por el middleware.
func GetAuthClaims(c *gin.Context) (service.Claims, bool) {
	val, ok := c.Get(claimsContextKey)
	if !ok {
		return service.Claims{}, false
	}
	claims, ok := val.(service.Claims)
	return claims, ok
}
