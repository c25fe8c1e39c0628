package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fyefbv/common-ground-api/internal/config"
	"github.com/fyefbv/common-ground-api/internal/models"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
)

type registerRequest struct {
	Username  string   `json:"username" binding:"required,min=3,max=40"`
	Bio       string   `json:"bio" binding:"omitempty,max=500"`
	Interests []string `json:"interests" binding:"omitempty,max=20,dive,min=1,max=50"`
}

// generateJWT генерує JWT з ID профілю
func (h *Handler) generateJWT(profileID string) (string, error) {
	claims := jwt.MapClaims{
		"profile_id": profileID,
		"exp":        time.Now().Add(time.Hour * 72).Unix(),
		"iss":        "common-ground-api",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.JWTSecret)
}

// validateAndGetProfileID перевіряє підпис токена та повертає profile_id
func (h *Handler) validateAndGetProfileID(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return h.JWTSecret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token claims")
	}

	profileID, ok := claims["profile_id"].(string)
	if !ok || profileID == "" {
		return "", fmt.Errorf("token missing profile_id")
	}
	return profileID, nil
}

// Register створює профіль з інтересами та повертає JWT
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_request", "error": err.Error()})
		return
	}

	existing, err := h.Store.GetProfileByUsername(req.Username)
	if err != nil {
		h.internalError(c, err)
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"code": "username_taken", "error": "Username is already taken"})
		return
	}

	profile := &models.Profile{
		Username:        req.Username,
		Bio:             req.Bio,
		Interests:       normalizeInterests(req.Interests),
		ReputationScore: config.InitialReputation,
	}
	if err := h.Store.CreateProfile(profile); err != nil {
		h.internalError(c, err)
		return
	}

	token, err := h.generateJWT(profile.ID)
	if err != nil {
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":      token,
		"profile_id": profile.ID,
		"username":   profile.Username,
	})
}

// Me повертає власний профіль
func (h *Handler) Me(c *gin.Context) {
	profile, err := h.Store.GetProfileByID(h.profileID(c))
	if err != nil {
		h.internalError(c, err)
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"code": "profile_not_found", "error": "Profile not found"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// AuthRequired — middleware, що вимагає валідний Bearer-токен
func (h *Handler) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "error": "Authorization token missing"})
			return
		}

		profileID, err := h.validateAndGetProfileID(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "error": "Invalid token or expired"})
			return
		}

		c.Set("profile_id", profileID)
		c.Next()
	}
}

func (h *Handler) profileID(c *gin.Context) string {
	return c.GetString("profile_id")
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(authHeader[len("Bearer "):])
	return token, token != ""
}

// normalizeInterests прибирає пробіли, порожні рядки та дублікати,
// зберігаючи порядок.
func normalizeInterests(interests []string) []string {
	seen := make(map[string]struct{}, len(interests))
	out := make([]string, 0, len(interests))
	for _, interest := range interests {
		interest = strings.ToLower(strings.TrimSpace(interest))
		if interest == "" {
			continue
		}
		if _, ok := seen[interest]; ok {
			continue
		}
		seen[interest] = struct{}{}
		out = append(out, interest)
	}
	return out
}
