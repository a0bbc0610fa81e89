package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tornadogo-backend/internal/dispatch"
	"tornadogo-backend/internal/middleware"
	"tornadogo-backend/internal/models"
	"tornadogo-backend/pkg/utils"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	OK    bool                 `json:"ok"`
	Token string               `json:"token,omitempty"`
	User  *models.UserResponse `json:"user,omitempty"`
}

func Login(eng *dispatch.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		log.Printf("🔐 Login attempt for: %s", req.Email)

		jwtSecret := os.Getenv("APP_JWT_SECRET")
		if jwtSecret == "" {
			log.Println("❌ JWT secret not configured")
			utils.JSON(w, http.StatusInternalServerError, LoginResponse{OK: false})
			return
		}

		user, err := eng.Authenticate(req.Email, req.Password)
		if err != nil {
			log.Printf("❌ Login rejected for: %s", req.Email)
			utils.JSON(w, http.StatusUnauthorized, LoginResponse{OK: false})
			return
		}

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": user.ID,
			"email":   user.Email,
			"role":    user.Role,
			"iat":     time.Now().Unix(),
			"exp":     time.Now().Add(7 * 24 * time.Hour).Unix(),
		})

		tokenString, err := token.SignedString([]byte(jwtSecret))
		if err != nil {
			log.Println("❌ Failed to create token")
			http.Error(w, "Failed to create token", http.StatusInternalServerError)
			return
		}

		userResponse := user.ToUserResponse()
		log.Printf("✅ Login successful: %s (%s)", user.Email, user.Role)

		utils.JSON(w, http.StatusOK, LoginResponse{
			OK:    true,
			Token: tokenString,
			User:  &userResponse,
		})
	}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Carrier  string `json:"carrier"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// Register creates a passenger or driver account. Admin accounts can only
// be created through the admin user-management endpoint.
func Register(eng *dispatch.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if req.Role == models.RoleAdmin {
			utils.Error(w, http.StatusForbidden, "admin accounts cannot self-register")
			return
		}

		user, err := eng.RegisterUser(dispatch.RegisterUserInput{
			Name:     req.Name,
			Email:    req.Email,
			Phone:    req.Phone,
			Carrier:  req.Carrier,
			Role:     req.Role,
			Password: req.Password,
		})
		if err != nil {
			utils.EngineError(w, err)
			return
		}

		log.Printf("✅ Registered %s account: %s", user.Role, user.Email)
		utils.JSON(w, http.StatusCreated, user.ToUserResponse())
	}
}

// GetAuthStatus returns the authenticated user's current profile.
func GetAuthStatus(eng *dispatch.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		user, err := eng.UserByID(claims.UserID)
		if err != nil {
			utils.EngineError(w, err)
			return
		}

		utils.Success(w, user.ToUserResponse())
	}
}
