package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/matchweek-backend/internal/logger"
	"github.com/yungbote/matchweek-backend/internal/repos"
	"github.com/yungbote/matchweek-backend/internal/requestdata"
	"github.com/yungbote/matchweek-backend/internal/types"
)

type AuthService interface {
	RegisterUser(ctx context.Context, user *types.User) error
	LoginUser(ctx context.Context, email, password string) (string, string, error)
	RefreshUser(ctx context.Context) (string, string, error)
	LogoutUser(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db              *gorm.DB
	log             *logger.Logger
	userRepo        repos.UserRepo
	userTokenRepo   repos.UserTokenRepo
	jwtSecretKey    string
	accessTTL       time.Duration
	refreshTTL      time.Duration
	defaultTenantID uuid.UUID
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
	defaultTenantID uuid.UUID,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		db:              db,
		log:             serviceLog,
		userRepo:        userRepo,
		userTokenRepo:   userTokenRepo,
		jwtSecretKey:    jwtSecretKey,
		accessTTL:       accessTTL,
		refreshTTL:      refreshTTL,
		defaultTenantID: defaultTenantID,
	}
}

func (as *authService) RegisterUser(ctx context.Context, user *types.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Email == "" || !strings.Contains(user.Email, "@") {
		return fmt.Errorf("invalid email")
	}
	if len(user.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	exists, err := as.userRepo.EmailExists(ctx, nil, user.Email)
	if err != nil {
		return fmt.Errorf("Failed to check email: %w", err)
	}
	if exists {
		return fmt.Errorf("email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("Failed to hash password: %w", err)
	}
	user.Password = string(hashed)

	// Every user hangs off a tenant; single-tenant deploys get the bootstrap
	// tenant created at startup.
	if user.TenantID == uuid.Nil {
		user.TenantID = as.defaultTenantID
	}
	if user.TenantID == uuid.Nil {
		return fmt.Errorf("no tenant configured")
	}

	user.ID = uuid.New()
	if _, err := as.userRepo.Create(ctx, nil, []*types.User{user}); err != nil {
		return fmt.Errorf("Failed to create user in postgres: %w", err)
	}
	return nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := as.userRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		return "", "", fmt.Errorf("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", "", fmt.Errorf("invalid email or password")
	}

	var accessToken, refreshToken string
	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := as.userTokenRepo.DeleteByUserIDs(ctx, tx, []uuid.UUID{user.ID}); err != nil {
			return fmt.Errorf("Failed to clear existing tokens: %w", err)
		}
		var tErr error
		accessToken, tErr = as.generateAccessToken(user)
		if tErr != nil {
			return tErr
		}
		refreshToken = uuid.NewString()
		token := &types.UserToken{
			UserID:       user.ID,
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresAt:    time.Now().Add(as.refreshTTL),
		}
		if _, err := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{token}); err != nil {
			return fmt.Errorf("Failed to store user token: %w", err)
		}
		return nil
	}); err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (as *authService) RefreshUser(ctx context.Context) (string, string, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.RefreshToken == "" {
		return "", "", fmt.Errorf("missing refresh token")
	}

	stored, err := as.userTokenRepo.GetByRefreshToken(ctx, nil, rd.RefreshToken)
	if err != nil {
		return "", "", fmt.Errorf("invalid refresh token")
	}
	if stored.ExpiresAt.Before(time.Now()) {
		return "", "", fmt.Errorf("refresh token expired")
	}

	users, err := as.userRepo.GetByIDs(ctx, nil, []uuid.UUID{stored.UserID})
	if err != nil || len(users) == 0 {
		return "", "", fmt.Errorf("user not found")
	}
	user := users[0]

	var accessToken, refreshToken string
	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := as.userTokenRepo.DeleteByRefreshToken(ctx, tx, rd.RefreshToken); err != nil {
			return fmt.Errorf("Failed to rotate refresh token: %w", err)
		}
		var tErr error
		accessToken, tErr = as.generateAccessToken(user)
		if tErr != nil {
			return tErr
		}
		refreshToken = uuid.NewString()
		token := &types.UserToken{
			UserID:       user.ID,
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresAt:    time.Now().Add(as.refreshTTL),
		}
		if _, err := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{token}); err != nil {
			return fmt.Errorf("Failed to store user token: %w", err)
		}
		return nil
	}); err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (as *authService) LogoutUser(ctx context.Context) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return fmt.Errorf("not authenticated")
	}
	return as.userTokenRepo.DeleteByUserIDs(ctx, nil, []uuid.UUID{rd.UserID})
}

// SetContextFromToken validates a bearer token and attaches request data.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil || !token.Valid {
		return ctx, fmt.Errorf("invalid token")
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return ctx, fmt.Errorf("invalid token subject")
	}
	isAdmin, _ := claims["adm"].(bool)

	rd := &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		IsAdmin:     isAdmin,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": user.ID.String(),
		"adm": user.IsAdmin,
		"iat": now.Unix(),
		"exp": now.Add(as.accessTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return "", fmt.Errorf("Failed to sign access token: %w", err)
	}
	return signed, nil
}
