package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"nyumbakumi/internal/adapters/persistence/models"
	"nyumbakumi/internal/adapters/persistence/repositories"
	"nyumbakumi/internal/config"
	"nyumbakumi/internal/core/domain"
	"nyumbakumi/internal/pkg/jwt"
	"nyumbakumi/internal/pkg/password"
)

// Token errors
var (
	ErrInvalidToken = domain.NewError(domain.ErrUnauthenticated, "invalid access token")
	ErrTokenExpired = domain.NewError(domain.ErrUnauthenticated, "access token expired")
)

// AuthService handles authentication business logic
type AuthService struct {
	users      repositories.UserRepository
	zones      repositories.ZoneRepository
	households repositories.HouseholdRepository
	cfg        *config.Config
	log        *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(store *repositories.Store, cfg *config.Config, log *zap.Logger) *AuthService {
	return &AuthService{
		users:      store.Users,
		zones:      store.Zones,
		households: store.Households,
		cfg:        cfg,
		log:        log,
	}
}

// RegisterInput represents registration input
type RegisterInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	PhoneNumber string `json:"phoneNumber" validate:"required,max=30"`
	Role        string `json:"role" validate:"omitempty,oneof=household leader admin"`
	ZoneID      string `json:"zoneId"`
	HouseholdID string `json:"householdId"`
	AdminCode   string `json:"adminCode"`
}

// LoginInput represents login input
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User        *models.UserResponse `json:"user"`
	AccessToken string               `json:"token"`
}

// Register registers a new user
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*AuthResponse, error) {
	role := domain.RoleHousehold
	if input.Role != "" {
		r, ok := domain.ParseRole(input.Role)
		if !ok {
			return nil, domain.Validationf("invalid role %q", input.Role)
		}
		role = r
	}
	if !password.ValidatePassword(input.Password) {
		return nil, domain.Validationf("password must be at least %d characters", password.MinLength)
	}

	// 1. Role-specific requirements
	var household *models.Household
	switch role {
	case domain.RoleAdmin:
		if input.AdminCode != s.cfg.Auth.AdminRegistrationCode {
			return nil, domain.ErrInvalidAdminCode
		}
	case domain.RoleLeader, domain.RoleHousehold:
		if input.ZoneID == "" {
			return nil, domain.Validationf("zoneId is required for %s accounts", role)
		}
		if _, err := s.zones.GetByID(ctx, input.ZoneID); err != nil {
			return nil, orNotFound(err, domain.ErrZoneNotFound)
		}
	}
	if role == domain.RoleHousehold {
		if input.HouseholdID == "" {
			return nil, domain.Validationf("householdId is required for household accounts")
		}
		h, err := s.households.GetByID(ctx, input.HouseholdID)
		if err != nil {
			return nil, orNotFound(err, domain.ErrHouseholdNotFound)
		}
		if h.ZoneID != input.ZoneID {
			return nil, domain.Validationf("household does not belong to the given zone")
		}
		household = h
	}

	// 2. Check if email already exists
	email := strings.ToLower(strings.TrimSpace(input.Email))
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrEmailTaken
	}

	// 3. Hash password
	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	// 4. Create user
	user := &models.User{
		Name:        strings.TrimSpace(input.Name),
		Email:       email,
		Password:    hashed,
		PhoneNumber: strings.TrimSpace(input.PhoneNumber),
		Role:        string(role),
	}
	if role != domain.RoleAdmin {
		user.ZoneID = input.ZoneID
	}
	if household != nil {
		user.HouseholdID = household.ID
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, orConflict(err, domain.ErrEmailTaken)
	}

	// 5. Join the household
	if household != nil {
		if err := s.households.AddMember(ctx, household.ID, user.ID); err != nil && !errors.Is(err, domain.ErrUniqueViolation) {
			return nil, err
		}
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", user.ID), zap.String("role", user.Role))
	return &AuthResponse{User: user.ToResponse(), AccessToken: token}, nil
}

// Login authenticates a user
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		return nil, orNotFound(err, domain.ErrInvalidCredentials)
	}

	if !password.Verify(input.Password, user.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	s.log.Info("user logged in", zap.String("user_id", user.ID))
	return &AuthResponse{User: user.ToResponse(), AccessToken: token}, nil
}

// Authenticate resolves a bearer token to the current actor. The user is
// re-read so zone and household changes apply without a new login.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.Actor, error) {
	claims, err := jwt.ValidateAccessToken(token, s.cfg.JWT.Secret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Anonymous(), ErrTokenExpired
		}
		return domain.Anonymous(), ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return domain.Anonymous(), orNotFound(err, ErrInvalidToken)
	}
	return ActorFor(user), nil
}

// ActorFor builds the actor of a stored user
func ActorFor(user *models.User) domain.Actor {
	role, _ := domain.ParseRole(user.Role)
	return domain.Actor{
		ID:          user.ID,
		Role:        role,
		ZoneID:      user.ZoneID,
		HouseholdID: user.HouseholdID,
	}
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	return jwt.GenerateAccessToken(jwt.Subject{
		UserID:      user.ID,
		Role:        user.Role,
		ZoneID:      user.ZoneID,
		HouseholdID: user.HouseholdID,
	}, s.cfg.JWT.Secret, s.cfg.JWT.AccessTokenMins)
}
