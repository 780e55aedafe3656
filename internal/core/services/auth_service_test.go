package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nyumbakumi/internal/config"
	"nyumbakumi/internal/core/domain"
	"nyumbakumi/internal/pkg/jwt"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.AccessTokenMins = 60
	cfg.Auth.AdminRegistrationCode = "let-me-in"
	return cfg
}

func TestAuthService_RegisterRoles(t *testing.T) {
	f := newFixture(t)
	auth := NewAuthService(f.store, testConfig(), zap.NewNop())
	leader := f.user(domain.RoleLeader, "leader")
	zone := f.zone("Kilimani", leader)
	h := f.household(zone, "A1")

	_, err := auth.Register(f.ctx, &RegisterInput{
		Name: "Admin", Email: "admin@example.org", Password: "password123", PhoneNumber: "1", Role: "admin", AdminCode: "wrong",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	resp, err := auth.Register(f.ctx, &RegisterInput{
		Name: "Admin", Email: "Admin@Example.org", Password: "password123", PhoneNumber: "1", Role: "admin", AdminCode: "let-me-in",
	})
	require.NoError(t, err)
	assert.Equal(t, "admin@example.org", resp.User.Email)
	assert.NotEmpty(t, resp.AccessToken)

	_, err = auth.Register(f.ctx, &RegisterInput{
		Name: "Resident", Email: "r@example.org", Password: "password123", PhoneNumber: "1", Role: "household", ZoneID: zone.ID,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	resp, err = auth.Register(f.ctx, &RegisterInput{
		Name: "Resident", Email: "r@example.org", Password: "password123", PhoneNumber: "1",
		ZoneID: zone.ID, HouseholdID: h.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.RoleHousehold), resp.User.Role)

	stored, err := f.store.Households.GetByID(f.ctx, h.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasMember(resp.User.ID))

	_, err = auth.Register(f.ctx, &RegisterInput{
		Name: "Again", Email: "r@example.org", Password: "password123", PhoneNumber: "1", Role: "leader", ZoneID: zone.ID,
	})
	assert.ErrorIs(t, err, domain.ErrUniqueViolation)

	_, err = auth.Register(f.ctx, &RegisterInput{
		Name: "Short", Email: "s@example.org", Password: "short", PhoneNumber: "1", Role: "leader", ZoneID: zone.ID,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAuthService_LoginAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	cfg := testConfig()
	auth := NewAuthService(f.store, cfg, zap.NewNop())
	leader := f.user(domain.RoleLeader, "leader")
	zone := f.zone("Kilimani", leader)

	_, err := auth.Register(f.ctx, &RegisterInput{
		Name: "Wanjiru", Email: "wanjiru@example.org", Password: "password123", PhoneNumber: "1", Role: "leader", ZoneID: zone.ID,
	})
	require.NoError(t, err)

	_, err = auth.Login(f.ctx, &LoginInput{Email: "wanjiru@example.org", Password: "nope-nope"})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = auth.Login(f.ctx, &LoginInput{Email: "ghost@example.org", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	resp, err := auth.Login(f.ctx, &LoginInput{Email: "wanjiru@example.org", Password: "password123"})
	require.NoError(t, err)

	actor, err := auth.Authenticate(f.ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, actor.ID)
	assert.True(t, actor.IsLeader())
	assert.Equal(t, zone.ID, actor.ZoneID)

	_, err = auth.Authenticate(f.ctx, "garbage")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	expired, err := jwt.GenerateAccessToken(jwt.Subject{UserID: resp.User.ID, Role: "leader"}, cfg.JWT.Secret, -1)
	require.NoError(t, err)
	_, err = auth.Authenticate(f.ctx, expired)
	assert.Equal(t, ErrTokenExpired, err)

	// tokens of deleted users stop working
	orphan, err := jwt.GenerateAccessToken(jwt.Subject{UserID: "missing", Role: "admin"}, cfg.JWT.Secret, 60)
	require.NoError(t, err)
	_, err = auth.Authenticate(f.ctx, orphan)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestUserService_Profile(t *testing.T) {
	f := newFixture(t)
	users := NewUserService(f.store.Users, zap.NewNop())
	auth := NewAuthService(f.store, testConfig(), zap.NewNop())

	resp, err := auth.Register(f.ctx, &RegisterInput{
		Name: "Admin", Email: "admin@example.org", Password: "password123", PhoneNumber: "1", Role: "admin", AdminCode: "let-me-in",
	})
	require.NoError(t, err)
	actor := domain.Actor{ID: resp.User.ID, Role: domain.RoleAdmin}

	u, err := users.UpdateProfile(f.ctx, actor, &UpdateProfileInput{Name: ptr("Chief")})
	require.NoError(t, err)
	assert.Equal(t, "Chief", u.Name)

	_, err = users.UpdateProfile(f.ctx, actor, &UpdateProfileInput{Name: ptr("Chief")})
	assert.ErrorIs(t, err, domain.ErrNoOp)

	err = users.ChangePassword(f.ctx, actor, &ChangePasswordInput{OldPassword: "wrong-one", NewPassword: "newpassword1"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, users.ChangePassword(f.ctx, actor, &ChangePasswordInput{OldPassword: "password123", NewPassword: "newpassword1"}))
	_, err = auth.Login(f.ctx, &LoginInput{Email: "admin@example.org", Password: "newpassword1"})
	assert.NoError(t, err)
}
