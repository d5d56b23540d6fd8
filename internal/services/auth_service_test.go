package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/KOLIFAST/backend/internal/models"
	"github.com/KOLIFAST/backend/internal/utils"
	"github.com/KOLIFAST/backend/pkg/logger"
	"github.com/KOLIFAST/backend/pkg/sms"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

type fakeCache struct {
	values   map[string]interface{}
	counters map[string]int64
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		values:   make(map[string]interface{}),
		counters: make(map[string]int64),
	}
}

func (c *fakeCache) Get(_ context.Context, key string, dest interface{}) error {
	value, ok := c.values[key]
	if !ok {
		return fmt.Errorf("key %s not found", key)
	}
	if s, ok := dest.(*string); ok {
		*s = value.(string)
	}
	return nil
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.values[key] = value
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.values, key)
		delete(c.counters, key)
	}
	return nil
}

func (c *fakeCache) Exists(_ context.Context, key string) (bool, error) {
	_, ok := c.values[key]
	return ok, nil
}

func (c *fakeCache) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) (bool, error) {
	if _, ok := c.values[key]; ok {
		return false, nil
	}
	c.values[key] = value
	return true, nil
}

func (c *fakeCache) Increment(_ context.Context, key string) (int64, error) {
	c.counters[key]++
	return c.counters[key], nil
}

func (c *fakeCache) StoreOTP(_ context.Context, phone, code string) error {
	c.values["otp_"+phone] = code
	return nil
}

func (c *fakeCache) GetOTP(_ context.Context, phone string) (string, error) {
	value, ok := c.values["otp_"+phone]
	if !ok {
		return "", fmt.Errorf("otp for %s not found", phone)
	}
	return value.(string), nil
}

func (c *fakeCache) InvalidateOTP(_ context.Context, phone string) error {
	delete(c.values, "otp_"+phone)
	return nil
}

type fakeSMSProvider struct {
	sent    []*sms.SMSRequest
	sendErr error
}

func (p *fakeSMSProvider) SendSMS(_ context.Context, request *sms.SMSRequest) (*sms.SMSResponse, error) {
	if p.sendErr != nil {
		return nil, p.sendErr
	}
	p.sent = append(p.sent, request)
	return &sms.SMSResponse{MessageID: "msg-1", Status: "sent"}, nil
}

func (p *fakeSMSProvider) SendBulkSMS(ctx context.Context, requests []*sms.SMSRequest) ([]*sms.SMSResponse, error) {
	var responses []*sms.SMSResponse
	for _, request := range requests {
		response, err := p.SendSMS(ctx, request)
		if err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}
	return responses, nil
}

func (p *fakeSMSProvider) GetDeliveryStatus(_ context.Context, messageID string) (*sms.DeliveryStatus, error) {
	return &sms.DeliveryStatus{MessageID: messageID, Status: "delivered"}, nil
}

type authFixture struct {
	service AuthService
	cache   *fakeCache
	sms     *fakeSMSProvider
	users   *fakeUserRepo
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	log, err := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: "stdout"})
	require.NoError(t, err)

	cache := newFakeCache()
	provider := &fakeSMSProvider{}
	users := newFakeUserRepo()

	return &authFixture{
		service: NewAuthService(users, cache, provider, testJWTSecret, log),
		cache:   cache,
		sms:     provider,
		users:   users,
	}
}

func TestSendOTP(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	response, err := f.service.SendOTP(ctx, &SendOTPRequest{Phone: "+228 90 11 22 33"})
	require.NoError(t, err)
	assert.Equal(t, "+22890112233", response.Phone, "phone is normalized before storage")
	assert.Equal(t, int64(utils.OTPExpiry.Seconds()), response.ExpiresIn)

	require.Len(t, f.sms.sent, 1)
	assert.Equal(t, "+22890112233", f.sms.sent[0].To)
	assert.Equal(t, "otp", f.sms.sent[0].Type)

	code, err := f.cache.GetOTP(ctx, "+22890112233")
	require.NoError(t, err)
	assert.Contains(t, f.sms.sent[0].Message, code)
}

func TestSendOTPRejectsInvalidPhone(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.service.SendOTP(context.Background(), &SendOTPRequest{Phone: "not-a-phone"})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Empty(t, f.sms.sent)
}

func TestSendOTPRateLimit(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	for i := 0; i < utils.OTPRateLimit; i++ {
		_, err := f.service.SendOTP(ctx, &SendOTPRequest{Phone: "+22890112233"})
		require.NoError(t, err)
	}

	_, err := f.service.SendOTP(ctx, &SendOTPRequest{Phone: "+22890112233"})
	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Len(t, f.sms.sent, utils.OTPRateLimit)
}

func TestVerifyOTPCreatesUserOnFirstLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.service.SendOTP(ctx, &SendOTPRequest{Phone: "+22890112233"})
	require.NoError(t, err)
	code, err := f.cache.GetOTP(ctx, "+22890112233")
	require.NoError(t, err)

	response, err := f.service.VerifyOTP(ctx, &VerifyOTPRequest{
		Phone:    "+22890112233",
		Code:     code,
		FullName: "Kossi Mensah",
		UserType: models.UserTypeDriver,
	})
	require.NoError(t, err)
	assert.True(t, response.IsNew)
	assert.Equal(t, "Kossi Mensah", response.User.FullName)
	assert.Equal(t, models.UserTypeDriver, response.User.UserType)
	assert.True(t, response.User.IsDriver)
	assert.True(t, response.User.IsPhoneVerified)
	assert.NotEmpty(t, response.Tokens.AccessToken)
	assert.NotEmpty(t, response.Tokens.RefreshToken)

	// The code is single use.
	_, err = f.service.VerifyOTP(ctx, &VerifyOTPRequest{Phone: "+22890112233", Code: code})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestVerifyOTPExistingUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	existing := &models.User{
		Phone:           "+22890112233",
		FullName:        "Afi Dotse",
		UserType:        models.UserTypeClient,
		Status:          models.UserStatusActive,
		IsPhoneVerified: true,
	}
	require.NoError(t, f.users.Create(ctx, existing))

	require.NoError(t, f.cache.StoreOTP(ctx, "+22890112233", "123456"))

	response, err := f.service.VerifyOTP(ctx, &VerifyOTPRequest{
		Phone: "+22890112233",
		Code:  "123456",
	})
	require.NoError(t, err)
	assert.False(t, response.IsNew)
	assert.Equal(t, existing.ID, response.User.ID)
}

func TestVerifyOTPWrongCode(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, f.cache.StoreOTP(ctx, "+22890112233", "123456"))

	_, err := f.service.VerifyOTP(ctx, &VerifyOTPRequest{
		Phone: "+22890112233",
		Code:  "654321",
	})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	// The wrong attempt does not burn the stored code.
	_, err = f.service.VerifyOTP(ctx, &VerifyOTPRequest{
		Phone: "+22890112233",
		Code:  "123456",
	})
	require.NoError(t, err)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user := &models.User{
		Phone:    "+22890112233",
		UserType: models.UserTypeClient,
		Status:   models.UserStatusActive,
	}
	require.NoError(t, f.users.Create(ctx, user))

	tokens, err := utils.GenerateTokenPair(user.ID, string(user.UserType), user.Phone, testJWTSecret)
	require.NoError(t, err)

	fresh, err := f.service.RefreshToken(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.AccessToken)

	// After logout the refresh token is revoked.
	require.NoError(t, f.service.Logout(ctx, user.ID.Hex()))
	_, err = f.service.RefreshToken(ctx, tokens.RefreshToken)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestRefreshTokenSuspendedAccount(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user := &models.User{
		Phone:    "+22890112233",
		UserType: models.UserTypeClient,
		Status:   models.UserStatusSuspended,
	}
	require.NoError(t, f.users.Create(ctx, user))

	tokens, err := utils.GenerateTokenPair(user.ID, string(user.UserType), user.Phone, testJWTSecret)
	require.NoError(t, err)

	_, err = f.service.RefreshToken(ctx, tokens.RefreshToken)
	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)
}

func TestRefreshTokenGarbage(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.service.RefreshToken(context.Background(), "not.a.token")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}
