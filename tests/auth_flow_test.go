// Package tests contains integration tests for signup and login flows
package tests

import (
	"context"
	"testing"
	"time"

	"github.com/smiletrip/smiletrip/app/dto"
	"github.com/smiletrip/smiletrip/app/services"
	businessflow "github.com/smiletrip/smiletrip/business_flow"
	"github.com/smiletrip/smiletrip/models"
	"github.com/smiletrip/smiletrip/repository"
	testingutil "github.com/smiletrip/smiletrip/testing"
	"github.com/smiletrip/smiletrip/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenService(t *testing.T) services.TokenService {
	t.Helper()
	tokenService, err := services.NewTokenService(
		1*time.Hour, 24*time.Hour, "test-issuer", "test-audience",
		false, "", "", "test-secret-key-for-jwt-signing-only")
	require.NoError(t, err)
	return tokenService
}

func TestAuthFlows(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := context.Background()
		metadata := testMetadata()

		customerRepo := repository.NewCustomerRepository(testDB.DB)
		sessionRepo := repository.NewCustomerSessionRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)
		tokenService := newTokenService(t)
		notificationService := services.NewNotificationService(services.NewMockEmailProvider())

		signupFlow := businessflow.NewSignupFlow(
			customerRepo, sessionRepo, auditRepo, tokenService, notificationService, testDB.DB)
		loginFlow := businessflow.NewLoginFlow(
			customerRepo, sessionRepo, auditRepo, tokenService, testDB.DB)

		t.Run("SignupCreatesPatientWithSession", func(t *testing.T) {
			country := "United Kingdom"
			req := &dto.SignupRequest{
				FirstName:       "Alice",
				LastName:        "Smith",
				Email:           "Alice.Smith@Example.com",
				Country:         &country,
				Password:        "StrongPass123!",
				ConfirmPassword: "StrongPass123!",
			}

			resp, err := signupFlow.Signup(ctx, req, metadata)
			require.NoError(t, err)
			require.NotNil(t, resp)

			// Email is normalized to lower case.
			assert.Equal(t, "alice.smith@example.com", resp.Customer.Email)
			assert.Equal(t, models.AccountTypePatient, resp.Customer.AccountType)
			assert.NotEmpty(t, resp.Session.SessionToken)
			require.NotNil(t, resp.Session.RefreshToken)
			assert.NotEmpty(t, *resp.Session.RefreshToken)
		})

		t.Run("SignupRejectsDuplicateEmail", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer(models.AccountTypePatient)
			require.NoError(t, err)

			req := &dto.SignupRequest{
				FirstName:       "Bob",
				LastName:        "Jones",
				Email:           customer.Email,
				Password:        "StrongPass123!",
				ConfirmPassword: "StrongPass123!",
			}
			_, err = signupFlow.Signup(ctx, req, metadata)
			assert.True(t, businessflow.IsEmailAlreadyExists(err))
		})

		t.Run("LoginSucceedsWithCorrectPassword", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer(models.AccountTypePatient)
			require.NoError(t, err)

			resp, err := loginFlow.Login(ctx, &dto.LoginRequest{
				Email:    customer.Email,
				Password: "TestPass123!",
			}, metadata)
			require.NoError(t, err)

			assert.Equal(t, customer.ID, resp.Customer.ID)
			assert.Equal(t, customer.Email, resp.Customer.Email)
			assert.NotEmpty(t, resp.Session.SessionToken)

			// Last login timestamp is updated.
			fresh, err := customerRepo.ByID(ctx, customer.ID)
			require.NoError(t, err)
			assert.NotNil(t, fresh.LastLoginAt)
		})

		t.Run("LoginRejectsWrongPassword", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer(models.AccountTypePatient)
			require.NoError(t, err)

			_, err = loginFlow.Login(ctx, &dto.LoginRequest{
				Email:    customer.Email,
				Password: "WrongPass123!",
			}, metadata)
			assert.True(t, businessflow.IsIncorrectPassword(err))
		})

		t.Run("LoginRejectsInactiveAccount", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer(models.AccountTypePatient)
			require.NoError(t, err)
			customer.IsActive = utils.ToPtr(false)
			require.NoError(t, testDB.DB.Save(customer).Error)

			_, err = loginFlow.Login(ctx, &dto.LoginRequest{
				Email:    customer.Email,
				Password: "TestPass123!",
			}, metadata)
			assert.True(t, businessflow.IsAccountInactive(err))
		})

		t.Run("RefreshRotatesSession", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer(models.AccountTypePatient)
			require.NoError(t, err)

			login, err := loginFlow.Login(ctx, &dto.LoginRequest{
				Email:    customer.Email,
				Password: "TestPass123!",
			}, metadata)
			require.NoError(t, err)
			require.NotNil(t, login.Session.RefreshToken)

			refreshed, err := loginFlow.RefreshSession(ctx, &dto.RefreshTokenRequest{
				RefreshToken: *login.Session.RefreshToken,
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, customer.ID, refreshed.Customer.ID)
			assert.NotEmpty(t, refreshed.Session.SessionToken)
			assert.NotEqual(t, login.Session.SessionToken, refreshed.Session.SessionToken)
		})

		t.Run("LogoutRevokesSession", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer(models.AccountTypePatient)
			require.NoError(t, err)

			login, err := loginFlow.Login(ctx, &dto.LoginRequest{
				Email:    customer.Email,
				Password: "TestPass123!",
			}, metadata)
			require.NoError(t, err)

			require.NoError(t, loginFlow.Logout(ctx, login.Session.SessionToken, metadata))

			session, err := sessionRepo.BySessionToken(ctx, login.Session.SessionToken)
			require.NoError(t, err)
			if session != nil {
				assert.False(t, utils.IsTrue(session.IsActive))
			}
		})

		return nil
	})
	require.NoError(t, err)
}
