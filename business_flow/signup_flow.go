package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/smiletrip/smiletrip/app/dto"
	"github.com/smiletrip/smiletrip/app/services"
	"github.com/smiletrip/smiletrip/models"
	"github.com/smiletrip/smiletrip/repository"
	"github.com/smiletrip/smiletrip/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SignupFlow handles the user registration workflow
type SignupFlow interface {
	Signup(ctx context.Context, request *dto.SignupRequest, metadata *ClientMetadata) (*dto.SignupResponse, error)
}

// SignupFlowImpl implements the signup business flow
type SignupFlowImpl struct {
	customerRepo        repository.CustomerRepository
	sessionRepo         repository.CustomerSessionRepository
	auditRepo           repository.AuditLogRepository
	tokenService        services.TokenService
	notificationService services.NotificationService
	db                  *gorm.DB
}

// NewSignupFlow creates a new signup flow instance
func NewSignupFlow(
	customerRepo repository.CustomerRepository,
	sessionRepo repository.CustomerSessionRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
	notificationService services.NotificationService,
	db *gorm.DB,
) SignupFlow {
	return &SignupFlowImpl{
		customerRepo:        customerRepo,
		sessionRepo:         sessionRepo,
		auditRepo:           auditRepo,
		tokenService:        tokenService,
		notificationService: notificationService,
		db:                  db,
	}
}

// Signup registers a new patient account and opens its first session
func (sf *SignupFlowImpl) Signup(ctx context.Context, request *dto.SignupRequest, metadata *ClientMetadata) (*dto.SignupResponse, error) {
	var customer *models.Customer

	resp, err := sf.withSignupTransaction(ctx, func(ctx context.Context) (*dto.SignupResponse, error) {
		email := strings.ToLower(strings.TrimSpace(request.Email))

		existing, err := sf.customerRepo.ByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrEmailAlreadyExists
		}

		passwordHash, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}

		customer = &models.Customer{
			AccountType:  models.AccountTypePatient,
			FirstName:    strings.TrimSpace(request.FirstName),
			LastName:     strings.TrimSpace(request.LastName),
			Email:        email,
			Mobile:       request.Mobile,
			Country:      request.Country,
			PasswordHash: string(passwordHash),
			IsActive:     utils.ToPtr(true),
		}

		if err := sf.customerRepo.Save(ctx, customer); err != nil {
			return nil, err
		}

		session, err := sf.createSession(ctx, customer.ID, metadata)
		if err != nil {
			return nil, err
		}

		return &dto.SignupResponse{
			Message:  "Account created successfully",
			Customer: ToAuthCustomerDTO(*customer),
			Session:  ToCustomerSessionDTO(*session),
		}, nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Signup failed: %s", err.Error())
		_ = sf.logSignupEvent(ctx, customer, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("SIGNUP_FAILED", "Signup failed", err)
	}

	// Welcome email is best-effort, a delivery failure must not fail the signup.
	_ = sf.notificationService.SendEmail(
		resp.Customer.Email,
		"Welcome to SmileTrip",
		fmt.Sprintf("Hi %s, your account is ready. Browse clinics and build your first treatment quote.", resp.Customer.FirstName),
	)

	msg := fmt.Sprintf("Account created: %d", resp.Customer.ID)
	_ = sf.logSignupEvent(ctx, customer, msg, true, nil, metadata)

	return resp, nil
}

func (sf *SignupFlowImpl) createSession(ctx context.Context, customerID uint, metadata *ClientMetadata) (*models.CustomerSession, error) {
	lf := &LoginFlowImpl{
		customerRepo: sf.customerRepo,
		sessionRepo:  sf.sessionRepo,
		auditRepo:    sf.auditRepo,
		tokenService: sf.tokenService,
		db:           sf.db,
	}
	return lf.CreateSession(ctx, customerID, metadata)
}

func (sf *SignupFlowImpl) logSignupEvent(ctx context.Context, customer *models.Customer, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
	var customerID *uint
	if customer != nil && customer.ID != 0 {
		customerID = &customer.ID
	}

	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		CustomerID:   customerID,
		Action:       models.AuditActionSignupCompleted,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errMsg,
	}

	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return sf.auditRepo.Save(ctx, audit)
}

func (sf *SignupFlowImpl) withSignupTransaction(ctx context.Context, fn func(context.Context) (*dto.SignupResponse, error)) (*dto.SignupResponse, error) {
	var result *dto.SignupResponse
	var fnErr error

	err := repository.WithTransaction(ctx, sf.db, func(ctx context.Context) error {
		result, fnErr = fn(ctx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}
	return result, fnErr
}
