// Package testing provides test utilities and database setup for testing the booking platform
package testing

import (
	"encoding/base64"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smiletrip/smiletrip/models"
	"github.com/smiletrip/smiletrip/utils"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestCustomer creates a test customer with the specified account type
func (tf *TestFixtures) CreateTestCustomer(accountType string) (*models.Customer, error) {
	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("TestPass123!"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	randomDigits := fmt.Sprintf("%09d", rand.Intn(900000000)+100000000)
	mobile := fmt.Sprintf("+447%s", randomDigits)
	country := "United Kingdom"

	customer := &models.Customer{
		AccountType:     accountType,
		FirstName:       "John",
		LastName:        "Doe",
		Mobile:          &mobile,
		Email:           fmt.Sprintf("john.doe.%s.%s@example.com", accountType, randomDigits),
		PasswordHash:    string(hashedPassword),
		Country:         &country,
		IsActive:        utils.ToPtr(true),
		IsEmailVerified: utils.ToPtr(false),
	}

	err = tf.DB.DB.Create(customer).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test customer: %w", err)
	}

	return customer, nil
}

// CreateTestClinicStaff creates a clinic staff customer scoped to the given clinic
func (tf *TestFixtures) CreateTestClinicStaff(clinicID uint) (*models.Customer, error) {
	staff, err := tf.CreateTestCustomer(models.AccountTypeClinicStaff)
	if err != nil {
		return nil, err
	}

	staff.ClinicID = &clinicID
	if err := tf.DB.DB.Save(staff).Error; err != nil {
		return nil, fmt.Errorf("failed to assign clinic to staff customer: %w", err)
	}

	return staff, nil
}

// CreateTestClinic creates a test clinic with the given pricing tier
func (tf *TestFixtures) CreateTestClinic(tier string) (*models.Clinic, error) {
	clinic := &models.Clinic{
		Name:     fmt.Sprintf("Test Clinic %d", rand.Intn(100000)),
		Tier:     tier,
		City:     "Antalya",
		Country:  "Turkey",
		IsActive: utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(clinic).Error; err != nil {
		return nil, fmt.Errorf("failed to create test clinic: %w", err)
	}

	return clinic, nil
}

// CreateTestTreatment creates a catalog treatment with the same GBP base
// price on every tier so tests don't depend on tier arithmetic.
func (tf *TestFixtures) CreateTestTreatment(key string, priceGBP decimal.Decimal) (*models.Treatment, error) {
	treatment := &models.Treatment{
		Key:                key,
		Category:           "Implants",
		Guarantee:          "5 years",
		PriceAffordableGBP: priceGBP,
		PriceMidGBP:        priceGBP,
		PricePremiumGBP:    priceGBP,
		UKPriceGBP:         priceGBP.Mul(decimal.NewFromInt(3)),
		IsActive:           utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(treatment).Error; err != nil {
		return nil, fmt.Errorf("failed to create test treatment %s: %w", key, err)
	}

	return treatment, nil
}

// CreateTestPackage creates a fixed-price bundle for the clinic. Items map
// treatment keys to quantities.
func (tf *TestFixtures) CreateTestPackage(clinicID uint, bundlePriceGBP decimal.Decimal, items map[string]int) (*models.TreatmentPackage, error) {
	pkg := &models.TreatmentPackage{
		ClinicID:       clinicID,
		Name:           fmt.Sprintf("Test Package %d", rand.Intn(100000)),
		BundlePriceGBP: bundlePriceGBP,
		IsActive:       utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(pkg).Error; err != nil {
		return nil, fmt.Errorf("failed to create test package: %w", err)
	}

	position := 0
	for key, quantity := range items {
		item := &models.TreatmentPackageItem{
			PackageID:    pkg.ID,
			TreatmentKey: key,
			Quantity:     quantity,
			Position:     position,
		}
		if err := tf.DB.DB.Create(item).Error; err != nil {
			return nil, fmt.Errorf("failed to create test package item %s: %w", key, err)
		}
		pkg.Items = append(pkg.Items, *item)
		position++
	}

	return pkg, nil
}

// CreateTestOffer creates an active clinic offer. An empty applicable list
// means the offer discounts the whole quote subtotal.
func (tf *TestFixtures) CreateTestOffer(clinicID uint, discountType string, discountValue decimal.Decimal, applicable []string) (*models.SpecialOffer, error) {
	if applicable == nil {
		applicable = []string{}
	}
	offer := &models.SpecialOffer{
		ClinicID:             clinicID,
		Title:                fmt.Sprintf("Test Offer %d", rand.Intn(100000)),
		DiscountType:         discountType,
		DiscountValue:        discountValue,
		ApplicableTreatments: applicable,
		ValidFrom:            utils.ToPtr(utils.UTCNowAdd(-24 * time.Hour)),
		ValidUntil:           utils.ToPtr(utils.UTCNowAdd(30 * 24 * time.Hour)),
		IsActive:             utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(offer).Error; err != nil {
		return nil, fmt.Errorf("failed to create test offer: %w", err)
	}

	return offer, nil
}

// CreateTestPromoCode creates an active promo code. maxUses of 0 means unlimited.
func (tf *TestFixtures) CreateTestPromoCode(code, discountType string, discountValue decimal.Decimal, maxUses int) (*models.PromoCode, error) {
	promo := &models.PromoCode{
		Code:          code,
		DiscountType:  discountType,
		DiscountValue: discountValue,
		MaxUses:       maxUses,
		UsedCount:     0,
		IsActive:      utils.ToPtr(true),
		ExpiresAt:     utils.ToPtr(utils.UTCNowAdd(30 * 24 * time.Hour)),
	}

	if err := tf.DB.DB.Create(promo).Error; err != nil {
		return nil, fmt.Errorf("failed to create test promo code %s: %w", code, err)
	}

	return promo, nil
}

func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// CreateTestSession creates a test customer session
func (tf *TestFixtures) CreateTestSession(customerID uint) (*models.CustomerSession, error) {
	sessionToken, err := GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate secure session token: %w", err)
	}

	refreshToken, err := GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate secure refresh token: %w", err)
	}

	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	session := &models.CustomerSession{
		CorrelationID: uuid.New(), // Generate new UUID for correlation
		CustomerID:    customerID,
		SessionToken:  sessionToken,
		RefreshToken:  &refreshToken,
		ExpiresAt:     time.Now().Add(24 * time.Hour),
		IsActive:      utils.ToPtr(true),
		IPAddress:     &ipAddress,
		UserAgent:     &userAgent,
	}

	err = tf.DB.DB.Create(session).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test session: %w", err)
	}

	return session, nil
}

// CreateTestAuditLog creates a test audit log entry
func (tf *TestFixtures) CreateTestAuditLog(customerID *uint, action string, success bool) (*models.AuditLog, error) {
	description := fmt.Sprintf("Test %s action", action)
	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	audit := &models.AuditLog{
		CustomerID:  customerID,
		Action:      action,
		Description: &description,
		Success:     &success,
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
	}

	if !success {
		errorMessage := "Test failed action"
		audit.ErrorMessage = &errorMessage
	}

	err := tf.DB.DB.Create(audit).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test audit log: %w", err)
	}

	return audit, nil
}
