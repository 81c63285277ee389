// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/smiletrip/smiletrip/app/dto"
	"github.com/smiletrip/smiletrip/models"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all client-related information for audit logging and session tracking
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	DeviceInfo map[string]string `json:"device_info,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		DeviceInfo: make(map[string]string),
		Additional: make(map[string]string),
	}
}

// AddDeviceInfo adds device information to the metadata
func (cm *ClientMetadata) AddDeviceInfo(key, value string) {
	if cm.DeviceInfo == nil {
		cm.DeviceInfo = make(map[string]string)
	}
	cm.DeviceInfo[key] = value
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// SetSessionID sets the session ID
func (cm *ClientMetadata) SetSessionID(sessionID string) {
	cm.SessionID = sessionID
}

// ToAuthCustomerDTO converts a customer model to AuthCustomerDTO for authentication responses
func ToAuthCustomerDTO(customer models.Customer) dto.AuthCustomerDTO {
	return dto.AuthCustomerDTO{
		ID:              customer.ID,
		UUID:            customer.UUID.String(),
		Email:           customer.Email,
		FirstName:       customer.FirstName,
		LastName:        customer.LastName,
		AccountType:     customer.AccountType,
		ClinicID:        customer.ClinicID,
		IsActive:        customer.IsActive,
		IsEmailVerified: customer.IsEmailVerified,
		CreatedAt:       customer.CreatedAt.Format(time.RFC3339),
	}
}

func ToCustomerSessionDTO(session models.CustomerSession) dto.CustomerSessionDTO {
	return dto.CustomerSessionDTO{
		SessionToken: session.SessionToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    int(time.Until(session.ExpiresAt).Seconds()),
		TokenType:    "Bearer",
		CreatedAt:    session.CreatedAt.Format(time.RFC3339),
	}
}

// ToQuoteDTO converts a persisted quote and its items to the response shape
func ToQuoteDTO(quote *models.Quote) dto.QuoteDTO {
	out := dto.QuoteDTO{
		UUID:              quote.UUID.String(),
		ClinicID:          quote.ClinicID,
		Status:            quote.Status,
		SubtotalGBP:       quote.SubtotalGBP,
		SubtotalUSD:       quote.SubtotalUSD,
		OfferDiscountGBP:  quote.OfferDiscountGBP,
		PromoDiscountGBP:  quote.PromoDiscountGBP,
		PackageSavingsGBP: quote.PackageSavingsGBP,
		DiscountGBP:       quote.DiscountGBP,
		TotalGBP:          quote.TotalGBP,
		TotalUSD:          quote.TotalUSD,
		USDRate:           quote.USDRate,
		PackageID:         quote.PackageID,
		SpecialOfferID:    quote.SpecialOfferID,
		PromoCode:         quote.PromoCode,
		CreatedAt:         quote.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         quote.UpdatedAt.Format(time.RFC3339),
	}

	out.Items = make([]dto.QuoteItemDTO, 0, len(quote.Items))
	for _, item := range quote.Items {
		out.Items = append(out.Items, dto.QuoteItemDTO{
			Name:                 item.Name,
			Quantity:             item.Quantity,
			Guarantee:            item.Guarantee,
			UnitPriceGBP:         item.UnitPriceGBP,
			UnitPriceUSD:         item.UnitPriceUSD,
			SubtotalGBP:          item.SubtotalGBP,
			SubtotalUSD:          item.SubtotalUSD,
			OriginalUnitPriceGBP: item.OriginalUnitPriceGBP,
			IsLocked:             item.IsLocked,
			IsBonus:              item.IsBonus,
			IsSpecialOffer:       item.IsSpecialOffer,
			IsPackageItem:        item.IsPackageItem,
			SpecialOfferID:       item.SpecialOfferID,
			PackageID:            item.PackageID,
		})
	}

	return out
}
