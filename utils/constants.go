package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// AccessTokenTTLSeconds is the time-to-live for access tokens in seconds (86400 seconds = 24 hours)
	AccessTokenTTLSeconds = 86400

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour

	// SessionTimeout is the default session timeout (24 hours)
	SessionTimeout = 24 * time.Hour
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Catalog constants
const (
	// CatalogCacheTTL is how long clinic catalog responses stay cached
	CatalogCacheTTL = 10 * time.Minute
)

// Quote and checkout constants
const (
	// GBPCurrency is the platform's pricing currency
	GBPCurrency = "GBP"

	// MaxQuoteItemQuantity caps the quantity of a single treatment line
	MaxQuoteItemQuantity = 32

	// QuoteAbandonAfter is how long a building quote sits untouched before
	// the cleanup job marks it abandoned
	QuoteAbandonAfter = 30 * 24 * time.Hour

	// PaymentRequestExpiry is how long a tokenized payment stays payable
	PaymentRequestExpiry = 30 * time.Minute

	// InvoicePrefix prefixes generated invoice numbers
	InvoicePrefix = "ST"
)
