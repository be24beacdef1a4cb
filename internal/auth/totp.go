package auth

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"
)

// TOTPManager handles second-factor secret generation and code validation.
type TOTPManager struct {
	issuer string // Issuer label embedded in enrollment URIs
}

// NewTOTPManager creates a new TOTP manager.
func NewTOTPManager(issuer string) *TOTPManager {
	return &TOTPManager{issuer: issuer}
}

// GenerateSecret creates a new base32-encoded 160-bit TOTP secret.
func (tm *TOTPManager) GenerateSecret(accountName string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      tm.issuer,
		AccountName: accountName,
		SecretSize:  20, // 160 bits
		Period:      30,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	return key.Secret(), nil
}

// EnrollmentURI builds the otpauth:// URI consumed by authenticator apps.
// Deterministic; no network calls.
func (tm *TOTPManager) EnrollmentURI(secret, accountName string) string {
	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", tm.issuer)

	u := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + tm.issuer + ":" + accountName,
		RawQuery: v.Encode(),
	}
	return u.String()
}

// EnrollmentQR renders the enrollment URI as a PNG data URL for display
// during 2FA setup.
func (tm *TOTPManager) EnrollmentQR(uri string) (string, error) {
	png, err := qrcode.Encode(uri, qrcode.Medium, 200)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// ValidateCode checks a 6-digit code against the secret at the current time
// step, accepting ±1 step for clock drift. A wrong or malformed code returns
// false, never an error.
func (tm *TOTPManager) ValidateCode(secret, code string) bool {
	valid, err := totp.ValidateCustom(code, secret, time.Now(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false
	}
	return valid
}
