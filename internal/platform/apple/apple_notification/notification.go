// Package apple_notification verifies App Store Server Notifications (V2).
// The signedPayload is a JWS whose x5c header chains to the Apple root CA G3.
package apple_notification

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt"
)

const appleRootCAG3RootPem = `-----BEGIN CERTIFICATE-----
MIICQzCCAcmgAwIBAgIILcX8iNLFS5UwCgYIKoZIzj0EAwMwZzEbMBkGA1UEAwwS
QXBwbGUgUm9vdCBDQSAtIEczMSYwJAYDVQQLDB1BcHBsZSBDZXJ0aWZpY2F0aW9u
IEF1dGhvcml0eTETMBEGA1UECgwKQXBwbGUgSW5jLjELMAkGA1UEBhMCVVMwHhcN
MTQwNDMwMTgxOTA2WhcNMzkwNDMwMTgxOTA2WjBnMRswGQYDVQQDDBJBcHBsZSBS
b290IENBIC0gRzMxJjAkBgNVBAsMHUFwcGxlIENlcnRpZmljYXRpb24gQXV0aG9y
aXR5MRMwEQYDVQQKDApBcHBsZSBJbmMuMQswCQYDVQQGEwJVUzB2MBAGByqGSM49
AgEGBSuBBAAiA2IABJjpLz1AcqTtkyJygRMc3RCV8cWjTnHcFBbZDuWmBSp3ZHtf
TjjTuxxEtX/1H7YyYl3J6YRbTzBPEVoA/VhYDKX1DyxNB0cTddqXl5dvMVztK517
IDvYuVTZXpmkOlEKMaNCMEAwHQYDVR0OBBYEFLuw3qFYM4iapIqZ3r6966/ayySr
MA8GA1UdEwEB/wQFMAMBAf8wDgYDVR0PAQH/BAQDAgEGMAoGCCqGSM49BAMDA2gA
MGUCMQCD6cHEFl4aXTQY2e3v9GwOAEZLuN+yRhHFD/3meoyhpmvOwgPUnPWTxnS4
at+qIxUCMG1mihDK1A3UT82NQz60imOlM27jbdoXt2QfyFMm+YhidDkLF1vLUagM
6BgD56KyKA==
-----END CERTIFICATE-----`

var ErrMalformedPayload = errors.New("malformed signed payload")

type AppStoreServerRequest struct {
	SignedPayload string `json:"signedPayload"`
}

type NotificationHeader struct {
	Alg string   `json:"alg"`
	X5c []string `json:"x5c"`
}

type NotificationData struct {
	AppAppleID            int64  `json:"appAppleId"`
	BundleID              string `json:"bundleId"`
	BundleVersion         string `json:"bundleVersion"`
	Environment           string `json:"environment"`
	SignedTransactionInfo string `json:"signedTransactionInfo"`
	SignedRenewalInfo     string `json:"signedRenewalInfo"`
	Status                int    `json:"status"`
}

type NotificationPayload struct {
	jwt.StandardClaims
	NotificationType string           `json:"notificationType"`
	Subtype          string           `json:"subtype"`
	NotificationUUID string           `json:"notificationUUID"`
	Version          string           `json:"version"`
	SignedDate       int64            `json:"signedDate"`
	Data             NotificationData `json:"data"`
}

func (p *NotificationPayload) IsTest() bool { return p.NotificationType == "TEST" }

func (p *NotificationPayload) IsSandbox() bool { return p.Data.Environment == "Sandbox" }

// TransactionInfo is the subset of a decoded signedTransactionInfo this
// service reads.
type TransactionInfo struct {
	jwt.StandardClaims
	TransactionID         string `json:"transactionId"`
	OriginalTransactionID string `json:"originalTransactionId"`
	ProductID             string `json:"productId"`
	BundleID              string `json:"bundleId"`
}

// Verifier checks signed payloads against a pinned root certificate.
type Verifier struct {
	rootPEM string
}

func NewVerifier() *Verifier {
	return &Verifier{rootPEM: appleRootCAG3RootPem}
}

// NewVerifierWithRoot pins a different root, used for test chains.
func NewVerifierWithRoot(rootPEM string) *Verifier {
	return &Verifier{rootPEM: rootPEM}
}

// Verify checks the x5c chain and the ES256 signature of signedPayload and
// returns its decoded claims.
func (v *Verifier) Verify(signedPayload string) (*NotificationPayload, error) {
	if err := v.verifyChain(signedPayload); err != nil {
		return nil, err
	}
	payload := &NotificationPayload{}
	_, err := jwt.ParseWithClaims(signedPayload, payload, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return extractPublicKey(signedPayload)
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// DecodeUnverified decodes claims without checking signatures. Only for
// environments where verification is explicitly bypassed.
func DecodeUnverified(signed string, claims jwt.Claims) error {
	if _, _, err := new(jwt.Parser).ParseUnverified(signed, claims); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

func extractHeaderCert(payload string, index int) ([]byte, error) {
	parts := strings.Split(payload, ".")
	if len(parts) != 3 {
		return nil, ErrMalformedPayload
	}
	headerByte, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	var header NotificationHeader
	if err := json.Unmarshal(headerByte, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if index >= len(header.X5c) {
		return nil, fmt.Errorf("%w: x5c has %d certificates", ErrMalformedPayload, len(header.X5c))
	}
	return base64.StdEncoding.DecodeString(header.X5c[index])
}

func (v *Verifier) verifyChain(payload string) error {
	leafByte, err := extractHeaderCert(payload, 0)
	if err != nil {
		return err
	}
	intermediateByte, err := extractHeaderCert(payload, 1)
	if err != nil {
		return err
	}

	roots := x509.NewCertPool()
	if !roots.AppendCertsFromPEM([]byte(v.rootPEM)) {
		return errors.New("root certificate couldn't be parsed")
	}
	interCert, err := x509.ParseCertificate(intermediateByte)
	if err != nil {
		return errors.New("intermediate certificate couldn't be parsed")
	}
	intermediates := x509.NewCertPool()
	intermediates.AddCert(interCert)

	leaf, err := x509.ParseCertificate(leafByte)
	if err != nil {
		return err
	}
	_, err = leaf.Verify(x509.VerifyOptions{Roots: roots, Intermediates: intermediates})
	return err
}

func extractPublicKey(payload string) (*ecdsa.PublicKey, error) {
	certByte, err := extractHeaderCert(payload, 0)
	if err != nil {
		return nil, err
	}
	cert, err := x509.ParseCertificate(certByte)
	if err != nil {
		return nil, err
	}
	pk, ok := cert.PublicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("appstore public key must be of type ecdsa.PublicKey")
	}
	return pk, nil
}
