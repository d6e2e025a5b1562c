package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/YmidOrtega/Clinica-sub000/internal/auth/service TokenGenerator

import (
	"context"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/YmidOrtega/Clinica-sub000/internal/auth/domain"
	autherror "github.com/YmidOrtega/Clinica-sub000/internal/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const clockSkewLeeway = 10 * time.Second

type TokenGenerator interface {
	Generate(account *domain.Account) (*IssuedPair, error)
	VerifyAccessToken(ctx context.Context, tokenString string) (*JWTCustomClaims, error)
	VerifyRefreshToken(tokenString string) (*JWTCustomClaims, error)
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	PublicKeyDER() ([]byte, error)
}

// IssuedPair is one freshly signed access/refresh pair.
type IssuedPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

type JWTCustomClaims struct {
	jwt.RegisteredClaims
	TokenType string `json:"type"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
}

// TokenService signs and verifies both token kinds with one RS256 keypair.
// Verification of access tokens additionally consults the revocation store;
// a store error rejects the token rather than letting it through.
type TokenService struct {
	privateKey         *rsa.PrivateKey
	publicKey          *rsa.PublicKey
	issuer             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	revocations        domain.RevocationStore
}

func NewTokenService(privateKey *rsa.PrivateKey, issuer string, accessTTL, refreshTTL time.Duration,
	revocations domain.RevocationStore) *TokenService {
	return &TokenService{
		privateKey:         privateKey,
		publicKey:          &privateKey.PublicKey,
		issuer:             issuer,
		AccessTokenExpiry:  accessTTL,
		RefreshTokenExpiry: refreshTTL,
		revocations:        revocations,
	}
}

// NewTokenServiceFromFiles loads the RS256 keypair from PEM files.
func NewTokenServiceFromFiles(privateKeyFile, publicKeyFile, issuer string, accessTTL, refreshTTL time.Duration,
	revocations domain.RevocationStore) (*TokenService, error) {
	privateKeyBytes, err := os.ReadFile(privateKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSA private key: %w", err)
	}

	publicKeyBytes, err := os.ReadFile(publicKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key file: %w", err)
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSA public key: %w", err)
	}

	ts := NewTokenService(privateKey, issuer, accessTTL, refreshTTL, revocations)
	ts.publicKey = publicKey

	return ts, nil
}

func (ts *TokenService) Generate(account *domain.Account) (*IssuedPair, error) {
	now := time.Now()
	accessExpiresAt := now.Add(ts.AccessTokenExpiry)
	refreshExpiresAt := now.Add(ts.RefreshTokenExpiry)

	accessClaims := JWTCustomClaims{
		TokenType: "access",
		Email:     account.Email,
		Role:      account.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.PublicID,
			Issuer:    ts.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExpiresAt),
		},
	}

	refreshClaims := JWTCustomClaims{
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.PublicID,
			Issuer:    ts.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExpiresAt),
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodRS256, accessClaims).SignedString(ts.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodRS256, refreshClaims).SignedString(ts.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &IssuedPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// VerifyAccessToken checks signature, issuer, expiry, the type claim and
// finally the revocation store, in that order.
func (ts *TokenService) VerifyAccessToken(ctx context.Context, tokenString string) (*JWTCustomClaims, error) {
	claims, err := ts.parse(tokenString, "access")
	if err != nil {
		return nil, err
	}

	revoked, err := ts.revocations.Contains(ctx, HashToken(tokenString))
	if err != nil {
		// Fail closed: an unreachable revocation store rejects the token.
		// The distinct reason keeps logout from mistaking the outage for
		// an already-blacklisted token.
		return nil, autherror.NewInvalidToken(autherror.ReasonStoreUnavailable)
	}
	if revoked {
		return nil, autherror.NewInvalidToken(autherror.ReasonBlacklisted)
	}

	return claims, nil
}

func (ts *TokenService) VerifyRefreshToken(tokenString string) (*JWTCustomClaims, error) {
	return ts.parse(tokenString, "refresh")
}

func (ts *TokenService) parse(tokenString, expectedType string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ts.publicKey, nil
	}, jwt.WithIssuer(ts.issuer), jwt.WithLeeway(clockSkewLeeway))

	if err != nil {
		return nil, autherror.NewInvalidToken(classifyParseError(err))
	}

	if !token.Valid {
		return nil, autherror.NewInvalidToken(autherror.ReasonMalformed)
	}

	if claims.TokenType != expectedType {
		return nil, autherror.NewInvalidToken(autherror.ReasonWrongType)
	}

	return claims, nil
}

func classifyParseError(err error) autherror.TokenFailureReason {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return autherror.ReasonExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return autherror.ReasonSignature
	default:
		return autherror.ReasonMalformed
	}
}

func (ts *TokenService) GetAccessTokenExpiry() time.Duration {
	return ts.AccessTokenExpiry
}

func (ts *TokenService) GetRefreshTokenExpiry() time.Duration {
	return ts.RefreshTokenExpiry
}

// PublicKeyDER returns the verification key in DER form for the public-key
// endpoint.
func (ts *TokenService) PublicKeyDER() ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(ts.publicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}

	return der, nil
}

// HashToken reduces a token to the value stored in the ledger and the
// revocation store; raw tokens never touch either.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
