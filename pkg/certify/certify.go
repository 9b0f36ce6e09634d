// Package certify issues and verifies signed assessment certificates.
//
// Signing keys are ed25519, derived from an operator secret with
// HKDF-SHA256 so the same secret always yields the same issuer identity.
// The signature covers the RFC 8785 canonical form of the certificate with
// its signature field empty.
package certify

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"
	"golang.org/x/crypto/hkdf"

	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/assessment"
	"github.com/Yatrogenesis/AGI-AEF-Standard/pkg/report"
)

const kdfSalt = "agi-aef-certificate-kdf"

var (
	ErrNotCertifiable = errors.New("certify: audit status does not permit certification")
	ErrEmptySecret    = errors.New("certify: signing secret is empty")
	ErrHashMismatch   = errors.New("certify: result does not match certificate")
	ErrBadSignature   = errors.New("certify: signature verification failed")
	ErrUntrustedKey   = errors.New("certify: certificate signed by a different issuer")
)

// Certificate attests the outcome of one assessment.
type Certificate struct {
	ID                  string    `json:"id"`
	SystemName          string    `json:"system_name"`
	FrameworkVersion    string    `json:"framework_version"`
	CompositeScore      int       `json:"composite_score"`
	LevelClassification string    `json:"level_classification"`
	AuditStatus         string    `json:"audit_status"`
	IssuedAt            time.Time `json:"issued_at"`
	ExpiresAt           string    `json:"expires_at"`
	ContentHash         string    `json:"content_hash"`
	PublicKey           string    `json:"public_key"`
	Signature           string    `json:"signature,omitempty"`
}

// Issuer signs certificates.
type Issuer struct {
	priv  ed25519.PrivateKey
	pub   ed25519.PublicKey
	clock func() time.Time
}

// NewIssuer derives the issuer key from secret. The label separates key
// spaces; issuers with the same secret and label share an identity.
func NewIssuer(secret []byte, label string) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	r := hkdf.New(sha256.New, secret, []byte(kdfSalt), []byte(label))
	seed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(r, seed); err != nil {
		return nil, fmt.Errorf("derive signing key: %w", err)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Issuer{priv: priv, pub: priv.Public().(ed25519.PublicKey), clock: time.Now}, nil
}

// NewEphemeralIssuer creates an issuer with a random key, for development.
func NewEphemeralIssuer() (*Issuer, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &Issuer{priv: priv, pub: pub, clock: time.Now}, nil
}

// WithClock overrides the issue timestamp source.
func (i *Issuer) WithClock(clock func() time.Time) *Issuer {
	i.clock = clock
	return i
}

// PublicKey returns the hex-encoded issuer public key.
func (i *Issuer) PublicKey() string {
	return hex.EncodeToString(i.pub)
}

// Issue signs a certificate for result. Only CERTIFIED and CONDITIONAL
// results are certifiable.
func (i *Issuer) Issue(result *assessment.Result) (*Certificate, error) {
	if !result.AuditStatus.Certifiable() {
		return nil, fmt.Errorf("%w: %s", ErrNotCertifiable, result.AuditStatus)
	}
	hash, err := report.ContentHash(result)
	if err != nil {
		return nil, err
	}

	cert := &Certificate{
		ID:                  uuid.NewString(),
		SystemName:          result.SystemName,
		FrameworkVersion:    result.FrameworkVersion,
		CompositeScore:      result.CompositeScore,
		LevelClassification: result.LevelClassification,
		AuditStatus:         string(result.AuditStatus),
		IssuedAt:            i.clock().UTC().Truncate(time.Second),
		ExpiresAt:           result.NextAssessmentDue,
		ContentHash:         hash,
		PublicKey:           i.PublicKey(),
	}
	msg, err := signingBytes(cert)
	if err != nil {
		return nil, err
	}
	cert.Signature = hex.EncodeToString(ed25519.Sign(i.priv, msg))
	return cert, nil
}

// Verify checks cert against result and also requires that this issuer
// signed it.
func (i *Issuer) Verify(cert *Certificate, result *assessment.Result) error {
	if cert.PublicKey != i.PublicKey() {
		return ErrUntrustedKey
	}
	return Verify(cert, result)
}

// Verify checks the certificate signature against its embedded public key
// and, when result is non-nil, that the certificate describes result.
func Verify(cert *Certificate, result *assessment.Result) error {
	pub, err := hex.DecodeString(cert.PublicKey)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: malformed public key", ErrBadSignature)
	}
	sig, err := hex.DecodeString(cert.Signature)
	if err != nil {
		return fmt.Errorf("%w: malformed signature", ErrBadSignature)
	}
	msg, err := signingBytes(cert)
	if err != nil {
		return err
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), msg, sig) {
		return ErrBadSignature
	}

	if result == nil {
		return nil
	}
	hash, err := report.ContentHash(result)
	if err != nil {
		return err
	}
	if hash != cert.ContentHash {
		return fmt.Errorf("%w: hash %s, certificate %s", ErrHashMismatch, hash, cert.ContentHash)
	}
	return nil
}

func signingBytes(cert *Certificate) ([]byte, error) {
	unsigned := *cert
	unsigned.Signature = ""
	raw, err := json.Marshal(unsigned)
	if err != nil {
		return nil, fmt.Errorf("encode certificate: %w", err)
	}
	return jcs.Transform(raw)
}

// CertificatePath is where the CLI writes the certificate for a report.
func CertificatePath(reportPath string) string {
	ext := filepath.Ext(reportPath)
	return reportPath[:len(reportPath)-len(ext)] + ".cert.json"
}

// Save writes cert as indented JSON.
func Save(cert *Certificate, path string) error {
	data, err := json.MarshalIndent(cert, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Load reads a certificate written by Save.
func Load(path string) (*Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cert Certificate
	if err := json.Unmarshal(data, &cert); err != nil {
		return nil, fmt.Errorf("decode certificate: %w", err)
	}
	return &cert, nil
}
