package support

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Certificate records a gate decision with enough evidence to audit it later.
// When a signing key is available the certificate is signed so downstream
// pipelines can prove the gate actually ran.
type Certificate struct {
	Version         string            `json:"version"`
	GeneratedAtUtc  string            `json:"generatedAtUtc"`
	Mode            string            `json:"mode"`
	Pass            bool              `json:"pass"`
	Status          string            `json:"status"`
	Reason          string            `json:"reason"`
	Blocker         int               `json:"blocker"`
	Critical        int               `json:"critical"`
	Major           int               `json:"major"`
	Minor           int               `json:"minor"`
	Info            int               `json:"info"`
	Scanned         int               `json:"scanned"`
	Policy          PolicyInfo        `json:"policy"`
	EvidenceHashes  map[string]string `json:"evidence_hashes,omitempty"`
	Signature       string            `json:"signature,omitempty"`
	SignatureMethod string            `json:"signature_method,omitempty"`
}

// PolicyInfo states the fixed severity gate so certificate readers do not
// have to know tool defaults.
type PolicyInfo struct {
	FailOn string `json:"fail_on"`
	WarnOn string `json:"warn_on"`
}

func NewCertificate(mode string) Certificate {
	return Certificate{
		Version:        "1.0",
		GeneratedAtUtc: time.Now().UTC().Format(time.RFC3339),
		Mode:           mode,
		Policy: PolicyInfo{
			FailOn: "BLOCKER,CRITICAL",
			WarnOn: "MAJOR",
		},
	}
}

func SignCertificate(cert *Certificate, priv ed25519.PrivateKey) error {
	payload, err := marshalCertPayload(cert)
	if err != nil {
		return err
	}
	sig := ed25519.Sign(priv, payload)
	cert.Signature = base64.StdEncoding.EncodeToString(sig)
	cert.SignatureMethod = "ed25519"
	return nil
}

func VerifyCertificate(cert *Certificate, pub ed25519.PublicKey) (bool, error) {
	if cert.Signature == "" {
		return false, errors.New("missing signature")
	}
	sig, err := base64.StdEncoding.DecodeString(cert.Signature)
	if err != nil {
		return false, err
	}
	payload, err := marshalCertPayload(cert)
	if err != nil {
		return false, err
	}
	return ed25519.Verify(pub, payload, sig), nil
}

// LoadSigningKey reads the ed25519 private key from CODEGATE_SIGNING_PRIVATE_KEY
// or <workspace>/<outDir>/keys/signing_ed25519. Absence is not an error worth
// failing a run for; callers treat it as "emit unsigned".
func LoadSigningKey(workspace, outDir string) (ed25519.PrivateKey, error) {
	if env := os.Getenv("CODEGATE_SIGNING_PRIVATE_KEY"); env != "" {
		return decodePrivateKey(env)
	}
	path := filepath.Join(workspace, outDir, "keys", "signing_ed25519")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decodePrivateKey(string(data))
}

func decodePrivateKey(raw string) (ed25519.PrivateKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty key")
	}
	// A hex seed is also valid base64, so a failed length check falls
	// through instead of returning.
	if b, err := base64.StdEncoding.DecodeString(raw); err == nil {
		if key, err := normalizePrivateKey(b); err == nil {
			return key, nil
		}
	}
	if b, err := hex.DecodeString(raw); err == nil {
		return normalizePrivateKey(b)
	}
	return nil, errors.New("invalid private key format")
}

func normalizePrivateKey(b []byte) (ed25519.PrivateKey, error) {
	if len(b) == ed25519.SeedSize {
		return ed25519.NewKeyFromSeed(b), nil
	}
	if len(b) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(b), nil
	}
	return nil, fmt.Errorf("invalid key length: %d", len(b))
}

func marshalCertPayload(cert *Certificate) ([]byte, error) {
	tmp := *cert
	tmp.Signature = ""
	tmp.SignatureMethod = ""
	return json.Marshal(tmp)
}

func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
