package passkit

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/Naimehossein77/gym-nfc/internal/common"
)

// Signer produces a detached DER-encoded PKCS#7 signature over the
// manifest bytes. The rest of the pipeline only sees success or
// common.ErrSigningFailed.
type Signer interface {
	Sign(manifest []byte) ([]byte, error)
}

// OpenSSLSigner shells out to the openssl binary, the same way passes are
// signed operationally. Error text from the tool is surfaced for
// diagnosis; key material never is.
type OpenSSLSigner struct {
	Material Material

	// Binary overrides the openssl executable path. Empty means "openssl"
	// from PATH.
	Binary string
}

func NewOpenSSLSigner(m Material) *OpenSSLSigner {
	return &OpenSSLSigner{Material: m}
}

func (s *OpenSSLSigner) binary() string {
	if s.Binary != "" {
		return s.Binary
	}
	return "openssl"
}

func (s *OpenSSLSigner) Sign(manifest []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "pass-sign-")
	if err != nil {
		return nil, fmt.Errorf("%w: temp dir: %v", common.ErrSigningFailed, err)
	}
	defer os.RemoveAll(dir)

	manifestPath := filepath.Join(dir, "manifest.json")
	signaturePath := filepath.Join(dir, "signature")

	if err := os.WriteFile(manifestPath, manifest, 0o600); err != nil {
		return nil, fmt.Errorf("%w: write manifest: %v", common.ErrSigningFailed, err)
	}

	cmd := exec.Command(s.binary(), "smime", "-binary", "-sign",
		"-certfile", s.Material.AuthorityPath,
		"-signer", s.Material.CertPath,
		"-inkey", s.Material.KeyPath,
		"-in", manifestPath,
		"-out", signaturePath,
		"-outform", "DER",
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("%w: openssl: %s", common.ErrSigningFailed, stderr.String())
		}
		return nil, fmt.Errorf("%w: openssl: %v", common.ErrSigningFailed, err)
	}

	signature, err := os.ReadFile(signaturePath)
	if err != nil {
		return nil, fmt.Errorf("%w: read signature: %v", common.ErrSigningFailed, err)
	}
	if len(signature) == 0 {
		return nil, fmt.Errorf("%w: openssl produced an empty signature", common.ErrSigningFailed)
	}

	return signature, nil
}
