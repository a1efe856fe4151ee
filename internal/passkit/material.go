package passkit

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/Naimehossein77/gym-nfc/internal/common"
)

// Material points at the three PEM files required for signing: the pass
// type certificate, its private key, and the issuing authority (WWDR)
// certificate. Read-only process configuration.
type Material struct {
	CertPath      string
	KeyPath       string
	AuthorityPath string
}

// FileStatus reports one material file for the readiness endpoint.
type FileStatus struct {
	Description string     `json:"description"`
	Path        string     `json:"path"`
	Exists      bool       `json:"exists"`
	Size        int64      `json:"size,omitempty"`
	Modified    *time.Time `json:"modified,omitempty"`
}

func statusFor(path, description string) FileStatus {
	st := FileStatus{Description: description, Path: path}
	info, err := os.Stat(path)
	if err != nil {
		return st
	}
	st.Exists = true
	st.Size = info.Size()
	mod := info.ModTime()
	st.Modified = &mod
	return st
}

// Check reports the state of every material file without failing.
func (m Material) Check() map[string]FileStatus {
	return map[string]FileStatus{
		"pass_cert.pem": statusFor(m.CertPath, "Pass Type Certificate"),
		"pass_key.pem":  statusFor(m.KeyPath, "Pass Type Private Key"),
		"WWDR.pem":      statusFor(m.AuthorityPath, "Authority Certificate"),
	}
}

// Validate returns common.ErrConfigurationMissing naming each absent file.
// A deployment with missing material cannot sign anything, so this is
// fatal configuration, not a per-request failure.
func (m Material) Validate() error {
	var missing []string
	for name, st := range m.Check() {
		if !st.Exists {
			missing = append(missing, fmt.Sprintf("%s (%s)", st.Description, name))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: %s", common.ErrConfigurationMissing, strings.Join(missing, ", "))
	}
	return nil
}
