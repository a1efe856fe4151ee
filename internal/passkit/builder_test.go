package passkit

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Naimehossein77/gym-nfc/internal/common"
	"github.com/Naimehossein77/gym-nfc/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSigner struct {
	signature []byte
	err       error
	signed    [][]byte
}

func (f *fakeSigner) Sign(manifest []byte) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.signed = append(f.signed, manifest)
	return f.signature, nil
}

func writeTestMaterial(t *testing.T) Material {
	t.Helper()
	dir := t.TempDir()
	m := Material{
		CertPath:      filepath.Join(dir, "pass_cert.pem"),
		KeyPath:       filepath.Join(dir, "pass_key.pem"),
		AuthorityPath: filepath.Join(dir, "WWDR.pem"),
	}
	for _, p := range []string{m.CertPath, m.KeyPath, m.AuthorityPath} {
		require.NoError(t, os.WriteFile(p, []byte("-----BEGIN TEST-----\n"), 0o600))
	}
	return m
}

func writeTestAssets(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "icon.png"), []byte("icon-bytes"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"), []byte("logo-bytes"), 0o600))
	return dir
}

func testDeclaration() *Declaration {
	return &Declaration{
		SerialNumber:       "GYM-0007",
		Description:        "Jane Doe",
		OrganizationName:   "Iron Temple Gym",
		PassTypeIdentifier: "pass.com.irontemple.access",
		TeamIdentifier:     "TEAM12345",
		Message:            "ZW5jcnlwdGVkLXBheWxvYWQ=",
	}
}

func unzipAll(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	entries := map[string][]byte{}
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		entries[f.Name] = content
	}
	return entries
}

func TestBuild_BundleStructure(t *testing.T) {
	material := writeTestMaterial(t)
	signer := &fakeSigner{signature: []byte("DER-SIGNATURE")}
	b := NewBuilder(material, signer, writeTestAssets(t), logging.NewNopLogger())

	data, err := b.Build(context.Background(), testDeclaration())
	require.NoError(t, err)

	entries := unzipAll(t, data)

	for _, name := range []string{"pass.json", "manifest.json", "signature", "icon.png", "logo.png"} {
		assert.Contains(t, entries, name)
	}
	assert.Len(t, entries, 5)
	assert.Equal(t, []byte("DER-SIGNATURE"), entries["signature"])

	// every manifest digest matches a SHA-1 recomputation of its entry
	var manifest map[string]string
	require.NoError(t, json.Unmarshal(entries["manifest.json"], &manifest))
	assert.Len(t, manifest, 3)
	for name, digest := range manifest {
		sum := sha1.Sum(entries[name])
		assert.Equal(t, hex.EncodeToString(sum[:]), digest, "digest mismatch for %s", name)
	}
	_, hasManifest := manifest["manifest.json"]
	assert.False(t, hasManifest, "manifest must not digest itself")
	_, hasSignature := manifest["signature"]
	assert.False(t, hasSignature, "signature is produced after the manifest")
}

func TestBuild_DeterministicManifest(t *testing.T) {
	material := writeTestMaterial(t)
	signer := &fakeSigner{signature: []byte("sig")}
	b := NewBuilder(material, signer, writeTestAssets(t), logging.NewNopLogger())

	_, err := b.Build(context.Background(), testDeclaration())
	require.NoError(t, err)
	_, err = b.Build(context.Background(), testDeclaration())
	require.NoError(t, err)

	require.Len(t, signer.signed, 2)
	assert.Equal(t, signer.signed[0], signer.signed[1], "identical inputs must produce identical manifests")
}

func TestBuild_MissingAssetsTolerated(t *testing.T) {
	material := writeTestMaterial(t)
	signer := &fakeSigner{signature: []byte("sig")}
	b := NewBuilder(material, signer, t.TempDir(), logging.NewNopLogger())

	data, err := b.Build(context.Background(), testDeclaration())
	require.NoError(t, err)

	entries := unzipAll(t, data)
	assert.Len(t, entries, 3)

	var manifest map[string]string
	require.NoError(t, json.Unmarshal(entries["manifest.json"], &manifest))
	assert.Len(t, manifest, 1)
}

func TestBuild_MissingMaterialFatal(t *testing.T) {
	material := writeTestMaterial(t)
	require.NoError(t, os.Remove(material.KeyPath))

	signer := &fakeSigner{signature: []byte("sig")}
	b := NewBuilder(material, signer, writeTestAssets(t), logging.NewNopLogger())

	_, err := b.Build(context.Background(), testDeclaration())
	require.ErrorIs(t, err, common.ErrConfigurationMissing)
	assert.Contains(t, err.Error(), "Private Key")
	assert.Empty(t, signer.signed, "signer must not run without complete material")
}

func TestBuild_SignerFailureSurfaced(t *testing.T) {
	material := writeTestMaterial(t)
	signer := &fakeSigner{err: errors.New("openssl exploded")}
	b := NewBuilder(material, signer, writeTestAssets(t), logging.NewNopLogger())

	_, err := b.Build(context.Background(), testDeclaration())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openssl exploded")
}

func TestMaterial_Check(t *testing.T) {
	material := writeTestMaterial(t)
	require.NoError(t, os.Remove(material.AuthorityPath))

	status := material.Check()
	require.Len(t, status, 3)

	assert.True(t, status["pass_cert.pem"].Exists)
	assert.Greater(t, status["pass_cert.pem"].Size, int64(0))
	assert.NotNil(t, status["pass_cert.pem"].Modified)

	assert.False(t, status["WWDR.pem"].Exists)
	assert.Nil(t, status["WWDR.pem"].Modified)
}

func TestOpenSSLSigner_MissingBinary(t *testing.T) {
	material := writeTestMaterial(t)
	s := NewOpenSSLSigner(material)
	s.Binary = filepath.Join(t.TempDir(), "no-such-openssl")

	_, err := s.Sign([]byte(`{}`))
	require.ErrorIs(t, err, common.ErrSigningFailed)
}

func TestDeclaration_RenderGeneratesSerial(t *testing.T) {
	d := testDeclaration()
	d.SerialNumber = ""

	data, err := d.render()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.NotEmpty(t, doc["serialNumber"])
	assert.Equal(t, float64(1), doc["formatVersion"])
}
