package passkit

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Naimehossein77/gym-nfc/internal/logging"
)

// Bundle file names.
const (
	passFileName      = "pass.json"
	manifestFileName  = "manifest.json"
	signatureFileName = "signature"
)

// staticAssets are copied into the bundle from the asset directory when
// present. A missing asset is logged, not fatal: a pass without a logo is
// ugly but installable.
var staticAssets = []string{"icon.png", "logo.png"}

// Builder assembles and signs pass bundles. Material and asset paths are
// read-only configuration, safe for concurrent Build calls.
type Builder struct {
	material Material
	signer   Signer
	assetDir string
	logger   logging.Logger
}

func NewBuilder(material Material, signer Signer, assetDir string, logger logging.Logger) *Builder {
	return &Builder{
		material: material,
		signer:   signer,
		assetDir: assetDir,
		logger:   logger.With("module", "passkit"),
	}
}

// Material exposes the configured certificate material for status checks.
func (b *Builder) Material() Material {
	return b.material
}

// Build renders the declaration, computes the digest manifest, obtains the
// detached signature, and packages everything into a zip archive. The
// returned bytes are the complete pass, ready to serve with the pkpass
// media type.
func (b *Builder) Build(ctx context.Context, d *Declaration) ([]byte, error) {
	if err := b.material.Validate(); err != nil {
		return nil, err
	}

	passBytes, err := d.render()
	if err != nil {
		return nil, fmt.Errorf("render pass declaration: %w", err)
	}

	files := map[string][]byte{passFileName: passBytes}
	for _, name := range staticAssets {
		path := filepath.Join(b.assetDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			b.logger.Warn(ctx, "static asset missing, skipping", "asset", path)
			continue
		}
		files[name] = data
	}

	manifestBytes, err := renderManifest(files)
	if err != nil {
		return nil, fmt.Errorf("render manifest: %w", err)
	}
	files[manifestFileName] = manifestBytes

	signature, err := b.signer.Sign(manifestBytes)
	if err != nil {
		return nil, err
	}
	files[signatureFileName] = signature

	archive, err := packArchive(files)
	if err != nil {
		return nil, fmt.Errorf("pack archive: %w", err)
	}

	b.logger.Info(ctx, "signed pass built", "bytes", len(archive), "entries", len(files))
	return archive, nil
}

// renderManifest maps every bundle file except the manifest itself to the
// SHA-1 digest of its content. SHA-1 is what the pass format dictates.
// json.Marshal sorts map keys, so identical inputs give identical bytes.
func renderManifest(files map[string][]byte) ([]byte, error) {
	manifest := make(map[string]string, len(files))
	for name, data := range files {
		sum := sha1.Sum(data)
		manifest[name] = hex.EncodeToString(sum[:])
	}
	return json.MarshalIndent(manifest, "", "  ")
}

// packArchive zips the bundle files in sorted name order.
func packArchive(files map[string][]byte) ([]byte, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range names {
		f, err := w.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := f.Write(files[name]); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
