// Package export packages generated bundles into blob storage and prunes
// expired exports.
package export

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/manualsvc/bundler/blobstore"
	"github.com/manualsvc/bundler/bundle"
	"github.com/oklog/ulid/v2"
)

const (
	archiveName = "bundle.zip"

	subprocessDir = "subprocesses"
	formDir       = "forms"
)

func NewPackager(blobs blobstore.Store, logger hclog.Logger, customizers ...func(*PackagerOptions)) (*Packager, error) {
	if blobs == nil {
		return nil, errors.New("blob store is nil")
	}

	options := NewPackagerOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	return &Packager{
		blobs:   blobs,
		logger:  logger.Named("export"),
		options: options,

		now: time.Now,
	}, nil
}

func NewPackagerOptions() PackagerOptions {
	return PackagerOptions{
		LinkExpiry: 24 * time.Hour,
	}
}

type PackagerOptions struct {
	LinkExpiry time.Duration // Lifetime of download links.
}

func (o PackagerOptions) Validate() error {
	if o.LinkExpiry <= 0 {
		return errors.New("link expiry must be positive")
	}
	return nil
}

type Packager struct {
	blobs   blobstore.Store
	logger  hclog.Logger
	options PackagerOptions

	now func() time.Time
}

// Export describes one packaged bundle.
type Export struct {
	Id          string    `json:"id"`
	ServiceKey  string    `json:"serviceKey"`
	ArchivePath string    `json:"archivePath"`
	ArchiveUrl  string    `json:"archiveUrl"`
	FileCount   int       `json:"fileCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Package writes the bundle files and a zip archive below a ULID keyed
// export path. The first failing write aborts the export, a partially
// written folder is left to the retention sweep.
func (p *Packager) Package(ctx context.Context, b bundle.Bundle) (Export, error) {
	id := ulid.MustNew(ulid.Timestamp(p.now()), ulid.DefaultEntropy()).String()
	prefix := exportPrefix(b.Manifest.ServiceKey) + id + "/"

	manifestJson, err := b.ManifestJson()
	if err != nil {
		return Export{}, err
	}

	files := []exportFile{
		{b.MainFileName, b.MainXml},
		{bundle.ManifestFileName, manifestJson},
	}
	for _, subprocess := range b.Subprocesses {
		files = append(files, exportFile{subprocessDir + "/" + subprocess.Name, subprocess.Xml})
	}
	for _, form := range b.Forms {
		files = append(files, exportFile{formDir + "/" + form.FileName, form.Content})
	}

	archive, err := buildArchive(files)
	if err != nil {
		return Export{}, err
	}

	for _, f := range files {
		if err := p.blobs.Put(ctx, prefix+f.path, []byte(f.content)); err != nil {
			return Export{}, fmt.Errorf("failed to export %s: %v", f.path, err)
		}
	}

	archivePath := prefix + archiveName
	if err := p.blobs.Put(ctx, archivePath, archive); err != nil {
		return Export{}, fmt.Errorf("failed to export %s: %v", archiveName, err)
	}

	url, err := p.blobs.SignedUrl(ctx, archivePath, p.options.LinkExpiry)
	if err != nil {
		return Export{}, fmt.Errorf("failed to create download link: %v", err)
	}

	p.logger.Info("bundle exported", "service_key", b.Manifest.ServiceKey, "export_id", id, "files", len(files))

	return Export{
		Id:          id,
		ServiceKey:  b.Manifest.ServiceKey,
		ArchivePath: archivePath,
		ArchiveUrl:  url,
		FileCount:   len(files),
		CreatedAt:   ulid.Time(ulid.MustParse(id).Time()),
	}, nil
}

type exportFile struct {
	path    string
	content string
}

func buildArchive(files []exportFile) ([]byte, error) {
	var buf bytes.Buffer

	w := zip.NewWriter(&buf)
	for _, f := range files {
		entry, err := w.Create(f.path)
		if err != nil {
			return nil, fmt.Errorf("failed to create archive entry %s: %v", f.path, err)
		}
		if _, err := entry.Write([]byte(f.content)); err != nil {
			return nil, fmt.Errorf("failed to write archive entry %s: %v", f.path, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close archive: %v", err)
	}

	return buf.Bytes(), nil
}

func exportPrefix(serviceKey string) string {
	return "exports/" + serviceKey + "/"
}
