package google

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// IconFile is one image file in the icons folder.
type IconFile struct {
	ID   string
	Name string
}

// DriveClient mirrors chore icons from a Drive folder to local disk.
type DriveClient struct {
	svc      *drive.Service
	folderID string
}

func NewDriveClient(ctx context.Context, creds *CredentialProvider, folderID string) (*DriveClient, error) {
	ts, err := creds.TokenSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("drive credentials: %w", err)
	}
	svc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &DriveClient{svc: svc, folderID: folderID}, nil
}

// ListIcons returns the image files in the configured folder.
func (c *DriveClient) ListIcons(ctx context.Context) ([]IconFile, error) {
	if c.folderID == "" {
		return nil, fmt.Errorf("icons folder id is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	query := fmt.Sprintf("'%s' in parents and mimeType contains 'image/'", c.folderID)
	resp, err := c.svc.Files.List().
		Q(query).
		Fields("files(id,name,mimeType)").
		OrderBy("name").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list icons: %w", err)
	}

	out := make([]IconFile, 0, len(resp.Files))
	for _, f := range resp.Files {
		out = append(out, IconFile{ID: f.Id, Name: f.Name})
	}
	return out, nil
}

// Download writes the file's content to path.
func (c *DriveClient) Download(ctx context.Context, fileID, path string) error {
	resp, err := c.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return fmt.Errorf("download %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// SyncIconsToLocal downloads folder icons into dir, skipping files that
// already exist. Returns counts of downloaded and skipped files.
func (c *DriveClient) SyncIconsToLocal(ctx context.Context, dir string) (downloaded, skipped int, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, 0, fmt.Errorf("create icons dir: %w", err)
	}

	icons, err := c.ListIcons(ctx)
	if err != nil {
		return 0, 0, err
	}

	for _, icon := range icons {
		local := filepath.Join(dir, icon.Name)
		if _, err := os.Stat(local); err == nil {
			skipped++
			continue
		}
		if err := c.Download(ctx, icon.ID, local); err != nil {
			// One bad file should not stop the mirror.
			continue
		}
		downloaded++
	}
	return downloaded, skipped, nil
}
