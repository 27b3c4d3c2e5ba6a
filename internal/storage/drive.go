package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/service"
)

// DriveStore keeps documents in Google Drive. Locators are file IDs.
type DriveStore struct {
	service  *drive.Service
	folderID string
}

var _ service.BlobStore = (*DriveStore)(nil)

// NewDriveStore creates a store that uploads into folderID, or the drive root
// when folderID is empty.
func NewDriveStore(svc *drive.Service, folderID string) *DriveStore {
	return &DriveStore{service: svc, folderID: folderID}
}

// Put uploads data as a new file and returns its ID.
func (s *DriveStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}

	file := &drive.File{Name: name}
	if s.folderID != "" {
		file.Parents = []string{s.folderID}
	}

	created, err := s.service.Files.Create(file).
		Media(bytes.NewReader(data)).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}
	return created.Id, nil
}

// Get downloads the content of a file.
func (s *DriveStore) Get(ctx context.Context, locator string) ([]byte, error) {
	if err := validateString(locator, "locator"); err != nil {
		return nil, err
	}

	resp, err := s.service.Files.Get(locator).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return nil, fmt.Errorf("drive file %s: %w", locator, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to download %s: %w", locator, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", locator, err)
	}
	return data, nil
}
