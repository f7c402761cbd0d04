package supabase

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	storage "github.com/supabase-community/storage-go"
)

type StorageClient struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewStorageClient(supabaseURL, serviceRoleKey, bucket string) (*StorageClient, error) {
	baseURL := supabaseURL
	if len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	client := storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil)

	return &StorageClient{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
	}, nil
}

// UploadArtwork stores a generated image under the project's prefix and
// returns the storage path and public URL.
func (s *StorageClient) UploadArtwork(projectID uuid.UUID, filename string, data []byte, contentType string) (string, string, error) {
	storagePath := fmt.Sprintf("projects/%s/%s", projectID.String(), filename)

	if contentType == "" {
		contentType = "image/png"
	}
	upsert := true
	_, err := s.client.UploadFile(s.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload file: %w", err)
	}

	return storagePath, s.PublicURL(storagePath), nil
}

func (s *StorageClient) PublicURL(storagePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		s.baseURL, s.bucket, storagePath)
}

// CacheBustURL appends a token so a caller observing a just-overwritten
// object is not served the stale CDN copy.
func CacheBustURL(url string) string {
	return fmt.Sprintf("%s?v=%d", url, time.Now().UnixNano())
}

// StoragePath inverts PublicURL. Returns false for URLs outside this bucket.
func (s *StorageClient) StoragePath(url string) (string, bool) {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		url = url[:i]
	}
	prefix := fmt.Sprintf("%s/storage/v1/object/public/%s/", s.baseURL, s.bucket)
	path, ok := strings.CutPrefix(url, prefix)
	if !ok || path == "" {
		return "", false
	}
	return path, true
}

func (s *StorageClient) DeleteFile(storagePath string) error {
	_, err := s.client.RemoveFile(s.bucket, []string{storagePath})
	return err
}

// DeleteProjectFiles removes every object under the project's prefix.
func (s *StorageClient) DeleteProjectFiles(projectID uuid.UUID) error {
	prefix := fmt.Sprintf("projects/%s/", projectID.String())

	files, err := s.client.ListFiles(s.bucket, prefix, storage.FileSearchOptions{
		Limit: 1000,
	})
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	if len(files) > 0 {
		filePaths := make([]string, len(files))
		for i, file := range files {
			filePaths[i] = file.Name
		}
		_, err = s.client.RemoveFile(s.bucket, filePaths)
		if err != nil {
			return fmt.Errorf("failed to delete files: %w", err)
		}
	}

	return nil
}

func (s *StorageClient) DownloadFile(storagePath string) ([]byte, error) {
	data, err := s.client.DownloadFile(s.bucket, storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}

	return data, nil
}
