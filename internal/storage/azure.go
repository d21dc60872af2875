package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzureFetcher downloads blobs from Azure Blob Storage with shared-key
// authentication.
type AzureFetcher struct {
	client *azblob.Client
}

// NewAzureFetcher creates a fetcher for a storage account.
func NewAzureFetcher(accountName, accountKey string) (*AzureFetcher, error) {
	if accountName == "" || accountKey == "" {
		return nil, fmt.Errorf("Azure account name and key are required")
	}
	cred, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("create shared key credential: %w", err)
	}
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net", accountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create Azure blob client: %w", err)
	}
	return &AzureFetcher{client: client}, nil
}

// Fetch downloads an az://, abfss:// or https blob URI.
func (f *AzureFetcher) Fetch(ctx context.Context, uri string, w io.Writer) error {
	container, key, err := parseAzurePath(uri)
	if err != nil {
		return err
	}
	resp, err := f.client.DownloadStream(ctx, container, key, nil)
	if err != nil {
		return fmt.Errorf("download blob %q: %w", uri, err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("download %q: %w", uri, err)
	}
	return nil
}

// parseAzurePath extracts container and key from an Azure storage URI.
//
//	abfss://container@account.dfs.core.windows.net/path/to/file
//	az://container/path/to/file
//	https://account.blob.core.windows.net/container/path/to/file
func parseAzurePath(path string) (container, key string, err error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", "", fmt.Errorf("parse Azure path %q: %w", path, err)
	}

	switch u.Scheme {
	case "abfss":
		// url.Parse reads the container as userinfo.
		if u.User == nil {
			return "", "", fmt.Errorf("abfss path %q missing container@account component", path)
		}
		container = u.User.Username()
		key = strings.TrimPrefix(u.Path, "/")
	case "az":
		container = u.Host
		key = strings.TrimPrefix(u.Path, "/")
	case "https":
		if !strings.HasSuffix(u.Hostname(), ".blob.core.windows.net") {
			return "", "", fmt.Errorf("unrecognized Azure HTTPS host %q in path %q", u.Host, path)
		}
		container, key, _ = strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	default:
		return "", "", fmt.Errorf("unrecognized Azure path scheme %q in %q", u.Scheme, path)
	}

	if container == "" {
		return "", "", fmt.Errorf("empty container in Azure path %q", path)
	}
	if key == "" {
		return container, "", fmt.Errorf("empty key in Azure path %q", path)
	}
	return container, key, nil
}
