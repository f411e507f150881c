/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
)

// AzureOptions configures an Azure Blob backend
type AzureOptions struct {
	Account    string
	Container  string
	Prefix     string
	AccountKey string

	// Endpoint overrides https://<account>.blob.core.windows.net/, e.g. for Azurite
	Endpoint string
}

// AzureBackend implements Backend for Azure Blob Storage
type AzureBackend struct {
	client        *azblob.Client
	containerName string
	prefix        string
}

// NewAzureBackend creates a new Azure Blob storage backend using a shared key
func NewAzureBackend(opts AzureOptions) (*AzureBackend, error) {
	if opts.Container == "" {
		return nil, fmt.Errorf("Azure container name is required")
	}
	if opts.Account == "" {
		return nil, fmt.Errorf("Azure storage account is required")
	}
	if opts.AccountKey == "" {
		return nil, fmt.Errorf("AZURE_STORAGE_ACCOUNT_KEY is required for account %s", opts.Account)
	}

	serviceURL := opts.Endpoint
	if serviceURL == "" {
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net/", opts.Account)
	}

	cred, err := azblob.NewSharedKeyCredential(opts.Account, opts.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure client: %w", err)
	}

	return &AzureBackend{
		client:        client,
		containerName: opts.Container,
		prefix:        opts.Prefix,
	}, nil
}

func (b *AzureBackend) blobClient(objectPath string) *blob.Client {
	return b.client.ServiceClient().NewContainerClient(b.containerName).NewBlobClient(joinKey(b.prefix, objectPath))
}

func (b *AzureBackend) Write(ctx context.Context, objectPath string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}
	if _, err := b.client.UploadBuffer(ctx, b.containerName, joinKey(b.prefix, objectPath), data, nil); err != nil {
		return fmt.Errorf("failed to upload to Azure Blob: %w", err)
	}
	return nil
}

func (b *AzureBackend) Read(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	key := joinKey(b.prefix, objectPath)
	resp, err := b.client.DownloadStream(ctx, b.containerName, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, b.containerName, key)
		}
		return nil, fmt.Errorf("failed to download from Azure Blob: %w", err)
	}
	return resp.Body, nil
}

func (b *AzureBackend) Delete(ctx context.Context, objectPath string) error {
	_, err := b.client.DeleteBlob(ctx, b.containerName, joinKey(b.prefix, objectPath), nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return fmt.Errorf("failed to delete from Azure Blob: %w", err)
	}
	return nil
}

func (b *AzureBackend) Exists(ctx context.Context, objectPath string) (bool, error) {
	_, err := b.blobClient(objectPath).GetProperties(ctx, nil)
	switch {
	case bloberror.HasCode(err, bloberror.BlobNotFound):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to check blob existence: %w", err)
	}
	return true, nil
}

func (b *AzureBackend) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	fullPrefix := joinKey(b.prefix, prefix)
	pager := b.client.ServiceClient().NewContainerClient(b.containerName).
		NewListBlobsFlatPager(&container.ListBlobsFlatOptions{Prefix: &fullPrefix})

	var objects []ObjectInfo
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list blobs: %w", err)
		}
		for _, item := range page.Segment.BlobItems {
			info := ObjectInfo{Path: trimKey(b.prefix, *item.Name)}
			if p := item.Properties; p != nil {
				if p.LastModified != nil {
					info.LastModified = p.LastModified.Unix()
				}
				if p.ContentLength != nil {
					info.Size = *p.ContentLength
				}
				if len(p.ContentMD5) > 0 {
					info.Checksum = fmt.Sprintf("%x", p.ContentMD5)
				}
			}
			objects = append(objects, info)
		}
	}
	return objects, nil
}

func (b *AzureBackend) GetSize(ctx context.Context, objectPath string) (int64, error) {
	props, err := b.blobClient(objectPath).GetProperties(ctx, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return 0, fmt.Errorf("%w: %s", ErrObjectNotFound, objectPath)
		}
		return 0, fmt.Errorf("failed to get blob properties: %w", err)
	}
	if props.ContentLength == nil {
		return 0, nil
	}
	return *props.ContentLength, nil
}

// Close is a no-op for Azure
func (b *AzureBackend) Close() error {
	return nil
}
