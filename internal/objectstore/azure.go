package objectstore

import (
	"context"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/vistle-sys/vistle/internal/verrors"
)

// AzureConfig describes an Azure Blob Storage container. Exactly one
// of ConnectionString or AccountName+AccountKey must be set.
type AzureConfig struct {
	ConnectionString string
	AccountName      string
	AccountKey       string
	ContainerName    string
}

// AzureBackend implements Backend against Azure Blob Storage, grounded
// on the teacher's internal/storage/azure.go.
type AzureBackend struct {
	client    *azblob.Client
	container string
}

func NewAzureBackend(cfg AzureConfig) (*AzureBackend, error) {
	var client *azblob.Client
	var err error
	switch {
	case cfg.ConnectionString != "":
		client, err = azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	case cfg.AccountKey != "":
		cred, credErr := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
		if credErr != nil {
			return nil, verrors.Wrap(verrors.Incompatible, "objectstore", "NewAzureBackend", "shared key credential", credErr)
		}
		serviceURL := "https://" + cfg.AccountName + ".blob.core.windows.net/"
		client, err = azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	default:
		return nil, verrors.New(verrors.Incompatible, "objectstore", "NewAzureBackend", "no authentication method provided")
	}
	if err != nil {
		return nil, verrors.Wrap(verrors.Incompatible, "objectstore", "NewAzureBackend", "create client", err)
	}
	return &AzureBackend{client: client, container: cfg.ContainerName}, nil
}

func (a *AzureBackend) Type() string { return "azure" }

func (a *AzureBackend) Put(ctx context.Context, key string, data []byte) error {
	_, err := a.client.UploadBuffer(ctx, a.container, key, data, nil)
	if err != nil {
		return verrors.Wrap(verrors.OutOfSpace, "objectstore", "AzureBackend.Put", "key "+key, err)
	}
	return nil
}

func (a *AzureBackend) Get(ctx context.Context, key string) ([]byte, error) {
	blobClient := a.client.ServiceClient().NewContainerClient(a.container).NewBlobClient(key)
	resp, err := blobClient.DownloadStream(ctx, nil)
	if err != nil {
		if isAzureNotFound(err) {
			return nil, verrors.New(verrors.NotFound, "objectstore", "AzureBackend.Get", "key "+key)
		}
		return nil, verrors.Wrap(verrors.Incompatible, "objectstore", "AzureBackend.Get", "key "+key, err)
	}
	body := resp.Body
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, verrors.Wrap(verrors.Corrupt, "objectstore", "AzureBackend.Get", "read body "+key, err)
	}
	return data, nil
}

func (a *AzureBackend) Delete(ctx context.Context, key string) error {
	blobClient := a.client.ServiceClient().NewContainerClient(a.container).NewBlobClient(key)
	_, err := blobClient.Delete(ctx, nil)
	if err != nil {
		return verrors.Wrap(verrors.Incompatible, "objectstore", "AzureBackend.Delete", "key "+key, err)
	}
	return nil
}

func (a *AzureBackend) Exists(ctx context.Context, key string) (bool, error) {
	blobClient := a.client.ServiceClient().NewContainerClient(a.container).NewBlobClient(key)
	_, err := blobClient.GetProperties(ctx, nil)
	if err != nil {
		if isAzureNotFound(err) {
			return false, nil
		}
		return false, verrors.Wrap(verrors.Incompatible, "objectstore", "AzureBackend.Exists", "key "+key, err)
	}
	return true, nil
}

func (a *AzureBackend) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	containerClient := a.client.ServiceClient().NewContainerClient(a.container)
	pager := containerClient.NewListBlobsFlatPager(&azblob.ListBlobsFlatOptions{Prefix: &prefix})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, verrors.Wrap(verrors.Incompatible, "objectstore", "AzureBackend.List", "prefix "+prefix, err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				keys = append(keys, *item.Name)
			}
		}
	}
	return keys, nil
}

func isAzureNotFound(err error) bool {
	return strings.Contains(err.Error(), "BlobNotFound") || strings.Contains(err.Error(), "404")
}
