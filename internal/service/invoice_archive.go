package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	maxInvoiceSize     = 10 * 1024 * 1024 // 10 MB
	invoicePathPrefix  = "invoices"
	invoiceURLValidity = 15 * time.Minute
)

var ErrInvoiceTooBig = errors.New("invoice exceeds 10MB limit")

// InvoiceArchiver mirrors provider-hosted invoices into object storage so
// the back-office keeps a copy after the hosted URL rotates. All calls are
// best-effort from the webhook processor's perspective.
type InvoiceArchiver interface {
	ArchiveInvoice(ctx context.Context, orderID, invoiceURL string) (string, error)
	InvoiceDownloadURL(ctx context.Context, objectKey string) (string, error)
}

// MinIOInvoiceArchiver implements InvoiceArchiver over S3-compatible storage.
type MinIOInvoiceArchiver struct {
	client     *minio.Client
	bucketName string
	httpClient *http.Client
}

func NewMinIOInvoiceArchiver(endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*MinIOInvoiceArchiver, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}
	a := &MinIOInvoiceArchiver{
		client:     client,
		bucketName: bucketName,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	if err := a.ensureBucket(context.Background()); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *MinIOInvoiceArchiver) ensureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucketName)
	if err != nil {
		return fmt.Errorf("check invoice bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucketName, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create invoice bucket: %w", err)
	}
	return nil
}

func (a *MinIOInvoiceArchiver) ArchiveInvoice(ctx context.Context, orderID, invoiceURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, invoiceURL, nil)
	if err != nil {
		return "", fmt.Errorf("build invoice request: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download invoice for order %s: %w", orderID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download invoice for order %s: status %d", orderID, resp.StatusCode)
	}
	if resp.ContentLength > maxInvoiceSize {
		return "", ErrInvoiceTooBig
	}

	objectKey := fmt.Sprintf("%s/%s.pdf", invoicePathPrefix, orderID)
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/pdf"
	}
	_, err = a.client.PutObject(ctx, a.bucketName, objectKey,
		io.LimitReader(resp.Body, maxInvoiceSize), resp.ContentLength,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("store invoice for order %s: %w", orderID, err)
	}
	return objectKey, nil
}

func (a *MinIOInvoiceArchiver) InvoiceDownloadURL(ctx context.Context, objectKey string) (string, error) {
	presigned, err := a.client.PresignedGetObject(ctx, a.bucketName, objectKey, invoiceURLValidity, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign invoice url: %w", err)
	}
	return presigned.String(), nil
}

// NoopInvoiceArchiver is used when object storage is not configured.
type NoopInvoiceArchiver struct{}

func (NoopInvoiceArchiver) ArchiveInvoice(context.Context, string, string) (string, error) {
	return "", nil
}

func (NoopInvoiceArchiver) InvoiceDownloadURL(context.Context, string) (string, error) {
	return "", nil
}
