// Package netx holds small HTTP helpers shared by the admin client.
package netx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// MaxUploadElapsed bounds the retries of one presigned upload.
var MaxUploadElapsed = 30 * time.Second

// UploadToPresignedURL PUTs body to a presigned storage URL. Transport
// failures and 5xx answers are retried; any other non-2xx answer is final.
func UploadToPresignedURL(ctx context.Context, client *http.Client, url, contentType string, body []byte) error {
	if client == nil {
		client = http.DefaultClient
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", contentType)
		req.ContentLength = int64(len(body))

		resp, err := client.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			return struct{}{}, nil
		}
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		uerr := fmt.Errorf("upload failed: %s; body: %s", resp.Status, string(b))
		if resp.StatusCode >= 500 {
			return struct{}{}, uerr
		}
		return struct{}{}, backoff.Permanent(uerr)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(MaxUploadElapsed),
	)
	return err
}
