package cli

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/vehiclefeed/internal/client/client"
	"github.com/dmitrijs2005/vehiclefeed/internal/filex"
	"github.com/dmitrijs2005/vehiclefeed/internal/netx"
)

// maxPhotoSize caps what the photo command reads into memory.
const maxPhotoSize = 20 << 20

// uploader PUTs a file body to a presigned URL.
type uploader func(ctx context.Context, url, contentType string, body []byte) error

func presignedUploader(c *client.HTTPClient) uploader {
	return func(ctx context.Context, url, contentType string, body []byte) error {
		return netx.UploadToPresignedURL(ctx, c.HTTP(), url, contentType, body)
	}
}

// Export saves the public feed in the configured export directory.
func (a *App) Export(ctx context.Context, args []string) error {
	if len(args) != 1 || (args[0] != "json" && args[0] != "xml") {
		return usageError("export json|xml")
	}
	body, err := a.api.Feed(ctx, args[0])
	if err != nil {
		return err
	}
	path, err := filex.WriteExport(a.config.ExportDir, filex.ExportName("feed", args[0], a.now()), body)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "feed saved to %s\n", path)
	return nil
}

// Photo uploads a local image straight to photo storage and prints the
// public URL to attach to a listing.
func (a *App) Photo(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("photo <file>")
	}
	fi, err := os.Stat(args[0])
	if err != nil {
		return err
	}
	if fi.Size() > maxPhotoSize {
		return fmt.Errorf("%s is larger than %d bytes", args[0], maxPhotoSize)
	}
	body, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	contentType := mime.TypeByExtension(filepath.Ext(args[0]))
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}

	slot, err := a.api.PresignPhoto(ctx, filepath.Base(args[0]), contentType)
	if err != nil {
		return err
	}
	if err := a.uploader(ctx, slot.UploadURL, contentType, body); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "uploaded: %s\n", slot.PublicURL)
	return nil
}
