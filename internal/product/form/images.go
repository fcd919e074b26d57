package form

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"
)

var (
	ErrEmptyImage       = errors.New("empty_image")
	ErrImageTooLarge    = errors.New("image_too_large")
	ErrUnsupportedImage = errors.New("unsupported_image")
)

// DefaultMaxImageBytes bounds a single uploaded image.
const DefaultMaxImageBytes = 5 << 20

// ImageFile is one file picked in the image selector.
type ImageFile struct {
	Name string
	Data []byte
}

// EncodeImage turns raw image bytes into a base64 data URL. The media type
// is sniffed from the content, never taken from the file name.
func EncodeImage(file ImageFile, maxBytes int64) (string, error) {
	if len(file.Data) == 0 {
		return "", fmt.Errorf("%w: %s", ErrEmptyImage, file.Name)
	}
	if maxBytes > 0 && int64(len(file.Data)) > maxBytes {
		return "", fmt.Errorf("%w: %s", ErrImageTooLarge, file.Name)
	}
	mime := mimetype.Detect(file.Data)
	mediaType := mime.String()
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("%w: %s is %s", ErrUnsupportedImage, file.Name, mediaType)
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(file.Data), nil
}

// encodeImages encodes files concurrently and returns the results in input
// order. Any failure discards the whole batch.
func encodeImages(ctx context.Context, files []ImageFile, maxBytes int64) ([]string, error) {
	out := make([]string, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			encoded, err := EncodeImage(file, maxBytes)
			if err != nil {
				return err
			}
			out[i] = encoded
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
