package video

import (
	"context"
	"fmt"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/melbahja/got"
	"github.com/onlinebustech/vimeo-go/api"
)

// Download fetches the given video file to destPath. The secure link is
// preferred when both are present.
func Download(ctx context.Context, client *api.Client, file File, destPath string, logger log.Logger) error {
	link := file.LinkSecure
	if link == "" {
		link = file.Link
	}
	if link == "" {
		return fmt.Errorf("video file has no download link")
	}

	logger.Debugf("Downloading %s to %s", link, destPath)
	return downloadFile(ctx, client, link, destPath)
}

func downloadFile(ctx context.Context, client *api.Client, url string, dest string) error {
	downloader := got.New()
	downloader.Client = client.StandardClient()

	return downloader.Do(got.NewDownload(ctx, url, dest))
}
