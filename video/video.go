// Package video covers the post-upload surface: fetching metadata of an
// uploaded clip, deleting it, and downloading its source files.
package video

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/onlinebustech/vimeo-go/api"
)

// Video is the metadata of an uploaded clip.
type Video struct {
	URI      string `json:"uri"`
	Name     string `json:"name"`
	Link     string `json:"link"`
	Status   string `json:"status"`
	Duration int    `json:"duration"`
	Files    []File `json:"files"`
}

// File is one downloadable rendition of a video.
type File struct {
	Quality    string `json:"quality"`
	Type       string `json:"type"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Link       string `json:"link"`
	LinkSecure string `json:"link_secure"`
	Size       int64  `json:"size"`
}

// Get fetches the metadata of a video by its URI ("/videos/12345").
func Get(ctx context.Context, client *api.Client, videoURI string, logger log.Logger) (*Video, error) {
	resp, err := client.Do(ctx, api.Request{Method: http.MethodGet, URL: videoURI})
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get video: HTTP %d: %s", resp.StatusCode, resp.Body)
	}

	var v Video
	if err := resp.DecodeJSON(&v); err != nil {
		return nil, fmt.Errorf("decode video response: %w", err)
	}

	logger.Debugf("Fetched video %s (status: %s)", v.URI, v.Status)
	return &v, nil
}

// Delete removes a video by its URI.
func Delete(ctx context.Context, client *api.Client, videoURI string, logger log.Logger) error {
	resp, err := client.Do(ctx, api.Request{Method: http.MethodDelete, URL: videoURI})
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("delete video: HTTP %d: %s", resp.StatusCode, resp.Body)
	}

	logger.Debugf("Deleted video %s", videoURI)
	return nil
}
