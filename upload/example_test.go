package upload_test

import (
	"context"
	"fmt"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/onlinebustech/vimeo-go/upload"
)

func Example() {
	source, err := upload.NewFileSource("movie.mp4")
	if err != nil {
		panic(err)
	}
	defer func() {
		if err := source.Close(); err != nil {
			panic(err)
		}
	}()

	session, err := upload.Upload(context.Background(), upload.UploadParams{
		Token:  "my-access-token",
		Source: source,
	}, log.NewLogger())
	if err != nil {
		// The session, if any, carries the last confirmed offset and can
		// be passed to Resume.
		panic(err)
	}

	fmt.Println(session.ClipURI())
}
