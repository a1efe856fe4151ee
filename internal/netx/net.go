package netx

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
)

// UploadToPresignedURL PUTs file to a presigned S3 URL with the given
// content type. Used to archive issued pass bundles.
func UploadToPresignedURL(url string, contentType string, file []byte) error {
	req, err := http.NewRequest("PUT", url, bytes.NewReader(file))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload failed: %s; body: %s", resp.Status, string(b))
	}
	return nil
}
