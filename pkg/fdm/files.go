package fdm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"

	"github.com/ftdconf/ftdconf/pkg/util"
)

// decodeErrorBody best-effort decodes an error response for inclusion in a
// ServerError. Undecodable bodies yield an empty map.
func decodeErrorBody(raw []byte) map[string]interface{} {
	var body map[string]interface{}
	if json.Unmarshal(raw, &body) != nil || body == nil {
		return map[string]interface{}{}
	}
	return body
}

// uploadFieldName is the multipart form field the device expects.
const uploadFieldName = "fileToUpload"

var dispositionRe = regexp.MustCompile(`attachment; ?filename="?([^"]+)`)

// UploadFile posts the file at srcPath to the given upload endpoint as a
// multipart form and returns the decoded response body, typically a
// DiskFileDTO describing the stored file.
func (s *Session) UploadFile(ctx context.Context, urlPath, srcPath string) (map[string]interface{}, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrConfiguration, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile(uploadFieldName, filepath.Base(srcPath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", util.ErrConfiguration, srcPath, err)
	}
	if err := form.Close(); err != nil {
		return nil, err
	}

	target, err := s.buildURL(urlPath, nil, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.doWithAuth(ctx, "POST", target, form.FormDataContentType(), buf.Bytes())
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, util.NewServerError(resp.StatusCode, decodeErrorBody(resp.Raw))
	}

	s.log.WithField("file", srcPath).Info("Uploaded file")

	body := map[string]interface{}{}
	if len(resp.Raw) > 0 {
		var decoded map[string]interface{}
		if jsonErr := json.Unmarshal(resp.Raw, &decoded); jsonErr != nil {
			return nil, fmt.Errorf("%w: upload response is not a JSON object", util.ErrUnexpectedResponse)
		}
		body = decoded
	}
	return body, nil
}

// DownloadFile fetches a file endpoint and writes the payload to destPath.
// When destPath is an existing directory, the file name comes from the
// Content-Disposition header; a response without one is an error in that
// case.
func (s *Session) DownloadFile(ctx context.Context, urlPath string, pathParams map[string]interface{}, destPath string) (string, error) {
	target, err := s.buildURL(urlPath, pathParams, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.doWithAuth(ctx, "GET", target, "", nil)
	if err != nil {
		return "", err
	}
	if !resp.Success {
		return "", util.NewServerError(resp.StatusCode, decodeErrorBody(resp.Raw))
	}

	dest := destPath
	if info, statErr := os.Stat(destPath); statErr == nil && info.IsDir() {
		m := dispositionRe.FindStringSubmatch(resp.Header.Get("Content-Disposition"))
		if m == nil {
			return "", fmt.Errorf("%w: response carries no usable Content-Disposition header, "+
				"pass a full file path instead of a directory", util.ErrUnexpectedResponse)
		}
		dest = filepath.Join(destPath, filepath.Base(m[1]))
	}

	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrConfiguration, err)
	}
	defer out.Close()
	if _, err := out.Write(resp.Raw); err != nil {
		return "", fmt.Errorf("%w: writing %s: %v", util.ErrConfiguration, dest, err)
	}

	s.log.WithField("file", dest).Info("Downloaded file")
	return dest, nil
}
