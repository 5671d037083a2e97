package main

import (
	"strings"
	"testing"

	"github.com/ftdconf/ftdconf/internal/testutil"
	"github.com/ftdconf/ftdconf/pkg/swagger"
)

func fileTestIndex(t *testing.T) *swagger.SpecIndex {
	t.Helper()
	ix, err := swagger.Parse([]byte(testutil.SpecJSON))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return ix
}

func TestResolveUploadOperation(t *testing.T) {
	ix := fileTestIndex(t)

	op, err := resolveUploadOperation(ix, "uploadDiskFile")
	if err != nil {
		t.Fatalf("resolveUploadOperation(uploadDiskFile) error: %v", err)
	}
	if op.URL != "/api/fdm/v2/action/uploaddiskfile" {
		t.Errorf("upload URL = %s", op.URL)
	}

	// JSON endpoints must be rejected, not uploaded to.
	if _, err := resolveUploadOperation(ix, "addNetworkObject"); err == nil {
		t.Errorf("addNetworkObject should not resolve as an upload operation")
	}
	if _, err := resolveUploadOperation(ix, "noSuchOperation"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("unknown operation error = %v", err)
	}
}

func TestResolveDownloadOperation(t *testing.T) {
	ix := fileTestIndex(t)

	op, err := resolveDownloadOperation(ix, "getDownloadDiskFile")
	if err != nil {
		t.Fatalf("resolveDownloadOperation(getDownloadDiskFile) error: %v", err)
	}
	if op.URL != "/api/fdm/v2/action/downloaddiskfile/{objId}" {
		t.Errorf("download URL = %s", op.URL)
	}

	// A JSON GET must be rejected so an object body is never written to
	// disk as a downloaded file.
	if _, err := resolveDownloadOperation(ix, "getNetworkObject"); err == nil {
		t.Errorf("getNetworkObject should not resolve as a download operation")
	}
	if _, err := resolveDownloadOperation(ix, "uploadDiskFile"); err == nil {
		t.Errorf("uploadDiskFile should not resolve as a download operation")
	}
	if _, err := resolveDownloadOperation(ix, "noSuchOperation"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("unknown operation error = %v", err)
	}
}
