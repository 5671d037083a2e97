package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ftdconf/ftdconf/pkg/cli"
	"github.com/ftdconf/ftdconf/pkg/fdm"
	"github.com/ftdconf/ftdconf/pkg/swagger"
)

var downloadPathParams []string

var uploadCmd = &cobra.Command{
	Use:   "upload <operationId> <file>",
	Short: "Upload a file through a file-upload operation",
	Long: `Upload a local file through one of the device's upload operations.

Example:
  ftdconf -H 10.0.0.1 upload uploadDiskFile backup.cfg`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		operation, file := args[0], args[1]
		return withSession(func(ctx context.Context, s *fdm.Session, index *swagger.SpecIndex) error {
			op, err := resolveUploadOperation(index, operation)
			if err != nil {
				return err
			}
			body, err := s.UploadFile(ctx, op.URL, file)
			if err != nil {
				return err
			}
			fmt.Println(cli.Green("uploaded"))
			return printJSON(body)
		})
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download <operationId> <dest>",
	Short: "Download a file through a file-download operation",
	Long: `Download a file through one of the device's download operations. When
dest is a directory, the file name comes from the server's
Content-Disposition header.

Example:
  ftdconf -H 10.0.0.1 download getDownloadDiskFile ./exports --path objId=abc-123`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		operation, dest := args[0], args[1]
		pathParams, err := parseKV(downloadPathParams)
		if err != nil {
			return err
		}
		return withSession(func(ctx context.Context, s *fdm.Session, index *swagger.SpecIndex) error {
			op, err := resolveDownloadOperation(index, operation)
			if err != nil {
				return err
			}
			written, err := s.DownloadFile(ctx, op.URL, pathParams, dest)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", cli.Green("downloaded"), written)
			return nil
		})
	},
}

// resolveUploadOperation looks up an operation and checks it actually
// accepts a file: only multipart POST endpoints are eligible.
func resolveUploadOperation(index *swagger.SpecIndex, id string) (*swagger.Operation, error) {
	op := index.Operation(id)
	if op == nil {
		return nil, fmt.Errorf("operation %s not found in the device specification", id)
	}
	if !swagger.IsUploadFile(op) {
		return nil, fmt.Errorf("operation %s does not accept a file upload (want a multipart POST endpoint)", id)
	}
	return op, nil
}

// resolveDownloadOperation looks up an operation and checks it actually
// serves a file. A JSON endpoint here would dump an object body to disk.
func resolveDownloadOperation(index *swagger.SpecIndex, id string) (*swagger.Operation, error) {
	op := index.Operation(id)
	if op == nil {
		return nil, fmt.Errorf("operation %s not found in the device specification", id)
	}
	if !swagger.IsDownloadFile(op) {
		return nil, fmt.Errorf("operation %s does not download a file (want a GET endpoint returning file content)", id)
	}
	return op, nil
}

func init() {
	downloadCmd.Flags().StringArrayVar(&downloadPathParams, "path", nil, "Path parameter key=value (repeatable)")
}
