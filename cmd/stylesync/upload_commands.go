package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stylesync/internal/api"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var declaredType string

	cmd := &cobra.Command{
		Use:   "upload <folder>",
		Short: "Ingest a local image folder as an album",
		Long: "Copy every image under the folder into the managed uploads tree.\n" +
			"The folder name becomes the album; files that do not match the\n" +
			"declared type are skipped and listed.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(svc *api.Service) error {
				resp, err := svc.UploadDirectory(cmd.Context(), args[0], declaredType)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, resp, func() string {
					return renderUploadResponse(resp)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&declaredType, "type", "t", "auto", "Declared file type: auto, jpeg, png, or webp")
	return cmd
}

func newUploadsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "uploads",
		Short: "Show the upload log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(svc *api.Service) error {
				resp, err := svc.UploadHistory(cmd.Context())
				if err != nil {
					return err
				}
				return ctx.emit(cmd, resp, func() string {
					if len(resp.Records) == 0 {
						return "No uploads recorded"
					}
					rows := make([][]string, 0, len(resp.Records))
					for _, rec := range resp.Records {
						rows = append(rows, []string{rec.Album, rec.StoredPath, rec.MIME, rec.DeclaredType, rec.CreatedAt})
					}
					return renderTable(columns("Album", "Stored Path", "MIME", "Declared", "Uploaded"), rows)
				})
			})
		},
	}
}

func renderUploadResponse(resp api.UploadResponse) string {
	var b strings.Builder
	b.WriteString(resp.Notice)
	if len(resp.SkippedFiles) == 0 {
		return b.String()
	}
	b.WriteString("\n")
	rows := make([][]string, 0, len(resp.SkippedFiles))
	for _, skipped := range resp.SkippedFiles {
		rows = append(rows, []string{skipped.Path, skipped.Reason})
	}
	fmt.Fprint(&b, renderTable(columns("Skipped", "Reason"), rows))
	return b.String()
}
