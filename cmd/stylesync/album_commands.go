package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"stylesync/internal/api"
)

func newAlbumsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "albums [album]",
		Short: "List albums and the images of one",
		Long: "List every album under the uploads directory. The named album, or\n" +
			"the first album when none is given, also has its images listed.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var selected string
			if len(args) == 1 {
				selected = strings.TrimSpace(args[0])
			}
			return ctx.withService(cmd, func(svc *api.Service) error {
				resp, err := svc.ListAlbums(cmd.Context(), selected)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, resp, func() string {
					return renderAlbums(resp)
				})
			})
		},
	}
}

func renderAlbums(resp api.AlbumsResponse) string {
	if len(resp.Albums) == 0 {
		return "No albums uploaded"
	}
	rows := make([][]string, 0, len(resp.Albums))
	for _, a := range resp.Albums {
		marker := ""
		if a.Name == resp.Selected {
			marker = "*"
		}
		rows = append(rows, []string{marker, a.Name, a.FileType, strconv.Itoa(a.ImageCount), valueOrDash(a.Preview)})
	}
	var b strings.Builder
	b.WriteString(renderTable([]column{
		{title: ""},
		{title: "Album"},
		{title: "Type"},
		{title: "Images", numeric: true},
		{title: "Preview"},
	}, rows))
	if resp.Selected == "" {
		return b.String()
	}
	b.WriteString("\n\nImages in " + resp.Selected + ":")
	if len(resp.Images) == 0 {
		b.WriteString(" none")
	}
	for _, img := range resp.Images {
		b.WriteString("\n  " + img)
	}
	return b.String()
}
