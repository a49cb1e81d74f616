package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"stylesync/internal/api"
	"stylesync/internal/jobs"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show workspace status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(svc *api.Service) error {
				resp, err := svc.Status(cmd.Context())
				if err != nil {
					return err
				}
				colorize := shouldColorize(cmd.OutOrStdout())
				return ctx.emit(cmd, resp, func() string {
					return renderStatus(resp, colorize)
				})
			})
		},
	}
}

func renderStatus(resp api.StatusResponse, colorize bool) string {
	report := &statusReport{colorize: colorize}

	report.section("Workspace")
	report.line("Uploads", statusInfo, resp.UploadsDir)
	report.line("Data", statusInfo, resp.DataDir)
	report.line("Store", statusInfo, fmt.Sprintf("%s (%s lock)", resp.StoreBackend, resp.StoreLock))
	report.line("Albums", statusInfo, strconv.Itoa(resp.AlbumCount))
	report.line("Uploaded files", statusInfo, strconv.Itoa(resp.UploadCount))

	report.section("Jobs")
	for _, status := range jobs.AllStatuses() {
		count := resp.JobCounts[string(status)]
		kind := statusInfo
		if status == jobs.StatusDone && count > 0 {
			kind = statusOK
		}
		report.line(titleCase(string(status)), kind, strconv.Itoa(count))
	}

	report.section("Checks")
	for _, check := range resp.Checks {
		kind := statusOK
		if !check.Passed {
			kind = statusError
		}
		report.line(check.Name, kind, check.Detail)
	}
	return report.String()
}

func titleCase(value string) string {
	return cases.Title(language.English).String(value)
}
