package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"
)

func newTransferCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:         "transfer",
		Short:       "Query transfer jobs",
		RunE:        cli.help,
		Annotations: map[string]string{noClientRequired: ""},
	}

	c.AddCommand(newTransferListCmd(cli))

	return &c
}

func newTransferListCmd(cli *Cli) *cobra.Command {
	var serviceKey string

	c := cobra.Command{
		Use:   "list",
		Short: "List transfer jobs of a service",
		RunE: func(c *cobra.Command, _ []string) error {
			jobsRes, err := cli.c.ListTransferJobs(context.Background(), serviceKey)
			if err != nil {
				return err
			}

			table := newTable([]string{
				"ID",
				"STATE",
				"FILES",
				"FAILED",
				"PROJECT ID",
				"CREATED AT",
				"DETAIL",
			})

			for _, result := range jobsRes.Results {
				table.addRow([]string{
					strconv.FormatInt(result.Id, 10),
					result.State.String(),
					strconv.Itoa(result.FilesTotal),
					strconv.Itoa(result.FilesFailed),
					result.ProjectId,
					formatTime(result.CreatedAt),
					result.Detail,
				})
			}

			c.Print(table.format())
			return nil
		},
	}

	c.Flags().StringVar(&serviceKey, "service-key", "", "Business key of the service")

	c.MarkFlagRequired("service-key")

	return &c
}
