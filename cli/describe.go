package cli

import (
	"context"

	"github.com/manualsvc/bundler/http/common"
	"github.com/spf13/cobra"
)

func newDescribeCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:         "describe",
		Short:       "Draft service and step descriptions",
		RunE:        cli.help,
		Annotations: map[string]string{noClientRequired: ""},
	}

	c.AddCommand(newDescribeDraftCmd(cli))

	return &c
}

func newDescribeDraftCmd(cli *Cli) *cobra.Command {
	var (
		serviceKey string

		cmd common.DraftDescriptionReq
	)

	c := cobra.Command{
		Use:   "draft",
		Short: "Draft a description via language model",
		RunE: func(c *cobra.Command, _ []string) error {
			descriptionRes, err := cli.c.DraftDescription(context.Background(), serviceKey, cmd)
			if err != nil {
				return err
			}

			c.Println(descriptionRes.Description)
			return nil
		},
	}

	c.Flags().StringVar(&serviceKey, "service-key", "", "Business key of the service")
	c.Flags().StringVar(&cmd.NodeId, "node-id", "", "BPMN element to describe - when empty, the service itself is described")

	c.MarkFlagRequired("service-key")

	return &c
}
