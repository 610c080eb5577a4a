package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/manualsvc/bundler/http/common"
	"github.com/spf13/cobra"
)

func newDiagramCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:         "diagram",
		Short:       "Show and save service diagrams",
		RunE:        cli.help,
		Annotations: map[string]string{noClientRequired: ""},
	}

	c.AddCommand(newDiagramShowCmd(cli))
	c.AddCommand(newDiagramSaveCmd(cli))

	return &c
}

func newDiagramShowCmd(cli *Cli) *cobra.Command {
	var serviceKey string

	c := cobra.Command{
		Use:   "show",
		Short: "Show the BPMN XML of a service diagram",
		RunE: func(c *cobra.Command, _ []string) error {
			bpmnXml, err := cli.c.GetDiagram(context.Background(), serviceKey)
			if err != nil {
				return err
			}

			c.Print(bpmnXml)
			return nil
		},
	}

	c.Flags().StringVar(&serviceKey, "service-key", "", "Business key of the service")

	c.MarkFlagRequired("service-key")

	return &c
}

func newDiagramSaveCmd(cli *Cli) *cobra.Command {
	var (
		serviceKey   string
		bpmnFileName string

		cmd common.SaveDiagramReq
	)

	c := cobra.Command{
		Use:   "save",
		Short: "Save an edited service diagram",
		RunE: func(c *cobra.Command, _ []string) error {
			bpmnFile, err := os.Open(bpmnFileName)
			if err != nil {
				return fmt.Errorf("failed to open BPMN file %s: %v", bpmnFileName, err)
			}

			defer bpmnFile.Close()

			bpmnXml, err := io.ReadAll(bpmnFile)
			if err != nil {
				return fmt.Errorf("failed to read BPMN XML: %v", err)
			}

			cmd.EditedXml = string(bpmnXml)

			return cli.c.SaveDiagram(context.Background(), serviceKey, cmd)
		},
	}

	c.Flags().StringVar(&serviceKey, "service-key", "", "Business key of the service")
	c.Flags().StringVar(&bpmnFileName, "bpmn-file", "", "Path to a BPMN XML file")
	c.Flags().StringVar(&cmd.Origin, "origin", program, "Origin of the edit, used to suppress self-notifications")

	c.MarkFlagRequired("service-key")
	c.MarkFlagRequired("bpmn-file")

	c.MarkFlagFilename("bpmn-file", ".bpmn", ".bpmn20.xml", ".xml")

	return &c
}
