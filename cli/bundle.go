package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/manualsvc/bundler/http/common"
	"github.com/spf13/cobra"
)

func newBundleCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:         "bundle",
		Short:       "Generate, transfer and export service bundles",
		RunE:        cli.help,
		Annotations: map[string]string{noClientRequired: ""},
	}

	c.AddCommand(newBundleGenerateCmd(cli))
	c.AddCommand(newBundleTransferCmd(cli))
	c.AddCommand(newBundleExportCmd(cli))

	return &c
}

func newBundleGenerateCmd(cli *Cli) *cobra.Command {
	var (
		serviceKey string
		outputDir  string
	)

	c := cobra.Command{
		Use:   "generate",
		Short: "Generate a service bundle",
		RunE: func(c *cobra.Command, _ []string) error {
			bundleRes, err := cli.c.GenerateBundle(context.Background(), serviceKey)
			if err != nil {
				return err
			}

			if outputDir != "" {
				return writeBundle(c, outputDir, bundleRes)
			}

			table := newTable([]string{
				"NAME",
				"KIND",
				"SIZE",
			})

			table.addRow([]string{bundleRes.MainFileName, "main", strconv.Itoa(len(bundleRes.MainXml))})
			for _, subprocess := range bundleRes.Subprocesses {
				table.addRow([]string{subprocess.Name, "subprocess", strconv.Itoa(len(subprocess.Content))})
			}
			for _, form := range bundleRes.Forms {
				table.addRow([]string{form.Name, "form", strconv.Itoa(len(form.Content))})
			}

			c.Print(table.format())
			return nil
		},
	}

	c.Flags().StringVar(&serviceKey, "service-key", "", "Business key of the service")
	c.Flags().StringVar(&outputDir, "output-dir", "", "Directory to write the bundle files to")

	c.MarkFlagRequired("service-key")
	c.MarkFlagDirname("output-dir")

	return &c
}

func newBundleTransferCmd(cli *Cli) *cobra.Command {
	var serviceKey string

	c := cobra.Command{
		Use:   "transfer",
		Short: "Transfer a service bundle to Web Modeler",
		RunE: func(c *cobra.Command, _ []string) error {
			transferRes, err := cli.c.TransferBundle(context.Background(), serviceKey)
			if err != nil {
				return err
			}

			table := newTable([]string{
				"NAME",
				"STATUS",
				"DETAIL",
			})

			for _, succeeded := range transferRes.Succeeded {
				table.addRow([]string{succeeded.Name, "UPLOADED", succeeded.RemoteId})
			}
			for _, failed := range transferRes.Failed {
				table.addRow([]string{failed.Name, "FAILED", failed.Error})
			}

			c.Printf("job: %d, project: %s, folder: %s\n\n", transferRes.JobId, transferRes.ProjectId, transferRes.FolderId)
			c.Print(table.format())

			if !transferRes.Complete {
				return fmt.Errorf("transfer job %d is incomplete: %d file(s) failed", transferRes.JobId, len(transferRes.Failed))
			}
			return nil
		},
	}

	c.Flags().StringVar(&serviceKey, "service-key", "", "Business key of the service")

	c.MarkFlagRequired("service-key")

	return &c
}

func newBundleExportCmd(cli *Cli) *cobra.Command {
	var serviceKey string

	c := cobra.Command{
		Use:   "export",
		Short: "Export a service bundle as ZIP archive",
		RunE: func(c *cobra.Command, _ []string) error {
			exportRes, err := cli.c.ExportBundle(context.Background(), serviceKey)
			if err != nil {
				return err
			}

			c.Println(exportRes.ArchivePath)
			c.Println(exportRes.ArchiveUrl)
			return nil
		},
	}

	c.Flags().StringVar(&serviceKey, "service-key", "", "Business key of the service")

	c.MarkFlagRequired("service-key")

	return &c
}

func writeBundle(c *cobra.Command, outputDir string, bundleRes common.BundleRes) error {
	for _, dir := range []string{outputDir, filepath.Join(outputDir, "subprocesses"), filepath.Join(outputDir, "forms")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %v", dir, err)
		}
	}

	files := make(map[string]string)
	files[bundleRes.MainFileName] = bundleRes.MainXml
	for _, subprocess := range bundleRes.Subprocesses {
		files[filepath.Join("subprocesses", subprocess.Name)] = subprocess.Content
	}
	for _, form := range bundleRes.Forms {
		files[filepath.Join("forms", form.Name)] = form.Content
	}

	for name, content := range files {
		fileName := filepath.Join(outputDir, name)
		if err := os.WriteFile(fileName, []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write bundle file %s: %v", fileName, err)
		}
	}

	c.Printf("wrote %d files to %s\n", len(files), outputDir)
	return nil
}
