package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/joho/godotenv"
	"github.com/leca/image-triage/internal/classify"
	"github.com/leca/image-triage/internal/config"
	"github.com/leca/image-triage/internal/model"
	"github.com/leca/image-triage/internal/picker"
	"github.com/leca/image-triage/internal/rowsource"
	"github.com/leca/image-triage/internal/triage"
	"github.com/leca/image-triage/internal/upload"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "triage",
		Short: "Triage catalog image assets: list buckets and upload replacement images",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
		SilenceUsage: true,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newUploadCmd())
	cmd.AddCommand(newOpenCmd())

	return cmd
}

// newController wires a Controller against the configured backend, with
// alerts printed to stderr.
func newController(pk picker.Picker) *triage.Controller {
	cfg := config.Load()
	source := rowsource.NewClient(cfg.RowSourceURL)
	sink := upload.NewSink(cfg.UploadURL)
	notify := triage.NotifierFunc(func(msg string) {
		fmt.Fprintln(os.Stderr, "alert:", msg)
	})
	return triage.New(source, sink, pk, notify, nil)
}

func newListCmd() *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Fetch rows for a subject and print the three buckets",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newController(picker.NewLocalPicker(""))
			if err := c.SelectSubject(cmd.Context(), subject); err != nil {
				return err
			}
			printBuckets(cmd, c.Buckets())
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "subject to fetch rows for")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func newUploadCmd() *cobra.Command {
	var subject, rowID, file string

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a replacement image for a row and re-fetch the subject",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newController(picker.NewLocalPicker(file))
			if err := c.SelectSubject(cmd.Context(), subject); err != nil {
				return err
			}
			if err := c.UploadForRow(cmd.Context(), rowID); err != nil {
				return err
			}
			printBuckets(cmd, c.Buckets())
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "subject the row belongs to")
	cmd.Flags().StringVar(&rowID, "row", "", "row id to upload for")
	cmd.Flags().StringVar(&file, "file", "", "path to the replacement image")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("row")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newOpenCmd() *cobra.Command {
	var subject, rowID string

	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open a row's external image URL in the default browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newController(picker.NewLocalPicker(""))
			if err := c.SelectSubject(cmd.Context(), subject); err != nil {
				return err
			}
			url, ok := c.ExternalImageURL(rowID)
			if !ok {
				return fmt.Errorf("row %s has no external image", rowID)
			}
			cmd.Println(url)
			if opener, err := exec.LookPath("xdg-open"); err == nil {
				// Best-effort; printing the URL above already covers
				// platforms without a browser opener.
				_ = exec.Command(opener, url).Start()
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "subject the row belongs to")
	cmd.Flags().StringVar(&rowID, "row", "", "row id to open")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("row")
	return cmd
}

func printBuckets(cmd *cobra.Command, b classify.Buckets) {
	printBucket(cmd, "no image", b.NoImage)
	printBucket(cmd, "external only", b.ExternalOnly)
	printBucket(cmd, "uploaded", b.Uploaded)
}

func printBucket(cmd *cobra.Command, name string, rows []model.ImageRow) {
	cmd.Printf("%s (%d):\n", name, len(rows))
	for _, r := range rows {
		line := "  " + r.ID
		if r.ExternalImageURL != nil {
			line += "  external=" + *r.ExternalImageURL
		}
		if r.StoredImageURL != nil {
			line += "  stored=" + *r.StoredImageURL
		}
		cmd.Println(line)
	}
}
