package cli

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/happyhackingspace/rproj/internal/storage"
	"github.com/spf13/cobra"
)

const bydateURL = "http://qwone.com/~jason/20Newsgroups/20news-bydate.tar.gz"

func (c *CLI) newDataCommand() *cobra.Command {
	dataCmd := &cobra.Command{
		Use:   "data",
		Short: "Fetch and convert the Twenty Newsgroups corpus",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	var downloadDataFolder, url string
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Download and extract the 20news-bydate archive",
		Example: `  rproj data download
  rproj data download --data-folder data`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dataDownload(url, downloadDataFolder)
		},
	}
	downloadCmd.Flags().StringVar(&downloadDataFolder, "data-folder", "data", "Destination folder for the corpus")
	downloadCmd.Flags().StringVar(&url, "url", bydateURL, "Archive URL")

	var exportFrom, exportTo string
	var remove []string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Convert the bydate directories into train/test JSON files",
		Example: `  rproj data export --data-folder data --out data
  rproj data export --remove headers,footers,quotes --out data/clean`,
		RunE: func(cmd *cobra.Command, args []string) error {
			corpus, err := storage.NewStorage(exportFrom).Load(storage.LoadOptions{
				Format: storage.FormatBydate,
				Remove: remove,
			})
			if err != nil {
				return err
			}
			if err := storage.NewStorage(exportTo).SaveJSON(corpus); err != nil {
				return err
			}
			slog.Info("Corpus exported", "folder", exportTo, "train", corpus.Train.Len(),
				"test", corpus.Test.Len(), "categories", len(corpus.Categories))
			return nil
		},
	}
	exportCmd.Flags().StringVar(&exportFrom, "data-folder", "data", "Folder holding 20news-bydate-train and 20news-bydate-test")
	exportCmd.Flags().StringVar(&exportTo, "out", "data", "Destination folder for the JSON files")
	exportCmd.Flags().StringSliceVar(&remove, "remove", nil, "Strip post parts: headers, footers, quotes")

	dataCmd.AddCommand(downloadCmd, exportCmd)
	return dataCmd
}

func dataDownload(url, dataFolder string) error {
	slog.Info("Downloading corpus", "url", url)
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("download data: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download data: HTTP %d", resp.StatusCode)
	}

	count, err := extractTarGz(resp.Body, dataFolder)
	if err != nil {
		return err
	}
	slog.Info("Corpus extracted", "files", count, "folder", dataFolder)
	return nil
}

// extractTarGz unpacks a gzipped tar stream below dest and returns the
// number of regular files written.
func extractTarGz(r io.Reader, dest string) (int, error) {
	gr, err := gzip.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("gzip reader: %w", err)
	}
	defer func() { _ = gr.Close() }()

	tr := tar.NewReader(gr)
	count := 0
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("read tar: %w", err)
		}

		name := filepath.Clean(filepath.FromSlash(hdr.Name))
		if !filepath.IsLocal(name) {
			return count, fmt.Errorf("read tar: entry %q escapes destination", hdr.Name)
		}
		target := filepath.Join(dest, name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return count, fmt.Errorf("create dir %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return count, fmt.Errorf("create parent dir: %w", err)
			}
			f, err := os.Create(target)
			if err != nil {
				return count, fmt.Errorf("create file %s: %w", target, err)
			}
			if _, err := io.Copy(f, tr); err != nil {
				_ = f.Close()
				return count, fmt.Errorf("write file %s: %w", target, err)
			}
			_ = f.Close()
			count++
		}
	}
	return count, nil
}
