package cmd

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Zip gate artifacts for a support ticket",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBundle()
	},
}

func init() {
	rootCmd.AddCommand(bundleCmd)
}

func runBundle() error {
	if err := ensureOutDir(); err != nil {
		return err
	}
	name := fmt.Sprintf("support-bundle_%s.zip", time.Now().UTC().Format("20060102_150405"))
	bundlePath := outPath(name)

	tmpPath := fmt.Sprintf("%s.tmp.%d", bundlePath, os.Getpid())
	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	zipw := zip.NewWriter(f)

	type item struct {
		path string
		name string
	}
	items := []item{}
	for _, rel := range []string{
		"report.json",
		"report.html",
		"results.sarif",
		"junit.xml",
		"gate.json",
		"gate.txt",
		"certificate.json",
		"audit.log",
		"doctor.json",
		"hints.json",
	} {
		entry := filepath.ToSlash(filepath.Join(cfg.Paths.OutputDir, rel))
		items = append(items, item{path: outPath(rel), name: entry})
	}
	items = append(items, item{
		path: wsPath(cfg.Scan.AllowlistPath),
		name: filepath.Base(cfg.Scan.AllowlistPath),
	})

	added := 0
	for _, it := range items {
		if _, err := os.Stat(it.path); err != nil {
			continue
		}
		if err := addFileToZip(zipw, it.path, it.name); err != nil {
			_ = zipw.Close()
			_ = f.Close()
			_ = os.Remove(tmpPath)
			return err
		}
		added++
	}

	if err := zipw.Close(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Remove(bundlePath)
	if err := os.Rename(tmpPath, bundlePath); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	fmt.Printf("wrote %s (%d files)\n", bundlePath, added)
	return nil
}

func addFileToZip(zipw *zip.Writer, path, name string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	w, err := zipw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
