// mockstack serves the mock search index and the mock browser driver on
// local ports so the pipeline can be dry-run end to end without a cluster
// or a browser. Pages are seeded from a CSV of url,transcript pairs.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/talkindex/talkindex/internal/mockdriver"
	"github.com/talkindex/talkindex/internal/mockindex"
)

func main() {
	indexAddr := defaultString("MOCKSTACK_INDEX_ADDR", ":9200")
	driverAddr := defaultString("MOCKSTACK_DRIVER_ADDR", ":9515")
	indexName := defaultString("MOCKSTACK_INDEX", "talk-index")
	pagesPath := defaultString("MOCKSTACK_PAGES", "")

	fs := flag.NewFlagSet("mockstack", flag.ExitOnError)
	fs.StringVar(&indexAddr, "index-addr", indexAddr, "Listen address for the mock search index")
	fs.StringVar(&driverAddr, "driver-addr", driverAddr, "Listen address for the mock browser driver")
	fs.StringVar(&indexName, "index", indexName, "Index name the mock search index serves")
	fs.StringVar(&pagesPath, "pages", pagesPath, "CSV of url,transcript rows to script as pages")
	_ = fs.Parse(os.Args[1:])

	driver := mockdriver.New()
	if pagesPath != "" {
		if err := seedPages(driver, pagesPath); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "seed pages: %v\n", err)
			os.Exit(1)
		}
	}

	idx := mockindex.New(indexName)

	errCh := make(chan error, 2)
	go func() {
		errCh <- http.ListenAndServe(indexAddr, idx.Handler())
	}()
	go func() {
		errCh <- http.ListenAndServe(driverAddr, driver.Handler())
	}()

	_, _ = fmt.Fprintf(os.Stdout, "mockstack: index on %s (index=%s), driver on %s\n",
		indexAddr, indexName, driverAddr)
	if err := <-errCh; err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// seedPages registers one transcript page per CSV row. The scripted URL is
// the manifest link plus the /transcript sub-resource, matching what the
// fetcher navigates to.
func seedPages(driver *mockdriver.Server, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if len(rec) < 2 {
			continue
		}
		url := strings.TrimRight(strings.TrimSpace(rec[0]), "/") + "/transcript"
		driver.Register(url, mockdriver.Page{Segments: []string{strings.TrimSpace(rec[1])}})
	}
}

func defaultString(envVar string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(envVar))
	if v == "" {
		return fallback
	}
	return v
}
