package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// progressCounter counts the bytes written to a stream and reports progress.
type progressCounter struct {
	name  string
	total uint64
}

func (pc *progressCounter) Write(p []byte) (int, error) {
	n := len(p)
	pc.total += uint64(n)
	// Clear the line and print the progress
	fmt.Printf("\rDownloading %s... %d MB complete", pc.name, pc.total/1024/1024)
	return n, nil
}

// downloadFile downloads a URL to a file. It will overwrite the file if it already exists.
func downloadFile(dest string, url string) error {
	// Create the file with a temporary name
	out, err := os.Create(dest + ".tmp")
	if err != nil {
		return err
	}

	// Get the data
	resp, err := http.Get(url)
	if err != nil {
		out.Close()
		return err
	}
	defer resp.Body.Close()

	// Check server response
	if resp.StatusCode != http.StatusOK {
		out.Close()
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	// Tee the response body through a progress counter
	counter := &progressCounter{name: filepath.Base(dest)}
	reader := io.TeeReader(resp.Body, counter)

	// Write the body to file
	_, err = io.Copy(out, reader)
	if err != nil {
		out.Close()
		return err
	}

	fmt.Println() // New line after download completes
	out.Close()

	// Rename the temp file to the final name
	return os.Rename(dest+".tmp", dest)
}
