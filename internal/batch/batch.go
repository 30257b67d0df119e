// Package batch analyzes many documents with a bounded worker pool.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cmrdocs/internal/analysis"
	"cmrdocs/internal/logger"
)

// Item statuses.
const (
	StatusSuccess = "success"
	StatusWarning = "warning" // analyzed, but no field was found
	StatusError   = "error"
)

// DefaultWorkers is used when Run gets a non-positive worker count.
const DefaultWorkers = 4

// Analyzer is implemented by *analysis.Service.
type Analyzer interface {
	Analyze(ctx context.Context, u analysis.Upload) (*analysis.Result, error)
}

// Item is the outcome for one file. Index is its position in the input.
type Item struct {
	Index    int
	Path     string
	Filename string
	Result   *analysis.Result
	Err      error
	Status   string
}

// Progress is called once per finished item. Calls are serialized.
type Progress func(done, total int, item Item)

// Counts summarizes a batch by status.
type Counts struct {
	Success int
	Warning int
	Error   int
}

type job struct {
	path  string
	index int
}

// FindDocuments returns the PDF, PNG and JPEG files below root in lexical
// order.
func FindDocuments(root string) ([]string, error) {
	var files []string

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if analysis.MediaTypeFor(info.Name()) != "" {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// Run analyzes paths with at most workers concurrent calls. Results keep the
// order of paths. Files not started before ctx is done fail with ctx.Err().
func Run(ctx context.Context, analyzer Analyzer, paths []string, workers int, progress Progress) []Item {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	log := logger.WithComponent("batch")
	jobs := make(chan job, len(paths))
	items := make([]Item, len(paths))

	var (
		mu   sync.Mutex
		done int
		wg   sync.WaitGroup
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for j := range jobs {
				log.Debug().
					Int("worker", workerID).
					Str("file", j.path).
					Int("index", j.index+1).
					Msg("Worker processing document")

				item := processOne(ctx, analyzer, j.path)
				item.Index = j.index
				items[j.index] = item

				mu.Lock()
				done++
				if progress != nil {
					progress(done, len(paths), item)
				}
				mu.Unlock()
			}
		}(w)
	}

	for i, path := range paths {
		jobs <- job{path: path, index: i}
	}
	close(jobs)

	wg.Wait()

	return items
}

func processOne(ctx context.Context, analyzer Analyzer, path string) Item {
	item := Item{
		Path:     path,
		Filename: filepath.Base(path),
		Status:   StatusError,
	}

	if err := ctx.Err(); err != nil {
		item.Err = err
		return item
	}

	data, err := os.ReadFile(path)
	if err != nil {
		item.Err = fmt.Errorf("failed to read file: %w", err)
		return item
	}

	result, err := analyzer.Analyze(ctx, analysis.Upload{Data: data, Filename: path})
	if err != nil {
		item.Err = err
		return item
	}

	item.Result = result
	item.Status = StatusSuccess
	if result.Analysis.IsEmpty() {
		item.Status = StatusWarning
	}
	return item
}

// Summarize counts items by status.
func Summarize(items []Item) Counts {
	var c Counts
	for _, item := range items {
		switch item.Status {
		case StatusSuccess:
			c.Success++
		case StatusWarning:
			c.Warning++
		default:
			c.Error++
		}
	}
	return c
}

// StatusSymbol is the progress marker for status.
func StatusSymbol(status string) string {
	switch status {
	case StatusSuccess:
		return "✅"
	case StatusWarning:
		return "⚠️"
	case StatusError:
		return "❌"
	default:
		return "❓"
	}
}

// Describe is a one-line summary of the item for progress output.
func Describe(item Item) string {
	if item.Err != nil {
		return item.Err.Error()
	}
	if item.Result == nil {
		return ""
	}

	var parts []string
	rec := item.Result.Analysis
	if rec.CMR.VIN != "" {
		parts = append(parts, "VIN "+rec.CMR.VIN)
	} else if rec.Invoice.VIN != "" {
		parts = append(parts, "VIN "+rec.Invoice.VIN)
	}
	if rec.Invoice.InvoiceNo != "" {
		parts = append(parts, "invoice "+rec.Invoice.InvoiceNo)
	}
	if rec.CMR.GrossWeightKg != "" {
		parts = append(parts, rec.CMR.GrossWeightKg+" kg")
	}
	if item.Result.Cached {
		parts = append(parts, "cached")
	}
	return strings.Join(parts, ", ")
}
