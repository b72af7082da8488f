package storage

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/iamhaymc/NewSpace/internal/domain"
)

// WriterService appends normalized posts to an NDJSON file. A single
// goroutine owns the file, so producers only need the channel.
type WriterService struct {
	FilePath string
	Logger   *slog.Logger
}

func (w *WriterService) Start(wg *sync.WaitGroup, input <-chan domain.Post) {
	defer wg.Done()

	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var enc *json.Encoder
	if err := os.MkdirAll(filepath.Dir(w.FilePath), 0755); err != nil {
		logger.Error("Export disabled", "file", w.FilePath, "err", err)
	} else if f, err := os.OpenFile(w.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err != nil {
		logger.Error("Export disabled", "file", w.FilePath, "err", err)
	} else {
		defer f.Close()
		enc = json.NewEncoder(f)
	}

	// Keep draining even when the file is unusable so producers never block.
	for post := range input {
		if enc == nil {
			continue
		}
		if err := enc.Encode(post); err != nil {
			logger.Warn("Export write failed", "post", post.ID, "err", err)
		}
	}
}
