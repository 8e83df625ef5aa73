package service

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"freightdesk/internal/model"
)

// AuditService appends write attempts to a JSON lines file and answers list
// queries over it.
type AuditService struct {
	filePath string
	mu       sync.Mutex
}

func NewAuditService(filePath string) (*AuditService, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("prepare audit directory: %w", err)
	}

	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("initialize audit file: %w", err)
	}
	_ = f.Close()

	return &AuditService{filePath: filePath}, nil
}

// Log never fails the request it describes; write errors are only logged.
func (s *AuditService) Log(entry model.AuditEntry) {
	if s == nil {
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		slog.Warn("audit entry not encoded", "action", entry.Action, "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		slog.Warn("audit log unavailable", "path", s.filePath, "error", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		slog.Warn("audit entry not written", "path", s.filePath, "error", err)
	}
}

// Query applies list params to the trail. Without a sort the newest entries
// come first. Malformed lines are skipped.
func (s *AuditService) Query(params ListParams) ([]model.Record, model.Pagination, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.filePath)
	if err != nil {
		return nil, model.Pagination{}, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	entries := make([]model.Record, 0, 128)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry model.Record
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, model.Pagination{}, fmt.Errorf("read audit log: %w", err)
	}

	if !params.Sort.Active() {
		slices.Reverse(entries)
	}

	page, meta := params.PageOf(params.Apply(entries, time.Now().UTC()))
	return page, meta, nil
}
