package swap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const DefaultStoreFileName = ".wave-swap-history.json"

// Record is the persisted trace of one swap run: enough to feed the
// status and recovery commands later.
type Record struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	SourceToken  string    `json:"source_token"`
	DestToken    string    `json:"dest_token"`
	Amount       string    `json:"amount"`
	Owner        string    `json:"owner"`
	Signatures   []string  `json:"signatures,omitempty"`
	OrderID      string    `json:"order_id,omitempty"`
	Status       Status    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// Store persists swap records to a JSON file. The orchestrator itself never
// touches it; the CLI records runs so recovery can find identifiers later.
type Store struct {
	filePath string
	mu       sync.RWMutex
	records  map[string]*Record
}

type storeFile struct {
	Records map[string]*Record `json:"records"`
}

// NewStore opens (or lazily creates) the store at filePath, defaulting to
// the home directory.
func NewStore(filePath string) (*Store, error) {
	if filePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(home, DefaultStoreFileName)
	}

	store := &Store{
		filePath: filePath,
		records:  make(map[string]*Record),
	}
	if err := store.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load swap history: %w", err)
		}
	}
	return store, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var file storeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to unmarshal swap history: %w", err)
	}
	s.records = file.Records
	if s.records == nil {
		s.records = make(map[string]*Record)
	}
	return nil
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(storeFile{Records: s.records}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal swap history: %w", err)
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to a temporary file first, then rename for an atomic update.
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write swap history: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Create adds a new record.
func (s *Store) Create(record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ID]; exists {
		return fmt.Errorf("swap record %q already exists", record.ID)
	}
	s.records[record.ID] = record
	return s.save()
}

// Update replaces an existing record.
func (s *Store) Update(record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ID]; !exists {
		return fmt.Errorf("swap record %q not found", record.ID)
	}
	s.records[record.ID] = record
	return s.save()
}

// Get retrieves a record by id.
func (s *Store) Get(id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[id]
	if !exists {
		return nil, fmt.Errorf("swap record %q not found", id)
	}
	return record, nil
}

// List returns all records, newest first.
func (s *Store) List() []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*Record, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records
}
