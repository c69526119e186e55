package modelstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Store persists models atomically. Readers of a persisted path never see
// a partial file, but two writers of the same path must be serialized by
// the caller.
//
// Atomicity relies on rename within one filesystem and does not hold on
// every platform (notably Windows) or storage backend.
type Store struct {
	saves     atomic.Uint64
	now       func() time.Time
	writeFile func(name string, data []byte) error
}

// NewStore returns a Store using the wall clock for temporary file names.
func NewStore() *Store {
	return &Store{now: time.Now, writeFile: writeFile}
}

func writeFile(name string, data []byte) error {
	return os.WriteFile(name, data, 0o644)
}

// Persist writes model to path through a temporary sibling file that is
// renamed into place.
func (s *Store) Persist(path string, model Saveable) error {
	artifacts, err := model.Artifacts()
	if err != nil {
		return errors.Wrap(err, "export model")
	}

	text, err := Serialize(artifacts)
	if err != nil {
		return err
	}

	tmp := s.tempPath(path)
	if err := s.writeFile(tmp, []byte(text)); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "rename %s", tmp)
	}

	log.Debug().Str("path", path).Msg("persisted model")
	return nil
}

// tempPath names a sibling of path unique to this save.
func (s *Store) tempPath(path string) string {
	n := s.saves.Add(1) - 1
	return fmt.Sprintf("%s.%d-%d.tmp", path, s.now().UnixMilli(), n)
}

// Target binds the store to a single model path.
func (s *Store) Target(path string) Target {
	return Target{store: s, Path: path}
}

// Target persists checkpoints of a model to a fixed path.
type Target struct {
	store *Store
	Path  string
}

// Checkpoint persists model to the target path.
func (t Target) Checkpoint(model Saveable) error {
	return t.store.Persist(t.Path, model)
}

// TransportError is returned when a remote model cannot be fetched.
type TransportError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to load model from %s: %s", e.URL, e.Status)
}

// Load reads model artifacts from a location: a plain path, a file:// URL
// or an http(s):// URL fetched with http.DefaultClient.
func Load(ctx context.Context, location string) (Artifacts, error) {
	return LoadWith(ctx, http.DefaultClient, location)
}

// LoadWith is Load with an explicit HTTP client. Failed fetches are not
// retried.
func LoadWith(ctx context.Context, client *http.Client, location string) (Artifacts, error) {
	var text string
	switch {
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		body, err := fetch(ctx, client, location)
		if err != nil {
			return Artifacts{}, err
		}
		text = body
	default:
		path := strings.TrimPrefix(location, "file://")
		data, err := os.ReadFile(path)
		if err != nil {
			return Artifacts{}, errors.Wrapf(err, "read model %s", path)
		}
		text = string(data)
	}
	return Deserialize(text)
}

func fetch(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.Wrap(err, "build request")
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "fetch %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &TransportError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrapf(err, "read %s", url)
	}
	return string(body), nil
}
