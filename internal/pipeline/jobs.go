package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/JoaoFavoreto/Powerpoint-translator/internal/translate"
)

// JobStatus represents the state of a translation job. A job moves
// strictly forward through the stages; StatusFailed is terminal and
// reachable from any of them.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusLoading     JobStatus = "loading"
	StatusExtracting  JobStatus = "extracting"
	StatusTranslating JobStatus = "translating"
	StatusReinjecting JobStatus = "reinjecting"
	StatusSerializing JobStatus = "serializing"
	StatusCompleted   JobStatus = "completed"
	StatusFailed      JobStatus = "failed"
)

// Job tracks the state of a single presentation translation.
type Job struct {
	mu sync.Mutex

	ID             string `json:"job_id"`
	Filename       string `json:"filename"`
	TargetLanguage string `json:"target_language"`
	Provider       string `json:"provider"`

	// Style and Glossary shape the translation request; see
	// translate.Request. Both are set once at submission and read-only
	// afterwards.
	Style    translate.Style   `json:"style"`
	Glossary map[string]string `json:"-"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized. fileData is the untouched input;
	// result stays nil unless the job completed, so a partially
	// translated document can never be downloaded.
	fileData []byte
	result   []byte
	errors   []string
}

// Progress tracks per-job counters.
type Progress struct {
	Slides     int      `json:"slides"`
	Units      int      `json:"units"`
	Characters int      `json:"characters"`
	Errors     []string `json:"errors"`
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetCounts records the document's extraction counters.
func (j *Job) SetCounts(slides, units, characters int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Slides = slides
	j.Progress.Units = units
	j.Progress.Characters = characters
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw input bytes.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw input bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// SetResult stores the serialized translated presentation.
func (j *Job) SetResult(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = data
	j.UpdatedAt = time.Now()
}

// Result returns the translated presentation bytes, nil unless the
// job completed.
func (j *Job) Result() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID             string    `json:"job_id"`
	Filename       string    `json:"filename"`
	TargetLanguage string          `json:"target_language"`
	Provider       string          `json:"provider"`
	Style          translate.Style `json:"style"`
	Status         JobStatus       `json:"status"`
	Phase          string    `json:"phase"`
	Progress       Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:             j.ID,
		Filename:       j.Filename,
		TargetLanguage: j.TargetLanguage,
		Provider:       j.Provider,
		Style:          j.Style,
		Status:         j.Status,
		Phase:          j.Phase,
		Progress: Progress{
			Slides:     j.Progress.Slides,
			Units:      j.Progress.Units,
			Characters: j.Progress.Characters,
			Errors:     errs,
		},
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
