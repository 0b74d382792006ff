// Package snapshot builds the employee CSV and ships it to the engagement
// platform over SFTP, full or as a delta against the stored manifest
package snapshot

import (
	"context"
	"io"
	"time"

	"hrhub/internal/adapters/hris"
	"hrhub/internal/platform/logger"
	"hrhub/internal/services/syncstate/domain"
)

// Export modes
const (
	ModeFull  = "full"
	ModeDelta = "delta"
)

// DefaultRemotePath is where the engagement platform expects the file
const DefaultRemotePath = "/employees.csv"

// HRIS is the slice of the HRIS adapter the exporter consumes
type HRIS interface {
	ForEachPerson(ctx context.Context, fields string, fn func(hris.Person) error) error
	GetJobEmployment(ctx context.Context, jobID string) (string, error)
	GetPersonProjected(ctx context.Context, personID, fields string) (*hris.Person, error)
}

// State persists the snapshot manifest
type State interface {
	LoadManifest(ctx context.Context) (*domain.Manifest, error)
	SaveManifest(ctx context.Context, m *domain.Manifest) error
	RecordSync(ctx context.Context, kind string, n int64)
	RecordError(ctx context.Context, kind string, cause error)
}

// Uploader streams a file to the remote host
type Uploader interface {
	Upload(ctx context.Context, remotePath string, r io.Reader) (int64, error)
}

// Options configures an export run
type Options struct {
	// Mode is full or delta; empty means full
	Mode string

	// RemotePath overrides the upload destination
	RemotePath string
}

// Result reports one export run
type Result struct {
	Mode       string `json:"mode"`
	Rows       int    `json:"rows"`
	Terminated int    `json:"terminated,omitempty"`
	Bytes      int64  `json:"bytes"`
	RemotePath string `json:"remote_path"`
	Skipped    bool   `json:"skipped"`
}

// Service is the snapshot exporter
type Service struct {
	hris     HRIS
	state    State
	uploader Uploader
	opts     Options
	log      logger.Logger
	now      func() time.Time
}

// New wires a Service
func New(h HRIS, st State, up Uploader, opts Options) *Service {
	if opts.Mode == "" {
		opts.Mode = ModeFull
	}
	if opts.RemotePath == "" {
		opts.RemotePath = DefaultRemotePath
	}
	return &Service{
		hris:     h,
		state:    st,
		uploader: up,
		opts:     opts,
		log:      *logger.Named("snapshot"),
		now:      time.Now,
	}
}
