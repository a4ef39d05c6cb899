package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"downfall/internal/config"
)

var ErrInvalidFormat = errors.New("invalid lockfile format")

// Lockfile is the credential record the game client writes while it is running.
type Lockfile struct {
	Name     string
	PID      int
	Port     int
	Password string
	Protocol string
}

type Reader struct {
	path string
}

func NewReader(cfg *config.Config) *Reader {
	path := cfg.LockfilePath
	if path == "" {
		path = DefaultPath()
	}
	return &Reader{path: path}
}

func DefaultPath() string {
	return filepath.Join(os.Getenv("LOCALAPPDATA"), "Riot Games", "Riot Client", "Config", "lockfile")
}

func (r *Reader) Path() string {
	return r.path
}

func (r *Reader) Read() (Lockfile, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return Lockfile{}, fmt.Errorf("failed to read lockfile: %w", err)
	}
	return Parse(string(raw))
}

// Parse decodes "name:pid:port:password:protocol".
func Parse(raw string) (Lockfile, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 5 {
		return Lockfile{}, ErrInvalidFormat
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return Lockfile{}, fmt.Errorf("%w: pid: %v", ErrInvalidFormat, err)
	}
	port, err := strconv.ParseUint(parts[2], 10, 16)
	if err != nil {
		return Lockfile{}, fmt.Errorf("%w: port: %v", ErrInvalidFormat, err)
	}

	return Lockfile{
		Name:     parts[0],
		PID:      pid,
		Port:     int(port),
		Password: parts[3],
		Protocol: parts[4],
	}, nil
}
