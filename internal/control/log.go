package control

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/basoka/fleet/internal/registry"
)

const (
	// DefaultLogLines is the line count used when the operator input is
	// missing or invalid.
	DefaultLogLines = 50
	// MaxLogLines caps the requested line count.
	MaxLogLines = 500
	// DisplayLimit is the character ceiling for rendered log text; longer
	// content is truncated keeping the tail.
	DisplayLimit = 4000
)

// textArtifact is the archive entry rendered as the bundle's log text.
const textArtifact = "login_process.log"

var zipMagic = []byte("PK\x03\x04")

// ParseLines interprets operator input for the log line count. Non-numeric
// or out-of-range values silently fall back to the default.
func ParseLines(input string) int {
	input = strings.TrimSpace(input)
	if input == "" {
		return DefaultLogLines
	}
	n, err := strconv.Atoi(input)
	if err != nil || n <= 0 || n > MaxLogLines {
		return DefaultLogLines
	}
	return n
}

// Bundle holds log data fetched from one server: either plain text from a
// JSON payload, or named artifacts extracted from an archive (in which case
// Text carries the main process log when present).
type Bundle struct {
	Text       string
	LinesCount int
	Artifacts  map[string][]byte
}

// Log fetches the server's log bundle. Unlike status, a missing or failed
// bundle is an explicit error, not a degraded result.
func (c *Client) Log(ctx context.Context, srv registry.Server, lines string) (Bundle, error) {
	rawURL := c.cfg.URLFor(srv.Address, c.cfg.Endpoints.Log) + "?lines=" + strconv.Itoa(ParseLines(lines))
	body, err := c.do(ctx, http.MethodGet, c.cfg.Endpoints.Log, rawURL)
	if err != nil {
		return Bundle{}, err
	}

	if bytes.HasPrefix(body, zipMagic) {
		return readArchive(body)
	}

	var payload struct {
		Log        string `json:"log"`
		LinesCount int    `json:"lines_count"`
		Error      string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Bundle{}, fmt.Errorf("control: unrecognized log payload from %q: %w", srv.Name, err)
	}
	if payload.Error != "" {
		return Bundle{}, fmt.Errorf("control: remote log error from %q: %s", srv.Name, payload.Error)
	}
	return Bundle{Text: payload.Log, LinesCount: payload.LinesCount}, nil
}

func readArchive(body []byte) (Bundle, error) {
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return Bundle{}, fmt.Errorf("control: read log archive: %w", err)
	}

	bundle := Bundle{Artifacts: make(map[string][]byte, len(zr.File))}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return Bundle{}, fmt.Errorf("control: open artifact %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return Bundle{}, fmt.Errorf("control: read artifact %s: %w", f.Name, err)
		}
		bundle.Artifacts[path.Base(f.Name)] = data
	}

	if text, ok := bundle.Artifacts[textArtifact]; ok {
		bundle.Text = string(text)
	}
	return bundle, nil
}

// TruncateTail keeps the trailing max characters of s for display.
func TruncateTail(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[len(runes)-max:])
}
