package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/closedloop-vr/ballrig/internal/geo"
	"github.com/closedloop-vr/ballrig/pkg/core"
)

// SessionExport is the root JSON structure of an exported session.
type SessionExport struct {
	RigName        string              `json:"rigName"`
	StartTime      string              `json:"startTime"`
	EndTime        string              `json:"endTime"`
	SiteWKT        string              `json:"siteWkt,omitempty"`
	ConfigSnapshot map[string]any      `json:"configSnapshot,omitempty"`
	EndFrame       int64               `json:"endFrame"`
	PathWKT        string              `json:"pathWkt,omitempty"`
	Frames         []core.FrameRecord  `json:"frames"`
	HeadingEvents  []core.HeadingEvent `json:"headingEvents,omitempty"`
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// exportJSON writes the session data to a JSON file. Caller holds b.mu.
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	rigName := strings.ReplaceAll(b.info.RigName, " ", "_")
	rigName = strings.ReplaceAll(rigName, ":", "_")
	timestamp := b.info.StartTime.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", rigName, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", rigName, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		if err := writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	if b.logger != nil {
		b.logger.Info("Exported session", "path", outputPath, "frames", len(export.Frames))
	}
	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() SessionExport {
	export := SessionExport{
		RigName:        b.info.RigName,
		StartTime:      b.info.StartTime.Format(timeLayout),
		SiteWKT:        b.info.SiteWKT,
		ConfigSnapshot: b.info.ConfigSnapshot,
		Frames:         b.frames,
		HeadingEvents:  b.headingEvents,
	}
	if !b.info.EndTime.IsZero() {
		export.EndTime = b.info.EndTime.Format(timeLayout)
	}

	positions := make([]core.Vec3, 0, len(b.frames))
	for i := range b.frames {
		f := &b.frames[i]
		if f.Frame > export.EndFrame {
			export.EndFrame = f.Frame
		}
		if f.HasMotion() {
			positions = append(positions, f.Pose.Position)
		}
	}
	export.PathWKT = geo.PathWKT(positions)

	return export
}

// ReadExport loads a session export, transparently un-gzipping .gz files.
func ReadExport(path string) (*SessionExport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export: %w", err)
	}
	defer f.Close()

	var decoder *json.Decoder
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read gzip export: %w", err)
		}
		defer gz.Close()
		decoder = json.NewDecoder(gz)
	} else {
		decoder = json.NewDecoder(f)
	}

	var export SessionExport
	if err := decoder.Decode(&export); err != nil {
		return nil, fmt.Errorf("failed to decode export: %w", err)
	}
	return &export, nil
}

func writeJSON(path string, data SessionExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data SessionExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}
