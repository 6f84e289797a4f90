package sources

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/stacklok/docsource-server/internal/ingest"
	"github.com/stacklok/docsource-server/internal/logger"
)

const (
	fieldDeviceName = "device_name"
	fieldMode       = "mode"
	fieldResolution = "resolution"
	fieldSource     = "source"
	fieldADFMode    = "adf_mode"

	scanFilename = "scan.tiff"
)

func saneScannerSchema() Schema {
	return Schema{
		Fields: map[string]Field{
			fieldDeviceName: {
				Label:     "Device name",
				HelpText:  "Device name as returned by the SANE backend.",
				Class:     FieldString,
				Required:  true,
				MaxLength: 255,
			},
			fieldMode: {
				Label: "Mode",
				HelpText: "Selects the scan mode (e.g., lineart, monochrome, or color). " +
					"If this option is not supported by your scanner, leave it blank.",
				Class:   FieldChoice,
				Default: "color",
				Choices: []Choice{
					{Value: "", Label: "None"},
					{Value: "color", Label: "Color"},
					{Value: "lineart", Label: "Line art"},
					{Value: "gray", Label: "Gray"},
				},
			},
			fieldResolution: {
				Label: "Resolution",
				HelpText: "Sets the resolution of the scanned image in DPI (dots per inch). " +
					"Typical value is 200. If this option is not supported by your scanner, leave it blank.",
				Class:    FieldInteger,
				MinValue: minValue(0),
			},
			fieldSource: {
				Label: "Paper source",
				HelpText: "Selects the scan source (such as a document-feeder). " +
					"If this option is not supported by your scanner, leave it blank.",
				Class:     FieldString,
				MaxLength: 32,
			},
			fieldADFMode: {
				Label: "ADF mode",
				HelpText: "Selects the document feeder mode (simplex/duplex). " +
					"If this option is not supported by your scanner, leave it blank.",
				Class:     FieldString,
				MaxLength: 16,
			},
		},
		FieldOrder: []string{fieldDeviceName, fieldMode, fieldResolution, fieldSource, fieldADFMode},
	}
}

// SANEScannerBackend acquires images with scanimage
type SANEScannerBackend struct {
	base
}

// SANEScannerBackendInfo describes the scanner backend
func SANEScannerBackendInfo() *BackendInfo {
	schema := saneScannerSchema()
	return &BackendInfo{
		Label:       "SANE Scanner",
		Schema:      schema,
		Interactive: true,
		New: func(src *Source, env *Env) (Backend, error) {
			return &SANEScannerBackend{base: newBase(src, env, schema)}, nil
		},
	}
}

// Args returns the scanimage arguments for the source settings
func (b *SANEScannerBackend) Args() []string {
	args := []string{"-d", b.data.String(fieldDeviceName), "--format", "tiff"}
	if mode := b.data.String(fieldMode); mode != "" {
		args = append(args, "--mode", mode)
	}
	if b.data.Has(fieldResolution) {
		args = append(args, "--resolution", strconv.FormatInt(b.data.Int(fieldResolution), 10))
	}
	if source := b.data.String(fieldSource); source != "" {
		args = append(args, "--source", source)
	}
	if adf := b.data.String(fieldADFMode); adf != "" {
		args = append(args, "--adf-mode", adf)
	}
	return args
}

// Scan runs scanimage and returns the path of the acquired TIFF. The caller removes it.
func (b *SANEScannerBackend) Scan(ctx context.Context) (string, error) {
	out, err := os.CreateTemp("", "docsource-scan-*.tiff")
	if err != nil {
		return "", fmt.Errorf("failed to create scan file: %w", err)
	}
	defer out.Close()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, b.env.ScanimagePath, b.Args()...) //nolint:gosec // binary path comes from server configuration
	cmd.Stdout = out
	cmd.Stderr = &stderr

	logger.Debugf("Running %s %s", b.env.ScanimagePath, strings.Join(b.Args(), " "))
	if err := cmd.Run(); err != nil {
		_ = os.Remove(out.Name())
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("error while executing scanning command: %s", msg)
	}
	return out.Name(), nil
}

// Upload scans one image and queues it
func (b *SANEScannerBackend) Upload(ctx context.Context, req *UploadRequest) ([]*ingest.UploadTask, error) {
	path, err := b.Scan(ctx)
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	file := IncomingFile{
		Filename: scanFilename,
		Open:     func() (io.ReadCloser, error) { return os.Open(path) },
	}
	task, err := QueueUpload(ctx, b.env, b.source, b, file, req.queueRequest(false))
	if err != nil {
		return nil, err
	}
	return []*ingest.UploadTask{task}, nil
}
