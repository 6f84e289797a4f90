package sources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"sort"
	"strings"

	"github.com/cenkalti/backoff/v5"
	_ "github.com/emersion/go-message/charset" // decodes non UTF-8 message charsets
	"github.com/emersion/go-message/mail"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/docsource-server/internal/documents"
	"github.com/stacklok/docsource-server/internal/logger"
)

const (
	fieldHost                   = "host"
	fieldSSL                    = "ssl"
	fieldPort                   = "port"
	fieldUsername               = "username"
	fieldPassword               = "password"
	fieldMetadataAttachmentName = "metadata_attachment_name"
	fieldFromMetadataTypeID     = "from_metadata_type_id"
	fieldSubjectMetadataTypeID  = "subject_metadata_type_id"
	fieldStoreBody              = "store_body"

	// DefaultMetadataAttachmentName is the attachment holding per message metadata
	DefaultMetadataAttachmentName = "metadata.yaml"

	bodyFilenameText = "email_message.txt"
	bodyFilenameHTML = "email_message.html"

	connectAttempts = 3
)

func emailFields() Schema {
	return Schema{
		Fields: map[string]Field{
			fieldHost: {
				Label:     "Host",
				Class:     FieldString,
				Required:  true,
				MaxLength: 128,
			},
			fieldSSL: {
				Label:   "SSL",
				Class:   FieldBoolean,
				Default: true,
			},
			fieldPort: {
				Label: "Port",
				HelpText: "Typical choices are 110 for POP3, 995 for POP3 over SSL, " +
					"143 for IMAP, 993 for IMAP over SSL.",
				Class:    FieldInteger,
				MinValue: minValue(0),
			},
			fieldUsername: {
				Label:     "Username",
				Class:     FieldString,
				Required:  true,
				MaxLength: 128,
			},
			fieldPassword: {
				Label:     "Password",
				Class:     FieldPassword,
				Required:  true,
				MaxLength: 128,
			},
			fieldMetadataAttachmentName: {
				Label: "Metadata attachment name",
				HelpText: "Name of the attachment that will contains the metadata type names and value " +
					"pairs to be assigned to the rest of the downloaded attachments.",
				Class:     FieldString,
				Default:   DefaultMetadataAttachmentName,
				Required:  true,
				MaxLength: 128,
			},
			fieldFromMetadataTypeID: {
				Label:    "From metadata type",
				HelpText: "Select a metadata type to store the email's \"from\" value. Must be a valid metadata type for the document type selected previously.",
				Class:    FieldInteger,
				MinValue: minValue(1),
			},
			fieldSubjectMetadataTypeID: {
				Label:    "Subject metadata type",
				HelpText: "Select a metadata type to store the email's subject value. Must be a valid metadata type for the document type selected previously.",
				Class:    FieldInteger,
				MinValue: minValue(1),
			},
			fieldStoreBody: {
				Label:    "Store email body",
				HelpText: "Store the body of the email as a text document.",
				Class:    FieldBoolean,
				Default:  true,
			},
		},
		Widgets: map[string]string{fieldPassword: "password"},
		FieldOrder: []string{
			fieldHost, fieldSSL, fieldPort, fieldUsername, fieldPassword, fieldMetadataAttachmentName,
			fieldFromMetadataTypeID, fieldSubjectMetadataTypeID, fieldStoreBody,
		},
	}
}

func emailSchema(extra Schema) Schema {
	return emailFields().merge(extra).merge(periodicFields()).merge(compressedFields(UncompressNever))
}

// validateEmail checks that the from and subject metadata types belong to the document type
func validateEmail(ctx context.Context, env *Env, data Data) error {
	docType, err := validateDocumentType(ctx, env, data)
	if err != nil || docType == nil {
		return err
	}

	result := &ValidationError{}
	for field, name := range map[string]string{
		fieldFromMetadataTypeID:    "From",
		fieldSubjectMetadataTypeID: "Subject",
	} {
		if !data.Has(field) {
			continue
		}
		id := data.Int(field)
		if docType.HasMetadataType(id) {
			continue
		}
		label := fmt.Sprint(id)
		if mt, err := env.Documents.GetMetadataType(ctx, id); err == nil {
			label = mt.Label
		}
		result.Add(field, fmt.Sprintf(
			"%s metadata type %q is not valid for the document type: %s", name, label, docType.Label,
		))
	}
	if result.Empty() {
		return nil
	}
	return result
}

// email holds what IMAP and POP3 share
type email struct {
	periodic
}

func (e email) useTLS() bool {
	return e.data.Bool(fieldSSL)
}

func (e email) port(plain, secure int) int {
	if e.data.Has(fieldPort) && e.data.Int(fieldPort) > 0 {
		return int(e.data.Int(fieldPort))
	}
	if e.useTLS() {
		return secure
	}
	return plain
}

// connect retries dial with exponential backoff
func connect[T any](ctx context.Context, what string, dial func() (T, error)) (T, error) {
	return backoff.Retry(ctx, func() (T, error) {
		c, err := dial()
		if err != nil {
			logger.Warnf("Failed to connect to %s: %v", what, err)
		}
		return c, err
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(connectAttempts))
}

type attachment struct {
	filename string
	content  []byte
}

// processMessage queues the documents of one RFC 5322 message
func (e email) processMessage(ctx context.Context, self Backend, r io.Reader) (int, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return 0, fmt.Errorf("failed to parse message: %w", err)
	}
	defer mr.Close()

	metadataName := e.data.String(fieldMetadataAttachmentName)
	var (
		files    []attachment
		metadata []documents.MetadataValue
		text     []byte
		html     []byte
	)

	for n := 1; ; n++ {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read message part: %w", err)
		}

		content, err := io.ReadAll(part.Body)
		if err != nil {
			return 0, fmt.Errorf("failed to read message part: %w", err)
		}

		var filename string
		switch h := part.Header.(type) {
		case *mail.AttachmentHeader:
			filename, _ = h.Filename()
			if filename == "" {
				filename = fmt.Sprintf("attachment-%d", n)
			}
		case *mail.InlineHeader:
			contentType, params, _ := h.ContentType()
			switch {
			case contentType == "text/plain" && text == nil:
				text = content
				continue
			case contentType == "text/html" && html == nil:
				html = content
				continue
			case strings.HasPrefix(contentType, "text/") || strings.HasPrefix(contentType, "multipart/"):
				continue
			}
			filename = params["name"]
			if filename == "" {
				filename = fmt.Sprintf("attachment-%d%s", n, extensionFor(contentType))
			}
		}

		if filename == metadataName {
			values, err := e.parseMetadata(ctx, content)
			if err != nil {
				return 0, err
			}
			metadata = append(metadata, values...)
			continue
		}
		files = append(files, attachment{filename: filename, content: content})
	}

	if e.data.Bool(fieldStoreBody) {
		switch {
		case text != nil:
			files = append(files, attachment{filename: bodyFilenameText, content: text})
		case html != nil:
			files = append(files, attachment{filename: bodyFilenameHTML, content: html})
		}
	}

	metadata = append(metadata, e.headerMetadata(mr.Header)...)

	queued := 0
	for _, f := range files {
		req := e.queueRequest(f.filename)
		req.Metadata = metadata
		file := IncomingFile{
			Filename: f.filename,
			Open:     func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(f.content)), nil },
		}
		if err := e.queue(ctx, self, file, req); err != nil {
			return queued, err
		}
		queued++
	}
	return queued, nil
}

func (e email) headerMetadata(h mail.Header) []documents.MetadataValue {
	var values []documents.MetadataValue
	if e.data.Has(fieldFromMetadataTypeID) {
		from, err := h.Text("From")
		if err != nil {
			from = h.Get("From")
		}
		values = append(values, documents.MetadataValue{MetadataTypeID: e.data.Int(fieldFromMetadataTypeID), Value: from})
	}
	if e.data.Has(fieldSubjectMetadataTypeID) {
		subject, err := h.Subject()
		if err != nil {
			subject = h.Get("Subject")
		}
		values = append(values, documents.MetadataValue{MetadataTypeID: e.data.Int(fieldSubjectMetadataTypeID), Value: subject})
	}
	return values
}

// parseMetadata reads a YAML mapping of metadata type names to values
func (e email) parseMetadata(ctx context.Context, content []byte) ([]documents.MetadataValue, error) {
	raw := map[string]any{}
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse metadata attachment: %w", err)
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	values := make([]documents.MetadataValue, 0, len(raw))
	for _, name := range names {
		value := raw[name]
		mt, err := e.env.Documents.GetMetadataTypeByName(ctx, name)
		if errors.Is(err, documents.ErrMetadataTypeNotFound) {
			logger.Warnf("Source %d: ignoring unknown metadata type %q", e.source.ID, name)
			continue
		}
		if err != nil {
			return nil, err
		}
		values = append(values, documents.MetadataValue{MetadataTypeID: mt.ID, Value: fmt.Sprint(value)})
	}
	return values, nil
}

func extensionFor(contentType string) string {
	exts, err := mime.ExtensionsByType(contentType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}
