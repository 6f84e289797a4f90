package sources

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/knadh/go-pop3"

	"github.com/stacklok/docsource-server/internal/logger"
)

const (
	fieldTimeout = "timeout"

	defaultPOP3Timeout = 60
)

// POP3Client is the subset of a POP3 connection the backend uses
type POP3Client interface {
	Auth(user, password string) error
	List(msgID int) ([]pop3.MessageID, error)
	RetrRaw(msgID int) (*bytes.Buffer, error)
	Dele(msgID ...int) error
	Quit() error
}

// POP3Dialer opens a POP3 connection
type POP3Dialer func(ctx context.Context, host string, port int, useTLS bool, timeout time.Duration) (POP3Client, error)

// DialPOP3 connects with the go-pop3 client
func DialPOP3(_ context.Context, host string, port int, useTLS bool, timeout time.Duration) (POP3Client, error) {
	p := pop3.New(pop3.Opt{
		Host:        host,
		Port:        port,
		TLSEnabled:  useTLS,
		DialTimeout: timeout,
	})
	c, err := p.NewConn()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func pop3Schema() Schema {
	return emailSchema(Schema{
		Fields: map[string]Field{
			fieldTimeout: {
				Label:    "Timeout",
				Class:    FieldInteger,
				Default:  defaultPOP3Timeout,
				Required: true,
				MinValue: minValue(1),
			},
		},
		FieldOrder: []string{fieldTimeout},
	})
}

// POP3EmailBackend polls a POP3 mailbox
type POP3EmailBackend struct {
	email
}

// POP3EmailBackendInfo describes the POP3 backend
func POP3EmailBackendInfo() *BackendInfo {
	schema := pop3Schema()
	return &BackendInfo{
		Label:      "POP3 email",
		Schema:     schema,
		Periodic:   true,
		Compressed: true,
		New: func(src *Source, env *Env) (Backend, error) {
			return &POP3EmailBackend{email{periodic{base: newBase(src, env, schema)}}}, nil
		},
		Validate: validateEmail,
	}
}

// ProcessDocuments queues the documents of every message and deletes it
func (b *POP3EmailBackend) ProcessDocuments(ctx context.Context, opts ProcessOptions) (*ProcessResult, error) {
	dial := b.env.POP3Dialer
	if dial == nil {
		dial = DialPOP3
	}
	host := b.data.String(fieldHost)
	port := b.port(110, 995)
	timeout := time.Duration(b.data.Int(fieldTimeout)) * time.Second
	addr := fmt.Sprintf("%s:%d", host, port)

	c, err := connect(ctx, addr, func() (POP3Client, error) {
		return dial(ctx, host, port, b.useTLS(), timeout)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer func() {
		if err := c.Quit(); err != nil {
			logger.Debugf("POP3 quit from %s: %v", addr, err)
		}
	}()

	if err := c.Auth(b.data.String(fieldUsername), b.data.String(fieldPassword)); err != nil {
		return nil, fmt.Errorf("POP3 login failed: %w", err)
	}

	messages, err := c.List(0)
	if err != nil {
		return nil, fmt.Errorf("POP3 list failed: %w", err)
	}
	logger.Debugf("Source %d: %d messages", b.source.ID, len(messages))

	result := &ProcessResult{}
	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		raw, err := c.RetrRaw(msg.ID)
		if err != nil {
			return result, fmt.Errorf("failed to retrieve message %d: %w", msg.ID, err)
		}
		n, err := b.processMessage(ctx, b, raw)
		result.DocumentsQueued += n
		if err != nil {
			return result, err
		}

		if opts.TestMode {
			continue
		}
		if err := c.Dele(msg.ID); err != nil {
			return result, fmt.Errorf("failed to delete message %d: %w", msg.ID, err)
		}
	}
	return result, nil
}
