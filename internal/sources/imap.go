package sources

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"github.com/stacklok/docsource-server/internal/logger"
)

const (
	fieldMailbox            = "mailbox"
	fieldSearchCriteria     = "search_criteria"
	fieldStoreCommands      = "store_commands"
	fieldMailboxDestination = "mailbox_destination"
	fieldExecuteExpunge     = "execute_expunge"

	defaultMailbox        = "INBOX"
	defaultSearchCriteria = "NOT DELETED"
	defaultStoreCommands  = `+FLAGS (\Deleted)`
)

// IMAPClient is the subset of an IMAP client the backend uses
type IMAPClient interface {
	Login(username, password string) error
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	UidSearch(criteria *imap.SearchCriteria) ([]uint32, error)
	UidFetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	UidStore(seqset *imap.SeqSet, item imap.StoreItem, value interface{}, ch chan *imap.Message) error
	UidCopy(seqset *imap.SeqSet, dest string) error
	Expunge(ch chan uint32) error
	Logout() error
}

// IMAPDialer opens an IMAP connection
type IMAPDialer func(ctx context.Context, addr string, useTLS bool) (IMAPClient, error)

// DialIMAP connects with the go-imap client
func DialIMAP(_ context.Context, addr string, useTLS bool) (IMAPClient, error) {
	var (
		c   *client.Client
		err error
	)
	if useTLS {
		c, err = client.DialTLS(addr, nil)
	} else {
		c, err = client.Dial(addr)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func imapSchema() Schema {
	return emailSchema(Schema{
		Fields: map[string]Field{
			fieldMailbox: {
				Label:     "Mailbox",
				HelpText:  "IMAP Mailbox from which to check for messages.",
				Class:     FieldString,
				Default:   defaultMailbox,
				Required:  true,
				MaxLength: 64,
			},
			fieldSearchCriteria: {
				Label: "Search criteria",
				HelpText: "Criteria to use when searching for messages to process. " +
					"Use the format specified in https://tools.ietf.org/html/rfc2060.html#section-6.4.4",
				Class:   FieldString,
				Default: defaultSearchCriteria,
			},
			fieldStoreCommands: {
				Label: "Store commands",
				HelpText: "IMAP STORE command to execute on messages after they are processed. " +
					"One command per line. Use the commands specified in " +
					"https://tools.ietf.org/html/rfc2060.html#section-6.4.6 or the custom commands for your IMAP server.",
				Class:   FieldString,
				Default: defaultStoreCommands,
			},
			fieldMailboxDestination: {
				Label: "Destination mailbox",
				HelpText: "IMAP Mailbox to which processed messages will be copied. " +
					"Leave blank to skip copying.",
				Class:     FieldString,
				MaxLength: 96,
			},
			fieldExecuteExpunge: {
				Label: "Execute expunge",
				HelpText: "Execute the IMAP expunge command once all messages are processed.",
				Class:   FieldBoolean,
				Default: true,
			},
		},
		FieldOrder: []string{
			fieldMailbox, fieldSearchCriteria, fieldStoreCommands, fieldMailboxDestination, fieldExecuteExpunge,
		},
	})
}

// IMAPEmailBackend polls an IMAP mailbox
type IMAPEmailBackend struct {
	email
}

// IMAPEmailBackendInfo describes the IMAP backend
func IMAPEmailBackendInfo() *BackendInfo {
	schema := imapSchema()
	return &BackendInfo{
		Label:      "IMAP email",
		Schema:     schema,
		Periodic:   true,
		Compressed: true,
		New: func(src *Source, env *Env) (Backend, error) {
			return &IMAPEmailBackend{email{periodic{base: newBase(src, env, schema)}}}, nil
		},
		Validate: func(ctx context.Context, env *Env, data Data) error {
			if _, err := ParseSearchCriteria(data.String(fieldSearchCriteria)); err != nil {
				return NewValidationError(fieldSearchCriteria, err.Error())
			}
			if _, err := ParseStoreCommands(data.String(fieldStoreCommands)); err != nil {
				return NewValidationError(fieldStoreCommands, err.Error())
			}
			return validateEmail(ctx, env, data)
		},
	}
}

// ParseSearchCriteria parses an IMAP SEARCH key list such as "NOT DELETED"
func ParseSearchCriteria(text string) (*imap.SearchCriteria, error) {
	criteria := imap.NewSearchCriteria()
	text = strings.TrimSpace(text)
	if text == "" {
		return criteria, nil
	}

	r := imap.NewReader(bufio.NewReader(strings.NewReader(text + "\r\n")))
	fields, err := r.ReadLine()
	if err != nil {
		return nil, fmt.Errorf("invalid search criteria: %w", err)
	}
	if err := criteria.ParseWithCharset(fields, nil); err != nil {
		return nil, fmt.Errorf("invalid search criteria: %w", err)
	}
	return criteria, nil
}

// StoreCommand is one IMAP STORE data item and its flags
type StoreCommand struct {
	Item  imap.StoreItem
	Flags []interface{}
}

// ParseStoreCommands parses one "ITEM (FLAGS...)" command per line
func ParseStoreCommands(text string) ([]StoreCommand, error) {
	var commands []StoreCommand
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		item, rest, _ := strings.Cut(line, " ")
		switch strings.TrimSuffix(strings.ToUpper(strings.TrimLeft(item, "+-")), ".SILENT") {
		case "FLAGS", "X-GM-LABELS":
		default:
			return nil, fmt.Errorf("unsupported store item %q", item)
		}

		rest = strings.TrimSpace(rest)
		rest = strings.TrimSuffix(strings.TrimPrefix(rest, "("), ")")
		flags := make([]interface{}, 0)
		for _, flag := range strings.Fields(rest) {
			flags = append(flags, flag)
		}
		commands = append(commands, StoreCommand{Item: imap.StoreItem(strings.ToUpper(item)), Flags: flags})
	}
	return commands, nil
}

// ProcessDocuments queues the documents of every matching message
func (b *IMAPEmailBackend) ProcessDocuments(ctx context.Context, opts ProcessOptions) (*ProcessResult, error) {
	criteria, err := ParseSearchCriteria(b.data.String(fieldSearchCriteria))
	if err != nil {
		return nil, err
	}
	commands, err := ParseStoreCommands(b.data.String(fieldStoreCommands))
	if err != nil {
		return nil, err
	}

	dial := b.env.IMAPDialer
	if dial == nil {
		dial = DialIMAP
	}
	addr := net.JoinHostPort(b.data.String(fieldHost), strconv.Itoa(b.port(143, 993)))

	c, err := connect(ctx, addr, func() (IMAPClient, error) {
		return dial(ctx, addr, b.useTLS())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer func() {
		if err := c.Logout(); err != nil {
			logger.Debugf("IMAP logout from %s: %v", addr, err)
		}
	}()

	if err := c.Login(b.data.String(fieldUsername), b.data.String(fieldPassword)); err != nil {
		return nil, fmt.Errorf("IMAP login failed: %w", err)
	}
	if _, err := c.Select(b.data.String(fieldMailbox), opts.TestMode); err != nil {
		return nil, fmt.Errorf("failed to select mailbox %s: %w", b.data.String(fieldMailbox), err)
	}

	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("IMAP search failed: %w", err)
	}
	logger.Debugf("Source %d: %d messages match", b.source.ID, len(uids))

	result := &ProcessResult{}
	for _, uid := range uids {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		body, err := fetchMessage(c, uid)
		if err != nil {
			return result, err
		}
		n, err := b.processMessage(ctx, b, bytes.NewReader(body))
		result.DocumentsQueued += n
		if err != nil {
			return result, err
		}

		if opts.TestMode {
			continue
		}
		if err := b.finish(c, uid, commands); err != nil {
			return result, err
		}
	}

	if !opts.TestMode && b.data.Bool(fieldExecuteExpunge) {
		if err := c.Expunge(nil); err != nil {
			return result, fmt.Errorf("IMAP expunge failed: %w", err)
		}
	}
	return result, nil
}

// finish applies the store commands and copies the message to the destination mailbox
func (b *IMAPEmailBackend) finish(c IMAPClient, uid uint32, commands []StoreCommand) error {
	seqset := new(imap.SeqSet)
	seqset.AddNum(uid)

	for _, cmd := range commands {
		if err := c.UidStore(seqset, cmd.Item, cmd.Flags, nil); err != nil {
			return fmt.Errorf("failed to store %s on message %d: %w", cmd.Item, uid, err)
		}
	}
	if dest := b.data.String(fieldMailboxDestination); dest != "" {
		if err := c.UidCopy(seqset, dest); err != nil {
			return fmt.Errorf("failed to copy message %d to %s: %w", uid, dest, err)
		}
	}
	return nil
}

func fetchMessage(c IMAPClient, uid uint32) ([]byte, error) {
	seqset := new(imap.SeqSet)
	seqset.AddNum(uid)
	section := &imap.BodySectionName{Peek: true}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, []imap.FetchItem{section.FetchItem()}, messages)
	}()

	var (
		body    []byte
		readErr error
	)
	for msg := range messages {
		literal := msg.GetBody(section)
		if literal == nil || readErr != nil {
			continue
		}
		body, readErr = io.ReadAll(literal)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch message %d: %w", uid, err)
	}
	if readErr != nil {
		return nil, fmt.Errorf("failed to read message %d: %w", uid, readErr)
	}
	if body == nil {
		return nil, fmt.Errorf("message %d has no body", uid)
	}
	return body, nil
}
