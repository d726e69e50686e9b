package adapter

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/cjbester78/h2h/server/model"
	"github.com/wneessen/go-mail"
)

// EmailAdapter delivers processed files as SMTP attachments. Receiver only;
// mailbox polling on the sender side is not implemented. Config keys:
// smtpHost, smtpPort, username, password, from, to, subject.
type EmailAdapter struct{}

var _ AdapterExecutor = new(EmailAdapter)

func NewEmailAdapter() *EmailAdapter {
	return &EmailAdapter{}
}

func (ea *EmailAdapter) Type() model.AdapterType {
	return model.ADAPTER_TYPE_EMAIL
}

func (ea *EmailAdapter) Direction() model.AdapterDirection {
	return model.DIRECTION_RECEIVER
}

func (ea *EmailAdapter) DiscoverFiles(ctx context.Context, cfg model.AdapterConfig, executionId string) ([]string, error) {
	return nil, ErrNotSupported
}

func (ea *EmailAdapter) ProcessFiles(ctx context.Context, cfg model.AdapterConfig, files []string, executionId string) ([]model.FileProcessingResult, error) {
	return nil, ErrNotSupported
}

type emailConnection struct {
	client  *mail.Client
	from    string
	to      string
	subject string
}

func (c *emailConnection) Close() error {
	return c.client.Close()
}

func newClient(cfg model.AdapterConfig) (*mail.Client, error) {
	host := cfg.Get("smtpHost")
	if host == "" {
		return nil, fmt.Errorf("email adapter: smtpHost not configured")
	}
	port, err := strconv.Atoi(cfg.GetDefault("smtpPort", "587"))
	if err != nil {
		return nil, fmt.Errorf("email adapter: bad smtpPort: %w", err)
	}
	opts := []mail.Option{mail.WithPort(port)}
	if user := cfg.Get("username"); user != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(user),
			mail.WithPassword(cfg.Get("password")),
		)
	}
	return mail.NewClient(host, opts...)
}

func (ea *EmailAdapter) Initialize(ctx context.Context, cfg model.AdapterConfig) (Connection, error) {
	if cfg.Get("from") == "" || cfg.Get("to") == "" {
		return nil, fmt.Errorf("email adapter: from/to not configured")
	}
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	if err := client.DialWithContext(ctx); err != nil {
		return nil, fmt.Errorf("email adapter: smtp dial: %w", err)
	}
	return &emailConnection{
		client:  client,
		from:    cfg.Get("from"),
		to:      cfg.Get("to"),
		subject: cfg.GetDefault("subject", "H2H file transfer"),
	}, nil
}

// UploadFile sends localPath as an attachment; remotePath becomes the
// attachment name.
func (ea *EmailAdapter) UploadFile(ctx context.Context, conn Connection, localPath string, remotePath string, executionId string) model.OperationResult {
	ec, ok := conn.(*emailConnection)
	if !ok {
		return model.OperationResult{Status: model.RESULT_FAILED, LocalPath: localPath, Error: "invalid connection handle"}
	}
	info, err := os.Stat(localPath)
	if err != nil {
		return model.OperationResult{Status: model.RESULT_FAILED, LocalPath: localPath, Error: err.Error()}
	}
	msg := mail.NewMsg()
	if err := msg.From(ec.from); err != nil {
		return model.OperationResult{Status: model.RESULT_FAILED, LocalPath: localPath, Error: err.Error()}
	}
	if err := msg.To(ec.to); err != nil {
		return model.OperationResult{Status: model.RESULT_FAILED, LocalPath: localPath, Error: err.Error()}
	}
	msg.Subject(ec.subject)
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf("File %s delivered by execution %s", remotePath, executionId))
	msg.AttachFile(localPath, mail.WithFileName(remotePath))
	if err := ec.client.Send(msg); err != nil {
		return model.OperationResult{Status: model.RESULT_FAILED, LocalPath: localPath, RemotePath: remotePath, Error: err.Error()}
	}
	return model.OperationResult{Status: model.RESULT_SUCCESS, LocalPath: localPath, RemotePath: remotePath, ByteCount: info.Size()}
}

func (ea *EmailAdapter) DownloadFile(ctx context.Context, conn Connection, remotePath string, localPath string, executionId string) model.OperationResult {
	return model.OperationResult{Status: model.RESULT_FAILED, RemotePath: remotePath, Error: ErrNotSupported.Error()}
}

func (ea *EmailAdapter) ListRemoteFiles(ctx context.Context, conn Connection, directory string) ([]model.RemoteFileDescriptor, error) {
	return nil, ErrNotSupported
}

func (ea *EmailAdapter) Cleanup(conn Connection) error {
	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (ea *EmailAdapter) TestConnection(ctx context.Context, cfg model.AdapterConfig) error {
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	if err := client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("email adapter: smtp dial: %w", err)
	}
	return client.Close()
}
