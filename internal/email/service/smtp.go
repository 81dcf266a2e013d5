package service

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/config"
	edomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/email/domain"
)

var _ edomain.Transport = (*SMTP)(nil)

type SMTP struct {
	cfg  config.Config
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

func NewSMTP(cfg config.Config) *SMTP {
	d := &net.Dialer{}
	return &SMTP{cfg: cfg, dial: d.DialContext}
}

func (s *SMTP) Name() string { return "smtp" }

// session dials the server and runs EHLO, STARTTLS and AUTH. The connection
// deadline follows ctx.
func (s *SMTP) session(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(s.cfg.SMTPHost, strconv.Itoa(s.cfg.SMTPPort))
	conn, err := s.dial(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("smtp dial %s: %w", addr, err)
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}
	c, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("smtp greeting: %w", err)
	}
	if err := c.Hello("localhost"); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("smtp ehlo: %w", err)
	}
	if s.cfg.SMTPStartTLS {
		if ok, _ := c.Extension("STARTTLS"); !ok {
			_ = c.Close()
			return nil, fmt.Errorf("smtp server does not offer STARTTLS")
		}
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.SMTPHost, MinVersion: tls.VersionTLS12}); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if s.cfg.SMTPUsername != "" {
		if err := c.Auth(smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("smtp auth: %w", err)
		}
	}
	return c, nil
}

func (s *SMTP) Verify(ctx context.Context) error {
	c, err := s.session(ctx)
	if err != nil {
		return err
	}
	return c.Quit()
}

func (s *SMTP) Send(ctx context.Context, env edomain.Envelope) (string, error) {
	msgID := "<" + uuid.NewString() + "@" + domainOf(env.From) + ">"
	msg, err := buildMIME(env, msgID, time.Now())
	if err != nil {
		return "", err
	}
	c, err := s.session(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = c.Close() }()
	if err := c.Mail(env.From); err != nil {
		return "", fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	if err := c.Rcpt(env.To); err != nil {
		return "", fmt.Errorf("smtp RCPT TO: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return "", fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return "", fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("smtp end of data: %w", err)
	}
	_ = c.Quit()
	return msgID, nil
}

func domainOf(addr string) string {
	if i := strings.LastIndex(addr, "@"); i >= 0 && i < len(addr)-1 {
		return addr[i+1:]
	}
	return "localhost"
}

// buildMIME renders a multipart/alternative message. Text is omitted when empty.
func buildMIME(env edomain.Envelope, msgID string, now time.Time) ([]byte, error) {
	var b bytes.Buffer
	boundary := "alt-" + strings.ReplaceAll(uuid.NewString(), "-", "")
	fmt.Fprintf(&b, "From: %s\r\n", env.From)
	fmt.Fprintf(&b, "To: %s\r\n", env.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", env.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Message-ID: %s\r\n", msgID)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	parts := []struct{ ctype, body string }{{"text/plain", env.Text}, {"text/html", env.HTML}}
	for _, p := range parts {
		if p.body == "" {
			continue
		}
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		fmt.Fprintf(&b, "Content-Type: %s; charset=utf-8\r\nContent-Transfer-Encoding: quoted-printable\r\n\r\n", p.ctype)
		qp := quotedprintable.NewWriter(&b)
		if _, err := qp.Write([]byte(p.body)); err != nil {
			return nil, err
		}
		if err := qp.Close(); err != nil {
			return nil, err
		}
		b.WriteString("\r\n")
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return b.Bytes(), nil
}
