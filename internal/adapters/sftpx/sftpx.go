// Package sftpx uploads snapshot files over SFTP with key or password auth
package sftpx

import (
	"context"
	"io"
	"net"
	"path"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	perr "hrhub/internal/platform/errors"
	"hrhub/internal/platform/logger"
)

const dialTimeout = 15 * time.Second

// Options configures an upload target
type Options struct {
	Host     string
	Port     string
	Username string

	// PrivateKeyPEM takes precedence over Password. Ed25519 and RSA keys
	// are accepted, optionally protected by Passphrase
	PrivateKeyPEM string
	Passphrase    string
	Password      string

	// InsecureHostKey skips host key verification; HostKeyCallback wins
	// when both are set
	HostKeyCallback ssh.HostKeyCallback
}

// Uploader writes files onto one SFTP host
type Uploader struct {
	opts Options
	log  logger.Logger

	// dial is swappable for tests
	dial func(ctx context.Context, addr string, cfg *ssh.ClientConfig) (*ssh.Client, error)
}

// New creates an Uploader
func New(o Options) *Uploader {
	return &Uploader{
		opts: o,
		log:  *logger.Named("sftp"),
		dial: dialSSH,
	}
}

// signer parses the private key, trying Ed25519/RSA unencrypted first and the
// passphrase variant when the key is protected
func signer(pem, passphrase string) (ssh.Signer, error) {
	if passphrase != "" {
		s, err := ssh.ParsePrivateKeyWithPassphrase([]byte(pem), []byte(passphrase))
		if err == nil {
			return s, nil
		}
	}
	s, err := ssh.ParsePrivateKey([]byte(pem))
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "sftp private key parse failed")
	}
	return s, nil
}

func (u *Uploader) clientConfig() (*ssh.ClientConfig, error) {
	if u.opts.Host == "" || u.opts.Username == "" {
		return nil, perr.InvalidArgf("sftp host and username are required")
	}

	var auth []ssh.AuthMethod
	switch {
	case u.opts.PrivateKeyPEM != "":
		s, err := signer(u.opts.PrivateKeyPEM, u.opts.Passphrase)
		if err != nil {
			return nil, err
		}
		auth = append(auth, ssh.PublicKeys(s))
	case u.opts.Password != "":
		auth = append(auth, ssh.Password(u.opts.Password))
	default:
		return nil, perr.InvalidArgf("sftp needs a private key or a password")
	}

	hostKey := u.opts.HostKeyCallback
	if hostKey == nil {
		hostKey = ssh.InsecureIgnoreHostKey() // #nosec G106 -- fixed partner host, key rotated by them
	}
	return &ssh.ClientConfig{
		User:            u.opts.Username,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         dialTimeout,
	}, nil
}

func (u *Uploader) addr() string {
	host := strings.TrimSuffix(strings.TrimSpace(u.opts.Host), ".")
	port := u.opts.Port
	if port == "" {
		port = "22"
	}
	return net.JoinHostPort(host, port)
}

func dialSSH(ctx context.Context, addr string, cfg *ssh.ClientConfig) (*ssh.Client, error) {
	d := net.Dialer{Timeout: cfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return ssh.NewClient(c, chans, reqs), nil
}

// Upload streams the reader into remotePath, creating parent directories as
// needed. The write replaces the remote file in place
func (u *Uploader) Upload(ctx context.Context, remotePath string, r io.Reader) (int64, error) {
	cfg, err := u.clientConfig()
	if err != nil {
		return 0, err
	}

	conn, err := u.dial(ctx, u.addr(), cfg)
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeUnavailable, "sftp dial %s failed", u.addr())
	}
	defer func() { _ = conn.Close() }()

	client, err := sftp.NewClient(conn)
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeUnavailable, "sftp session failed")
	}
	defer func() { _ = client.Close() }()

	if err := ensureDirs(client, path.Dir(remotePath)); err != nil {
		return 0, err
	}

	f, err := client.Create(remotePath)
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeUpstream, "sftp create %s failed", remotePath)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, perr.Wrapf(err, perr.ErrorCodeUpstream, "sftp write %s failed", remotePath)
	}
	u.log.Info().Str("remote_path", remotePath).Int64("bytes", n).Msg("sftp upload complete")
	return n, nil
}

// ensureDirs mkdirs each missing segment of dir. The root needs nothing
func ensureDirs(client *sftp.Client, dir string) error {
	if dir == "" || dir == "/" || dir == "." {
		return nil
	}
	var cur string
	for _, seg := range strings.Split(strings.Trim(dir, "/"), "/") {
		cur += "/" + seg
		if _, err := client.Stat(cur); err == nil {
			continue
		}
		if err := client.Mkdir(cur); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeUpstream, "sftp mkdir %s failed", cur)
		}
	}
	return nil
}
