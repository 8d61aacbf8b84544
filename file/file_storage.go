package file

import (
	"fmt"
	"io"
	"net/textproto"
	"os"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/pkg/errors"
)

type LocalFileSystem struct {
}

func (fs *LocalFileSystem) Exists(fileName string) (bool, error) {
	_, err := os.Stat(fileName)
	if err != nil && os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (fs *LocalFileSystem) Open(fileName string) (io.ReadCloser, error) {
	return os.Open(fileName)
}

func (fs *LocalFileSystem) Create(fileName string) (io.WriteCloser, error) {
	return os.Create(fileName)
}

// FTPFileSystem files on an ftp server, every Open or Create uses its own connection
type FTPFileSystem struct {
	Host        string
	Port        int
	User        string
	Password    string
	ConnTimeout time.Duration
}

func (fs *FTPFileSystem) connect() (*ftp.ServerConn, error) {
	timeout := fs.ConnTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c, err := ftp.Dial(fmt.Sprintf("%s:%d", fs.Host, fs.Port), ftp.DialWithTimeout(timeout))
	if err != nil {
		return nil, errors.Wrapf(err, "connect ftp server %v:%v", fs.Host, fs.Port)
	}
	if err = c.Login(fs.User, fs.Password); err != nil {
		c.Quit()
		return nil, errors.Wrapf(err, "login ftp server %v:%v", fs.Host, fs.Port)
	}
	return c, nil
}

func (fs *FTPFileSystem) Exists(fileName string) (bool, error) {
	c, err := fs.connect()
	if err != nil {
		return false, err
	}
	defer c.Quit()

	_, err = c.FileSize(fileName)
	if err == nil {
		return true, nil
	}
	if e, ok := err.(*textproto.Error); ok && e.Code == ftp.StatusFileUnavailable {
		return false, nil
	}
	return false, err
}

type ftpReader struct {
	conn *ftp.ServerConn
	resp *ftp.Response
}

func (r *ftpReader) Read(p []byte) (int, error) {
	return r.resp.Read(p)
}

func (r *ftpReader) Close() error {
	err := r.resp.Close()
	if e := r.conn.Quit(); e != nil && err == nil {
		err = e
	}
	return err
}

func (fs *FTPFileSystem) Open(fileName string) (io.ReadCloser, error) {
	c, err := fs.connect()
	if err != nil {
		return nil, err
	}
	resp, err := c.Retr(fileName)
	if err != nil {
		c.Quit()
		return nil, err
	}
	return &ftpReader{conn: c, resp: resp}, nil
}

// ftpWriter streams written bytes to a STOR command running in the background, Close waits for the upload
type ftpWriter struct {
	conn *ftp.ServerConn
	pw   *io.PipeWriter
	done chan error
}

func (w *ftpWriter) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

func (w *ftpWriter) Close() error {
	err := w.pw.Close()
	if e := <-w.done; e != nil && err == nil {
		err = e
	}
	if e := w.conn.Quit(); e != nil && err == nil {
		err = e
	}
	return err
}

func (fs *FTPFileSystem) Create(fileName string) (io.WriteCloser, error) {
	c, err := fs.connect()
	if err != nil {
		return nil, err
	}
	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		err := c.Stor(fileName, pr)
		pr.CloseWithError(err)
		done <- err
	}()
	return &ftpWriter{conn: c, pw: pw, done: done}, nil
}
