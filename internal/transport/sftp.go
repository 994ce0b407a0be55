package transport

import (
	"io"
	"io/fs"
	"os"

	"github.com/pkg/sftp"
)

// sftpFS adapts an sftp client to core.FileSystem so steps can manipulate
// remote files the same way as local ones.
type sftpFS struct {
	client *sftp.Client
}

func (f *sftpFS) Stat(name string) (fs.FileInfo, error) {
	return f.client.Stat(name)
}

func (f *sftpFS) ReadFile(name string) ([]byte, error) {
	file, err := f.client.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func (f *sftpFS) WriteFile(name string, data []byte, perm os.FileMode) error {
	file, err := f.client.Create(name)
	if err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	return f.client.Chmod(name, perm)
}

func (f *sftpFS) MkdirAll(path string, perm os.FileMode) error {
	if err := f.client.MkdirAll(path); err != nil {
		return err
	}
	return f.client.Chmod(path, perm)
}

func (f *sftpFS) Remove(name string) error {
	return f.client.Remove(name)
}

func (f *sftpFS) Rename(oldpath, newpath string) error {
	return f.client.Rename(oldpath, newpath)
}

func (f *sftpFS) Chmod(name string, mode os.FileMode) error {
	return f.client.Chmod(name, mode)
}
