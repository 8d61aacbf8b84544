package file

import (
	"crypto/md5"
	"crypto/sha256"
	"fmt"
	"hash"
	"io"
	"strings"
)

//OKFlagChecksumer generate and verify an empty file with '.ok' suffix indicating the data file completed
type OKFlagChecksumer struct {
}

func (ch *OKFlagChecksumer) Verify(fd FileDescriptor) (bool, error) {
	fs := fd.FileStore
	ok, err := fs.Exists(fd.FileName)
	if err != nil || !ok {
		return false, err
	}
	return firstExisting(fs, checkFileNames(fd.FileName, "ok")...)
}

func (ch *OKFlagChecksumer) Checksum(fd FileDescriptor) error {
	w, err := fd.FileStore.Create(fd.FileName + ".ok")
	if err != nil {
		return err
	}
	return w.Close()
}

//MD5Checksumer generate and verify a check file containing the md5 digest of the data file
type MD5Checksumer struct {
}

func (ch *MD5Checksumer) Verify(fd FileDescriptor) (bool, error) {
	return verify(fd, MD5, md5.New())
}

func (ch *MD5Checksumer) Checksum(fd FileDescriptor) error {
	return checksum(fd, MD5, md5.New())
}

//SHA256Checksumer generate and verify a check file containing the sha-256 digest of the data file
type SHA256Checksumer struct {
}

func (ch *SHA256Checksumer) Verify(fd FileDescriptor) (bool, error) {
	return verify(fd, SHA256, sha256.New())
}

func (ch *SHA256Checksumer) Checksum(fd FileDescriptor) error {
	return checksum(fd, SHA256, sha256.New())
}

// checkFileNames candidates for the check file of fileName: data.csv.md5, data.csv.MD5, data.md5, data.MD5
func checkFileNames(fileName, suffix string) []string {
	names := []string{fileName + "." + strings.ToLower(suffix), fileName + "." + strings.ToUpper(suffix)}
	if dotIdx := strings.LastIndex(fileName, "."); dotIdx > 0 {
		names = append(names, fileName[0:dotIdx]+"."+strings.ToLower(suffix), fileName[0:dotIdx]+"."+strings.ToUpper(suffix))
	}
	return names
}

func firstExisting(fs FileStorage, names ...string) (bool, error) {
	_, ok, err := lookup(fs, names...)
	return ok, err
}

func lookup(fs FileStorage, names ...string) (string, bool, error) {
	for _, name := range names {
		ok, err := fs.Exists(name)
		if err != nil {
			return "", false, err
		}
		if ok {
			return name, true, nil
		}
	}
	return "", false, nil
}

func digestOf(fs FileStorage, fileName string, digest hash.Hash) (string, error) {
	reader, err := fs.Open(fileName)
	if err != nil {
		return "", err
	}
	defer reader.Close()
	if _, err = io.Copy(digest, reader); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", digest.Sum(nil)), nil
}

func verify(fd FileDescriptor, alg string, digest hash.Hash) (bool, error) {
	fs := fd.FileStore
	ok, err := fs.Exists(fd.FileName)
	if err != nil || !ok {
		return false, err
	}
	checkFile, ok, err := lookup(fs, checkFileNames(fd.FileName, alg)...)
	if err != nil || !ok {
		return false, err
	}
	//read checksum from check file
	checkReader, err := fs.Open(checkFile)
	if err != nil {
		return false, err
	}
	defer checkReader.Close()
	buf, err := io.ReadAll(checkReader)
	if err != nil {
		return false, err
	}
	fileHash, err := digestOf(fs, fd.FileName, digest)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(string(buf)) == fileHash, nil
}

func checksum(fd FileDescriptor, alg string, digest hash.Hash) error {
	fs := fd.FileStore
	fileHash, err := digestOf(fs, fd.FileName, digest)
	if err != nil {
		return err
	}
	w, err := fs.Create(fmt.Sprintf("%s.%s", fd.FileName, strings.ToLower(alg)))
	if err != nil {
		return err
	}
	_, err = w.Write([]byte(fileHash))
	if e := w.Close(); e != nil && err == nil {
		err = e
	}
	return err
}
