package file

import (
	"fmt"
	"io"
	"reflect"

	"github.com/pkg/errors"
)

const (
	CSV  = "csv"
	JSON = "json"
)

const (
	OKFlag = "OK"
	MD5    = "MD5"
	SHA256 = "SHA256"
)

// FileDescriptor describes a data file: where it lives, how items are encoded and how its integrity is checked
type FileDescriptor struct {
	FileStore FileStorage
	FileName  string
	//Type csv or json (one json document per line)
	Type string
	//Header csv only, the first row holds the field names
	Header bool
	//Fields csv only, written as header row; filled from the header row on read
	Fields []string
	//Checksum one of OKFlag, MD5, SHA256 or a registered checksumer name
	Checksum string
	//ItemPrototype json only, lines are decoded into a new value of this type instead of map[string]interface{}
	ItemPrototype interface{}
}

func (fd FileDescriptor) String() string {
	return storageName(fd.FileStore) + fd.FileName
}

// ItemType the struct type behind ItemPrototype, nil if no prototype is set
func (fd FileDescriptor) ItemType() (reflect.Type, error) {
	if fd.ItemPrototype == nil {
		return nil, nil
	}
	tp := reflect.TypeOf(fd.ItemPrototype)
	if tp.Kind() == reflect.Ptr {
		tp = tp.Elem()
	}
	if tp.Kind() != reflect.Struct {
		return nil, errors.New("the underlying type of ItemPrototype is not struct for " + fd.String())
	}
	return tp, nil
}

// FileStorage a place files can be read from and written to
type FileStorage interface {
	Exists(fileName string) (ok bool, err error)
	Open(fileName string) (reader io.ReadCloser, err error)
	Create(fileName string) (writer io.WriteCloser, err error)
}

// FileItemReader decodes items of one file type. The handle returned by Open is passed back to the other methods.
type FileItemReader interface {
	Open(fd FileDescriptor) (handle interface{}, err error)
	Close(handle interface{}) error
	//ReadItem returns nil at the end of file
	ReadItem(handle interface{}) (interface{}, error)
}

// FileItemWriter encodes items of one file type
type FileItemWriter interface {
	Open(fd FileDescriptor) (handle interface{}, err error)
	Close(handle interface{}) error
	WriteItem(handle interface{}, data interface{}) error
}

type ChecksumVerifier interface {
	Verify(fd FileDescriptor) (bool, error)
}

type ChecksumFlusher interface {
	Checksum(fd FileDescriptor) error
}

type Checksumer interface {
	ChecksumVerifier
	ChecksumFlusher
}

// FileMove a file to copy from one storage to another
type FileMove struct {
	FromFileName  string
	FromFileStore FileStorage
	ToFileName    string
	ToFileStore   FileStorage
}

// Copy copies the content of fm.FromFileName to fm.ToFileName and returns the number of bytes copied
func Copy(fm FileMove) (int64, error) {
	if fm.FromFileStore == nil || fm.ToFileStore == nil {
		return 0, errors.Errorf("file storage missing for copy %v -> %v", fm.FromFileName, fm.ToFileName)
	}
	reader, err := fm.FromFileStore.Open(fm.FromFileName)
	if err != nil {
		return 0, errors.Wrapf(err, "open from file:%v", fm.FromFileName)
	}
	defer reader.Close()
	writer, err := fm.ToFileStore.Create(fm.ToFileName)
	if err != nil {
		return 0, errors.Wrapf(err, "create to file:%v", fm.ToFileName)
	}
	n, err := io.Copy(writer, reader)
	if er := writer.Close(); er != nil && err == nil {
		err = er
	}
	if err != nil {
		return n, errors.Wrapf(err, "copy file: %v -> %v", fm.FromFileName, fm.ToFileName)
	}
	return n, nil
}

func storageName(fs FileStorage) string {
	switch s := fs.(type) {
	case *LocalFileSystem:
		return "file://"
	case *FTPFileSystem:
		return fmt.Sprintf("ftp://%s:%d/", s.Host, s.Port)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%T:", fs)
	}
}
