package file

import "sync"

// file type
type fileHandler struct {
	reader FileItemReader
	writer FileItemWriter
}

var (
	mu           sync.RWMutex
	fileHandlers = map[string]*fileHandler{}
	checksumers  = map[string]Checksumer{}
)

// RegisterFileType register reader and writer of a custom file type, either may be nil
func RegisterFileType(ftype string, reader FileItemReader, writer FileItemWriter) {
	mu.Lock()
	defer mu.Unlock()
	fileHandlers[ftype] = &fileHandler{
		reader: reader,
		writer: writer,
	}
}

func getFileHandler(ftype string) *fileHandler {
	mu.RLock()
	defer mu.RUnlock()
	return fileHandlers[ftype]
}

// GetFileItemReader get FileItemReader by type, nil if the type is unknown
func GetFileItemReader(ftype string) FileItemReader {
	switch ftype {
	case CSV:
		return &csvFileItemReader{}
	case JSON:
		return &jsonFileItemReader{}
	default:
		fh := getFileHandler(ftype)
		if fh != nil && fh.reader != nil {
			return fh.reader
		}
	}
	return nil
}

// GetFileItemWriter get FileItemWriter by type, nil if the type is unknown
func GetFileItemWriter(ftype string) FileItemWriter {
	switch ftype {
	case CSV:
		return &csvFileItemWriter{}
	case JSON:
		return &jsonFileItemWriter{}
	default:
		fh := getFileHandler(ftype)
		if fh != nil && fh.writer != nil {
			return fh.writer
		}
	}
	return nil
}

func RegisterChecksumer(key string, ch Checksumer) {
	mu.Lock()
	defer mu.Unlock()
	checksumers[key] = ch
}

// GetChecksumer get Checksumer by type
func GetChecksumer(key string) Checksumer {
	switch key {
	case OKFlag:
		return &OKFlagChecksumer{}
	case MD5:
		return &MD5Checksumer{}
	case SHA256:
		return &SHA256Checksumer{}
	default:
		mu.RLock()
		defer mu.RUnlock()
		return checksumers[key]
	}
}
