package disk

import (
	"os"

	"github.com/dsnet/golib/memfile"
)

// dbFile is the backing store of DiskManagerImpl
type dbFile interface {
	ReadAt(p []byte, off int64) (int, error)
	WriteAt(p []byte, off int64) (int, error)
	Sync() error
	Size() (int64, error)
	Close() error
}

type osDBFile struct {
	*os.File
}

func openOSDBFile(path string) (*osDBFile, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, err
	}
	return &osDBFile{file}, nil
}

func (f *osDBFile) Size() (int64, error) {
	fileInfo, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return fileInfo.Size(), nil
}

// memDBFile keeps the whole database file in memory
type memDBFile struct {
	*memfile.File
}

func newMemDBFile() *memDBFile {
	return &memDBFile{memfile.New(make([]byte, 0))}
}

func (f *memDBFile) Sync() error {
	return nil
}

func (f *memDBFile) Size() (int64, error) {
	return int64(len(f.Bytes())), nil
}

func (f *memDBFile) Close() error {
	return nil
}
