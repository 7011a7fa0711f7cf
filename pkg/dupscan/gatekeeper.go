package dupscan

import (
	"bytes"
	"io"
	"os"
)

// scannedFile is a candidate that passed gatekeeping, along with its bytes.
type scannedFile struct {
	rootID   int
	relative string
	bytes    []byte
}

const readChunkSize = 64 * 1024

// gatekeep reads one candidate under budget, classifying and counting any
// skip, and returns the scanned file or nil. acc.scannedFiles/
// scannedBytes are only incremented for files that count as scanned;
// budget checks read the accumulator's current totals, so callers must
// invoke gatekeep sequentially (single-writer discipline for the running
// totals it depends on).
//
// Once maxFiles is reached, every further candidate increments
// skippedBudgetMaxFiles and is dropped unread; the scan keeps enumerating
// so the counter reflects how much was left unscanned.
func gatekeep(c candidateFile, opts ScanOptions, acc *statsAccumulator) *scannedFile {
	if opts.MaxFiles > 0 && acc.scannedFiles >= int64(opts.MaxFiles) {
		acc.skippedBudgetMaxFiles++
		return nil
	}

	info, err := os.Lstat(c.absolute)
	if err != nil {
		classifyWalkError(err, acc)
		return nil
	}
	if info.Mode()&os.ModeSymlink != 0 {
		// A symlink reaching the gatekeeper implies followSymlinks was
		// true and containment already verified by the walker; re-stat
		// the resolved target.
		info, err = os.Stat(c.absolute)
		if err != nil {
			acc.skippedWalkErrors++
			return nil
		}
	}
	if !info.Mode().IsRegular() {
		acc.skippedWalkErrors++
		return nil
	}

	size := info.Size()
	if size > opts.MaxFileSize {
		acc.skippedTooLarge++
		return nil
	}
	if opts.MaxTotalBytes > 0 && acc.scannedBytes+size > opts.MaxTotalBytes {
		acc.skippedBudgetMaxTotalBytes++
		return nil
	}

	f, err := os.Open(c.absolute)
	if err != nil {
		classifyWalkError(err, acc)
		return nil
	}
	defer f.Close()

	// Symlink hardening: when symlinks are followed, re-stat between
	// chunks and refuse to proceed if the file's identity changes
	// mid-read.
	var ino uint64
	identityOK := false
	if opts.FollowSymlinks {
		ino, identityOK = fileIdentity(info)
	}

	buf := make([]byte, 0, min64(size, readChunkSize*4))
	chunk := make([]byte, readChunkSize)
	for {
		n, err := f.Read(chunk)
		if n > 0 {
			if nul := bytes.IndexByte(chunk[:n], 0); nul >= 0 {
				acc.skippedBinary++
				acc.scannedFiles++
				acc.scannedBytes += int64(len(buf) + nul)
				return nil
			}
			buf = append(buf, chunk[:n]...)

			// Re-check both caps against actual bytes read, guarding
			// against files that grow during the read.
			if int64(len(buf)) > opts.MaxFileSize {
				acc.skippedTooLarge++
				return nil
			}
			if opts.MaxTotalBytes > 0 && acc.scannedBytes+int64(len(buf)) > opts.MaxTotalBytes {
				acc.skippedBudgetMaxTotalBytes++
				return nil
			}

			if identityOK {
				if cur, err := os.Stat(c.absolute); err != nil || !sameIdentity(cur, ino) {
					acc.skippedWalkErrors++
					return nil
				}
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			acc.skippedWalkErrors++
			return nil
		}
	}

	acc.scannedFiles++
	acc.scannedBytes += int64(len(buf))
	return &scannedFile{rootID: c.rootID, relative: c.relative, bytes: buf}
}

func min64(a int64, b int) int64 {
	if a < int64(b) {
		return a
	}
	return int64(b)
}
