package storage

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BackupPrefix is the object-key namespace holding all backup archives.
const BackupPrefix = "backups/"

// maxEpoch is a far-future instant the reverse-epoch counts down from.
// Its decimal width fixes the zero-padding, so keys of any age compare
// correctly as strings.
const maxEpoch int64 = 999999999999999999

const reverseEpochWidth = 18

// BackupKey derives the object key for a backup of dirName taken at t:
//
//	backups/{reverseEpoch}_{YYYYMMDDHH}_{dirName}.tar.gz
//
// The reverse epoch makes ascending lexicographic listing equal to
// descending chronological order, which is all the store's list API
// guarantees.
func BackupKey(dirName string, t time.Time) string {
	t = t.UTC()
	reverse := maxEpoch - t.Unix()
	return fmt.Sprintf("%s%0*d_%s_%s.tar.gz",
		BackupPrefix, reverseEpochWidth, reverse, t.Format("2006010215"), dirName)
}

// BackupKeySuffix returns the key suffix identifying backups of dirName.
func BackupKeySuffix(dirName string) string {
	return "_" + dirName + ".tar.gz"
}

// ParseBackupTime recovers the backup instant from a key produced by
// BackupKey. It returns the zero time when the key has a different shape.
func ParseBackupTime(key string) time.Time {
	name := strings.TrimPrefix(key, BackupPrefix)
	idx := strings.IndexByte(name, '_')
	if idx != reverseEpochWidth {
		return time.Time{}
	}
	reverse, err := strconv.ParseInt(name[:idx], 10, 64)
	if err != nil || reverse < 0 || reverse > maxEpoch {
		return time.Time{}
	}
	return time.Unix(maxEpoch-reverse, 0).UTC()
}
