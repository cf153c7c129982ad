// Package segment names, reads and writes the immutable ndjson files that hold
// a gyle's readings.
package segment

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

// Ext is the extension of every segment file.
const Ext = ".ndjson"

// tmpExt marks a segment that is still being written.
const tmpExt = ".tmp"

var namePattern = regexp.MustCompile(`^(\d+)-(\d+)-(\d+)-(\d+)\.ndjson$`)

// ErrMalformedSegmentName is returned for a file in a logs directory that is not
// a segment. The directory is considered corrupt.
var ErrMalformedSegmentName = errors.New("malformed segment name")

// Descriptor identifies one segment. StartTs and EndTs are the dt of the first and
// last reading in the segment.
type Descriptor struct {
	SeqNo      int
	Generation int
	StartTs    int64
	EndTs      int64
}

// Name returns the file name: {seqNo}-{generation}-{startTs}-{endTs}.ndjson
func (d Descriptor) Name() string {
	return fmt.Sprintf("%d-%d-%d-%d%s", d.SeqNo, d.Generation, d.StartTs, d.EndTs, Ext)
}

// Parse decodes a file name produced by Name.
func Parse(name string) (Descriptor, error) {
	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return Descriptor{}, errors.Wrapf(ErrMalformedSegmentName, "%q", name)
	}
	var nums [4]int64
	for i := range nums {
		n, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil {
			return Descriptor{}, errors.Wrapf(ErrMalformedSegmentName, "%q: %v", name, err)
		}
		nums[i] = n
	}
	d := Descriptor{SeqNo: int(nums[0]), Generation: int(nums[1]), StartTs: nums[2], EndTs: nums[3]}
	if d.Generation < 1 || d.StartTs > d.EndTs {
		return Descriptor{}, errors.Wrapf(ErrMalformedSegmentName, "%q", name)
	}
	return d, nil
}

// Supersedes reports whether d is a later, more compacted segment whose span
// covers other. Such an other is redundant and may be deleted.
func (d Descriptor) Supersedes(other Descriptor) bool {
	return d.Generation > other.Generation &&
		d.SeqNo > other.SeqNo &&
		d.StartTs <= other.StartTs &&
		other.EndTs <= d.EndTs
}
