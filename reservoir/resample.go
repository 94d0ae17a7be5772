package reservoir

import (
	"math"
	"time"
)

// MaxBuckets is the most resampled points an export can hold: one worksheet
// (1,048,576 rows) minus the header row.
const MaxBuckets = 1<<20 - 1

// BucketStart returns the start of the half-open bucket holding t. Buckets are
// aligned on multiples of the width counted from midnight UTC.
func BucketStart(t time.Time, width time.Duration) time.Time {
	w := widthSeconds(width)
	if w <= 0 {
		return t.UTC()
	}
	return time.Unix(bucketNumber(t, w)*w, 0).UTC()
}

// Resample averages the series onto consecutive buckets of the given width. The
// result has one point per bucket from the bucket of the earliest reading to the
// bucket of the latest, in ascending order; buckets without a present reading are
// missing. A span needing more than MaxBuckets buckets is rejected before any
// bucket is allocated.
func Resample(s Series, freq Frequency) (Series, error) {
	w := widthSeconds(freq.Width)
	if len(s) == 0 || w <= 0 {
		return Series{}, nil
	}

	first, last := s[0].Time, s[0].Time
	for _, p := range s[1:] {
		if p.Time.Before(first) {
			first = p.Time
		}
		if p.Time.After(last) {
			last = p.Time
		}
	}

	start := bucketNumber(first, w)
	count := bucketNumber(last, w) - start + 1
	if count > MaxBuckets {
		return nil, &BucketLimitError{Frequency: freq.Label, First: first, Last: last, Buckets: count}
	}
	n := int(count)

	sums := make([]float64, n)
	counts := make([]int, n)
	for _, p := range s {
		if p.Missing() {
			continue
		}
		i := bucketNumber(p.Time, w) - start
		sums[i] += p.Value
		counts[i]++
	}

	out := make(Series, n)
	for i := range out {
		out[i].Time = time.Unix((start+int64(i))*w, 0).UTC()
		if counts[i] == 0 {
			out[i].Value = math.NaN()
			continue
		}
		out[i].Value = sums[i] / float64(counts[i])
	}
	return out, nil
}

// widthSeconds returns the bucket width in whole seconds, 0 for sub-second widths.
func widthSeconds(width time.Duration) int64 {
	return int64(width / time.Second)
}

// bucketNumber counts buckets of w seconds from the Unix epoch, flooring for
// times before it.
func bucketNumber(t time.Time, w int64) int64 {
	sec := t.Unix()
	n := sec / w
	if sec%w != 0 && sec < 0 {
		n--
	}
	return n
}
