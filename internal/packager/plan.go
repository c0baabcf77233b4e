// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package packager

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pdiddy/pdf-roundup/pkg/types"
)

// PlanByCount splits files into consecutive groups of at most n. The last
// group may be smaller.
func PlanByCount(files []string, n int) ([][]string, error) {
	if n <= 0 {
		return nil, &types.ConfigError{Field: "count", Value: strconv.Itoa(n), Reason: "must be a positive integer"}
	}
	var groups [][]string
	for i := 0; i < len(files); i += n {
		end := min(i+n, len(files))
		groups = append(groups, files[i:end])
	}
	return groups, nil
}

// PlanBySize groups files so that each group's total of sizes stays within
// maxBytes. A file that would push a non-empty group past the limit starts
// a new group; a file larger than maxBytes on its own gets a group to itself.
func PlanBySize(files []string, sizes []int64, maxBytes int64) ([][]string, error) {
	if maxBytes <= 0 {
		return nil, &types.ConfigError{Field: "max-size", Value: strconv.FormatInt(maxBytes, 10), Reason: "must be a positive size"}
	}
	if len(files) != len(sizes) {
		return nil, fmt.Errorf("planning by size: %d files but %d sizes", len(files), len(sizes))
	}

	var (
		groups  [][]string
		current []string
		total   int64
	)
	for i, f := range files {
		if len(current) > 0 && total+sizes[i] > maxBytes {
			groups = append(groups, current)
			current, total = nil, 0
		}
		current = append(current, f)
		total += sizes[i]
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups, nil
}

// fileSizes returns the uncompressed size of each file. On failure it also
// returns the index of the file that could not be read.
func fileSizes(files []string) ([]int64, int, error) {
	sizes := make([]int64, len(files))
	for i, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			return nil, i, err
		}
		sizes[i] = info.Size()
	}
	return sizes, -1, nil
}
