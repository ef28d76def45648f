package adapter

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	m "spectra.dev/pkg/spectra/internal/model"
)

// GcovCoverage is the coverage extracted from one annotated gcov file.
type GcovCoverage struct {
	LineCounts    map[int]int
	BranchesHit   m.BranchSet
	BranchesKnown m.BranchSet
}

// ParseGcov reads the output of `gcov -b -c`. Source rows look like
// `count:line:text`; branch rows (`branch N taken X`) belong to the last
// source row and become labels `L<line>:b<N>`.
func ParseGcov(data []byte) GcovCoverage {
	cov := GcovCoverage{
		LineCounts:    map[int]int{},
		BranchesHit:   m.NewBranchSet(),
		BranchesKnown: m.NewBranchSet(),
	}

	current := 0

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		row := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(row, "branch"):
			if current > 0 {
				parseBranchRow(row, current, cov)
			}
		case strings.HasPrefix(row, "call"), strings.HasPrefix(row, "function"), strings.HasPrefix(row, "-----"):
		default:
			if line, count, ok := parseSourceRow(row); ok {
				current = line
				if line > 0 {
					recordCount(cov.LineCounts, line, count)
				}
			}
		}
	}

	return cov
}

func parseSourceRow(row string) (int, int, bool) {
	parts := strings.SplitN(row, ":", 3)
	if len(parts) < 2 {
		return 0, 0, false
	}

	line, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}

	field := strings.TrimSuffix(strings.TrimSpace(parts[0]), "*")

	switch field {
	case "-":
		return line, m.NotExecutable, true
	case "#####", "=====":
		return line, 0, true
	}

	count, err := strconv.Atoi(field)
	if err != nil {
		return 0, 0, false
	}

	return line, count, true
}

func parseBranchRow(row string, line int, cov GcovCoverage) {
	fields := strings.Fields(row)
	if len(fields) < 3 {
		return
	}

	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return
	}

	label := fmt.Sprintf("L%d:b%d", line, n)
	cov.BranchesKnown.Add(label)

	if fields[2] != "taken" || len(fields) < 4 {
		return
	}

	taken, err := strconv.Atoi(strings.TrimSuffix(fields[3], "%"))
	if err == nil && taken > 0 {
		cov.BranchesHit.Add(label)
	}
}

// recordCount keeps the highest count when a line appears more than once,
// which gcov does for inlined or templated code.
func recordCount(counts map[int]int, line, count int) {
	prev, ok := counts[line]
	if !ok || count > prev {
		counts[line] = count
	}
}
