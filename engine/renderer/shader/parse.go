package shader

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	vertexEntryRegex   = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)
	computeEntryRegex  = regexp.MustCompile(`(?s)@compute\b.*?\bfn\s+(\w+)`)
	workgroupSizeRegex = regexp.MustCompile(`@workgroup_size\(\s*(\d+)\s*(?:,\s*(\d+)\s*(?:,\s*(\d+)\s*)?)?\)`)
)

// stripLineComments removes // comments so that commented-out entry points
// and attributes do not confuse the regex scans.
func stripLineComments(source string) string {
	lines := strings.Split(source, "\n")
	for i, line := range lines {
		if idx := strings.Index(line, "//"); idx >= 0 {
			lines[i] = line[:idx]
		}
	}
	return strings.Join(lines, "\n")
}

// parseEntryPoints extracts the vertex, fragment and compute entry point
// function names from WGSL source. Absent stages yield empty strings.
func parseEntryPoints(source string) (vertex, fragment, compute string) {
	cleaned := stripLineComments(source)
	if m := vertexEntryRegex.FindStringSubmatch(cleaned); m != nil {
		vertex = m[1]
	}
	if m := fragmentEntryRegex.FindStringSubmatch(cleaned); m != nil {
		fragment = m[1]
	}
	if m := computeEntryRegex.FindStringSubmatch(cleaned); m != nil {
		compute = m[1]
	}
	return vertex, fragment, compute
}

// parseWorkgroupSize extracts @workgroup_size dimensions, defaulting each
// unspecified dimension to 1.
func parseWorkgroupSize(source string) [3]uint32 {
	cleaned := stripLineComments(source)
	result := [3]uint32{1, 1, 1}

	match := workgroupSizeRegex.FindStringSubmatch(cleaned)
	if match == nil {
		return result
	}

	for i, part := range match[1:] {
		if part == "" {
			continue
		}
		if v, err := strconv.ParseUint(part, 10, 32); err == nil {
			result[i] = uint32(v)
		}
	}
	return result
}
