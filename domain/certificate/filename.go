package certificate

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/prasetyowira/certgen/constant"
)

// SanitizeFilename keeps ASCII letters, digits, space, hyphen and underscore and
// replaces every other character with one underscore.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Filename is the output file name for an attendee.
func Filename(name string, format Format) string {
	return SanitizeFilename(name) + format.Extension()
}

// CollisionPolicy decides what happens when attendees sanitize to the same file.
type CollisionPolicy string

const (
	// CollisionOverwrite lets the later attendee replace the earlier file.
	CollisionOverwrite CollisionPolicy = "overwrite"
	// CollisionSuffix appends -2, -3, ... to repeated names.
	CollisionSuffix CollisionPolicy = "suffix"
	// CollisionReject refuses the batch before rendering.
	CollisionReject CollisionPolicy = "reject"
)

func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch p := CollisionPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", CollisionOverwrite:
		return CollisionOverwrite, nil
	case CollisionSuffix, CollisionReject:
		return p, nil
	}
	return "", fmt.Errorf("%w: unknown collision policy %q", ErrInput, s)
}

// PlanPaths resolves the output path of every attendee under policy.
// Suffix and reject compare names case-insensitively, since the target
// filesystem may be.
func PlanPaths(attendees []string, dir string, format Format, policy CollisionPolicy) ([]string, error) {
	stems := make([]string, len(attendees))
	for i, name := range attendees {
		stems[i] = SanitizeFilename(name)
	}

	switch policy {
	case CollisionSuffix:
		stems = suffixDuplicates(stems)
	case CollisionReject:
		if err := rejectDuplicates(attendees, stems); err != nil {
			return nil, err
		}
	}

	paths := make([]string, len(stems))
	for i, stem := range stems {
		paths[i] = filepath.Join(dir, stem+format.Extension())
	}
	return paths, nil
}

func suffixDuplicates(stems []string) []string {
	reserved := make(map[string]bool, len(stems))
	for _, s := range stems {
		reserved[strings.ToLower(s)] = true
	}

	assigned := make(map[string]bool, len(stems))
	out := make([]string, len(stems))
	for i, stem := range stems {
		key := strings.ToLower(stem)
		if !assigned[key] {
			assigned[key] = true
			out[i] = stem
			continue
		}
		for n := 2; ; n++ {
			candidate := fmt.Sprintf("%s-%d", stem, n)
			ck := strings.ToLower(candidate)
			if !reserved[ck] && !assigned[ck] {
				assigned[ck] = true
				out[i] = candidate
				break
			}
		}
	}
	return out
}

func rejectDuplicates(attendees, stems []string) error {
	groups := make(map[string][]int)
	for i, stem := range stems {
		key := strings.ToLower(stem)
		groups[key] = append(groups[key], i)
	}

	var conflicts []string
	for _, idx := range groups {
		if len(idx) < 2 {
			continue
		}
		names := make([]string, len(idx))
		for j, i := range idx {
			names[j] = fmt.Sprintf("#%d %q", i, attendees[i])
		}
		conflicts = append(conflicts, strings.Join(names, ", "))
	}
	if len(conflicts) == 0 {
		return nil
	}
	sort.Strings(conflicts)
	return fmt.Errorf("%w: %s: %s", ErrInput, constant.ErrNameCollision, strings.Join(conflicts, "; "))
}
