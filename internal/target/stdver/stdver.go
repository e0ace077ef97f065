// Package stdver validates and compares the -std=cNN CLI values by
// reusing golang.org/x/mod/semver's comparison machinery: each C
// standard tag is mapped to a synthetic semver string and compared with
// semver.Compare rather than a hand-rolled ordering table.
package stdver

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// tags lists the recognised -std= values in adoption order, each mapped
// to a synthetic semver tag whose major component is the standard's
// year so semver.Compare gives the right ordering for free.
var tags = map[string]string{
	"c89": "v1989.0.0",
	"c90": "v1990.0.0",
	"c99": "v1999.0.0",
	"c11": "v2011.0.0",
	"c17": "v2017.0.0",
	"c18": "v2017.0.0", // C18 is a defect-report-only revision of C17
}

// Parse validates a -std= flag value (without the "-std=" prefix) and
// returns its canonical semver tag.
func Parse(std string) (string, error) {
	v, ok := tags[std]
	if !ok {
		return "", fmt.Errorf("unsupported -std=%s", std)
	}
	return v, nil
}

// AtLeast reports whether std names a standard at or newer than floor
// (both given as -std= values, e.g. AtLeast("c11", "c99")).
func AtLeast(std, floor string) (bool, error) {
	a, err := Parse(std)
	if err != nil {
		return false, err
	}
	b, err := Parse(floor)
	if err != nil {
		return false, err
	}
	return semver.Compare(a, b) >= 0, nil
}

// Default is the standard cc11 assumes when -std is not given.
const Default = "c11"
