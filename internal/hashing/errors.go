package hashing

import "fmt"

// MissingReferenceError reports an adjustable file referencing a path that
// does not exist in the destination storage.
type MissingReferenceError struct {
	File string // the referencing file
	Ref  string // the resolved reference that could not be found
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("post-processing %q: referenced file %q could not be found", e.File, e.Ref)
}

// NotConvergedError reports that the pass budget was exhausted while hashed
// names were still changing, which surfaces unresolvable reference cycles.
type NotConvergedError struct {
	File   string // the last file whose hashed name changed
	Passes int
}

func (e *NotConvergedError) Error() string {
	return fmt.Sprintf("post-processing did not converge after %d passes: %q kept changing", e.Passes, e.File)
}

// VersionError reports a manifest whose version tag does not match the
// version this build writes.
type VersionError struct {
	Got  string
	Want string
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("manifest version %q does not match expected %q", e.Got, e.Want)
}

// MissingEntryError reports a lookup for a path the manifest does not
// cover, under the strict manifest policy.
type MissingEntryError struct {
	Name string
}

func (e *MissingEntryError) Error() string {
	return fmt.Sprintf("missing manifest entry for %q", e.Name)
}
