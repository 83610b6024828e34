package types

// Result bundles pair an operation's payload with the output and error
// text captured while obtaining it. Payload and text always come from the
// same backend invocation.

// RequiresBuildSdistResult is collected while acquiring the source
// distribution build dependencies.
type RequiresBuildSdistResult struct {
	// Requires are the sdist build dependencies.
	Requires []Requirement
	// Out is the backend standard output captured during the command.
	Out string
	// Err is the backend standard error captured during the command.
	Err string
}

// RequiresBuildWheelResult is collected while acquiring the wheel build
// dependencies.
type RequiresBuildWheelResult struct {
	// Requires are the wheel build dependencies.
	Requires []Requirement
	// Out is the backend standard output captured during the command.
	Out string
	// Err is the backend standard error captured during the command.
	Err string
}

// MetadataForBuildWheelResult is collected while acquiring the wheel
// metadata.
type MetadataForBuildWheelResult struct {
	// Metadata is the path to the produced metadata directory.
	Metadata string
	// Out is the backend standard output captured during the command.
	Out string
	// Err is the backend standard error captured during the command.
	Err string
}

// SdistResult is collected while building a source distribution.
type SdistResult struct {
	// Sdist is the path to the built source distribution archive.
	Sdist string
	// Out is the backend standard output captured during the command.
	Out string
	// Err is the backend standard error captured during the command.
	Err string
}

// WheelResult is collected while building a wheel.
type WheelResult struct {
	// Wheel is the path to the built wheel artifact.
	Wheel string
	// Out is the backend standard output captured during the command.
	Out string
	// Err is the backend standard error captured during the command.
	Err string
}
