// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"asdf2deb/pkg/platform"
	"asdf2deb/pkg/types"
)

const (
	// CapabilityAll is the pseudo-capability accepted by --cap-drop to drop
	// every capability at once.
	CapabilityAll Capability = "all"
	// CapabilityChown allows changing file ownership.
	CapabilityChown Capability = "CHOWN"
	// CapabilityFowner allows bypassing file permission checks on owned files.
	CapabilityFowner Capability = "FOWNER"
	// CapabilitySetuid allows arbitrary uid manipulation.
	CapabilitySetuid Capability = "SETUID"
	// CapabilitySetgid allows arbitrary gid manipulation.
	CapabilitySetgid Capability = "SETGID"

	// SecurityOptNoNewPrivileges prevents processes in the container from
	// gaining privileges through setuid binaries or file capabilities.
	SecurityOptNoNewPrivileges SecurityOpt = "no-new-privileges"

	// stderrTailLimit bounds how much trailing stderr is retained for error
	// reporting on streamed operations (image builds).
	stderrTailLimit = 8 * 1024
)

var (
	// ErrCommandFailed is the sentinel error wrapped by CommandError.
	ErrCommandFailed = errors.New("container engine command failed")

	// ErrInvalidImageRef is the sentinel error wrapped by InvalidImageRefError.
	ErrInvalidImageRef = errors.New("invalid image reference")

	// ErrInvalidContainerName is the sentinel error wrapped by InvalidContainerNameError.
	ErrInvalidContainerName = errors.New("invalid container name")

	// ErrInvalidHostFilesystemPath is the sentinel error wrapped by InvalidHostFilesystemPathError.
	ErrInvalidHostFilesystemPath = errors.New("invalid host filesystem path")

	// ErrInvalidContainerFilesystemPath is the sentinel error wrapped by InvalidContainerFilesystemPathError.
	ErrInvalidContainerFilesystemPath = errors.New("invalid container filesystem path")

	// ErrInvalidCapability is the sentinel error wrapped by InvalidCapabilityError.
	ErrInvalidCapability = errors.New("invalid capability")

	// ErrInvalidSecurityOpt is the sentinel error wrapped by InvalidSecurityOptError.
	ErrInvalidSecurityOpt = errors.New("invalid security option")
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// BaseCLIEngineOption configures a BaseCLIEngine.
	BaseCLIEngineOption func(*BaseCLIEngine)

	// BaseCLIEngine provides common implementation for CLI-based container engines.
	// Docker and Podman engines embed this struct. Methods identical across all
	// CLI engines (Build, Run, Exec, CopyFrom, Remove, image queries) are
	// implemented here; engine-specific methods (Available, Version, ImageExists)
	// remain on the concrete types.
	BaseCLIEngine struct {
		name string // Engine name for error messages (e.g., "docker", "podman")
		// binaryPath is resolved at construction via exec.LookPath; not user-configurable.
		binaryPath  HostFilesystemPath
		execCommand ExecCommandFunc
		confinement platform.Confinement
		logger      *log.Logger
	}

	// ImageRef represents an image reference, i.e. a repository with an
	// optional tag such as "asdf-to-deb:2024-01-05-10-00-00".
	// A valid reference must be non-empty and not whitespace-only.
	ImageRef string

	// InvalidImageRefError is returned when an ImageRef is empty or whitespace-only.
	InvalidImageRefError struct {
		Value ImageRef
	}

	// ContainerName represents the name a container is created under and
	// addressed by in later exec/cp/rm operations.
	// A valid name must be non-empty and not whitespace-only.
	ContainerName string

	// InvalidContainerNameError is returned when a ContainerName is empty or whitespace-only.
	InvalidContainerNameError struct {
		Value ContainerName
	}

	// HostFilesystemPath represents a filesystem path on the host.
	// A valid path must be non-empty and not whitespace-only.
	HostFilesystemPath string

	// InvalidHostFilesystemPathError is returned when a HostFilesystemPath is empty or whitespace-only.
	InvalidHostFilesystemPathError struct {
		Value HostFilesystemPath
	}

	// ContainerFilesystemPath represents a filesystem path inside a container.
	// A valid path must be non-empty and not whitespace-only.
	ContainerFilesystemPath string

	// InvalidContainerFilesystemPathError is returned when a ContainerFilesystemPath is empty or whitespace-only.
	InvalidContainerFilesystemPathError struct {
		Value ContainerFilesystemPath
	}

	// Capability represents a Linux capability name for --cap-add/--cap-drop.
	// The set is open (engines accept any kernel capability), so validation
	// only rejects empty values.
	Capability string

	// InvalidCapabilityError is returned when a Capability is empty or whitespace-only.
	InvalidCapabilityError struct {
		Value Capability
	}

	// SecurityOpt represents a container security option for --security-opt.
	// The set is open, so validation only rejects empty values.
	SecurityOpt string

	// InvalidSecurityOptError is returned when a SecurityOpt is empty or whitespace-only.
	InvalidSecurityOptError struct {
		Value SecurityOpt
	}

	// CommandError is returned when an engine CLI invocation exits non-zero.
	// It wraps ErrCommandFailed for errors.Is() and preserves the argv vector
	// and captured stderr for diagnostics.
	CommandError struct {
		Binary   string
		Args     []string
		ExitCode types.ExitCode
		Stderr   string
	}
)

// String returns the string representation of the ImageRef.
func (r ImageRef) String() string { return string(r) }

// Repository returns the repository part of the reference (everything before
// the final ":"). References without a tag are returned unchanged.
func (r ImageRef) Repository() string {
	s := string(r)
	if i := strings.LastIndex(s, ":"); i >= 0 && !strings.Contains(s[i+1:], "/") {
		return s[:i]
	}
	return s
}

// Tag returns the tag part of the reference, or "" when the reference has none.
func (r ImageRef) Tag() string {
	s := string(r)
	if i := strings.LastIndex(s, ":"); i >= 0 && !strings.Contains(s[i+1:], "/") {
		return s[i+1:]
	}
	return ""
}

// Validate returns an error if the ImageRef is invalid.
// A valid reference must be non-empty and not whitespace-only.
func (r ImageRef) Validate() error {
	if strings.TrimSpace(string(r)) == "" {
		return &InvalidImageRefError{Value: r}
	}
	return nil
}

// Error implements the error interface for InvalidImageRefError.
func (e *InvalidImageRefError) Error() string {
	return fmt.Sprintf("invalid image reference %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidImageRef for errors.Is() compatibility.
func (e *InvalidImageRefError) Unwrap() error { return ErrInvalidImageRef }

// String returns the string representation of the ContainerName.
func (n ContainerName) String() string { return string(n) }

// Validate returns an error if the ContainerName is invalid.
// A valid name must be non-empty and not whitespace-only.
func (n ContainerName) Validate() error {
	if strings.TrimSpace(string(n)) == "" {
		return &InvalidContainerNameError{Value: n}
	}
	return nil
}

// Error implements the error interface for InvalidContainerNameError.
func (e *InvalidContainerNameError) Error() string {
	return fmt.Sprintf("invalid container name %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidContainerName for errors.Is() compatibility.
func (e *InvalidContainerNameError) Unwrap() error { return ErrInvalidContainerName }

// String returns the string representation of the HostFilesystemPath.
func (p HostFilesystemPath) String() string { return string(p) }

// Validate returns an error if the HostFilesystemPath is invalid.
// A valid path must be non-empty and not whitespace-only.
func (p HostFilesystemPath) Validate() error {
	if strings.TrimSpace(string(p)) == "" {
		return &InvalidHostFilesystemPathError{Value: p}
	}
	return nil
}

// Error implements the error interface for InvalidHostFilesystemPathError.
func (e *InvalidHostFilesystemPathError) Error() string {
	return fmt.Sprintf("invalid host filesystem path %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidHostFilesystemPath for errors.Is() compatibility.
func (e *InvalidHostFilesystemPathError) Unwrap() error { return ErrInvalidHostFilesystemPath }

// String returns the string representation of the ContainerFilesystemPath.
func (p ContainerFilesystemPath) String() string { return string(p) }

// Validate returns an error if the ContainerFilesystemPath is invalid.
// A valid path must be non-empty and not whitespace-only.
func (p ContainerFilesystemPath) Validate() error {
	if strings.TrimSpace(string(p)) == "" {
		return &InvalidContainerFilesystemPathError{Value: p}
	}
	return nil
}

// Error implements the error interface for InvalidContainerFilesystemPathError.
func (e *InvalidContainerFilesystemPathError) Error() string {
	return fmt.Sprintf("invalid container filesystem path %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidContainerFilesystemPath for errors.Is() compatibility.
func (e *InvalidContainerFilesystemPathError) Unwrap() error {
	return ErrInvalidContainerFilesystemPath
}

// String returns the string representation of the Capability.
func (c Capability) String() string { return string(c) }

// Validate returns an error if the Capability is invalid.
// A valid capability must be non-empty and not whitespace-only.
func (c Capability) Validate() error {
	if strings.TrimSpace(string(c)) == "" {
		return &InvalidCapabilityError{Value: c}
	}
	return nil
}

// Error implements the error interface for InvalidCapabilityError.
func (e *InvalidCapabilityError) Error() string {
	return fmt.Sprintf("invalid capability %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidCapability for errors.Is() compatibility.
func (e *InvalidCapabilityError) Unwrap() error { return ErrInvalidCapability }

// String returns the string representation of the SecurityOpt.
func (s SecurityOpt) String() string { return string(s) }

// Validate returns an error if the SecurityOpt is invalid.
// A valid security option must be non-empty and not whitespace-only.
func (s SecurityOpt) Validate() error {
	if strings.TrimSpace(string(s)) == "" {
		return &InvalidSecurityOptError{Value: s}
	}
	return nil
}

// Error implements the error interface for InvalidSecurityOptError.
func (e *InvalidSecurityOptError) Error() string {
	return fmt.Sprintf("invalid security option %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidSecurityOpt for errors.Is() compatibility.
func (e *InvalidSecurityOptError) Unwrap() error { return ErrInvalidSecurityOpt }

// Error implements the error interface for CommandError.
func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command %s %v failed with exit code %d", e.Binary, e.Args, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + strings.TrimSpace(e.Stderr)
	}
	return msg
}

// Unwrap returns ErrCommandFailed for errors.Is() compatibility.
func (e *CommandError) Unwrap() error { return ErrCommandFailed }

// Validate returns an error if any typed field of the BuildOptions is invalid.
// ContextDir and Tag are required; Dockerfile is optional.
func (o BuildOptions) Validate() error {
	var errs []error
	if err := o.ContextDir.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := o.Tag.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate returns an error if any typed field of the RunOptions is invalid.
// Image is always required. Name is required when Detach is set, because a
// detached container is only addressable through its name afterwards.
func (o RunOptions) Validate() error {
	var errs []error
	if err := o.Image.Validate(); err != nil {
		errs = append(errs, err)
	}
	if o.Detach && o.Name == "" {
		errs = append(errs, errors.New("detached containers require a name"))
	}
	if o.Name != "" {
		if err := o.Name.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, c := range o.CapDrop {
		if err := c.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, c := range o.CapAdd {
		if err := c.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, s := range o.SecurityOpts {
		if err := s.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// --- Option Functions ---

// WithName sets the engine name used in error messages.
func WithName(name string) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.name = name
	}
}

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.execCommand = fn
	}
}

// WithConfinement overrides confinement detection. Tests use this to exercise
// the flatpak/snap host-spawn paths without running inside either sandbox.
func WithConfinement(c platform.Confinement) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.confinement = c
	}
}

// WithLogger sets the logger used for engine invocation tracing.
// A nil logger disables tracing.
func WithLogger(logger *log.Logger) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.logger = logger
	}
}

// --- Constructor ---

// NewBaseCLIEngine creates a new base engine with the given binary path.
// Confinement defaults to the detected state of the current process.
func NewBaseCLIEngine(binaryPath HostFilesystemPath, opts ...BaseCLIEngineOption) *BaseCLIEngine {
	e := &BaseCLIEngine{
		binaryPath:  binaryPath,
		execCommand: exec.CommandContext,
		confinement: platform.CurrentConfinement(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// --- Accessor Methods ---

// Name returns the engine name used in error messages.
func (e *BaseCLIEngine) Name() string {
	return e.name
}

// BinaryPath returns the path to the container engine binary.
func (e *BaseCLIEngine) BinaryPath() string {
	return string(e.binaryPath)
}

// --- Argument Builders ---

// BuildArgs constructs arguments for an image build command.
// Returns arguments in the order expected by docker/podman build.
//
// Generated command: <binary> build [options] <context>
func (e *BaseCLIEngine) BuildArgs(opts BuildOptions) []string {
	args := []string{"build"}

	if opts.Dockerfile != "" {
		// Resolve Dockerfile path relative to context directory.
		// If ContextDir is empty, the Dockerfile path is used as-is
		// (assumed resolvable from CWD by the container engine).
		dockerfilePath := string(opts.Dockerfile)
		if !filepath.IsAbs(dockerfilePath) && opts.ContextDir != "" {
			dockerfilePath = filepath.Join(string(opts.ContextDir), dockerfilePath)
		}
		args = append(args, "-f", dockerfilePath)
	}

	if opts.Tag != "" {
		args = append(args, "-t", string(opts.Tag))
	}

	if opts.NoCache {
		args = append(args, "--no-cache")
	}

	args = append(args, string(opts.ContextDir))

	return args
}

// RunArgs constructs arguments for a container run command.
// Returns arguments in the order expected by docker/podman run. Capability
// and security flags come before the image so they are parsed as engine
// options rather than container command arguments.
//
// Generated command: <binary> run [options] <image> [command...]
func (e *BaseCLIEngine) RunArgs(opts RunOptions) []string {
	args := []string{"run"}

	if opts.Detach {
		args = append(args, "-d")
	}

	if opts.Name != "" {
		args = append(args, "--name", string(opts.Name))
	}

	for _, c := range opts.CapDrop {
		args = append(args, "--cap-drop="+string(c))
	}

	for _, c := range opts.CapAdd {
		args = append(args, "--cap-add="+string(c))
	}

	for _, s := range opts.SecurityOpts {
		args = append(args, "--security-opt="+string(s))
	}

	if opts.User != "" {
		args = append(args, "--user="+opts.User)
	}

	args = append(args, string(opts.Image))
	args = append(args, opts.Command...)

	return args
}

// ExecArgs constructs arguments for a container exec command.
//
// Generated command: <binary> exec <container> <command...>
func (e *BaseCLIEngine) ExecArgs(container ContainerName, command []string) []string {
	args := []string{"exec", string(container)}
	args = append(args, command...)
	return args
}

// RemoveArgs constructs arguments for a container remove command.
func (e *BaseCLIEngine) RemoveArgs(container ContainerName, force bool) []string {
	args := []string{"rm"}
	if force {
		args = append(args, "-f")
	}
	args = append(args, string(container))
	return args
}

// RemoveImageArgs constructs arguments for an image remove command.
func (e *BaseCLIEngine) RemoveImageArgs(image ImageRef, force bool) []string {
	args := []string{"rmi"}
	if force {
		args = append(args, "-f")
	}
	args = append(args, string(image))
	return args
}

// ImageTagsArgs constructs arguments for listing local tags of a repository.
// The format template restricts output to one tag per line.
func (e *BaseCLIEngine) ImageTagsArgs(repository string) []string {
	return []string{"images", repository, "--format", "{{.Tag}}"}
}

// ImageCreatedAtArgs constructs arguments for querying an image's creation
// timestamp from its metadata.
func (e *BaseCLIEngine) ImageCreatedAtArgs(image ImageRef) []string {
	return []string{"image", "inspect", "-f", "{{.Created}}", string(image)}
}

// CopyFromArgs constructs arguments for copying a path out of a container.
//
// Generated command: <binary> cp <container>:<src> <dst>
func (e *BaseCLIEngine) CopyFromArgs(container ContainerName, src ContainerFilesystemPath, dst HostFilesystemPath) []string {
	return []string{"cp", string(container) + ":" + string(src), string(dst)}
}

// --- Command Execution ---

// RunCommand executes a command and returns its trimmed stdout.
// Stderr is captured and folded into the CommandError on failure.
// This is the low-level execution method used by concrete engines.
func (e *BaseCLIEngine) RunCommand(ctx context.Context, args ...string) (string, error) {
	cmd := e.CreateCommand(ctx, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", e.commandError(args, stderr.String(), err)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// RunCommandStatus executes a command and returns only the error status.
func (e *BaseCLIEngine) RunCommandStatus(ctx context.Context, args ...string) error {
	cmd := e.CreateCommand(ctx, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return e.commandError(args, stderr.String(), err)
	}

	return nil
}

// CreateCommand creates an exec.Cmd for the given arguments.
// This is useful when the caller needs to customize stdin/stdout/stderr.
// Under flatpak/snap confinement the command is rewritten to spawn the engine
// binary on the host, where the container runtime actually lives.
func (e *BaseCLIEngine) CreateCommand(ctx context.Context, args ...string) *exec.Cmd {
	name, argv := e.hostCommand(args)
	if e.logger != nil {
		e.logger.Debug("invoking container engine", "binary", name, "args", strings.Join(argv, " "))
	}
	return e.execCommand(ctx, name, argv...)
}

// hostCommand rewrites the engine invocation for the current confinement.
// For Flatpak: ["flatpak-spawn", "--host", <binary>, <args...>]
// For Snap: ["snap", "run", "--shell", <binary>, <args...>]
// Unconfined processes invoke the binary directly.
func (e *BaseCLIEngine) hostCommand(args []string) (string, []string) {
	spawnCmd, spawnArgs := e.confinement.HostSpawn()
	if spawnCmd == "" {
		return string(e.binaryPath), args
	}

	argv := make([]string, 0, len(spawnArgs)+1+len(args))
	argv = append(argv, spawnArgs...)
	argv = append(argv, string(e.binaryPath))
	argv = append(argv, args...)

	return spawnCmd, argv
}

// commandError converts an exec failure into a CommandError. Invocation
// failures that never produced an exit status (binary missing, context
// canceled) are wrapped as plain errors instead.
func (e *BaseCLIEngine) commandError(args []string, stderr string, err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &CommandError{
			Binary:   string(e.binaryPath),
			Args:     args,
			ExitCode: types.ExitCode(exitErr.ExitCode()),
			Stderr:   stderr,
		}
	}
	return fmt.Errorf("command %s %v failed: %w", string(e.binaryPath), args, err)
}

// --- Promoted Engine Methods (shared by Docker and Podman) ---

// Build builds an image from a Dockerfile.
// It validates BuildOptions before executing to catch invalid fields early.
// Build output streams to opts.Stdout/Stderr; the trailing stderr is retained
// so a failed build still reports its diagnostics.
func (e *BaseCLIEngine) Build(ctx context.Context, opts BuildOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	args := e.BuildArgs(opts)

	tail := newTailBuffer(stderrTailLimit)
	cmd := e.CreateCommand(ctx, args...)
	cmd.Stdout = opts.Stdout
	if opts.Stderr != nil {
		cmd.Stderr = io.MultiWriter(opts.Stderr, tail)
	} else {
		cmd.Stderr = tail
	}

	if err := cmd.Run(); err != nil {
		return e.commandError(args, tail.String(), err)
	}

	return nil
}

// Run starts a container and returns the engine-reported container ID.
// It validates RunOptions before executing to catch invalid fields early.
func (e *BaseCLIEngine) Run(ctx context.Context, opts RunOptions) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}

	args := e.RunArgs(opts)
	return e.RunCommand(ctx, args...)
}

// Exec runs a command in a running container and captures its output.
// A non-zero remote exit status is reported in ExecResult (not as an error);
// the error return is reserved for invocation failures.
func (e *BaseCLIEngine) Exec(ctx context.Context, container ContainerName, command []string) (*ExecResult, error) {
	if err := container.Validate(); err != nil {
		return nil, err
	}

	args := e.ExecArgs(container, command)
	cmd := e.CreateCommand(ctx, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := &ExecResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("command %s %v failed: %w", string(e.binaryPath), args, err)
		}
		result.ExitCode = types.ExitCode(exitErr.ExitCode())
	}

	return result, nil
}

// CopyFrom copies a path out of a container onto the host.
func (e *BaseCLIEngine) CopyFrom(ctx context.Context, container ContainerName, src ContainerFilesystemPath, dst HostFilesystemPath) error {
	var errs []error
	if err := container.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := src.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := dst.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return e.RunCommandStatus(ctx, e.CopyFromArgs(container, src, dst)...)
}

// Remove removes a container.
func (e *BaseCLIEngine) Remove(ctx context.Context, container ContainerName, force bool) error {
	return e.RunCommandStatus(ctx, e.RemoveArgs(container, force)...)
}

// ImageTags lists local tags for a repository, one per line of the engine's
// listing output. Blank lines are dropped; callers decide what the tags mean.
func (e *BaseCLIEngine) ImageTags(ctx context.Context, repository string) ([]string, error) {
	out, err := e.RunCommand(ctx, e.ImageTagsArgs(repository)...)
	if err != nil {
		return nil, err
	}

	var tags []string
	for _, line := range strings.Split(out, "\n") {
		if tag := strings.TrimSpace(line); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

// ImageCreatedAt returns the creation timestamp recorded in the image's
// metadata. Docker reports RFC 3339; Podman renders Go's default time format.
func (e *BaseCLIEngine) ImageCreatedAt(ctx context.Context, image ImageRef) (time.Time, error) {
	if err := image.Validate(); err != nil {
		return time.Time{}, err
	}

	out, err := e.RunCommand(ctx, e.ImageCreatedAtArgs(image)...)
	if err != nil {
		return time.Time{}, err
	}

	return parseImageCreatedAt(out)
}

// RemoveImage removes an image.
func (e *BaseCLIEngine) RemoveImage(ctx context.Context, image ImageRef, force bool) error {
	return e.RunCommandStatus(ctx, e.RemoveImageArgs(image, force)...)
}

// --- Timestamp Parsing ---

// imageCreatedAtLayouts are the timestamp renderings observed across engine
// versions for {{.Created}}: Docker emits RFC 3339 (with or without
// subseconds); Podman formats the field with Go's default time layout.
var imageCreatedAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05 -0700 MST",
}

// parseImageCreatedAt parses an engine-reported creation timestamp.
func parseImageCreatedAt(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range imageCreatedAtLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized image creation timestamp %q", value)
}

// --- Bounded Stderr Capture ---

// tailBuffer is an io.Writer that retains only the trailing limit bytes
// written to it. Build output can be megabytes; only the tail is useful in
// an error message.
type tailBuffer struct {
	limit int
	buf   []byte
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

// Write implements io.Writer.
func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if len(b.buf) > b.limit {
		b.buf = b.buf[len(b.buf)-b.limit:]
	}
	return len(p), nil
}

// String returns the retained tail.
func (b *tailBuffer) String() string { return string(b.buf) }
