// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"asdf2deb/internal/container"
	"asdf2deb/internal/provision"
	"asdf2deb/internal/sandbox"
	"asdf2deb/pkg/deb"
	"asdf2deb/pkg/types"
)

var (
	// ErrInvalidRequest is the sentinel error wrapped by InvalidRequestError.
	ErrInvalidRequest = errors.New("invalid build request")

	// ErrCopyOut is the sentinel error wrapped by CopyOutError.
	ErrCopyOut = errors.New("artifact extraction failed")
)

type (
	// Request describes one package build.
	Request struct {
		// Tool is the asdf tool to package.
		Tool types.ToolName
		// PluginURL optionally overrides asdf's registry lookup with an
		// explicit plugin source. Empty means lookup by tool name.
		PluginURL string
		// Version pins the tool version. Empty means resolve the latest.
		Version types.ToolVersion
		// OutputDir is where the built archive lands. Created if absent.
		OutputDir types.FilesystemPath
		// User is the host account whose uid:gid the sandbox runs as.
		User string
	}

	// Result is the outcome of a completed (or skipped) build.
	Result struct {
		Tool         types.ToolName
		Version      types.ToolVersion
		ArtifactPath types.FilesystemPath
		// Skipped reports that the artifact already existed and no build ran.
		Skipped bool
	}

	// InvalidRequestError is returned when a Request fails validation.
	// It wraps ErrInvalidRequest for errors.Is().
	InvalidRequestError struct {
		FieldErrors []error
	}

	// CopyOutError is returned when the built archive cannot be placed in
	// the output directory. It wraps ErrCopyOut for errors.Is(); the
	// underlying failure is in Cause.
	CopyOutError struct {
		ArtifactPath types.FilesystemPath
		Cause        error
	}

	// Builder runs build pipelines, one sandbox per build.
	Builder struct {
		sandboxes *sandbox.Manager
		logger    *log.Logger
	}

	// BuilderOption configures a Builder.
	BuilderOption func(*Builder)
)

// Error implements the error interface for InvalidRequestError.
func (e *InvalidRequestError) Error() string {
	if len(e.FieldErrors) == 1 {
		return fmt.Sprintf("invalid build request: %s", e.FieldErrors[0])
	}
	return fmt.Sprintf("invalid build request: %d field errors", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidRequest for errors.Is() compatibility.
func (e *InvalidRequestError) Unwrap() error { return ErrInvalidRequest }

// Error implements the error interface for CopyOutError.
func (e *CopyOutError) Error() string {
	return fmt.Sprintf("copying artifact to %s: %v", e.ArtifactPath, e.Cause)
}

// Unwrap returns ErrCopyOut for errors.Is() compatibility.
func (e *CopyOutError) Unwrap() error { return ErrCopyOut }

// Validate returns an error if the Request is incomplete.
func (r Request) Validate() error {
	var errs []error
	if isValid, fieldErrs := r.Tool.IsValid(); !isValid {
		errs = append(errs, fieldErrs...)
	}
	if r.Version != "" {
		if isValid, fieldErrs := r.Version.IsValid(); !isValid {
			errs = append(errs, fieldErrs...)
		}
	}
	if strings.TrimSpace(r.OutputDir.String()) == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if strings.TrimSpace(r.User) == "" {
		errs = append(errs, errors.New("build user is required"))
	}
	if len(errs) > 0 {
		return &InvalidRequestError{FieldErrors: errs}
	}
	return nil
}

// NewBuilder creates a Builder that opens sandboxes through the given manager.
func NewBuilder(sandboxes *sandbox.Manager, opts ...BuilderOption) *Builder {
	b := &Builder{sandboxes: sandboxes}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// WithLogger sets the logger used for build progress.
// A nil logger disables it.
func WithLogger(logger *log.Logger) BuilderOption {
	return func(b *Builder) { b.logger = logger }
}

// Build packages the requested tool from the given base environment.
//
// When the artifact for (tool, version) already exists under the output
// directory the build is skipped: with a pinned version before any sandbox
// is opened, otherwise right after version resolution. On any step failure
// the pipeline aborts; the sandbox is closed on every path, and a teardown
// failure surfaces alongside the build error rather than replacing it.
func (b *Builder) Build(ctx context.Context, env *provision.Environment, req Request) (result *Result, err error) {
	if vErr := req.Validate(); vErr != nil {
		return nil, vErr
	}

	pinned := req.Version != ""
	if pinned {
		exists, exErr := deb.ArtifactExists(req.OutputDir, req.Tool, req.Version)
		if exErr != nil {
			return nil, exErr
		}
		if exists {
			return b.skipResult(req.Tool, req.Version, req.OutputDir), nil
		}
	}

	sb, err := b.sandboxes.Open(ctx, sandbox.OpenOptions{
		Tool:        req.Tool,
		Environment: env,
		User:        req.User,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		// Teardown must run even when the build context was canceled.
		err = errors.Join(err, sb.Close(context.WithoutCancel(ctx)))
	}()

	if _, err = b.runStep(ctx, sb, pluginAddStep(req.Tool, req.PluginURL)); err != nil {
		return nil, err
	}

	version := req.Version
	if !pinned {
		version, err = b.resolveVersion(ctx, sb, req.Tool)
		if err != nil {
			return nil, err
		}
	}

	// The version is known now; the build lock has been held since Open, so
	// an artifact appearing here means another invocation finished first.
	exists, err := deb.ArtifactExists(req.OutputDir, req.Tool, version)
	if err != nil {
		return nil, err
	}
	if exists {
		return b.skipResult(req.Tool, version, req.OutputDir), nil
	}

	if b.logger != nil {
		b.logger.Info("building package", "tool", req.Tool, "version", version)
	}

	if _, err = b.runStep(ctx, sb, installStep(req.Tool, version)); err != nil {
		return nil, err
	}
	if _, err = b.runStep(ctx, sb, setGlobalStep(req.Tool, version)); err != nil {
		return nil, err
	}

	control := deb.DefaultControl(req.Tool, version)
	if err = control.Validate(); err != nil {
		return nil, fmt.Errorf("step %s: %w", StepAssembleTree, err)
	}
	if _, err = b.runStep(ctx, sb, assembleTreeStep(control)); err != nil {
		return nil, err
	}
	if _, err = b.runStep(ctx, sb, buildArchiveStep()); err != nil {
		return nil, err
	}

	artifactPath, err := b.copyOut(ctx, sb, req.OutputDir, req.Tool, version)
	if err != nil {
		return nil, err
	}

	if b.logger != nil {
		b.logger.Info("package created", "artifact", artifactPath)
	}
	return &Result{
		Tool:         req.Tool,
		Version:      version,
		ArtifactPath: artifactPath,
	}, nil
}

// runStep dispatches one step into the sandbox. An engine invocation
// failure wraps the step name; a non-zero remote exit becomes a StepError.
func (b *Builder) runStep(ctx context.Context, sb *sandbox.Sandbox, step Step) (*container.ExecResult, error) {
	if b.logger != nil {
		b.logger.Debug("running step", "step", step.Name, "sandbox", sb.Name())
	}

	result, err := sb.Exec(ctx, step.Script)
	if err != nil {
		return nil, fmt.Errorf("step %s: %w", step.Name, err)
	}
	if !result.Success() {
		return nil, &StepError{Step: step.Name, ExitCode: result.ExitCode, Stderr: result.Stderr}
	}
	return result, nil
}

// resolveVersion runs the latest-version query and validates its output.
// asdf prints the version on stdout; anything that cannot name an artifact
// (empty output included) fails the step.
func (b *Builder) resolveVersion(ctx context.Context, sb *sandbox.Sandbox, tool types.ToolName) (types.ToolVersion, error) {
	result, err := b.runStep(ctx, sb, resolveVersionStep(tool))
	if err != nil {
		return "", err
	}

	version := types.ToolVersion(strings.TrimSpace(result.Stdout))
	if isValid, fieldErrs := version.IsValid(); !isValid {
		return "", fmt.Errorf("step %s: asdf reported version %q for %s: %w",
			StepResolveVersion, version, tool, errors.Join(fieldErrs...))
	}
	return version, nil
}

// copyOut places the built archive at its host path, creating the output
// directory first. Both failures are copy-out failures.
func (b *Builder) copyOut(ctx context.Context, sb *sandbox.Sandbox, outputDir types.FilesystemPath, tool types.ToolName, version types.ToolVersion) (types.FilesystemPath, error) {
	artifactPath := deb.ArtifactPath(outputDir, tool, version)

	if b.logger != nil {
		b.logger.Debug("running step", "step", StepCopyOut, "sandbox", sb.Name())
	}

	if err := deb.EnsureOutputDir(outputDir); err != nil {
		return "", &CopyOutError{ArtifactPath: artifactPath, Cause: err}
	}
	if err := sb.CopyOut(ctx, archivePath, container.HostFilesystemPath(artifactPath)); err != nil {
		return "", &CopyOutError{ArtifactPath: artifactPath, Cause: err}
	}
	return artifactPath, nil
}

// skipResult reports an already-present artifact as a skipped build.
func (b *Builder) skipResult(tool types.ToolName, version types.ToolVersion, outputDir types.FilesystemPath) *Result {
	path := deb.ArtifactPath(outputDir, tool, version)
	if b.logger != nil {
		b.logger.Info("artifact already present, skipping build", "artifact", path)
	}
	return &Result{
		Tool:         tool,
		Version:      version,
		ArtifactPath: path,
		Skipped:      true,
	}
}
