package tools

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/kadirpekel/minion/config"
	"github.com/kadirpekel/minion/schema"
)

// CommandTool runs an allow-listed shell command. Its allowlist is fixed
// at construction, not taken from the call arguments, so a
// prompt-injected command cannot widen it. The working directory
// defaults to the one given at construction; a call's working_dir
// argument overrides it.
type CommandTool struct {
	allowedCommands  []string
	workingDirectory string
	maxExecutionTime time.Duration
	sandboxed        bool
}

// NewCommandTool builds a CommandTool. Passing a nil or empty allowlist
// falls back to a small, conservative default set.
func NewCommandTool(allowedCommands []string, workingDirectory string, maxExecutionTime time.Duration) *CommandTool {
	if len(allowedCommands) == 0 {
		allowedCommands = []string{"cat", "head", "tail", "ls", "find", "grep", "wc", "pwd", "git", "echo", "date"}
	}
	if workingDirectory == "" {
		workingDirectory = "./"
	}
	if maxExecutionTime == 0 {
		maxExecutionTime = 30 * time.Second
	}
	return &CommandTool{
		allowedCommands:  allowedCommands,
		workingDirectory: workingDirectory,
		maxExecutionTime: maxExecutionTime,
		sandboxed:        true,
	}
}

// NewCommandToolFromConfig builds a CommandTool from a declared
// config.CommandToolsConfig, honoring EnableSandboxing explicitly
// (false disables the allowlist check entirely, for trusted local use).
func NewCommandToolFromConfig(cfg config.CommandToolsConfig) *CommandTool {
	t := NewCommandTool(cfg.AllowedCommands, cfg.WorkingDirectory, cfg.MaxExecutionTime)
	t.sandboxed = cfg.EnableSandboxing
	return t
}

func (t *CommandTool) Descriptor() schema.ToolDescriptor {
	return schema.ToolDescriptor{
		Name:        "execute_command",
		Description: "Execute an allow-listed shell command for file operations, system tasks, and development workflows",
		Inputs: map[string]schema.ParamSchema{
			"command":     {Type: "string", Description: "shell command to execute (supports pipes, redirects, etc.)"},
			"working_dir": {Type: "string", Description: "working directory override", Optional: true},
		},
	}
}

func (t *CommandTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	command, _ := args["command"].(string)
	if command == "" {
		return t.errorResult("command parameter is required"), nil
	}

	workingDir, _ := args["working_dir"].(string)
	if workingDir == "" {
		workingDir = t.workingDirectory
	}

	if err := t.validateCommand(command); err != nil {
		return t.errorResult(err.Error()), nil
	}

	if t.maxExecutionTime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.maxExecutionTime)
		defer cancel()
	}

	return t.run(ctx, command, workingDir), nil
}

func (t *CommandTool) validateCommand(command string) error {
	if !t.sandboxed {
		return nil
	}
	base := extractBaseCommand(command)
	for _, allowed := range t.allowedCommands {
		if base == allowed {
			return nil
		}
	}
	return fmt.Errorf("command not allowed: %s", base)
}

func (t *CommandTool) run(ctx context.Context, command, workingDir string) Result {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = workingDir

	start := time.Now()
	output, err := cmd.CombinedOutput()
	elapsed := time.Since(start)

	result := Result{
		Content:       string(output),
		Success:       err == nil,
		ToolName:      "execute_command",
		ExecutionTime: elapsed,
		Metadata:      map[string]any{"command": command, "working_dir": workingDir},
	}
	if err != nil {
		result.Error = err.Error()
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.Metadata["exit_code"] = exitErr.ExitCode()
		}
	}
	return result
}

func (t *CommandTool) errorResult(message string) Result {
	return Result{Success: false, Error: message, ToolName: "execute_command"}
}

func extractBaseCommand(command string) string {
	parts := strings.FieldsFunc(command, func(r rune) bool {
		return r == '|' || r == '>' || r == '<' || r == ';'
	})
	if len(parts) == 0 {
		return ""
	}
	words := strings.Fields(strings.TrimSpace(parts[0]))
	if len(words) == 0 {
		return ""
	}
	return words[0]
}
