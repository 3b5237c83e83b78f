package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kadirpekel/minion/schema"
)

// FileWriterTool creates or overwrites a file under a fixed working
// directory, with path-traversal checks, extension allowlisting, and an
// optional .bak backup of anything it overwrites.
type FileWriterTool struct {
	maxFileSize       int
	allowedExtensions []string
	backupOnOverwrite bool
	workingDirectory  string
}

// NewFileWriterTool builds a FileWriterTool with secure defaults.
func NewFileWriterTool(workingDirectory string, allowedExtensions []string, maxFileSize int) *FileWriterTool {
	if workingDirectory == "" {
		workingDirectory = "./"
	}
	if len(allowedExtensions) == 0 {
		allowedExtensions = []string{".go", ".yaml", ".md", ".json", ".txt", ".sh"}
	}
	if maxFileSize == 0 {
		maxFileSize = 1048576
	}
	return &FileWriterTool{
		maxFileSize:       maxFileSize,
		allowedExtensions: allowedExtensions,
		backupOnOverwrite: true,
		workingDirectory:  workingDirectory,
	}
}

func (t *FileWriterTool) Descriptor() schema.ToolDescriptor {
	return schema.ToolDescriptor{
		Name:        "write_file",
		Description: "Create a new file or overwrite an existing file with content, with automatic backup on overwrite",
		Inputs: map[string]schema.ParamSchema{
			"path":    {Type: "string", Description: "file path relative to the working directory"},
			"content": {Type: "string", Description: "content to write to the file"},
			"backup":  {Type: "boolean", Description: "create a .bak backup if the file exists", Optional: true, Default: true},
		},
	}
}

func (t *FileWriterTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	start := time.Now()

	path, _ := args["path"].(string)
	if path == "" {
		return t.errorResult("path parameter is required", start), nil
	}
	content, ok := args["content"].(string)
	if !ok {
		return t.errorResult("content parameter is required", start), nil
	}
	backup := true
	if b, ok := args["backup"].(bool); ok {
		backup = b
	}

	if err := t.validatePath(path); err != nil {
		return t.errorResult(err.Error(), start), nil
	}
	if len(content) > t.maxFileSize {
		return t.errorResult(fmt.Sprintf("content too large: %d bytes (max: %d)", len(content), t.maxFileSize), start), nil
	}

	fullPath := filepath.Join(t.workingDirectory, path)

	fileExisted := false
	if backup && t.backupOnOverwrite {
		if _, err := os.Stat(fullPath); err == nil {
			fileExisted = true
			if err := copyFile(fullPath, fullPath+".bak"); err != nil {
				return t.errorResult(fmt.Sprintf("failed to create backup: %v", err), start), nil
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return t.errorResult(fmt.Sprintf("failed to create directory: %v", err), start), nil
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		return t.errorResult(fmt.Sprintf("failed to write file: %v", err), start), nil
	}

	action := "created"
	if fileExisted {
		action = "overwritten"
	}
	message := fmt.Sprintf("File %s successfully: %s (%d bytes)", action, path, len(content))
	if fileExisted && backup {
		message += fmt.Sprintf("\nBackup created: %s.bak", path)
	}

	return Result{
		Success:       true,
		Content:       message,
		ToolName:      "write_file",
		ExecutionTime: time.Since(start),
		Metadata: map[string]any{
			"path": path, "size": len(content), "backed_up": fileExisted && backup,
			"file_existed": fileExisted, "action": action,
		},
	}, nil
}

func (t *FileWriterTool) validatePath(path string) error {
	if filepath.IsAbs(path) {
		return fmt.Errorf("absolute paths not allowed, use relative paths")
	}
	cleaned := filepath.Clean(path)
	if strings.Contains(cleaned, "..") {
		return fmt.Errorf("directory traversal not allowed (..)")
	}

	absPath, err := filepath.Abs(filepath.Join(t.workingDirectory, cleaned))
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	absWorkDir, err := filepath.Abs(t.workingDirectory)
	if err != nil {
		return fmt.Errorf("invalid working directory: %w", err)
	}
	if !strings.HasPrefix(absPath, absWorkDir) {
		return fmt.Errorf("path escapes working directory")
	}

	if len(t.allowedExtensions) > 0 {
		ext := filepath.Ext(path)
		if ext == "" {
			return fmt.Errorf("file must have an extension")
		}
		allowed := false
		for _, e := range t.allowedExtensions {
			if ext == e {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("file extension %s not allowed (allowed: %v)", ext, t.allowedExtensions)
		}
	}
	return nil
}

func (t *FileWriterTool) errorResult(msg string, start time.Time) Result {
	return Result{Success: false, Error: msg, ToolName: "write_file", ExecutionTime: time.Since(start)}
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
