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

// SearchReplaceTool replaces exact text in a file, preserving the rest
// of its formatting and indentation. Unlike FileWriterTool it edits
// a file in place rather than rewriting it wholesale.
type SearchReplaceTool struct {
	maxReplacements  int
	showDiff         bool
	createBackup     bool
	workingDirectory string
}

// NewSearchReplaceTool builds a SearchReplaceTool with secure defaults.
func NewSearchReplaceTool(workingDirectory string) *SearchReplaceTool {
	if workingDirectory == "" {
		workingDirectory = "./"
	}
	return &SearchReplaceTool{
		maxReplacements:  100,
		showDiff:         true,
		createBackup:     true,
		workingDirectory: workingDirectory,
	}
}

func (t *SearchReplaceTool) Descriptor() schema.ToolDescriptor {
	return schema.ToolDescriptor{
		Name:        "search_replace",
		Description: "Replace exact text in a file. Preserves formatting and indentation. Use for precise edits.",
		Inputs: map[string]schema.ParamSchema{
			"path":        {Type: "string", Description: "file path to edit (relative to working directory)"},
			"old_string":  {Type: "string", Description: "exact text to find (must be unique unless replace_all=true)"},
			"new_string":  {Type: "string", Description: "replacement text"},
			"replace_all": {Type: "boolean", Description: "replace all occurrences (default: false, requires unique match)", Optional: true, Default: false},
		},
	}
}

func (t *SearchReplaceTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	start := time.Now()

	path, _ := args["path"].(string)
	if path == "" {
		return t.errorResult("path parameter is required", start), nil
	}
	oldString, _ := args["old_string"].(string)
	if oldString == "" {
		return t.errorResult("old_string parameter is required", start), nil
	}
	newString, ok := args["new_string"].(string)
	if !ok {
		return t.errorResult("new_string parameter is required", start), nil
	}
	replaceAll, _ := args["replace_all"].(bool)

	if err := t.validatePath(path); err != nil {
		return t.errorResult(err.Error(), start), nil
	}
	fullPath := filepath.Join(t.workingDirectory, path)

	content, err := os.ReadFile(fullPath)
	if err != nil {
		return t.errorResult(fmt.Sprintf("failed to read file: %v", err), start), nil
	}
	originalContent := string(content)

	if !strings.Contains(originalContent, oldString) {
		return t.errorResult(fmt.Sprintf("old_string not found in file: %q", truncate(oldString, 50)), start), nil
	}

	count := strings.Count(originalContent, oldString)
	if !replaceAll && count > 1 {
		return t.errorResult(fmt.Sprintf("old_string appears %d times - must be unique or use replace_all=true", count), start), nil
	}
	if count > t.maxReplacements {
		return t.errorResult(fmt.Sprintf("too many replacements: %d (max: %d)", count, t.maxReplacements), start), nil
	}

	var newContent string
	replacementCount := 0
	if replaceAll {
		newContent = strings.ReplaceAll(originalContent, oldString, newString)
		replacementCount = count
	} else {
		newContent = strings.Replace(originalContent, oldString, newString, 1)
		replacementCount = 1
	}

	backedUp := false
	if t.createBackup {
		if err := copyFile(fullPath, fullPath+".bak"); err != nil {
			return t.errorResult(fmt.Sprintf("failed to create backup: %v", err), start), nil
		}
		backedUp = true
	}

	if err := os.WriteFile(fullPath, []byte(newContent), 0644); err != nil {
		return t.errorResult(fmt.Sprintf("failed to write file: %v", err), start), nil
	}

	var response strings.Builder
	fmt.Fprintf(&response, "Replaced %d occurrence(s) in %s\n", replacementCount, path)
	if t.showDiff {
		response.WriteString("\n" + diffSummary(oldString, newString) + "\n")
	}
	if backedUp {
		fmt.Fprintf(&response, "\nBackup created: %s.bak", path)
	}

	return Result{
		Success:       true,
		Content:       response.String(),
		ToolName:      "search_replace",
		ExecutionTime: time.Since(start),
		Metadata: map[string]any{
			"path":         path,
			"replacements": replacementCount,
			"replace_all":  replaceAll,
			"backed_up":    backedUp,
			"size_change":  len(newContent) - len(originalContent),
		},
	}, nil
}

func (t *SearchReplaceTool) validatePath(path string) error {
	if filepath.IsAbs(path) {
		return fmt.Errorf("absolute paths not allowed")
	}
	cleaned := filepath.Clean(path)
	if strings.Contains(cleaned, "..") {
		return fmt.Errorf("directory traversal not allowed")
	}
	fullPath := filepath.Join(t.workingDirectory, path)
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", path)
	}
	return nil
}

func (t *SearchReplaceTool) errorResult(msg string, start time.Time) Result {
	return Result{Success: false, Error: msg, ToolName: "search_replace", ExecutionTime: time.Since(start)}
}

func diffSummary(oldStr, newStr string) string {
	var diff strings.Builder
	diff.WriteString("Changes:\n")
	diff.WriteString(strings.Repeat("-", 60) + "\n")
	for _, line := range strings.Split(oldStr, "\n") {
		if line != "" {
			fmt.Fprintf(&diff, "- %s\n", line)
		}
	}
	for _, line := range strings.Split(newStr, "\n") {
		if line != "" {
			fmt.Fprintf(&diff, "+ %s\n", line)
		}
	}
	diff.WriteString(strings.Repeat("-", 60))
	return diff.String()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
