package agentloop

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/kadirpekel/minion/schema"
)

// autoDecay implements spec.md §4.9's auto-decay pass: after a step,
// every historical message whose content is >= decayMinSize bytes, was
// created >= decayTTLSteps steps ago, and is not a system message has
// its content swapped for a short file reference. currentStep is the
// state's step count at the time decay runs (it runs after a step, so
// the just-produced messages are eligible once old enough).
func (a *Agent) autoDecay(state *schema.AgentState, currentStep int) error {
	if !a.Config.AutoDecay {
		return nil
	}
	for i := range state.History {
		entry := &state.History[i]
		if entry.Decay != nil && entry.Decay.Decayed {
			continue // already decayed
		}
		if entry.Message.Role == schema.RoleSystem {
			continue
		}
		age := currentStep - entry.Step
		if age < a.Config.DecayTTLSteps {
			continue
		}
		size := len(entry.Message.Text)
		if size < a.Config.DecayMinSizeBytes {
			continue
		}

		path, err := a.writeDecayFile(entry.Step, entry.Message.Text)
		if err != nil {
			return fmt.Errorf("agentloop: decaying message at step %d: %w", entry.Step, err)
		}

		entry.Decay = &schema.DecayedMarker{Decayed: true, FilePath: path, OriginalSize: size}
		entry.Message.Text = fmt.Sprintf("[content decayed to %s, %d bytes]", path, size)
	}
	return nil
}

// writeDecayFile writes content to <cache_dir>/decay-step<N>-<uuid>.txt,
// per spec.md §6's naming convention, and records the path so Close can
// best-effort remove it.
func (a *Agent) writeDecayFile(step int, content string) (string, error) {
	if err := os.MkdirAll(a.Config.CacheDir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("decay-step%d-%s.txt", step, uuid.NewString())
	path := filepath.Join(a.Config.CacheDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", err
	}
	a.mu.Lock()
	a.createdDecayFiles = append(a.createdDecayFiles, path)
	a.mu.Unlock()
	return path, nil
}

func removeFile(path string) error {
	return os.Remove(path)
}
