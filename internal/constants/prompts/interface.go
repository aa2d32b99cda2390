package prompts

type PromptDefinition struct {
	Content string
	Version float32
}

type SysPrompt struct {
	Intent         string
	CurrentVersion float32
	Items          map[float32]PromptDefinition // version-content
}

func (sp *SysPrompt) GetVersion(version float32) (PromptDefinition, bool) {
	i, ok := sp.Items[version]
	return i, ok
}

func (sp *SysPrompt) GetCurrentPrompt() PromptDefinition {
	return sp.Items[sp.CurrentVersion]
}
